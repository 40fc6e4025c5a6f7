package geoio

import (
	"log"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Join attaches tabular rows to the features of a boundary layer by key
type Join struct {
	Key    string   // attribute of the boundary layer matched against the row keys
	Keep   []string // boundary attributes to carry over besides Key; nil keeps all
	Fields []Field  // schema of the row attributes

	// Fill holds the values given to features without a row. Nil drops
	// those features instead.
	Fill geojson.Properties
}

// JoinStats counts the outcome of a join
type JoinStats struct {
	Matched    int `json:"matched"`
	Unmatched  int `json:"unmatched"`
	UnusedRows int `json:"unused_rows"`
}

// Apply returns a new layer with one feature per boundary feature, carrying
// the matching row's attributes. A row applies to every feature with its key.
func (j Join) Apply(bounds *Layer, rows map[string]geojson.Properties) (*Layer, JoinStats) {
	var st JoinStats

	out := &Layer{Name: bounds.Name, CRS: bounds.CRS}
	keep := map[string]bool{j.Key: true}
	for _, f := range bounds.Fields {
		if j.Keep == nil || f.Name == j.Key || contains(j.Keep, f.Name) {
			out.Fields = append(out.Fields, f)
			keep[f.Name] = true
		}
	}
	for _, f := range j.Fields {
		out.SetField(f)
	}

	used := make(map[string]bool, len(rows))
	for _, f := range bounds.Features {
		key := f.String(j.Key)
		row, ok := rows[key]
		if !ok && j.Fill == nil {
			st.Unmatched++
			continue
		}

		var g orb.Geometry
		if f.Geometry != nil {
			g = orb.Clone(f.Geometry)
		}
		nf := NewFeature(g)
		for k, v := range f.Properties {
			if keep[k] {
				nf.Properties[k] = v
			}
		}

		src := row
		if ok {
			used[key] = true
			st.Matched++
		} else {
			src = j.Fill
			st.Unmatched++
		}
		for k, v := range src {
			nf.Properties[k] = v
		}
		out.Add(nf)
	}
	st.UnusedRows = len(rows) - len(used)

	if st.Unmatched > 0 || st.UnusedRows > 0 {
		log.Printf("[geoio] Joined %d features of %s on %s (%d without data, %d rows without a boundary)",
			st.Matched, bounds.Name, j.Key, st.Unmatched, st.UnusedRows)
	}
	return out, st
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
