// Package policy counts state-level incentives and regulations for
// alternative fuels and emissions.
package policy

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/paulmach/orb/geojson"

	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/geoio"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/models"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/reference"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/tabular"
)

// Columns of the category tables
const (
	ColState = "State"
	ColName  = "Name"
	ColTypes = "Types"
)

// Support kinds
const (
	Incentives  = "incentives"
	Regulations = "regulations"
)

// Categories are the source tables, {category}_{support}
var Categories = []string{"vehicle_purchase", "fuel_use", "emissions", "infrastructure"}

// Emissions is the type appended to rows that also appear as emissions policy
const Emissions = "Emissions"

// FuelTypes are counted per state on every non-emissions view
var FuelTypes = []string{"Biodiesel", "Ethanol", "Electricity", "Hydrogen", "Natural Gas", "Propane", "Renewable Diesel"}

// AllKey names the combined incentives and regulations view
const AllKey = "all_incentives_and_regulations"

// Record is one incentive or regulation
type Record struct {
	State string   `json:"state"`
	Name  string   `json:"name"`
	Types []string `json:"types"`
}

// TypesString joins the types the way the source tables list them
func (r Record) TypesString() string {
	return strings.Join(r.Types, ", ")
}

func (r Record) key() string {
	return r.State + "\x00" + r.Name
}

// SplitTypes splits a comma-separated types cell
func SplitTypes(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// FromTable converts a category table. Rows whose state cannot be resolved
// are dropped and counted.
func FromTable(t *tabular.Table) ([]Record, int, error) {
	if err := t.Require(ColState, ColName); err != nil {
		return nil, 0, err
	}
	var out []Record
	var dropped int
	err := t.Each(func(_ int, r tabular.Row) error {
		state, ok := reference.StateAbbrev(r.String(ColState))
		if !ok {
			dropped++
			return nil
		}
		rec := Record{State: state, Name: r.String(ColName)}
		if t.Has(ColTypes) {
			rec.Types = SplitTypes(r.String(ColTypes))
		}
		out = append(out, rec)
		return nil
	})
	return out, dropped, err
}

// ReadCategories reads every CSV in dir, keyed by file name without
// extension
func ReadCategories(dir string) (map[string][]Record, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list policy tables: %w", err)
	}

	out := make(map[string][]Record)
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			continue
		}
		t, err := tabular.ReadCSV(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		recs, dropped, err := FromTable(t)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", e.Name(), err)
		}
		if dropped > 0 {
			log.Printf("[Policy] Warning: %d rows of %s have an unknown state", dropped, e.Name())
		}
		out[strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))] = recs
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no policy tables in %s", dir)
	}
	return out, nil
}

// Dedupe merges records sharing (state, name), keeping first-seen order and
// the ordered union of their types
func Dedupe(recs []Record) []Record {
	index := make(map[string]int, len(recs))
	var out []Record
	for _, r := range recs {
		if i, ok := index[r.key()]; ok {
			out[i].Types = union(out[i].Types, r.Types)
			continue
		}
		index[r.key()] = len(out)
		r.Types = append([]string(nil), r.Types...)
		out = append(out, r)
	}
	return out
}

func union(a, b []string) []string {
	for _, t := range b {
		if !containsType(a, t) {
			a = append(a, t)
		}
	}
	return a
}

func containsType(types []string, t string) bool {
	for _, v := range types {
		if v == t {
			return true
		}
	}
	return false
}

// Combine builds the all_{support} view: every non-emissions category of
// the support kind deduplicated, then emissions rows folded in as the
// Emissions type
func Combine(tables map[string][]Record, support string) []Record {
	var keys []string
	for k := range tables {
		if strings.HasSuffix(k, "_"+support) && !strings.HasPrefix(k, "emissions") && !strings.HasPrefix(k, "all_") {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var all []Record
	for _, k := range keys {
		all = append(all, tables[k]...)
	}
	all = Dedupe(all)

	index := make(map[string]int, len(all))
	for i, r := range all {
		index[r.key()] = i
	}
	emissions, ok := tables["emissions_"+support]
	if !ok {
		log.Printf("[Policy] Warning: no emissions_%s table", support)
	}
	for _, r := range emissions {
		if i, ok := index[r.key()]; ok {
			all[i].Types = union(all[i].Types, []string{Emissions})
			continue
		}
		index[r.key()] = len(all)
		all = append(all, Record{State: r.State, Name: r.Name, Types: []string{Emissions}})
	}
	return all
}

// Aggregate adds the all_incentives, all_regulations and combined views to
// the category tables
func Aggregate(tables map[string][]Record) map[string][]Record {
	out := make(map[string][]Record, len(tables)+3)
	for k, v := range tables {
		out[k] = v
	}
	inc := Combine(tables, Incentives)
	reg := Combine(tables, Regulations)
	out["all_"+Incentives] = inc
	out["all_"+Regulations] = reg
	out[AllKey] = append(append([]Record(nil), inc...), reg...)
	return out
}

// CountTypes returns the counted types of a view: none for emissions
// tables, fuel types for categories, fuel types plus Emissions for all_*
func CountTypes(key string) []string {
	switch {
	case strings.Contains(key, "emissions"):
		return nil
	case strings.HasPrefix(key, "all"):
		return append(append([]string(nil), FuelTypes...), Emissions)
	default:
		return FuelTypes
	}
}

// StateCount is the per-state tally of one view
type StateCount struct {
	State  string         `json:"state"`
	All    int            `json:"all"`
	ByType map[string]int `json:"by_type,omitempty"`
}

// Count tallies records per state, sorted by state. A record counts toward
// a type when its types mention it.
func Count(recs []Record, types []string) []StateCount {
	byState := make(map[string]*StateCount)
	for _, r := range recs {
		c, ok := byState[r.State]
		if !ok {
			c = &StateCount{State: r.State, ByType: make(map[string]int, len(types))}
			for _, t := range types {
				c.ByType[t] = 0
			}
			byState[r.State] = c
		}
		c.All++
		joined := r.TypesString()
		for _, t := range types {
			if strings.Contains(joined, t) {
				c.ByType[t]++
			}
		}
	}

	out := make([]StateCount, 0, len(byState))
	for _, c := range byState {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].State < out[j].State })
	return out
}

// FieldAll carries the total count
const FieldAll = "all"

// Fields returns the output schema for the counted types
func Fields(types []string) []geoio.Field {
	fields := []geoio.Field{geoio.IntField(FieldAll)}
	for _, t := range types {
		fields = append(fields, geoio.IntField(geoio.DBFName(t)))
	}
	return fields
}

// JoinStates attaches counts to the state boundaries; states without any
// record get zero
func JoinStates(bounds *geoio.Layer, counts []StateCount, types []string) (*geoio.Layer, geoio.JoinStats, error) {
	if err := bounds.Require(models.FieldStateAbbr); err != nil {
		return nil, geoio.JoinStats{}, err
	}
	fields := Fields(types)
	fill := make(geojson.Properties, len(fields))
	for _, f := range fields {
		fill[f.Name] = 0
	}

	rows := make(map[string]geojson.Properties, len(counts))
	for _, c := range counts {
		props := geojson.Properties{FieldAll: c.All}
		for _, t := range types {
			props[geoio.DBFName(t)] = c.ByType[t]
		}
		rows[c.State] = props
	}

	j := geoio.Join{Key: models.FieldStateAbbr, Keep: []string{"Shape_Area"}, Fields: fields, Fill: fill}
	out, st := j.Apply(bounds, rows)
	return out, st, nil
}
