package grid

import (
	"fmt"
	"log"
	"math"
	"sort"

	"github.com/paulmach/orb/geojson"

	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/geoio"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/models"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/tabular"
)

// EIA-930 balance table columns
const (
	ColBalancingAuthority = "Balancing Authority"
	ColDemandMW           = "Demand (MW)"
)

// Demand layer attributes
const (
	FieldBA       = "ABBRV"
	FieldMaxDem   = "MaxDem"   // MW
	FieldAvgDem   = "AvgDem"   // MW
	FieldCapacity = "Capacity" // MW, net summer capacity
	FieldArea     = "Shape_Area"
)

// AuthorityDemand summarizes the hourly demand of one balancing authority
type AuthorityDemand struct {
	Name  string
	Max   float64
	Mean  float64
	Hours int
}

// ReadAuthorityDemand reads and concatenates the EIA-930 balance tables
func ReadAuthorityDemand(paths ...string) ([]AuthorityDemand, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no balancing authority demand tables configured")
	}
	var tables []*tabular.Table
	for _, p := range paths {
		t, err := tabular.ReadCSV(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read demand table: %w", err)
		}
		tables = append(tables, t)
	}
	return AuthorityDemands(tables...)
}

// AuthorityDemands returns the maximum and mean hourly demand of each
// balancing authority, sorted by name. Missing and negative readings are
// dropped.
func AuthorityDemands(tables ...*tabular.Table) ([]AuthorityDemand, error) {
	byName := make(map[string]*AuthorityDemand)
	sums := make(map[string]float64)
	var dropped int

	for _, t := range tables {
		if err := t.Require(ColBalancingAuthority, ColDemandMW); err != nil {
			return nil, err
		}
		_ = t.Each(func(_ int, r tabular.Row) error {
			name := r.String(ColBalancingAuthority)
			mw, ok := r.Float(ColDemandMW)
			if name == "" || !ok || mw < 0 {
				dropped++
				return nil
			}
			d, seen := byName[name]
			if !seen {
				d = &AuthorityDemand{Name: name, Max: math.Inf(-1)}
				byName[name] = d
			}
			d.Max = math.Max(d.Max, mw)
			d.Hours++
			sums[name] += mw
			return nil
		})
	}
	if dropped > 0 {
		log.Printf("[GridDemand] Dropped %d rows without a valid demand", dropped)
	}

	out := make([]AuthorityDemand, 0, len(byName))
	for name, d := range byName {
		d.Mean = sums[name] / float64(d.Hours)
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

var authorityJoin = geoio.Join{
	Key:    FieldBA,
	Keep:   []string{FieldArea},
	Fields: []geoio.Field{geoio.FloatField(FieldMaxDem), geoio.FloatField(FieldAvgDem)},
}

// JoinAuthorities attaches MaxDem and AvgDem to the planning areas. Areas
// without demand data are dropped.
func JoinAuthorities(bounds *geoio.Layer, demands []AuthorityDemand) (*geoio.Layer, geoio.JoinStats, error) {
	if err := bounds.Require(FieldBA); err != nil {
		return nil, geoio.JoinStats{}, err
	}
	rows := make(map[string]geojson.Properties, len(demands))
	for _, d := range demands {
		rows[d.Name] = geojson.Properties{FieldMaxDem: d.Max, FieldAvgDem: d.Mean}
	}
	out, st := authorityJoin.Apply(bounds, rows)
	return out, st, nil
}

var capacityJoin = geoio.Join{
	Key:    models.FieldStateAbbr,
	Keep:   []string{FieldArea},
	Fields: []geoio.Field{geoio.FloatField(FieldCapacity)},
	Fill:   geojson.Properties{FieldCapacity: nil},
}

// JoinCapacity attaches the net summer capacity to every state boundary.
// States without a capacity keep an empty value.
func JoinCapacity(bounds *geoio.Layer, capacityMW map[string]float64) (*geoio.Layer, geoio.JoinStats, error) {
	if err := bounds.Require(models.FieldStateAbbr); err != nil {
		return nil, geoio.JoinStats{}, err
	}
	rows := make(map[string]geojson.Properties, len(capacityMW))
	for state, mw := range capacityMW {
		rows[state] = geojson.Properties{FieldCapacity: mw}
	}
	out, st := capacityJoin.Apply(bounds, rows)
	return out, st, nil
}
