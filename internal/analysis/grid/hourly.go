package grid

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/paulmach/orb/geojson"

	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/geoio"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/tabular"
)

// HoursPerDay is the number of hourly layers
const HoursPerDay = 24

// Hourly profile columns, g/kWh
const (
	ColHour = "hour"
	ColMean = "mean"
	ColStd  = "std"
)

// Hourly layer attributes, lb/MWh
const (
	FieldZone    = "zoneName"
	FieldMean    = "mean"
	FieldStdUp   = "std_up"
	FieldStdDown = "std_down"
)

// Intensity is one hour of a zone profile in lb/MWh
type Intensity struct {
	Mean    float64 `json:"mean"`
	StdUp   float64 `json:"std_up"`
	StdDown float64 `json:"std_down"`
}

// Profile is the daily emission intensity profile of one zone
type Profile struct {
	Zone  string
	Hours map[int]Intensity
}

// ZoneName returns the zone a profile file belongs to: the file name up to
// its first underscore
func ZoneName(filename string) string {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	if i := strings.Index(base, "_"); i >= 0 {
		return base[:i]
	}
	return base
}

// gPerKWhToLbPerMWh converts g/kWh to lb/MWh
func gPerKWhToLbPerMWh(v float64) float64 {
	return v * KWhPerMWh / GramsPerLb
}

// ReadProfiles reads every CSV in dir, ordered by file name
func ReadProfiles(dir string) ([]Profile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list hourly profiles: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	profiles := make([]Profile, 0, len(names))
	for _, name := range names {
		t, err := tabular.ReadCSV(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		p, err := ProfileFromTable(ZoneName(name), t)
		if err != nil {
			return nil, fmt.Errorf("failed to read profile %s: %w", name, err)
		}
		profiles = append(profiles, p)
	}

	log.Printf("[Grid] Loaded %d hourly intensity profiles from %s", len(profiles), dir)
	return profiles, nil
}

// ProfileFromTable converts a profile table. Rows are keyed by the hour
// column when present, otherwise by their position.
func ProfileFromTable(zone string, t *tabular.Table) (Profile, error) {
	p := Profile{Zone: zone, Hours: make(map[int]Intensity, HoursPerDay)}
	if err := t.Require(ColMean, ColStd); err != nil {
		return p, err
	}
	hasHour := t.Has(ColHour)

	err := t.Each(func(i int, r tabular.Row) error {
		hour := i
		if hasHour {
			h, ok := r.Int(ColHour)
			if !ok {
				return fmt.Errorf("row %d has no hour", i)
			}
			hour = h
		}
		mean, okMean := r.Float(ColMean)
		std, okStd := r.Float(ColStd)
		if !okMean || !okStd {
			return nil
		}
		p.Hours[hour] = Intensity{
			Mean:    gPerKWhToLbPerMWh(mean),
			StdUp:   gPerKWhToLbPerMWh(mean + std),
			StdDown: gPerKWhToLbPerMWh(mean - std),
		}
		return nil
	})
	return p, err
}

var hourlyJoin = geoio.Join{
	Key:  FieldZone,
	Keep: []string{},
	Fields: []geoio.Field{
		geoio.FloatField(FieldMean),
		geoio.FloatField(FieldStdUp),
		geoio.FloatField(FieldStdDown),
	},
}

// JoinHour attaches the intensities of one hour to the zone boundaries.
// Zones without a boundary, or without data for the hour, are left out.
func JoinHour(bounds *geoio.Layer, profiles []Profile, hour int) (*geoio.Layer, geoio.JoinStats, error) {
	if err := bounds.Require(FieldZone); err != nil {
		return nil, geoio.JoinStats{}, err
	}
	rows := make(map[string]geojson.Properties, len(profiles))
	for _, p := range profiles {
		v, ok := p.Hours[hour]
		if !ok {
			continue
		}
		rows[p.Zone] = geojson.Properties{
			FieldMean:    v.Mean,
			FieldStdUp:   v.StdUp,
			FieldStdDown: v.StdDown,
		}
	}
	out, st := hourlyJoin.Apply(bounds, rows)
	return out, st, nil
}

// HourLayer returns the layer name for an hour
func HourLayer(hour int) string {
	return fmt.Sprintf("daily_grid_emission_profile_hour%d", hour)
}
