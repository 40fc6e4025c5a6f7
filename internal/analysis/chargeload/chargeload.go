// Package chargeload scales a normalized daily charging profile by the
// average power demand of each charging site and sums the result per grid
// zone.
package chargeload

import (
	"fmt"
	"log"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/interp"
	"gonum.org/v1/gonum/stat"

	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/geoio"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/tabular"
)

// Load profile table columns
const (
	ColHours = "Hours"
	ColPower = "Power (kW)"
	ColTotal = "Total (MW)"
	ColShape = "Power" // unit-mean profile
)

// Charger location attributes
const (
	FieldZone   = "zone"
	FieldCenter = "Nearest Center"
	FieldAvgDem = "Av P Dem" // MW
)

// HoursPerDay is the span of the sampled profile
const HoursPerDay = 24

// Profile is a daily load shape normalized to a unit average
type Profile struct {
	Hours []float64
	Shape []float64
}

// ProfilePoints returns the measured profile sorted by hour. Readings that
// share an hour are averaged.
func ProfilePoints(t *tabular.Table) (hours, kw []float64, err error) {
	if err := t.Require(ColHours, ColPower); err != nil {
		return nil, nil, err
	}
	sums := make(map[float64]float64)
	counts := make(map[float64]int)
	_ = t.Each(func(_ int, r tabular.Row) error {
		h, ok := r.Float(ColHours)
		if !ok {
			return nil
		}
		p, ok := r.Float(ColPower)
		if !ok {
			return nil
		}
		sums[h] += p
		counts[h]++
		return nil
	})

	for h := range sums {
		hours = append(hours, h)
	}
	sort.Float64s(hours)
	kw = make([]float64, len(hours))
	for i, h := range hours {
		kw[i] = sums[h] / float64(counts[h])
	}
	if len(hours) < 2 {
		return nil, nil, fmt.Errorf("load profile %s has %d distinct hours, need at least 2", t.Name, len(hours))
	}
	return hours, kw, nil
}

// Smooth fits an Akima spline through the measured profile and samples it
// at evenly spaced hours over the day. Hours outside the measured range
// take the nearest measured value. The samples are scaled to a unit mean.
func Smooth(hours, kw []float64, samples int) (Profile, error) {
	if samples < 2 {
		return Profile{}, fmt.Errorf("need at least 2 profile samples, got %d", samples)
	}
	var spline interp.AkimaSpline
	if err := spline.Fit(hours, kw); err != nil {
		return Profile{}, fmt.Errorf("failed to fit load profile: %w", err)
	}

	prof := Profile{Hours: make([]float64, samples), Shape: make([]float64, samples)}
	floats.Span(prof.Hours, 0, HoursPerDay)
	for i, h := range prof.Hours {
		prof.Shape[i] = spline.Predict(h)
	}
	mean := stat.Mean(prof.Shape, nil)
	if mean <= 0 {
		return Profile{}, fmt.Errorf("load profile has a non-positive mean %g", mean)
	}
	floats.Scale(1/mean, prof.Shape)
	return prof, nil
}

// Table renders the normalized profile
func (p Profile) Table() *tabular.Table {
	t := tabular.New("extreme_load_profile_smooth", ColHours, ColShape)
	for i := range p.Hours {
		_ = t.Append(tabular.FormatFloat(p.Hours[i]), tabular.FormatFloat(p.Shape[i]))
	}
	return t
}

// Charger is the average power draw of the sites served by one center
type Charger struct {
	Zone   string
	Center string
	AvgMW  float64
}

// Chargers reads the charging sites. A center listed more than once within
// a zone keeps its first demand.
func Chargers(l *geoio.Layer) ([]Charger, error) {
	if err := l.Require(FieldZone, FieldCenter, FieldAvgDem); err != nil {
		return nil, err
	}
	seen := make(map[[2]string]bool)
	var out []Charger
	var skipped int
	for _, f := range l.Features {
		c := Charger{Zone: f.String(FieldZone), Center: f.String(FieldCenter)}
		mw, ok := f.Float(FieldAvgDem)
		if c.Zone == "" || c.Center == "" || !ok {
			skipped++
			continue
		}
		key := [2]string{c.Zone, c.Center}
		if seen[key] {
			continue
		}
		seen[key] = true
		c.AvgMW = mw
		out = append(out, c)
	}
	if skipped > 0 {
		log.Printf("[ChargingLoad] Skipped %d charger locations without a zone, center or demand", skipped)
	}
	return out, nil
}

// ZoneLoad is the daily charging load of one zone
type ZoneLoad struct {
	Zone     string
	Centers  []string
	Hours    []float64
	ByCenter [][]float64 // MW, indexed like Centers
	Total    []float64   // MW
}

// ZoneLoads scales the profile by every charger's average demand and sums
// the centers of each zone. Zones keep their order of first appearance.
func ZoneLoads(chargers []Charger, prof Profile) []ZoneLoad {
	index := make(map[string]int)
	var out []ZoneLoad
	for _, c := range chargers {
		i, ok := index[c.Zone]
		if !ok {
			i = len(out)
			index[c.Zone] = i
			out = append(out, ZoneLoad{Zone: c.Zone, Hours: prof.Hours, Total: make([]float64, len(prof.Hours))})
		}
		z := &out[i]
		load := make([]float64, len(prof.Shape))
		floats.ScaleTo(load, c.AvgMW, prof.Shape)
		floats.Add(z.Total, load)
		z.Centers = append(z.Centers, c.Center)
		z.ByCenter = append(z.ByCenter, load)
	}
	return out
}

// Table renders the zone load with one column per center and the total
func (z ZoneLoad) Table() *tabular.Table {
	cols := append([]string{ColHours}, z.Centers...)
	t := tabular.New("daily_ev_load_"+z.Zone, append(cols, ColTotal)...)
	for i, h := range z.Hours {
		row := make([]string, 0, len(z.Centers)+2)
		row = append(row, tabular.FormatFloat(h))
		for _, load := range z.ByCenter {
			row = append(row, tabular.FormatFloat(load[i]))
		}
		row = append(row, tabular.FormatFloat(z.Total[i]))
		_ = t.Append(row...)
	}
	return t
}
