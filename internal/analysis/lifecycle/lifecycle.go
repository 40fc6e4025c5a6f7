// Package lifecycle reads GREET well-to-wheels results for truck, rail and
// ship freight and splits them into upstream and operational intensities
// per ton-mile.
package lifecycle

import (
	"fmt"
	"log"
	"sort"

	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/tabular"
)

// Unit conversions of the marine tables
const (
	TonnesToTons = 1.10231
	KmToMiles    = 0.621371
)

// GREET truck columns
const (
	ColFeedstock = "Feedstock"
	ColFuel      = "Fuel"
	ColVehicleOp = "Vehicle Operation"
	ColTotal     = "Total"
)

// Stage split columns. Rail tables already carry them.
const (
	ColWTP = "WTP" // well to pump
	ColPTW = "PTW" // pump to wheels
	ColWTW = "WTW"
	ColPTH = "PTH" // pump to hull
	ColWTH = "WTH"
)

// GREET marine columns
const (
	ColItem = "Item"
	ColTrip = "Trip" // g/million tonne-km
)

// Modes
const (
	Truck = "truck"
	Rail  = "rail"
	Ship  = "ship"
)

// Intensity is one GREET item split by life cycle stage, per ton-mile.
// Operation is pump-to-wheels for land modes and pump-to-hull for ships.
type Intensity struct {
	Item      string
	Upstream  float64
	Operation float64
	Total     float64
}

// TruckIntensities reads the truck table. Upstream is feedstock plus fuel
// production.
func TruckIntensities(t *tabular.Table) ([]Intensity, error) {
	if err := t.Require(ColFeedstock, ColFuel, ColVehicleOp, ColTotal); err != nil {
		return nil, err
	}
	return collect(t, func(r tabular.Row) (Intensity, bool) {
		feed, ok1 := r.Float(ColFeedstock)
		fuel, ok2 := r.Float(ColFuel)
		op, ok3 := r.Float(ColVehicleOp)
		total, ok4 := r.Float(ColTotal)
		return Intensity{Upstream: feed + fuel, Operation: op, Total: total}, ok1 && ok2 && ok3 && ok4
	})
}

// RailIntensities reads the rail table, which is already split
func RailIntensities(t *tabular.Table) ([]Intensity, error) {
	if err := t.Require(ColWTP, ColPTW, ColWTW); err != nil {
		return nil, err
	}
	return collect(t, func(r tabular.Row) (Intensity, bool) {
		wtp, ok1 := r.Float(ColWTP)
		ptw, ok2 := r.Float(ColPTW)
		wtw, ok3 := r.Float(ColWTW)
		return Intensity{Upstream: wtp, Operation: ptw, Total: wtw}, ok1 && ok2 && ok3
	})
}

// collect reads one intensity per row, naming it by the first column
func collect(t *tabular.Table, parse func(tabular.Row) (Intensity, bool)) ([]Intensity, error) {
	if len(t.Columns) == 0 {
		return nil, fmt.Errorf("table %s has no columns", t.Name)
	}
	var out []Intensity
	var skipped int
	_ = t.Each(func(_ int, r tabular.Row) error {
		in, ok := parse(r)
		in.Item = r.At(0)
		if !ok || in.Item == "" {
			skipped++
			return nil
		}
		out = append(out, in)
		return nil
	})
	if skipped > 0 {
		log.Printf("[LCA] Skipped %d incomplete rows of %s", skipped, t.Name)
	}
	return out, nil
}

// PerTonMile converts a marine trip value from g/million tonne-km to g/ton-mile
func PerTonMile(gPerMillionTonneKm float64) float64 {
	return gPerMillionTonneKm / 1e6 / TonnesToTons / KmToMiles
}

// ShipIntensities combines the marine feedstock, conversion and combustion
// tables by item. Upstream is feedstock plus conversion; items missing from
// any table are skipped.
func ShipIntensities(feedstock, conversion, combustion *tabular.Table) ([]Intensity, error) {
	trips := make([]map[string]float64, 3)
	for i, t := range []*tabular.Table{feedstock, conversion, combustion} {
		if err := t.Require(ColItem, ColTrip); err != nil {
			return nil, err
		}
		trips[i] = make(map[string]float64)
		_ = t.Each(func(_ int, r tabular.Row) error {
			if v, ok := r.Float(ColTrip); ok && r.String(ColItem) != "" {
				trips[i][r.String(ColItem)] = PerTonMile(v)
			}
			return nil
		})
	}

	var out []Intensity
	var missing int
	_ = feedstock.Each(func(_ int, r tabular.Row) error {
		item := r.String(ColItem)
		feed, ok1 := trips[0][item]
		conv, ok2 := trips[1][item]
		comb, ok3 := trips[2][item]
		if !ok1 || !ok2 || !ok3 {
			missing++
			return nil
		}
		out = append(out, Intensity{Item: item, Upstream: feed + conv, Operation: comb, Total: feed + conv + comb})
		return nil
	})
	if missing > 0 {
		log.Printf("[LCA] Skipped %d marine items missing from a stage table", missing)
	}
	return out, nil
}

// Table renders the intensities of a mode with its stage column names
func Table(mode string, rows []Intensity) *tabular.Table {
	op, total := ColPTW, ColWTW
	if mode == Ship {
		op, total = ColPTH, ColWTH
	}
	t := tabular.New(mode, ColItem, ColWTP, op, total)
	for _, r := range rows {
		_ = t.Append(r.Item, tabular.FormatFloat(r.Upstream), tabular.FormatFloat(r.Operation), tabular.FormatFloat(r.Total))
	}
	return t
}

// Compare lists the total intensity of every item reported by all modes,
// sorted by item
func Compare(byMode map[string][]Intensity) *tabular.Table {
	modes := make([]string, 0, len(byMode))
	for m := range byMode {
		modes = append(modes, m)
	}
	sort.Strings(modes)

	totals := make(map[string]map[string]float64)
	for _, m := range modes {
		for _, in := range byMode[m] {
			if totals[in.Item] == nil {
				totals[in.Item] = make(map[string]float64)
			}
			totals[in.Item][m] = in.Total
		}
	}

	var items []string
	for item, byM := range totals {
		if len(byM) == len(modes) {
			items = append(items, item)
		}
	}
	sort.Strings(items)

	t := tabular.New("lca_comparison", append([]string{ColItem}, modes...)...)
	for _, item := range items {
		row := []string{item}
		for _, m := range modes {
			row = append(row, tabular.FormatFloat(totals[item][m]))
		}
		_ = t.Append(row...)
	}
	return t
}
