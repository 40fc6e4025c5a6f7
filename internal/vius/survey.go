// Package vius ingests the vehicle inventory and use survey and derives
// ton-mile weighted payload, fuel economy and weight-class distributions.
package vius

import (
	"fmt"
	"log"
	"math"

	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/reference"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/tabular"
)

// LbPerTon converts survey weights in pounds to tons
const LbPerTon = 2000.0

// mpgScale undoes the ×10 encoding of reported fuel economy
const mpgScale = 10.0

// Survey columns
const (
	ColWeightAvg   = "WEIGHTAVG"
	ColWeightEmpty = "WEIGHTEMPTY"
	ColMilesAnnual = "MILES_ANNL"
	ColFuel        = "FUEL"
	ColAdmState    = "ADM_STATE"
	ColMPG         = "MPG"
	ColPassengers  = "PPASSENGERS"
)

// Record is one surveyed truck. Null numeric cells are NaN and null codes are 0.
type Record struct {
	WeightAvg   float64
	WeightEmpty float64
	MilesAnnual float64
	MPG         float64
	Passengers  float64
	Fuel        reference.Fuel
	AdmState    int
	Class       reference.GREETClass

	// percent of ton-miles per aggregated commodity and range bucket
	Commodities map[string]float64
	Ranges      map[string]float64
}

// Payload returns the average payload in tons
func (r Record) Payload() float64 {
	return (r.WeightAvg - r.WeightEmpty) / LbPerTon
}

// Survey is the ingested table with its aggregation maps
type Survey struct {
	Records     []Record
	Commodities []reference.Aggregate
	Ranges      []reference.Aggregate
}

// Read loads a survey CSV using the fine range map
func Read(path string) (*Survey, error) {
	t, err := tabular.ReadCSV(path)
	if err != nil {
		return nil, err
	}
	return FromTable(t, reference.Commodities, reference.Ranges)
}

// FromTable builds a survey from a raw table, aggregating commodity and
// range columns with the given maps
func FromTable(t *tabular.Table, commodities, ranges []reference.Aggregate) (*Survey, error) {
	if err := t.Require(ColWeightAvg, ColWeightEmpty, ColMilesAnnual, ColFuel); err != nil {
		return nil, err
	}
	if err := reference.Validate(commodities); err != nil {
		return nil, fmt.Errorf("failed to validate commodity map: %w", err)
	}
	if err := reference.Validate(ranges); err != nil {
		return nil, fmt.Errorf("failed to validate range map: %w", err)
	}

	s := &Survey{Commodities: commodities, Ranges: ranges}
	s.Records = make([]Record, 0, t.Len())

	var unclassified int
	err := t.Each(func(_ int, row tabular.Row) error {
		r := Record{
			WeightAvg:   floatOrNaN(row, ColWeightAvg),
			WeightEmpty: floatOrNaN(row, ColWeightEmpty),
			MilesAnnual: floatOrNaN(row, ColMilesAnnual),
			MPG:         floatOrNaN(row, ColMPG) / mpgScale,
			Passengers:  floatOrNaN(row, ColPassengers),
		}
		if v, ok := row.Int(ColFuel); ok {
			r.Fuel = reference.Fuel(v)
		}
		if v, ok := row.Int(ColAdmState); ok {
			r.AdmState = v
		}
		if !math.IsNaN(r.WeightAvg) {
			r.Class = reference.ClassifyGVW(r.WeightAvg)
		} else {
			unclassified++
		}

		r.Commodities = aggregate(row, commodities)
		r.Ranges = aggregate(row, ranges)
		s.Records = append(s.Records, r)
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[VIUS] Loaded %d records (%d without average weight)", len(s.Records), unclassified)
	return s, nil
}

func floatOrNaN(row tabular.Row, col string) float64 {
	if v, ok := row.Float(col); ok {
		return v
	}
	return math.NaN()
}

// aggregate combines constituent percentages. A single constituent is copied
// as is; several are summed with nulls as zero and a zero total becomes null.
func aggregate(row tabular.Row, table []reference.Aggregate) map[string]float64 {
	out := make(map[string]float64, len(table))
	for _, a := range table {
		if len(a.VIUS) == 1 {
			out[a.Name] = floatOrNaN(row, a.VIUS[0])
			continue
		}
		var sum float64
		for _, c := range a.VIUS {
			if v, ok := row.Float(c); ok {
				sum += v
			}
		}
		if sum == 0 {
			sum = math.NaN()
		}
		out[a.Name] = sum
	}
	return out
}
