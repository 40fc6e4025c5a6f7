package vius

import (
	"fmt"
	"math"

	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/reference"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/stats"
)

// All selects every commodity or range
const All = ""

// Selection restricts the population that contributes ton-miles.
// Zero values mean no restriction.
type Selection struct {
	Fuel      reference.Fuel
	Class     reference.GREETClass
	Commodity string // aggregated commodity name
	Range     string // aggregated range name
	State     int    // VIUS administrative state code

	CommodityThreshold float64
	RangeThreshold     float64
}

// Baseline reports whether a record passes the fuel-agnostic quality cuts:
// known class, annual miles, empty weight and fuel, and no passenger share
func Baseline(r Record) bool {
	if r.Class == 0 || math.IsNaN(r.MilesAnnual) || math.IsNaN(r.WeightEmpty) || r.Fuel == 0 {
		return false
	}
	return math.IsNaN(r.Passengers) || r.Passengers == 0
}

// Matches applies the selection on top of the baseline
func (s Selection) Matches(r Record) bool {
	if !Baseline(r) {
		return false
	}
	if s.Fuel != 0 && r.Fuel != s.Fuel {
		return false
	}
	if s.Class != 0 && r.Class != s.Class {
		return false
	}
	if s.State != 0 && r.AdmState != s.State {
		return false
	}
	if s.Commodity != All {
		v, ok := r.Commodities[s.Commodity]
		if !ok || math.IsNaN(v) || v <= s.CommodityThreshold {
			return false
		}
	}
	if s.Range != All {
		v, ok := r.Ranges[s.Range]
		if !ok || math.IsNaN(v) || v <= s.RangeThreshold {
			return false
		}
	}
	return true
}

// TonMiles returns miles·payload·f_range·f_commodity for a matching record
func (s Selection) TonMiles(r Record) (float64, bool) {
	if !s.Matches(r) {
		return 0, false
	}
	tm := r.MilesAnnual * r.Payload()
	if s.Range != All {
		tm *= r.Ranges[s.Range] / 100
	}
	if s.Commodity != All {
		tm *= r.Commodities[s.Commodity] / 100
	}
	return tm, true
}

// Engine evaluates weighted aggregates over a survey
type Engine struct {
	survey *Survey
}

// NewEngine wraps a survey
func NewEngine(s *Survey) *Engine {
	return &Engine{survey: s}
}

// Survey returns the underlying survey
func (e *Engine) Survey() *Survey {
	return e.survey
}

// weights returns the ton-miles and the quantity q for every matching record
// where q is defined
func (e *Engine) weights(sel Selection, q func(Record) float64) (values, weights []float64) {
	for _, r := range e.survey.Records {
		tm, ok := sel.TonMiles(r)
		if !ok {
			continue
		}
		v := 0.0
		if q != nil {
			v = q(r)
			if math.IsNaN(v) {
				continue
			}
		}
		values = append(values, v)
		weights = append(weights, tm)
	}
	return values, weights
}

// TonMiles sums the annual ton-miles of the selection with its √Σw² uncertainty
func (e *Engine) TonMiles(sel Selection) (total, uncertainty float64) {
	_, w := e.weights(sel, nil)
	return stats.Sum(w), stats.RootSumSquares(w)
}

// Binned is a named bin of a normalized distribution
type Binned struct {
	Name        string  `json:"name"`
	Fraction    float64 `json:"fraction"`
	Uncertainty float64 `json:"uncertainty"`
}

// ClassDistribution is the diesel ton-mile share per GREET class for a
// commodity, normalized to unit sum
func (e *Engine) ClassDistribution(commodity string) []Binned {
	var out []Binned
	var totals []float64
	for _, c := range reference.GREETClasses() {
		tm, unc := e.TonMiles(Selection{Fuel: reference.Diesel, Class: c, Commodity: commodity})
		out = append(out, Binned{Name: c.String(), Fraction: tm, Uncertainty: unc})
		totals = append(totals, tm)
	}
	return normalizeBins(out, totals)
}

// ClassFuelDistribution splits a commodity's ton-miles over the three
// GVW classes for diesel and gasoline trucks
func (e *Engine) ClassFuelDistribution(commodity string) []Binned {
	var out []Binned
	var totals []float64
	for _, fuel := range []reference.Fuel{reference.Diesel, reference.Gasoline} {
		for _, c := range []reference.GREETClass{reference.HeavyGVW, reference.MediumGVW, reference.LightGVW} {
			tm, unc := e.TonMiles(Selection{Fuel: fuel, Class: c, Commodity: commodity})
			out = append(out, Binned{Name: fmt.Sprintf("%s (%s)", c, fuel), Fraction: tm, Uncertainty: unc})
			totals = append(totals, tm)
		}
	}
	return normalizeBins(out, totals)
}

func normalizeBins(bins []Binned, totals []float64) []Binned {
	sum := stats.Sum(totals)
	for i := range bins {
		if sum == 0 {
			bins[i].Fraction, bins[i].Uncertainty = 0, 0
			continue
		}
		bins[i].Fraction /= sum
		bins[i].Uncertainty /= sum
	}
	return bins
}

// Payload summarises payload in tons over the selection
func (e *Engine) Payload(sel Selection) stats.Summary {
	return stats.Summarize(e.weights(sel, Record.Payload))
}

// MPG summarises fuel economy over the selection
func (e *Engine) MPG(sel Selection) stats.Summary {
	return stats.Summarize(e.weights(sel, func(r Record) float64 { return r.MPG }))
}

// MPGTimesPayload summarises miles-per-gallon times payload (ton-miles per gallon)
func (e *Engine) MPGTimesPayload(sel Selection) stats.Summary {
	return stats.Summarize(e.weights(sel, func(r Record) float64 { return r.MPG * r.Payload() }))
}

// PayloadHistogram bins payload weighted by ton-miles
func (e *Engine) PayloadHistogram(sel Selection, bins int) stats.Histogram {
	values, weights := e.weights(sel, Record.Payload)
	return stats.WeightedHistogram(values, weights, bins)
}
