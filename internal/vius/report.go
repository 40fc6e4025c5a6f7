package vius

import (
	"strconv"

	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/reference"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/stats"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/tabular"
)

// Report table names
const (
	TableClassDistribution     = "class_distribution"
	TableClassFuelDistribution = "class_fuel_distribution"
	TablePayload               = "payload_by_class"
	TableMPG                   = "mpg_by_class"
	TableMPGTimesPayload       = "mpg_times_payload"
	TablePayloadHistogram      = "payload_histogram"
)

const allLabel = "all"

var summaryColumns = []string{"mean", "std", "ton_miles", "uncertainty", "n"}

// Report renders every exposure of the engine as output tables.
// Commodity rows start with the unrestricted "all" population.
func (e *Engine) Report(histogramBins int) []*tabular.Table {
	commodities := []string{All}
	for _, c := range e.survey.Commodities {
		commodities = append(commodities, c.Name)
	}

	classDist := tabular.New(TableClassDistribution, "commodity", "class", "fraction", "uncertainty")
	classFuel := tabular.New(TableClassFuelDistribution, "commodity", "class_fuel", "fraction", "uncertainty")
	payload := tabular.New(TablePayload, append([]string{"commodity", "class"}, summaryColumns...)...)
	mpg := tabular.New(TableMPG, append([]string{"commodity", "class"}, summaryColumns...)...)
	mpgPayload := tabular.New(TableMPGTimesPayload, append([]string{"dimension", "name"}, summaryColumns...)...)
	hist := tabular.New(TablePayloadHistogram, "commodity", "bin_low", "bin_high", "ton_miles", "uncertainty")

	classes := append([]reference.GREETClass{0}, reference.GREETClasses()...)

	for _, c := range commodities {
		label := labelOf(c)
		for _, b := range e.ClassDistribution(c) {
			_ = classDist.Append(label, b.Name, tabular.FormatFloat(b.Fraction), tabular.FormatFloat(b.Uncertainty))
		}
		for _, b := range e.ClassFuelDistribution(c) {
			_ = classFuel.Append(label, b.Name, tabular.FormatFloat(b.Fraction), tabular.FormatFloat(b.Uncertainty))
		}
		for _, class := range classes {
			sel := Selection{Fuel: reference.Diesel, Class: class, Commodity: c}
			className := allLabel
			if class != 0 {
				className = class.String()
			}
			_ = payload.Append(append([]string{label, className}, summaryCells(e.Payload(sel))...)...)
			_ = mpg.Append(append([]string{label, className}, summaryCells(e.MPG(sel))...)...)
		}

		sel := Selection{Fuel: reference.Diesel, Commodity: c}
		_ = mpgPayload.Append(append([]string{"commodity", label}, summaryCells(e.MPGTimesPayload(sel))...)...)

		h := e.PayloadHistogram(sel, histogramBins)
		for i := range h.Counts {
			_ = hist.Append(label,
				tabular.FormatFloat(h.Edges[i]), tabular.FormatFloat(h.Edges[i+1]),
				tabular.FormatFloat(h.Counts[i]), tabular.FormatFloat(h.Uncertainty[i]))
		}
	}

	for _, r := range e.survey.Ranges {
		sel := Selection{Fuel: reference.Diesel, Range: r.Name}
		_ = mpgPayload.Append(append([]string{"range", r.Name}, summaryCells(e.MPGTimesPayload(sel))...)...)
	}

	return []*tabular.Table{classDist, classFuel, payload, mpg, mpgPayload, hist}
}

func labelOf(commodity string) string {
	if commodity == All {
		return allLabel
	}
	return commodity
}

func summaryCells(s stats.Summary) []string {
	return []string{
		tabular.FormatFloat(s.Mean),
		tabular.FormatFloat(s.StdDev),
		tabular.FormatFloat(s.TotalWeight),
		tabular.FormatFloat(s.Uncertainty),
		strconv.Itoa(s.Count),
	}
}
