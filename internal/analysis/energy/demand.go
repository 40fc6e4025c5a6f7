// Package energy estimates the annual electricity demand of electrified
// trucking per highway link and per state.
package energy

import (
	"fmt"
	"log"
	"sort"

	"github.com/paulmach/orb/geojson"

	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/analysis/highway"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/geoio"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/models"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/tabular"
)

// Unit conversions
const (
	LbPerTon       = 2000.0
	TonsPerKiloton = 1000.0
	DaysPerYear    = 365.0
	KWhPerMWh      = 1000.0
	MWhPerGWh      = 1000.0
)

// Fit columns of the payload vs. mileage parameters
const (
	ColSlope     = "slope (kWh/lb-mi)"
	ColIntercept = "b (kWh/mi)"
)

// ExcludedStates are left out of the state rollup
var ExcludedStates = map[string]bool{"HI": true}

// Fit is the linear mileage model m = Slope·payload + Intercept in kWh/mi,
// with payload in lb
type Fit struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
}

// Mileage evaluates the fit
func (f Fit) Mileage(payloadLb float64) float64 {
	return f.Slope*payloadLb + f.Intercept
}

// ReadFit reads the first row of the fit parameters CSV
func ReadFit(path string) (Fit, error) {
	t, err := tabular.ReadCSV(path)
	if err != nil {
		return Fit{}, fmt.Errorf("failed to read mileage fit: %w", err)
	}
	if err := t.Require(ColSlope, ColIntercept); err != nil {
		return Fit{}, err
	}
	if t.Len() == 0 {
		return Fit{}, fmt.Errorf("mileage fit %s has no rows", path)
	}
	r := t.Row(0)
	slope, ok1 := r.Float(ColSlope)
	intercept, ok2 := r.Float(ColIntercept)
	if !ok1 || !ok2 {
		return Fit{}, fmt.Errorf("mileage fit %s has non-numeric parameters", path)
	}
	return Fit{Slope: slope, Intercept: intercept}, nil
}

// Demand is the estimate for one link
type Demand struct {
	PayloadLb float64 `json:"payload_lb"`
	Mileage   float64 `json:"mileage"`    // kWh/mi
	AnnualMWh float64 `json:"annual_mwh"` // grid-side
}

// LinkDemand estimates the annual demand of a link. Tons are kilotons per
// year and trips are per day; links without trips report false.
func LinkDemand(link models.HighwayLink, fit Fit, efficiency float64) (Demand, bool) {
	if !(link.Trips > 0) {
		return Demand{}, false
	}
	tonsPerDay := link.Tons * TonsPerKiloton / DaysPerYear
	payload := tonsPerDay / link.Trips * LbPerTon
	mileage := fit.Mileage(payload)
	tripsPerYear := link.Trips * DaysPerYear
	return Demand{
		PayloadLb: payload,
		Mileage:   mileage,
		AnnualMWh: mileage * link.LenMiles * tripsPerYear / KWhPerMWh / efficiency,
	}, true
}

// LinkStats summarises the per-link pass
type LinkStats struct {
	Links     int     `json:"links"`
	NoTrips   int     `json:"no_trips"`
	TotalMWh  float64 `json:"total_mwh"`
	Stateless int     `json:"stateless"`
}

// Links returns a copy of the joined links carrying Av Payload, Av Mileage
// and An E Dem. Links without trips are dropped.
func Links(links *geoio.Layer, fit Fit, efficiency float64) (*geoio.Layer, LinkStats, error) {
	var st LinkStats
	if !(efficiency > 0) || efficiency > 1 {
		return nil, st, fmt.Errorf("charging efficiency must be in (0, 1], got %v", efficiency)
	}
	if err := links.Require(models.FieldLenMiles, models.FieldTotTons, models.FieldTotTrips); err != nil {
		return nil, st, err
	}

	out := geoio.NewLayer(links.Name, links.CRS, append([]geoio.Field(nil), links.Fields...)...)
	out.SetField(geoio.FloatField(models.FieldAvPayload))
	out.SetField(geoio.FloatField(models.FieldAvMileage))
	out.SetField(geoio.FloatField(models.FieldAnEDem))

	for _, f := range links.Features {
		st.Links++
		d, ok := LinkDemand(highway.Link(f), fit, efficiency)
		if !ok {
			st.NoTrips++
			continue
		}
		nf := f.Clone()
		nf.Properties[models.FieldAvPayload] = d.PayloadLb
		nf.Properties[models.FieldAvMileage] = d.Mileage
		nf.Properties[models.FieldAnEDem] = d.AnnualMWh
		out.Add(nf)
		st.TotalMWh += d.AnnualMWh
		if f.String(models.FieldState) == "" {
			st.Stateless++
		}
	}

	log.Printf("[EnergyDemand] Estimated %.0f MWh/yr over %d links (%d without trips)", st.TotalMWh, out.Len(), st.NoTrips)
	return out, st, nil
}

// ByState sums link demand (MWh) per state code, leaving out excluded
// states and links without a state
func ByState(links *geoio.Layer) map[string]float64 {
	totals := make(map[string]float64)
	for _, f := range links.Features {
		state := f.String(models.FieldState)
		if state == "" || ExcludedStates[state] {
			continue
		}
		v, ok := f.Float(models.FieldAnEDem)
		if !ok {
			continue
		}
		totals[state] += v
	}
	return totals
}

// Supply is the generation side of a state in GWh
type Supply struct {
	Generation float64 `json:"ann_gen"`
	Capacity   float64 `json:"ann_cap"`
	Difference float64 `json:"ann_diff"`
}

// ReadSupply reads Ann_Gen, Ann_Cap and Ann_Diff per STUSPS from the
// generation and capacity layer
func ReadSupply(layer *geoio.Layer) (map[string]Supply, error) {
	if err := layer.Require(models.FieldStateAbbr, models.FieldAnnGen, models.FieldAnnCap, models.FieldAnnDiff); err != nil {
		return nil, err
	}
	out := make(map[string]Supply, layer.Len())
	for _, f := range layer.Features {
		gen, ok1 := f.Float(models.FieldAnnGen)
		capacity, ok2 := f.Float(models.FieldAnnCap)
		diff, ok3 := f.Float(models.FieldAnnDiff)
		if !ok1 || !ok2 || !ok3 {
			continue
		}
		out[f.String(models.FieldStateAbbr)] = Supply{Generation: gen, Capacity: capacity, Difference: diff}
	}
	return out, nil
}

// StateDemand is the rollup row of one state
type StateDemand struct {
	State     string  `json:"state"`
	DemandMWh float64 `json:"an_e_dem"`
	Supply    Supply  `json:"supply"`
	PercGen   float64 `json:"perc_gen"`
	PercCap   float64 `json:"perc_cap"`
	PercDiff  float64 `json:"perc_diff"`
}

// Rollup computes the demand share of generation, capacity and slack per
// state. States without supply figures are dropped. Rows are sorted by state.
func Rollup(demand map[string]float64, supply map[string]Supply) []StateDemand {
	var rows []StateDemand
	var missing int
	for state, mwh := range demand {
		s, ok := supply[state]
		if !ok {
			missing++
			continue
		}
		gwh := mwh / MWhPerGWh
		rows = append(rows, StateDemand{
			State:     state,
			DemandMWh: mwh,
			Supply:    s,
			PercGen:   percent(gwh, s.Generation),
			PercCap:   percent(gwh, s.Capacity),
			PercDiff:  percent(gwh, s.Difference),
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].State < rows[j].State })

	if missing > 0 {
		log.Printf("[EnergyDemand] Dropped %d states without generation and capacity", missing)
	}
	return rows
}

func percent(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return 100 * part / whole
}

var stateJoin = geoio.Join{
	Key:  models.FieldStateAbbr,
	Keep: []string{"NAME"},
	Fields: []geoio.Field{
		geoio.FloatField(models.FieldAnEDem),
		geoio.FloatField(models.FieldAnnGen),
		geoio.FloatField(models.FieldAnnCap),
		geoio.FloatField(models.FieldAnnDiff),
		geoio.FloatField(models.FieldPercGen),
		geoio.FloatField(models.FieldPercCap),
		geoio.FloatField(models.FieldPercDiff),
	},
}

// JoinStates attaches the rollup to the state boundaries
func JoinStates(bounds *geoio.Layer, rows []StateDemand) (*geoio.Layer, geoio.JoinStats, error) {
	if err := bounds.Require(models.FieldStateAbbr); err != nil {
		return nil, geoio.JoinStats{}, err
	}
	props := make(map[string]geojson.Properties, len(rows))
	for _, r := range rows {
		props[r.State] = geojson.Properties{
			models.FieldAnEDem:   r.DemandMWh,
			models.FieldAnnGen:   r.Supply.Generation,
			models.FieldAnnCap:   r.Supply.Capacity,
			models.FieldAnnDiff:  r.Supply.Difference,
			models.FieldPercGen:  r.PercGen,
			models.FieldPercCap:  r.PercCap,
			models.FieldPercDiff: r.PercDiff,
		}
	}
	out, st := stateJoin.Apply(bounds, props)
	return out, st, nil
}
