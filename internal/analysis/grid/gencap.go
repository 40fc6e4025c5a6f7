package grid

import (
	"fmt"
	"log"
	"sort"

	"github.com/paulmach/orb/geojson"

	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/geoio"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/models"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/reference"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/tabular"
)

// TotalProducer selects the all-producers rows of the EIA state tables
const TotalProducer = "Total Electric Power Industry"

// Source describes where a state quantity sits in an EIA workbook
type Source struct {
	Sheet     string
	HeaderRow int
	Year      string
	State     string
	Producer  string
	Fuel      string
	Value     string

	FuelTotal string // fuel value of the all-sources rows
}

// CapacitySource is the layout of the EIA existing capacity workbook
var CapacitySource = Source{
	Sheet:     "Existing Capacity",
	HeaderRow: 2,
	Year:      "Year",
	State:     "State Code",
	Producer:  "Producer Type",
	Fuel:      "Fuel Source",
	Value:     "Summer Capacity (Megawatts)",
	FuelTotal: "All Sources",
}

// GenerationSource is the layout of the EIA annual generation workbook
var GenerationSource = Source{
	HeaderRow: 2,
	Year:      "YEAR",
	State:     "STATE",
	Producer:  "TYPE OF PRODUCER",
	Fuel:      "ENERGY SOURCE",
	Value:     "GENERATION (Megawatthours)",
	FuelTotal: "Total",
}

// ReadStateTotals reads the total value per state for a data year
func ReadStateTotals(path string, src Source, year int) (map[string]float64, error) {
	t, err := tabular.ReadXLSX(path, src.Sheet, src.HeaderRow)
	if err != nil {
		return nil, fmt.Errorf("failed to read EIA workbook: %w", err)
	}
	return StateTotals(t, src, year)
}

// StateTotals sums the rows of a year for the total producer and all
// fuel sources, keyed by state code. Rows outside the 50 states and DC
// (such as US totals) are ignored.
func StateTotals(t *tabular.Table, src Source, year int) (map[string]float64, error) {
	if err := t.Require(src.Year, src.State, src.Producer, src.Fuel, src.Value); err != nil {
		return nil, err
	}

	totals := make(map[string]float64)
	_ = t.Each(func(_ int, r tabular.Row) error {
		if y, ok := r.Int(src.Year); !ok || y != year {
			return nil
		}
		if r.String(src.Producer) != TotalProducer || r.String(src.Fuel) != src.FuelTotal {
			return nil
		}
		st, ok := reference.StateByAbbrev(r.String(src.State))
		if !ok {
			return nil
		}
		if v, ok := r.Float(src.Value); ok {
			totals[st.Abbrev] += v
		}
		return nil
	})
	return totals, nil
}

// GenCap combines net summer capacity (MW) and generation (MWh) per state.
// Only states present in both tables are returned, sorted by code.
func GenCap(capacityMW, generationMWh map[string]float64) []models.GridRegion {
	var out []models.GridRegion
	var partial int
	for state, mw := range capacityMW {
		mwh, ok := generationMWh[state]
		if !ok {
			partial++
			continue
		}
		out = append(out, models.GridRegion{Name: state, CapacityMW: mw, Generation: mwh / 1000})
	}
	partial += len(generationMWh) - len(out)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	if partial > 0 {
		log.Printf("[GenCap] Dropped %d states missing capacity or generation", partial)
	}
	return out
}

var genCapJoin = geoio.Join{
	Key:  models.FieldStateAbbr,
	Keep: []string{"NAME"},
	Fields: []geoio.Field{
		geoio.FloatField(models.FieldAnnGen),
		geoio.FloatField(models.FieldAnnCap),
		geoio.FloatField(models.FieldAnnDiff),
	},
}

// JoinGenCap attaches Ann_Gen, Ann_Cap and Ann_Diff (GWh) to the state boundaries
func JoinGenCap(bounds *geoio.Layer, regions []models.GridRegion) (*geoio.Layer, geoio.JoinStats, error) {
	if err := bounds.Require(models.FieldStateAbbr); err != nil {
		return nil, geoio.JoinStats{}, err
	}
	rows := make(map[string]geojson.Properties, len(regions))
	for _, r := range regions {
		rows[r.Name] = geojson.Properties{
			models.FieldAnnGen:  r.Generation,
			models.FieldAnnCap:  r.AnnualCapacity(),
			models.FieldAnnDiff: r.AnnualDifference(),
		}
	}
	out, st := genCapJoin.Apply(bounds, rows)
	return out, st, nil
}
