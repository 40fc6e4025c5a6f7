// Package rates joins commercial electricity prices and utility demand
// charges to their state, zip code and service territory boundaries.
package rates

import (
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb/geojson"

	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/geoio"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/models"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/reference"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/tabular"
)

// EIA sales workbook layout. The header spans two rows, so the state and
// price cells are addressed by position.
const (
	SalesSheet     = "Total Electric Industry"
	SalesHeaderRow = 3
	SalesYear      = "Year"
	SalesStateCol  = 1
)

// Zip code rate table columns
const (
	ColZip         = "zip"
	ColServiceType = "service_type"
	ColCommRate    = "comm_rate" // $/kWh
	Bundled        = "Bundled"
)

// Demand charge workbook layout
const (
	DemandSheet     = "Data"
	ColUtilityID    = "Utility ID (EIA)"
	ColMaxDemCharge = "Maximum Demand Charge ($/kW)"
)

// Boundary keys and output attributes
const (
	FieldZipCode   = "ZIP_CODE"
	FieldUtilityID = "ID"

	FieldCommRate  = "Com_Rate" // cents/kWh
	FieldMaxDemChg = "MaxDemCh" // $/kW
)

// StatePrices reads the commercial price in cents/kWh per state for a data
// year. priceCol is the 0-based position of the commercial price column.
func StatePrices(t *tabular.Table, year, priceCol int) (map[string]float64, error) {
	if err := t.Require(SalesYear); err != nil {
		return nil, err
	}
	if priceCol <= SalesStateCol || priceCol >= len(t.Columns) {
		return nil, fmt.Errorf("price column %d outside the %d columns of %s", priceCol, len(t.Columns), t.Name)
	}

	prices := make(map[string]float64)
	_ = t.Each(func(_ int, r tabular.Row) error {
		if y, ok := r.Int(SalesYear); !ok || y != year {
			return nil
		}
		st, ok := reference.StateByAbbrev(r.At(SalesStateCol))
		if !ok {
			return nil
		}
		if v, ok := tabular.ParseFloat(r.At(priceCol)); ok {
			prices[st.Abbrev] = v
		}
		return nil
	})
	return prices, nil
}

// ZipPrices reads bundled-service commercial prices per five-digit zip code
// in cents/kWh. Zip codes served by several utilities get the mean price.
func ZipPrices(t *tabular.Table) (map[string]float64, error) {
	if err := t.Require(ColZip, ColServiceType, ColCommRate); err != nil {
		return nil, err
	}

	sums := make(map[string]float64)
	counts := make(map[string]int)
	_ = t.Each(func(_ int, r tabular.Row) error {
		if r.String(ColServiceType) != Bundled {
			return nil
		}
		rate, ok := r.Float(ColCommRate)
		if !ok {
			return nil
		}
		zip := PadZip(r.String(ColZip))
		if zip == "" {
			return nil
		}
		sums[zip] += 100 * rate
		counts[zip]++
		return nil
	})

	prices := make(map[string]float64, len(sums))
	for zip, s := range sums {
		prices[zip] = s / float64(counts[zip])
	}
	return prices, nil
}

// PadZip left-pads a numeric zip code to five digits. Values written as
// floats such as 2134.0 are accepted; anything else returns "".
func PadZip(s string) string {
	v, ok := tabular.ParseFloat(s)
	if !ok || v < 0 || v != math.Trunc(v) {
		return ""
	}
	return fmt.Sprintf("%05d", int(v))
}

// DemandCharges returns the maximum demand charge in $/kW per EIA utility
// id, taking the largest value over every tariff of the utility
func DemandCharges(t *tabular.Table) (map[string]float64, error) {
	if err := t.Require(ColUtilityID, ColMaxDemCharge); err != nil {
		return nil, err
	}

	charges := make(map[string]float64)
	var skipped int
	_ = t.Each(func(_ int, r tabular.Row) error {
		id, ok := r.Int(ColUtilityID)
		if !ok {
			skipped++
			return nil
		}
		v, ok := r.Float(ColMaxDemCharge)
		if !ok {
			return nil
		}
		key := strconv.Itoa(id)
		if cur, seen := charges[key]; !seen || v > cur {
			charges[key] = v
		}
		return nil
	})
	if skipped > 0 {
		log.Printf("[Rates] Skipped %d demand charge rows without a utility id", skipped)
	}
	return charges, nil
}

// JoinStates attaches Com_Rate to the state boundaries. States without a
// price are dropped.
func JoinStates(bounds *geoio.Layer, prices map[string]float64) (*geoio.Layer, geoio.JoinStats, error) {
	return join(bounds, models.FieldStateAbbr, FieldCommRate, prices, []string{"NAME"})
}

// JoinZipcodes attaches Com_Rate to zip code boundaries with a bundled price
func JoinZipcodes(bounds *geoio.Layer, prices map[string]float64) (*geoio.Layer, geoio.JoinStats, error) {
	if err := bounds.Require(FieldZipCode); err != nil {
		return nil, geoio.JoinStats{}, err
	}
	// shapefile readers may hand back numeric zip codes
	padded := bounds.Clone()
	padded.SetField(geoio.StringField(FieldZipCode, 5))
	for _, f := range padded.Features {
		if z := PadZip(f.String(FieldZipCode)); z != "" {
			f.Properties[FieldZipCode] = z
		}
	}
	return join(padded, FieldZipCode, FieldCommRate, prices, []string{})
}

// JoinUtilities attaches MaxDemCh to the retail service territories.
// Territories without a charge, or with a negative one, are dropped.
func JoinUtilities(bounds *geoio.Layer, charges map[string]float64) (*geoio.Layer, geoio.JoinStats, error) {
	valid := make(map[string]float64, len(charges))
	for id, v := range charges {
		if v >= 0 {
			valid[id] = v
		}
	}
	if n := len(charges) - len(valid); n > 0 {
		log.Printf("[Rates] Dropped %d utilities with a negative demand charge", n)
	}
	return join(bounds, FieldUtilityID, FieldMaxDemChg, valid, []string{})
}

func join(bounds *geoio.Layer, key, field string, values map[string]float64, keep []string) (*geoio.Layer, geoio.JoinStats, error) {
	if err := bounds.Require(key); err != nil {
		return nil, geoio.JoinStats{}, err
	}
	rows := make(map[string]geojson.Properties, len(values))
	for k, v := range values {
		rows[strings.TrimSpace(k)] = geojson.Properties{field: v}
	}
	j := geoio.Join{Key: key, Keep: keep, Fields: []geoio.Field{geoio.FloatField(field)}}
	out, st := j.Apply(bounds, rows)
	return out, st, nil
}
