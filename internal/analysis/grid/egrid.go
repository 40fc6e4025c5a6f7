// Package grid ingests grid emission intensities and state generation and
// capacity, joining each source to its boundary layer.
package grid

import (
	"fmt"
	"log"
	"strings"

	"github.com/paulmach/orb/geojson"

	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/geoio"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/models"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/reference"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/tabular"
)

// Unit conversions
const (
	LbPerKg    = 2.20462
	GramsPerLb = 453.592
	KWhPerMWh  = 1000.0
)

// eGRID subregion table columns
const (
	ColSubregion = "SUBRGN"
	ColCO2Eq     = "SRCO2EQA" // annual CO2 equivalent emissions, tons
	ColCO2EqRate = "SRC2ERTA" // annual CO2 equivalent output rate, lb/MWh

	// FieldSubregion is the subregion key of the boundary shapefile
	FieldSubregion = "ZipSubregi"
)

// EIA state rate columns
const (
	ColState     = "state"
	ColCO2KgRate = "co2_kg_per_mwh"
)

// ReadEGRID reads the subregion rows of an eGRID workbook sheet
func ReadEGRID(path, sheet string, headerRow int) ([]models.GridRegion, error) {
	t, err := tabular.ReadXLSX(path, sheet, headerRow)
	if err != nil {
		return nil, fmt.Errorf("failed to read eGRID data: %w", err)
	}
	return EGRIDRegions(t)
}

// EGRIDRegions converts an eGRID subregion table. Rows without a rate are skipped.
func EGRIDRegions(t *tabular.Table) ([]models.GridRegion, error) {
	if err := t.Require(ColSubregion, ColCO2EqRate); err != nil {
		return nil, err
	}

	var regions []models.GridRegion
	var skipped int
	_ = t.Each(func(_ int, r tabular.Row) error {
		name := strings.TrimSpace(r.String(ColSubregion))
		rate, ok := r.Float(ColCO2EqRate)
		if name == "" || !ok {
			skipped++
			return nil
		}
		tons, _ := r.Float(ColCO2Eq)
		regions = append(regions, models.GridRegion{Name: name, CO2Rate: rate, EmissionsTons: tons})
		return nil
	})
	if skipped > 0 {
		log.Printf("[Grid] Skipped %d eGRID rows without a subregion rate", skipped)
	}
	return regions, nil
}

// ReadStateRates reads the EIA state CO2 table and converts kg/MWh to lb/MWh.
// State names or codes are normalized to two-letter codes.
func ReadStateRates(path string) ([]models.GridRegion, error) {
	t, err := tabular.ReadCSV(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read EIA state rates: %w", err)
	}
	return StateRates(t)
}

// StateRates converts an EIA state CO2 table
func StateRates(t *tabular.Table) ([]models.GridRegion, error) {
	if err := t.Require(ColState, ColCO2KgRate); err != nil {
		return nil, err
	}

	var regions []models.GridRegion
	var skipped int
	_ = t.Each(func(_ int, r tabular.Row) error {
		abbrev, ok := reference.StateAbbrev(r.String(ColState))
		kg, hasRate := r.Float(ColCO2KgRate)
		if !ok || !hasRate {
			skipped++
			return nil
		}
		regions = append(regions, models.GridRegion{Name: abbrev, CO2Rate: kg * LbPerKg})
		return nil
	})
	if skipped > 0 {
		log.Printf("[Grid] Skipped %d EIA rows without a known state or rate", skipped)
	}
	return regions, nil
}

var egridJoin = geoio.Join{
	Key:  FieldSubregion,
	Keep: []string{},
	Fields: []geoio.Field{
		geoio.FloatField(ColCO2Eq),
		geoio.FloatField(ColCO2EqRate),
		geoio.FloatField(models.FieldCO2Rate),
	},
}

// JoinEGRID attaches subregion rates to the subregion boundaries
func JoinEGRID(bounds *geoio.Layer, regions []models.GridRegion) (*geoio.Layer, geoio.JoinStats, error) {
	if err := bounds.Require(FieldSubregion); err != nil {
		return nil, geoio.JoinStats{}, err
	}
	rows := make(map[string]geojson.Properties, len(regions))
	for _, r := range regions {
		rows[r.Name] = geojson.Properties{
			ColCO2Eq:            r.EmissionsTons,
			ColCO2EqRate:        r.CO2Rate,
			models.FieldCO2Rate: r.CO2Rate,
		}
	}
	out, st := egridJoin.Apply(bounds, rows)
	return out, st, nil
}

var stateRateJoin = geoio.Join{
	Key:    models.FieldStateAbbr,
	Keep:   []string{"NAME"},
	Fields: []geoio.Field{geoio.FloatField(models.FieldCO2Rate)},
}

// JoinStateRates attaches state rates to the state boundaries
func JoinStateRates(bounds *geoio.Layer, regions []models.GridRegion) (*geoio.Layer, geoio.JoinStats, error) {
	if err := bounds.Require(models.FieldStateAbbr); err != nil {
		return nil, geoio.JoinStats{}, err
	}
	rows := make(map[string]geojson.Properties, len(regions))
	for _, r := range regions {
		rows[r.Name] = geojson.Properties{models.FieldCO2Rate: r.CO2Rate}
	}
	out, st := stateRateJoin.Apply(bounds, rows)
	return out, st, nil
}
