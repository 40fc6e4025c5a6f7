package rates

import (
	"context"
	"fmt"
	"log"
	"path"

	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/analysis"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/config"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/geoio"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/models"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/tabular"
)

// Name is the registered stage name
const Name = "rates"

// Output layers
var (
	OutputDir     = "electricity_rates_merged"
	StatePath     = path.Join(OutputDir, "electricity_rates_by_state_merged")
	ZipcodePath   = path.Join(OutputDir, "electricity_rates_by_zipcode_merged")
	UtilitiesPath = path.Join(OutputDir, "demand_charges_merged")
)

func init() {
	analysis.Register(Name, "Join electricity prices and demand charges to state, zip code and utility boundaries", func(p *config.Pipeline) analysis.Stage {
		return New(p)
	})
}

// Stage writes the electricity price layers
type Stage struct {
	pipeline *config.Pipeline
}

// New creates the stage
func New(p *config.Pipeline) *Stage {
	return &Stage{pipeline: p}
}

func (s *Stage) Name() string {
	return Name
}

// Run writes up to three layers. A layer whose table or boundary input is
// not configured is skipped.
func (s *Stage) Run(ctx context.Context, job *analysis.Job) (*analysis.Result, error) {
	p := s.pipeline
	out := analysis.OutputFor(p)
	res := &analysis.Result{Summary: map[string]any{}}

	steps := []struct {
		name        string
		table, bnds string
		run         func() (*geoio.Layer, geoio.JoinStats, error)
		rel         string
		columns     []string
	}{
		{"state", p.Inputs.StateElectricityRates, p.Inputs.StateBounds, s.states, StatePath, []string{models.FieldStateAbbr, FieldCommRate}},
		{"zipcode", p.Inputs.ZipcodeRates, p.Inputs.ZipcodeBounds, s.zipcodes, ZipcodePath, []string{FieldZipCode, FieldCommRate}},
		{"demand_charge", p.Inputs.DemandCharges, p.Inputs.UtilityBounds, s.utilities, UtilitiesPath, []string{FieldUtilityID, FieldMaxDemChg}},
	}

	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if step.table == "" || step.bnds == "" {
			log.Printf("[Rates] No %s inputs configured, skipping", step.name)
			continue
		}
		layer, st, err := step.run()
		if err != nil {
			return nil, fmt.Errorf("failed to build %s layer: %w", step.name, err)
		}
		w, err := out.Write(layer, step.rel, step.columns)
		if err != nil {
			return nil, err
		}
		res.Add(w)
		res.Summary[step.name] = st
		job.Progress(i+1, len(steps), 0)
	}

	if len(res.Outputs) == 0 {
		return nil, fmt.Errorf("no electricity price inputs configured")
	}
	log.Printf("[Rates] Wrote %d electricity price layers", len(res.Outputs))
	return res, nil
}

func (s *Stage) states() (*geoio.Layer, geoio.JoinStats, error) {
	p := s.pipeline
	t, err := tabular.ReadXLSX(p.Path(p.Inputs.StateElectricityRates), SalesSheet, SalesHeaderRow)
	if err != nil {
		return nil, geoio.JoinStats{}, err
	}
	prices, err := StatePrices(t, p.Rates.Year, p.Rates.PriceColumn)
	if err != nil {
		return nil, geoio.JoinStats{}, err
	}
	if len(prices) == 0 {
		return nil, geoio.JoinStats{}, fmt.Errorf("no state prices for %d", p.Rates.Year)
	}
	bounds, err := geoio.ReadShapefile(p.Path(p.Inputs.StateBounds))
	if err != nil {
		return nil, geoio.JoinStats{}, fmt.Errorf("failed to read state boundaries: %w", err)
	}
	return JoinStates(bounds, prices)
}

func (s *Stage) zipcodes() (*geoio.Layer, geoio.JoinStats, error) {
	p := s.pipeline
	t, err := tabular.ReadCSV(p.Path(p.Inputs.ZipcodeRates))
	if err != nil {
		return nil, geoio.JoinStats{}, err
	}
	prices, err := ZipPrices(t)
	if err != nil {
		return nil, geoio.JoinStats{}, err
	}
	bounds, err := geoio.ReadShapefile(p.Path(p.Inputs.ZipcodeBounds))
	if err != nil {
		return nil, geoio.JoinStats{}, fmt.Errorf("failed to read zip code boundaries: %w", err)
	}
	return JoinZipcodes(bounds, prices)
}

func (s *Stage) utilities() (*geoio.Layer, geoio.JoinStats, error) {
	p := s.pipeline
	t, err := tabular.ReadXLSX(p.Path(p.Inputs.DemandCharges), DemandSheet, 1)
	if err != nil {
		return nil, geoio.JoinStats{}, err
	}
	charges, err := DemandCharges(t)
	if err != nil {
		return nil, geoio.JoinStats{}, err
	}
	bounds, err := geoio.ReadShapefile(p.Path(p.Inputs.UtilityBounds))
	if err != nil {
		return nil, geoio.JoinStats{}, fmt.Errorf("failed to read utility boundaries: %w", err)
	}
	return JoinUtilities(bounds, charges)
}
