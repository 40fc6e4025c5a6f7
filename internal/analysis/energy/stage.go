package energy

import (
	"context"
	"fmt"
	"log"
	"path"

	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/analysis"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/analysis/grid"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/analysis/highway"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/config"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/geoio"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/models"
)

// Name is the registered stage name
const Name = "energy-demand"

// Output layers
const (
	OutputDir  = "trucking_energy_demand"
	LayerState = "trucking_energy_demand"
	LayerLinks = "trucking_energy_demand_links"
)

var (
	StatePath = path.Join(OutputDir, LayerState)
	LinksPath = path.Join(OutputDir, LayerLinks)
)

var (
	stateColumns = []string{models.FieldStateAbbr, models.FieldAnEDem, models.FieldPercGen, models.FieldPercCap, models.FieldPercDiff}
	linkColumns  = []string{models.FieldID, models.FieldAnEDem}
)

func init() {
	analysis.Register(Name, "Estimate electrified trucking energy demand per link and per state", func(p *config.Pipeline) analysis.Stage {
		return New(p)
	})
}

// Stage rolls highway flows up to state energy demand
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

func (s *Stage) Run(ctx context.Context, job *analysis.Job) (*analysis.Result, error) {
	p := s.pipeline
	out := analysis.OutputFor(p)

	fit, err := ReadFit(p.Path(p.Inputs.PayloadFit))
	if err != nil {
		return nil, err
	}
	joined, err := geoio.ReadShapefile(p.Path(path.Join(highway.OutputDir, highway.LayerNoMin) + ".shp"))
	if err != nil {
		return nil, fmt.Errorf("failed to read highway links: %w", err)
	}
	links, linkStats, err := Links(joined, fit, p.Energy.Efficiency)
	if err != nil {
		return nil, err
	}
	job.Progress(1, 3, 0)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	genCap, err := geoio.ReadShapefile(p.Path(grid.GenCapPath(p.Energy.Year) + ".shp"))
	if err != nil {
		return nil, fmt.Errorf("failed to read generation and capacity: %w", err)
	}
	supply, err := ReadSupply(genCap)
	if err != nil {
		return nil, err
	}
	rows := Rollup(ByState(links), supply)
	if len(rows) == 0 {
		return nil, fmt.Errorf("no state has both trucking demand and generation data")
	}

	states, err := geoio.ReadShapefile(p.Path(p.Inputs.StateBounds))
	if err != nil {
		return nil, fmt.Errorf("failed to read state boundaries: %w", err)
	}
	merged, joinStats, err := JoinStates(states, rows)
	if err != nil {
		return nil, err
	}
	job.Progress(2, 3, 0)

	res := &analysis.Result{}
	w, err := out.Write(merged, StatePath, stateColumns)
	if err != nil {
		return nil, err
	}
	res.Add(w)

	links.Name = LayerLinks
	w, err = out.Write(links, LinksPath, linkColumns)
	if err != nil {
		return nil, err
	}
	res.Add(w)
	job.Progress(3, 3, 0)

	var totalMWh float64
	for _, r := range rows {
		totalMWh += r.DemandMWh
	}
	log.Printf("[EnergyDemand] Rolled up %.0f MWh/yr over %d states", totalMWh, len(rows))

	res.Summary = map[string]any{
		"links":      linkStats,
		"states":     len(rows),
		"join":       joinStats,
		"efficiency": p.Energy.Efficiency,
		"fit":        fit,
		"total_mwh":  totalMWh,
	}
	return res, nil
}
