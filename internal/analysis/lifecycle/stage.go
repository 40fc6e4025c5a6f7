package lifecycle

import (
	"context"
	"fmt"
	"log"
	"path"

	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/analysis"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/config"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/tabular"
)

// Name is the registered stage name
const Name = "lca"

// OutputDir holds the per-mode tables
const OutputDir = "lca"

// ModeFile returns the relative path of a mode's table
func ModeFile(mode string) string {
	return path.Join(OutputDir, mode+"_lca.csv")
}

// ComparisonFile is the relative path of the cross-mode table
var ComparisonFile = path.Join(OutputDir, "lca_comparison.csv")

func init() {
	analysis.Register(Name, "Split GREET truck, rail and ship intensities into upstream and operational stages", func(p *config.Pipeline) analysis.Stage {
		return New(p)
	})
}

// Stage writes the life cycle tables
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

// Run requires the truck table; rail and ship are written when configured
func (s *Stage) Run(ctx context.Context, job *analysis.Job) (*analysis.Result, error) {
	p := s.pipeline
	in := p.Inputs
	byMode := make(map[string][]Intensity)

	truck, err := s.read(in.GREETTruck)
	if err != nil {
		return nil, err
	}
	if byMode[Truck], err = TruckIntensities(truck); err != nil {
		return nil, err
	}
	job.Progress(1, 3, 0)

	if in.GREETRail != "" {
		rail, err := s.read(in.GREETRail)
		if err != nil {
			return nil, err
		}
		if byMode[Rail], err = RailIntensities(rail); err != nil {
			return nil, err
		}
	} else {
		log.Printf("[LCA] No rail table configured, skipping")
	}
	job.Progress(2, 3, 0)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if in.GREETShipFeed != "" && in.GREETShipConv != "" && in.GREETShipCombust != "" {
		var tables [3]*tabular.Table
		for i, rel := range []string{in.GREETShipFeed, in.GREETShipConv, in.GREETShipCombust} {
			if tables[i], err = s.read(rel); err != nil {
				return nil, err
			}
		}
		if byMode[Ship], err = ShipIntensities(tables[0], tables[1], tables[2]); err != nil {
			return nil, err
		}
	} else {
		log.Printf("[LCA] Marine tables not configured, skipping")
	}
	job.Progress(3, 3, 0)

	res := &analysis.Result{Summary: map[string]any{}}
	for _, mode := range []string{Truck, Rail, Ship} {
		rows, ok := byMode[mode]
		if !ok {
			continue
		}
		out := p.Path(ModeFile(mode))
		if err := Table(mode, rows).WriteCSV(out); err != nil {
			return nil, err
		}
		res.Files = append(res.Files, out)
		res.Summary[mode] = len(rows)
	}
	if len(byMode) > 1 {
		out := p.Path(ComparisonFile)
		cmp := Compare(byMode)
		if err := cmp.WriteCSV(out); err != nil {
			return nil, err
		}
		res.Files = append(res.Files, out)
		res.Summary["compared_items"] = cmp.Len()
	}

	log.Printf("[LCA] Wrote life cycle tables for %d modes", len(byMode))
	return res, nil
}

func (s *Stage) read(rel string) (*tabular.Table, error) {
	t, err := tabular.ReadCSV(s.pipeline.Path(rel))
	if err != nil {
		return nil, fmt.Errorf("failed to read GREET table: %w", err)
	}
	return t, nil
}
