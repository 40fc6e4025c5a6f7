// Package survey runs the VIUS report as a pipeline stage.
package survey

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/analysis"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/config"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/tabular"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/vius"
)

// Name is the registered stage name
const Name = "vius"

// Workbook is the file name of the combined XLSX report
const Workbook = "vius_report.xlsx"

func init() {
	analysis.Register(Name, "Aggregate VIUS payload, fuel economy and class distributions", func(p *config.Pipeline) analysis.Stage {
		return New(p)
	})
}

// Stage writes the survey report tables
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
	sv, err := vius.Read(p.Path(p.Inputs.VIUS))
	if err != nil {
		return nil, fmt.Errorf("failed to read survey: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tables := vius.NewEngine(sv).Report(p.VIUS.HistogramBins)
	dir := p.Path(p.VIUS.OutputDir)
	res := &analysis.Result{}

	err = analysis.Each(ctx, job, len(tables), func(i int) error {
		path := filepath.Join(dir, tables[i].Name+".csv")
		if err := tables[i].WriteCSV(path); err != nil {
			return err
		}
		res.Files = append(res.Files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if p.VIUS.XLSX {
		path := filepath.Join(dir, Workbook)
		if err := tabular.WriteXLSX(path, tables...); err != nil {
			return nil, err
		}
		res.Files = append(res.Files, path)
	}

	log.Printf("[VIUS] Wrote %d report tables from %d survey records", len(tables), len(sv.Records))
	res.Summary = map[string]any{"records": len(sv.Records), "tables": len(tables)}
	return res, nil
}
