package circle

import (
	"context"
	"fmt"
	"log"
	"path"
	"path/filepath"
	"strings"

	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/analysis"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/config"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/geoio"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/tabular"
)

// Name is the registered stage name
const Name = "circle"

// OutputDir returns the directory holding the outputs of a named circle
func OutputDir(name string) string {
	return "facilities_in_circle_" + name
}

// CirclePath is the relative path of the circle layer
func CirclePath(name string) string {
	return path.Join(OutputDir(name), "circle_"+name)
}

// WithinPath is the relative path of the subset of a layer
func WithinPath(layer, name string) string {
	return path.Join(OutputDir(name), layer+"_in_circle_"+name)
}

// InfoTablePath is the relative path of the facility workbook
func InfoTablePath(name string) string {
	return path.Join(OutputDir(name), "info_table.xlsx")
}

func init() {
	analysis.Register(Name, "Identify point features within a radius of a location", func(p *config.Pipeline) analysis.Stage {
		return New(p)
	})
}

// Stage writes a circle and the point features it contains
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
	params := p.Circle
	name := params.Name
	if name == "" {
		name = "default"
	}

	c, err := Around(params.Latitude, params.Longitude, params.RadiusMiles)
	if err != nil {
		return nil, err
	}
	out := analysis.OutputFor(p)
	res := &analysis.Result{}

	boundary, err := c.Layer("circle_" + name)
	if err != nil {
		return nil, err
	}
	w, err := out.Write(boundary, CirclePath(name), nil)
	if err != nil {
		return nil, err
	}
	res.Add(w)

	found := make(map[string]int, len(params.Layers))
	var tables []*tabular.Table
	err = analysis.Each(ctx, job, len(params.Layers), func(i int) error {
		src := params.Layers[i]
		layer, err := geoio.ReadShapefile(p.Path(src))
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", src, err)
		}
		base := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
		in, err := c.Within(layer)
		if err != nil {
			return err
		}
		in.Name = base + "_in_circle_" + name
		w, err := out.Write(in, WithinPath(base, name), nil)
		if err != nil {
			return err
		}
		res.Add(w)

		t, err := Table(in)
		if err != nil {
			return err
		}
		t.Name = sheetName(base)
		tables = append(tables, t)
		found[base] = in.Len()
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(tables) > 0 {
		info := p.Path(InfoTablePath(name))
		if err := tabular.WriteXLSX(info, tables...); err != nil {
			return nil, err
		}
		res.Files = append(res.Files, info)
	}

	for layer, n := range found {
		log.Printf("[Circle] %d features of %s within %.0f miles of (%.4f, %.4f)", n, layer, params.RadiusMiles, params.Latitude, params.Longitude)
	}
	res.Summary = map[string]any{
		"name":         name,
		"latitude":     params.Latitude,
		"longitude":    params.Longitude,
		"radius_miles": params.RadiusMiles,
		"found":        found,
	}
	return res, nil
}

// sheetName fits an XLSX sheet name limit
func sheetName(s string) string {
	if len(s) > 31 {
		return s[:31]
	}
	return s
}
