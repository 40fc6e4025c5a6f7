// Package simplify regenerates the simplified web copies of the indexed
// layers from their shapefiles.
package simplify

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/analysis"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/config"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/geoio"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/models"
)

// Name is the registered stage name
const Name = "simplify"

func init() {
	analysis.Register(Name, "Rewrite the simplified GeoJSON of every indexed layer", func(p *config.Pipeline) analysis.Stage {
		return New(p)
	})
}

// Stage rewrites the web copies
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

// ShapefileFor returns the shapefile a web layer is simplified from
func ShapefileFor(p *config.Pipeline, e models.LayerEntry) string {
	return p.Path(strings.TrimSuffix(e.Path, filepath.Ext(e.Path)) + ".shp")
}

// Columns returns the property names of an existing web copy, or nil when
// there is none
func Columns(path string) ([]string, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	l, err := geoio.ReadGeoJSON(path)
	if err != nil {
		return nil, err
	}
	columns := make([]string, 0, len(l.Fields))
	for _, f := range l.Fields {
		columns = append(columns, f.Name)
	}
	return columns, nil
}

func (s *Stage) Run(ctx context.Context, job *analysis.Job) (*analysis.Result, error) {
	p := s.pipeline
	if p.GeoJSONDir == "" {
		return nil, fmt.Errorf("no GeoJSON directory configured")
	}

	res := &analysis.Result{}
	var missing []string
	err := analysis.Each(ctx, job, len(p.Layers), func(i int) error {
		e := p.Layers[i]
		shp := ShapefileFor(p, e)
		layer, err := geoio.ReadShapefile(shp)
		if errors.Is(err, fs.ErrNotExist) {
			missing = append(missing, e.Path)
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", shp, err)
		}

		out := filepath.Join(p.GeoJSONDir, e.Path)
		columns, err := Columns(out)
		if err != nil {
			return err
		}
		simplified, err := geoio.Simplify(layer, p.Simplify.Tolerance, columns)
		if err != nil {
			return fmt.Errorf("failed to simplify %s: %w", e.Name, err)
		}
		if err := geoio.WriteGeoJSON(out, simplified); err != nil {
			return err
		}
		res.Add(geoio.Written{Shapefile: shp, GeoJSON: out})
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(missing) > 0 {
		log.Printf("[Simplify] Warning: %d indexed layers have no shapefile yet: %s", len(missing), strings.Join(missing, ", "))
	}
	log.Printf("[Simplify] Rewrote %d web layers at %.0f m tolerance", len(res.Outputs), p.Simplify.Tolerance)
	res.Summary = map[string]any{"layers": len(res.Outputs), "missing": missing, "tolerance": p.Simplify.Tolerance}
	return res, nil
}
