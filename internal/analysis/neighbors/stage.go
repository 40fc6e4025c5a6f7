package neighbors

import (
	"context"
	"fmt"
	"log"
	"path"

	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/analysis"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/analysis/corridor"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/config"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/geoio"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/stats"
)

// Name is the registered stage name
const Name = "neighbors"

// Layer is the corridor stop layer with neighbour counts
const Layer = corridor.LayerAlongInterstate + "_with_neighbors"

// Path is the relative path of the neighbour layer
var Path = path.Join(corridor.OutputDir, Layer)

// Stage appends the neighbour count to the corridor stops
type Stage struct {
	pipeline *config.Pipeline
}

func init() {
	analysis.Register(Name, "Count truck stops within a great-circle radius of each stop", func(p *config.Pipeline) analysis.Stage {
		return New(p)
	})
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
	stops, err := geoio.ReadShapefile(p.Path(corridor.AlongInterstatePath + ".shp"))
	if err != nil {
		return nil, fmt.Errorf("failed to read corridor stops: %w", err)
	}
	pts, err := corridor.Points(stops)
	if err != nil {
		return nil, err
	}

	radius := p.Neighbors.RadiusMiles
	counts, err := Count(ctx, job, pts, radius, p.Neighbors.Workers)
	if err != nil {
		return nil, err
	}

	field := FieldName(radius)
	out := stops.Clone()
	out.Name = Layer
	out.SetField(geoio.IntField(field))
	values := make([]float64, len(counts))
	for i, f := range out.Features {
		f.Properties[field] = counts[i]
		values[i] = float64(counts[i])
	}

	columns := append([]string{}, corridor.WebColumns...)
	w, err := analysis.OutputFor(p).Write(out, Path, append(columns, field))
	if err != nil {
		return nil, err
	}

	var mean float64
	if len(values) > 0 {
		mean = stats.Sum(values) / float64(len(values))
	}
	log.Printf("[Neighbors] Counted neighbours within %.0f mi for %d stops (mean %.1f)", radius, len(counts), mean)

	res := &analysis.Result{Summary: map[string]any{
		"stops":        len(counts),
		"radius_miles": radius,
		"field":        field,
		"mean":         mean,
	}}
	res.Add(w)
	return res, nil
}
