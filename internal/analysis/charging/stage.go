package charging

import (
	"context"
	"fmt"
	"log"
	"path"

	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/analysis"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/analysis/corridor"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/analysis/neighbors"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/config"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/geoio"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/queueing"
)

// Registered stage names
const (
	Name      = "size-chargers"
	SweepName = "sweep"
)

// LayerPath returns the relative path of a sized stop layer
func LayerPath(o Options) string {
	return path.Join(corridor.OutputDir, o.LayerName())
}

func init() {
	analysis.Register(Name, "Size the minimum charger count at each corridor truck stop", func(p *config.Pipeline) analysis.Stage {
		return New(p)
	})
	analysis.Register(SweepName, "Size chargers over the range, charging time and wait grid", func(p *config.Pipeline) analysis.Stage {
		return NewSweep(p)
	})
}

func loadStops(p *config.Pipeline) (*geoio.Layer, string, error) {
	stops, err := geoio.ReadShapefile(p.Path(neighbors.Path + ".shp"))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read truck stops with neighbours: %w", err)
	}
	field := neighbors.FieldName(p.Neighbors.RadiusMiles)
	if !stops.HasField(field) {
		log.Printf("[ChargerSizing] Warning: %s has no %s attribute", stops.Name, field)
		field = ""
	}
	return stops, field, nil
}

// Stage sizes the stops for one parameter set
type Stage struct {
	pipeline *config.Pipeline
	sizer    *Sizer
}

// New creates the stage with the pipeline's charging parameters
func New(p *config.Pipeline) *Stage {
	return &Stage{pipeline: p, sizer: NewSizer(nil)}
}

func (s *Stage) Name() string {
	return Name
}

// Options returns the parameters the stage runs with
func (s *Stage) Options() Options {
	c := s.pipeline.Charging
	return Options{RangeMiles: c.RangeMiles, ChargingTime: c.ChargingTime, MaxWait: c.MaxWait, HalfFlows: c.HalfFlows}
}

func (s *Stage) Run(ctx context.Context, job *analysis.Job) (*analysis.Result, error) {
	stops, field, err := loadStops(s.pipeline)
	if err != nil {
		return nil, err
	}

	opts := s.Options()
	sized, st, err := s.sizer.Size(ctx, job, stops, field, opts)
	if err != nil {
		return nil, err
	}

	w, err := analysis.OutputFor(s.pipeline).Write(sized, LayerPath(opts), WebColumns)
	if err != nil {
		return nil, err
	}
	res := &analysis.Result{Summary: map[string]any{"options": opts, "stats": st}}
	res.Add(w)
	return res, nil
}

// Sweep sizes the stops for every combination of the sweep grid, with
// half flows, emitting one layer per combination
type Sweep struct {
	pipeline *config.Pipeline
	sizer    *Sizer
}

// NewSweep creates the sweep stage. All combinations share one model.
func NewSweep(p *config.Pipeline) *Sweep {
	return &Sweep{pipeline: p, sizer: NewSizer(queueing.NewModel())}
}

func (s *Sweep) Name() string {
	return SweepName
}

// Grid expands the sweep parameters in range, charging time, wait order
func (s *Sweep) Grid() []Options {
	g := s.pipeline.Charging.Sweep
	var out []Options
	for _, r := range g.Ranges {
		for _, tau := range g.ChargingTimes {
			for _, w := range g.MaxWaits {
				out = append(out, Options{RangeMiles: r, ChargingTime: tau, MaxWait: w, HalfFlows: true})
			}
		}
	}
	return out
}

func (s *Sweep) Run(ctx context.Context, job *analysis.Job) (*analysis.Result, error) {
	stops, field, err := loadStops(s.pipeline)
	if err != nil {
		return nil, err
	}

	grid := s.Grid()
	if len(grid) == 0 {
		return nil, fmt.Errorf("%w: empty sweep grid", queueing.ErrInvalidInput)
	}

	output := analysis.OutputFor(s.pipeline)
	written := make([]geoio.Written, len(grid))
	summaries := make([]Stats, len(grid))

	err = analysis.ForEach(ctx, job, len(grid), s.pipeline.Neighbors.Workers, func(ctx context.Context, i int) error {
		sized, st, err := s.sizer.Size(ctx, nil, stops, field, grid[i])
		if err != nil {
			return err
		}
		w, err := output.Write(sized, LayerPath(grid[i]), WebColumns)
		if err != nil {
			return err
		}
		written[i], summaries[i] = w, st
		return nil
	})
	if err != nil {
		return nil, err
	}

	res := &analysis.Result{Outputs: written, Summary: map[string]any{}}
	for i, o := range grid {
		res.Summary[o.LayerName()] = summaries[i]
	}
	log.Printf("[ChargerSizing] Sweep wrote %d layers for %d stops", len(written), stops.Len())
	return res, nil
}
