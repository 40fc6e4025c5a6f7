package corridor

import (
	"context"
	"fmt"
	"path"

	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/analysis"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/analysis/highway"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/config"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/geoio"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/models"
)

// Name is the registered stage name
const Name = "corridor"

// Truck-stop layers live together; later stages append to these names
const (
	OutputDir            = "Truck_Stop_Parking"
	LayerAlongInterstate = "Truck_Stop_Parking_Along_Interstate"
	LayerSparse          = LayerAlongInterstate + "_sparse"
)

// AlongInterstatePath is the relative path of the corridor stop layer
var AlongInterstatePath = path.Join(OutputDir, LayerAlongInterstate)

// WebColumns are the stop attributes kept in the simplified copies
var WebColumns = []string{models.FieldStopID, models.FieldTotTrips}

// Stage filters truck stops to the interstate corridor and samples a sparse subset
type Stage struct {
	pipeline *config.Pipeline
}

func init() {
	analysis.Register(Name, "Select truck stops along interstates and sample a sparse subset", func(p *config.Pipeline) analysis.Stage {
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
	stops, err := geoio.ReadShapefile(p.Path(p.Inputs.TruckStops))
	if err != nil {
		return nil, fmt.Errorf("failed to read truck stops: %w", err)
	}
	links, err := geoio.ReadShapefile(p.Path(highway.InterstatePath + ".shp"))
	if err != nil {
		return nil, fmt.Errorf("failed to read interstate links: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	kept, st, err := AlongCorridor(stops, links, p.Corridor.BufferMeters)
	if err != nil {
		return nil, err
	}
	kept.Name = LayerAlongInterstate
	job.Progress(1, 2, st.Dropped)

	out := analysis.OutputFor(p)
	res := &analysis.Result{Summary: map[string]any{"filter": st}}
	w, err := out.Write(kept, AlongInterstatePath, WebColumns)
	if err != nil {
		return nil, err
	}
	res.Add(w)

	pts, err := Points(kept)
	if err != nil {
		return nil, err
	}
	idx := Sample(pts, SampleOptions{
		MinDistance:       p.Corridor.MinDistance,
		TargetAvgDistance: p.Corridor.TargetAvgDistance,
		Seed:              p.Corridor.Seed,
	})
	sparse := Subset(kept, idx)
	sparse.Name = LayerSparse

	w, err = out.Write(sparse, path.Join(OutputDir, LayerSparse), WebColumns)
	if err != nil {
		return nil, err
	}
	res.Add(w)
	job.Progress(2, 2, st.Dropped)

	res.Summary["sparse"] = map[string]any{
		"stops":              len(idx),
		"mean_distance_m":    MeanPairwiseDistance(pts, idx),
		"target_distance_m":  p.Corridor.TargetAvgDistance,
		"minimum_distance_m": p.Corridor.MinDistance,
		"seed":               p.Corridor.Seed,
	}
	return res, nil
}
