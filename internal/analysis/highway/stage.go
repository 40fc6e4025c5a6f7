package highway

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
const Name = "join-flows"

// OutputDir holds every joined link layer
const OutputDir = "highway_assignment_links"

// Layer names produced by the stage
const (
	LayerAll          = "highway_assignment_links"
	LayerInterstate   = "highway_assignment_links_interstate"
	LayerSingleUnit   = "highway_assignment_links_single_unit"
	LayerCombinedUnit = "highway_assignment_links_combined_unit"
	LayerNoMin        = "highway_assignment_links_nomin"
)

// InterstatePath is the relative path of the interstate layer, read by the
// corridor and energy stages
var InterstatePath = path.Join(OutputDir, LayerInterstate)

var webColumns = []string{models.FieldID, models.FieldTotTons, models.FieldTotTrips}

type variant struct {
	layer string
	unit  models.UnitType
	class models.RoadClass
	noMin bool
}

var variants = []variant{
	{layer: LayerAll, unit: models.UnitAll},
	{layer: LayerInterstate, unit: models.UnitAll, class: models.RoadInterstate},
	{layer: LayerSingleUnit, unit: models.UnitSU},
	{layer: LayerCombinedUnit, unit: models.UnitCU},
	{layer: LayerNoMin, unit: models.UnitAll, noMin: true},
}

// Stage writes the standard joined link layers
type Stage struct {
	pipeline *config.Pipeline
}

func init() {
	analysis.Register(Name, "Join truck flows onto the freight network links", func(p *config.Pipeline) analysis.Stage {
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
	links, err := geoio.ReadShapefile(p.Path(p.Inputs.NetworkLinks))
	if err != nil {
		return nil, fmt.Errorf("failed to read network links: %w", err)
	}
	flows, err := tabular.ReadCSV(p.Path(p.Inputs.FlowTable))
	if err != nil {
		return nil, fmt.Errorf("failed to read flow table: %w", err)
	}

	out := analysis.OutputFor(p)
	res := &analysis.Result{Summary: map[string]any{}}

	err = analysis.Each(ctx, job, len(variants), func(i int) error {
		v := variants[i]
		opts := Options{
			Year:            p.Highway.Year,
			Unit:            v.unit,
			Class:           v.class,
			MinTons:         p.Highway.MinTons,
			LengthTolerance: p.Highway.LengthTolerance,
		}
		if v.noMin {
			opts.MinTons = 0
		}

		joined, st, err := Join(links, flows, opts)
		if err != nil {
			return err
		}
		joined.Name = v.layer

		w, err := out.Write(joined, path.Join(OutputDir, v.layer), webColumns)
		if err != nil {
			return err
		}
		res.Add(w)
		res.Summary[v.layer] = st
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[HighwayJoiner] Wrote %d link layers from %d network links", len(res.Outputs), links.Len())
	return res, nil
}
