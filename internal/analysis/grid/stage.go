package grid

import (
	"context"
	"fmt"
	"log"
	"path"

	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/analysis"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/config"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/geoio"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/models"
)

// Registered stage names
const (
	Name       = "grid"
	GenCapName = "gen-cap"
	DemandName = "grid-demand"
)

// Output layers
var (
	EGRIDPath      = path.Join("egrid2020_subregions_merged", "egrid2020_subregions_merged")
	StateRatesPath = path.Join("eia2022_state_merged", "eia_state_co2_merged")
	HourlyDir      = "daily_grid_emission_profiles"
	AuthorityPath  = path.Join("electricity_demand_merged", "electricity_demand_merged_by_ba")
	CapacityPath   = path.Join("electricity_demand_merged", "electricity_demand_merged_by_state")
)

// GenCapPath returns the relative path of the generation and capacity layer
func GenCapPath(year int) string {
	return path.Join("eia2022_state_merged", fmt.Sprintf("gen_cap_%d_state_merged", year))
}

func init() {
	analysis.Register(Name, "Join eGRID, EIA state and hourly ISO emission intensities to their boundaries", func(p *config.Pipeline) analysis.Stage {
		return New(p)
	})
	analysis.Register(GenCapName, "Join EIA state generation and capacity to the state boundaries", func(p *config.Pipeline) analysis.Stage {
		return NewGenCap(p)
	})
	analysis.Register(DemandName, "Join balancing authority demand and state summer capacity to their boundaries", func(p *config.Pipeline) analysis.Stage {
		return NewDemand(p)
	})
}

// Stage writes the emission intensity layers
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
	res := &analysis.Result{Summary: map[string]any{}}
	total := 2 + HoursPerDay

	// eGRID subregions
	regions, err := ReadEGRID(p.Path(p.Inputs.EGRID), p.Grid.EGRIDSheet, p.Grid.EGRIDHeaderRow)
	if err != nil {
		return nil, err
	}
	subregions, err := geoio.ReadShapefile(p.Path(p.Inputs.EGRIDRegions))
	if err != nil {
		return nil, fmt.Errorf("failed to read eGRID subregions: %w", err)
	}
	merged, st, err := JoinEGRID(subregions, regions)
	if err != nil {
		return nil, err
	}
	if err := s.write(out, res, merged, EGRIDPath, []string{FieldSubregion, models.FieldCO2Rate}); err != nil {
		return nil, err
	}
	res.Summary["egrid"] = st
	job.Progress(1, total, 0)

	// EIA state rates
	rates, err := ReadStateRates(p.Path(p.Inputs.EIAStateRates))
	if err != nil {
		return nil, err
	}
	states, err := geoio.ReadShapefile(p.Path(p.Inputs.StateBounds))
	if err != nil {
		return nil, fmt.Errorf("failed to read state boundaries: %w", err)
	}
	merged, st, err = JoinStateRates(states, rates)
	if err != nil {
		return nil, err
	}
	if err := s.write(out, res, merged, StateRatesPath, []string{models.FieldStateAbbr, models.FieldCO2Rate}); err != nil {
		return nil, err
	}
	res.Summary["eia_state"] = st
	job.Progress(2, total, 0)

	// hourly ISO profiles
	profiles, err := ReadProfiles(p.Path(p.Inputs.HourlyDir))
	if err != nil {
		return nil, err
	}
	zones, err := geoio.ReadGeoJSON(p.Path(p.Inputs.ISOBoundaries))
	if err != nil {
		return nil, fmt.Errorf("failed to read ISO boundaries: %w", err)
	}
	for h := 0; h < HoursPerDay; h++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		merged, st, err := JoinHour(zones, profiles, h)
		if err != nil {
			return nil, err
		}
		merged.Name = HourLayer(h)
		if err := s.write(out, res, merged, path.Join(HourlyDir, HourLayer(h)), nil); err != nil {
			return nil, err
		}
		if h == 0 {
			res.Summary["hourly"] = st
		}
		job.Progress(3+h, total, 0)
	}

	log.Printf("[Grid] Wrote %d emission intensity layers", len(res.Outputs))
	return res, nil
}

func (s *Stage) write(out geoio.Output, res *analysis.Result, layer *geoio.Layer, rel string, columns []string) error {
	w, err := out.Write(layer, rel, columns)
	if err != nil {
		return err
	}
	res.Add(w)
	return nil
}

// GenCapStage writes the state generation and capacity layer
type GenCapStage struct {
	pipeline *config.Pipeline
}

// NewGenCap creates the stage
func NewGenCap(p *config.Pipeline) *GenCapStage {
	return &GenCapStage{pipeline: p}
}

func (s *GenCapStage) Name() string {
	return GenCapName
}

func (s *GenCapStage) Run(ctx context.Context, job *analysis.Job) (*analysis.Result, error) {
	p := s.pipeline
	year := p.Energy.Year

	capacity, err := ReadStateTotals(p.Path(p.Inputs.EIACapacity), CapacitySource, year)
	if err != nil {
		return nil, fmt.Errorf("failed to read capacity: %w", err)
	}
	generation, err := ReadStateTotals(p.Path(p.Inputs.EIAGeneration), GenerationSource, year)
	if err != nil {
		return nil, fmt.Errorf("failed to read generation: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	regions := GenCap(capacity, generation)
	if len(regions) == 0 {
		return nil, fmt.Errorf("no state has both capacity and generation for %d", year)
	}

	states, err := geoio.ReadShapefile(p.Path(p.Inputs.StateBounds))
	if err != nil {
		return nil, fmt.Errorf("failed to read state boundaries: %w", err)
	}
	merged, st, err := JoinGenCap(states, regions)
	if err != nil {
		return nil, err
	}

	w, err := analysis.OutputFor(p).Write(merged, GenCapPath(year), nil)
	if err != nil {
		return nil, err
	}
	job.Progress(1, 1, 0)

	log.Printf("[GenCap] Wrote generation and capacity for %d states (%d)", st.Matched, year)
	res := &analysis.Result{Summary: map[string]any{"year": year, "states": len(regions), "join": st}}
	res.Add(w)
	return res, nil
}

// DemandStage writes the electricity demand and capacity layers
type DemandStage struct {
	pipeline *config.Pipeline
}

// NewDemand creates the stage
func NewDemand(p *config.Pipeline) *DemandStage {
	return &DemandStage{pipeline: p}
}

func (s *DemandStage) Name() string {
	return DemandName
}

// Run writes the balancing authority layer when demand tables are
// configured, then the state capacity layer.
func (s *DemandStage) Run(ctx context.Context, job *analysis.Job) (*analysis.Result, error) {
	p := s.pipeline
	out := analysis.OutputFor(p)
	res := &analysis.Result{Summary: map[string]any{}}

	if len(p.Inputs.BADemand) > 0 && p.Inputs.BABounds != "" {
		paths := make([]string, len(p.Inputs.BADemand))
		for i, rel := range p.Inputs.BADemand {
			paths[i] = p.Path(rel)
		}
		demands, err := ReadAuthorityDemand(paths...)
		if err != nil {
			return nil, err
		}
		areas, err := geoio.ReadShapefile(p.Path(p.Inputs.BABounds))
		if err != nil {
			return nil, fmt.Errorf("failed to read balancing authority boundaries: %w", err)
		}
		merged, st, err := JoinAuthorities(areas, demands)
		if err != nil {
			return nil, err
		}
		w, err := out.Write(merged, AuthorityPath, []string{FieldBA, FieldMaxDem, FieldAvgDem})
		if err != nil {
			return nil, err
		}
		res.Add(w)
		res.Summary["authorities"] = st
	} else {
		log.Printf("[GridDemand] No balancing authority inputs configured, skipping")
	}
	job.Progress(1, 2, 0)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	year := p.Grid.CapacityYear
	capacity, err := ReadStateTotals(p.Path(p.Inputs.EIACapacity), CapacitySource, year)
	if err != nil {
		return nil, fmt.Errorf("failed to read capacity: %w", err)
	}
	if len(capacity) == 0 {
		return nil, fmt.Errorf("no state capacity for %d", year)
	}
	states, err := geoio.ReadShapefile(p.Path(p.Inputs.StateBounds))
	if err != nil {
		return nil, fmt.Errorf("failed to read state boundaries: %w", err)
	}
	merged, st, err := JoinCapacity(states, capacity)
	if err != nil {
		return nil, err
	}
	w, err := out.Write(merged, CapacityPath, []string{models.FieldStateAbbr, FieldCapacity})
	if err != nil {
		return nil, err
	}
	res.Add(w)
	res.Summary["states"] = st
	res.Summary["year"] = year
	job.Progress(2, 2, 0)

	log.Printf("[GridDemand] Wrote %d electricity demand layers", len(res.Outputs))
	return res, nil
}
