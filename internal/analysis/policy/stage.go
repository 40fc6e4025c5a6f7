package policy

import (
	"context"
	"fmt"
	"log"
	"path"
	"sort"

	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/analysis"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/config"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/geoio"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/models"
)

// Name is the registered stage name
const Name = "policy"

// OutputDir holds one layer per view
const OutputDir = "incentives_and_regulations_merged"

// LayerPath returns the relative path of a view
func LayerPath(key string) string {
	return path.Join(OutputDir, key)
}

func init() {
	analysis.Register(Name, "Count state-level incentives and regulations per fuel type", func(p *config.Pipeline) analysis.Stage {
		return New(p)
	})
}

// Stage writes the per-state policy counts
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
	tables, err := ReadCategories(p.Path(p.Inputs.PolicyDir))
	if err != nil {
		return nil, err
	}
	views := Aggregate(tables)

	states, err := geoio.ReadShapefile(p.Path(p.Inputs.StateBounds))
	if err != nil {
		return nil, fmt.Errorf("failed to read state boundaries: %w", err)
	}

	keys := make([]string, 0, len(views))
	for k := range views {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := analysis.OutputFor(p)
	res := &analysis.Result{}
	records := make(map[string]int, len(keys))
	err = analysis.Each(ctx, job, len(keys), func(i int) error {
		key := keys[i]
		types := CountTypes(key)
		merged, _, err := JoinStates(states, Count(views[key], types), types)
		if err != nil {
			return err
		}
		merged.Name = key
		columns := []string{models.FieldStateAbbr}
		for _, f := range Fields(types) {
			columns = append(columns, f.Name)
		}
		w, err := out.Write(merged, LayerPath(key), columns)
		if err != nil {
			return err
		}
		res.Add(w)
		records[key] = len(views[key])
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[Policy] Wrote %d policy views (%d incentives and regulations overall)", len(keys), records[AllKey])
	res.Summary = map[string]any{"views": len(keys), "records": records}
	return res, nil
}
