package chargeload

import (
	"context"
	"fmt"
	"log"
	"path"
	"strings"

	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/analysis"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/config"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/geoio"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/tabular"
)

// Name is the registered stage name
const Name = "charging-load"

// Output tables
const (
	OutputDir   = "daily_ev_load"
	ProfileFile = "extreme_load_profile_smooth.csv"
)

// ZoneFile returns the relative path of a zone's load table
func ZoneFile(zone string) string {
	return path.Join(OutputDir, "daily_ev_load_"+strings.ReplaceAll(zone, "/", "_")+".csv")
}

func init() {
	analysis.Register(Name, "Build daily charging load profiles per grid zone", func(p *config.Pipeline) analysis.Stage {
		return New(p)
	})
}

// Stage writes the normalized profile and one load table per zone
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

	t, err := tabular.ReadCSV(p.Path(p.Inputs.LoadProfile))
	if err != nil {
		return nil, fmt.Errorf("failed to read load profile: %w", err)
	}
	hours, kw, err := ProfilePoints(t)
	if err != nil {
		return nil, err
	}
	prof, err := Smooth(hours, kw, p.Load.Samples)
	if err != nil {
		return nil, err
	}

	res := &analysis.Result{Summary: map[string]any{"samples": len(prof.Hours), "measured_hours": len(hours)}}
	profilePath := p.Path(path.Join(OutputDir, ProfileFile))
	if err := prof.Table().WriteCSV(profilePath); err != nil {
		return nil, err
	}
	res.Files = append(res.Files, profilePath)

	sites, err := geoio.ReadGeoJSON(p.Path(p.Inputs.ChargerLocations))
	if err != nil {
		return nil, fmt.Errorf("failed to read charger locations: %w", err)
	}
	chargers, err := Chargers(sites)
	if err != nil {
		return nil, err
	}
	zones := ZoneLoads(chargers, prof)
	if len(zones) == 0 {
		return nil, fmt.Errorf("no charger location has a zone and a demand")
	}

	var peak float64
	for i, z := range zones {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out := p.Path(ZoneFile(z.Zone))
		if err := z.Table().WriteCSV(out); err != nil {
			return nil, err
		}
		res.Files = append(res.Files, out)
		for _, mw := range z.Total {
			peak = max(peak, mw)
		}
		job.Progress(i+1, len(zones), 0)
	}
	res.Summary["zones"] = len(zones)
	res.Summary["chargers"] = len(chargers)

	log.Printf("[ChargingLoad] Wrote daily load for %d zones from %d chargers (peak zone load %.1f MW)", len(zones), len(chargers), peak)
	return res, nil
}
