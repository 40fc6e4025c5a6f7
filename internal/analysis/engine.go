// Package analysis runs pipeline stages. Each stage package registers a
// factory from init; the runner records every run in the stage-run ledger.
package analysis

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/config"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/geoio"
)

// Stage is the interface that all pipeline stages must implement
type Stage interface {
	// Name returns the registered stage name
	Name() string

	// Run executes the stage, reading its inputs from disk and persisting
	// its outputs. job carries progress reporting for the current run.
	Run(ctx context.Context, job *Job) (*Result, error)
}

// Result is what a stage reports back to the ledger
type Result struct {
	Outputs []geoio.Written `json:"outputs,omitempty"`
	Files   []string        `json:"files,omitempty"` // non-layer artifacts such as CSV tables
	Summary map[string]any  `json:"summary,omitempty"`
}

// Output returns the primary artifact path
func (r *Result) Output() string {
	if r == nil {
		return ""
	}
	if len(r.Outputs) > 0 {
		return r.Outputs[0].Shapefile
	}
	if len(r.Files) > 0 {
		return r.Files[0]
	}
	return ""
}

// Add records a written layer
func (r *Result) Add(w geoio.Written) {
	r.Outputs = append(r.Outputs, w)
}

// Factory creates a stage configured from the pipeline file
type Factory func(p *config.Pipeline) Stage

// Info describes a registered stage
type Info struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type registration struct {
	info    Info
	factory Factory
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]registration)
)

// Register registers a stage factory under a name
func Register(name, description string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = registration{info: Info{Name: name, Description: description}, factory: factory}
}

// Get creates a stage instance for a name
func Get(name string, p *config.Pipeline) (Stage, error) {
	registryMu.RLock()
	reg, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown stage: %s", name)
	}
	return reg.factory(p), nil
}

// Stages lists registered stages sorted by name
func Stages() []Info {
	registryMu.RLock()
	defer registryMu.RUnlock()

	out := make([]Info, 0, len(registry))
	for _, r := range registry {
		out = append(out, r.info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// IsRegistered checks if a stage name is known
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[name]
	return ok
}

// OutputFor returns the artifact writer for a pipeline
func OutputFor(p *config.Pipeline) geoio.Output {
	return geoio.Output{
		ShapefileDir: p.DataDir,
		GeoJSONDir:   p.GeoJSONDir,
		Tolerance:    p.Simplify.Tolerance,
	}
}
