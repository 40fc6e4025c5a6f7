package analysis

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/config"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/geoio"
)

type memTracker struct {
	mu       sync.Mutex
	status   map[string]string
	params   map[string]string
	output   map[string]string
	errors   map[string]string
	progress map[string]int
}

func newMemTracker() *memTracker {
	return &memTracker{
		status:   map[string]string{},
		params:   map[string]string{},
		output:   map[string]string{},
		errors:   map[string]string{},
		progress: map[string]int{},
	}
}

func (m *memTracker) CreateRun(id, stage, paramsJSON string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status[id] = "pending"
	m.params[id] = paramsJSON
	return nil
}

func (m *memTracker) MarkRunning(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status[id] = "running"
	return nil
}

func (m *memTracker) UpdateProgress(id string, processed, total, failed int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.progress[id] = processed
	return nil
}

func (m *memTracker) MarkCompleted(id, outputPath, resultSummary string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status[id] = "completed"
	m.output[id] = outputPath
	return nil
}

func (m *memTracker) MarkFailed(id, errorMessage string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status[id] = "failed"
	m.errors[id] = errorMessage
	return nil
}

type fakeStage struct {
	err   error
	runID string
}

func (s *fakeStage) Name() string { return "fake" }

func (s *fakeStage) Run(ctx context.Context, job *Job) (*Result, error) {
	s.runID = job.RunID
	if s.err != nil {
		return nil, s.err
	}
	err := Each(ctx, job, 10, func(i int) error { return nil })
	if err != nil {
		return nil, err
	}
	r := &Result{Summary: map[string]any{"items": 10}}
	r.Add(geoio.Written{Shapefile: "out.shp"})
	return r, nil
}

func TestRunnerRecordsCompletedRun(t *testing.T) {
	tr := newMemTracker()
	stage := &fakeStage{}

	res, err := NewRunner(tr, false).Run(context.Background(), stage, map[string]float64{"radius": 200})
	require.NoError(t, err)
	assert.Equal(t, "out.shp", res.Output())

	require.NotEmpty(t, stage.runID)
	assert.Equal(t, "completed", tr.status[stage.runID])
	assert.Equal(t, `{"radius":200}`, tr.params[stage.runID])
	assert.Equal(t, "out.shp", tr.output[stage.runID])
	assert.Equal(t, 10, tr.progress[stage.runID])
}

func TestRunnerRecordsFailure(t *testing.T) {
	tr := newMemTracker()
	boom := errors.New("missing input")
	stage := &fakeStage{err: boom}

	_, err := NewRunner(tr, false).Run(context.Background(), stage, nil)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "failed", tr.status[stage.runID])
	assert.Equal(t, "missing input", tr.errors[stage.runID])
}

func TestRunnerWithoutTracker(t *testing.T) {
	res, err := NewRunner(nil, false).Run(context.Background(), &fakeStage{}, nil)
	require.NoError(t, err)
	assert.Equal(t, 10, res.Summary["items"])
}

func TestForEachVisitsEveryIndex(t *testing.T) {
	for _, workers := range []int{0, 1, 3, 64} {
		n := 37
		seen := make([]int32, n)
		err := ForEach(context.Background(), NewJob("test"), n, workers, func(_ context.Context, i int) error {
			atomic.AddInt32(&seen[i], 1)
			return nil
		})
		require.NoError(t, err)
		for i, c := range seen {
			assert.Equal(t, int32(1), c, "workers=%d index=%d", workers, i)
		}
	}
	assert.NoError(t, ForEach(context.Background(), nil, 0, 4, nil))
}

func TestForEachStopsOnError(t *testing.T) {
	boom := errors.New("boom")
	err := ForEach(context.Background(), nil, 100, 4, func(_ context.Context, i int) error {
		if i == 50 {
			return boom
		}
		return nil
	})
	assert.ErrorIs(t, err, boom)
}

func TestRegistry(t *testing.T) {
	Register("fake-registered", "a test stage", func(p *config.Pipeline) Stage { return &fakeStage{} })
	assert.True(t, IsRegistered("fake-registered"))

	s, err := Get("fake-registered", config.DefaultPipeline())
	require.NoError(t, err)
	assert.Equal(t, "fake", s.Name())

	_, err = Get("nope", config.DefaultPipeline())
	assert.Error(t, err)

	var found bool
	for _, info := range Stages() {
		if info.Name == "fake-registered" {
			found = true
			assert.Equal(t, "a test stage", info.Description)
		}
	}
	assert.True(t, found)
}
