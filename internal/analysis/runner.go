package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Tracker persists run bookkeeping. A nil Tracker disables the ledger.
type Tracker interface {
	CreateRun(id, stage, paramsJSON string) error
	MarkRunning(id string) error
	UpdateProgress(id string, processed, total, failed int) error
	MarkCompleted(id, outputPath, resultSummary string) error
	MarkFailed(id, errorMessage string) error
}

// Runner executes stages and records them in the ledger
type Runner struct {
	Tracker  Tracker
	Progress bool // render progress bars on stderr
}

// NewRunner creates a runner. tracker may be nil.
func NewRunner(tracker Tracker, progress bool) *Runner {
	return &Runner{Tracker: tracker, Progress: progress}
}

// Run creates a ledger entry, executes the stage and marks the entry
// completed with the result summary or failed with the error
func (r *Runner) Run(ctx context.Context, stage Stage, params any) (*Result, error) {
	job := &Job{
		RunID:        uuid.New().String(),
		Stage:        stage.Name(),
		ShowProgress: r.Progress,
		tracker:      r.Tracker,
	}

	paramsJSON := ""
	if params != nil {
		b, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("failed to serialize params: %w", err)
		}
		paramsJSON = string(b)
	}

	if r.Tracker != nil {
		if err := r.Tracker.CreateRun(job.RunID, job.Stage, paramsJSON); err != nil {
			return nil, fmt.Errorf("failed to create run: %w", err)
		}
		if err := r.Tracker.MarkRunning(job.RunID); err != nil {
			return nil, fmt.Errorf("failed to mark run as running: %w", err)
		}
	}

	log.Printf("[Runner] Starting %s (run %s)", job.Stage, job.RunID)
	start := time.Now()

	result, err := stage.Run(ctx, job)
	if err != nil {
		log.Printf("[Runner] %s failed after %s: %v", job.Stage, time.Since(start).Round(time.Millisecond), err)
		if r.Tracker != nil {
			if markErr := r.Tracker.MarkFailed(job.RunID, err.Error()); markErr != nil {
				log.Printf("[Runner] Failed to mark run %s as failed: %v", job.RunID, markErr)
			}
		}
		return nil, fmt.Errorf("stage %s: %w", job.Stage, err)
	}
	if result == nil {
		result = &Result{}
	}

	log.Printf("[Runner] Completed %s in %s", job.Stage, time.Since(start).Round(time.Millisecond))
	if r.Tracker != nil {
		summary, err := json.Marshal(result)
		if err != nil {
			return result, fmt.Errorf("failed to serialize result summary: %w", err)
		}
		if err := r.Tracker.MarkCompleted(job.RunID, result.Output(), string(summary)); err != nil {
			return result, fmt.Errorf("failed to mark run as completed: %w", err)
		}
	}
	return result, nil
}

// Job is the per-run handle passed to a stage
type Job struct {
	RunID        string
	Stage        string
	ShowProgress bool

	tracker Tracker
	mu      sync.Mutex
	last    int
}

// NewJob returns an untracked job for library callers and tests
func NewJob(stage string) *Job {
	return &Job{Stage: stage}
}

// Progress records a checkpoint. Updates are throttled to about every 5%
// of total; ledger errors are logged and never fail the stage.
func (j *Job) Progress(processed, total, failed int) {
	if j == nil || j.tracker == nil {
		return
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	step := total / 20
	if step < 1 {
		step = 1
	}
	if processed != total && processed-j.last < step {
		return
	}
	j.last = processed

	if err := j.tracker.UpdateProgress(j.RunID, processed, total, failed); err != nil {
		log.Printf("[Runner] Failed to update progress for run %s: %v", j.RunID, err)
	}
}
