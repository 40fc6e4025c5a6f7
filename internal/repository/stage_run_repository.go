package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/models"
)

// ErrNotFound is returned when a ledger row does not exist
var ErrNotFound = errors.New("not found")

const stageRunColumns = `id, stage, status, progress_percent, params_json,
	total_items, processed_items, failed_items, start_time, end_time,
	output_path, result_summary, error_message, created_at, updated_at`

// StageRunRepository handles database operations for the stage-run ledger
type StageRunRepository struct {
	db *sql.DB
}

// NewStageRunRepository creates a new stage-run repository
func NewStageRunRepository(db *sql.DB) *StageRunRepository {
	return &StageRunRepository{db: db}
}

// Create inserts a run. CreatedAt and UpdatedAt default to now.
func (r *StageRunRepository) Create(run *models.StageRun) error {
	now := time.Now().Unix()
	if run.CreatedAt == 0 {
		run.CreatedAt = now
	}
	run.UpdatedAt = now
	if run.Status == "" {
		run.Status = models.RunStatusPending
	}

	query := `INSERT INTO stage_runs (` + stageRunColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.Exec(query,
		run.ID,
		run.Stage,
		run.Status,
		run.ProgressPercent,
		run.ParamsJSON,
		run.TotalItems,
		run.ProcessedItems,
		run.FailedItems,
		run.StartTime,
		run.EndTime,
		run.OutputPath,
		run.ResultSummary,
		run.ErrorMessage,
		run.CreatedAt,
		run.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create stage run: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanStageRun(s scanner) (*models.StageRun, error) {
	run := &models.StageRun{}
	err := s.Scan(
		&run.ID,
		&run.Stage,
		&run.Status,
		&run.ProgressPercent,
		&run.ParamsJSON,
		&run.TotalItems,
		&run.ProcessedItems,
		&run.FailedItems,
		&run.StartTime,
		&run.EndTime,
		&run.OutputPath,
		&run.ResultSummary,
		&run.ErrorMessage,
		&run.CreatedAt,
		&run.UpdatedAt,
	)
	return run, err
}

// GetByID retrieves a run by its uuid
func (r *StageRunRepository) GetByID(id string) (*models.StageRun, error) {
	query := `SELECT ` + stageRunColumns + ` FROM stage_runs WHERE id = ?`

	run, err := scanStageRun(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("stage run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get stage run: %w", err)
	}
	return run, nil
}

// List retrieves runs newest first with optional filters
func (r *StageRunRepository) List(filters models.StageRunFilters) ([]*models.StageRun, error) {
	query := `SELECT ` + stageRunColumns + ` FROM stage_runs WHERE 1=1`

	args := []interface{}{}
	if filters.Stage != "" {
		query += " AND stage = ?"
		args = append(args, filters.Stage)
	}
	if filters.Status != "" {
		query += " AND status = ?"
		args = append(args, filters.Status)
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = 50
	}
	query += " ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?"
	args = append(args, limit, filters.Offset)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list stage runs: %w", err)
	}
	defer rows.Close()

	runs := []*models.StageRun{}
	for rows.Next() {
		run, err := scanStageRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stage run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// UpdateProgress records a progress checkpoint
func (r *StageRunRepository) UpdateProgress(id string, processed, total, failed int) error {
	percent := 0.0
	if total > 0 {
		percent = float64(processed) / float64(total) * 100.0
	}

	query := `
		UPDATE stage_runs
		SET processed_items = ?, total_items = ?, failed_items = ?,
			progress_percent = ?, updated_at = ?
		WHERE id = ?
	`

	_, err := r.db.Exec(query, processed, total, failed, percent, time.Now().Unix(), id)
	if err != nil {
		return fmt.Errorf("failed to update run progress: %w", err)
	}
	return nil
}

// MarkAsRunning marks a run as running
func (r *StageRunRepository) MarkAsRunning(id string) error {
	now := time.Now().Unix()
	query := `
		UPDATE stage_runs
		SET status = ?, start_time = ?, updated_at = ?
		WHERE id = ?
	`

	_, err := r.db.Exec(query, models.RunStatusRunning, now, now, id)
	if err != nil {
		return fmt.Errorf("failed to mark run as running: %w", err)
	}
	return nil
}

// MarkAsCompleted marks a run as completed with its output and summary
func (r *StageRunRepository) MarkAsCompleted(id, outputPath, resultSummary string) error {
	now := time.Now().Unix()
	query := `
		UPDATE stage_runs
		SET status = ?, end_time = ?, output_path = ?, result_summary = ?,
			progress_percent = 100, updated_at = ?
		WHERE id = ?
	`

	_, err := r.db.Exec(query, models.RunStatusCompleted, now, outputPath, resultSummary, now, id)
	if err != nil {
		return fmt.Errorf("failed to mark run as completed: %w", err)
	}
	return nil
}

// MarkAsFailed marks a run as failed with an error message
func (r *StageRunRepository) MarkAsFailed(id, errorMessage string) error {
	now := time.Now().Unix()
	query := `
		UPDATE stage_runs
		SET status = ?, end_time = ?, error_message = ?, updated_at = ?
		WHERE id = ?
	`

	_, err := r.db.Exec(query, models.RunStatusFailed, now, errorMessage, now, id)
	if err != nil {
		return fmt.Errorf("failed to mark run as failed: %w", err)
	}
	return nil
}
