package service

import (
	"fmt"

	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/analysis"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/models"
	"github.com/mcsc-impact-climate/Geo-FTADS-Analysis-sub000/internal/repository"
)

// StageRunService handles stage-run ledger business logic. It is the
// tracker the runner records runs through.
type StageRunService struct {
	repo *repository.StageRunRepository
}

var _ analysis.Tracker = (*StageRunService)(nil)

// NewStageRunService creates a new stage-run service
func NewStageRunService(repo *repository.StageRunRepository) *StageRunService {
	return &StageRunService{repo: repo}
}

// CreateRun records a pending run
func (s *StageRunService) CreateRun(id, stage, paramsJSON string) error {
	if !analysis.IsRegistered(stage) {
		return fmt.Errorf("invalid stage name: %s", stage)
	}
	return s.repo.Create(&models.StageRun{
		ID:         id,
		Stage:      stage,
		Status:     models.RunStatusPending,
		ParamsJSON: paramsJSON,
	})
}

func (s *StageRunService) MarkRunning(id string) error {
	return s.repo.MarkAsRunning(id)
}

func (s *StageRunService) UpdateProgress(id string, processed, total, failed int) error {
	return s.repo.UpdateProgress(id, processed, total, failed)
}

func (s *StageRunService) MarkCompleted(id, outputPath, resultSummary string) error {
	return s.repo.MarkAsCompleted(id, outputPath, resultSummary)
}

func (s *StageRunService) MarkFailed(id, errorMessage string) error {
	return s.repo.MarkAsFailed(id, errorMessage)
}

// GetRun retrieves a run by its uuid
func (s *StageRunService) GetRun(id string) (*models.StageRun, error) {
	return s.repo.GetByID(id)
}

// ListRuns retrieves runs newest first
func (s *StageRunService) ListRuns(filters models.StageRunFilters) ([]*models.StageRun, error) {
	if filters.Stage != "" && !analysis.IsRegistered(filters.Stage) {
		return nil, fmt.Errorf("invalid stage name: %s", filters.Stage)
	}
	if filters.Limit > 500 {
		filters.Limit = 500
	}
	return s.repo.List(filters)
}

// Stages lists the registered stages
func (s *StageRunService) Stages() []analysis.Info {
	return analysis.Stages()
}
