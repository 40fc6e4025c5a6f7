package models

// StageRun is one execution of a pipeline stage recorded in the run ledger
type StageRun struct {
	ID    string `json:"id" db:"id"`       // uuid v4
	Stage string `json:"stage" db:"stage"` // registered stage name

	// Status
	Status          string  `json:"status" db:"status"` // pending, running, completed, failed
	ProgressPercent float64 `json:"progress_percent" db:"progress_percent"`

	// Input parameters
	ParamsJSON string `json:"params_json,omitempty" db:"params_json"`

	// Execution info
	TotalItems     int   `json:"total_items" db:"total_items"`
	ProcessedItems int   `json:"processed_items" db:"processed_items"`
	FailedItems    int   `json:"failed_items" db:"failed_items"`
	StartTime      int64 `json:"start_time,omitempty" db:"start_time"` // Unix timestamp
	EndTime        int64 `json:"end_time,omitempty" db:"end_time"`     // Unix timestamp

	// Results
	OutputPath    string `json:"output_path,omitempty" db:"output_path"`
	ResultSummary string `json:"result_summary,omitempty" db:"result_summary"` // JSON object with summary statistics
	ErrorMessage  string `json:"error_message,omitempty" db:"error_message"`

	CreatedAt int64 `json:"created_at" db:"created_at"`
	UpdatedAt int64 `json:"updated_at" db:"updated_at"`
}

// RunStatus constants
const (
	RunStatusPending   = "pending"
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// StageRunFilters narrows a ledger listing
type StageRunFilters struct {
	Stage  string `form:"stage"`
	Status string `form:"status"`
	Limit  int    `form:"limit"`
	Offset int    `form:"offset"`
}
