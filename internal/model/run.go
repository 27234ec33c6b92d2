package model

import "time"

// Analysis run statuses
const (
	RunRunning   = "running"
	RunCompleted = "completed"
	RunPartial   = "partial"
	RunFailed    = "failed"
)

// AnalysisRun is one invocation of the analysis stage.
type AnalysisRun struct {
	ID         string     `json:"id"`
	Status     string     `json:"status"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Succeeded  int        `json:"succeeded"`
	Failed     int        `json:"failed"`
}

// RunError records a query that was skipped during a run.
type RunError struct {
	RunID     string    `json:"run_id"`
	Query     string    `json:"query"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// QueryResult is the outcome of materializing one analytic question.
type QueryResult struct {
	Name      string        `json:"name"`
	Table     string        `json:"table"`
	RowCount  int           `json:"row_count"`
	Sampled   bool          `json:"sampled"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
	Duration  time.Duration `json:"duration"`
	Timestamp time.Time     `json:"timestamp"`
}
