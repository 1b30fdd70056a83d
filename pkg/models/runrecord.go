package models

import "time"

// RunRecord is one entry in the persistent run ledger (run_history.json):
// a summary of a single pipeline invocation, appended across runs.
type RunRecord struct {
	RunID       string    `json:"run_id"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	DryRun      bool      `json:"dry_run"`
	IncludeDest bool      `json:"include_dest"`
	Counts      Counts    `json:"counts"`
	ReportDir   string    `json:"report_dir"`
}

// Duration returns how long the run took.
func (r RunRecord) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
