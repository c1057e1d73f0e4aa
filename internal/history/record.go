// Package history persists one row per report run so operators can audit
// what was generated, when, and from which inputs.
package history

import "time"

// Run statuses.
const (
	StatusSucceeded = "succeeded"
	StatusNoOp      = "noop"
	StatusFailed    = "failed"
)

// RunRecord is one finished (or failed) report run.
type RunRecord struct {
	ID           string        `csv:"run_id"`
	TemplateID   string        `csv:"template_id"`
	TargetDate   string        `csv:"target_date"`
	OutputPath   string        `csv:"output_path"`
	AppendedRows int           `csv:"appended_rows"`
	Status       string        `csv:"status"`
	Error        string        `csv:"error"`
	Duration     time.Duration `csv:"-"`
	DurationMS   int64         `csv:"duration_ms"`
	CreatedAt    time.Time     `csv:"created_at"`
}
