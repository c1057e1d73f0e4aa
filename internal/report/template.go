// Package report hosts the template registry and the generation service that
// drives one report run end to end: template lookup, output naming, history
// recording, and completion notification.
package report

import (
	"context"
	"time"

	"github.com/zhenghao/ledger-reporter/internal/source"
)

// Meta describes a report template for listing and UI purposes.
type Meta struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	// Sources are the files a run of this template must be given.
	Sources []source.Requirement `json:"sources"`
}

// Template is one generatable report kind. Implementations own the whole
// domain pipeline behind Generate.
type Template interface {
	Meta() Meta
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error)
}

// GenerateRequest carries the user-supplied inputs of one run.
type GenerateRequest struct {
	// Paths maps source ids (from Meta.Sources) to local file paths.
	Paths map[string]string
	// DateInput is the raw target-date text, validated by the template.
	DateInput string
	// OutputDir is where the generated file lands. Empty means next to the
	// baseline file.
	OutputDir string
}

// GenerateResult is what a template reports back on success.
type GenerateResult struct {
	OutputPath   string
	TargetDate   time.Time
	YMD          string
	AppendedRows int
	// NoOp marks runs that produced an unchanged copy of the baseline.
	NoOp     bool
	Warnings []Warning
}

// Warning is a non-fatal observation surfaced to the caller.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
