// Package source resolves the external spreadsheet files one report run
// declares, validates them before any streaming starts, and decides per file
// whether it is fully loaded into memory or exposed only as a re-openable
// sequential stream.
package source

import (
	"github.com/zhenghao/ledger-reporter/internal/excel"
)

// LoadStrategy controls how a resolved source is accessed.
type LoadStrategy string

const (
	// StrategyWorkbook fully parses the file into an addressable table.
	StrategyWorkbook LoadStrategy = "workbook"
	// StrategyStream never materializes the file; only a re-openable
	// sequential stream is exposed.
	StrategyStream LoadStrategy = "stream"
	// StrategyAuto mirrors the strategy of the run's primary source, so the
	// memory profile stays consistent run-to-run.
	StrategyAuto LoadStrategy = "auto"
)

// Requirement declares one external source a report template needs.
type Requirement struct {
	ID       string
	Label    string
	Required bool
	// Exts is the extension allow-list, without dots.
	Exts     []string
	Strategy LoadStrategy
}

// Context is a resolved, validated source ready for extraction. Exactly one
// of Table access and stream-only access is primary, but the Factory is
// always usable: tables satisfy the factory contract by rewinding.
type Context struct {
	ID         string
	Path       string
	Size       int64
	SheetNames []string

	// Table is non-nil when the source was loaded with StrategyWorkbook.
	Table *excel.Table
	// Factory produces a fresh single-pass reader per call.
	Factory excel.StreamFactory
	// Strategy is the strategy actually applied after auto resolution and
	// any downgrade.
	Strategy LoadStrategy
}
