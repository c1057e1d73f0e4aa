package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/zhenghao/ledger-reporter/internal/excel"
)

// Columns of the target sheet carrying the transaction date: the loan date
// column first, the repayment date column as fallback.
const (
	ledgerDateColPrimary  = 23 // W
	ledgerDateColFallback = 31 // AE
)

// TemplateRowStyle is the style template captured once per run from the
// designated template row of the baseline sheet: the row height plus, per
// output column, the style identifier in the baseline's style table. It is
// read-only once captured and applied verbatim to every appended row.
type TemplateRowStyle struct {
	Height    float64
	HasHeight bool
	// StyleIDs maps column letters to style ids. The ids are only
	// meaningful against workbooks sharing the baseline's style table,
	// which holds for any handle opened from the baseline file itself.
	StyleIDs map[string]int
}

// ScanResult is the outcome of one forward pass over the baseline ledger.
type ScanResult struct {
	HasTargetSheet bool
	LastKnownDate  *time.Time
	LastRowNumber  int
	Template       *TemplateRowStyle
}

// ScannerConfig bounds the scan.
type ScannerConfig struct {
	TargetSheet      string
	TemplateRowIndex int
	YieldInterval    int
}

// Scanner extracts the append-relevant metadata from the baseline ledger in a
// single forward pass over the target sheet. Other sheets are never opened.
type Scanner struct {
	cfg    ScannerConfig
	logger *zap.Logger
}

// NewScanner creates a scanner.
func NewScanner(cfg ScannerConfig, logger *zap.Logger) *Scanner {
	if cfg.YieldInterval <= 0 {
		cfg.YieldInterval = excel.DefaultYieldInterval
	}
	return &Scanner{cfg: cfg, logger: logger}
}

// Scan streams the target sheet of the baseline workbook at path, capturing
// the template-row style exactly once when the pass reaches the template row
// and tracking the last parseable transaction date after it, last write wins.
// The scanner never rewinds or re-reads.
func (s *Scanner) Scan(ctx context.Context, path string) (*ScanResult, error) {
	result := &ScanResult{}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open ledger %s: %w", path, err)
	}
	defer f.Close()

	idx, err := f.GetSheetIndex(s.cfg.TargetSheet)
	if err != nil {
		return nil, fmt.Errorf("look up sheet %s: %w", s.cfg.TargetSheet, err)
	}
	if idx < 0 {
		return result, nil
	}
	result.HasTargetSheet = true

	rows, err := f.Rows(s.cfg.TargetSheet)
	if err != nil {
		return nil, fmt.Errorf("open ledger row stream: %w", err)
	}
	defer rows.Close()

	rowNumber := 0
	for rows.Next() {
		rowNumber++

		if rowNumber == s.cfg.TemplateRowIndex && result.Template == nil {
			tmpl, err := s.captureTemplate(f, rows)
			if err != nil {
				return nil, err
			}
			result.Template = tmpl
		}

		cols, err := rows.Columns(excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("read ledger row %d: %w", rowNumber, err)
		}
		row := excel.RowFromRaw(rowNumber, cols)

		if rowNumber > s.cfg.TemplateRowIndex && row.HasValues() {
			result.LastRowNumber = rowNumber

			dateCell := row.Cell(ledgerDateColPrimary)
			if dateCell.IsFalsy() {
				dateCell = row.Cell(ledgerDateColFallback)
			}
			if t, ok := excel.ParseDate(dateCell); ok {
				result.LastKnownDate = &t
			}
		}

		if rowNumber%s.cfg.YieldInterval == 0 {
			if err := excel.Yield(ctx); err != nil {
				return nil, err
			}
		}
	}

	lastDate := "none"
	if result.LastKnownDate != nil {
		lastDate = excel.FormatYMD(*result.LastKnownDate)
	}
	s.logger.Debug("ledger scan finished",
		zap.String("path", path),
		zap.Int("rows", rowNumber),
		zap.Int("last_data_row", result.LastRowNumber),
		zap.String("last_date", lastDate),
		zap.Bool("template_captured", result.Template != nil))

	return result, nil
}

// captureTemplate snapshots the row height and per-column styles of the
// template row. The style lookups address cells directly; the row stream
// itself only contributes the height.
func (s *Scanner) captureTemplate(f *excelize.File, rows *excelize.Rows) (*TemplateRowStyle, error) {
	tmpl := &TemplateRowStyle{StyleIDs: make(map[string]int)}

	if opts := rows.GetRowOpts(); opts.Height > 0 {
		tmpl.Height = opts.Height
		tmpl.HasHeight = true
	}

	for _, col := range OutputColumns() {
		cell := col + fmt.Sprint(s.cfg.TemplateRowIndex)
		styleID, err := f.GetCellStyle(s.cfg.TargetSheet, cell)
		if err != nil {
			return nil, fmt.Errorf("capture template style at %s: %w", cell, err)
		}
		if styleID != 0 {
			tmpl.StyleIDs[col] = styleID
		}
	}
	return tmpl, nil
}
