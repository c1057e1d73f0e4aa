package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/zhenghao/ledger-reporter/internal/excel"
)

// StreamError wraps a read or write primitive failure that happened
// mid-traversal. These are always fatal: a partially written output file is
// not guaranteed consistent and must be treated as invalid.
type StreamError struct {
	Op   string
	Path string
	Err  error
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("stream %s failed for %s: %v", e.Op, e.Path, e.Err)
}

func (e *StreamError) Unwrap() error { return e.Err }

// AppendSpec describes one copy-and-append operation.
type AppendSpec struct {
	SourcePath       string
	OutputPath       string
	TargetSheet      string
	TemplateRowIndex int
	Template         *TemplateRowStyle
	Rows             []AppendableRow
	TargetDate       time.Time
}

// Writer is the terminal component of an append run: it replays the baseline
// ledger's target sheet row by row into a fresh streaming writer, then
// appends the matched rows with the captured template style and merge-group
// overrides, and commits the result to the output path.
//
// The write side is a sequential stream throughout; existing rows are read
// through a second sequential handle over the same file, so neither direction
// materializes the full sheet.
type Writer struct {
	yieldInterval int
	logger        *zap.Logger
}

// NewWriter creates a writer. A yieldInterval of zero uses the default.
func NewWriter(yieldInterval int, logger *zap.Logger) *Writer {
	if yieldInterval <= 0 {
		yieldInterval = excel.DefaultYieldInterval
	}
	return &Writer{yieldInterval: yieldInterval, logger: logger}
}

// rowPayload buffers one replayed row. Blank rows trailing the last genuine
// data row are held here and dropped, so appended rows continue contiguously.
type rowPayload struct {
	number int
	cells  []interface{}
	opts   excelize.RowOpts
}

// CopyAndAppend executes the operation described by spec. Sheets other than
// the target pass through to the output untouched, values, styles, and merges
// intact; the target sheet is replayed value-for-value with heights and merge
// ranges preserved, then extended with spec.Rows.
func (w *Writer) CopyAndAppend(ctx context.Context, spec AppendSpec) error {
	rf, err := excelize.OpenFile(spec.SourcePath)
	if err != nil {
		return &StreamError{Op: "read", Path: spec.SourcePath, Err: err}
	}
	defer rf.Close()

	wf, err := excelize.OpenFile(spec.SourcePath)
	if err != nil {
		return &StreamError{Op: "read", Path: spec.SourcePath, Err: err}
	}
	defer wf.Close()

	idx, err := wf.GetSheetIndex(spec.TargetSheet)
	if err != nil || idx < 0 {
		return &excel.SheetNotFoundError{Ref: spec.TargetSheet}
	}

	// Everything that needs random access is captured before the stream
	// writer takes over the sheet: merge ranges, header-region cell styles,
	// and column widths.
	merges, err := wf.GetMergeCells(spec.TargetSheet)
	if err != nil {
		return &StreamError{Op: "read", Path: spec.SourcePath, Err: err}
	}
	headerStyles, err := w.captureHeaderStyles(wf, spec)
	if err != nil {
		return &StreamError{Op: "read", Path: spec.SourcePath, Err: err}
	}
	maxCol := excel.Col(mergeKeyColumn)
	widths := make([]float64, maxCol+1)
	for col := 1; col <= maxCol; col++ {
		width, err := wf.GetColWidth(spec.TargetSheet, excel.ColName(col))
		if err == nil {
			widths[col] = width
		}
	}

	sw, err := wf.NewStreamWriter(spec.TargetSheet)
	if err != nil {
		return &StreamError{Op: "write", Path: spec.OutputPath, Err: err}
	}
	for col := 1; col <= maxCol; col++ {
		if widths[col] > 0 {
			if err := sw.SetColWidth(col, col, widths[col]); err != nil {
				return &StreamError{Op: "write", Path: spec.OutputPath, Err: err}
			}
		}
	}

	lastDataRow, replayed, err := w.replayExistingRows(ctx, rf, sw, spec, headerStyles)
	if err != nil {
		return err
	}

	appendStart := lastDataRow + 1
	if min := spec.TemplateRowIndex + 1; appendStart < min {
		appendStart = min
	}
	if err := w.appendRows(ctx, sw, spec, appendStart); err != nil {
		return err
	}

	for _, m := range merges {
		if err := sw.MergeCell(m.GetStartAxis(), m.GetEndAxis()); err != nil {
			return &StreamError{Op: "write", Path: spec.OutputPath, Err: err}
		}
	}

	if err := sw.Flush(); err != nil {
		return &StreamError{Op: "write", Path: spec.OutputPath, Err: err}
	}
	if err := wf.SaveAs(spec.OutputPath); err != nil {
		return &StreamError{Op: "write", Path: spec.OutputPath, Err: err}
	}

	w.logger.Info("ledger sheet written",
		zap.String("output", spec.OutputPath),
		zap.Int("existing_rows", replayed),
		zap.Int("appended_rows", len(spec.Rows)),
		zap.Int("append_start", appendStart))
	return nil
}

// captureHeaderStyles snapshots per-cell styles for the rows at or before the
// template row. Rows after it carry the template style by construction, so
// only this bounded region needs cell-granular capture.
func (w *Writer) captureHeaderStyles(wf *excelize.File, spec AppendSpec) (map[int][]int, error) {
	maxCol := excel.Col(mergeKeyColumn)
	styles := make(map[int][]int, spec.TemplateRowIndex)
	for row := 1; row <= spec.TemplateRowIndex; row++ {
		ids := make([]int, maxCol+1)
		for col := 1; col <= maxCol; col++ {
			id, err := wf.GetCellStyle(spec.TargetSheet, excel.CellName(col, row))
			if err != nil {
				return nil, err
			}
			ids[col] = id
		}
		styles[row] = ids
	}
	return styles, nil
}

// replayExistingRows copies every existing target-sheet row into the stream
// writer and returns the last row number holding genuine data after the
// template row, plus the number of rows written.
func (w *Writer) replayExistingRows(
	ctx context.Context,
	rf *excelize.File,
	sw *excelize.StreamWriter,
	spec AppendSpec,
	headerStyles map[int][]int,
) (lastDataRow, written int, err error) {
	rows, err := rf.Rows(spec.TargetSheet)
	if err != nil {
		return 0, 0, &StreamError{Op: "read", Path: spec.SourcePath, Err: err}
	}
	defer rows.Close()

	var pendingBlanks []rowPayload
	rowNumber := 0

	flushPending := func() error {
		for _, p := range pendingBlanks {
			if err := w.writeRow(sw, p); err != nil {
				return &StreamError{Op: "write", Path: spec.OutputPath, Err: err}
			}
			written++
		}
		pendingBlanks = pendingBlanks[:0]
		return nil
	}

	for rows.Next() {
		rowNumber++
		opts := rows.GetRowOpts()

		cols, err := rows.Columns(excelize.Options{RawCellValue: true})
		if err != nil {
			return 0, 0, &StreamError{Op: "read", Path: spec.SourcePath, Err: err}
		}

		payload := rowPayload{
			number: rowNumber,
			cells:  w.replayCells(rowNumber, cols, spec, headerStyles),
			opts: excelize.RowOpts{
				Height:  opts.Height,
				Hidden:  opts.Hidden,
				StyleID: opts.StyleID,
			},
		}

		hasData := false
		for _, raw := range cols {
			if raw != "" {
				hasData = true
				break
			}
		}

		switch {
		case rowNumber <= spec.TemplateRowIndex:
			if err := w.writeRow(sw, payload); err != nil {
				return 0, 0, &StreamError{Op: "write", Path: spec.OutputPath, Err: err}
			}
			written++
		case hasData:
			if err := flushPending(); err != nil {
				return 0, 0, err
			}
			if err := w.writeRow(sw, payload); err != nil {
				return 0, 0, &StreamError{Op: "write", Path: spec.OutputPath, Err: err}
			}
			written++
			lastDataRow = rowNumber
		default:
			// Blank row after the template row: held back until a later
			// data row proves it is interior, dropped if it trails.
			pendingBlanks = append(pendingBlanks, payload)
		}

		if rowNumber%w.yieldInterval == 0 {
			if err := excel.Yield(ctx); err != nil {
				return 0, 0, err
			}
		}
	}
	return lastDataRow, written, nil
}

// replayCells converts one raw row into stream-writer cells, reattaching
// header-region cell styles and the template column styles for the data
// region.
func (w *Writer) replayCells(rowNumber int, cols []string, spec AppendSpec, headerStyles map[int][]int) []interface{} {
	cells := make([]interface{}, len(cols))
	for i, raw := range cols {
		col := i + 1
		value := excel.FromRaw(raw).Interface()

		styleID := 0
		if ids, ok := headerStyles[rowNumber]; ok && col < len(ids) {
			styleID = ids[col]
		} else if spec.Template != nil && rowNumber > spec.TemplateRowIndex {
			styleID = spec.Template.StyleIDs[excel.ColName(col)]
		}

		if styleID != 0 {
			cells[i] = excelize.Cell{StyleID: styleID, Value: value}
		} else {
			cells[i] = value
		}
	}
	return cells
}

func (w *Writer) writeRow(sw *excelize.StreamWriter, p rowPayload) error {
	var opts []excelize.RowOpts
	if p.opts.Height > 0 || p.opts.Hidden || p.opts.StyleID != 0 {
		opts = append(opts, p.opts)
	}
	return sw.SetRow(excel.CellName(1, p.number), p.cells, opts...)
}

// appendRows materializes the matched rows after the existing data, applying
// the per-type column mapping, merge-group overrides, and the template style.
func (w *Writer) appendRows(ctx context.Context, sw *excelize.StreamWriter, spec AppendSpec, appendStart int) error {
	overrides := make(map[int]MergeGroup)
	for _, g := range CollectMergeGroups(spec.Rows, appendStart, spec.TargetDate) {
		overrides[g.StartRow-appendStart] = g
	}

	maxCol := excel.Col(mergeKeyColumn)
	outputCols := OutputColumns()

	for i, arow := range spec.Rows {
		values := BuildRowValues(arow)
		if g, ok := overrides[i]; ok {
			sum, _ := g.Sum.Float64()
			values[aggregateColumn] = excel.Number(sum)
			values[mergeKeyColumn] = excel.String(g.Serial)
		}

		cells := make([]interface{}, maxCol)
		for letter, v := range values {
			cell := excelize.Cell{}
			if formula := v.FormulaText(); formula != "" {
				cell.Formula = formula
			} else {
				cell.Value = v.Interface()
			}
			cells[excel.Col(letter)-1] = cell
		}

		// The template style covers every output column, including the
		// ones this row type leaves empty.
		if spec.Template != nil {
			for _, letter := range outputCols {
				styleID, ok := spec.Template.StyleIDs[letter]
				if !ok {
					continue
				}
				pos := excel.Col(letter) - 1
				cell, _ := cells[pos].(excelize.Cell)
				cell.StyleID = styleID
				cells[pos] = cell
			}
		}

		var rowOpts []excelize.RowOpts
		if spec.Template != nil && spec.Template.HasHeight {
			rowOpts = append(rowOpts, excelize.RowOpts{Height: spec.Template.Height})
		}
		if err := sw.SetRow(excel.CellName(1, appendStart+i), cells, rowOpts...); err != nil {
			return &StreamError{Op: "write", Path: spec.OutputPath, Err: err}
		}

		if i > 0 && i%w.yieldInterval == 0 {
			if err := excel.Yield(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}
