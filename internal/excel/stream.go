package excel

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/xuri/excelize/v2"
)

// DefaultYieldInterval is how many rows a traversal processes between
// cooperative yields. A single multi-hundred-thousand-row sheet must not
// monopolize the scheduler or outlive a cancelled run.
const DefaultYieldInterval = 2000

// ErrStop is returned by a RowHandler to end iteration early without error.
var ErrStop = errors.New("excel: stop iteration")

// SheetNotFoundError reports that a requested worksheet does not exist in the
// underlying source.
type SheetNotFoundError struct {
	Ref string
}

func (e *SheetNotFoundError) Error() string {
	return fmt.Sprintf("excel: worksheet not found: %s", e.Ref)
}

// SheetRef addresses a worksheet by name or, when Name is empty, by 0-based
// index.
type SheetRef struct {
	Name  string
	Index int
}

// SheetByName addresses a worksheet by its name.
func SheetByName(name string) SheetRef { return SheetRef{Name: name} }

// SheetByIndex addresses a worksheet by 0-based position.
func SheetByIndex(idx int) SheetRef { return SheetRef{Index: idx} }

func (r SheetRef) String() string {
	if r.Name != "" {
		return r.Name
	}
	return fmt.Sprintf("#%d", r.Index)
}

// Resolve maps the reference onto a concrete sheet name.
func (r SheetRef) Resolve(names []string) (string, error) {
	if r.Name != "" {
		for _, n := range names {
			if n == r.Name {
				return n, nil
			}
		}
		return "", &SheetNotFoundError{Ref: r.Name}
	}
	if r.Index < 0 || r.Index >= len(names) {
		return "", &SheetNotFoundError{Ref: r.String()}
	}
	return names[r.Index], nil
}

// RowIterator walks one worksheet strictly forward. Implementations are
// single-pass; restarting means obtaining a fresh WorksheetSource.
type RowIterator interface {
	Next() bool
	Row() (Row, error)
	Close() error
}

// WorksheetSource is a sequential-row view over one workbook.
type WorksheetSource interface {
	SheetNames() []string
	Rows(sheet string) (RowIterator, error)
	Close() error
}

// StreamFactory produces a fresh single-pass WorksheetSource on every call.
// Spreadsheet streaming readers cannot rewind; re-opening is the only way to
// traverse a source twice, and the factory makes that contract explicit.
type StreamFactory interface {
	NewSource() (WorksheetSource, error)
}

// FileStreamFactory opens a workbook file for sequential reading.
type FileStreamFactory struct {
	Path string
}

// NewSource implements StreamFactory.
func (f FileStreamFactory) NewSource() (WorksheetSource, error) {
	file, err := excelize.OpenFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", f.Path, err)
	}
	return &fileSource{file: file}, nil
}

type fileSource struct {
	file *excelize.File
}

func (s *fileSource) SheetNames() []string { return s.file.GetSheetList() }

func (s *fileSource) Rows(sheet string) (RowIterator, error) {
	rows, err := s.file.Rows(sheet)
	if err != nil {
		return nil, fmt.Errorf("open row stream for sheet %s: %w", sheet, err)
	}
	return &fileRowIterator{rows: rows}, nil
}

func (s *fileSource) Close() error { return s.file.Close() }

type fileRowIterator struct {
	rows   *excelize.Rows
	number int
}

func (it *fileRowIterator) Next() bool {
	if !it.rows.Next() {
		return false
	}
	it.number++
	return true
}

func (it *fileRowIterator) Row() (Row, error) {
	cols, err := it.rows.Columns(excelize.Options{RawCellValue: true})
	if err != nil {
		return Row{}, fmt.Errorf("read row %d: %w", it.number, err)
	}
	return RowFromRaw(it.number, cols), nil
}

func (it *fileRowIterator) Close() error { return it.rows.Close() }

// StreamOptions bounds one worksheet traversal.
type StreamOptions struct {
	Sheet SheetRef
	// StartRow is the first 1-based row delivered to the handler; earlier
	// rows are skipped without being handed out. Zero means row 1.
	StartRow int
	// MaxRows caps how many rows are delivered. Zero means unlimited.
	MaxRows int
	// YieldInterval overrides DefaultYieldInterval when positive.
	YieldInterval int
}

// RowHandler processes one row. Returning ErrStop ends the traversal early;
// any other error aborts it.
type RowHandler func(row Row) error

// ForEachRow opens a fresh reader from the factory and walks the referenced
// worksheet in strict row order, yielding cooperatively every fixed interval.
// It returns the number of rows delivered to the handler.
func ForEachRow(ctx context.Context, factory StreamFactory, opts StreamOptions, fn RowHandler) (int, error) {
	src, err := factory.NewSource()
	if err != nil {
		return 0, err
	}
	defer src.Close()
	return ForEachSourceRow(ctx, src, opts, fn)
}

// ForEachSourceRow is ForEachRow over an already-open source. The source is
// not closed.
func ForEachSourceRow(ctx context.Context, src WorksheetSource, opts StreamOptions, fn RowHandler) (int, error) {
	sheet, err := opts.Sheet.Resolve(src.SheetNames())
	if err != nil {
		return 0, err
	}

	startRow := opts.StartRow
	if startRow < 1 {
		startRow = 1
	}
	yieldEvery := opts.YieldInterval
	if yieldEvery <= 0 {
		yieldEvery = DefaultYieldInterval
	}

	it, err := src.Rows(sheet)
	if err != nil {
		return 0, err
	}
	defer it.Close()

	delivered := 0
	for it.Next() {
		row, err := it.Row()
		if err != nil {
			return delivered, err
		}
		if row.Number < startRow {
			continue
		}
		if opts.MaxRows > 0 && delivered >= opts.MaxRows {
			break
		}

		if err := fn(row); err != nil {
			if errors.Is(err, ErrStop) {
				return delivered + 1, nil
			}
			return delivered, err
		}
		delivered++

		if row.Number%yieldEvery == 0 {
			if err := Yield(ctx); err != nil {
				return delivered, err
			}
		}
	}
	return delivered, nil
}

// Yield hands the scheduler a chance to run other work and surfaces
// cancellation between row batches.
func Yield(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	runtime.Gosched()
	return nil
}
