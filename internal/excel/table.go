package excel

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// Table is a fully-loaded, randomly addressable workbook. It is used for
// sources small enough to hold in memory; large sources stay behind a
// StreamFactory instead.
type Table struct {
	sheets []string
	rows   map[string][]Row
}

// LoadTable parses every worksheet of the workbook at path into memory.
func LoadTable(path string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer f.Close()

	t := &Table{
		sheets: f.GetSheetList(),
		rows:   make(map[string][]Row, len(f.GetSheetList())),
	}
	for _, sheet := range t.sheets {
		raw, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("load sheet %s: %w", sheet, err)
		}
		rows := make([]Row, len(raw))
		for i, cols := range raw {
			rows[i] = RowFromRaw(i+1, cols)
		}
		t.rows[sheet] = rows
	}
	return t, nil
}

// NewTable builds a table directly from rows, keyed by sheet name. Rows keep
// the numbers they were built with.
func NewTable(sheets []string, rows map[string][]Row) *Table {
	return &Table{sheets: sheets, rows: rows}
}

// SheetNames returns the sheet names in workbook order.
func (t *Table) SheetNames() []string { return t.sheets }

// Row returns the row at the 1-based index of the named sheet.
func (t *Table) Row(sheet string, number int) Row {
	rows := t.rows[sheet]
	if number < 1 || number > len(rows) {
		return Row{Number: number}
	}
	return rows[number-1]
}

// RowCount returns the number of rows held for the named sheet.
func (t *Table) RowCount(sheet string) int { return len(t.rows[sheet]) }

// Source exposes the table through the sequential WorksheetSource contract,
// so iteration code does not care whether a source was materialized.
func (t *Table) Source() WorksheetSource { return &tableSource{table: t} }

// NewSource implements StreamFactory. Tables are rewindable, so every call
// simply restarts at the first row.
func (t *Table) NewSource() (WorksheetSource, error) { return t.Source(), nil }

type tableSource struct {
	table *Table
}

func (s *tableSource) SheetNames() []string { return s.table.sheets }

func (s *tableSource) Rows(sheet string) (RowIterator, error) {
	rows, ok := s.table.rows[sheet]
	if !ok {
		return nil, &SheetNotFoundError{Ref: sheet}
	}
	return &tableRowIterator{rows: rows}, nil
}

func (s *tableSource) Close() error { return nil }

type tableRowIterator struct {
	rows []Row
	pos  int
}

func (it *tableRowIterator) Next() bool {
	if it.pos >= len(it.rows) {
		return false
	}
	it.pos++
	return true
}

func (it *tableRowIterator) Row() (Row, error) { return it.rows[it.pos-1], nil }

func (it *tableRowIterator) Close() error { return nil }
