package excel

// Row is one worksheet row addressed by fixed 1-based column indices.
// Indices past the last populated column read as empty, so extractors never
// bounds-check.
type Row struct {
	// Number is the 1-based row index within the worksheet.
	Number int

	cells []Value
}

// NewRow builds a row from already-classified cell values, cell 0 being
// column A.
func NewRow(number int, cells []Value) Row {
	return Row{Number: number, cells: cells}
}

// RowFromRaw builds a row from the raw strings a sequential read yields.
func RowFromRaw(number int, raw []string) Row {
	cells := make([]Value, len(raw))
	for i, s := range raw {
		cells[i] = FromRaw(s)
	}
	return Row{Number: number, cells: cells}
}

// Cell returns the value at the 1-based column index.
func (r Row) Cell(col int) Value {
	if col < 1 || col > len(r.cells) {
		return Empty()
	}
	return r.cells[col-1]
}

// Len returns the number of populated columns.
func (r Row) Len() int { return len(r.cells) }

// HasValues reports whether any cell holds non-empty content.
func (r Row) HasValues() bool {
	for _, c := range r.cells {
		if !c.IsEmpty() {
			return true
		}
	}
	return false
}
