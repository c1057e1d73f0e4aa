package history

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"
)

// ExportCSV writes records to w as CSV, one row per run, header included.
func ExportCSV(w io.Writer, records []*RunRecord) error {
	if err := gocsv.Marshal(records, w); err != nil {
		return fmt.Errorf("failed to export run history: %w", err)
	}
	return nil
}
