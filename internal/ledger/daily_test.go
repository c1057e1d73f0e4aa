package ledger

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/zhenghao/ledger-reporter/internal/source"
)

// buildRunFixtures creates the four source files of one append run: loans
// and repayments carrying records for 2025-01-11, and a baseline ledger
// whose data ends on 2025-01-10.
func buildRunFixtures(t *testing.T, dir string) map[string]string {
	t.Helper()

	loans := newSourceFixture(t, dir, "放款明细.xlsx", []cellSpec{
		loanFixtureRow("2025-01-11", "A1", "直接投放"),
		loanFixtureRow("2025-01-09", "A2", "直接投放"), // wrong day, ignored
		loanFixtureRow("2025-01-11", "A3", "再保理投放"),
	})
	factoring := newSourceFixture(t, dir, "保理还款.xlsx", []cellSpec{
		repayFixtureRow("2025-01-11", "本金", "TX-10", 1000),
		repayFixtureRow("2025-01-11", "利息", "TX-11", 50), // fee row, ignored
		repayFixtureRow("2025-01-11", "本金", "TX-2", 2000),
	})
	refactoring := newSourceFixture(t, dir, "再保理还款.xlsx", []cellSpec{
		repayFixtureRow("2025-01-11", "本金", "TX-5", 3000),
	})
	ledger := newLedgerFixture(t, dir, []string{"2025-01-09", "2025-01-10"})

	return map[string]string{
		SourceLoanDetail:       loans,
		SourceFactoringRepay:   factoring,
		SourceRefactoringRepay: refactoring,
		SourceLedgerWorkbook:   ledger,
	}
}

func newTestAppender(strategy source.LoadStrategy) *DailyAppender {
	logger := zap.NewNop()
	return NewDailyAppender(Config{PrimaryStrategy: strategy}, source.NewResolver(0, logger), logger)
}

func TestDailyAppenderRun(t *testing.T) {
	for _, strategy := range []source.LoadStrategy{source.StrategyStream, source.StrategyWorkbook} {
		t.Run(string(strategy), func(t *testing.T) {
			dir := t.TempDir()
			paths := buildRunFixtures(t, dir)
			output := filepath.Join(dir, "out.xlsx")

			result, err := newTestAppender(strategy).Run(context.Background(), RunInput{
				Paths:      paths,
				DateInput:  "20250111",
				OutputPath: output,
			})
			require.NoError(t, err)

			assert.False(t, result.NoOp)
			assert.Equal(t, 5, result.AppendedRows)
			assert.Equal(t, "20250111", result.YMD)
			assert.Equal(t, output, result.OutputPath)

			f, err := excelize.OpenFile(output)
			require.NoError(t, err)
			defer f.Close()

			// Baseline data occupies rows 11-12; appends run 13-17 in phase
			// order: the two matching loans, then factoring repayments by
			// serial, then the refactoring repayment.
			read := func(cell string) string {
				v, err := f.GetCellValue(DefaultTargetSheet, cell, excelize.Options{RawCellValue: true})
				require.NoError(t, err)
				return v
			}

			assert.Equal(t, "A1", read("G13"))
			assert.Equal(t, "保理", read("S13"))
			assert.Equal(t, "A3", read("G14"))
			assert.Equal(t, "再保理", read("S14"))

			assert.Equal(t, "TX-2", read("AR15"))
			assert.Equal(t, "2000", read("AI15"))
			assert.Equal(t, "保理", read("AK15"))
			assert.Equal(t, "TX-10", read("AR16"))
			assert.Equal(t, "1000", read("AI16"))

			assert.Equal(t, "TX-5", read("AR17"))
			assert.Equal(t, "再保理", read("AK17"))

			// Nothing appended past the last expected row.
			assert.Equal(t, "", read("G18"))
			assert.Equal(t, "", read("AR18"))
		})
	}
}

func TestDailyAppenderIdempotencyGate(t *testing.T) {
	dir := t.TempDir()
	paths := buildRunFixtures(t, dir)
	output := filepath.Join(dir, "copy.xlsx")

	// Target date equals the ledger's last known date: the run degrades to
	// a byte copy of the baseline.
	result, err := newTestAppender(source.StrategyStream).Run(context.Background(), RunInput{
		Paths:      paths,
		DateInput:  "20250110",
		OutputPath: output,
	})
	require.NoError(t, err)

	assert.True(t, result.NoOp)
	assert.Zero(t, result.AppendedRows)

	want, err := os.ReadFile(paths[SourceLedgerWorkbook])
	require.NoError(t, err)
	got, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, want, got, "copy must be byte-identical to the baseline")
}

func TestDailyAppenderNoMatchingRows(t *testing.T) {
	dir := t.TempDir()
	paths := buildRunFixtures(t, dir)
	output := filepath.Join(dir, "copy.xlsx")

	// A later date with no matching records also copies the baseline.
	result, err := newTestAppender(source.StrategyStream).Run(context.Background(), RunInput{
		Paths:      paths,
		DateInput:  "20250112",
		OutputPath: output,
	})
	require.NoError(t, err)

	assert.True(t, result.NoOp)

	want, err := os.ReadFile(paths[SourceLedgerWorkbook])
	require.NoError(t, err)
	got, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestDailyAppenderValidatesBeforeIO(t *testing.T) {
	appender := newTestAppender(source.StrategyStream)

	_, err := appender.Run(context.Background(), RunInput{DateInput: "not-a-date"})
	var invalid *InvalidDateError
	assert.ErrorAs(t, err, &invalid)

	_, err = appender.Run(context.Background(), RunInput{DateInput: "20250111"})
	var missing *source.MissingSourceError
	assert.ErrorAs(t, err, &missing)
}
