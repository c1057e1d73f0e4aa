package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/zhenghao/ledger-reporter/internal/excel"
)

func newTestScanner() *Scanner {
	return NewScanner(ScannerConfig{
		TargetSheet:      DefaultTargetSheet,
		TemplateRowIndex: DefaultTemplateRowIndex,
	}, zap.NewNop())
}

func TestScanCapturesMetadata(t *testing.T) {
	dir := t.TempDir()
	path := newLedgerFixture(t, dir, []string{"2025-01-08", "2025-01-09", "2025-01-10"})

	result, err := newTestScanner().Scan(context.Background(), path)
	require.NoError(t, err)

	assert.True(t, result.HasTargetSheet)
	assert.Equal(t, DefaultTemplateRowIndex+3, result.LastRowNumber)

	require.NotNil(t, result.LastKnownDate)
	assert.Equal(t, "20250110", excel.FormatYMD(*result.LastKnownDate))

	require.NotNil(t, result.Template)
	assert.True(t, result.Template.HasHeight)
	assert.InDelta(t, 24, result.Template.Height, 0.01)

	// Every output column of the template row carries a captured style id.
	for _, col := range OutputColumns() {
		id, ok := result.Template.StyleIDs[col]
		assert.True(t, ok, "missing style for column %s", col)
		assert.NotZero(t, id, "zero style for column %s", col)
	}
}

func TestScanLastDateWinsOverEarlierRows(t *testing.T) {
	dir := t.TempDir()
	// Out-of-order dates: the physically last parseable one wins.
	path := newLedgerFixture(t, dir, []string{"2025-01-10", "2025-01-07"})

	result, err := newTestScanner().Scan(context.Background(), path)
	require.NoError(t, err)

	require.NotNil(t, result.LastKnownDate)
	assert.Equal(t, "20250107", excel.FormatYMD(*result.LastKnownDate))
}

func TestScanEmptyDataRegion(t *testing.T) {
	dir := t.TempDir()
	path := newLedgerFixture(t, dir, nil)

	result, err := newTestScanner().Scan(context.Background(), path)
	require.NoError(t, err)

	assert.True(t, result.HasTargetSheet)
	assert.Nil(t, result.LastKnownDate)
	assert.Zero(t, result.LastRowNumber)
	assert.NotNil(t, result.Template)
}

func TestScanMissingTargetSheet(t *testing.T) {
	dir := t.TempDir()
	path := newSourceFixture(t, dir, "other.xlsx", nil)

	result, err := newTestScanner().Scan(context.Background(), path)
	require.NoError(t, err)

	assert.False(t, result.HasTargetSheet)
	assert.Nil(t, result.Template)
}

func TestScanCancellation(t *testing.T) {
	dir := t.TempDir()
	path := newLedgerFixture(t, dir, []string{"2025-01-10"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	scanner := NewScanner(ScannerConfig{
		TargetSheet:      DefaultTargetSheet,
		TemplateRowIndex: DefaultTemplateRowIndex,
		YieldInterval:    1,
	}, zap.NewNop())

	_, err := scanner.Scan(ctx, path)
	assert.ErrorIs(t, err, context.Canceled)
}
