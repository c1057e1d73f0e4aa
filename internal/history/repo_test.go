package history

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/zhenghao/ledger-reporter/pkg/database"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	logger := zap.NewNop()

	db, err := database.New(database.Config{
		Path:         filepath.Join(t.TempDir(), "test.db"),
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.NewMigrator(db, logger).RunMigrations())
	return NewRepository(db.DB, logger)
}

func record(id, templateID, date, status string, rows int) *RunRecord {
	return &RunRecord{
		ID:           id,
		TemplateID:   templateID,
		TargetDate:   date,
		OutputPath:   "/out/台账-" + date + ".xlsx",
		AppendedRows: rows,
		Status:       status,
		Duration:     1500 * time.Millisecond,
	}
}

func TestRepositoryCreateAndGet(t *testing.T) {
	repo := newTestRepo(t)

	rec := record("run-1", "ledger-daily", "20250111", StatusSucceeded, 5)
	require.NoError(t, repo.Create(rec))

	got, err := repo.GetByID("run-1")
	require.NoError(t, err)
	assert.Equal(t, "ledger-daily", got.TemplateID)
	assert.Equal(t, "20250111", got.TargetDate)
	assert.Equal(t, 5, got.AppendedRows)
	assert.Equal(t, StatusSucceeded, got.Status)
	assert.Equal(t, 1500*time.Millisecond, got.Duration)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestRepositoryGetMissing(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.GetByID("nope")
	assert.Error(t, err)
}

func TestRepositoryList(t *testing.T) {
	repo := newTestRepo(t)

	require.NoError(t, repo.Create(record("run-1", "ledger-daily", "20250109", StatusSucceeded, 3)))
	require.NoError(t, repo.Create(record("run-2", "ledger-daily", "20250110", StatusNoOp, 0)))
	require.NoError(t, repo.Create(record("run-3", "ledger-daily", "20250111", StatusFailed, 0)))

	all, err := repo.List(0)
	require.NoError(t, err)
	require.Len(t, all, 3)

	limited, err := repo.List(2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestExportCSV(t *testing.T) {
	records := []*RunRecord{
		record("run-1", "ledger-daily", "20250111", StatusSucceeded, 5),
	}
	records[0].DurationMS = 1500
	records[0].CreatedAt = time.Date(2025, 1, 11, 18, 0, 0, 0, time.UTC)

	var buf bytes.Buffer
	require.NoError(t, ExportCSV(&buf, records))

	out := buf.String()
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "run_id")
	assert.Contains(t, lines[1], "run-1")
	assert.Contains(t, lines[1], "20250111")
	assert.Contains(t, lines[1], "succeeded")
}
