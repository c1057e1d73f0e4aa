package history

import (
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Repository handles run-history database operations
type Repository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewRepository creates a new run-history repository
func NewRepository(db *sql.DB, logger *zap.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new run record
func (r *Repository) Create(record *RunRecord) error {
	query := `
		INSERT INTO run_history (
			run_id, template_id, target_date, output_path,
			appended_rows, status, error, duration_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		record.ID,
		record.TemplateID,
		record.TargetDate,
		record.OutputPath,
		record.AppendedRows,
		record.Status,
		record.Error,
		record.Duration.Milliseconds(),
	)
	if err != nil {
		r.logger.Error("Failed to create run record", zap.Error(err))
		return fmt.Errorf("failed to create run record: %w", err)
	}

	record.DurationMS = record.Duration.Milliseconds()
	return nil
}

// List returns the most recent runs, newest first. A limit of zero or less
// means no limit.
func (r *Repository) List(limit int) ([]*RunRecord, error) {
	query := `
		SELECT run_id, template_id, target_date, output_path,
			appended_rows, status, error, duration_ms, created_at
		FROM run_history
		ORDER BY created_at DESC, run_id DESC
	`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		r.logger.Error("Failed to list run records", zap.Error(err))
		return nil, fmt.Errorf("failed to list run records: %w", err)
	}
	defer rows.Close()

	var records []*RunRecord
	for rows.Next() {
		var record RunRecord
		err := rows.Scan(
			&record.ID,
			&record.TemplateID,
			&record.TargetDate,
			&record.OutputPath,
			&record.AppendedRows,
			&record.Status,
			&record.Error,
			&record.DurationMS,
			&record.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run record: %w", err)
		}
		record.Duration = time.Duration(record.DurationMS) * time.Millisecond
		records = append(records, &record)
	}

	return records, rows.Err()
}

// GetByID returns one run record, or sql.ErrNoRows wrapped when absent.
func (r *Repository) GetByID(runID string) (*RunRecord, error) {
	query := `
		SELECT run_id, template_id, target_date, output_path,
			appended_rows, status, error, duration_ms, created_at
		FROM run_history
		WHERE run_id = ?
	`

	var record RunRecord
	err := r.db.QueryRow(query, runID).Scan(
		&record.ID,
		&record.TemplateID,
		&record.TargetDate,
		&record.OutputPath,
		&record.AppendedRows,
		&record.Status,
		&record.Error,
		&record.DurationMS,
		&record.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get run record %s: %w", runID, err)
	}
	record.Duration = time.Duration(record.DurationMS) * time.Millisecond
	return &record, nil
}
