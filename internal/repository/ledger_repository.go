package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/acadops/tuition-api/internal/models"
)

// LedgerRepository persists committed tuition sessions. The table carries a
// unique constraint on (student_id, class_id, session_date) so inserts are
// idempotent at the storage layer.
type LedgerRepository struct {
	db *sqlx.DB
}

// NewLedgerRepository constructs a ledger repository.
func NewLedgerRepository(db *sqlx.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// LastCommittedDate returns the most recent committed session date for the
// class across all students, or nil when the class has never been billed.
func (r *LedgerRepository) LastCommittedDate(ctx context.Context, classID string) (*time.Time, error) {
	const query = `SELECT MAX(session_date) FROM tuition_ledger WHERE class_id = $1`
	var last sql.NullTime
	if err := r.db.GetContext(ctx, &last, query, classID); err != nil {
		return nil, fmt.Errorf("last committed date: %w", err)
	}
	if !last.Valid {
		return nil, nil
	}
	date := last.Time.UTC()
	return &date, nil
}

// Insert writes one ledger record, ignoring duplicates on the
// (student_id, class_id, session_date) key. It reports whether a row was
// actually created.
func (r *LedgerRepository) Insert(ctx context.Context, record *models.TuitionLedgerRecord) (bool, error) {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO tuition_ledger (id, student_id, class_id, session_date, amount, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (student_id, class_id, session_date) DO NOTHING`
	result, err := r.db.ExecContext(ctx, query,
		record.ID, record.StudentID, record.ClassID, record.SessionDate, record.Amount, record.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("insert ledger record: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert ledger record: %w", err)
	}
	return affected > 0, nil
}

// ListByStudentPeriod returns committed records for a student within a month.
func (r *LedgerRepository) ListByStudentPeriod(ctx context.Context, studentID string, period models.BillingPeriod) ([]models.TuitionLedgerRecord, error) {
	const query = `SELECT id, student_id, class_id, session_date, amount, created_at
FROM tuition_ledger
WHERE student_id = $1 AND session_date BETWEEN $2 AND $3
ORDER BY session_date ASC`
	var records []models.TuitionLedgerRecord
	if err := r.db.SelectContext(ctx, &records, query, studentID, period.Start(), period.End()); err != nil {
		return nil, fmt.Errorf("list ledger records: %w", err)
	}
	return records, nil
}
