package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/acadops/tuition-api/internal/models"
)

// ClosureRepository reads the academy closure calendar.
type ClosureRepository struct {
	db *sqlx.DB
}

// NewClosureRepository constructs a closure repository.
func NewClosureRepository(db *sqlx.DB) *ClosureRepository {
	return &ClosureRepository{db: db}
}

// ListInRange returns closures affecting the given class between from and to
// inclusive. Academy-wide closures (class_id IS NULL) are always included.
func (r *ClosureRepository) ListInRange(ctx context.Context, classID string, from, to time.Time) ([]models.ClosureDay, error) {
	const query = `SELECT id, closure_date, reason, class_id, created_at
FROM closure_days
WHERE closure_date BETWEEN $1 AND $2 AND (class_id IS NULL OR class_id = $3)
ORDER BY closure_date ASC`
	var closures []models.ClosureDay
	if err := r.db.SelectContext(ctx, &closures, query, from, to, classID); err != nil {
		return nil, fmt.Errorf("list closure days: %w", err)
	}
	return closures, nil
}
