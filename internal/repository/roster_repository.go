package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/acadops/tuition-api/internal/models"
)

// RosterRepository validates student-class memberships.
type RosterRepository struct {
	db *sqlx.DB
}

// NewRosterRepository constructs a roster repository.
func NewRosterRepository(db *sqlx.DB) *RosterRepository {
	return &RosterRepository{db: db}
}

// IsEnrolled reports whether the student has an active enrollment in the class.
func (r *RosterRepository) IsEnrolled(ctx context.Context, studentID, classID string) (bool, error) {
	const query = `SELECT EXISTS (
SELECT 1 FROM enrollments WHERE student_id = $1 AND class_id = $2 AND status = $3)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, studentID, classID, models.EnrollmentStatusActive); err != nil {
		return false, fmt.Errorf("check enrollment: %w", err)
	}
	return exists, nil
}

// FindStudent fetches a roster entry used to label plans.
func (r *RosterRepository) FindStudent(ctx context.Context, id string) (*models.Student, error) {
	const query = `SELECT id, name, active, created_at FROM students WHERE id = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}
