package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/acadops/tuition-api/internal/models"
)

// ClassRepository reads the class catalog and its weekly schedule rules.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository constructs a class repository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

// FindByID fetches a class with its schedule rules hydrated.
func (r *ClassRepository) FindByID(ctx context.Context, id string) (*models.Class, error) {
	const query = `SELECT id, name, color, monthly_fee, sessions_per_month, active, created_at, updated_at
FROM classes WHERE id = $1`
	var class models.Class
	if err := r.db.GetContext(ctx, &class, query, id); err != nil {
		return nil, err
	}
	rules, err := r.listRules(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	class.Rules = rules[id]
	return &class, nil
}

// ListByIDs fetches multiple classes with rules in two queries.
func (r *ClassRepository) ListByIDs(ctx context.Context, ids []string) ([]models.Class, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	const query = `SELECT id, name, color, monthly_fee, sessions_per_month, active, created_at, updated_at
FROM classes WHERE id = ANY($1) ORDER BY name ASC`
	var classes []models.Class
	if err := r.db.SelectContext(ctx, &classes, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	rules, err := r.listRules(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range classes {
		classes[i].Rules = rules[classes[i].ID]
	}
	return classes, nil
}

func (r *ClassRepository) listRules(ctx context.Context, classIDs []string) (map[string][]models.ScheduleRule, error) {
	const query = `SELECT id, class_id, day_of_week, start_time, end_time
FROM schedule_rules WHERE class_id = ANY($1) ORDER BY class_id, day_of_week`
	var rules []models.ScheduleRule
	if err := r.db.SelectContext(ctx, &rules, query, pq.Array(classIDs)); err != nil {
		return nil, fmt.Errorf("list schedule rules: %w", err)
	}
	byClass := make(map[string][]models.ScheduleRule, len(classIDs))
	for _, rule := range rules {
		byClass[rule.ClassID] = append(byClass[rule.ClassID], rule)
	}
	return byClass, nil
}
