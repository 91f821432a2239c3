package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassRepositoryListByIDs(t *testing.T) {
	db, mock, cleanup := newLedgerMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	now := time.Now()
	classRows := sqlmock.NewRows([]string{"id", "name", "color", "monthly_fee", "sessions_per_month", "active", "created_at", "updated_at"}).
		AddRow("class-math", "Math A", "#4287f5", int64(180000), 8, true, now, now)
	mock.ExpectQuery("SELECT id, name, color, monthly_fee, sessions_per_month, active, created_at, updated_at").
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(classRows)

	ruleRows := sqlmock.NewRows([]string{"id", "class_id", "day_of_week", "start_time", "end_time"}).
		AddRow("r1", "class-math", "MONDAY", "16:00", "17:30").
		AddRow("r2", "class-math", "THURSDAY", "16:00", "17:30")
	mock.ExpectQuery("SELECT id, class_id, day_of_week, start_time, end_time").
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(ruleRows)

	classes, err := repo.ListByIDs(context.Background(), []string{"class-math"})
	require.NoError(t, err)
	require.Len(t, classes, 1)
	assert.Equal(t, int64(180000), classes[0].MonthlyFee)
	require.Len(t, classes[0].Rules, 2)
	assert.Equal(t, "MONDAY", classes[0].Rules[0].DayOfWeek)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryListByIDsEmpty(t *testing.T) {
	db, mock, cleanup := newLedgerMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	classes, err := repo.ListByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, classes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newLedgerMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	now := time.Now()
	mock.ExpectQuery("SELECT id, name, color, monthly_fee, sessions_per_month, active, created_at, updated_at").
		WithArgs("class-math").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "color", "monthly_fee", "sessions_per_month", "active", "created_at", "updated_at"}).
			AddRow("class-math", "Math A", "#4287f5", int64(180000), 8, true, now, now))
	mock.ExpectQuery("SELECT id, class_id, day_of_week, start_time, end_time").
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "class_id", "day_of_week", "start_time", "end_time"}).
			AddRow("r1", "class-math", "MONDAY", "16:00", "17:30"))

	class, err := repo.FindByID(context.Background(), "class-math")
	require.NoError(t, err)
	assert.Equal(t, "Math A", class.Name)
	assert.Len(t, class.Rules, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}
