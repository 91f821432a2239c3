package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acadops/tuition-api/internal/models"
)

func TestRosterRepositoryIsEnrolled(t *testing.T) {
	db, mock, cleanup := newLedgerMock(t)
	defer cleanup()
	repo := NewRosterRepository(db)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("s1", "class-math", models.EnrollmentStatusActive).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	enrolled, err := repo.IsEnrolled(context.Background(), "s1", "class-math")
	require.NoError(t, err)
	assert.True(t, enrolled)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRosterRepositoryIsEnrolledFalse(t *testing.T) {
	db, mock, cleanup := newLedgerMock(t)
	defer cleanup()
	repo := NewRosterRepository(db)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("s1", "class-eng", models.EnrollmentStatusActive).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	enrolled, err := repo.IsEnrolled(context.Background(), "s1", "class-eng")
	require.NoError(t, err)
	assert.False(t, enrolled)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRosterRepositoryFindStudent(t *testing.T) {
	db, mock, cleanup := newLedgerMock(t)
	defer cleanup()
	repo := NewRosterRepository(db)

	mock.ExpectQuery("SELECT id, name, active, created_at FROM students").
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "active", "created_at"}).
			AddRow("s1", "Kim", true, time.Now()))

	student, err := repo.FindStudent(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "Kim", student.Name)
	assert.True(t, student.Active)
	assert.NoError(t, mock.ExpectationsWereMet())
}
