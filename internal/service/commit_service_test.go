package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acadops/tuition-api/internal/models"
	appErrors "github.com/acadops/tuition-api/pkg/errors"
)

type stubLedgerWriter struct {
	written map[string]bool
	failOn  string
	inserts []models.TuitionLedgerRecord
}

func newStubLedgerWriter() *stubLedgerWriter {
	return &stubLedgerWriter{written: make(map[string]bool)}
}

func (s *stubLedgerWriter) Insert(ctx context.Context, record *models.TuitionLedgerRecord) (bool, error) {
	key := record.StudentID + "|" + record.ClassID + "|" + models.DateKey(record.SessionDate)
	if s.failOn == key {
		return false, errors.New("connection reset")
	}
	if s.written[key] {
		return false, nil
	}
	s.written[key] = true
	s.inserts = append(s.inserts, *record)
	return true, nil
}

func (s *stubLedgerWriter) ListByStudentPeriod(ctx context.Context, studentID string, period models.BillingPeriod) ([]models.TuitionLedgerRecord, error) {
	var out []models.TuitionLedgerRecord
	for _, record := range s.inserts {
		if record.StudentID != studentID {
			continue
		}
		if record.SessionDate.Before(period.Start()) || record.SessionDate.After(period.End()) {
			continue
		}
		out = append(out, record)
	}
	return out, nil
}

func commitPlans(t *testing.T) []models.StudentMonthlyPlan {
	t.Helper()
	class := mathClass()
	state := &models.SegmentState{StartDate: date(t, "2024-01-01")}
	segment := buildSegment(class, state, []models.ClosureDay{
		{ID: "c1", Date: date(t, "2024-01-04"), Reason: "holiday"},
	}, defaultScanHorizonDays)
	return []models.StudentMonthlyPlan{
		{
			StudentID:   "s1",
			StudentName: "Kim",
			ClassID:     class.ID,
			ClassName:   class.Name,
			Segments:    []models.ClassSessionSegment{*segment},
		},
	}
}

func TestCommitWritesBillableSessionsOnly(t *testing.T) {
	ledger := newStubLedgerWriter()
	svc := NewCommitService(ledger, nil, nil)

	plans := commitPlans(t)
	result, err := svc.Commit(context.Background(), plans)
	require.NoError(t, err)

	assert.Equal(t, 8, result.Created)
	assert.Equal(t, 0, result.Skipped)
	// the closure on Jan 4 produced a session record but never a ledger row
	assert.NotContains(t, ledger.written, "s1|class-math|2024-01-04")

	perSession := decimal.NewFromInt(22500)
	for _, record := range ledger.inserts {
		assert.True(t, record.Amount.Equal(perSession), "unexpected amount for %s", models.DateKey(record.SessionDate))
	}
}

func TestCommitIsIdempotent(t *testing.T) {
	ledger := newStubLedgerWriter()
	svc := NewCommitService(ledger, nil, nil)
	plans := commitPlans(t)

	first, err := svc.Commit(context.Background(), plans)
	require.NoError(t, err)
	assert.Equal(t, 8, first.Created)
	assert.Equal(t, 0, first.Skipped)

	second, err := svc.Commit(context.Background(), plans)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Created)
	assert.Equal(t, 8, second.Skipped)
	assert.Len(t, ledger.inserts, 8)
}

func TestCommitAbortsWithPartialCounts(t *testing.T) {
	ledger := newStubLedgerWriter()
	// the fourth billable date in the segment
	ledger.failOn = "s1|class-math|2024-01-15"
	svc := NewCommitService(ledger, nil, nil)

	result, err := svc.Commit(context.Background(), commitPlans(t))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrCommitFailed.Code, appErrors.FromError(err).Code)

	require.NotNil(t, result)
	assert.Equal(t, 3, result.Created)
	assert.Equal(t, 0, result.Skipped)

	// retry after the outage skips what landed and finishes the rest
	ledger.failOn = ""
	retry, err := svc.Commit(context.Background(), commitPlans(t))
	require.NoError(t, err)
	assert.Equal(t, 5, retry.Created)
	assert.Equal(t, 3, retry.Skipped)
}

func TestCommitExcludedSessionsNeverBill(t *testing.T) {
	ledger := newStubLedgerWriter()
	svc := NewCommitService(ledger, nil, nil)

	plans := commitPlans(t)
	sessions := plans[0].Segments[0].Sessions
	for i := range sessions {
		if models.DateKey(sessions[i].Date) == "2024-01-08" {
			sessions[i].Status = models.SessionExcluded
		}
	}

	result, err := svc.Commit(context.Background(), plans)
	require.NoError(t, err)
	assert.Equal(t, 7, result.Created)
	assert.NotContains(t, ledger.written, "s1|class-math|2024-01-08")
}

func TestCommitStatement(t *testing.T) {
	ledger := newStubLedgerWriter()
	svc := NewCommitService(ledger, nil, nil)

	_, err := svc.Commit(context.Background(), commitPlans(t))
	require.NoError(t, err)

	records, err := svc.Statement(context.Background(), "s1", models.BillingPeriod{Year: 2024, Month: 1})
	require.NoError(t, err)
	assert.Len(t, records, 8)

	records, err = svc.Statement(context.Background(), "s2", models.BillingPeriod{Year: 2024, Month: 1})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestCommitStatementInvalidPeriod(t *testing.T) {
	svc := NewCommitService(newStubLedgerWriter(), nil, nil)

	_, err := svc.Statement(context.Background(), "s1", models.BillingPeriod{Year: 2024, Month: 13})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCommitEmptyPlans(t *testing.T) {
	svc := NewCommitService(newStubLedgerWriter(), nil, nil)

	_, err := svc.Commit(context.Background(), nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrEmptySelection.Code, appErrors.FromError(err).Code)
}
