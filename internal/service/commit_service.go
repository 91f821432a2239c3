package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/acadops/tuition-api/internal/dto"
	"github.com/acadops/tuition-api/internal/models"
	appErrors "github.com/acadops/tuition-api/pkg/errors"
)

type ledgerStore interface {
	Insert(ctx context.Context, record *models.TuitionLedgerRecord) (bool, error)
	ListByStudentPeriod(ctx context.Context, studentID string, period models.BillingPeriod) ([]models.TuitionLedgerRecord, error)
}

// CommitService finalises a plan into the tuition ledger. Writes are
// idempotent per (student, class, date): a date that already has a record is
// counted as skipped and never overwritten. The batch is not transactional; a
// failed write aborts the remaining loop but keeps earlier records.
type CommitService struct {
	ledger  ledgerStore
	metrics *MetricsService
	logger  *zap.Logger
}

// NewCommitService wires the commit engine.
func NewCommitService(ledger ledgerStore, metrics *MetricsService, logger *zap.Logger) *CommitService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CommitService{ledger: ledger, metrics: metrics, logger: logger}
}

// Commit walks every student plan and writes one ledger record per billable
// session. The override overlay must already be applied to the plans; only
// scheduled and added sessions bill. Retrying after a failure is safe because
// committed dates are skipped on the next run.
func (s *CommitService) Commit(ctx context.Context, plans []models.StudentMonthlyPlan) (*dto.CommitResult, error) {
	result := &dto.CommitResult{}
	if len(plans) == 0 {
		return nil, appErrors.Clone(appErrors.ErrEmptySelection, "")
	}

	for _, plan := range plans {
		for _, segment := range plan.Segments {
			for _, session := range segment.Sessions {
				if !session.Status.Billable() {
					continue
				}
				record := &models.TuitionLedgerRecord{
					StudentID:   plan.StudentID,
					ClassID:     segment.ClassID,
					SessionDate: session.Date,
					Amount:      segment.PerSessionFee.Round(2),
				}
				created, err := s.ledger.Insert(ctx, record)
				if err != nil {
					s.metrics.RecordLedgerCommit(result.Created, result.Skipped)
					s.logger.Error("ledger commit aborted",
						zap.String("student_id", plan.StudentID),
						zap.String("class_id", segment.ClassID),
						zap.String("date", models.DateKey(session.Date)),
						zap.Int("created", result.Created),
						zap.Int("skipped", result.Skipped),
						zap.Error(err))
					return result, appErrors.Wrap(err, appErrors.ErrCommitFailed.Code, appErrors.ErrCommitFailed.Status, appErrors.ErrCommitFailed.Message)
				}
				if created {
					result.Created++
				} else {
					result.Skipped++
				}
			}
		}
	}

	s.metrics.RecordLedgerCommit(result.Created, result.Skipped)
	s.logger.Info("plan committed",
		zap.Int("created", result.Created),
		zap.Int("skipped", result.Skipped))
	return result, nil
}

// Statement returns a student's committed ledger records for one billing
// period, in session date order.
func (s *CommitService) Statement(ctx context.Context, studentID string, period models.BillingPeriod) ([]models.TuitionLedgerRecord, error) {
	if studentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student id is required")
	}
	if !period.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid billing period")
	}
	records, err := s.ledger.ListByStudentPeriod(ctx, studentID, period)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load ledger statement")
	}
	return records, nil
}
