package service

import (
	"context"
	"time"

	"github.com/acadops/tuition-api/internal/models"
)

type ledgerContinuityReader interface {
	LastCommittedDate(ctx context.Context, classID string) (*time.Time, error)
}

// resolveContinuity determines where a class's next billing segment begins.
// A class that has been billed before continues the day after its most recent
// committed session; a first-ever plan starts at the first day of the period.
func resolveContinuity(ctx context.Context, ledger ledgerContinuityReader, classID string, period models.BillingPeriod) (time.Time, *time.Time, error) {
	last, err := ledger.LastCommittedDate(ctx, classID)
	if err != nil {
		return time.Time{}, nil, err
	}
	if last == nil {
		return period.Start(), nil, nil
	}
	prev := dateOnly(*last)
	return prev.AddDate(0, 0, 1), &prev, nil
}
