package service

import (
	"github.com/shopspring/decimal"

	"github.com/acadops/tuition-api/internal/models"
)

// perSessionFee divides the monthly fee by the configured session count.
// Rounding happens only at the final per-student total, never here.
func perSessionFee(class *models.Class) decimal.Decimal {
	if class.SessionsPerMonth <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(class.MonthlyFee).Div(decimal.NewFromInt(int64(class.SessionsPerMonth)))
}

// buildSegment runs the recurrence generator for one class using its segment
// state. Termination is count-based (sessionsPerMonth) unless the operator
// pinned a manual end date, which switches to date-based termination without
// changing the per-session fee formula.
func buildSegment(class *models.Class, state *models.SegmentState, closures []models.ClosureDay, horizonDays int) *models.ClassSessionSegment {
	closureMap := make(map[string]string, len(closures))
	for _, closure := range closures {
		if closure.AppliesTo(class.ID) {
			closureMap[models.DateKey(closure.Date)] = closure.Reason
		}
	}

	in := recurrenceInput{
		StartDate:   state.StartDate,
		Weekdays:    class.Weekdays(),
		Closures:    closureMap,
		HorizonDays: horizonDays,
	}
	if state.IsManualEndDate {
		end := state.EndDate
		in.EndDate = &end
	} else {
		in.TargetCount = class.SessionsPerMonth
	}

	sessions := generateSessions(in)

	segment := &models.ClassSessionSegment{
		ClassID:       class.ID,
		ClassName:     class.Name,
		Color:         class.Color,
		StartDate:     dateOnly(state.StartDate),
		PerSessionFee: perSessionFee(class),
		Sessions:      sessions,
	}
	for _, session := range sessions {
		if session.Status == models.SessionClosure {
			segment.ClosureDays++
		}
	}
	if n := len(sessions); n > 0 {
		segment.EndDate = sessions[n-1].Date
	} else {
		segment.EndDate = segment.StartDate
	}

	if !state.IsManualEndDate {
		state.EndDate = segment.EndDate
	}
	return segment
}
