package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acadops/tuition-api/internal/models"
)

func mathClass() *models.Class {
	return &models.Class{
		ID:               "class-math",
		Name:             "Math A",
		Color:            "#4287f5",
		MonthlyFee:       180000,
		SessionsPerMonth: 8,
		Active:           true,
		Rules: []models.ScheduleRule{
			{ClassID: "class-math", DayOfWeek: "MONDAY", StartTime: "16:00", EndTime: "17:30"},
			{ClassID: "class-math", DayOfWeek: "THURSDAY", StartTime: "16:00", EndTime: "17:30"},
		},
	}
}

func TestBuildSegmentCountBased(t *testing.T) {
	class := mathClass()
	state := &models.SegmentState{StartDate: date(t, "2024-01-01")}

	segment := buildSegment(class, state, nil, 0)

	require.Len(t, segment.Sessions, 8)
	assert.Equal(t, date(t, "2024-01-01"), segment.StartDate)
	assert.Equal(t, segment.Sessions[7].Date, segment.EndDate)
	assert.Equal(t, 0, segment.ClosureDays)
	assert.True(t, segment.PerSessionFee.Equal(decimal.NewFromInt(22500)))
	// computed end feeds back into state for continuity display
	assert.Equal(t, segment.EndDate, state.EndDate)
}

func TestBuildSegmentManualEndSwitchesToDateMode(t *testing.T) {
	class := mathClass()
	state := &models.SegmentState{
		StartDate:       date(t, "2024-01-01"),
		EndDate:         date(t, "2024-01-11"),
		IsManualEndDate: true,
	}

	segment := buildSegment(class, state, nil, 0)

	// Mon/Thu between Jan 1 and Jan 11: 1, 4, 8, 11.
	require.Len(t, segment.Sessions, 4)
	assert.Equal(t, date(t, "2024-01-11"), segment.EndDate)
	// fee per session still derives from sessionsPerMonth, not the cut
	assert.True(t, segment.PerSessionFee.Equal(decimal.NewFromInt(22500)))
	// manual end must not be overwritten by the computed end
	assert.Equal(t, date(t, "2024-01-11"), state.EndDate)
}

func TestBuildSegmentCountsClosures(t *testing.T) {
	class := mathClass()
	state := &models.SegmentState{StartDate: date(t, "2024-01-01")}
	closures := []models.ClosureDay{
		{Date: date(t, "2024-01-04"), Reason: "foundation day"},
	}

	segment := buildSegment(class, state, closures, 0)

	assert.Equal(t, 1, segment.ClosureDays)
	scheduled := 0
	for _, session := range segment.Sessions {
		if session.Status == models.SessionScheduled {
			scheduled++
		}
	}
	assert.Equal(t, 8, scheduled)
}

func TestBuildSegmentIgnoresOtherClassClosures(t *testing.T) {
	class := mathClass()
	other := "class-eng"
	state := &models.SegmentState{StartDate: date(t, "2024-01-01")}
	closures := []models.ClosureDay{
		{Date: date(t, "2024-01-04"), Reason: "english only", ClassID: &other},
	}

	segment := buildSegment(class, state, closures, 0)
	assert.Equal(t, 0, segment.ClosureDays)
}

func TestPerSessionFeeZeroConfig(t *testing.T) {
	class := &models.Class{MonthlyFee: 100000}
	assert.True(t, perSessionFee(class).IsZero())
}

func TestBuildSegmentZeroSessionsPerMonth(t *testing.T) {
	class := mathClass()
	class.SessionsPerMonth = 0
	state := &models.SegmentState{StartDate: date(t, "2024-01-01")}

	segment := buildSegment(class, state, nil, 0)
	assert.Empty(t, segment.Sessions)
	assert.True(t, segment.PerSessionFee.IsZero())
}

func TestBuildSegmentEmptyRules(t *testing.T) {
	class := mathClass()
	class.Rules = nil
	state := &models.SegmentState{StartDate: date(t, "2024-01-01")}

	segment := buildSegment(class, state, nil, 0)
	assert.Empty(t, segment.Sessions)
	assert.Equal(t, segment.StartDate, segment.EndDate)
}
