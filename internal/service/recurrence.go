package service

import (
	"time"

	"github.com/acadops/tuition-api/internal/models"
)

// defaultScanHorizonDays caps the forward scan at roughly two years so a rule
// set that can never terminate does not spin forever.
const defaultScanHorizonDays = 731

// recurrenceInput drives one generation run for a single class.
// Exactly one termination mode applies: EndDate when set, TargetCount otherwise.
type recurrenceInput struct {
	StartDate   time.Time
	Weekdays    map[time.Weekday]bool
	Closures    map[string]string // date key -> closure reason
	TargetCount int
	EndDate     *time.Time
	HorizonDays int
}

// generateSessions scans forward day by day from StartDate and emits one
// record per qualifying weekday. Closure matches are emitted with closure
// status and never count toward TargetCount.
func generateSessions(in recurrenceInput) []models.SessionRecord {
	if len(in.Weekdays) == 0 {
		return nil
	}
	// Count mode with a non-positive target would otherwise scan the whole
	// horizon emitting sessions no one asked for.
	if in.EndDate == nil && in.TargetCount <= 0 {
		return nil
	}
	horizon := in.HorizonDays
	if horizon <= 0 {
		horizon = defaultScanHorizonDays
	}

	start := dateOnly(in.StartDate)
	var end time.Time
	if in.EndDate != nil {
		end = dateOnly(*in.EndDate)
	}

	var sessions []models.SessionRecord
	scheduled := 0
	for offset := 0; offset < horizon; offset++ {
		day := start.AddDate(0, 0, offset)
		if in.EndDate != nil && day.After(end) {
			break
		}
		if !in.Weekdays[day.Weekday()] {
			continue
		}

		if reason, closed := in.Closures[models.DateKey(day)]; closed {
			sessions = append(sessions, models.SessionRecord{
				Date:          day,
				DayOfWeek:     models.DayOfWeekName(day.Weekday()),
				Status:        models.SessionClosure,
				ClosureReason: reason,
			})
			continue
		}

		sessions = append(sessions, models.SessionRecord{
			Date:      day,
			DayOfWeek: models.DayOfWeekName(day.Weekday()),
			Status:    models.SessionScheduled,
		})
		scheduled++
		if in.EndDate == nil && in.TargetCount > 0 && scheduled >= in.TargetCount {
			break
		}
	}
	return sessions
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
