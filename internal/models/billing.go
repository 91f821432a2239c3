package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the canonical key format for session dates.
const DateLayout = "2006-01-02"

// DateKey normalises a timestamp to its canonical date key.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

// BillingPeriod selects the (year, month) a plan is computed for.
type BillingPeriod struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

// Valid reports whether the period denotes a real calendar month.
func (p BillingPeriod) Valid() bool {
	return p.Year >= 2000 && p.Year <= 2100 && p.Month >= time.January && p.Month <= time.December
}

// Start returns the first day of the period at midnight UTC.
func (p BillingPeriod) Start() time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
}

// End returns the last day of the period at midnight UTC.
func (p BillingPeriod) End() time.Time {
	return p.Start().AddDate(0, 1, -1)
}

func (p BillingPeriod) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// SessionStatus classifies a generated or operator-edited session date.
type SessionStatus string

const (
	SessionScheduled SessionStatus = "SCHEDULED"
	SessionExcluded  SessionStatus = "EXCLUDED"
	SessionClosure   SessionStatus = "CLOSURE"
	SessionAdded     SessionStatus = "ADDED"
)

// Billable reports whether a session in this status produces a ledger record.
func (s SessionStatus) Billable() bool {
	return s == SessionScheduled || s == SessionAdded
}

// SessionRecord is one calendar date inside a class segment.
type SessionRecord struct {
	Date          time.Time     `json:"date"`
	DayOfWeek     string        `json:"day_of_week"`
	Status        SessionStatus `json:"status"`
	ClosureReason string        `json:"closure_reason,omitempty"`
}

// ClassSessionSegment is one class's computed block of sessions for a billing period.
type ClassSessionSegment struct {
	ClassID       string          `json:"class_id"`
	ClassName     string          `json:"class_name"`
	Color         string          `json:"color"`
	StartDate     time.Time       `json:"start_date"`
	EndDate       time.Time       `json:"end_date"`
	PerSessionFee decimal.Decimal `json:"per_session_fee"`
	ClosureDays   int             `json:"closure_days"`
	Sessions      []SessionRecord `json:"sessions"`
}

// BillableCount counts sessions that would produce ledger records.
func (s *ClassSessionSegment) BillableCount() int {
	count := 0
	for _, session := range s.Sessions {
		if session.Status.Billable() {
			count++
		}
	}
	return count
}

// SegmentState remembers per-class planning decisions between regenerations.
type SegmentState struct {
	StartDate         time.Time  `json:"start_date"`
	PreviousEndDate   *time.Time `json:"previous_end_date,omitempty"`
	IsManualStartDate bool       `json:"is_manual_start_date"`
	EndDate           time.Time  `json:"end_date"`
	IsManualEndDate   bool       `json:"is_manual_end_date"`
}

// ResetManual drops operator pins, reverting the class to automatic continuity.
func (s *SegmentState) ResetManual() {
	s.IsManualStartDate = false
	s.IsManualEndDate = false
}

// StudentMonthlyPlan is the per-student unit handed to the commit engine.
type StudentMonthlyPlan struct {
	StudentID   string                `json:"student_id"`
	StudentName string                `json:"student_name"`
	ClassID     string                `json:"class_id"`
	ClassName   string                `json:"class_name"`
	Segments    []ClassSessionSegment `json:"segments"`
}

// TuitionLedgerRecord is one committed billable session, keyed by
// (student, class, date) at the storage layer.
type TuitionLedgerRecord struct {
	ID          string          `db:"id" json:"id"`
	StudentID   string          `db:"student_id" json:"student_id"`
	ClassID     string          `db:"class_id" json:"class_id"`
	SessionDate time.Time       `db:"session_date" json:"session_date"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}
