package models

import (
	"strings"
	"time"
)

// ScheduleRule is one weekly recurrence rule owned by a class.
type ScheduleRule struct {
	ID        string `db:"id" json:"id"`
	ClassID   string `db:"class_id" json:"class_id"`
	DayOfWeek string `db:"day_of_week" json:"day_of_week"`
	StartTime string `db:"start_time" json:"start_time"`
	EndTime   string `db:"end_time" json:"end_time"`
}

// Class is a catalog entry carrying the fee configuration used for billing.
type Class struct {
	ID               string         `db:"id" json:"id"`
	Name             string         `db:"name" json:"name"`
	Color            string         `db:"color" json:"color"`
	MonthlyFee       int64          `db:"monthly_fee" json:"monthly_fee"`
	SessionsPerMonth int            `db:"sessions_per_month" json:"sessions_per_month"`
	Active           bool           `db:"active" json:"active"`
	Rules            []ScheduleRule `db:"-" json:"schedule_rules,omitempty"`
	CreatedAt        time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at" json:"updated_at"`
}

// Weekdays returns the distinct time.Weekday values named by the class rules.
func (c *Class) Weekdays() map[time.Weekday]bool {
	days := make(map[time.Weekday]bool, len(c.Rules))
	for _, rule := range c.Rules {
		if day, ok := ParseDayOfWeek(rule.DayOfWeek); ok {
			days[day] = true
		}
	}
	return days
}

var dayNameIndex = map[string]time.Weekday{
	"MONDAY":    time.Monday,
	"TUESDAY":   time.Tuesday,
	"WEDNESDAY": time.Wednesday,
	"THURSDAY":  time.Thursday,
	"FRIDAY":    time.Friday,
	"SATURDAY":  time.Saturday,
	"SUNDAY":    time.Sunday,
}

var dayIndexName = map[time.Weekday]string{
	time.Monday:    "MONDAY",
	time.Tuesday:   "TUESDAY",
	time.Wednesday: "WEDNESDAY",
	time.Thursday:  "THURSDAY",
	time.Friday:    "FRIDAY",
	time.Saturday:  "SATURDAY",
	time.Sunday:    "SUNDAY",
}

// ParseDayOfWeek maps MONDAY..SUNDAY onto time.Weekday.
func ParseDayOfWeek(name string) (time.Weekday, bool) {
	day, ok := dayNameIndex[strings.ToUpper(strings.TrimSpace(name))]
	return day, ok
}

// DayOfWeekName is the inverse of ParseDayOfWeek.
func DayOfWeekName(day time.Weekday) string {
	return dayIndexName[day]
}
