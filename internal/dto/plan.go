package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/acadops/tuition-api/internal/models"
)

// StudentSelection is one (student, class) pair ticked in the planning UI.
type StudentSelection struct {
	StudentID string `json:"studentId" validate:"required"`
	ClassID   string `json:"classId" validate:"required"`
}

// DateOverride pins a manual start or end date for one class.
type DateOverride struct {
	ClassID string `json:"classId" validate:"required"`
	Date    string `json:"date" validate:"required,datetime=2006-01-02"`
}

// RegeneratePlanRequest rebuilds the session plan for the current selection.
// An empty PlanID opens a new planning session.
type RegeneratePlanRequest struct {
	PlanID         string             `json:"planId"`
	Year           int                `json:"year" validate:"required,min=2000,max=2100"`
	Month          int                `json:"month" validate:"required,min=1,max=12"`
	Selection      []StudentSelection `json:"selection" validate:"dive"`
	StartOverrides []DateOverride     `json:"startOverrides" validate:"omitempty,dive"`
	EndOverrides   []DateOverride     `json:"endOverrides" validate:"omitempty,dive"`
	AutoStart      []string           `json:"autoStart"`
	AutoEnd        []string           `json:"autoEnd"`
}

// ToggleDateRequest flips a single calendar date on the current plan.
// ClassID targets manual additions; it is required whenever the date has no
// generated session and more than one class is active.
type ToggleDateRequest struct {
	Date    string `json:"date" validate:"required,datetime=2006-01-02"`
	ClassID string `json:"classId"`
}

// CommitPlanRequest finalises the plan into the tuition ledger.
type CommitPlanRequest struct {
	PlanID string `json:"planId" validate:"required"`
}

// StudentFee is the recomputed amount owed by one student for the period.
type StudentFee struct {
	StudentID   string          `json:"studentId"`
	StudentName string          `json:"studentName"`
	Sessions    int             `json:"sessions"`
	Total       decimal.Decimal `json:"total"`
}

// FeeSummary aggregates the plan-wide fee picture.
type FeeSummary struct {
	Students   []StudentFee    `json:"students"`
	GrandTotal decimal.Decimal `json:"grandTotal"`
}

// PlanResponse is the orchestrator's view of one planning session.
// Stale marks a superseded regeneration whose output was discarded.
type PlanResponse struct {
	PlanID   string                       `json:"planId"`
	Version  uint64                       `json:"version"`
	Year     int                          `json:"year"`
	Month    int                          `json:"month"`
	Segments []models.ClassSessionSegment `json:"segments"`
	Summary  FeeSummary                   `json:"summary"`
	Stale    bool                         `json:"stale,omitempty"`
	ScrollTo *time.Time                   `json:"scrollTo,omitempty"`
	Excluded []string                     `json:"excludedDates"`
	Added    map[string]string            `json:"addedDates"`
}

// CommitResult reports idempotent commit outcome counts.
type CommitResult struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
}
