package service

import (
	"sort"
	"time"

	"github.com/acadops/tuition-api/internal/models"
	appErrors "github.com/acadops/tuition-api/pkg/errors"
)

// ToggleOutcome names what a toggle call did.
type ToggleOutcome string

const (
	ToggleAdditionRemoved ToggleOutcome = "ADDITION_REMOVED"
	ToggleSuppressed      ToggleOutcome = "SUPPRESSED"
	ToggleRestored        ToggleOutcome = "RESTORED"
	ToggleAdded           ToggleOutcome = "ADDED"
)

// Overrides carries the operator's manual edits for one planning session.
// It is an explicit value passed into and returned from every orchestrator
// call; nothing here lives in package state. Excluded suppresses generated
// sessions, Added maps makeup dates onto a class. A date lives in at most one
// of the two sets.
type Overrides struct {
	Excluded map[string]bool   `json:"excluded"`
	Added    map[string]string `json:"added"`
}

// NewOverrides returns an empty override set.
func NewOverrides() *Overrides {
	return &Overrides{
		Excluded: make(map[string]bool),
		Added:    make(map[string]string),
	}
}

// Reset drops all manual edits. Called on billing-period change.
func (o *Overrides) Reset() {
	o.Excluded = make(map[string]bool)
	o.Added = make(map[string]string)
}

// Toggle applies one operator edit against the last-generated segments.
// Priority order: undo a manual addition, then flip a generated session
// between scheduled and excluded, then record a new manual addition. Closure
// dates are never toggleable. Toggling never triggers regeneration.
func (o *Overrides) Toggle(date time.Time, classID string, segments []models.ClassSessionSegment) (ToggleOutcome, error) {
	key := models.DateKey(date)

	if _, ok := o.Added[key]; ok {
		delete(o.Added, key)
		return ToggleAdditionRemoved, nil
	}

	for i := range segments {
		for _, session := range segments[i].Sessions {
			if models.DateKey(session.Date) != key {
				continue
			}
			if session.Status == models.SessionClosure {
				return "", appErrors.Clone(appErrors.ErrValidation, "closure dates cannot be toggled")
			}
			if o.Excluded[key] {
				delete(o.Excluded, key)
				return ToggleRestored, nil
			}
			o.Excluded[key] = true
			return ToggleSuppressed, nil
		}
	}

	target := classID
	if target == "" {
		if len(segments) != 1 {
			return "", appErrors.Clone(appErrors.ErrValidation, "classId is required to add a makeup date")
		}
		target = segments[0].ClassID
	}
	o.Added[key] = target
	return ToggleAdded, nil
}

// ExcludedKeys returns the suppressed date keys in ascending order.
func (o *Overrides) ExcludedKeys() []string {
	keys := make([]string, 0, len(o.Excluded))
	for key := range o.Excluded {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// applyOverrides layers the override sets on top of generated segments,
// returning fresh copies. Generated sessions in the excluded set flip to
// excluded status; added dates become synthetic sessions of their class.
func applyOverrides(segments []models.ClassSessionSegment, o *Overrides) []models.ClassSessionSegment {
	if o == nil {
		return segments
	}
	out := make([]models.ClassSessionSegment, len(segments))
	for i, segment := range segments {
		applied := segment
		applied.Sessions = make([]models.SessionRecord, 0, len(segment.Sessions)+len(o.Added))
		generated := make(map[string]bool, len(segment.Sessions))
		for _, session := range segment.Sessions {
			generated[models.DateKey(session.Date)] = true
			if session.Status == models.SessionScheduled && o.Excluded[models.DateKey(session.Date)] {
				session.Status = models.SessionExcluded
			}
			applied.Sessions = append(applied.Sessions, session)
		}
		for key, targetClass := range o.Added {
			if targetClass != segment.ClassID {
				continue
			}
			// A regeneration may have grown the sequence over a date that was
			// recorded as a makeup beforehand. The generated session wins; the
			// date must not bill twice.
			if generated[key] {
				continue
			}
			date, err := time.Parse(models.DateLayout, key)
			if err != nil {
				continue
			}
			date = dateOnly(date)
			applied.Sessions = append(applied.Sessions, models.SessionRecord{
				Date:      date,
				DayOfWeek: models.DayOfWeekName(date.Weekday()),
				Status:    models.SessionAdded,
			})
		}
		sort.Slice(applied.Sessions, func(a, b int) bool {
			return applied.Sessions[a].Date.Before(applied.Sessions[b].Date)
		})
		out[i] = applied
	}
	return out
}
