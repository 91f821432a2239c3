package models

import "time"

// ClosureDay marks a calendar date excluded from session generation,
// either academy-wide (ClassID nil) or for a single class.
type ClosureDay struct {
	ID        string    `db:"id" json:"id"`
	Date      time.Time `db:"closure_date" json:"date"`
	Reason    string    `db:"reason" json:"reason"`
	ClassID   *string   `db:"class_id" json:"class_id,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// AppliesTo reports whether the closure blocks generation for the given class.
func (d ClosureDay) AppliesTo(classID string) bool {
	return d.ClassID == nil || *d.ClassID == classID
}
