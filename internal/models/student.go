package models

import "time"

// Student is a roster entry; creation and profile management live elsewhere.
type Student struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// EnrollmentStatus tracks membership lifecycle.
type EnrollmentStatus string

const (
	EnrollmentStatusActive EnrollmentStatus = "ACTIVE"
	EnrollmentStatusLeft   EnrollmentStatus = "LEFT"
)

// Enrollment links a student to a class; selections are validated against it.
type Enrollment struct {
	ID        string           `db:"id" json:"id"`
	StudentID string           `db:"student_id" json:"student_id"`
	ClassID   string           `db:"class_id" json:"class_id"`
	Status    EnrollmentStatus `db:"status" json:"status"`
	JoinedAt  time.Time        `db:"joined_at" json:"joined_at"`
	LeftAt    *time.Time       `db:"left_at" json:"left_at,omitempty"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
