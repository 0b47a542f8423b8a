package application

import (
	"errors"
	"time"
)

var (
	ErrApplicationNotFound = errors.New("application not found")
	// ErrMissingResume blocks submission when the student profile has no resume
	ErrMissingResume     = errors.New("student profile has no resume")
	ErrAlreadyApplied    = errors.New("student already applied to this internship")
	ErrInvalidTransition = errors.New("status transition not permitted")
	// ErrStaleUpdate means the row changed since the caller last read it
	ErrStaleUpdate = errors.New("application was modified concurrently")
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusReviewing Status = "reviewing"
	StatusAccepted  Status = "accepted"
	StatusRejected  Status = "rejected"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusReviewing, StatusAccepted, StatusRejected:
		return true
	}
	return false
}

// Terminal reports whether no transition away from the status is permitted.
func (s Status) Terminal() bool {
	return s == StatusAccepted || s == StatusRejected
}

// CanTransition is the whole lifecycle: pending -> reviewing -> accepted|rejected.
// A fresh application is always pending; accepted and rejected are terminal.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusPending:
		return to == StatusReviewing
	case StatusReviewing:
		return to == StatusAccepted || to == StatusRejected
	}
	return false
}

type Application struct {
	ID           string    `json:"id"`
	InternshipID string    `json:"internship_id"`
	StudentID    string    `json:"student_id"`
	CoverLetter  *string   `json:"cover_letter"`
	ResumeURL    *string   `json:"resume_url"`
	Status       Status    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	InternshipTitle    string `json:"internship_title,omitempty"`
	CompanyID          string `json:"company_id,omitempty"`
	CompanyName        string `json:"company_name,omitempty"`
	StudentName        string `json:"student_name,omitempty"`
	CreatedAtHumanized string `json:"created_at_humanized,omitempty"`
}
