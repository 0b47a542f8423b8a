package internship

import (
	"errors"
	"time"
)

var ErrInternshipNotFound = errors.New("internship not found")

type Status string

const (
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
	StatusDraft  Status = "draft"
)

func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusClosed, StatusDraft:
		return true
	}
	return false
}

type Type string

const (
	TypeFullTime Type = "full-time"
	TypePartTime Type = "part-time"
)

func (t Type) Valid() bool {
	return t == TypeFullTime || t == TypePartTime
}

type Internship struct {
	ID           string     `json:"id"`
	CompanyID    string     `json:"company_id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Requirements string     `json:"requirements"`
	Location     string     `json:"location"`
	IsRemote     bool       `json:"is_remote"`
	Type         Type       `json:"type"`
	Duration     string     `json:"duration"`
	Stipend      *string    `json:"stipend"`
	Deadline     *time.Time `json:"deadline"`
	Skills       string     `json:"-"`
	Slug         string     `json:"slug"`
	Status       Status     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at"`

	SkillsArray        []string `json:"skills"`
	CompanyName        string   `json:"company_name,omitempty"`
	CreatedAtHumanized string   `json:"created_at_humanized,omitempty"`
}
