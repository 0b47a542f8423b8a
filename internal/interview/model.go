package interview

import (
	"errors"
	"time"
)

var ErrInterviewNotFound = errors.New("interview not found")

type MeetingType string

const (
	MeetingTypeVideo    MeetingType = "video"
	MeetingTypePhone    MeetingType = "phone"
	MeetingTypeInPerson MeetingType = "in-person"
)

func (m MeetingType) Valid() bool {
	switch m {
	case MeetingTypeVideo, MeetingTypePhone, MeetingTypeInPerson:
		return true
	}
	return false
}

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

type Interview struct {
	ID            string      `json:"id"`
	ApplicationID string      `json:"application_id"`
	StudentID     string      `json:"student_id"`
	CompanyID     string      `json:"company_id"`
	Title         string      `json:"title"`
	StartTime     time.Time   `json:"start_time"`
	EndTime       time.Time   `json:"end_time"`
	MeetingType   MeetingType `json:"meeting_type"`
	MeetingLink   *string     `json:"meeting_link"`
	Description   *string     `json:"description"`
	Status        Status      `json:"status"`
	CreatedAt     time.Time   `json:"created_at"`

	InternshipTitle    string `json:"internship_title,omitempty"`
	CompanyName        string `json:"company_name,omitempty"`
	StudentName        string `json:"student_name,omitempty"`
	StartTimeHumanized string `json:"start_time_humanized,omitempty"`
}
