package notification

import (
	"errors"
	"time"
)

var ErrNotificationNotFound = errors.New("notification not found")

// FeedCap caps the in-memory feed to the 10 most recent entries.
const FeedCap = 10

type Type string

const (
	TypeApplication        Type = "application"
	TypeMessage            Type = "message"
	TypeStatusChange       Type = "status_change"
	TypeInterviewScheduled Type = "interview_scheduled"
)

func (t Type) Valid() bool {
	switch t {
	case TypeApplication, TypeMessage, TypeStatusChange, TypeInterviewScheduled:
		return true
	}
	return false
}

type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Type      Type      `json:"type"`
	RelatedID *string   `json:"related_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`

	CreatedAtHumanized string `json:"created_at_humanized,omitempty"`
}
