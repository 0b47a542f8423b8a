package message

import (
	"errors"
	"time"
)

var (
	ErrMessageNotFound = errors.New("message not found")
	// ErrStudentMustApplyFirst and ErrCompanyNoApplicant carry the
	// coaching copy shown to the sender on a denied attempt.
	ErrStudentMustApplyFirst = errors.New("you can only message companies you have applied to. Apply to one of their internships first")
	ErrCompanyNoApplicant    = errors.New("you can only message students who applied to one of your internships")
	ErrMessagingNotAllowed   = errors.New("you are not allowed to message this user")
)

type RelatedTo string

const (
	RelatedToApplication RelatedTo = "application"
	RelatedToInternship  RelatedTo = "internship"
	RelatedToGeneral     RelatedTo = "general"
)

func (r RelatedTo) Valid() bool {
	switch r {
	case RelatedToApplication, RelatedToInternship, RelatedToGeneral:
		return true
	}
	return false
}

type Message struct {
	ID          string     `json:"id"`
	SenderID    string     `json:"sender_id"`
	RecipientID string     `json:"recipient_id"`
	Subject     string     `json:"subject"`
	MessageText string     `json:"message_text"`
	RelatedTo   RelatedTo  `json:"related_to"`
	RelatedID   *string    `json:"related_id"`
	IsRead      bool       `json:"is_read"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at"`

	SenderName         string `json:"sender_name,omitempty"`
	RecipientName      string `json:"recipient_name,omitempty"`
	CreatedAtHumanized string `json:"created_at_humanized,omitempty"`
}
