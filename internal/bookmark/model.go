package bookmark

import (
	"time"
)

type Bookmark struct {
	ID           string    `json:"id"`
	StudentID    string    `json:"student_id"`
	InternshipID string    `json:"internship_id"`
	CreatedAt    time.Time `json:"created_at"`

	InternshipTitle    string `json:"internship_title,omitempty"`
	InternshipSlug     string `json:"internship_slug,omitempty"`
	CompanyName        string `json:"company_name,omitempty"`
	CreatedAtHumanized string `json:"created_at_humanized,omitempty"`
}
