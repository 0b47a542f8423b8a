package profile

import (
	"errors"
	"time"
)

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrEmailTaken      = errors.New("email already registered")
)

type Role string

const (
	RoleStudent Role = "student"
	RoleCompany Role = "company"
	RoleAdmin   Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleCompany, RoleAdmin:
		return true
	}
	return false
}

// StudentDetails only exists on profiles with RoleStudent.
type StudentDetails struct {
	University     string  `json:"university"`
	Degree         string  `json:"degree"`
	GraduationYear int     `json:"graduation_year,omitempty"`
	ResumeURL      *string `json:"resume_url"`
}

// CompanyDetails only exists on profiles with RoleCompany.
type CompanyDetails struct {
	CompanyName     string `json:"company_name"`
	CompanyIndustry string `json:"company_industry"`
	CompanySize     string `json:"company_size"`
	Website         string `json:"website"`
}

type Profile struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	Role      Role       `json:"role"`
	FullName  string     `json:"full_name"`
	AvatarURL *string    `json:"avatar_url"`
	Bio       *string    `json:"bio"`
	Location  *string    `json:"location"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`

	Student *StudentDetails `json:"student,omitempty"`
	Company *CompanyDetails `json:"company,omitempty"`

	EmailVerified      bool   `json:"email_verified"`
	CreatedAtHumanized string `json:"created_at_humanized,omitempty"`
}

func (p Profile) IsAdmin() bool   { return p.Role == RoleAdmin }
func (p Profile) IsStudent() bool { return p.Role == RoleStudent }
func (p Profile) IsCompany() bool { return p.Role == RoleCompany }

// CanPostInternships reports whether the profile may create and manage postings.
func (p Profile) CanPostInternships() bool {
	return p.Role == RoleCompany || p.Role == RoleAdmin
}

// CanApply reports whether the profile may submit applications.
func (p Profile) CanApply() bool {
	return p.Role == RoleStudent
}

// ResumeURL returns the student resume URL and whether one is set.
// Non-student profiles never have one.
func (p Profile) ResumeURL() (string, bool) {
	if p.Student == nil || p.Student.ResumeURL == nil || *p.Student.ResumeURL == "" {
		return "", false
	}
	return *p.Student.ResumeURL, true
}

// DisplayName is the company name for companies, the full name otherwise.
func (p Profile) DisplayName() string {
	if p.Company != nil && p.Company.CompanyName != "" {
		return p.Company.CompanyName
	}
	return p.FullName
}
