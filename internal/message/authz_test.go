package message

import (
	"errors"
	"testing"

	"github.com/internmatch/internmatch/internal/profile"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAppliedChecker struct {
	applied map[string]bool
	err     error
}

func (s stubAppliedChecker) HasStudentAppliedToCompany(studentID, companyID string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	return s.applied[studentID+"/"+companyID], nil
}

func TestCanMessage(t *testing.T) {
	admin := profile.Profile{ID: "admin-1", Role: profile.RoleAdmin}
	student := profile.Profile{ID: "student-1", Role: profile.RoleStudent}
	otherStudent := profile.Profile{ID: "student-2", Role: profile.RoleStudent}
	company := profile.Profile{ID: "company-1", Role: profile.RoleCompany}
	otherCompany := profile.Profile{ID: "company-2", Role: profile.RoleCompany}

	// student-1 applied to an internship owned by company-1 and nobody else
	applied := stubAppliedChecker{applied: map[string]bool{
		"student-1/company-1": true,
	}}

	tests := []struct {
		name      string
		sender    profile.Profile
		recipient profile.Profile
		allowed   bool
		reason    error
	}{
		{"admin messages student", admin, student, true, nil},
		{"admin messages company", admin, company, true, nil},
		{"admin messages admin", admin, admin, true, nil},
		{"student messages admin", student, admin, true, nil},
		{"company messages admin", company, admin, true, nil},
		{"company messages its applicant", company, student, true, nil},
		{"company messages a student who never applied", company, otherStudent, false, ErrCompanyNoApplicant},
		{"other company messages the same student", otherCompany, student, false, ErrCompanyNoApplicant},
		{"company messages another company", company, otherCompany, false, ErrCompanyNoApplicant},
		{"student messages company it applied to", student, company, true, nil},
		{"student messages company it never applied to", student, otherCompany, false, ErrStudentMustApplyFirst},
		{"student messages another student", student, otherStudent, false, ErrStudentMustApplyFirst},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			allowed, err := CanMessage(tc.sender, tc.recipient, applied)
			assert.Equal(t, tc.allowed, allowed)
			if tc.reason != nil {
				assert.ErrorIs(t, err, tc.reason)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCanMessageUnknownRoleDenied(t *testing.T) {
	nobody := profile.Profile{ID: "x"}
	student := profile.Profile{ID: "student-1", Role: profile.RoleStudent}
	allowed, err := CanMessage(nobody, student, stubAppliedChecker{})
	assert.False(t, allowed)
	assert.ErrorIs(t, err, ErrMessagingNotAllowed)
}

func TestCanMessagePropagatesCheckerError(t *testing.T) {
	boom := errors.New("connection reset")
	student := profile.Profile{ID: "student-1", Role: profile.RoleStudent}
	company := profile.Profile{ID: "company-1", Role: profile.RoleCompany}

	allowed, err := CanMessage(student, company, stubAppliedChecker{err: boom})
	require.Error(t, err)
	assert.False(t, allowed)
	assert.ErrorIs(t, err, boom)
}

func TestCanMessageAdminBypassesChecker(t *testing.T) {
	admin := profile.Profile{ID: "admin-1", Role: profile.RoleAdmin}
	student := profile.Profile{ID: "student-1", Role: profile.RoleStudent}

	// the relationship lookup must never run for an admin sender
	allowed, err := CanMessage(admin, student, stubAppliedChecker{err: errors.New("must not be called")})
	assert.True(t, allowed)
	assert.NoError(t, err)
}
