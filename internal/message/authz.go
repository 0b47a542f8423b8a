package message

import "github.com/internmatch/internmatch/internal/profile"

// AppliedChecker reports whether a student has at least one application
// against one of a company's internships. Satisfied by
// application.Repository.
type AppliedChecker interface {
	HasStudentAppliedToCompany(studentID, companyID string) (bool, error)
}

// CanMessage decides whether sender may message recipient. Rules apply in
// order, first match wins:
//
//	admin sends         -> allow
//	admin receives      -> allow
//	company -> student  -> allow only if the student applied to the company
//	student -> company  -> allow only if the student applied to the company
//	anything else       -> deny
//
// The returned error carries the reason shown to the sender; it is nil
// whenever allowed is true.
func CanMessage(sender, recipient profile.Profile, applied AppliedChecker) (bool, error) {
	if sender.IsAdmin() {
		return true, nil
	}
	if recipient.IsAdmin() {
		return true, nil
	}
	if sender.IsCompany() {
		if !recipient.IsStudent() {
			return false, ErrCompanyNoApplicant
		}
		ok, err := applied.HasStudentAppliedToCompany(recipient.ID, sender.ID)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, ErrCompanyNoApplicant
		}
		return true, nil
	}
	if sender.IsStudent() {
		if !recipient.IsCompany() {
			return false, ErrStudentMustApplyFirst
		}
		ok, err := applied.HasStudentAppliedToCompany(sender.ID, recipient.ID)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, ErrStudentMustApplyFirst
		}
		return true, nil
	}
	return false, ErrMessagingNotAllowed
}
