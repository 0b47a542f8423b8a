package application

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/internmatch/internmatch/internal/email"
	"github.com/internmatch/internmatch/internal/internship"
	"github.com/internmatch/internmatch/internal/middleware"
	"github.com/internmatch/internmatch/internal/notification"
	"github.com/internmatch/internmatch/internal/profile"
	"github.com/internmatch/internmatch/internal/server"

	"github.com/gorilla/mux"
	"github.com/microcosm-cc/bluemonday"
	"github.com/segmentio/ksuid"
)

var coverLetterPolicy = bluemonday.UGCPolicy()

// SubmitApplicationHandler creates a pending application. A resume on the
// student profile is a hard precondition; the resume URL is copied onto the
// application at submission time.
func SubmitApplicationHandler(svr server.Server, appRepo *Repository, profileRepo *profile.Repository, internshipRepo *internship.Repository, notificationRepo *notification.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := middleware.GetUserFromJWT(r, svr.SessionStore, svr.GetJWTSigningKey())
		if err != nil {
			svr.JSON(w, http.StatusUnauthorized, nil)
			return
		}
		if !claims.IsStudent() {
			svr.JSON(w, http.StatusForbidden, map[string]string{"error": "only students can apply to internships"})
			return
		}
		req := &struct {
			InternshipID string `json:"internship_id"`
			CoverLetter  string `json:"cover_letter"`
		}{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.InternshipID == "" {
			svr.JSON(w, http.StatusBadRequest, nil)
			return
		}
		student, err := profileRepo.ProfileByID(claims.UserID)
		if err != nil {
			svr.Log(err, "unable to load student profile for application")
			svr.JSON(w, http.StatusInternalServerError, nil)
			return
		}
		resumeURL, ok := student.ResumeURL()
		if !ok {
			// no application row is created on this path
			svr.JSON(w, http.StatusUnprocessableEntity, map[string]string{
				"error":  ErrMissingResume.Error(),
				"detail": "Upload a resume to your profile before applying.",
				"action": fmt.Sprintf("/profile/%s", student.ID),
			})
			return
		}
		posting, err := internshipRepo.InternshipByID(req.InternshipID)
		if err == internship.ErrInternshipNotFound {
			svr.JSON(w, http.StatusNotFound, nil)
			return
		}
		if err != nil {
			svr.Log(err, "unable to load internship for application")
			svr.JSON(w, http.StatusInternalServerError, nil)
			return
		}
		if posting.Status != internship.StatusOpen {
			svr.JSON(w, http.StatusConflict, map[string]string{"error": "internship is not open for applications"})
			return
		}
		k, err := ksuid.NewRandom()
		if err != nil {
			svr.Log(err, "unable to generate application ID")
			svr.JSON(w, http.StatusInternalServerError, nil)
			return
		}
		a := Application{
			ID:           k.String(),
			InternshipID: posting.ID,
			StudentID:    student.ID,
			ResumeURL:    &resumeURL,
		}
		if req.CoverLetter != "" {
			sanitized := coverLetterPolicy.Sanitize(req.CoverLetter)
			a.CoverLetter = &sanitized
		}
		if err := appRepo.CreateApplication(a); err != nil {
			if err == ErrAlreadyApplied {
				svr.JSON(w, http.StatusConflict, map[string]string{"error": "you already applied to this internship"})
				return
			}
			svr.Log(err, "unable to create application")
			svr.JSON(w, http.StatusInternalServerError, nil)
			return
		}
		emitNotification(svr, notificationRepo, notification.Notification{
			UserID:    posting.CompanyID,
			Type:      notification.TypeApplication,
			RelatedID: &a.ID,
			Title:     "New application received",
			Content:   fmt.Sprintf("%s applied to %s", student.FullName, posting.Title),
		})
		created, err := appRepo.ApplicationByID(a.ID)
		if err != nil {
			svr.Log(err, "unable to reload application after create")
			svr.JSON(w, http.StatusInternalServerError, nil)
			return
		}
		svr.JSON(w, http.StatusCreated, created)
	}
}

// TransitionApplicationHandler moves an application along
// pending -> reviewing -> accepted|rejected. The caller sends the updated_at
// it last read; a mismatch means someone else got there first.
func TransitionApplicationHandler(svr server.Server, appRepo *Repository, profileRepo *profile.Repository, notificationRepo *notification.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := middleware.GetUserFromJWT(r, svr.SessionStore, svr.GetJWTSigningKey())
		if err != nil {
			svr.JSON(w, http.StatusUnauthorized, nil)
			return
		}
		vars := mux.Vars(r)
		req := &struct {
			Status    string    `json:"status"`
			UpdatedAt time.Time `json:"updated_at"`
		}{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			svr.JSON(w, http.StatusBadRequest, nil)
			return
		}
		to := Status(req.Status)
		if !to.Valid() {
			svr.JSON(w, http.StatusBadRequest, map[string]string{"error": "unknown status"})
			return
		}
		existing, err := appRepo.ApplicationByID(vars["id"])
		if err == ErrApplicationNotFound {
			svr.JSON(w, http.StatusNotFound, nil)
			return
		}
		if err != nil {
			svr.Log(err, "unable to load application for transition")
			svr.JSON(w, http.StatusInternalServerError, nil)
			return
		}
		if existing.CompanyID != claims.UserID && !claims.IsAdmin() {
			svr.JSON(w, http.StatusForbidden, nil)
			return
		}
		if !CanTransition(existing.Status, to) {
			svr.JSON(w, http.StatusConflict, map[string]string{
				"error":  ErrInvalidTransition.Error(),
				"detail": fmt.Sprintf("cannot move application from %s to %s", existing.Status, to),
			})
			return
		}
		expected := existing.UpdatedAt
		if !req.UpdatedAt.IsZero() {
			expected = req.UpdatedAt
		}
		if err := appRepo.UpdateStatus(existing.ID, to, expected); err != nil {
			switch err {
			case ErrStaleUpdate:
				svr.JSON(w, http.StatusConflict, map[string]string{"error": "application was modified by someone else, reload and retry"})
			case ErrApplicationNotFound:
				svr.JSON(w, http.StatusNotFound, nil)
			default:
				svr.Log(err, "unable to update application status")
				svr.JSON(w, http.StatusInternalServerError, nil)
			}
			return
		}
		emitNotification(svr, notificationRepo, notification.Notification{
			UserID:    existing.StudentID,
			Type:      notification.TypeStatusChange,
			RelatedID: &existing.ID,
			Title:     fmt.Sprintf("Your application is now %s", to),
			Content:   fmt.Sprintf("Your application for %s at %s moved to %s", existing.InternshipTitle, existing.CompanyName, to),
		})
		if student, err := profileRepo.ProfileByID(existing.StudentID); err == nil {
			go SendStatusEmail(svr, student.Email, student.FullName, existing.InternshipTitle, existing.CompanyName, to)
		} else {
			svr.Log(err, "unable to load student for status email")
		}
		updated, err := appRepo.ApplicationByID(existing.ID)
		if err != nil {
			svr.Log(err, "unable to reload application after transition")
			svr.JSON(w, http.StatusInternalServerError, nil)
			return
		}
		svr.JSON(w, http.StatusOK, updated)
	}
}

func ListMyApplicationsHandler(svr server.Server, appRepo *Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := middleware.GetUserFromJWT(r, svr.SessionStore, svr.GetJWTSigningKey())
		if err != nil {
			svr.JSON(w, http.StatusUnauthorized, nil)
			return
		}
		var applications []Application
		switch {
		case claims.IsStudent():
			applications, err = appRepo.ApplicationsByStudentID(claims.UserID)
		case claims.IsCompany():
			applications, err = appRepo.ApplicationsByCompanyID(claims.UserID)
		default:
			svr.JSON(w, http.StatusForbidden, nil)
			return
		}
		if err != nil {
			svr.Log(err, "unable to list applications for "+claims.UserID)
			svr.JSON(w, http.StatusInternalServerError, nil)
			return
		}
		svr.JSON(w, http.StatusOK, map[string]interface{}{"applications": applications})
	}
}

func ListInternshipApplicationsHandler(svr server.Server, appRepo *Repository, internshipRepo *internship.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := middleware.GetUserFromJWT(r, svr.SessionStore, svr.GetJWTSigningKey())
		if err != nil {
			svr.JSON(w, http.StatusUnauthorized, nil)
			return
		}
		vars := mux.Vars(r)
		posting, err := internshipRepo.InternshipByID(vars["id"])
		if err == internship.ErrInternshipNotFound {
			svr.JSON(w, http.StatusNotFound, nil)
			return
		}
		if err != nil {
			svr.Log(err, "unable to load internship for applications listing")
			svr.JSON(w, http.StatusInternalServerError, nil)
			return
		}
		if posting.CompanyID != claims.UserID && !claims.IsAdmin() {
			svr.JSON(w, http.StatusForbidden, nil)
			return
		}
		applications, err := appRepo.ApplicationsByInternshipID(posting.ID)
		if err != nil {
			svr.Log(err, "unable to list applications for internship "+posting.ID)
			svr.JSON(w, http.StatusInternalServerError, nil)
			return
		}
		svr.JSON(w, http.StatusOK, map[string]interface{}{"applications": applications})
	}
}

// DeleteApplicationHandler hard-deletes one application and notifies both
// affected parties.
func DeleteApplicationHandler(svr server.Server, appRepo *Repository, notificationRepo *notification.Repository) http.HandlerFunc {
	return middleware.AdminAuthenticatedMiddleware(
		svr.SessionStore,
		svr.GetJWTSigningKey(),
		func(w http.ResponseWriter, r *http.Request) {
			req := &struct {
				ID      string `json:"id"`
				Confirm bool   `json:"confirm"`
			}{}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				svr.JSON(w, http.StatusBadRequest, nil)
				return
			}
			if !req.Confirm {
				svr.JSON(w, http.StatusBadRequest, map[string]string{"error": "deletion must be explicitly confirmed"})
				return
			}
			existing, err := appRepo.ApplicationByID(req.ID)
			if err == ErrApplicationNotFound {
				svr.JSON(w, http.StatusNotFound, nil)
				return
			}
			if err != nil {
				svr.Log(err, "unable to load application for delete")
				svr.JSON(w, http.StatusInternalServerError, nil)
				return
			}
			if err := appRepo.DeleteApplicationByID(existing.ID); err != nil {
				svr.Log(err, "unable to delete application "+existing.ID)
				svr.JSON(w, http.StatusInternalServerError, nil)
				return
			}
			content := fmt.Sprintf("The application for %s was removed by an administrator", existing.InternshipTitle)
			emitNotification(svr, notificationRepo, notification.Notification{
				UserID:  existing.StudentID,
				Type:    notification.TypeStatusChange,
				Title:   "Application removed",
				Content: content,
			})
			emitNotification(svr, notificationRepo, notification.Notification{
				UserID:  existing.CompanyID,
				Type:    notification.TypeStatusChange,
				Title:   "Application removed",
				Content: content,
			})
			svr.JSON(w, http.StatusOK, nil)
		},
	)
}

func emitNotification(svr server.Server, notificationRepo *notification.Repository, n notification.Notification) {
	k, err := ksuid.NewRandom()
	if err != nil {
		svr.Log(err, "unable to generate notification ID")
		return
	}
	n.ID = k.String()
	if err := notificationRepo.CreateNotification(n); err != nil {
		svr.Log(err, "unable to emit notification to "+n.UserID)
	}
}

// SendStatusEmail is best-effort; a delivery failure never fails the
// transition that triggered it.
func SendStatusEmail(svr server.Server, to, studentName, internshipTitle, companyName string, status Status) {
	err := svr.GetEmail().SendEmail(
		email.Address{Name: svr.GetEmail().DefaultSenderName(), Email: svr.GetEmail().NoReplySenderAddress()},
		email.Address{Name: studentName, Email: to},
		email.Address{Email: svr.GetEmail().SupportSenderAddress()},
		fmt.Sprintf("Update on your application for %s", internshipTitle),
		fmt.Sprintf("Hi %s,\n\nYour application for %s at %s is now %s.\n\nSign in to %s to see the details.", studentName, internshipTitle, companyName, status, svr.GetConfig().SiteName),
	)
	if err != nil {
		svr.Log(err, "unable to send application status email")
	}
}
