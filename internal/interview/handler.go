package interview

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/internmatch/internmatch/internal/application"
	"github.com/internmatch/internmatch/internal/middleware"
	"github.com/internmatch/internmatch/internal/notification"
	"github.com/internmatch/internmatch/internal/server"

	"github.com/gorilla/mux"
	"github.com/microcosm-cc/bluemonday"
	"github.com/segmentio/ksuid"
)

var descriptionPolicy = bluemonday.StrictPolicy()

// ScheduleInterviewHandler creates an Interview against an application the
// caller's company owns. Scheduling pulls a pending application into
// reviewing; an application already in reviewing is left alone.
func ScheduleInterviewHandler(svr server.Server, ivRepo *Repository, appRepo *application.Repository, notificationRepo *notification.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := middleware.GetUserFromJWT(r, svr.SessionStore, svr.GetJWTSigningKey())
		if err != nil {
			svr.JSON(w, http.StatusUnauthorized, nil)
			return
		}
		if !claims.IsCompany() && !claims.IsAdmin() {
			svr.JSON(w, http.StatusForbidden, nil)
			return
		}
		req := &struct {
			ApplicationID string    `json:"application_id"`
			Title         string    `json:"title"`
			StartTime     time.Time `json:"start_time"`
			EndTime       time.Time `json:"end_time"`
			MeetingType   string    `json:"meeting_type"`
			MeetingLink   *string   `json:"meeting_link"`
			Description   *string   `json:"description"`
		}{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			svr.JSON(w, http.StatusBadRequest, nil)
			return
		}
		errs := map[string]string{}
		if req.ApplicationID == "" {
			errs["application_id"] = "application is required"
		}
		if req.Title == "" {
			errs["title"] = "title is required"
		}
		if req.StartTime.IsZero() {
			errs["start_time"] = "start time is required"
		}
		if req.EndTime.IsZero() || !req.EndTime.After(req.StartTime) {
			errs["end_time"] = "end time must be after start time"
		}
		meetingType := MeetingType(req.MeetingType)
		if !meetingType.Valid() {
			errs["meeting_type"] = "must be one of video, phone, in-person"
		}
		if meetingType == MeetingTypeVideo && (req.MeetingLink == nil || *req.MeetingLink == "") {
			errs["meeting_link"] = "meeting link is required for video interviews"
		}
		if len(errs) > 0 {
			svr.JSON(w, http.StatusBadRequest, map[string]interface{}{"errors": errs})
			return
		}
		app, err := appRepo.ApplicationByID(req.ApplicationID)
		if err == application.ErrApplicationNotFound {
			svr.JSON(w, http.StatusNotFound, nil)
			return
		}
		if err != nil {
			svr.Log(err, "unable to load application for interview")
			svr.JSON(w, http.StatusInternalServerError, nil)
			return
		}
		if app.CompanyID != claims.UserID && !claims.IsAdmin() {
			svr.JSON(w, http.StatusForbidden, nil)
			return
		}
		k, err := ksuid.NewRandom()
		if err != nil {
			svr.Log(err, "unable to generate interview ID")
			svr.JSON(w, http.StatusInternalServerError, nil)
			return
		}
		iv := Interview{
			ID:            k.String(),
			ApplicationID: app.ID,
			StudentID:     app.StudentID,
			CompanyID:     app.CompanyID,
			Title:         descriptionPolicy.Sanitize(req.Title),
			StartTime:     req.StartTime.UTC(),
			EndTime:       req.EndTime.UTC(),
			MeetingType:   meetingType,
			MeetingLink:   req.MeetingLink,
		}
		if req.Description != nil {
			sanitized := descriptionPolicy.Sanitize(*req.Description)
			iv.Description = &sanitized
		}
		if err := ivRepo.CreateInterview(iv); err != nil {
			svr.Log(err, "unable to create interview")
			svr.JSON(w, http.StatusInternalServerError, nil)
			return
		}
		if app.Status == application.StatusPending {
			err := appRepo.UpdateStatus(app.ID, application.StatusReviewing, app.UpdatedAt)
			if err != nil && err != application.ErrStaleUpdate {
				svr.Log(err, "unable to move application to reviewing after scheduling")
			}
		}
		nk, err := ksuid.NewRandom()
		if err != nil {
			svr.Log(err, "unable to generate notification ID")
		} else {
			n := notification.Notification{
				ID:        nk.String(),
				UserID:    app.StudentID,
				Type:      notification.TypeInterviewScheduled,
				RelatedID: &iv.ID,
				Title:     "Interview scheduled",
				Content:   fmt.Sprintf("%s scheduled an interview for %s", app.CompanyName, app.InternshipTitle),
			}
			if err := notificationRepo.CreateNotification(n); err != nil {
				svr.Log(err, "unable to emit interview notification to "+app.StudentID)
			}
		}
		created, err := ivRepo.InterviewByID(iv.ID)
		if err != nil {
			svr.Log(err, "unable to reload interview after create")
			svr.JSON(w, http.StatusInternalServerError, nil)
			return
		}
		svr.JSON(w, http.StatusCreated, created)
	}
}

func ListMyInterviewsHandler(svr server.Server, ivRepo *Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := middleware.GetUserFromJWT(r, svr.SessionStore, svr.GetJWTSigningKey())
		if err != nil {
			svr.JSON(w, http.StatusUnauthorized, nil)
			return
		}
		var interviews []Interview
		switch {
		case claims.IsStudent():
			interviews, err = ivRepo.InterviewsByStudentID(claims.UserID)
		case claims.IsCompany():
			interviews, err = ivRepo.InterviewsByCompanyID(claims.UserID)
		default:
			svr.JSON(w, http.StatusForbidden, nil)
			return
		}
		if err != nil {
			svr.Log(err, "unable to list interviews for "+claims.UserID)
			svr.JSON(w, http.StatusInternalServerError, nil)
			return
		}
		svr.JSON(w, http.StatusOK, map[string]interface{}{"interviews": interviews})
	}
}

// UpdateInterviewStatusHandler marks an interview completed or cancelled.
func UpdateInterviewStatusHandler(svr server.Server, ivRepo *Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := middleware.GetUserFromJWT(r, svr.SessionStore, svr.GetJWTSigningKey())
		if err != nil {
			svr.JSON(w, http.StatusUnauthorized, nil)
			return
		}
		vars := mux.Vars(r)
		req := &struct {
			Status string `json:"status"`
		}{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			svr.JSON(w, http.StatusBadRequest, nil)
			return
		}
		status := Status(req.Status)
		if !status.Valid() || status == StatusScheduled {
			svr.JSON(w, http.StatusBadRequest, map[string]string{"error": "status must be completed or cancelled"})
			return
		}
		existing, err := ivRepo.InterviewByID(vars["id"])
		if err == ErrInterviewNotFound {
			svr.JSON(w, http.StatusNotFound, nil)
			return
		}
		if err != nil {
			svr.Log(err, "unable to load interview for update")
			svr.JSON(w, http.StatusInternalServerError, nil)
			return
		}
		if existing.CompanyID != claims.UserID && !claims.IsAdmin() {
			svr.JSON(w, http.StatusForbidden, nil)
			return
		}
		if err := ivRepo.UpdateStatus(existing.ID, status); err != nil {
			svr.Log(err, "unable to update interview status")
			svr.JSON(w, http.StatusInternalServerError, nil)
			return
		}
		updated, err := ivRepo.InterviewByID(existing.ID)
		if err != nil {
			svr.Log(err, "unable to reload interview after update")
			svr.JSON(w, http.StatusInternalServerError, nil)
			return
		}
		svr.JSON(w, http.StatusOK, updated)
	}
}
