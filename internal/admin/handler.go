package admin

import (
	"bytes"
	"encoding/gob"
	"net/http"

	"github.com/internmatch/internmatch/internal/application"
	"github.com/internmatch/internmatch/internal/internship"
	"github.com/internmatch/internmatch/internal/middleware"
	"github.com/internmatch/internmatch/internal/profile"
	"github.com/internmatch/internmatch/internal/server"
)

// Analytics is the admin dashboard headline counts.
type Analytics struct {
	Students             int `json:"students"`
	Companies            int `json:"companies"`
	OpenInternships      int `json:"open_internships"`
	PendingApplications  int `json:"pending_applications"`
	ReviewedApplications int `json:"reviewed_applications"`
	AcceptedApplications int `json:"accepted_applications"`
	RejectedApplications int `json:"rejected_applications"`
}

// AnalyticsHandler serves the back-office counts, cached to keep repeated
// dashboard loads off the database.
func AnalyticsHandler(svr server.Server, profileRepo *profile.Repository, internshipRepo *internship.Repository, appRepo *application.Repository) http.HandlerFunc {
	return middleware.AdminAuthenticatedMiddleware(
		svr.SessionStore,
		svr.GetJWTSigningKey(),
		func(w http.ResponseWriter, r *http.Request) {
			var analytics Analytics
			cached, ok := svr.CacheGet(server.CacheKeyAdminAnalytics)
			if ok {
				if err := gob.NewDecoder(bytes.NewReader(cached)).Decode(&analytics); err == nil {
					svr.JSON(w, http.StatusOK, analytics)
					return
				}
			}
			var err error
			if analytics.Students, err = profileRepo.CountByRole(profile.RoleStudent); err != nil {
				svr.Log(err, "unable to count students")
				svr.JSON(w, http.StatusInternalServerError, nil)
				return
			}
			if analytics.Companies, err = profileRepo.CountByRole(profile.RoleCompany); err != nil {
				svr.Log(err, "unable to count companies")
				svr.JSON(w, http.StatusInternalServerError, nil)
				return
			}
			if analytics.OpenInternships, err = internshipRepo.CountOpenInternships(); err != nil {
				svr.Log(err, "unable to count open internships")
				svr.JSON(w, http.StatusInternalServerError, nil)
				return
			}
			counts := []struct {
				status application.Status
				dst    *int
			}{
				{application.StatusPending, &analytics.PendingApplications},
				{application.StatusReviewing, &analytics.ReviewedApplications},
				{application.StatusAccepted, &analytics.AcceptedApplications},
				{application.StatusRejected, &analytics.RejectedApplications},
			}
			for _, c := range counts {
				if *c.dst, err = appRepo.CountByStatus(c.status); err != nil {
					svr.Log(err, "unable to count applications by status")
					svr.JSON(w, http.StatusInternalServerError, nil)
					return
				}
			}
			var buf bytes.Buffer
			if err := gob.NewEncoder(&buf).Encode(analytics); err == nil {
				svr.CacheSet(server.CacheKeyAdminAnalytics, buf.Bytes())
			}
			svr.JSON(w, http.StatusOK, analytics)
		},
	)
}
