package internship

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/internmatch/internmatch/internal/middleware"
	"github.com/internmatch/internmatch/internal/profile"
	"github.com/internmatch/internmatch/internal/server"

	"github.com/gorilla/mux"
	"github.com/gosimple/slug"
	"github.com/microcosm-cc/bluemonday"
	"github.com/segmentio/ksuid"
)

var richTextPolicy = bluemonday.UGCPolicy()

type internshipRequest struct {
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Requirements string     `json:"requirements"`
	Location     string     `json:"location"`
	IsRemote     bool       `json:"is_remote"`
	Type         string     `json:"type"`
	Duration     string     `json:"duration"`
	Stipend      *string    `json:"stipend"`
	Deadline     *time.Time `json:"deadline"`
	Skills       []string   `json:"skills"`
	Status       string     `json:"status"`

	// admins post on behalf of a company and must name it
	CompanyID string `json:"company_id"`
}

func CreateInternshipHandler(svr server.Server, internshipRepo *Repository, profileRepo *profile.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := middleware.GetUserFromJWT(r, svr.SessionStore, svr.GetJWTSigningKey())
		if err != nil {
			svr.JSON(w, http.StatusUnauthorized, nil)
			return
		}
		if !claims.IsCompany() && !claims.IsAdmin() {
			svr.JSON(w, http.StatusForbidden, map[string]string{"error": "only companies can post internships"})
			return
		}
		req := &internshipRequest{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			svr.JSON(w, http.StatusBadRequest, nil)
			return
		}
		// a posting is always owned by a company profile, never an admin
		companyID := claims.UserID
		if claims.IsAdmin() {
			if req.CompanyID == "" {
				svr.JSON(w, http.StatusBadRequest, map[string]interface{}{"errors": map[string]string{"company_id": "company is required when posting as an admin"}})
				return
			}
			owner, err := profileRepo.ProfileByID(req.CompanyID)
			if err == profile.ErrProfileNotFound {
				svr.JSON(w, http.StatusBadRequest, map[string]interface{}{"errors": map[string]string{"company_id": "no such company profile"}})
				return
			}
			if err != nil {
				svr.Log(err, "unable to load company profile for admin posting")
				svr.JSON(w, http.StatusInternalServerError, nil)
				return
			}
			if !owner.IsCompany() {
				svr.JSON(w, http.StatusBadRequest, map[string]interface{}{"errors": map[string]string{"company_id": "profile is not a company"}})
				return
			}
			companyID = owner.ID
		}
		fieldErrs := map[string]string{}
		if req.Title == "" {
			fieldErrs["title"] = "title is required"
		}
		if req.Description == "" {
			fieldErrs["description"] = "description is required"
		}
		if !Type(req.Type).Valid() {
			fieldErrs["type"] = "type must be full-time or part-time"
		}
		status := Status(req.Status)
		if status == "" {
			status = StatusDraft
		}
		if !status.Valid() {
			fieldErrs["status"] = "status must be open, closed or draft"
		}
		if len(fieldErrs) > 0 {
			svr.JSON(w, http.StatusBadRequest, map[string]interface{}{"errors": fieldErrs})
			return
		}
		k, err := ksuid.NewRandom()
		if err != nil {
			svr.Log(err, "unable to generate internship ID")
			svr.JSON(w, http.StatusInternalServerError, nil)
			return
		}
		i := Internship{
			ID:           k.String(),
			CompanyID:    companyID,
			Title:        req.Title,
			Description:  richTextPolicy.Sanitize(req.Description),
			Requirements: richTextPolicy.Sanitize(req.Requirements),
			Location:     req.Location,
			IsRemote:     req.IsRemote,
			Type:         Type(req.Type),
			Duration:     req.Duration,
			Stipend:      req.Stipend,
			Deadline:     req.Deadline,
			SkillsArray:  req.Skills,
			Slug:         slug.Make(fmt.Sprintf("%s %s", req.Title, k.String())),
			Status:       status,
		}
		if err := internshipRepo.CreateInternship(i); err != nil {
			svr.Log(err, "unable to create internship")
			svr.JSON(w, http.StatusInternalServerError, nil)
			return
		}
		svr.CacheDelete(server.CacheKeyOpenInternshipsCount)
		created, err := internshipRepo.InternshipByID(i.ID)
		if err != nil {
			svr.Log(err, "unable to reload internship after create")
			svr.JSON(w, http.StatusInternalServerError, nil)
			return
		}
		svr.JSON(w, http.StatusCreated, created)
	}
}

func UpdateInternshipHandler(svr server.Server, internshipRepo *Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := middleware.GetUserFromJWT(r, svr.SessionStore, svr.GetJWTSigningKey())
		if err != nil {
			svr.JSON(w, http.StatusUnauthorized, nil)
			return
		}
		vars := mux.Vars(r)
		existing, err := internshipRepo.InternshipByID(vars["id"])
		if err == ErrInternshipNotFound {
			svr.JSON(w, http.StatusNotFound, nil)
			return
		}
		if err != nil {
			svr.Log(err, "unable to load internship for update")
			svr.JSON(w, http.StatusInternalServerError, nil)
			return
		}
		if existing.CompanyID != claims.UserID && !claims.IsAdmin() {
			svr.JSON(w, http.StatusForbidden, nil)
			return
		}
		req := &internshipRequest{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			svr.JSON(w, http.StatusBadRequest, nil)
			return
		}
		if req.Type != "" && !Type(req.Type).Valid() {
			svr.JSON(w, http.StatusBadRequest, map[string]interface{}{"errors": map[string]string{"type": "type must be full-time or part-time"}})
			return
		}
		if req.Status != "" && !Status(req.Status).Valid() {
			svr.JSON(w, http.StatusBadRequest, map[string]interface{}{"errors": map[string]string{"status": "status must be open, closed or draft"}})
			return
		}
		if req.Title != "" {
			existing.Title = req.Title
		}
		if req.Description != "" {
			existing.Description = richTextPolicy.Sanitize(req.Description)
		}
		existing.Requirements = richTextPolicy.Sanitize(req.Requirements)
		existing.Location = req.Location
		existing.IsRemote = req.IsRemote
		if req.Type != "" {
			existing.Type = Type(req.Type)
		}
		existing.Duration = req.Duration
		existing.Stipend = req.Stipend
		existing.Deadline = req.Deadline
		existing.SkillsArray = req.Skills
		if req.Status != "" {
			existing.Status = Status(req.Status)
		}
		if err := internshipRepo.UpdateInternship(existing); err != nil {
			svr.Log(err, "unable to update internship "+existing.ID)
			svr.JSON(w, http.StatusInternalServerError, nil)
			return
		}
		svr.CacheDelete(server.CacheKeyOpenInternshipsCount)
		updated, err := internshipRepo.InternshipByID(existing.ID)
		if err != nil {
			svr.Log(err, "unable to reload internship after update")
			svr.JSON(w, http.StatusInternalServerError, nil)
			return
		}
		svr.JSON(w, http.StatusOK, updated)
	}
}

func DeleteInternshipHandler(svr server.Server, internshipRepo *Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := middleware.GetUserFromJWT(r, svr.SessionStore, svr.GetJWTSigningKey())
		if err != nil {
			svr.JSON(w, http.StatusUnauthorized, nil)
			return
		}
		vars := mux.Vars(r)
		existing, err := internshipRepo.InternshipByID(vars["id"])
		if err == ErrInternshipNotFound {
			svr.JSON(w, http.StatusNotFound, nil)
			return
		}
		if err != nil {
			svr.Log(err, "unable to load internship for delete")
			svr.JSON(w, http.StatusInternalServerError, nil)
			return
		}
		if existing.CompanyID != claims.UserID && !claims.IsAdmin() {
			svr.JSON(w, http.StatusForbidden, nil)
			return
		}
		if r.URL.Query().Get("confirm") != "true" {
			svr.JSON(w, http.StatusBadRequest, map[string]string{"error": "deletion must be explicitly confirmed"})
			return
		}
		if err := internshipRepo.DeleteInternshipByID(existing.ID); err != nil {
			svr.Log(err, "unable to delete internship "+existing.ID)
			svr.JSON(w, http.StatusInternalServerError, nil)
			return
		}
		svr.CacheDelete(server.CacheKeyOpenInternshipsCount)
		svr.JSON(w, http.StatusOK, nil)
	}
}

// ListOpenInternshipsHandler is the student-facing listing: only postings
// with status=open are ever returned here.
func ListOpenInternshipsHandler(svr server.Server, internshipRepo *Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		location := strings.TrimSpace(r.URL.Query().Get("l"))
		skill := strings.TrimSpace(r.URL.Query().Get("s"))
		page, err := strconv.Atoi(r.URL.Query().Get("p"))
		if err != nil || page < 1 {
			page = 1
		}
		internships, total, err := internshipRepo.OpenInternshipsByQuery(location, skill, page, svr.GetConfig().InternshipsPerPage)
		if err != nil {
			svr.Log(err, "unable to get internships by query")
			svr.JSON(w, http.StatusInternalServerError, map[string]string{"error": "Oops! An internal error has occurred"})
			return
		}
		var openCount int
		openCountCached, ok := svr.CacheGet(server.CacheKeyOpenInternshipsCount)
		if !ok {
			openCount, err = internshipRepo.CountOpenInternships()
			if err != nil {
				svr.Log(err, "unable to count open internships")
			}
			buf := &bytes.Buffer{}
			if err := gob.NewEncoder(buf).Encode(openCount); err != nil {
				svr.Log(err, "unable to encode open internships count")
			}
			if err := svr.CacheSet(server.CacheKeyOpenInternshipsCount, buf.Bytes()); err != nil {
				svr.Log(err, "unable to cache open internships count")
			}
		} else {
			if err := gob.NewDecoder(bytes.NewReader(openCountCached)).Decode(&openCount); err != nil {
				svr.Log(err, "unable to decode cached open internships count")
			}
		}
		svr.JSON(w, http.StatusOK, map[string]interface{}{
			"internships": internships,
			"total":       total,
			"page":        page,
			"open_count":  openCount,
		})
	}
}

// InternshipBySlugHandler returns one posting. Drafts and closed postings are
// only visible to the owning company and admins.
func InternshipBySlugHandler(svr server.Server, internshipRepo *Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		i, err := internshipRepo.InternshipBySlug(vars["slug"])
		if err == ErrInternshipNotFound {
			svr.JSON(w, http.StatusNotFound, nil)
			return
		}
		if err != nil {
			svr.Log(err, "unable to load internship by slug "+vars["slug"])
			svr.JSON(w, http.StatusInternalServerError, nil)
			return
		}
		if i.Status != StatusOpen {
			claims, err := middleware.GetUserFromJWT(r, svr.SessionStore, svr.GetJWTSigningKey())
			if err != nil || (claims.UserID != i.CompanyID && !claims.IsAdmin()) {
				svr.JSON(w, http.StatusNotFound, nil)
				return
			}
		}
		svr.JSON(w, http.StatusOK, i)
	}
}

func ListCompanyInternshipsHandler(svr server.Server, internshipRepo *Repository) http.HandlerFunc {
	return middleware.UserAuthenticatedMiddleware(
		svr.SessionStore,
		svr.GetJWTSigningKey(),
		func(w http.ResponseWriter, r *http.Request) {
			claims, err := middleware.GetUserFromJWT(r, svr.SessionStore, svr.GetJWTSigningKey())
			if err != nil {
				svr.JSON(w, http.StatusUnauthorized, nil)
				return
			}
			companyID := claims.UserID
			if requested := r.URL.Query().Get("company_id"); requested != "" && claims.IsAdmin() {
				companyID = requested
			}
			internships, err := internshipRepo.InternshipsByCompanyID(companyID)
			if err != nil {
				svr.Log(err, "unable to list internships for company "+companyID)
				svr.JSON(w, http.StatusInternalServerError, nil)
				return
			}
			svr.JSON(w, http.StatusOK, map[string]interface{}{"internships": internships})
		},
	)
}
