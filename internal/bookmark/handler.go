package bookmark

import (
	"encoding/json"
	"net/http"

	"github.com/internmatch/internmatch/internal/internship"
	"github.com/internmatch/internmatch/internal/middleware"
	"github.com/internmatch/internmatch/internal/server"

	"github.com/segmentio/ksuid"
)

func ListBookmarksHandler(svr server.Server, bookmarkRepo *Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := middleware.GetUserFromJWT(r, svr.SessionStore, svr.GetJWTSigningKey())
		if err != nil {
			svr.JSON(w, http.StatusUnauthorized, nil)
			return
		}
		if !claims.IsStudent() {
			svr.JSON(w, http.StatusForbidden, nil)
			return
		}
		bookmarks, err := bookmarkRepo.BookmarksForStudent(claims.UserID)
		if err != nil {
			svr.Log(err, "unable to list bookmarks for "+claims.UserID)
			svr.JSON(w, http.StatusInternalServerError, nil)
			return
		}
		svr.JSON(w, http.StatusOK, map[string]interface{}{"bookmarks": bookmarks})
	}
}

// ToggleBookmarkHandler saves or unsaves an internship and reports the new
// state.
func ToggleBookmarkHandler(svr server.Server, bookmarkRepo *Repository, internshipRepo *internship.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := middleware.GetUserFromJWT(r, svr.SessionStore, svr.GetJWTSigningKey())
		if err != nil {
			svr.JSON(w, http.StatusUnauthorized, nil)
			return
		}
		if !claims.IsStudent() {
			svr.JSON(w, http.StatusForbidden, map[string]string{"error": "only students can bookmark internships"})
			return
		}
		req := &struct {
			InternshipID string `json:"internship_id"`
		}{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.InternshipID == "" {
			svr.JSON(w, http.StatusBadRequest, nil)
			return
		}
		if _, err := internshipRepo.InternshipByID(req.InternshipID); err == internship.ErrInternshipNotFound {
			svr.JSON(w, http.StatusNotFound, nil)
			return
		} else if err != nil {
			svr.Log(err, "unable to load internship for bookmark")
			svr.JSON(w, http.StatusInternalServerError, nil)
			return
		}
		k, err := ksuid.NewRandom()
		if err != nil {
			svr.Log(err, "unable to generate bookmark ID")
			svr.JSON(w, http.StatusInternalServerError, nil)
			return
		}
		bookmarked, err := bookmarkRepo.Toggle(k.String(), claims.UserID, req.InternshipID)
		if err != nil {
			svr.Log(err, "unable to toggle bookmark")
			svr.JSON(w, http.StatusInternalServerError, nil)
			return
		}
		svr.JSON(w, http.StatusOK, map[string]bool{"bookmarked": bookmarked})
	}
}
