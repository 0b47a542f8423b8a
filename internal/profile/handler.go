package profile

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/internmatch/internmatch/internal/email"
	"github.com/internmatch/internmatch/internal/middleware"
	"github.com/internmatch/internmatch/internal/server"

	jwt "github.com/dgrijalva/jwt-go"
	"github.com/gorilla/mux"
	"github.com/microcosm-cc/bluemonday"
	"github.com/segmentio/ksuid"
	"golang.org/x/crypto/bcrypt"
)

var bioPolicy = bluemonday.UGCPolicy()

type signUpRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
	Role            string `json:"role"`
	FullName        string `json:"full_name"`

	University      string `json:"university"`
	Degree          string `json:"degree"`
	GraduationYear  int    `json:"graduation_year"`
	CompanyName     string `json:"company_name"`
	CompanyIndustry string `json:"company_industry"`
	CompanySize     string `json:"company_size"`
	Website         string `json:"website"`
}

func SignUpHandler(svr server.Server, profileRepo *Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := &signUpRequest{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			svr.JSON(w, http.StatusBadRequest, nil)
			return
		}
		fieldErrs := map[string]string{}
		if !svr.IsEmail(req.Email) {
			fieldErrs["email"] = "invalid email address"
		}
		if len(req.Password) < 8 {
			fieldErrs["password"] = "password must be at least 8 characters"
		}
		if req.Password != req.PasswordConfirm {
			fieldErrs["password_confirm"] = "passwords do not match"
		}
		if req.FullName == "" {
			fieldErrs["full_name"] = "full name is required"
		}
		role := Role(req.Role)
		if role != RoleStudent && role != RoleCompany {
			fieldErrs["role"] = "role must be either student or company"
		}
		if len(fieldErrs) > 0 {
			svr.JSON(w, http.StatusBadRequest, map[string]interface{}{"errors": fieldErrs})
			return
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			svr.Log(err, "unable to hash password")
			svr.JSON(w, http.StatusInternalServerError, nil)
			return
		}
		k, err := ksuid.NewRandom()
		if err != nil {
			svr.Log(err, "unable to generate profile ID")
			svr.JSON(w, http.StatusInternalServerError, nil)
			return
		}
		p := Profile{
			ID:       k.String(),
			Email:    req.Email,
			Role:     role,
			FullName: req.FullName,
		}
		switch role {
		case RoleStudent:
			p.Student = &StudentDetails{
				University:     req.University,
				Degree:         req.Degree,
				GraduationYear: req.GraduationYear,
			}
		case RoleCompany:
			p.Company = &CompanyDetails{
				CompanyName:     req.CompanyName,
				CompanyIndustry: req.CompanyIndustry,
				CompanySize:     req.CompanySize,
				Website:         req.Website,
			}
		}
		if err := profileRepo.CreateProfile(p, string(hash)); err != nil {
			if err == ErrEmailTaken {
				svr.JSON(w, http.StatusConflict, map[string]interface{}{"errors": map[string]string{"email": "email already registered"}})
				return
			}
			svr.Log(err, "unable to create profile")
			svr.JSON(w, http.StatusInternalServerError, nil)
			return
		}
		if err := sendVerificationEmail(svr, profileRepo, p.ID, p.Email); err != nil {
			svr.Log(err, "unable to send verification email on signup")
			svr.JSON(w, http.StatusInternalServerError, nil)
			return
		}
		svr.JSON(w, http.StatusCreated, map[string]string{"status": "pending_confirmation"})
	}
}

func sendVerificationEmail(svr server.Server, profileRepo *Repository, profileID, emailAddr string) error {
	k, err := ksuid.NewRandom()
	if err != nil {
		return err
	}
	if err := profileRepo.SaveVerificationToken(k.String(), profileID); err != nil {
		return err
	}
	cfg := svr.GetConfig()
	return svr.GetEmail().SendEmail(
		email.Address{Name: svr.GetEmail().DefaultSenderName(), Email: svr.GetEmail().NoReplySenderAddress()},
		email.Address{Email: emailAddr},
		email.Address{Email: svr.GetEmail().SupportSenderAddress()},
		fmt.Sprintf("Confirm your email on %s", cfg.SiteName),
		fmt.Sprintf(
			"Please follow this link to confirm your email address and activate your %s account: %s%s/x/auth/verify/%s\n\nIf this was not requested by you, you can ignore this email.",
			cfg.SiteName,
			cfg.URLProtocol,
			cfg.SiteHost,
			k.String(),
		),
	)
}

func VerifyEmailHandler(svr server.Server, profileRepo *Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		token := vars["token"]
		if _, err := profileRepo.ConfirmVerificationToken(token); err != nil {
			svr.Log(err, fmt.Sprintf("unable to confirm verification token %s", token))
			svr.TEXT(w, http.StatusBadRequest, "Invalid or expired token")
			return
		}
		svr.TEXT(w, http.StatusOK, "Your email has been confirmed. You can now sign in.")
	}
}

func ResendVerificationHandler(svr server.Server, profileRepo *Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := &struct {
			Email string `json:"email"`
		}{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			svr.JSON(w, http.StatusBadRequest, nil)
			return
		}
		if !svr.IsEmail(req.Email) {
			svr.JSON(w, http.StatusBadRequest, nil)
			return
		}
		p, err := profileRepo.ProfileByEmail(req.Email)
		if err != nil {
			// do not leak whether the email is registered
			svr.JSON(w, http.StatusOK, nil)
			return
		}
		if p.EmailVerified {
			svr.JSON(w, http.StatusOK, nil)
			return
		}
		if err := sendVerificationEmail(svr, profileRepo, p.ID, p.Email); err != nil {
			svr.Log(err, "unable to resend verification email")
			svr.JSON(w, http.StatusInternalServerError, nil)
			return
		}
		svr.JSON(w, http.StatusOK, nil)
	}
}

func SignInHandler(svr server.Server, profileRepo *Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := &struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			svr.JSON(w, http.StatusBadRequest, nil)
			return
		}
		id, hash, verified, err := profileRepo.CredentialsByEmail(req.Email)
		if err != nil {
			svr.JSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid email or password"})
			return
		}
		if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)); err != nil {
			svr.JSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid email or password"})
			return
		}
		if !verified {
			svr.JSON(w, http.StatusForbidden, map[string]string{
				"error":  "email_not_confirmed",
				"resend": "/x/auth/resend",
			})
			return
		}
		p, err := profileRepo.ProfileByID(id)
		if err != nil {
			svr.Log(err, "unable to load profile after sign in")
			svr.JSON(w, http.StatusInternalServerError, nil)
			return
		}
		sess, err := svr.SessionStore.Get(r, middleware.SessionName)
		if err != nil {
			svr.JSON(w, http.StatusInternalServerError, nil)
			return
		}
		stdClaims := &jwt.StandardClaims{
			ExpiresAt: time.Now().Add(30 * 24 * time.Hour).UTC().Unix(),
			IssuedAt:  time.Now().UTC().Unix(),
			Issuer:    svr.GetConfig().URLProtocol + svr.GetConfig().SiteHost,
		}
		claims := middleware.UserJWT{
			UserID:         p.ID,
			Email:          p.Email,
			Role:           string(p.Role),
			CreatedAt:      p.CreatedAt,
			StandardClaims: *stdClaims,
		}
		tkn := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		ss, err := tkn.SignedString(svr.GetJWTSigningKey())
		if err != nil {
			svr.Log(err, "unable to sign jwt")
			svr.JSON(w, http.StatusInternalServerError, nil)
			return
		}
		sess.Values["jwt"] = ss
		if err := sess.Save(r, w); err != nil {
			svr.Log(err, "unable to save jwt into session cookie")
			svr.JSON(w, http.StatusInternalServerError, nil)
			return
		}
		svr.JSON(w, http.StatusOK, p)
	}
}

func SignOutHandler(svr server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := svr.SessionStore.Get(r, middleware.SessionName)
		if err != nil {
			svr.JSON(w, http.StatusOK, nil)
			return
		}
		delete(sess.Values, "jwt")
		sess.Options.MaxAge = -1
		if err := sess.Save(r, w); err != nil {
			svr.Log(err, "unable to clear session on sign out")
		}
		svr.JSON(w, http.StatusOK, nil)
	}
}

// CurrentProfileHandler is the fetch-current-identity operation.
func CurrentProfileHandler(svr server.Server, profileRepo *Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := middleware.GetUserFromJWT(r, svr.SessionStore, svr.GetJWTSigningKey())
		if err != nil {
			svr.JSON(w, http.StatusUnauthorized, nil)
			return
		}
		p, err := profileRepo.ProfileByID(claims.UserID)
		if err == ErrProfileNotFound {
			svr.JSON(w, http.StatusNotFound, nil)
			return
		}
		if err != nil {
			svr.Log(err, "unable to load current profile")
			svr.JSON(w, http.StatusInternalServerError, nil)
			return
		}
		svr.JSON(w, http.StatusOK, p)
	}
}

func ProfileByIDHandler(svr server.Server, profileRepo *Repository) http.HandlerFunc {
	return middleware.UserAuthenticatedMiddleware(
		svr.SessionStore,
		svr.GetJWTSigningKey(),
		func(w http.ResponseWriter, r *http.Request) {
			vars := mux.Vars(r)
			p, err := profileRepo.ProfileByID(vars["id"])
			if err == ErrProfileNotFound {
				svr.JSON(w, http.StatusNotFound, nil)
				return
			}
			if err != nil {
				svr.Log(err, "unable to load profile by id "+vars["id"])
				svr.JSON(w, http.StatusInternalServerError, nil)
				return
			}
			svr.JSON(w, http.StatusOK, p)
		},
	)
}

type updateProfileRequest struct {
	FullName  string  `json:"full_name"`
	AvatarURL *string `json:"avatar_url"`
	Bio       *string `json:"bio"`
	Location  *string `json:"location"`

	University      string  `json:"university"`
	Degree          string  `json:"degree"`
	GraduationYear  int     `json:"graduation_year"`
	ResumeURL       *string `json:"resume_url"`
	CompanyName     string  `json:"company_name"`
	CompanyIndustry string  `json:"company_industry"`
	CompanySize     string  `json:"company_size"`
	Website         string  `json:"website"`
}

// UpdateProfileHandler lets the owner or an admin edit a profile. Role is
// never editable through this path.
func UpdateProfileHandler(svr server.Server, profileRepo *Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := middleware.GetUserFromJWT(r, svr.SessionStore, svr.GetJWTSigningKey())
		if err != nil {
			svr.JSON(w, http.StatusUnauthorized, nil)
			return
		}
		vars := mux.Vars(r)
		profileID := vars["id"]
		if claims.UserID != profileID && !claims.IsAdmin() {
			svr.JSON(w, http.StatusForbidden, nil)
			return
		}
		req := &updateProfileRequest{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			svr.JSON(w, http.StatusBadRequest, nil)
			return
		}
		p, err := profileRepo.ProfileByID(profileID)
		if err == ErrProfileNotFound {
			svr.JSON(w, http.StatusNotFound, nil)
			return
		}
		if err != nil {
			svr.Log(err, "unable to load profile for update")
			svr.JSON(w, http.StatusInternalServerError, nil)
			return
		}
		if req.FullName != "" {
			p.FullName = req.FullName
		}
		p.AvatarURL = req.AvatarURL
		p.Location = req.Location
		if req.Bio != nil {
			sanitized := bioPolicy.Sanitize(*req.Bio)
			p.Bio = &sanitized
		} else {
			p.Bio = nil
		}
		if p.Student != nil {
			p.Student.University = req.University
			p.Student.Degree = req.Degree
			p.Student.GraduationYear = req.GraduationYear
			p.Student.ResumeURL = req.ResumeURL
		}
		if p.Company != nil {
			p.Company.CompanyName = req.CompanyName
			p.Company.CompanyIndustry = req.CompanyIndustry
			p.Company.CompanySize = req.CompanySize
			p.Company.Website = req.Website
		}
		if err := profileRepo.UpdateProfile(p); err != nil {
			svr.Log(err, "unable to update profile "+profileID)
			svr.JSON(w, http.StatusInternalServerError, nil)
			return
		}
		// reconcile from the authoritative row, not the request
		updated, err := profileRepo.ProfileByID(profileID)
		if err != nil {
			svr.Log(err, "unable to reload profile after update")
			svr.JSON(w, http.StatusInternalServerError, nil)
			return
		}
		svr.JSON(w, http.StatusOK, updated)
	}
}

// DeleteProfileHandler permanently deletes a profile and all child resources
// (internships, applications, bookmarks, messages, notifications, interviews).
func DeleteProfileHandler(svr server.Server, profileRepo *Repository) http.HandlerFunc {
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
			if err := profileRepo.DeleteProfileByID(req.ID); err != nil {
				if err == ErrProfileNotFound {
					svr.JSON(w, http.StatusNotFound, nil)
					return
				}
				svr.Log(err, "unable to delete profile "+req.ID)
				svr.JSON(w, http.StatusInternalServerError, nil)
				return
			}
			svr.JSON(w, http.StatusOK, nil)
		},
	)
}

func ListProfilesHandler(svr server.Server, profileRepo *Repository) http.HandlerFunc {
	return middleware.AdminAuthenticatedMiddleware(
		svr.SessionStore,
		svr.GetJWTSigningKey(),
		func(w http.ResponseWriter, r *http.Request) {
			role := Role(r.URL.Query().Get("role"))
			if !role.Valid() {
				svr.JSON(w, http.StatusBadRequest, map[string]string{"error": "unknown role"})
				return
			}
			page, err := strconv.Atoi(r.URL.Query().Get("p"))
			if err != nil || page < 1 {
				page = 1
			}
			profiles, total, err := profileRepo.ProfilesByRole(role, page, svr.GetConfig().ProfilesPerPage)
			if err != nil {
				svr.Log(err, "unable to list profiles")
				svr.JSON(w, http.StatusInternalServerError, nil)
				return
			}
			svr.JSON(w, http.StatusOK, map[string]interface{}{
				"profiles": profiles,
				"total":    total,
				"page":     page,
			})
		},
	)
}
