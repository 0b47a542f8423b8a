package internship

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/internmatch/internmatch/internal/config"
	"github.com/internmatch/internmatch/internal/email"
	"github.com/internmatch/internmatch/internal/middleware"
	"github.com/internmatch/internmatch/internal/profile"
	"github.com/internmatch/internmatch/internal/server"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	jwt "github.com/dgrijalva/jwt-go"
	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testSessionKey = []byte("session-test-key")
	testSigningKey = []byte("jwt-test-key")
)

func newTestServer(t *testing.T) (server.Server, sqlmock.Sqlmock, *sessions.CookieStore) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := sessions.NewCookieStore(testSessionKey)
	cfg := config.Config{
		Env:           "dev",
		SiteName:      "InternMatch",
		SessionKey:    testSessionKey,
		JwtSigningKey: testSigningKey,
	}
	svr := server.NewServer(cfg, db, mux.NewRouter(), email.Client{}, store)
	return svr, mock, store
}

func signedInRequest(t *testing.T, store *sessions.CookieStore, method, target, body string, claims middleware.UserJWT) *http.Request {
	t.Helper()
	claims.StandardClaims = jwt.StandardClaims{ExpiresAt: time.Now().Add(time.Hour).Unix()}
	token := jwt.NewWithClaims(jwt.SigningMethodHS512, &claims)
	ss, err := token.SignedString(testSigningKey)
	require.NoError(t, err)

	seed := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	sess, err := store.Get(seed, middleware.SessionName)
	require.NoError(t, err)
	sess.Values["jwt"] = ss
	require.NoError(t, sess.Save(seed, w))

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for _, c := range w.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func profileRow(id, role string, companyName interface{}) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "email", "role", "full_name", "avatar_url", "bio", "location",
		"university", "degree", "graduation_year", "resume_url",
		"company_name", "company_industry", "company_size", "website",
		"email_verified_at", "created_at", "updated_at",
	}).AddRow(
		id, id+"@example.com", role, "Owner Name", nil, nil, nil,
		nil, nil, nil, nil,
		companyName, nil, nil, nil,
		time.Now(), time.Now(), nil,
	)
}

func internshipRow(id, companyID string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "company_id", "title", "description", "requirements", "location",
		"is_remote", "type", "duration", "stipend", "deadline", "skills",
		"slug", "status", "created_at", "updated_at", "company_name",
	}).AddRow(
		id, companyID, "SRE Intern", "On-call shadowing", "", "Berlin",
		false, "full-time", "3 months", nil, nil, "go,linux",
		"sre-intern-"+id, "draft", time.Now(), nil, "Acme Robotics",
	)
}

func TestCreateInternshipOwnership(t *testing.T) {
	t.Run("company posts under its own profile", func(t *testing.T) {
		svr, mock, store := newTestServer(t)
		handler := CreateInternshipHandler(svr, NewRepository(svr.Conn), profile.NewRepository(svr.Conn))

		mock.ExpectExec("INSERT INTO internship").
			WithArgs(sqlmock.AnyArg(), "com-1", "SRE Intern", "On-call shadowing", "", "Berlin",
				false, "full-time", "3 months", nil, nil, "go,linux", sqlmock.AnyArg(), "draft", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery("FROM internship i").
			WillReturnRows(internshipRow("int-1", "com-1"))

		req := signedInRequest(t, store, http.MethodPost, "/x/internships",
			`{"title":"SRE Intern","description":"On-call shadowing","location":"Berlin","type":"full-time","duration":"3 months","skills":["go","linux"]}`,
			middleware.UserJWT{UserID: "com-1", Role: "company"})
		w := httptest.NewRecorder()
		handler(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("admin must name the owning company", func(t *testing.T) {
		svr, mock, store := newTestServer(t)
		handler := CreateInternshipHandler(svr, NewRepository(svr.Conn), profile.NewRepository(svr.Conn))

		req := signedInRequest(t, store, http.MethodPost, "/x/internships",
			`{"title":"SRE Intern","description":"On-call shadowing","type":"full-time"}`,
			middleware.UserJWT{UserID: "admin-1", Role: "admin"})
		w := httptest.NewRecorder()
		handler(w, req)

		// no insert may happen; the admin id must never become an owner
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "company_id")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("admin posts on behalf of a company", func(t *testing.T) {
		svr, mock, store := newTestServer(t)
		handler := CreateInternshipHandler(svr, NewRepository(svr.Conn), profile.NewRepository(svr.Conn))

		mock.ExpectQuery("SELECT (.+) FROM profile WHERE id").
			WithArgs("com-1").
			WillReturnRows(profileRow("com-1", "company", "Acme Robotics"))
		mock.ExpectExec("INSERT INTO internship").
			WithArgs(sqlmock.AnyArg(), "com-1", "SRE Intern", "On-call shadowing", "", "",
				false, "full-time", "", nil, nil, "", sqlmock.AnyArg(), "draft", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery("FROM internship i").
			WillReturnRows(internshipRow("int-1", "com-1"))

		req := signedInRequest(t, store, http.MethodPost, "/x/internships",
			`{"company_id":"com-1","title":"SRE Intern","description":"On-call shadowing","type":"full-time"}`,
			middleware.UserJWT{UserID: "admin-1", Role: "admin"})
		w := httptest.NewRecorder()
		handler(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("admin cannot assign a non-company owner", func(t *testing.T) {
		svr, mock, store := newTestServer(t)
		handler := CreateInternshipHandler(svr, NewRepository(svr.Conn), profile.NewRepository(svr.Conn))

		mock.ExpectQuery("SELECT (.+) FROM profile WHERE id").
			WithArgs("stu-1").
			WillReturnRows(profileRow("stu-1", "student", nil))

		req := signedInRequest(t, store, http.MethodPost, "/x/internships",
			`{"company_id":"stu-1","title":"SRE Intern","description":"On-call shadowing","type":"full-time"}`,
			middleware.UserJWT{UserID: "admin-1", Role: "admin"})
		w := httptest.NewRecorder()
		handler(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "not a company")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("students cannot post", func(t *testing.T) {
		svr, mock, store := newTestServer(t)
		handler := CreateInternshipHandler(svr, NewRepository(svr.Conn), profile.NewRepository(svr.Conn))

		req := signedInRequest(t, store, http.MethodPost, "/x/internships",
			`{"title":"SRE Intern","description":"On-call shadowing","type":"full-time"}`,
			middleware.UserJWT{UserID: "stu-1", Role: "student"})
		w := httptest.NewRecorder()
		handler(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
