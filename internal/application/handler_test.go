package application

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/internmatch/internmatch/internal/config"
	"github.com/internmatch/internmatch/internal/email"
	"github.com/internmatch/internmatch/internal/internship"
	"github.com/internmatch/internmatch/internal/middleware"
	"github.com/internmatch/internmatch/internal/notification"
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

func studentRow(id string, resumeURL interface{}) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "email", "role", "full_name", "avatar_url", "bio", "location",
		"university", "degree", "graduation_year", "resume_url",
		"company_name", "company_industry", "company_size", "website",
		"email_verified_at", "created_at", "updated_at",
	}).AddRow(
		id, "sam@example.com", "student", "Sam Intern", nil, nil, nil,
		"MIT", "CS", 2027, resumeURL,
		nil, nil, nil, nil,
		time.Now(), time.Now(), nil,
	)
}

func TestSubmitApplicationWithoutResumeCreatesNoRow(t *testing.T) {
	svr, mock, store := newTestServer(t)
	profileRepo := profile.NewRepository(svr.Conn)
	internshipRepo := internship.NewRepository(svr.Conn)
	appRepo := NewRepository(svr.Conn)
	notificationRepo := notification.NewRepository(svr.Conn)

	// only the profile lookup may hit the database; no INSERT is expected
	mock.ExpectQuery("SELECT (.+) FROM profile WHERE id").
		WithArgs("stu-1").
		WillReturnRows(studentRow("stu-1", nil))

	handler := SubmitApplicationHandler(svr, appRepo, profileRepo, internshipRepo, notificationRepo)
	req := signedInRequest(t, store, http.MethodPost, "/x/applications",
		`{"internship_id":"int-1","cover_letter":"Dear hiring team"}`,
		middleware.UserJWT{UserID: "stu-1", Role: "student"})
	w := httptest.NewRecorder()
	handler(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), ErrMissingResume.Error())
	assert.Contains(t, w.Body.String(), "/profile/stu-1")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmitApplicationRejectsNonStudents(t *testing.T) {
	svr, mock, store := newTestServer(t)
	handler := SubmitApplicationHandler(svr,
		NewRepository(svr.Conn),
		profile.NewRepository(svr.Conn),
		internship.NewRepository(svr.Conn),
		notification.NewRepository(svr.Conn))

	req := signedInRequest(t, store, http.MethodPost, "/x/applications",
		`{"internship_id":"int-1"}`,
		middleware.UserJWT{UserID: "com-1", Role: "company"})
	w := httptest.NewRecorder()
	handler(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmitApplicationRequiresAuth(t *testing.T) {
	svr, mock, _ := newTestServer(t)
	handler := SubmitApplicationHandler(svr,
		NewRepository(svr.Conn),
		profile.NewRepository(svr.Conn),
		internship.NewRepository(svr.Conn),
		notification.NewRepository(svr.Conn))

	req := httptest.NewRequest(http.MethodPost, "/x/applications", strings.NewReader(`{"internship_id":"int-1"}`))
	w := httptest.NewRecorder()
	handler(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func applicationRow(id, status string, updatedAt time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "internship_id", "student_id", "cover_letter", "resume_url",
		"status", "created_at", "updated_at", "title", "company_id",
		"company_name", "full_name",
	}).AddRow(
		id, "int-1", "stu-1", "I would love to join.", "https://cdn.example.com/cv.pdf",
		status, time.Now(), updatedAt, "SRE Intern", "com-1",
		"Acme Robotics", "Sam Intern",
	)
}

func TestTransitionApplicationNotifiesStudent(t *testing.T) {
	svr, mock, store := newTestServer(t)
	handler := TransitionApplicationHandler(svr,
		NewRepository(svr.Conn),
		profile.NewRepository(svr.Conn),
		notification.NewRepository(svr.Conn))

	updatedAt := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery("FROM application a").
		WithArgs("app-1").
		WillReturnRows(applicationRow("app-1", string(StatusReviewing), updatedAt))
	mock.ExpectExec("UPDATE application SET status").
		WithArgs(string(StatusAccepted), "app-1", updatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO notification").
		WithArgs(sqlmock.AnyArg(), "stu-1", string(notification.TypeStatusChange), "app-1",
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT (.+) FROM profile WHERE id").
		WithArgs("stu-1").
		WillReturnRows(studentRow("stu-1", "https://cdn.example.com/cv.pdf"))
	mock.ExpectQuery("FROM application a").
		WithArgs("app-1").
		WillReturnRows(applicationRow("app-1", string(StatusAccepted), time.Now()))

	req := signedInRequest(t, store, http.MethodPut, "/x/applications/app-1",
		`{"status":"accepted"}`,
		middleware.UserJWT{UserID: "com-1", Role: "company"})
	req = mux.SetURLVars(req, map[string]string{"id": "app-1"})
	w := httptest.NewRecorder()
	handler(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), string(StatusAccepted))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransitionApplicationRejectsInvalidMove(t *testing.T) {
	svr, mock, store := newTestServer(t)
	handler := TransitionApplicationHandler(svr,
		NewRepository(svr.Conn),
		profile.NewRepository(svr.Conn),
		notification.NewRepository(svr.Conn))

	// terminal state: nothing may leave accepted, and nothing gets written
	mock.ExpectQuery("FROM application a").
		WithArgs("app-1").
		WillReturnRows(applicationRow("app-1", string(StatusAccepted), time.Now()))

	req := signedInRequest(t, store, http.MethodPut, "/x/applications/app-1",
		`{"status":"reviewing"}`,
		middleware.UserJWT{UserID: "com-1", Role: "company"})
	req = mux.SetURLVars(req, map[string]string{"id": "app-1"})
	w := httptest.NewRecorder()
	handler(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), ErrInvalidTransition.Error())
	assert.NoError(t, mock.ExpectationsWereMet())
}
