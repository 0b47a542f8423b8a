package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	jwt "github.com/dgrijalva/jwt-go"
	"github.com/gorilla/sessions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedInRequest(t *testing.T, store *sessions.CookieStore, signingKey []byte, claims UserJWT) *http.Request {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS512, &claims)
	ss, err := token.SignedString(signingKey)
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	sess, err := store.Get(r, SessionName)
	require.NoError(t, err)
	sess.Values["jwt"] = ss
	require.NoError(t, sess.Save(r, w))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range w.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func TestGetUserFromJWTRoundTrip(t *testing.T) {
	store := sessions.NewCookieStore([]byte("session-test-key"))
	signingKey := []byte("jwt-test-key")

	req := signedInRequest(t, store, signingKey, UserJWT{
		UserID: "user-1",
		Email:  "sam@example.com",
		Role:   "student",
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: time.Now().Add(time.Hour).Unix(),
		},
	})

	claims, err := GetUserFromJWT(req, store, signingKey)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.True(t, claims.IsStudent())
	assert.False(t, claims.IsAdmin())
	assert.True(t, IsSignedOn(req, store, signingKey))
}

func TestGetUserFromJWTRejectsExpiredToken(t *testing.T) {
	store := sessions.NewCookieStore([]byte("session-test-key"))
	signingKey := []byte("jwt-test-key")

	req := signedInRequest(t, store, signingKey, UserJWT{
		UserID: "user-1",
		Role:   "student",
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: time.Now().Add(-time.Minute).Unix(),
		},
	})

	_, err := GetUserFromJWT(req, store, signingKey)
	assert.Error(t, err)
	assert.False(t, IsSignedOn(req, store, signingKey))
}

func TestGetUserFromJWTRejectsWrongKey(t *testing.T) {
	store := sessions.NewCookieStore([]byte("session-test-key"))

	req := signedInRequest(t, store, []byte("attacker-key"), UserJWT{
		UserID: "user-1",
		Role:   "admin",
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: time.Now().Add(time.Hour).Unix(),
		},
	})

	_, err := GetUserFromJWT(req, store, []byte("jwt-test-key"))
	assert.Error(t, err)
}

func TestGetUserFromJWTNoSession(t *testing.T) {
	store := sessions.NewCookieStore([]byte("session-test-key"))
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	_, err := GetUserFromJWT(req, store, []byte("jwt-test-key"))
	assert.Error(t, err)
}

func TestAdminAuthenticatedMiddleware(t *testing.T) {
	store := sessions.NewCookieStore([]byte("session-test-key"))
	signingKey := []byte("jwt-test-key")
	next := func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }
	handler := AdminAuthenticatedMiddleware(store, signingKey, next)

	t.Run("no session", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("signed in but not admin", func(t *testing.T) {
		req := signedInRequest(t, store, signingKey, UserJWT{
			UserID: "user-1",
			Role:   "company",
			StandardClaims: jwt.StandardClaims{
				ExpiresAt: time.Now().Add(time.Hour).Unix(),
			},
		})
		w := httptest.NewRecorder()
		handler(w, req)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("admin", func(t *testing.T) {
		req := signedInRequest(t, store, signingKey, UserJWT{
			UserID: "admin-1",
			Role:   "admin",
			StandardClaims: jwt.StandardClaims{
				ExpiresAt: time.Now().Add(time.Hour).Unix(),
			},
		})
		w := httptest.NewRecorder()
		handler(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}
