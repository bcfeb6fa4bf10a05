package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/klokku/expensesheets/internal/rest"
	"github.com/klokku/expensesheets/internal/utils"
	"github.com/klokku/expensesheets/pkg/google"
	"github.com/klokku/expensesheets/pkg/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCookie = "session"

var testNow = time.Date(2025, 5, 14, 10, 0, 0, 0, time.UTC)

type middlewareFixture struct {
	clock    *utils.MockClock
	sessions *google.SessionService
	users    *user.UserServiceImpl
	router   *mux.Router
}

func setupMiddleware(t *testing.T) middlewareFixture {
	t.Helper()
	clock := &utils.MockClock{FixedNow: testNow}
	sessions := google.NewSessionService(google.NewStubRepository(), clock, time.Hour)
	users := user.NewUserService(user.NewStubUserRepository())

	r := mux.NewRouter()
	r.Use(SessionMiddleware(testCookie, sessions, users))
	r.HandleFunc("/public", func(w http.ResponseWriter, req *http.Request) {
		u, err := user.CurrentUser(req.Context())
		if err != nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		_, _ = w.Write([]byte(u.Email))
	})
	protected := r.PathPrefix("/api").Subrouter()
	protected.Use(RequireUser)
	protected.HandleFunc("/private", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return middlewareFixture{clock: clock, sessions: sessions, users: users, router: r}
}

func (f middlewareFixture) signIn(t *testing.T) string {
	t.Helper()
	u, err := f.users.SignIn(context.Background(), user.User{Uid: "google-1", Email: "anna@example.com", DisplayName: "Anna"})
	require.NoError(t, err)
	session, err := f.sessions.Create(context.Background(), u.Id)
	require.NoError(t, err)
	return session.Id
}

func request(path string, sessionId string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if sessionId != "" {
		req.AddCookie(&http.Cookie{Name: testCookie, Value: sessionId})
	}
	return req
}

func TestSessionMiddleware(t *testing.T) {
	t.Run("should attach session user to context", func(t *testing.T) {
		// given
		f := setupMiddleware(t)
		sessionId := f.signIn(t)
		rec := httptest.NewRecorder()

		// when
		f.router.ServeHTTP(rec, request("/public", sessionId))

		// then
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "anna@example.com", rec.Body.String())
	})

	t.Run("should pass anonymous request without cookie", func(t *testing.T) {
		// given
		f := setupMiddleware(t)
		rec := httptest.NewRecorder()

		// when
		f.router.ServeHTTP(rec, request("/public", ""))

		// then
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("should ignore unknown session", func(t *testing.T) {
		// given
		f := setupMiddleware(t)
		rec := httptest.NewRecorder()

		// when
		f.router.ServeHTTP(rec, request("/public", "not-a-session"))

		// then
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("should ignore expired session", func(t *testing.T) {
		// given
		f := setupMiddleware(t)
		sessionId := f.signIn(t)
		f.clock.Advance(2 * time.Hour)
		rec := httptest.NewRecorder()

		// when
		f.router.ServeHTTP(rec, request("/public", sessionId))

		// then
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}

func TestRequireUser(t *testing.T) {
	t.Run("should reject anonymous request", func(t *testing.T) {
		// given
		f := setupMiddleware(t)
		rec := httptest.NewRecorder()

		// when
		f.router.ServeHTTP(rec, request("/api/private", ""))

		// then
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		var body rest.ErrorResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Equal(t, "Unauthorized", body.Error)
	})

	t.Run("should let signed-in user through", func(t *testing.T) {
		// given
		f := setupMiddleware(t)
		sessionId := f.signIn(t)
		rec := httptest.NewRecorder()

		// when
		f.router.ServeHTTP(rec, request("/api/private", sessionId))

		// then
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
