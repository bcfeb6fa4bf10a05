package google

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/klokku/expensesheets/internal/config"
	"github.com/klokku/expensesheets/internal/event_bus"
	"github.com/klokku/expensesheets/internal/utils"
	"github.com/klokku/expensesheets/pkg/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type authFixture struct {
	auth     *GoogleAuth
	repo     *StubRepository
	users    *user.StubUserRepository
	bus      *event_bus.EventBus
	sessions *SessionService
}

func setupAuth() authFixture {
	cfg := config.Defaults()
	cfg.Google.ClientId = "client-id"
	clock := &utils.MockClock{FixedNow: testNow}
	repo := NewStubRepository()
	users := user.NewStubUserRepository()
	bus := event_bus.NewEventBus()
	sessions := NewSessionService(repo, clock, cfg.Session.TTL)
	oauthConfig := NewOAuthConfig(cfg)
	credentials := NewCredentialManager(repo, oauthConfig, clock)
	auth := NewGoogleAuth(repo, credentials, sessions, user.NewUserService(users), bus, oauthConfig, cfg)
	auth.exchange = func(ctx context.Context, code string) (*oauth2.Token, error) {
		if code != "good-code" {
			return nil, errors.New("invalid_grant")
		}
		return &oauth2.Token{AccessToken: "access", RefreshToken: "refresh", Expiry: testNow.Add(time.Hour)}, nil
	}
	auth.fetchProfile = func(ctx context.Context, token *oauth2.Token) (user.User, error) {
		return user.User{Uid: "sub-1", Email: "jane@example.com", DisplayName: "Jane"}, nil
	}
	return authFixture{auth: auth, repo: repo, users: users, bus: bus, sessions: sessions}
}

func TestGoogleAuth_OAuthLogin(t *testing.T) {
	t.Run("should return consent url with stored nonce", func(t *testing.T) {
		// given
		f := setupAuth()
		req := httptest.NewRequest(http.MethodGet, "/api/auth/google/login?finalUrl=http://localhost:3000/dashboard", nil)
		rec := httptest.NewRecorder()

		// when
		f.auth.OAuthLogin(rec, req)

		// then
		require.Equal(t, http.StatusOK, rec.Code)
		var body googleAuthRedirect
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		redirect, err := url.Parse(body.RedirectUrl)
		require.NoError(t, err)
		query := redirect.Query()
		assert.Equal(t, "offline", query.Get("access_type"))
		assert.Equal(t, "consent", query.Get("prompt"))
		assert.Contains(t, query.Get("scope"), "https://www.googleapis.com/auth/spreadsheets")
		finalUrl, err := f.repo.ConsumeState(context.Background(), query.Get("state"))
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:3000/dashboard", finalUrl)
	})
}

func TestGoogleAuth_OAuthCallback(t *testing.T) {
	t.Run("should sign user in, set cookie and publish event", func(t *testing.T) {
		// given
		f := setupAuth()
		_ = f.repo.SaveState(context.Background(), "nonce-1", "http://localhost:3000/dashboard")
		var published []event_bus.UserSignedIn
		event_bus.SubscribeTyped(f.bus, event_bus.UserSignedInEvent, func(e event_bus.EventT[event_bus.UserSignedIn]) error {
			current, err := user.CurrentUser(e.Context())
			assert.NoError(t, err)
			assert.Equal(t, e.Data.UserId, current.Id)
			published = append(published, e.Data)
			return nil
		})
		req := httptest.NewRequest(http.MethodGet, "/api/auth/google/callback?code=good-code&state=nonce-1", nil)
		rec := httptest.NewRecorder()

		// when
		f.auth.OAuthCallback(rec, req)

		// then
		require.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "http://localhost:3000/dashboard?success=true", rec.Header().Get("Location"))

		signedIn, err := f.users.GetUserByUid(context.Background(), "sub-1")
		require.NoError(t, err)
		credential, err := f.repo.GetCredential(context.Background(), signedIn.Id)
		require.NoError(t, err)
		assert.Equal(t, "refresh", credential.RefreshToken)

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, "session", cookies[0].Name)
		assert.True(t, cookies[0].HttpOnly)
		userId, err := f.sessions.Resolve(context.Background(), cookies[0].Value)
		require.NoError(t, err)
		assert.Equal(t, signedIn.Id, userId)

		assert.Equal(t, []event_bus.UserSignedIn{{
			UserId: signedIn.Id, Email: "jane@example.com", Name: "Jane", Provider: "google",
		}}, published)
	})

	t.Run("should redirect with failure when exchange fails", func(t *testing.T) {
		// given
		f := setupAuth()
		_ = f.repo.SaveState(context.Background(), "nonce-2", "http://localhost:3000/")
		req := httptest.NewRequest(http.MethodGet, "/api/auth/google/callback?code=bad&state=nonce-2", nil)
		rec := httptest.NewRecorder()

		// when
		f.auth.OAuthCallback(rec, req)

		// then
		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "http://localhost:3000/?success=false", rec.Header().Get("Location"))
		assert.Empty(t, rec.Result().Cookies())
	})

	t.Run("should reject unknown state", func(t *testing.T) {
		// given
		f := setupAuth()
		req := httptest.NewRequest(http.MethodGet, "/api/auth/google/callback?code=good-code&state=forged", nil)
		rec := httptest.NewRecorder()

		// when
		f.auth.OAuthCallback(rec, req)

		// then
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestGoogleAuth_OAuthLogout(t *testing.T) {
	t.Run("should delete session and expire cookie", func(t *testing.T) {
		// given
		f := setupAuth()
		session, _ := f.sessions.Create(context.Background(), 1)
		req := httptest.NewRequest(http.MethodDelete, "/api/auth/google/logout", nil)
		req.AddCookie(&http.Cookie{Name: "session", Value: session.Id})
		rec := httptest.NewRecorder()

		// when
		f.auth.OAuthLogout(rec, req)

		// then
		assert.Equal(t, http.StatusNoContent, rec.Code)
		_, err := f.sessions.Resolve(context.Background(), session.Id)
		assert.ErrorIs(t, err, ErrSessionNotFound)
		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, -1, cookies[0].MaxAge)
	})
}
