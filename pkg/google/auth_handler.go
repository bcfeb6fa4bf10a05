package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"github.com/klokku/expensesheets/internal/config"
	"github.com/klokku/expensesheets/internal/event_bus"
	"github.com/klokku/expensesheets/internal/rest"
	"github.com/klokku/expensesheets/pkg/user"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

const ProviderName = "google"

type googleAuthRedirect struct {
	RedirectUrl string `json:"redirectUrl"`
}

type GoogleAuth struct {
	repo         Repository
	credentials  *CredentialManager
	sessions     *SessionService
	userService  user.Service
	bus          *event_bus.EventBus
	oauthConfig  *oauth2.Config
	host         string
	cookie       config.Session
	exchange     func(ctx context.Context, code string) (*oauth2.Token, error)
	fetchProfile func(ctx context.Context, token *oauth2.Token) (user.User, error)
}

func NewGoogleAuth(
	repo Repository,
	credentials *CredentialManager,
	sessions *SessionService,
	userService user.Service,
	bus *event_bus.EventBus,
	oauthConfig *oauth2.Config,
	cfg config.Application,
) *GoogleAuth {
	return &GoogleAuth{
		repo:        repo,
		credentials: credentials,
		sessions:    sessions,
		userService: userService,
		bus:         bus,
		oauthConfig: oauthConfig,
		host:        cfg.Host,
		cookie:      cfg.Session,
		exchange: func(ctx context.Context, code string) (*oauth2.Token, error) {
			return oauthConfig.Exchange(ctx, code)
		},
		fetchProfile: fetchGoogleProfile,
	}
}

func fetchGoogleProfile(ctx context.Context, token *oauth2.Token) (user.User, error) {
	service, err := oauth2api.NewService(ctx, option.WithTokenSource(oauth2.StaticTokenSource(token)))
	if err != nil {
		return user.User{}, fmt.Errorf("unable to create userinfo client: %w", err)
	}
	info, err := service.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return user.User{}, fmt.Errorf("unable to fetch Google profile: %w", err)
	}
	return user.User{
		Uid:         info.Id,
		Email:       info.Email,
		DisplayName: info.Name,
		PhotoUrl:    info.Picture,
	}, nil
}

// OAuthLogin godoc
// @Summary Start Google sign-in
// @Description Returns the Google consent URL. The user comes back through the callback.
// @Tags Auth
// @Produce json
// @Param finalUrl query string false "Where to send the browser after sign-in"
// @Success 200 {object} googleAuthRedirect
// @Failure 500 {object} rest.ErrorResponse
// @Router /api/auth/google/login [get]
func (g *GoogleAuth) OAuthLogin(w http.ResponseWriter, r *http.Request) {
	finalUrl := r.URL.Query().Get("finalUrl")
	if finalUrl == "" {
		finalUrl = g.host
	}

	nonce := uuid.New().String()
	if err := g.repo.SaveState(r.Context(), nonce, finalUrl); err != nil {
		rest.WriteError(w, http.StatusInternalServerError, "Failed to handle Google authentication")
		return
	}

	log.Tracef("Redirecting to Google auth URL with nonce: %s", nonce)
	u := g.oauthConfig.AuthCodeURL(nonce, oauth2.AccessTypeOffline, oauth2.ApprovalForce)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(googleAuthRedirect{RedirectUrl: u}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// OAuthCallback godoc
// @Summary Finish Google sign-in
// @Description Exchanges the authorization code, signs the user in and redirects to the final URL
// @Tags Auth
// @Param code query string true "Authorization code"
// @Param state query string true "State nonce"
// @Success 302
// @Failure 400 {object} rest.ErrorResponse "Unknown state"
// @Router /api/auth/google/callback [get]
func (g *GoogleAuth) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	code := r.FormValue("code")
	nonce := r.FormValue("state")

	finalUrl, err := g.repo.ConsumeState(ctx, nonce)
	if err != nil {
		log.Warnf("Google callback with unknown state: %v", err)
		rest.WriteError(w, http.StatusBadRequest, "Invalid authentication state")
		return
	}

	signedIn, err := g.signIn(ctx, code)
	if err != nil {
		log.Error(err)
		http.Redirect(w, r, withSuccess(finalUrl, false), http.StatusFound)
		return
	}

	session, err := g.sessions.Create(ctx, signedIn.Id)
	if err != nil {
		http.Redirect(w, r, withSuccess(finalUrl, false), http.StatusFound)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     g.cookie.CookieName,
		Value:    session.Id,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   g.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})

	event := event_bus.NewEvent(user.WithUser(ctx, signedIn), event_bus.UserSignedInEvent, event_bus.UserSignedIn{
		UserId:   signedIn.Id,
		Email:    signedIn.Email,
		Name:     signedIn.DisplayName,
		Provider: ProviderName,
	})
	if err := g.bus.Publish(event); err != nil {
		log.Warnf("sign-in handlers failed for user %d: %v", signedIn.Id, err)
	}

	log.Debugf("User %d signed in with Google", signedIn.Id)
	http.Redirect(w, r, withSuccess(finalUrl, true), http.StatusFound)
}

func (g *GoogleAuth) signIn(ctx context.Context, code string) (user.User, error) {
	token, err := g.exchange(ctx, code)
	if err != nil {
		return user.User{}, fmt.Errorf("unable to exchange code for token: %w", err)
	}
	profile, err := g.fetchProfile(ctx, token)
	if err != nil {
		return user.User{}, err
	}
	signedIn, err := g.userService.SignIn(ctx, profile)
	if err != nil {
		return user.User{}, fmt.Errorf("unable to sign in user %s: %w", profile.Email, err)
	}
	if err := g.credentials.Store(ctx, signedIn.Id, token); err != nil {
		return user.User{}, fmt.Errorf("unable to store Google credential: %w", err)
	}
	return signedIn, nil
}

// OAuthLogout godoc
// @Summary Sign out
// @Description Ends the current session. The user's store list is kept.
// @Tags Auth
// @Success 204
// @Router /api/auth/google/logout [delete]
func (g *GoogleAuth) OAuthLogout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(g.cookie.CookieName)
	if err == nil {
		if err := g.sessions.Delete(r.Context(), cookie.Value); err != nil {
			log.Errorf("failed to delete session: %v", err)
			rest.WriteError(w, http.StatusInternalServerError, "Failed to sign out")
			return
		}
	} else if !errors.Is(err, http.ErrNoCookie) {
		log.Debugf("unreadable session cookie: %v", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     g.cookie.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   g.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

func withSuccess(finalUrl string, success bool) string {
	u, err := url.Parse(finalUrl)
	if err != nil {
		return fmt.Sprintf("%s?success=%t", finalUrl, success)
	}
	query := u.Query()
	query.Set("success", fmt.Sprintf("%t", success))
	u.RawQuery = query.Encode()
	return u.String()
}
