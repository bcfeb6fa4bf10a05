package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/klokku/expensesheets/internal/config"
	"github.com/klokku/expensesheets/internal/utils"
	"github.com/klokku/expensesheets/pkg/user"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/sync/singleflight"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/sheets/v4"
)

// ErrUnauthenticated means the user has no usable Google credential and must go
// through the sign-in flow again.
var ErrUnauthenticated = errors.New("user is unauthenticated, authentication is required")

const callbackPath = "/api/auth/google/callback"

func NewOAuthConfig(cfg config.Application) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.Google.ClientId,
		ClientSecret: cfg.Google.ClientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  cfg.Host + callbackPath,
		Scopes:       []string{"openid", "email", "profile", drive.DriveScope, sheets.SpreadsheetsScope},
	}
}

type refreshFunc func(ctx context.Context, credential Credential) (*oauth2.Token, error)

// CredentialManager hands out access tokens, refreshing an expired credential once.
// Concurrent callers for the same user share a single refresh.
type CredentialManager struct {
	repo    Repository
	clock   utils.Clock
	refresh refreshFunc
	group   singleflight.Group
}

func NewCredentialManager(repo Repository, oauthConfig *oauth2.Config, clock utils.Clock) *CredentialManager {
	return &CredentialManager{
		repo:  repo,
		clock: clock,
		refresh: func(ctx context.Context, credential Credential) (*oauth2.Token, error) {
			// no access token forces the source to go to the token endpoint
			return oauthConfig.TokenSource(ctx, &oauth2.Token{RefreshToken: credential.RefreshToken}).Token()
		},
	}
}

// Store replaces the user's credential, clearing any earlier failure.
func (m *CredentialManager) Store(ctx context.Context, userId int, token *oauth2.Token) error {
	return m.repo.SaveCredential(ctx, userId, NewCredential(token))
}

func (m *CredentialManager) Token(ctx context.Context, userId int) (*oauth2.Token, error) {
	credential, err := m.repo.GetCredential(ctx, userId)
	if errors.Is(err, ErrCredentialNotFound) {
		return nil, ErrUnauthenticated
	}
	if err != nil {
		return nil, fmt.Errorf("unable to load Google credential: %w", err)
	}

	switch credential.State(m.clock.Now()) {
	case CredentialValid:
		return credential.Token(), nil
	case CredentialError:
		log.Debugf("Google credential of user %d is in error state: %s", userId, credential.ErrorReason)
		return nil, fmt.Errorf("%w: %s", ErrUnauthenticated, credential.ErrorReason)
	}

	// the refresh is shared by every waiter, so one caller's cancellation must not end it
	refreshCtx := context.WithoutCancel(ctx)
	token, err, _ := m.group.Do(strconv.Itoa(userId), func() (any, error) {
		return m.refreshCredential(refreshCtx, userId, credential)
	})
	if err != nil {
		return nil, err
	}
	return token.(*oauth2.Token), nil
}

func (m *CredentialManager) refreshCredential(ctx context.Context, userId int, credential Credential) (*oauth2.Token, error) {
	log.Debugf("Refreshing expired Google credential of user %d", userId)
	token, err := m.refresh(ctx, credential)
	if err != nil {
		log.Warnf("Google token refresh failed for user %d: %v", userId, err)
		if saveErr := m.repo.SaveCredential(ctx, userId, credential.Failed(RefreshAccessTokenError)); saveErr != nil {
			log.Errorf("unable to mark credential of user %d as failed: %v", userId, saveErr)
		}
		return nil, fmt.Errorf("%w: %s", ErrUnauthenticated, RefreshAccessTokenError)
	}

	refreshed := credential.Refreshed(token)
	if err := m.repo.SaveCredential(ctx, userId, refreshed); err != nil {
		return nil, fmt.Errorf("unable to store refreshed Google credential: %w", err)
	}
	return refreshed.Token(), nil
}

// HTTPClient returns a client authorized as the user attached to ctx.
func (m *CredentialManager) HTTPClient(ctx context.Context) (*http.Client, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	token, err := m.Token(ctx, userId)
	if err != nil {
		return nil, err
	}
	return oauth2.NewClient(ctx, oauth2.StaticTokenSource(token)), nil
}
