package google

import (
	"time"

	"golang.org/x/oauth2"
)

// RefreshAccessTokenError is the reason recorded when a refresh-token exchange fails.
const RefreshAccessTokenError = "RefreshAccessTokenError"

type CredentialState int

const (
	CredentialValid CredentialState = iota
	CredentialExpired
	CredentialError
)

func (s CredentialState) String() string {
	switch s {
	case CredentialValid:
		return "valid"
	case CredentialExpired:
		return "expired"
	case CredentialError:
		return "error"
	}
	return "unknown"
}

// Credential is the delegated Google credential of one user. A non-empty ErrorReason
// marks it unusable until the user signs in again.
type Credential struct {
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
	ErrorReason  string
}

func NewCredential(token *oauth2.Token) Credential {
	return Credential{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		Expiry:       token.Expiry,
	}
}

func (c Credential) State(now time.Time) CredentialState {
	switch {
	case c.ErrorReason != "":
		return CredentialError
	case now.Before(c.Expiry):
		return CredentialValid
	default:
		return CredentialExpired
	}
}

// Refreshed applies a freshly issued token. Google usually omits the refresh token on
// refresh, in which case the current one is kept.
func (c Credential) Refreshed(token *oauth2.Token) Credential {
	refreshed := NewCredential(token)
	if refreshed.RefreshToken == "" {
		refreshed.RefreshToken = c.RefreshToken
	}
	return refreshed
}

func (c Credential) Failed(reason string) Credential {
	c.ErrorReason = reason
	return c
}

func (c Credential) Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  c.AccessToken,
		RefreshToken: c.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       c.Expiry,
	}
}
