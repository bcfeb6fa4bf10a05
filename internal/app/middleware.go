package app

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/klokku/expensesheets/internal/config"
	"github.com/klokku/expensesheets/internal/rest"
	"github.com/klokku/expensesheets/pkg/google"
	"github.com/klokku/expensesheets/pkg/user"
	log "github.com/sirupsen/logrus"
)

type sessionResolver interface {
	Resolve(ctx context.Context, id string) (int, error)
}

type userLookup interface {
	GetUser(ctx context.Context, id int) (user.User, error)
}

// SetupMiddleware wires all HTTP middlewares for the application.
func SetupMiddleware(r *mux.Router, deps *Dependencies, cfg config.Application) {
	r.Use(SessionMiddleware(cfg.Session.CookieName, deps.Sessions, deps.UserService))
}

// SessionMiddleware puts the user owning the session cookie into the request context.
// Requests without a valid session pass through anonymous.
func SessionMiddleware(cookieName string, sessions sessionResolver, users userLookup) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			cookie, err := req.Cookie(cookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, req)
				return
			}

			ctx := req.Context()
			userId, err := sessions.Resolve(ctx, cookie.Value)
			if err != nil {
				if !errors.Is(err, google.ErrSessionNotFound) {
					log.Errorf("failed to resolve session: %v", err)
				}
				next.ServeHTTP(w, req)
				return
			}

			u, err := users.GetUser(ctx, userId)
			if err != nil {
				if errors.Is(err, user.ErrUserNotFound) {
					log.Debugf("session %s points to missing user %d", cookie.Value, userId)
				} else {
					log.Errorf("failed to get user: %v", err)
				}
				next.ServeHTTP(w, req)
				return
			}

			log.Tracef("user found: %s", u.Uid)
			next.ServeHTTP(w, req.WithContext(user.WithUser(ctx, u)))
		})
	}
}

// RequireUser rejects requests that carry no signed-in user.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if _, err := user.CurrentUser(req.Context()); err != nil {
			rest.WriteError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, req)
	})
}
