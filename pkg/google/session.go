package google

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/klokku/expensesheets/internal/utils"
	log "github.com/sirupsen/logrus"
)

type SessionService struct {
	repo  Repository
	clock utils.Clock
	ttl   time.Duration
}

func NewSessionService(repo Repository, clock utils.Clock, ttl time.Duration) *SessionService {
	return &SessionService{repo: repo, clock: clock, ttl: ttl}
}

func (s *SessionService) Create(ctx context.Context, userId int) (Session, error) {
	session := Session{
		Id:        uuid.New().String(),
		UserId:    userId,
		ExpiresAt: s.clock.Now().Add(s.ttl),
	}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		log.Errorf("failed to create session for user %d: %v", userId, err)
		return Session{}, err
	}
	return session, nil
}

// Resolve returns the user id behind a session id. Expired sessions are removed and
// reported as ErrSessionNotFound.
func (s *SessionService) Resolve(ctx context.Context, id string) (int, error) {
	session, err := s.repo.GetSession(ctx, id)
	if err != nil {
		return 0, err
	}
	if !s.clock.Now().Before(session.ExpiresAt) {
		if err := s.repo.DeleteSession(ctx, id); err != nil {
			log.Warnf("failed to delete expired session: %v", err)
		}
		return 0, ErrSessionNotFound
	}
	return session.UserId, nil
}

func (s *SessionService) Delete(ctx context.Context, id string) error {
	err := s.repo.DeleteSession(ctx, id)
	if errors.Is(err, ErrSessionNotFound) {
		return nil
	}
	return err
}
