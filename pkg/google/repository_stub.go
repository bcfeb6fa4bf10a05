package google

import (
	"context"
	"sync"
)

type StubRepository struct {
	mu          sync.RWMutex
	states      map[string]string
	credentials map[int]Credential
	sessions    map[string]Session
}

func NewStubRepository() *StubRepository {
	return &StubRepository{
		states:      map[string]string{},
		credentials: map[int]Credential{},
		sessions:    map[string]Session{},
	}
}

func (s *StubRepository) SaveState(ctx context.Context, nonce string, finalUrl string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[nonce] = finalUrl
	return nil
}

func (s *StubRepository) ConsumeState(ctx context.Context, nonce string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	finalUrl, ok := s.states[nonce]
	if !ok {
		return "", ErrStateNotFound
	}
	delete(s.states, nonce)
	return finalUrl, nil
}

func (s *StubRepository) GetCredential(ctx context.Context, userId int) (Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	credential, ok := s.credentials[userId]
	if !ok {
		return Credential{}, ErrCredentialNotFound
	}
	return credential, nil
}

func (s *StubRepository) SaveCredential(ctx context.Context, userId int, credential Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credentials[userId] = credential
	return nil
}

func (s *StubRepository) CreateSession(ctx context.Context, session Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.Id] = session
	return nil
}

func (s *StubRepository) GetSession(ctx context.Context, id string) (Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	return session, nil
}

func (s *StubRepository) DeleteSession(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}
