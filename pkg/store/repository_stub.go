package store

import (
	"context"
	"slices"
	"sync"
)

type StubRepository struct {
	mu   sync.RWMutex
	data map[string][]StoreRef
}

func NewStubRepository() *StubRepository {
	return &StubRepository{data: map[string][]StoreRef{}}
}

func (s *StubRepository) Load(ctx context.Context, userKey string) ([]StoreRef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	refs := slices.Clone(s.data[userKey])
	if refs == nil {
		refs = []StoreRef{}
	}
	return refs, nil
}

func (s *StubRepository) Save(ctx context.Context, userKey string, refs []StoreRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[userKey] = slices.Clone(refs)
	return nil
}
