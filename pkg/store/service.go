package store

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/klokku/expensesheets/internal/event_bus"
	"github.com/klokku/expensesheets/internal/utils"
	"github.com/klokku/expensesheets/pkg/sheets"
	"github.com/klokku/expensesheets/pkg/user"
	log "github.com/sirupsen/logrus"
)

type Service interface {
	List(ctx context.Context) ([]StoreRef, error)
	Register(ctx context.Context, ref StoreRef) error
	// Remove forgets the store. The spreadsheet itself stays with the provider.
	Remove(ctx context.Context, storeId string) error
	// Create makes a new spreadsheet, fills in the template and registers it.
	Create(ctx context.Context, name string) (StoreRef, error)
}

type ServiceImpl struct {
	repo    Repository
	gateway sheets.Gateway
	bus     *event_bus.EventBus
	clock   utils.Clock
	// mu serializes read-modify-write cycles on store lists.
	mu sync.Mutex
}

func NewService(repo Repository, gateway sheets.Gateway, bus *event_bus.EventBus, clock utils.Clock) *ServiceImpl {
	return &ServiceImpl{
		repo:    repo,
		gateway: gateway,
		bus:     bus,
		clock:   clock,
	}
}

func currentUserKey(ctx context.Context) (string, error) {
	current, err := user.CurrentUser(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get current user: %w", err)
	}
	return current.Email, nil
}

func (s *ServiceImpl) List(ctx context.Context) ([]StoreRef, error) {
	userKey, err := currentUserKey(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.Load(ctx, userKey)
}

func (s *ServiceImpl) Register(ctx context.Context, ref StoreRef) error {
	userKey, err := currentUserKey(ctx)
	if err != nil {
		return err
	}
	return s.register(ctx, userKey, ref)
}

// register puts ref at the front of the list, replacing an entry with the same id.
func (s *ServiceImpl) register(ctx context.Context, userKey string, ref StoreRef) error {
	if ref.StoreId == "" {
		return ErrValidation
	}
	if ref.CreatedAt.IsZero() {
		ref.CreatedAt = s.clock.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	refs, err := s.repo.Load(ctx, userKey)
	if err != nil {
		return err
	}
	refs = slices.DeleteFunc(refs, func(r StoreRef) bool { return r.StoreId == ref.StoreId })
	refs = append([]StoreRef{ref}, refs...)
	return s.repo.Save(ctx, userKey, refs)
}

func (s *ServiceImpl) Remove(ctx context.Context, storeId string) error {
	userKey, err := currentUserKey(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	refs, err := s.repo.Load(ctx, userKey)
	if err != nil {
		return err
	}
	remaining := slices.DeleteFunc(refs, func(r StoreRef) bool { return r.StoreId == storeId })
	return s.repo.Save(ctx, userKey, remaining)
}

func (s *ServiceImpl) Create(ctx context.Context, name string) (StoreRef, error) {
	userKey, err := currentUserKey(ctx)
	if err != nil {
		return StoreRef{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return StoreRef{}, ErrValidation
	}

	storeId, err := s.gateway.CreateStore(ctx, name)
	if err != nil {
		return StoreRef{}, err
	}
	ref := StoreRef{StoreId: storeId, DisplayName: name, CreatedAt: s.clock.Now()}
	if _, err := s.gateway.AppendRows(ctx, storeId, templateRange, Template()); err != nil {
		// the spreadsheet exists either way; keep it reachable from the list
		if regErr := s.register(ctx, userKey, ref); regErr != nil {
			log.Errorf("failed to register store %s after template failure: %v", storeId, regErr)
		}
		return StoreRef{}, fmt.Errorf("spreadsheet %s created but template not written: %w", storeId, err)
	}

	if err := s.register(ctx, userKey, ref); err != nil {
		return StoreRef{}, err
	}
	log.Debugf("Created store %s (%s) for %s", storeId, name, userKey)

	event := event_bus.NewEvent(ctx, event_bus.StoreCreatedEvent, event_bus.StoreCreated{
		UserEmail:   userKey,
		StoreId:     storeId,
		DisplayName: name,
	})
	if err := s.bus.Publish(event); err != nil {
		log.Warnf("store.created handlers failed for %s: %v", storeId, err)
	}
	return ref, nil
}

// Subscribe registers stores created outside the wizard, through the raw create endpoint.
func (s *ServiceImpl) Subscribe(bus *event_bus.EventBus) {
	event_bus.SubscribeTyped(bus, event_bus.StoreCreatedEvent, func(e event_bus.EventT[event_bus.StoreCreated]) error {
		refs, err := s.repo.Load(e.Context(), e.Data.UserEmail)
		if err != nil {
			return err
		}
		if slices.ContainsFunc(refs, func(r StoreRef) bool { return r.StoreId == e.Data.StoreId }) {
			return nil
		}
		return s.register(e.Context(), e.Data.UserEmail, StoreRef{
			StoreId:     e.Data.StoreId,
			DisplayName: e.Data.DisplayName,
		})
	})
}
