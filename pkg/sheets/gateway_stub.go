package sheets

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

type AppendCall struct {
	StoreId   string
	RangeSpec string
	Rows      Grid
}

// StubGateway keeps spreadsheets in memory. Reads return whatever was registered for
// the store with SetGrid, regardless of the requested range.
type StubGateway struct {
	mu      sync.Mutex
	grids   map[string]Grid
	appends []AppendCall
	created []string
	nextId  int
	// Err, when set, is returned by every call.
	Err error
	// AppendErr, when set, is returned by AppendRows only.
	AppendErr error
}

func NewStubGateway() *StubGateway {
	return &StubGateway{grids: map[string]Grid{}}
}

func (s *StubGateway) SetGrid(storeId string, grid Grid) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grids[storeId] = grid
}

func (s *StubGateway) Appends() []AppendCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]AppendCall(nil), s.appends...)
}

func (s *StubGateway) Created() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.created...)
}

func (s *StubGateway) ReadRange(ctx context.Context, storeId string, rangeSpec string) (Grid, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	if storeId == "" || rangeSpec == "" {
		return nil, ErrValidation
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	grid, ok := s.grids[storeId]
	if !ok {
		return nil, ErrNotFound
	}
	return grid, nil
}

func (s *StubGateway) AppendRows(ctx context.Context, storeId string, rangeSpec string, rows Grid) (AppendResult, error) {
	if s.Err != nil {
		return AppendResult{}, s.Err
	}
	if s.AppendErr != nil {
		return AppendResult{}, s.AppendErr
	}
	if storeId == "" || rangeSpec == "" || len(rows) == 0 {
		return AppendResult{}, ErrValidation
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appends = append(s.appends, AppendCall{StoreId: storeId, RangeSpec: rangeSpec, Rows: rows})
	s.grids[storeId] = append(s.grids[storeId], rows...)
	sheet, _, _ := strings.Cut(rangeSpec, "!")
	return AppendResult{
		UpdatedRange: fmt.Sprintf("%s!A1:A%d", sheet, len(rows)),
		UpdatedRows:  int64(len(rows)),
	}, nil
}

func (s *StubGateway) CreateStore(ctx context.Context, name string) (string, error) {
	if s.Err != nil {
		return "", s.Err
	}
	if name == "" {
		name = DefaultStoreName
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextId++
	id := fmt.Sprintf("stub-store-%d", s.nextId)
	s.grids[id] = Grid{}
	s.created = append(s.created, name)
	return id, nil
}
