package sheets

import (
	"context"
	"errors"
	"fmt"
)

// Grid is a block of cell texts, rows first.
type Grid [][]string

type AppendResult struct {
	UpdatedRange string
	UpdatedRows  int64
}

const DefaultStoreName = "My New Sheet"

// Gateway is the remote spreadsheet store, acting as the user attached to ctx.
type Gateway interface {
	ReadRange(ctx context.Context, storeId string, rangeSpec string) (Grid, error)
	AppendRows(ctx context.Context, storeId string, rangeSpec string, rows Grid) (AppendResult, error)
	// CreateStore creates an empty spreadsheet and returns its id.
	CreateStore(ctx context.Context, name string) (string, error)
}

var (
	ErrUnauthorized = errors.New("Unauthorized")
	ErrValidation   = errors.New("missing required fields")
	ErrNotFound     = errors.New("spreadsheet not found")
	ErrInvalidRange = errors.New("invalid range")
)

// RemoteError is any other provider failure. Message is the provider's own text.
type RemoteError struct {
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("spreadsheet provider error (%d): %s", e.Status, e.Message)
}
