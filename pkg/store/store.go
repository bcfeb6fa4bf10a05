package store

import (
	"errors"
	"time"
)

// StoreRef points at one expense spreadsheet the user created through the app.
type StoreRef struct {
	StoreId     string
	DisplayName string
	CreatedAt   time.Time
}

var ErrValidation = errors.New("store name is required")
