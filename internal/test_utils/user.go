package test_utils

import (
	"context"

	"github.com/klokku/expensesheets/pkg/user"
)

var TestUser = user.User{
	Id:          123,
	Uid:         "google-sub-123",
	Email:       "test.user@example.com",
	DisplayName: "Test User",
}

// WithTestUser attaches TestUser to ctx the way the session middleware does.
func WithTestUser(ctx context.Context) context.Context {
	return user.WithUser(ctx, TestUser)
}
