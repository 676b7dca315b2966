package guard_test

import (
	"context"

	"github.com/jrsteele09/go-lawfirm-console/backend"
	"github.com/jrsteele09/go-lawfirm-console/tokens"
	"github.com/jrsteele09/go-lawfirm-console/users"
)

func newMemStore() *tokens.MemoryStore {
	return tokens.NewMemoryStore()
}

// stubAPI always signs in an administrator.
type stubAPI struct{}

func (stubAPI) Me(context.Context, string) (*users.Identity, error) {
	return identity(users.RoleAdmin), nil
}

func (stubAPI) Login(context.Context, string, string) (*backend.AuthResponse, error) {
	return &backend.AuthResponse{AccessToken: "a", RefreshToken: "b", User: identity(users.RoleAdmin)}, nil
}

func (stubAPI) Logout(context.Context, string) error {
	return nil
}

func (stubAPI) Register(context.Context, users.Registration) (*backend.AuthResponse, error) {
	return &backend.AuthResponse{AccessToken: "a", RefreshToken: "b", User: identity(users.RoleClient)}, nil
}
