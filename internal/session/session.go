package session

import (
	"context"
	"errors"
	"time"

	"github.com/padelhub/storefront/pkg/model"
)

// ErrNotFound is returned when a session id is unknown or expired.
var ErrNotFound = errors.New("session not found")

// Context is the per-request view of a signed-in (or anonymous) user. It is
// created at login, read on each request and destroyed at logout.
type Context struct {
	ID        string         `json:"id"`
	Identity  model.Identity `json:"identity"`
	Token     string         `json:"token"`
	CreatedAt time.Time      `json:"createdAt"`
	ExpiresAt time.Time      `json:"expiresAt"`
}

// Anonymous is the context of a request without a session.
func Anonymous() *Context {
	return &Context{}
}

// Authenticated reports whether the context carries a backend token.
func (c *Context) Authenticated() bool {
	return c != nil && c.Token != ""
}

// Store persists session contexts.
type Store interface {
	Save(ctx context.Context, s *Context, ttl time.Duration) error
	Load(ctx context.Context, id string) (*Context, error)
	Delete(ctx context.Context, id string) error
	HealthCheck(ctx context.Context) error
	Close() error
}
