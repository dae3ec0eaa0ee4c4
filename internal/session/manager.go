package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/padelhub/storefront/pkg/model"
	"github.com/padelhub/storefront/pkg/utils"
)

// Manager owns the session lifecycle.
type Manager struct {
	store  Store
	ttl    time.Duration
	now    func() time.Time
	newID  func() string
	logger *zap.Logger
}

// NewManager builds a Manager issuing sessions that live for ttl.
func NewManager(store Store, ttl time.Duration, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		store:  store,
		ttl:    ttl,
		now:    time.Now,
		newID:  func() string { return uuid.NewString() },
		logger: logger,
	}
}

// Init creates a session for a freshly authenticated identity.
func (m *Manager) Init(ctx context.Context, identity model.Identity, token string) (*Context, error) {
	if token == "" {
		return nil, errors.New("session: empty token")
	}
	now := m.now().UTC()
	sess := &Context{
		ID:        m.newID(),
		Identity:  identity,
		Token:     token,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
	if err := m.store.Save(ctx, sess, m.ttl); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	m.logger.Info("session.initialized",
		zap.String("session_id", sess.ID),
		zap.String("user_id", identity.ID),
		zap.String("role", string(identity.Role)),
		zap.String("token", utils.MaskToken(token)),
	)
	return sess, nil
}

// Get returns the live session for id, or ErrNotFound.
func (m *Manager) Get(ctx context.Context, id string) (*Context, error) {
	if id == "" {
		return nil, ErrNotFound
	}
	sess, err := m.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !sess.ExpiresAt.IsZero() && m.now().After(sess.ExpiresAt) {
		_ = m.store.Delete(ctx, id)
		return nil, ErrNotFound
	}
	return sess, nil
}

// Teardown destroys the session. Unknown ids are not an error.
func (m *Manager) Teardown(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if err := m.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	m.logger.Info("session.torn_down", zap.String("session_id", id))
	return nil
}

// HealthCheck checks the underlying store.
func (m *Manager) HealthCheck(ctx context.Context) error {
	return m.store.HealthCheck(ctx)
}

// TTL is the lifetime of new sessions.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}
