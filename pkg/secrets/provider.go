package secrets

import (
	"context"
	"errors"
)

// ErrNotFound is returned by providers when the named secret does not exist.
var ErrNotFound = errors.New("secret not found")

// Provider defines a generic secrets manager interface.
type Provider interface {
	// GetSecret retrieves a secret by name and returns its key-value map.
	GetSecret(ctx context.Context, name string) (map[string]string, error)
}

// StaticProvider serves secrets from memory. Used when no secrets manager is
// configured and in tests.
type StaticProvider map[string]map[string]string

// GetSecret implements Provider.
func (p StaticProvider) GetSecret(_ context.Context, name string) (map[string]string, error) {
	s, ok := p[name]
	if !ok {
		return nil, ErrNotFound
	}
	out := make(map[string]string, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out, nil
}
