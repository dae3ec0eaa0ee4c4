package secrets

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/padelhub/storefront/pkg/cache"
	pkgsecrets "github.com/padelhub/storefront/pkg/secrets"
)

// Resolver fetches typed settings from a secrets Provider and caches them
// locally to reduce API calls.
//
// Secret naming convention: {env}/storefront/{name}
type Resolver[T any] struct {
	logger   *zap.Logger
	env      string
	provider pkgsecrets.Provider
	cache    *cache.Cache[T]
}

// NewResolver constructs a Resolver.
func NewResolver[T any](
	logger *zap.Logger,
	env string,
	provider pkgsecrets.Provider,
	cache *cache.Cache[T],
) *Resolver[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver[T]{
		logger:   logger,
		env:      env,
		provider: provider,
		cache:    cache,
	}
}

// SecretName builds the full secret key for name.
func (r *Resolver[T]) SecretName(name string) string {
	if strings.Contains(name, "/") {
		return name
	}
	return strings.ToLower(fmt.Sprintf("%s/storefront/%s", r.env, name))
}

// Resolve fetches or returns cached settings for name. parse extracts T from
// the raw secret map and should validate required fields.
func (r *Resolver[T]) Resolve(ctx context.Context, name string, parse func(map[string]string) (T, error)) (T, error) {
	secretName := r.SecretName(name)

	if cfg, ok := r.cache.Get(secretName); ok {
		return cfg, nil
	}

	secretMap, err := r.provider.GetSecret(ctx, secretName)
	if err != nil {
		r.logger.Warn("secrets.fetch_failed",
			zap.String("key", secretName),
			zap.Error(err))
		var zero T
		return zero, fmt.Errorf("resolve secret %q: %w", secretName, err)
	}

	cfg, err := parse(secretMap)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("parse secret %q: %w", secretName, err)
	}

	r.cache.Put(secretName, cfg)

	r.logger.Info("secrets.resolved", zap.String("key", secretName))
	return cfg, nil
}

// BackendSettings are the deployment values kept out of plain env vars.
type BackendSettings struct {
	BaseURL       string
	RedisPassword string
}

// ParseBackendSettings reads base_url (required, absolute URL) and redis_pass.
func ParseBackendSettings(m map[string]string) (BackendSettings, error) {
	raw := strings.TrimSpace(m["base_url"])
	if raw == "" {
		return BackendSettings{}, fmt.Errorf("missing base_url")
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return BackendSettings{}, fmt.Errorf("invalid base_url %q", raw)
	}
	return BackendSettings{
		BaseURL:       raw,
		RedisPassword: m["redis_pass"],
	}, nil
}
