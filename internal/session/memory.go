package session

import (
	"context"
	"time"

	"github.com/padelhub/storefront/pkg/cache"
)

// MemoryStore keeps sessions in process. Sessions are lost on restart and are
// not shared between replicas.
type MemoryStore struct {
	cache *cache.Cache[Context]
	stop  chan struct{}
}

// NewMemoryStore starts a store whose expired entries are swept every interval.
func NewMemoryStore(defaultTTL, sweepInterval time.Duration) *MemoryStore {
	s := &MemoryStore{
		cache: cache.New[Context](defaultTTL),
		stop:  make(chan struct{}),
	}
	if sweepInterval > 0 {
		go s.cache.StartCleaner(sweepInterval, s.stop)
	}
	return s
}

func (s *MemoryStore) Save(_ context.Context, sess *Context, ttl time.Duration) error {
	s.cache.PutTTL(sess.ID, *sess, ttl)
	return nil
}

func (s *MemoryStore) Load(_ context.Context, id string) (*Context, error) {
	sess, ok := s.cache.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return &sess, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.cache.Bust(id)
	return nil
}

func (s *MemoryStore) HealthCheck(context.Context) error {
	return nil
}

func (s *MemoryStore) Close() error {
	select {
	case <-s.stop:
	default:
		close(s.stop)
	}
	return nil
}
