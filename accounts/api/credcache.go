package api

import (
	"context"
	"time"

	"github.com/allegro/bigcache/v3"
)

type (
	// CredentialCache remembers credentials that already passed a ledger
	// check so the hot path of protected requests stays off the
	// database. Tokens are immutable, so a remembered credential never
	// needs invalidation; eviction only costs a re-check.
	CredentialCache interface {
		Remember(ctx context.Context, credential string) error
		Recall(ctx context.Context, credential string) (bool, error)
	}

	memCache struct {
		cache *bigcache.BigCache
	}
)

func InMemoryCredentialCache() CredentialCache {
	cache, _ := bigcache.NewBigCache(bigcache.DefaultConfig(10 * time.Minute))
	return &memCache{
		cache: cache,
	}
}

func (m *memCache) Remember(ctx context.Context, credential string) error {
	m.cache.Set(credential, []byte{1})
	return nil
}

func (m *memCache) Recall(ctx context.Context, credential string) (bool, error) {
	buf, err := m.cache.Get(credential)
	if err != nil {
		return false, nil
	}
	return (len(buf) > 0 && buf[0] == 1), nil
}
