package responsecache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/ai-stockassistant/internal/domain/advisor"
)

// ValkeyStore persists shaped replies in a Valkey-compatible database so
// several replicas share one cache.
type ValkeyStore struct {
	client valkey.Client
	prefix string
}

// NewValkeyStore constructs a new store backed by Valkey.
func NewValkeyStore(client valkey.Client, prefix string) *ValkeyStore {
	if prefix == "" {
		prefix = "stockassistant:cache"
	}
	return &ValkeyStore{client: client, prefix: prefix}
}

func (s *ValkeyStore) Get(ctx context.Context, key string) (advisor.CacheEntry, bool, error) {
	if key == "" {
		return advisor.CacheEntry{}, false, nil
	}
	result := s.client.Do(ctx, s.client.B().Get().Key(s.entryKey(key)).Build())
	payload, err := result.ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return advisor.CacheEntry{}, false, nil
		}
		return advisor.CacheEntry{}, false, err
	}
	var entry advisor.CacheEntry
	if err := json.Unmarshal([]byte(payload), &entry); err != nil {
		return advisor.CacheEntry{}, false, err
	}
	return entry, true, nil
}

func (s *ValkeyStore) Put(ctx context.Context, entry advisor.CacheEntry, ttl time.Duration) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	builder := s.client.B().Set().Key(s.entryKey(entry.Key)).Value(string(payload))
	var cmd valkey.Completed
	if ttl > 0 {
		if ttl < time.Second {
			ttl = time.Second
		}
		cmd = builder.Ex(ttl).Build()
	} else {
		cmd = builder.Build()
	}
	return s.client.Do(ctx, cmd).Error()
}

func (s *ValkeyStore) entryKey(key string) string {
	return s.prefix + ":" + key
}

var _ advisor.Store = (*ValkeyStore)(nil)
