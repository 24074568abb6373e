package reccache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/codify/internal/domain/recommendation"
)

// ValkeyStore keeps recommendation picks in Valkey with a native TTL.
type ValkeyStore struct {
	client valkey.Client
	prefix string
	ttl    time.Duration
}

// NewValkeyStore constructs a store backed by Valkey.
func NewValkeyStore(client valkey.Client, prefix string, ttl time.Duration) *ValkeyStore {
	if prefix == "" {
		prefix = "codify"
	}
	return &ValkeyStore{client: client, prefix: prefix, ttl: ttl}
}

// Get implements recommendation.Cache.
func (s *ValkeyStore) Get(ctx context.Context, key string) ([]recommendation.CachedPick, bool, error) {
	payload, err := s.client.Do(ctx, s.client.B().Get().Key(s.entryKey(key)).Build()).ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var picks []recommendation.CachedPick
	if err := json.Unmarshal([]byte(payload), &picks); err != nil {
		return nil, false, err
	}
	return picks, true, nil
}

// Put implements recommendation.Cache.
func (s *ValkeyStore) Put(ctx context.Context, key string, picks []recommendation.CachedPick) error {
	payload, err := json.Marshal(picks)
	if err != nil {
		return err
	}
	builder := s.client.B().Set().Key(s.entryKey(key)).Value(string(payload))
	var cmd valkey.Completed
	if ttl := s.ttl; ttl > 0 {
		if ttl < time.Second {
			ttl = time.Second
		}
		cmd = builder.Ex(ttl).Build()
	} else {
		cmd = builder.Build()
	}
	return s.client.Do(ctx, cmd).Error()
}

// Delete implements recommendation.Cache.
func (s *ValkeyStore) Delete(ctx context.Context, key string) error {
	return s.client.Do(ctx, s.client.B().Del().Key(s.entryKey(key)).Build()).Error()
}

func (s *ValkeyStore) entryKey(key string) string {
	return s.prefix + ":" + key
}

var _ recommendation.Cache = (*ValkeyStore)(nil)
