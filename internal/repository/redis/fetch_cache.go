package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"diligence/pkg/errors"
)

const fetchCachePrefix = "fetch_cache"

// Entry is one cached fetch result.
type Entry struct {
	Tool     string    `json:"tool"`
	Payload  string    `json:"payload"`
	CachedAt time.Time `json:"cached_at"`
}

// FetchCacheRepository memoizes external fetch results (web search, document
// exports, channel history) keyed by tool name and request fingerprint.
type FetchCacheRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewFetchCacheRepository creates a new fetch cache repository
func NewFetchCacheRepository(client *redis.Client, ttl time.Duration) *FetchCacheRepository {
	return &FetchCacheRepository{
		client: client,
		ttl:    ttl,
	}
}

// Get retrieves a cached payload. Returns ErrNotFound on miss.
func (r *FetchCacheRepository) Get(ctx context.Context, tool, request string) (string, error) {
	key := r.getKey(tool, request)

	data, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", errors.Wrapf(errors.ErrNotFound, "cache miss for tool=%s", tool)
	}
	if err != nil {
		return "", errors.Wrapf(err, "failed to get cache entry from redis: tool=%s", tool)
	}

	var entry Entry
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		return "", errors.Wrapf(err, "failed to unmarshal cache entry: tool=%s", tool)
	}

	return entry.Payload, nil
}

// Set stores a payload under the tool and request fingerprint.
func (r *FetchCacheRepository) Set(ctx context.Context, tool, request, payload string) error {
	key := r.getKey(tool, request)

	entry := Entry{
		Tool:     tool,
		Payload:  payload,
		CachedAt: time.Now().UTC(),
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return errors.Wrapf(err, "failed to marshal cache entry: tool=%s", tool)
	}

	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		return errors.Wrapf(err, "failed to save cache entry to redis: tool=%s", tool)
	}

	return nil
}

// Clear removes every cached fetch result.
func (r *FetchCacheRepository) Clear(ctx context.Context) (int64, error) {
	var deleted int64
	iter := r.client.Scan(ctx, 0, fetchCachePrefix+":*", 100).Iterator()
	for iter.Next(ctx) {
		if err := r.client.Del(ctx, iter.Val()).Err(); err != nil {
			return deleted, errors.Wrap(err, "failed to delete cache entry")
		}
		deleted++
	}
	if err := iter.Err(); err != nil {
		return deleted, errors.Wrap(err, "failed to scan cache keys")
	}

	return deleted, nil
}

func (r *FetchCacheRepository) getKey(tool, request string) string {
	sum := sha256.Sum256([]byte(request))
	return fmt.Sprintf("%s:%s:%s", fetchCachePrefix, tool, hex.EncodeToString(sum[:16]))
}
