package room

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/mcdev12/jokenpo/go/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const cacheKeyPrefix = "jokenpo:room:"

// RowCache is the key/value surface CachedStore needs.
type RowCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// RedisRowCache adapts a go-redis client to RowCache.
type RedisRowCache struct {
	client *redis.Client
}

func NewRedisRowCache(client *redis.Client) *RedisRowCache {
	return &RedisRowCache{client: client}
}

func (c *RedisRowCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (c *RedisRowCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

func (c *RedisRowCache) Del(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

// CachedStore is a read-through, write-through cache in front of a Store.
// Cache failures are logged and never fail the call; the inner Store is
// the source of truth.
type CachedStore struct {
	inner Store
	cache RowCache
	ttl   time.Duration
}

func NewCachedStore(inner Store, cache RowCache, ttl time.Duration) *CachedStore {
	return &CachedStore{inner: inner, cache: cache, ttl: ttl}
}

func (s *CachedStore) CreateRoom(ctx context.Context, code string, ownerID int64) (*models.Room, error) {
	row, err := s.inner.CreateRoom(ctx, code, ownerID)
	if err != nil {
		return nil, err
	}
	s.put(ctx, row)
	return row, nil
}

func (s *CachedStore) FindByCode(ctx context.Context, code string) (*models.Room, error) {
	b, ok, err := s.cache.Get(ctx, cacheKeyPrefix+code)
	if err != nil {
		log.Warn().Err(err).Str("room_code", code).Msg("room cache read failed")
	}
	if ok {
		var row models.Room
		if err := json.Unmarshal(b, &row); err == nil {
			return &row, nil
		}
		log.Warn().Str("room_code", code).Msg("dropping undecodable cached room")
		s.drop(ctx, code)
	}

	row, err := s.inner.FindByCode(ctx, code)
	if err != nil || row == nil {
		return row, err
	}
	s.put(ctx, row)
	return row, nil
}

func (s *CachedStore) FillOwnerSeat(ctx context.Context, code string, ownerID int64, status models.RoomStatus) (*models.Room, error) {
	return s.write(ctx, code, func() (*models.Room, error) {
		return s.inner.FillOwnerSeat(ctx, code, ownerID, status)
	})
}

func (s *CachedStore) FillSecondSeat(ctx context.Context, code string, opponentID int64, status models.RoomStatus) (*models.Room, error) {
	return s.write(ctx, code, func() (*models.Room, error) {
		return s.inner.FillSecondSeat(ctx, code, opponentID, status)
	})
}

func (s *CachedStore) UpdateStatus(ctx context.Context, code string, status models.RoomStatus) (*models.Room, error) {
	return s.write(ctx, code, func() (*models.Room, error) {
		return s.inner.UpdateStatus(ctx, code, status)
	})
}

func (s *CachedStore) write(ctx context.Context, code string, fn func() (*models.Room, error)) (*models.Room, error) {
	row, err := fn()
	if err != nil {
		// the row may or may not have changed
		s.drop(ctx, code)
		return nil, err
	}
	s.put(ctx, row)
	return row, nil
}

func (s *CachedStore) put(ctx context.Context, row *models.Room) {
	b, err := json.Marshal(row)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, cacheKeyPrefix+row.Code, b, s.ttl); err != nil {
		log.Warn().Err(err).Str("room_code", row.Code).Msg("room cache write failed")
	}
}

func (s *CachedStore) drop(ctx context.Context, code string) {
	if err := s.cache.Del(ctx, cacheKeyPrefix+code); err != nil {
		log.Warn().Err(err).Str("room_code", code).Msg("room cache delete failed")
	}
}
