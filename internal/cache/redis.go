// Package cache is the shared redis layer: competitive-data snapshots with a
// short TTL, plus bookkeeping for images uploaded before their product row
// exists.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/partsbay/partsbay/pkg/utils"
)

var (
	ErrInvalidTTL = errors.New("cache: ttl must be > 0")
)

const (
	TempImageListKey = "temp_image_names"

	// CompetitiveTTL keeps competitive snapshots hot between bursts of offer
	// activity without letting them outlive the next round trip for long.
	CompetitiveTTL = 30 * time.Second
)

type Cacher interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, val string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
	AddImageNameToTempList(ctx context.Context, imageName string) error
	RemoveImageNameFromTempList(ctx context.Context, imageName string) error
}

type RedisCache struct {
	client *redis.Client
}

func NewRedisClient(ctx context.Context) (*RedisCache, error) {
	addr := utils.GetEnv("REDIS_ADDR", "localhost:6379")
	passwrd := utils.GetEnv("REDIS_PASSWORD", "")
	db := utils.GetIntEnv("REDIS_DB", 0)
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     passwrd,
		DB:           db,
		PoolSize:     50,
		MinIdleConns: 10,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return &RedisCache{
		client: client,
	}, nil
}

func (r *RedisCache) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		// cache miss - not an error
		return "", false, nil
	}
	if err != nil {
		// real failure (timeout, connection issue, etc.)
		return "", false, err
	}

	return val, true, nil
}

func (r *RedisCache) Set(ctx context.Context, key, val string, ttl time.Duration) error {
	if ttl <= 0 {
		return ErrInvalidTTL
	}
	return r.client.Set(ctx, key, val, ttl).Err()
}

func (r *RedisCache) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}

func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisCache) AddImageNameToTempList(ctx context.Context, imageName string) error {
	return r.client.LPush(ctx, TempImageListKey, imageName).Err()
}

func (r *RedisCache) RemoveImageNameFromTempList(ctx context.Context, imageName string) error {
	return r.client.LRem(ctx, TempImageListKey, 0, imageName).Err()
}

// CompetitiveGenKey names the generation marker for a product's competitive
// snapshots. Rotating it on every offer write invalidates all snapshots for
// the product at once, without scanning per-viewer keys.
func CompetitiveGenKey(productID string) string {
	return "competitive_gen:" + productID
}

// CompetitiveKey names one viewer's competitive snapshot under a given
// generation.
func CompetitiveKey(productID, viewerID, gen string) string {
	return "competitive:" + productID + ":" + viewerID + ":" + gen
}
