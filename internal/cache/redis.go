package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrGrantNotFound is returned when a grant token is unknown or expired.
var ErrGrantNotFound = errors.New("grant not found")

// ShareGrant is the viewer session minted after a share gate is passed.
type ShareGrant struct {
	ShareID            int64     `json:"shareId"`
	DocumentID         int64     `json:"documentId"`
	Email              string    `json:"email,omitempty"`
	Download           bool      `json:"download"`
	Print              bool      `json:"print"`
	WatermarkText      string    `json:"watermarkText,omitempty"`
	DownloadsRemaining *int      `json:"downloadsRemaining,omitempty"`
	IssuedAt           time.Time `json:"issuedAt"`
}

// RedisClient wraps the Redis client for share grants and per-share locks
type RedisClient struct {
	client *redis.Client
}

// NewRedisClient creates a new Redis client
func NewRedisClient(addr, password string, db int) (*RedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	log.Printf("[Redis] Connected to %s", addr)
	return &RedisClient{client: client}, nil
}

// SaveGrant stores a viewer grant under its token with a TTL
func (r *RedisClient) SaveGrant(ctx context.Context, token string, grant *ShareGrant, ttl time.Duration) error {
	grant.IssuedAt = time.Now()

	data, err := json.Marshal(grant)
	if err != nil {
		return err
	}

	return r.client.Set(ctx, "share:grant:"+token, data, ttl).Err()
}

// GetGrant retrieves a viewer grant by token
func (r *RedisClient) GetGrant(ctx context.Context, token string) (*ShareGrant, error) {
	data, err := r.client.Get(ctx, "share:grant:"+token).Result()
	if err == redis.Nil {
		return nil, ErrGrantNotFound
	}
	if err != nil {
		return nil, err
	}

	var grant ShareGrant
	if err := json.Unmarshal([]byte(data), &grant); err != nil {
		return nil, err
	}
	return &grant, nil
}

// UpdateGrant rewrites a grant keeping its remaining TTL
func (r *RedisClient) UpdateGrant(ctx context.Context, token string, grant *ShareGrant) error {
	data, err := json.Marshal(grant)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, "share:grant:"+token, data, redis.KeepTTL).Err()
}

// DeleteGrant revokes a viewer grant
func (r *RedisClient) DeleteGrant(ctx context.Context, token string) error {
	return r.client.Del(ctx, "share:grant:"+token).Err()
}

// AcquireShareLock takes the per-share serialization lock.
// Gate evaluation and download counting on one share must not interleave.
func (r *RedisClient) AcquireShareLock(ctx context.Context, shareID int64, ttl time.Duration) (bool, error) {
	return r.client.SetNX(ctx, shareLockKey(shareID), 1, ttl).Result()
}

// ReleaseShareLock releases the per-share lock
func (r *RedisClient) ReleaseShareLock(ctx context.Context, shareID int64) error {
	return r.client.Del(ctx, shareLockKey(shareID)).Err()
}

func shareLockKey(shareID int64) string {
	return "share:lock:" + strconv.FormatInt(shareID, 10)
}

// Close closes the Redis connection
func (r *RedisClient) Close() error {
	return r.client.Close()
}

// Health checks if Redis is healthy
func (r *RedisClient) Health(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
