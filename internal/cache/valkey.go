package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"tamasya/internal/models"
)

// ValkeyClient caches activity records so the live price-preview endpoint
// does not hit Postgres on every keystroke of the booking widget.
type ValkeyClient struct {
	client *redis.Client
	ttl    time.Duration
}

type Config struct {
	Addr     string
	Password string
	TTLSec   int
}

func NewValkeyClient(cfg Config) (*ValkeyClient, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           0,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		DialTimeout:  5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Valkey: %w", err)
	}

	ttl := time.Duration(cfg.TTLSec) * time.Second
	if ttl == 0 {
		ttl = 5 * time.Minute
	}

	return &ValkeyClient{client: rdb, ttl: ttl}, nil
}

func activityKey(id int64) string {
	return fmt.Sprintf("activity:%d", id)
}

func (v *ValkeyClient) GetActivity(ctx context.Context, id int64) (*models.Activity, error) {
	data, err := v.client.Get(ctx, activityKey(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("cache lookup error: %w", err)
	}

	var activity models.Activity
	if err := json.Unmarshal(data, &activity); err != nil {
		return nil, fmt.Errorf("invalid cached activity: %w", err)
	}

	return &activity, nil
}

func (v *ValkeyClient) SetActivity(ctx context.Context, activity *models.Activity) error {
	data, err := json.Marshal(activity)
	if err != nil {
		return fmt.Errorf("failed to marshal activity: %w", err)
	}

	return v.client.Set(ctx, activityKey(activity.ID), data, v.ttl).Err()
}

// InvalidateActivity drops the cached record after aggregate updates.
func (v *ValkeyClient) InvalidateActivity(ctx context.Context, id int64) error {
	return v.client.Del(ctx, activityKey(id)).Err()
}

func (v *ValkeyClient) Close() error {
	return v.client.Close()
}
