package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/Samuel871933/buylav2-sub001/internal/domain"
)

func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	var client *redis.Client
	if strings.HasPrefix(redisURL, "redis://") {
		opt, parseErr := redis.ParseURL(redisURL)
		if parseErr != nil {
			return nil, fmt.Errorf("parse redis url: %w", parseErr)
		}
		client = redis.NewClient(opt)
	} else {
		client = redis.NewClient(&redis.Options{Addr: redisURL})
	}
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

const (
	visitorKeyPrefix     = "attr:visitor:"
	attributionKeyPrefix = "attr:ref:"
)

// RedisAttributionStore keeps the server-side mirror of the visitor
// cookies. Redis TTLs carry the two independent expiry clocks: the
// visitor id never gets refreshed, the attribution window restarts on
// every overwrite.
type RedisAttributionStore struct {
	client *redis.Client
}

func NewRedisAttributionStore(client *redis.Client) *RedisAttributionStore {
	return &RedisAttributionStore{client: client}
}

func (s *RedisAttributionStore) EnsureVisitor(ctx context.Context, visitorID string) error {
	visitorID = strings.TrimSpace(visitorID)
	if visitorID == "" {
		return domain.ErrInvalidInput
	}
	// SETNX: first sight wins, the TTL is never extended afterwards.
	return s.client.SetNX(ctx, visitorKeyPrefix+visitorID, "1", domain.VisitorIDTTL).Err()
}

func (s *RedisAttributionStore) RecordVisit(ctx context.Context, visitorID, ambassadorRef string) error {
	visitorID = strings.TrimSpace(visitorID)
	ambassadorRef = strings.TrimSpace(ambassadorRef)
	if visitorID == "" || ambassadorRef == "" {
		return domain.ErrInvalidInput
	}
	return s.client.Set(ctx, attributionKeyPrefix+visitorID, ambassadorRef, domain.AttributionWindow).Err()
}

func (s *RedisAttributionStore) GetAttribution(ctx context.Context, visitorID string) (string, error) {
	value, err := s.client.Get(ctx, attributionKeyPrefix+strings.TrimSpace(visitorID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", domain.ErrNotFound
		}
		return "", err
	}
	return value, nil
}
