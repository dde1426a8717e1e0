package caching

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const presenceKey = "clawe:presence"

type CacheService interface {
	// Presence snapshot: agent slug -> derived status, maintained by the
	// background refresher.
	GetPresence(ctx context.Context) (map[string]string, error)
	SetPresence(ctx context.Context, presence map[string]string, ttl time.Duration) error

	// Generic string operations.
	SetString(ctx context.Context, key string, value string, ttl time.Duration) error
	GetString(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error

	Ping(ctx context.Context) error
}

type redisCacheService struct {
	client *redis.Client
}

func NewRedisCacheService(addr, password string, db int) CacheService {
	// Accept redis://host:port as well as bare host:port.
	parsedAddr := addr
	if hostPort := strings.TrimPrefix(strings.TrimPrefix(addr, "redis://"), "rediss://"); hostPort != addr {
		parsedAddr = hostPort
	}

	client := redis.NewClient(&redis.Options{
		Addr:     parsedAddr,
		Password: password,
		DB:       db,
	})
	return &redisCacheService{client: client}
}

func (s *redisCacheService) GetPresence(ctx context.Context) (map[string]string, error) {
	data, err := s.client.Get(ctx, presenceKey).Result()
	if errors.Is(err, redis.Nil) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}

	var presence map[string]string
	if err := json.Unmarshal([]byte(data), &presence); err != nil {
		return nil, err
	}
	return presence, nil
}

func (s *redisCacheService) SetPresence(ctx context.Context, presence map[string]string, ttl time.Duration) error {
	data, err := json.Marshal(presence)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, presenceKey, data, ttl).Err()
}

func (s *redisCacheService) SetString(ctx context.Context, key string, value string, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

func (s *redisCacheService) GetString(ctx context.Context, key string) (string, error) {
	value, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return value, err
}

func (s *redisCacheService) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

func (s *redisCacheService) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
