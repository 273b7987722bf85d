package quotes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mmeshcher/rental-pricing/internal/model"
)

const keyPrefix = "rental:quote:"

// RedisStore хранит предложения в Redis с TTL до момента истечения.
type RedisStore struct {
	client redis.UniversalClient
	now    func() time.Time
}

// NewRedisClient подключается к Redis и проверяет соединение.
func NewRedisClient(ctx context.Context, addr, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return client, nil
}

// NewRedisStore создаёт хранилище поверх клиента Redis.
func NewRedisStore(client redis.UniversalClient, now func() time.Time) *RedisStore {
	if now == nil {
		now = time.Now
	}
	return &RedisStore{client: client, now: now}
}

func quoteKey(id string) string {
	return keyPrefix + id
}

// Save сохраняет предложение с TTL до ExpiresAt.
func (s *RedisStore) Save(ctx context.Context, q model.Quote) error {
	ttl := q.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return fmt.Errorf("save quote %s: already expired", q.ID)
	}

	payload, err := json.Marshal(q)
	if err != nil {
		return fmt.Errorf("marshal quote: %w", err)
	}

	if err := s.client.Set(ctx, quoteKey(q.ID), payload, ttl).Err(); err != nil {
		return fmt.Errorf("save quote: %w", err)
	}
	return nil
}

// Get возвращает предложение по идентификатору.
func (s *RedisStore) Get(ctx context.Context, id string) (*model.Quote, error) {
	payload, err := s.client.Get(ctx, quoteKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrQuoteNotFound
		}
		return nil, fmt.Errorf("get quote: %w", err)
	}

	var q model.Quote
	if err := json.Unmarshal(payload, &q); err != nil {
		return nil, fmt.Errorf("unmarshal quote: %w", err)
	}
	return &q, nil
}

// Delete удаляет предложение.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, quoteKey(id)).Err(); err != nil {
		return fmt.Errorf("delete quote: %w", err)
	}
	return nil
}
