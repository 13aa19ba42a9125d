package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/pediforte/registration-api/internal/models"
)

const sessionKeyPrefix = "session:"

// redisSessionClient is the subset of *redis.Client the session store needs.
type redisSessionClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisSessionRepository stores admin sessions in redis with a TTL matching
// their expiry. Every round trip goes through a circuit breaker.
type RedisSessionRepository struct {
	client  redisSessionClient
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
	now     func() time.Time
}

// NewRedisSessionRepository constructs a redis-backed session store.
func NewRedisSessionRepository(client redisSessionClient, breaker *gobreaker.CircuitBreaker, logger *zap.Logger) *RedisSessionRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisSessionRepository{client: client, breaker: breaker, logger: logger, now: time.Now}
}

// Create stores the session under session:<id>.
func (r *RedisSessionRepository) Create(ctx context.Context, session *models.AdminSession) error {
	if session.CreatedAt.IsZero() {
		session.CreatedAt = r.now().UTC()
	}
	ttl := session.ExpiresAt.Sub(r.now())
	if ttl <= 0 {
		return fmt.Errorf("create session: already expired")
	}
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	_, err = r.execute(func() (interface{}, error) {
		return nil, r.client.Set(ctx, sessionKey(session.ID), payload, ttl).Err()
	})
	if err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}
	return nil
}

// Get returns a live session or ErrSessionNotFound.
func (r *RedisSessionRepository) Get(ctx context.Context, id string) (*models.AdminSession, error) {
	raw, err := r.execute(func() (interface{}, error) {
		b, err := r.client.Get(ctx, sessionKey(id)).Bytes()
		if errors.Is(err, redis.Nil) {
			// misses must not trip the breaker
			return nil, nil
		}
		return b, err
	})
	if err != nil {
		return nil, fmt.Errorf("redis get session: %w", err)
	}
	payload, _ := raw.([]byte)
	if payload == nil {
		return nil, ErrSessionNotFound
	}

	var session models.AdminSession
	if err := json.Unmarshal(payload, &session); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	if session.Expired(r.now()) {
		return nil, ErrSessionNotFound
	}
	return &session, nil
}

// Delete removes a session; unknown ids are ignored.
func (r *RedisSessionRepository) Delete(ctx context.Context, id string) error {
	_, err := r.execute(func() (interface{}, error) {
		return nil, r.client.Del(ctx, sessionKey(id)).Err()
	})
	if err != nil {
		return fmt.Errorf("redis delete session: %w", err)
	}
	return nil
}

// PurgeExpired is a no-op; redis expires keys on its own.
func (r *RedisSessionRepository) PurgeExpired(context.Context) (int64, error) {
	return 0, nil
}

func (r *RedisSessionRepository) execute(fn func() (interface{}, error)) (interface{}, error) {
	if r.breaker == nil {
		return fn()
	}
	result, err := r.breaker.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		r.logger.Warn("session store unavailable", zap.String("breaker", r.breaker.Name()), zap.Error(err))
	}
	return result, err
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}
