package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/adventure-engine/pkg/storage"
)

const (
	unitKeyPrefix   = "unit:"
	unitIndexKey    = "units"
	characterPrefix = "units:character:"
)

// RedisStorage implements storage.Storage with one string key per unit and
// sorted-set indexes scored by save time.
type RedisStorage struct {
	client *redis.Client
	logger *slog.Logger
}

// Ensure RedisStorage implements Storage interface
var _ storage.Storage = (*RedisStorage)(nil)

// NewRedisStorage creates a new Redis storage instance. redisURL may be a
// redis:// URL or a bare host:port address.
func NewRedisStorage(redisURL string, logger *slog.Logger) (*RedisStorage, error) {
	opts := &redis.Options{Addr: redisURL}
	if strings.Contains(redisURL, "://") {
		parsed, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse redis url: %w", err)
		}
		opts = parsed
	}

	return &RedisStorage{
		client: redis.NewClient(opts),
		logger: logger,
	}, nil
}

// Health and lifecycle methods

func (r *RedisStorage) Ping(ctx context.Context) error {
	cmd := r.client.Ping(ctx)
	if err := cmd.Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStorage) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	r.logger.Debug("Redis connection closed")
	return nil
}

// WaitForConnection waits for Redis to become available (used during startup)
func (r *RedisStorage) WaitForConnection(ctx context.Context, maxRetries int, retryDelay time.Duration) error {
	for i := 0; i < maxRetries; i++ {
		if err := r.Ping(ctx); err != nil {
			r.logger.Debug("Redis not ready yet", "error", err, "attempt", i+1)

			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled while waiting for redis: %w", ctx.Err())
			case <-time.After(retryDelay):
				continue
			}
		}

		r.logger.Debug("Redis connection established")
		return nil
	}

	return fmt.Errorf("redis did not become available after %d attempts", maxRetries)
}

// Unit operations

func (r *RedisStorage) SaveUnit(ctx context.Context, unit *storage.Unit, at time.Time) (string, error) {
	if unit == nil {
		return "", errors.New("unit cannot be nil")
	}
	data, err := storage.EncodeUnit(unit)
	if err != nil {
		return "", err
	}

	base := storage.UnitName(unit.Character.Name, at)
	for n := 1; ; n++ {
		name := storage.CandidateName(base, n)
		ok, err := r.client.SetNX(ctx, unitKeyPrefix+name, data, 0).Result()
		if err != nil {
			r.logger.Error("Failed to save unit", "name", name, "error", err)
			return "", fmt.Errorf("failed to save unit: %w", err)
		}
		if !ok {
			r.logger.Debug("Unit name taken", "name", name)
			continue
		}

		score := float64(at.Unix())
		_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.ZAdd(ctx, unitIndexKey, redis.Z{Score: score, Member: name})
			pipe.ZAdd(ctx, characterPrefix+storage.Slug(unit.Character.Name), redis.Z{Score: score, Member: name})
			return nil
		})
		if err != nil {
			r.logger.Error("Failed to index unit", "name", name, "error", err)
			if delErr := r.client.Del(context.WithoutCancel(ctx), unitKeyPrefix+name).Err(); delErr != nil {
				r.logger.Error("Failed to remove unindexed unit", "name", name, "error", delErr)
			}
			return "", fmt.Errorf("failed to index unit: %w", err)
		}
		r.logger.Debug("Unit saved", "name", name, "bytes", len(data))
		return name, nil
	}
}

func (r *RedisStorage) LoadUnit(ctx context.Context, name string) (*storage.Unit, error) {
	data, err := r.client.Get(ctx, unitKeyPrefix+name).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			r.logger.Warn("Unit not found", "name", name)
			return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, name)
		}
		r.logger.Error("Failed to load unit", "name", name, "error", err)
		return nil, fmt.Errorf("%w: failed to read unit: %w", storage.ErrLoad, err)
	}
	return storage.DecodeUnit(data)
}

func (r *RedisStorage) ListUnits(ctx context.Context) ([]string, error) {
	names, err := r.client.ZRange(ctx, unitIndexKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list units: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

func (r *RedisStorage) LatestUnit(ctx context.Context, characterName string) (string, error) {
	// Same-second saves share a score; pick by parsed sequence.
	key := characterPrefix + storage.Slug(characterName)
	top, err := r.client.ZRevRangeWithScores(ctx, key, 0, 0).Result()
	if err != nil {
		return "", fmt.Errorf("%w: failed to read unit index: %w", storage.ErrLoad, err)
	}
	if len(top) == 0 {
		return "", fmt.Errorf("%w: no saves for %q", storage.ErrNotFound, characterName)
	}
	score := fmt.Sprintf("%d", int64(top[0].Score))
	names, err := r.client.ZRangeByScore(ctx, key, &redis.ZRangeBy{Min: score, Max: score}).Result()
	if err != nil {
		return "", fmt.Errorf("%w: failed to read unit index: %w", storage.ErrLoad, err)
	}
	latest, ok := storage.LatestOf(names, characterName)
	if !ok {
		return "", fmt.Errorf("%w: no saves for %q", storage.ErrNotFound, characterName)
	}
	return latest, nil
}
