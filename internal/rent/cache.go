package rent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"brrrr-analyzer/internal/observability"
)

const cacheKeyPrefix = "rent:geocode:"

// RedisConfig configures the geocode cache connection.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisClient connects to Redis and verifies the connection with a ping.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   2,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// CachedGeocoder remembers postcodes in Redis. Cache failures are logged
// and the lookup falls through to the wrapped geocoder.
type CachedGeocoder struct {
	next   Geocoder
	client *redis.Client
	ttl    time.Duration
}

func NewCachedGeocoder(next Geocoder, client *redis.Client, ttl time.Duration) *CachedGeocoder {
	return &CachedGeocoder{next: next, client: client, ttl: ttl}
}

func (c *CachedGeocoder) Postcode(ctx context.Context, address string) (string, error) {
	logger := observability.LoggerWithTrace(ctx)
	key := cacheKey(address)

	postcode, err := c.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		logger.Debug("geocode cache hit", zap.String("key", key))
		return postcode, nil
	case !errors.Is(err, redis.Nil):
		logger.Warn("geocode cache read failed", zap.String("key", key), zap.Error(err))
	}

	postcode, err = c.next.Postcode(ctx, address)
	if err != nil {
		return "", err
	}

	if err := c.client.Set(ctx, key, postcode, c.ttl).Err(); err != nil {
		logger.Warn("geocode cache write failed", zap.String("key", key), zap.Error(err))
	}
	return postcode, nil
}

// cacheKey folds case and whitespace so trivially different spellings of an
// address share an entry.
func cacheKey(address string) string {
	return cacheKeyPrefix + strings.ToLower(strings.Join(strings.Fields(address), " "))
}
