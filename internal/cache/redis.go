package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/fpd-risk-server/internal/domain"
)

// RedisCache shares scored assessments across server instances. All Redis
// traffic runs through a circuit breaker: when Redis is down the breaker
// opens and every lookup degrades to a miss, so requests recompute instead
// of failing.
type RedisCache struct {
	client  *redis.Client
	breaker *gobreaker.CircuitBreaker
	ttl     time.Duration
	logger  *logrus.Logger
}

// newCacheBreaker builds the circuit breaker guarding Redis traffic. A key
// miss is a healthy response, so redis.Nil must not count toward tripping:
// five cold lookups in a row would otherwise open the breaker and disable
// the cache for 30 seconds at a time.
func newCacheBreaker(logger *logrus.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "redis-assessment-cache",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, redis.Nil)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Cache circuit breaker state changed")
		},
	})
}

// NewRedisCache creates a Redis-backed assessment cache from a redis:// URL.
func NewRedisCache(redisURL string, ttl time.Duration, logger *logrus.Logger) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return &RedisCache{
		client:  redis.NewClient(opts),
		breaker: newCacheBreaker(logger),
		ttl:     ttl,
		logger:  logger,
	}, nil
}

// Get returns the cached assessment for the submission, if present. Any
// Redis failure is treated as a miss.
func (c *RedisCache) Get(ctx context.Context, input *domain.ClinicalInput) (*domain.RiskAssessment, bool) {
	key := Key(input)
	if key == "" {
		return nil, false
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.client.Get(ctx, key).Bytes()
	})
	if err != nil {
		if err != redis.Nil {
			c.logger.WithError(err).Debug("Cache lookup failed, recomputing")
		}
		return nil, false
	}

	var assessment domain.RiskAssessment
	if err := json.Unmarshal(result.([]byte), &assessment); err != nil {
		c.logger.WithError(err).Warn("Discarding undecodable cache entry")
		return nil, false
	}
	return &assessment, true
}

// Put stores a scored assessment. Failures only cost future cache hits.
func (c *RedisCache) Put(ctx context.Context, input *domain.ClinicalInput, assessment *domain.RiskAssessment) {
	key := Key(input)
	if key == "" {
		return
	}

	payload, err := json.Marshal(assessment)
	if err != nil {
		return
	}

	if _, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.client.Set(ctx, key, payload, c.ttl).Err()
	}); err != nil {
		c.logger.WithError(err).Debug("Cache store failed")
	}
}

// Close releases the Redis client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
