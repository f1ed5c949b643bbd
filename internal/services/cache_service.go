package services

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"driverhire/internal/gateway"
	"driverhire/pkg/cache"
	"driverhire/pkg/logger"
)

const cacheFarePrefix = "fare:"

// CacheService is the subset of cache.RedisCache used by services.
type CacheService interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// FareQuoter fetches a live quote from the legacy API.
type FareQuoter interface {
	GetFareAmount(ctx context.Context, request *gateway.FareQuoteRequest) (*gateway.FareQuote, error)
}

type cachedFareQuoter struct {
	next   FareQuoter
	cache  CacheService
	ttl    time.Duration
	logger *logger.Logger
}

// NewCachedFareQuoter memoizes identical quote requests for ttl.
// Cache failures never fail the quote.
func NewCachedFareQuoter(next FareQuoter, cache CacheService, ttl time.Duration, logger *logger.Logger) FareQuoter {
	return &cachedFareQuoter{next: next, cache: cache, ttl: ttl, logger: logger}
}

func (q *cachedFareQuoter) GetFareAmount(ctx context.Context, request *gateway.FareQuoteRequest) (*gateway.FareQuote, error) {
	key, err := fareCacheKey(request)
	if err != nil {
		return q.next.GetFareAmount(ctx, request)
	}

	var cached gateway.FareQuote
	switch err := q.cache.Get(ctx, key, &cached); {
	case err == nil:
		return &cached, nil
	case !errors.Is(err, cache.ErrCacheMiss):
		q.logger.WithError(err).Debug("Fare cache read failed")
	}

	quote, err := q.next.GetFareAmount(ctx, request)
	if err != nil {
		return nil, err
	}
	if err := q.cache.Set(ctx, key, quote, q.ttl); err != nil {
		q.logger.WithError(err).Debug("Fare cache write failed")
	}
	return quote, nil
}

func fareCacheKey(request *gateway.FareQuoteRequest) (string, error) {
	data, err := json.Marshal(request)
	if err != nil {
		return "", err
	}
	sum := sha1.Sum(data)
	return cacheFarePrefix + hex.EncodeToString(sum[:]), nil
}
