package redis

import (
	"context"
	"errors"
	"time"

	"driverhire/internal/models"
	"driverhire/internal/repositories/interfaces"
	"driverhire/internal/utils"
	"driverhire/pkg/cache"
)

// Cache is the subset of cache.RedisCache the stores need.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// Records outlive their expiry briefly so a late verify reports "expired"
// instead of "no code".
const otpRetention = 10 * time.Minute

type otpStore struct {
	cache Cache
	now   func() time.Time
}

func NewOTPStore(c Cache) interfaces.OTPStore {
	return &otpStore{cache: c, now: time.Now}
}

func (s *otpStore) Get(ctx context.Context, mobileNumber string) (*models.OTPRecord, error) {
	var record models.OTPRecord
	if err := s.cache.Get(ctx, utils.CacheOTPPrefix+mobileNumber, &record); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, interfaces.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

func (s *otpStore) Save(ctx context.Context, record *models.OTPRecord) error {
	ttl := record.ExpiresAt.Sub(s.now()) + otpRetention
	if ttl <= 0 {
		return s.Delete(ctx, record.MobileNumber)
	}
	return s.cache.Set(ctx, utils.CacheOTPPrefix+record.MobileNumber, record, ttl)
}

func (s *otpStore) Delete(ctx context.Context, mobileNumber string) error {
	return s.cache.Delete(ctx, utils.CacheOTPPrefix+mobileNumber)
}
