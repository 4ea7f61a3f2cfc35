package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bundlehub/internal/models"
	keys "bundlehub/internal/utils/cache"

	"github.com/redis/go-redis/v9"
)

type CacheService struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewCacheService(client redis.UniversalClient, defaultTTL time.Duration) *CacheService {
	return &CacheService{
		client: client,
		ttl:    defaultTTL,
	}
}

// Base operations
func (s *CacheService) Set(ctx context.Context, key string, value interface{}) error {
	return s.SetWithTTL(ctx, key, value, s.ttl)
}

func (s *CacheService) SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}
	return s.client.Set(ctx, key, data, ttl).Err()
}

func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get cache value: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal cache value: %w", err)
	}
	return true, nil
}

func (s *CacheService) Delete(ctx context.Context, keys ...string) error {
	return s.client.Del(ctx, keys...).Err()
}

// Wallet caching
func (s *CacheService) CacheWallet(ctx context.Context, wallet *models.Wallet) error {
	if wallet == nil {
		return errors.New("cannot cache nil wallet")
	}
	return s.Set(ctx, walletKey(wallet.UserID), wallet)
}

// CacheWalletIfAbsent stores the wallet only when no entry exists, so a read
// that raced a commit never overwrites the balance the writer stored.
func (s *CacheService) CacheWalletIfAbsent(ctx context.Context, wallet *models.Wallet) (bool, error) {
	if wallet == nil {
		return false, errors.New("cannot cache nil wallet")
	}
	data, err := json.Marshal(wallet)
	if err != nil {
		return false, fmt.Errorf("failed to marshal cache value: %w", err)
	}
	return s.client.SetNX(ctx, walletKey(wallet.UserID), data, s.ttl).Result()
}

// GetWallet returns the cached wallet; found is false on a cache miss.
func (s *CacheService) GetWallet(ctx context.Context, userID uint) (*models.Wallet, bool, error) {
	var wallet models.Wallet
	found, err := s.Get(ctx, walletKey(userID), &wallet)
	if err != nil || !found {
		return nil, false, err
	}
	return &wallet, true, nil
}

func (s *CacheService) DeleteWallet(ctx context.Context, userID uint) error {
	return s.Delete(ctx, walletKey(userID))
}

func walletKey(userID uint) string {
	return keys.GenerateKey(keys.EntityWallet, keys.KeyUser, userID)
}

func (s *CacheService) HealthCheck(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis connection failed: %w", err)
	}
	return nil
}

// Close closes the Redis client connection
func (s *CacheService) Close() error {
	return s.client.Close()
}
