package wallet

import (
	"context"

	"bundlehub/internal/models"

	"go.uber.org/zap"
)

// StoreCache writes committed wallets through to the cache. It must run
// before the user's lock is released. A failed write drops the entry
// instead so no older balance outlives the commit.
func StoreCache(ctx context.Context, cache Cache, log *zap.Logger, wallets ...*models.Wallet) {
	if cache == nil {
		return
	}
	for _, w := range wallets {
		if w == nil {
			continue
		}
		if err := cache.CacheWallet(ctx, w); err != nil {
			log.Warn("failed to store wallet in cache", zap.Uint("user_id", w.UserID), zap.Error(err))
			InvalidateCache(ctx, cache, log, w.UserID)
		}
	}
}

// InvalidateCache drops the cached wallet for each user. Failures are logged;
// a stale entry expires on its own after CacheDuration.
func InvalidateCache(ctx context.Context, cache Cache, log *zap.Logger, userIDs ...uint) {
	if cache == nil {
		return
	}
	for _, id := range userIDs {
		if err := cache.DeleteWallet(ctx, id); err != nil {
			log.Warn("failed to invalidate wallet cache", zap.Uint("user_id", id), zap.Error(err))
		}
	}
}
