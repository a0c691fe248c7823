package cache

import (
	"context"
	"log/slog"
)

// SafeDelete deletes cache keys and logs instead of failing; cache
// invalidation must never break the write path.
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

// InvalidateAccount drops the cached account view for a user. Called after
// any profile mutation or note upload/deletion.
func InvalidateAccount(ctx context.Context, cm *CacheManager, userID string) {
	SafeDelete(ctx, cm.Account, userID)
}
