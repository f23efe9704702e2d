package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/partsflow/spareparts_backend/config"
	"gorm.io/gorm"
)

// AcquireBranchPostingLock serializes transfer posting per branch across
// instances. Redis is used when configured; otherwise a MySQL advisory lock.
// NOTE: GET_LOCK is connection-scoped, so callers must pass a handle pinned
// to the connection that runs the posting transaction (gorm Connection).
func AcquireBranchPostingLock(ctx context.Context, tx *gorm.DB, branchId int) (func(), error) {
	lockName := fmt.Sprintf("posting:branch:%d", branchId)

	if locker := config.GetRedisLock(); locker != nil {
		lock, err := locker.Obtain(ctx, lockName, 30*time.Second, &redislock.Options{
			RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(100*time.Millisecond), 50),
		})
		if err != nil {
			return nil, fmt.Errorf("could not acquire posting lock for branch_id=%d: %w", branchId, err)
		}
		return func() { _ = lock.Release(context.Background()) }, nil
	}

	var ok int
	if err := tx.Raw("SELECT GET_LOCK(?, 30)", lockName).Scan(&ok).Error; err != nil {
		return nil, err
	}
	if ok != 1 {
		return nil, fmt.Errorf("could not acquire posting lock for branch_id=%d", branchId)
	}
	release := func() {
		var released int
		_ = tx.Raw("SELECT RELEASE_LOCK(?)", lockName).Scan(&released).Error
	}
	return release, nil
}
