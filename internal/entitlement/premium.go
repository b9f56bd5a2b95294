package entitlement

import (
	"context"
	"fmt"
	"time"

	"github.com/suspectuso/vidgate/internal/storage"
)

// AddPremium grants months of premium. An active grant is extended from its
// current expiry; otherwise the grant starts now.
func (e *Engine) AddPremium(ctx context.Context, userID int64, months int) (time.Time, error) {
	if months <= 0 {
		return time.Time{}, fmt.Errorf("%w: months must be positive, got %d", ErrInvalidArgument, months)
	}
	return e.extendPremium(ctx, userID, time.Duration(months)*PremiumMonth)
}

// AddPremiumDays is AddPremium with a day count.
func (e *Engine) AddPremiumDays(ctx context.Context, userID int64, days int) (time.Time, error) {
	if days <= 0 {
		return time.Time{}, fmt.Errorf("%w: days must be positive, got %d", ErrInvalidArgument, days)
	}
	return e.extendPremium(ctx, userID, time.Duration(days)*24*time.Hour)
}

func (e *Engine) extendPremium(ctx context.Context, userID int64, d time.Duration) (time.Time, error) {
	var until time.Time
	err := e.store.UpdatePremium(ctx, userID, func(u storage.User) (time.Time, error) {
		now := e.now()
		base := now
		if u.IsPremiumAt(now) {
			base = *u.PremiumUntil
		}
		until = storedExpiry(base.Add(d))
		return until, nil
	})
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	e.log.Info("premium granted", "user_id", userID, "duration", d, "premium_until", until)
	return until, nil
}

// RemovePremium clears any premium grant. Removing from a non-premium user succeeds.
func (e *Engine) RemovePremium(ctx context.Context, userID int64) error {
	if err := e.store.ClearPremium(ctx, userID); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	e.log.Info("premium removed", "user_id", userID)
	return nil
}
