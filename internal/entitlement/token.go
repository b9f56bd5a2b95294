package entitlement

import (
	"context"
	"fmt"
	"time"

	"github.com/suspectuso/vidgate/internal/storage"
)

// TokenState is either NoToken or Valid
type TokenState int

const (
	NoToken TokenState = iota
	Valid
)

func (s TokenState) String() string {
	if s == Valid {
		return "valid"
	}
	return "no_token"
}

// TokenStatus describes the ads token at read time. ExpiresAt is zero unless State is Valid.
type TokenStatus struct {
	State     TokenState
	ExpiresAt time.Time
}

func tokenStatusAt(u storage.User, now time.Time) TokenStatus {
	if !u.HasTokenAt(now) {
		return TokenStatus{State: NoToken}
	}
	return TokenStatus{State: Valid, ExpiresAt: *u.TokenExpiresAt}
}

// TokenStatus returns the ads token state of the user.
func (e *Engine) TokenStatus(ctx context.Context, userID int64) (TokenStatus, error) {
	u, err := e.load(ctx, userID)
	if err != nil {
		return TokenStatus{}, err
	}
	return tokenStatusAt(u, e.now()), nil
}

// RefreshToken starts a fresh TokenTTL window from now, replacing any current token.
// The caller is responsible for having verified the ad pass-through.
func (e *Engine) RefreshToken(ctx context.Context, userID int64) (time.Time, error) {
	until := storedExpiry(e.now().Add(TokenTTL))
	if err := e.store.SetToken(ctx, userID, until); err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	e.log.Info("token refreshed", "user_id", userID, "expires_at", until)
	return until, nil
}
