// Package entitlement decides whether a user may open a video and manages
// ads tokens and premium grants.
//
// Expiry is lazy: nothing is swept, every read compares the stored timestamp
// with the current clock. A grant is active while now < expiry.
package entitlement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/suspectuso/vidgate/internal/storage"
)

const (
	// TokenTTL is how long an ads token stays valid after a refresh.
	TokenTTL = 24 * time.Hour
	// PremiumMonth is the length of one purchased premium month.
	PremiumMonth = 30 * 24 * time.Hour
)

var (
	ErrInvalidArgument       = errors.New("invalid argument")
	ErrStoreUnavailable      = errors.New("entitlement store unavailable")
	ErrMembershipCheckFailed = errors.New("membership check failed")
)

// Store persists per-user entitlement timestamps at whole-second precision.
// Writes must be durable when they return.
type Store interface {
	Get(ctx context.Context, userID int64) (storage.User, error)
	ClearPremium(ctx context.Context, userID int64) error
	SetToken(ctx context.Context, userID int64, until time.Time) error
	UpdatePremium(ctx context.Context, userID int64, fn func(storage.User) (time.Time, error)) error
}

// Engine is safe for concurrent use; per-user atomicity is provided by the Store.
type Engine struct {
	store    Store
	verifier *Verifier
	log      *slog.Logger
	now      func() time.Time
}

// Option configures an Engine
type Option func(*Engine)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine creates an engine over store; verifier may be nil when no channel gate is used.
func NewEngine(store Store, verifier *Verifier, log *slog.Logger, opts ...Option) *Engine {
	e := &Engine{
		store:    store,
		verifier: verifier,
		log:      log,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// storedExpiry rounds t up to the whole second the store keeps, so the value
// handed back to callers is the one later reads compare against.
func storedExpiry(t time.Time) time.Time {
	if r := t.Truncate(time.Second); !r.Equal(t) {
		return r.Add(time.Second)
	}
	return t
}

func (e *Engine) load(ctx context.Context, userID int64) (storage.User, error) {
	u, err := e.store.Get(ctx, userID)
	if err != nil {
		return storage.User{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return u, nil
}

// IsPremium reports whether the user holds an unexpired premium grant
func (e *Engine) IsPremium(ctx context.Context, userID int64) (bool, error) {
	u, err := e.load(ctx, userID)
	if err != nil {
		return false, err
	}
	return u.IsPremiumAt(e.now()), nil
}

// Status is a point-in-time view of a user's entitlements
type Status struct {
	Premium      bool
	PremiumUntil *time.Time
	Token        TokenStatus
}

// Status returns premium and token state evaluated at the same instant.
func (e *Engine) Status(ctx context.Context, userID int64) (Status, error) {
	u, err := e.load(ctx, userID)
	if err != nil {
		return Status{}, err
	}
	return statusAt(u, e.now()), nil
}

func statusAt(u storage.User, now time.Time) Status {
	st := Status{
		Premium: u.IsPremiumAt(now),
		Token:   tokenStatusAt(u, now),
	}
	if st.Premium {
		st.PremiumUntil = u.PremiumUntil
	}
	return st
}
