package entitlement

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// MembershipChecker asks the messaging platform whether a user belongs to a channel.
type MembershipChecker interface {
	IsMember(ctx context.Context, channelID, userID int64) (bool, error)
}

// MembershipCheckerFunc adapts a function to MembershipChecker.
type MembershipCheckerFunc func(ctx context.Context, channelID, userID int64) (bool, error)

func (f MembershipCheckerFunc) IsMember(ctx context.Context, channelID, userID int64) (bool, error) {
	return f(ctx, channelID, userID)
}

// Verifier fails closed: any error, timeout or panic from the checker reads as "not a member".
// Results are never cached.
type Verifier struct {
	checker MembershipChecker
	timeout time.Duration
	log     *slog.Logger
}

// NewVerifier wraps checker with a per-call timeout
func NewVerifier(checker MembershipChecker, timeout time.Duration, log *slog.Logger) *Verifier {
	return &Verifier{
		checker: checker,
		timeout: timeout,
		log:     log,
	}
}

// IsMember never returns an error; failures are logged as ErrMembershipCheckFailed.
func (v *Verifier) IsMember(ctx context.Context, channelID, userID int64) bool {
	member, err := v.check(ctx, channelID, userID)
	if err != nil {
		v.log.Warn("membership check failed, denying",
			"user_id", userID,
			"channel_id", channelID,
			"error", fmt.Errorf("%w: %v", ErrMembershipCheckFailed, err),
		)
		return false
	}
	return member
}

type checkResult struct {
	member bool
	err    error
}

// check bounds the call by the timeout even when the checker ignores ctx;
// a late result is dropped into the buffered channel and discarded.
func (v *Verifier) check(ctx context.Context, channelID, userID int64) (bool, error) {
	if v.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.timeout)
		defer cancel()
	}

	done := make(chan checkResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- checkResult{err: fmt.Errorf("checker panic: %v", r)}
			}
		}()
		member, err := v.checker.IsMember(ctx, channelID, userID)
		done <- checkResult{member: member, err: err}
	}()

	select {
	case res := <-done:
		if res.err == nil && ctx.Err() != nil {
			return false, ctx.Err()
		}
		return res.member, res.err
	case <-ctx.Done():
		return false, ctx.Err()
	}
}
