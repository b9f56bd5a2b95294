package entitlement

import (
	"context"
	"fmt"
)

// Reason explains a denied access request
type Reason int

const (
	ReasonNone Reason = iota
	ReasonNotMember
	ReasonTokenExpired
)

func (r Reason) String() string {
	switch r {
	case ReasonNotMember:
		return "not_member"
	case ReasonTokenExpired:
		return "token_expired"
	default:
		return "none"
	}
}

// Decision is the verdict for one access request. ChannelID is set only for ReasonNotMember.
type Decision struct {
	Allowed   bool
	Reason    Reason
	ChannelID int64
}

func (d Decision) String() string {
	if d.Allowed {
		return "allow"
	}
	if d.Reason == ReasonNotMember {
		return fmt.Sprintf("deny(%s, %d)", d.Reason, d.ChannelID)
	}
	return fmt.Sprintf("deny(%s)", d.Reason)
}

// Allow is the granted verdict
var Allow = Decision{Allowed: true}

// DenyNotMember denies because the user has not joined channelID
func DenyNotMember(channelID int64) Decision {
	return Decision{Reason: ReasonNotMember, ChannelID: channelID}
}

// DenyTokenExpired denies because there is no valid ads token
func DenyTokenExpired() Decision {
	return Decision{Reason: ReasonTokenExpired}
}

// DecideAccess evaluates, in order: premium (allow), membership of each required
// channel (first miss denies), ads token. It has no side effects. The only error
// is ErrStoreUnavailable.
func (e *Engine) DecideAccess(ctx context.Context, userID int64, requiredChannels []int64) (Decision, error) {
	_, d, err := e.Evaluate(ctx, userID, requiredChannels)
	return d, err
}

// Evaluate is DecideAccess that also returns the Status the decision was made
// from. Both are read at the same instant.
func (e *Engine) Evaluate(ctx context.Context, userID int64, requiredChannels []int64) (Status, Decision, error) {
	u, err := e.load(ctx, userID)
	if err != nil {
		return Status{}, Decision{}, err
	}

	st := statusAt(u, e.now())
	if st.Premium {
		return st, Allow, nil
	}

	for _, channelID := range requiredChannels {
		if e.verifier == nil || !e.verifier.IsMember(ctx, channelID, userID) {
			return st, DenyNotMember(channelID), nil
		}
	}

	if st.Token.State == Valid {
		return st, Allow, nil
	}
	return st, DenyTokenExpired(), nil
}
