package storage

import "time"

// User holds the entitlement state of a bot user
type User struct {
	UserID         int64
	Username       string
	PremiumUntil   *time.Time // nil = never bought or removed
	TokenExpiresAt *time.Time
	CreatedAt      time.Time
}

// IsPremiumAt reports whether premium is active at t
func (u User) IsPremiumAt(t time.Time) bool {
	return u.PremiumUntil != nil && t.Before(*u.PremiumUntil)
}

// HasTokenAt reports whether the ads token is valid at t
func (u User) HasTokenAt(t time.Time) bool {
	return u.TokenExpiresAt != nil && t.Before(*u.TokenExpiresAt)
}

// Channel is a Telegram channel known to the bot
type Channel struct {
	ChannelID  int64
	Name       string
	IsSpecial  bool // bootstrap channel for auto-posting
	IsRequired bool // non-premium users must be members
	AddedBy    int64
	AddedOn    time.Time
}

// Video is a catalog entry reachable through a start deep link
type Video struct {
	ID              int64
	Title           string
	FileID          string
	ShortURL        string
	SourceChannelID int64 // 0 for admin uploads
	SourceMessageID int
	AddedBy         int64
	AddedOn         time.Time
	URLCreatedAt    time.Time
}
