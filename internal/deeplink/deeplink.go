// Package deeplink builds and parses the /start parameters the bot hands out.
//
//	video_<id>                     open a catalog video
//	token_<uid>_<unix>_<sig>       refresh the ads token after the ad page
//	token_<uid>                    unsigned refresh link, accepted only without a secret
package deeplink

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	videoPrefix = "video_"
	tokenPrefix = "token_"
	sigLen      = 16
)

var (
	ErrMalformed    = errors.New("malformed start parameter")
	ErrWrongUser    = errors.New("token link issued to another user")
	ErrExpiredLink  = errors.New("token link expired")
	ErrBadSignature = errors.New("token link signature mismatch")
)

// Kind of a start parameter
type Kind int

const (
	KindNone Kind = iota
	KindVideo
	KindToken
)

// Param is a parsed start parameter
type Param struct {
	Kind     Kind
	VideoID  int64
	UserID   int64
	IssuedAt time.Time // zero for unsigned token links
	sig      string
}

// URL returns the t.me link that opens the bot with param
func URL(botUsername, param string) string {
	return fmt.Sprintf("https://t.me/%s?start=%s", botUsername, param)
}

// Video returns the start parameter for a catalog video
func Video(videoID int64) string {
	return videoPrefix + strconv.FormatInt(videoID, 10)
}

// Parse splits a start parameter. Unknown prefixes yield KindNone without error.
func Parse(s string) (Param, error) {
	switch {
	case strings.HasPrefix(s, videoPrefix):
		id, err := strconv.ParseInt(strings.TrimPrefix(s, videoPrefix), 10, 64)
		if err != nil || id <= 0 {
			return Param{}, ErrMalformed
		}
		return Param{Kind: KindVideo, VideoID: id}, nil

	case strings.HasPrefix(s, tokenPrefix):
		parts := strings.Split(strings.TrimPrefix(s, tokenPrefix), "_")
		uid, err := strconv.ParseInt(parts[0], 10, 64)
		if err != nil {
			return Param{}, ErrMalformed
		}
		p := Param{Kind: KindToken, UserID: uid}
		switch len(parts) {
		case 1:
			return p, nil
		case 3:
			ts, err := strconv.ParseInt(parts[1], 10, 64)
			if err != nil || len(parts[2]) != sigLen {
				return Param{}, ErrMalformed
			}
			p.IssuedAt = time.Unix(ts, 0)
			p.sig = parts[2]
			return p, nil
		default:
			return Param{}, ErrMalformed
		}
	}

	return Param{}, nil
}

// Signer issues and verifies token refresh links. An empty secret disables signing.
type Signer struct {
	secret []byte
	ttl    time.Duration
}

// NewSigner creates a signer whose links are valid for ttl
func NewSigner(secret string, ttl time.Duration) *Signer {
	return &Signer{secret: []byte(secret), ttl: ttl}
}

// Token returns the refresh start parameter for userID issued at now
func (s *Signer) Token(userID int64, now time.Time) string {
	if len(s.secret) == 0 {
		return tokenPrefix + strconv.FormatInt(userID, 10)
	}
	ts := now.Unix()
	return fmt.Sprintf("%s%d_%d_%s", tokenPrefix, userID, ts, s.sign(userID, ts))
}

// Alias returns a short-link alias unique per user and issue time
func (s *Signer) Alias(userID int64, now time.Time) string {
	return fmt.Sprintf("%s%d_%d", tokenPrefix, userID, now.Unix())
}

// Verify checks that p is a refresh link for senderID that may still be redeemed at now.
func (s *Signer) Verify(p Param, senderID int64, now time.Time) error {
	if p.Kind != KindToken {
		return ErrMalformed
	}
	if p.UserID != senderID {
		return ErrWrongUser
	}
	if len(s.secret) == 0 {
		return nil
	}
	if p.IssuedAt.IsZero() {
		return ErrBadSignature
	}
	if !hmac.Equal([]byte(p.sig), []byte(s.sign(p.UserID, p.IssuedAt.Unix()))) {
		return ErrBadSignature
	}
	if s.ttl > 0 && !now.Before(p.IssuedAt.Add(s.ttl)) {
		return ErrExpiredLink
	}
	return nil
}

func (s *Signer) sign(userID, ts int64) string {
	mac := hmac.New(sha256.New, s.secret)
	fmt.Fprintf(mac, "%d:%d", userID, ts)
	return hex.EncodeToString(mac.Sum(nil))[:sigLen]
}
