package telegram

import (
	"context"
	"errors"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// MembershipChecker answers channel membership with getChatMember.
// The bot must be an administrator of every checked channel.
// It is created unbound and bound to the API client by New.
type MembershipChecker struct {
	bot *bot.Bot
}

// NewMembershipChecker creates an unbound checker
func NewMembershipChecker() *MembershipChecker {
	return &MembershipChecker{}
}

// IsMember implements entitlement.MembershipChecker
func (m *MembershipChecker) IsMember(ctx context.Context, channelID, userID int64) (bool, error) {
	if m.bot == nil {
		return false, errors.New("membership checker not bound to a bot")
	}

	member, err := m.bot.GetChatMember(ctx, &bot.GetChatMemberParams{
		ChatID: channelID,
		UserID: userID,
	})
	if err != nil {
		return false, err
	}
	if member == nil {
		return false, errors.New("empty chat member")
	}
	return isMemberStatus(member), nil
}

func isMemberStatus(m *models.ChatMember) bool {
	switch m.Type {
	case models.ChatMemberTypeOwner, models.ChatMemberTypeAdministrator, models.ChatMemberTypeMember:
		return true
	case models.ChatMemberTypeRestricted:
		return m.Restricted != nil && m.Restricted.IsMember
	default:
		return false
	}
}
