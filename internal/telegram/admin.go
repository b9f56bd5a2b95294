package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/suspectuso/vidgate/internal/catalog"
	"github.com/suspectuso/vidgate/internal/entitlement"
	"github.com/suspectuso/vidgate/internal/storage"
)

// adminOnly rejects commands from users outside the admin allow-list
func (b *Bot) adminOnly(h bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
		if update.Message == nil || update.Message.From == nil {
			return
		}
		if !b.cfg.IsAdmin(update.Message.From.ID) {
			b.log.Warn("admin command from non-admin",
				"user_id", update.Message.From.ID,
				"text", update.Message.Text,
			)
			b.sendMessage(ctx, update.Message.Chat.ID, "This command is only available to admins.", nil)
			return
		}
		h(ctx, tgBot, update)
	}
}

func (b *Bot) adminHelpHandler(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.sendMessage(ctx, update.Message.Chat.ID, adminHelpText, nil)
}

func (b *Bot) cancelHandler(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	if b.dialogs.clear(update.Message.From.ID) {
		b.sendMessage(ctx, update.Message.Chat.ID, "Cancelled.", nil)
		return
	}
	b.sendMessage(ctx, update.Message.Chat.ID, "Nothing to cancel.", nil)
}

// --- Premium ---

func (b *Bot) addPremiumHandler(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	msg := update.Message
	args := commandArgs(msg.Text)

	if len(args) == 0 {
		b.sendMessage(ctx, msg.Chat.ID, "👑 <b>Premium management</b>\n\nChoose an option:", PremiumPanelKeyboard())
		return
	}

	g, err := parsePremiumArgs(args)
	if errors.Is(err, errUsage) {
		b.sendMessage(ctx, msg.Chat.ID, "Usage: /add_premium user_id [n] [days]", nil)
		return
	}
	if err != nil {
		b.sendMessage(ctx, msg.Chat.ID, "❌ "+err.Error(), nil)
		return
	}

	text := b.grantPremium(ctx, g)
	b.sendMessage(ctx, msg.Chat.ID, text, nil)
}

// grantPremium applies g, notifies the user and returns the admin reply
func (b *Bot) grantPremium(ctx context.Context, g premiumGrant) string {
	var (
		until time.Time
		err   error
	)
	if g.Days {
		until, err = b.engine.AddPremiumDays(ctx, g.UserID, g.Amount)
	} else {
		until, err = b.engine.AddPremium(ctx, g.UserID, g.Amount)
	}
	if errors.Is(err, entitlement.ErrInvalidArgument) {
		return "❌ Duration must be a positive number."
	}
	if err != nil {
		b.log.Error("add premium", "user_id", g.UserID, "error", err)
		return "❌ Could not grant premium. Please try again."
	}

	if err := b.SendNotification(ctx, g.UserID, premiumReceivedText(until), VideosKeyboard(b.cfg.VideosLinkURL)); err != nil {
		b.log.Warn("notify premium user", "user_id", g.UserID, "error", err)
	}

	return premiumGrantedText(g.UserID, g, until)
}

func (b *Bot) removePremiumHandler(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	msg := update.Message

	userID, err := parseUserID(commandArgs(msg.Text))
	if err != nil {
		b.sendMessage(ctx, msg.Chat.ID, "Usage: /remove_premium user_id", nil)
		return
	}

	if err := b.engine.RemovePremium(ctx, userID); err != nil {
		b.log.Error("remove premium", "user_id", userID, "error", err)
		b.sendMessage(ctx, msg.Chat.ID, "❌ Could not remove premium. Please try again.", nil)
		return
	}

	b.sendMessage(ctx, msg.Chat.ID, fmt.Sprintf("✅ Premium removed from user <code>%d</code>.", userID), nil)
}

func (b *Bot) listPremiumHandler(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	b.sendMessage(ctx, update.Message.Chat.ID, b.premiumList(ctx), nil)
}

func (b *Bot) premiumList(ctx context.Context) string {
	users, err := b.storage.ListPremiumUsers(ctx, b.now())
	if err != nil {
		b.log.Error("list premium users", "error", err)
		return "❌ Could not load premium users."
	}
	return premiumListText(users)
}

func (b *Bot) handlePremiumCallback(ctx context.Context, cb *models.CallbackQuery, data string) {
	switch {
	case data == cbPremiumEnterUser:
		b.dialogs.start(cb.From.ID, dialog{step: stepPremiumUser})
		b.editMessage(ctx, cb.Message, "Send the user ID to grant premium to.\n/cancel to abort.", nil)

	case data == cbPremiumList:
		b.editMessage(ctx, cb.Message, b.premiumList(ctx), nil)

	case strings.HasPrefix(data, cbPremiumDuration):
		// premium_dur:<uid>:<duration>
		uidStr, dur, ok := strings.Cut(strings.TrimPrefix(data, cbPremiumDuration), ":")
		userID, err := strconv.ParseInt(uidStr, 10, 64)
		if !ok || err != nil {
			b.log.Warn("bad premium callback", "data", data)
			return
		}

		if dur == "custom" {
			b.dialogs.start(cb.From.ID, dialog{step: stepPremiumMonths, targetID: userID})
			b.editMessage(ctx, cb.Message,
				"How many months of premium access would you like to grant?\n\nSend a number of months.", nil)
			return
		}

		g, err := parseDuration(dur)
		if err != nil {
			b.log.Warn("bad premium duration", "data", data)
			return
		}
		g.UserID = userID
		b.editMessage(ctx, cb.Message, b.grantPremium(ctx, g), nil)
	}
}

func (b *Bot) handlePremiumUser(ctx context.Context, msg *models.Message, text string) {
	userID, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		b.sendMessage(ctx, msg.Chat.ID, "❌ Invalid user ID. Send a numeric ID or /cancel.", nil)
		return
	}

	b.dialogs.clear(msg.From.ID)
	b.sendMessage(ctx, msg.Chat.ID,
		fmt.Sprintf("Select the premium duration for user <code>%d</code>:", userID),
		PremiumDurationKeyboard(userID),
	)
}

func (b *Bot) handlePremiumMonths(ctx context.Context, msg *models.Message, text string, dl dialog) {
	months, err := strconv.Atoi(text)
	if err != nil || months <= 0 {
		b.sendMessage(ctx, msg.Chat.ID, "Invalid duration. Please enter a valid number of months.", nil)
		return
	}

	b.dialogs.clear(msg.From.ID)
	b.sendMessage(ctx, msg.Chat.ID, b.grantPremium(ctx, premiumGrant{UserID: dl.targetID, Amount: months}), nil)
}

// --- Videos ---

func (b *Bot) addVideoHandler(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	msg := update.Message
	b.dialogs.start(msg.From.ID, dialog{step: stepVideoTitle})
	b.sendMessage(ctx, msg.Chat.ID, "🎬 Send the video title.\n/cancel to abort.", nil)
}

func (b *Bot) handleVideoTitle(ctx context.Context, msg *models.Message, title string) {
	if title == "" {
		b.sendMessage(ctx, msg.Chat.ID, "Please send the title as text.", nil)
		return
	}

	b.dialogs.start(msg.From.ID, dialog{step: stepVideo, title: title})
	b.sendMessage(ctx, msg.Chat.ID, "Now send the video.", nil)
}

func (b *Bot) handleVideo(ctx context.Context, msg *models.Message, dl dialog) {
	if msg.Video == nil {
		b.sendMessage(ctx, msg.Chat.ID, "That is not a video. Send a video or /cancel.", nil)
		return
	}

	b.dialogs.clear(msg.From.ID)

	v, err := b.catalog.Register(ctx, catalog.NewVideo{
		Title:   dl.title,
		FileID:  msg.Video.FileID,
		AddedBy: msg.From.ID,
	})
	if err != nil {
		b.log.Error("register video", "error", err)
		b.sendMessage(ctx, msg.Chat.ID, "❌ Could not save the video.", nil)
		return
	}

	b.sendMessage(ctx, msg.Chat.ID,
		fmt.Sprintf("✅ Video <b>#%d</b> added.\n\nLink: %s", v.ID, v.ShortURL), nil)
}

func (b *Bot) listVideosHandler(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	videos, err := b.storage.ListVideos(ctx)
	if err != nil {
		b.log.Error("list videos", "error", err)
		b.sendMessage(ctx, update.Message.Chat.ID, "❌ Could not load videos.", nil)
		return
	}
	b.sendMessage(ctx, update.Message.Chat.ID, videoListText(videos), nil)
}

// --- Channels ---

func (b *Bot) addChannelHandler(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	msg := update.Message

	channelID, name, err := parseChannelArgs(commandArgs(msg.Text))
	if err != nil {
		b.sendMessage(ctx, msg.Chat.ID, "Usage: /add_channel channel_id [name]", nil)
		return
	}
	if name == "" {
		name = fmt.Sprintf("Channel %d", channelID)
	}

	err = b.storage.AddChannel(ctx, storage.Channel{ChannelID: channelID, Name: name, AddedBy: msg.From.ID})
	if err != nil {
		b.log.Error("add channel", "channel_id", channelID, "error", err)
		b.sendMessage(ctx, msg.Chat.ID, "❌ Could not add the channel.", nil)
		return
	}

	b.log.Info("channel added", "channel_id", channelID, "admin_id", msg.From.ID)
	b.sendMessage(ctx, msg.Chat.ID, fmt.Sprintf("✅ Channel <code>%d</code> added.", channelID), nil)
}

func (b *Bot) listChannelsHandler(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	channels, err := b.storage.ListChannels(ctx)
	if err != nil {
		b.log.Error("list channels", "error", err)
		b.sendMessage(ctx, update.Message.Chat.ID, "❌ Could not load channels.", nil)
		return
	}
	b.sendMessage(ctx, update.Message.Chat.ID, channelListText(channels), nil)
}

func (b *Bot) requireChannelHandler(required bool) bot.HandlerFunc {
	return func(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
		msg := update.Message

		channelID, _, err := parseChannelArgs(commandArgs(msg.Text))
		if err != nil {
			b.sendMessage(ctx, msg.Chat.ID, "Usage: /require_channel channel_id", nil)
			return
		}

		err = b.storage.SetChannelRequired(ctx, channelID, required)
		if errors.Is(err, storage.ErrNotFound) {
			b.sendMessage(ctx, msg.Chat.ID, "❌ Unknown channel. Add it with /add_channel first.", nil)
			return
		}
		if err != nil {
			b.log.Error("set channel required", "channel_id", channelID, "error", err)
			b.sendMessage(ctx, msg.Chat.ID, "❌ Could not update the channel.", nil)
			return
		}

		b.log.Info("channel requirement changed", "channel_id", channelID, "required", required)
		state := "optional"
		if required {
			state = "required"
		}
		b.sendMessage(ctx, msg.Chat.ID, fmt.Sprintf("✅ Joining <code>%d</code> is now %s.", channelID, state), nil)
	}
}

func (b *Bot) setupSpecialChannelHandler(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	msg := update.Message

	if b.cfg.SpecialChannelID == 0 {
		b.sendMessage(ctx, msg.Chat.ID, "❌ SPECIAL_CHANNEL_ID is not configured.", nil)
		return
	}

	if err := SetupSpecialChannel(ctx, b.storage, b.cfg.SpecialChannelID, b.cfg.SpecialChannelName, msg.From.ID); err != nil {
		b.log.Error("setup special channel", "error", err)
		b.sendMessage(ctx, msg.Chat.ID, "❌ Could not set up the special channel.", nil)
		return
	}

	b.sendMessage(ctx, msg.Chat.ID,
		fmt.Sprintf("✅ Special channel <code>%d</code> registered and required.", b.cfg.SpecialChannelID), nil)
}

// SetupSpecialChannel registers the special channel and makes joining it mandatory
func SetupSpecialChannel(ctx context.Context, s *storage.Storage, channelID int64, name string, addedBy int64) error {
	err := s.AddChannel(ctx, storage.Channel{
		ChannelID: channelID,
		Name:      name,
		IsSpecial: true,
		AddedBy:   addedBy,
	})
	if err != nil {
		return fmt.Errorf("add special channel: %w", err)
	}
	return s.SetChannelRequired(ctx, channelID, true)
}
