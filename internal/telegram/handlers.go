package telegram

import (
	"bytes"
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/suspectuso/vidgate/internal/catalog"
	"github.com/suspectuso/vidgate/internal/deeplink"
	"github.com/suspectuso/vidgate/internal/entitlement"
	"github.com/suspectuso/vidgate/internal/storage"
)

// --- Handlers ---

func (b *Bot) startHandler(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	msg := update.Message
	userID := msg.From.ID

	if err := b.storage.TouchUser(ctx, userID, msg.From.Username); err != nil {
		b.log.Error("touch user", "user_id", userID, "error", err)
	}

	param, err := deeplink.Parse(startParam(msg.Text))
	if err != nil {
		b.log.Warn("bad start parameter", "user_id", userID, "error", err)
	}

	switch param.Kind {
	case deeplink.KindToken:
		b.handleTokenLink(ctx, msg, param)
	case deeplink.KindVideo:
		b.handleVideoLink(ctx, msg.Chat.ID, msg.From, param.VideoID)
	default:
		b.showStatus(ctx, msg.Chat.ID, msg.From)
	}
}

func (b *Bot) helpHandler(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	b.sendMessage(ctx, update.Message.Chat.ID, helpText(b.cfg.IsAdmin(update.Message.From.ID)), nil)
}

// handleTokenLink redeems a refresh link returned from the ad page
func (b *Bot) handleTokenLink(ctx context.Context, msg *models.Message, param deeplink.Param) {
	userID := msg.From.ID

	if err := b.signer.Verify(param, userID, b.now()); err != nil {
		b.log.Warn("token link rejected",
			"user_id", userID,
			"link_user_id", param.UserID,
			"error", err,
		)
		b.sendMessage(ctx, msg.Chat.ID, invalidTokenLinkText, TokenExpiredKeyboard(b.cfg.HowToOpenURL))
		return
	}

	// signed links are single use
	if !param.IssuedAt.IsZero() {
		claimed, err := b.storage.ClaimTokenLink(ctx, userID, param.IssuedAt)
		if err != nil {
			b.log.Error("claim token link", "user_id", userID, "error", err)
			b.sendMessage(ctx, msg.Chat.ID, "❌ Could not refresh your token. Please try again later.", nil)
			return
		}
		if !claimed {
			b.log.Warn("token link reused", "user_id", userID, "issued_at", param.IssuedAt)
			b.sendMessage(ctx, msg.Chat.ID, invalidTokenLinkText, TokenExpiredKeyboard(b.cfg.HowToOpenURL))
			return
		}
	}

	expires, err := b.engine.RefreshToken(ctx, userID)
	if err != nil {
		b.log.Error("refresh token", "user_id", userID, "error", err)
		b.sendMessage(ctx, msg.Chat.ID, "❌ Could not refresh your token. Please try again later.", nil)
		return
	}

	b.sendMessage(ctx, msg.Chat.ID, tokenRefreshedText(expires), VideosKeyboard(b.cfg.VideosLinkURL))
}

// handleVideoLink delivers a video if the access decision allows it
func (b *Bot) handleVideoLink(ctx context.Context, chatID int64, from *models.User, videoID int64) {
	video, err := b.storage.GetVideo(ctx, videoID)
	if errors.Is(err, storage.ErrNotFound) {
		b.sendMessage(ctx, chatID, "❌ This video is no longer available.", nil)
		return
	}
	if err != nil {
		b.log.Error("get video", "video_id", videoID, "error", err)
		b.sendMessage(ctx, chatID, "❌ Something went wrong. Please try again later.", nil)
		return
	}

	decision, ok := b.decide(ctx, chatID, from.ID)
	if !ok {
		return
	}

	b.log.Info("video access",
		"user_id", from.ID,
		"video_id", videoID,
		"decision", decision.String(),
	)

	if !decision.Allowed {
		b.renderDenial(ctx, chatID, from, decision, videoID)
		return
	}

	b.sendVideo(ctx, chatID, video)
}

// showStatus answers a plain /start
func (b *Bot) showStatus(ctx context.Context, chatID int64, from *models.User) {
	status, decision, ok := b.evaluate(ctx, chatID, from.ID)
	if !ok {
		return
	}

	switch {
	case !decision.Allowed:
		b.renderDenial(ctx, chatID, from, decision, 0)
	case status.Premium:
		b.sendMessage(ctx, chatID, premiumActiveText(displayName(from), *status.PremiumUntil), VideosKeyboard(b.cfg.VideosLinkURL))
	default:
		b.sendMessage(ctx, chatID, tokenActiveText(displayName(from), status.Token.ExpiresAt), VideosKeyboard(b.cfg.VideosLinkURL))
	}
}

// decide runs the access decision against the current required channels.
// It reports the failure to the user and returns false when the decision could not be made.
func (b *Bot) decide(ctx context.Context, chatID, userID int64) (entitlement.Decision, bool) {
	_, decision, ok := b.evaluate(ctx, chatID, userID)
	return decision, ok
}

func (b *Bot) evaluate(ctx context.Context, chatID, userID int64) (entitlement.Status, entitlement.Decision, bool) {
	channels, err := b.storage.RequiredChannelIDs(ctx)
	if err != nil {
		b.log.Error("required channels", "error", err)
		b.sendMessage(ctx, chatID, "❌ Something went wrong. Please try again later.", nil)
		return entitlement.Status{}, entitlement.Decision{}, false
	}

	status, decision, err := b.engine.Evaluate(ctx, userID, channels)
	if err != nil {
		b.log.Error("decide access", "user_id", userID, "error", err)
		b.sendMessage(ctx, chatID, "❌ Something went wrong. Please try again later.", nil)
		return entitlement.Status{}, entitlement.Decision{}, false
	}
	return status, decision, true
}

func (b *Bot) renderDenial(ctx context.Context, chatID int64, from *models.User, d entitlement.Decision, videoID int64) {
	switch d.Reason {
	case entitlement.ReasonNotMember:
		b.sendMessage(ctx, chatID, joinRequiredText(displayName(from)), JoinChannelsKeyboard(b.cfg.JoinChannelURLs, videoID))
	default:
		b.sendMessage(ctx, chatID, tokenExpiredText(displayName(from)), TokenExpiredKeyboard(b.cfg.HowToOpenURL))
	}
}

func (b *Bot) sendVideo(ctx context.Context, chatID int64, v storage.Video) {
	_, err := b.bot.SendVideo(ctx, &bot.SendVideoParams{
		ChatID:         chatID,
		Video:          &models.InputFileString{Data: v.FileID},
		Caption:        v.Title,
		ProtectContent: true,
	})
	if err != nil {
		b.log.Error("send video", "video_id", v.ID, "error", err)
		b.sendMessage(ctx, chatID, "❌ Could not send the video. Please try again later.", nil)
	}
}

func (b *Bot) defaultHandler(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	if update.ChannelPost != nil {
		b.handleChannelPost(ctx, update.ChannelPost)
		return
	}

	if update.Message == nil || update.Message.From == nil {
		return
	}

	msg := update.Message
	userID := msg.From.ID

	dl, ok := b.dialogs.get(userID)
	if !ok || !b.cfg.IsAdmin(userID) {
		return
	}

	text := strings.TrimSpace(msg.Text)

	switch dl.step {
	case stepVideoTitle:
		b.handleVideoTitle(ctx, msg, text)
	case stepVideo:
		b.handleVideo(ctx, msg, dl)
	case stepPremiumUser:
		b.handlePremiumUser(ctx, msg, text)
	case stepPremiumMonths:
		b.handlePremiumMonths(ctx, msg, text, dl)
	}
}

// handleChannelPost registers videos posted in any channel the bot can read
func (b *Bot) handleChannelPost(ctx context.Context, post *models.Message) {
	if post.Video == nil {
		return
	}

	v, created, err := b.catalog.IngestChannelPost(ctx, catalog.Post{
		ChannelID:    post.Chat.ID,
		ChannelTitle: post.Chat.Title,
		MessageID:    post.ID,
		FileID:       post.Video.FileID,
		Caption:      post.Caption,
	})
	if err != nil {
		b.log.Error("ingest channel post", "channel_id", post.Chat.ID, "message_id", post.ID, "error", err)
		return
	}
	if !created {
		return
	}

	_, err = b.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:          post.Chat.ID,
		Text:            "🔗 " + v.ShortURL,
		ReplyParameters: &models.ReplyParameters{MessageID: post.ID},
	})
	if err != nil {
		b.log.Warn("post video link", "channel_id", post.Chat.ID, "video_id", v.ID, "error", err)
	}
}

func (b *Bot) callbackHandler(ctx context.Context, tgBot *bot.Bot, update *models.Update) {
	if update.CallbackQuery == nil {
		return
	}

	cb := update.CallbackQuery
	userID := cb.From.ID
	data := cb.Data

	// Answer callback to remove loading state
	tgBot.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: cb.ID,
	})

	switch {
	case data == cbRefreshToken:
		b.handleRefreshToken(ctx, cb)
	case data == cbHowToOpenLinks:
		b.sendMessage(ctx, userID, howToOpenText, nil)
	case data == cbRemoveAds:
		b.showPremiumPlans(ctx, cb)
	case data == cbClosePremiumMenu:
		b.deleteCallbackMessage(ctx, cb)
	case data == cbMembershipConfirmed || strings.HasPrefix(data, cbMembershipConfirmed+":"):
		b.handleMembershipConfirmed(ctx, cb, data)
	case data == cbPremiumEnterUser, data == cbPremiumList, strings.HasPrefix(data, cbPremiumDuration):
		if !b.cfg.IsAdmin(userID) {
			b.log.Warn("admin callback from non-admin", "data", data, "user_id", userID)
			return
		}
		b.handlePremiumCallback(ctx, cb, data)
	default:
		b.log.Warn("unknown callback", "data", data, "user_id", userID)
	}
}

// handleRefreshToken issues a signed refresh link, shortened through the ad shortener
func (b *Bot) handleRefreshToken(ctx context.Context, cb *models.CallbackQuery) {
	userID := cb.From.ID
	now := b.now()

	dest := deeplink.URL(b.cfg.BotUsername, b.signer.Token(userID, now))
	link, err := b.shortener.ShortenOrFallback(ctx, dest, b.signer.Alias(userID, now))
	if err != nil {
		b.log.Warn("shorten refresh link, using deep link", "user_id", userID, "error", err)
	}

	b.sendMessage(ctx, userID, refreshLinkText(), RefreshLinkKeyboard(link))
}

func (b *Bot) showPremiumPlans(ctx context.Context, cb *models.CallbackQuery) {
	text := premiumPlansText(displayName(&cb.From), b.cfg.UPIID)
	keyboard := PremiumPlansKeyboard(b.cfg.PaymentContactURL)

	if b.cfg.UPIID == "" {
		b.sendMessage(ctx, cb.From.ID, text, keyboard)
		return
	}

	png, err := paymentQR(b.cfg.UPIID, b.cfg.PayeeName)
	if err != nil {
		b.log.Error("generate payment qr", "error", err)
		b.sendMessage(ctx, cb.From.ID, text, keyboard)
		return
	}

	_, err = b.bot.SendPhoto(ctx, &bot.SendPhotoParams{
		ChatID:      cb.From.ID,
		Photo:       &models.InputFileUpload{Filename: "qr.png", Data: bytes.NewReader(png)},
		Caption:     text,
		ParseMode:   models.ParseModeHTML,
		ReplyMarkup: keyboard,
	})
	if err != nil {
		b.log.Error("send payment qr", "error", err)
		b.sendMessage(ctx, cb.From.ID, text, keyboard)
	}
}

func (b *Bot) deleteCallbackMessage(ctx context.Context, cb *models.CallbackQuery) {
	if cb.Message.Message == nil {
		return
	}
	_, err := b.bot.DeleteMessage(ctx, &bot.DeleteMessageParams{
		ChatID:    cb.Message.Message.Chat.ID,
		MessageID: cb.Message.Message.ID,
	})
	if err != nil {
		b.log.Warn("delete message", "error", err)
	}
}

// handleMembershipConfirmed re-checks membership live; the button press itself proves nothing
func (b *Bot) handleMembershipConfirmed(ctx context.Context, cb *models.CallbackQuery, data string) {
	from := &cb.From

	var videoID int64
	if _, rest, ok := strings.Cut(data, ":"); ok {
		videoID, _ = strconv.ParseInt(rest, 10, 64)
	}

	if videoID > 0 {
		b.deleteCallbackMessage(ctx, cb)
		b.handleVideoLink(ctx, from.ID, from, videoID)
		return
	}

	decision, ok := b.decide(ctx, from.ID, from.ID)
	if !ok {
		return
	}
	if decision.Reason == entitlement.ReasonNotMember {
		b.sendMessage(ctx, from.ID, joinRequiredText(displayName(from)), JoinChannelsKeyboard(b.cfg.JoinChannelURLs, 0))
		return
	}

	b.deleteCallbackMessage(ctx, cb)
	b.showStatus(ctx, from.ID, from)
}
