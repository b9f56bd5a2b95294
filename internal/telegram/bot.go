package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/suspectuso/vidgate/internal/catalog"
	"github.com/suspectuso/vidgate/internal/config"
	"github.com/suspectuso/vidgate/internal/deeplink"
	"github.com/suspectuso/vidgate/internal/entitlement"
	"github.com/suspectuso/vidgate/internal/shortener"
	"github.com/suspectuso/vidgate/internal/storage"
)

// Deps are the collaborators the command layer renders around
type Deps struct {
	Storage   *storage.Storage
	Engine    *entitlement.Engine
	Catalog   *catalog.Catalog
	Shortener *shortener.Client
	Signer    *deeplink.Signer

	// Membership, if set, is bound to the bot's API client
	Membership *MembershipChecker
}

// Bot wraps the telegram bot with handlers
type Bot struct {
	bot       *bot.Bot
	cfg       *config.Config
	storage   *storage.Storage
	engine    *entitlement.Engine
	catalog   *catalog.Catalog
	shortener *shortener.Client
	signer    *deeplink.Signer
	dialogs   *dialogs
	log       *slog.Logger
	now       func() time.Time
}

// New creates a new telegram bot. Extra options are passed to the underlying client.
func New(cfg *config.Config, deps Deps, log *slog.Logger, extra ...bot.Option) (*Bot, error) {
	b := &Bot{
		cfg:       cfg,
		storage:   deps.Storage,
		engine:    deps.Engine,
		catalog:   deps.Catalog,
		shortener: deps.Shortener,
		signer:    deps.Signer,
		dialogs:   newDialogs(),
		log:       log,
		now:       time.Now,
	}

	opts := []bot.Option{
		bot.WithDefaultHandler(b.defaultHandler),
		bot.WithCallbackQueryDataHandler("", bot.MatchTypePrefix, b.callbackHandler),
	}
	if cfg.WebhookSecret != "" {
		opts = append(opts, bot.WithWebhookSecretToken(cfg.WebhookSecret))
	}
	opts = append(opts, extra...)

	tgBot, err := bot.New(cfg.BotToken, opts...)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}

	b.bot = tgBot
	if deps.Membership != nil {
		deps.Membership.bot = tgBot
	}

	// User commands
	b.command("/start", b.startHandler)
	b.command("/help", b.helpHandler)

	// Admin commands
	b.command("/admin", b.adminOnly(b.adminHelpHandler))
	b.command("/add_premium", b.adminOnly(b.addPremiumHandler))
	b.command("/remove_premium", b.adminOnly(b.removePremiumHandler))
	b.command("/list_premium", b.adminOnly(b.listPremiumHandler))
	b.command("/add_video", b.adminOnly(b.addVideoHandler))
	b.command("/cancel", b.cancelHandler)
	b.command("/list_videos", b.adminOnly(b.listVideosHandler))
	b.command("/add_channel", b.adminOnly(b.addChannelHandler))
	b.command("/list_channels", b.adminOnly(b.listChannelsHandler))
	b.command("/require_channel", b.adminOnly(b.requireChannelHandler(true)))
	b.command("/unrequire_channel", b.adminOnly(b.requireChannelHandler(false)))
	b.command("/setup_special_channel", b.adminOnly(b.setupSpecialChannelHandler))

	return b, nil
}

// command registers a handler for "/cmd" with and without arguments
func (b *Bot) command(name string, h bot.HandlerFunc) {
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, name, bot.MatchTypeExact, h)
	b.bot.RegisterHandler(bot.HandlerTypeMessageText, name+" ", bot.MatchTypePrefix, h)
}

// Start starts the bot polling
func (b *Bot) Start(ctx context.Context) {
	b.bot.Start(ctx)
}

// StartWebhook processes updates delivered to WebhookHandler
func (b *Bot) StartWebhook(ctx context.Context) {
	b.bot.StartWebhook(ctx)
}

// WebhookHandler returns the HTTP handler that accepts webhook updates
func (b *Bot) WebhookHandler() http.HandlerFunc {
	return b.bot.WebhookHandler()
}

// SetWebhook registers url with Telegram
func (b *Bot) SetWebhook(ctx context.Context, url string) error {
	_, err := b.bot.SetWebhook(ctx, &bot.SetWebhookParams{
		URL:         url,
		SecretToken: b.cfg.WebhookSecret,
	})
	return err
}

// WebhookURL returns the webhook URL Telegram currently has on file
func (b *Bot) WebhookURL(ctx context.Context) (string, error) {
	info, err := b.bot.GetWebhookInfo(ctx)
	if err != nil {
		return "", err
	}
	return info.URL, nil
}

// DeleteWebhook removes any registered webhook so long polling works
func (b *Bot) DeleteWebhook(ctx context.Context) error {
	_, err := b.bot.DeleteWebhook(ctx, &bot.DeleteWebhookParams{})
	return err
}

// --- Helpers ---

func (b *Bot) sendMessage(ctx context.Context, chatID int64, text string, keyboard *models.InlineKeyboardMarkup) {
	params := &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	}
	if keyboard != nil {
		params.ReplyMarkup = keyboard
	}

	_, err := b.bot.SendMessage(ctx, params)
	if err != nil {
		b.log.Error("send message", "error", err)
	}
}

func (b *Bot) editMessage(ctx context.Context, msg models.MaybeInaccessibleMessage, text string, keyboard *models.InlineKeyboardMarkup) {
	if msg.Message == nil {
		return
	}

	params := &bot.EditMessageTextParams{
		ChatID:    msg.Message.Chat.ID,
		MessageID: msg.Message.ID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	}
	if keyboard != nil {
		params.ReplyMarkup = keyboard
	}

	_, err := b.bot.EditMessageText(ctx, params)
	if err != nil {
		b.log.Error("edit message", "error", err)
	}
}

// SendNotification sends a notification message to a user
func (b *Bot) SendNotification(ctx context.Context, userID int64, text string, keyboard *models.InlineKeyboardMarkup) error {
	disablePreview := true
	params := &bot.SendMessageParams{
		ChatID:    userID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
		LinkPreviewOptions: &models.LinkPreviewOptions{
			IsDisabled: &disablePreview,
		},
	}
	if keyboard != nil {
		params.ReplyMarkup = keyboard
	}

	_, err := b.bot.SendMessage(ctx, params)
	return err
}

func displayName(u *models.User) string {
	if u == nil {
		return "there"
	}
	if u.FirstName != "" {
		return u.FirstName
	}
	if u.Username != "" {
		return u.Username
	}
	return "there"
}
