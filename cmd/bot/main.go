package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/suspectuso/vidgate/internal/catalog"
	"github.com/suspectuso/vidgate/internal/config"
	"github.com/suspectuso/vidgate/internal/deeplink"
	"github.com/suspectuso/vidgate/internal/entitlement"
	"github.com/suspectuso/vidgate/internal/notifier"
	"github.com/suspectuso/vidgate/internal/shortener"
	"github.com/suspectuso/vidgate/internal/storage"
	"github.com/suspectuso/vidgate/internal/telegram"
	"github.com/suspectuso/vidgate/internal/webhook"
)

func main() {
	// Setup logger
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(log)

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Debug("no .env file found")
	}

	// Load config
	cfg := config.Load()

	if cfg.BotToken == "" {
		log.Error("BOT_TOKEN is required")
		os.Exit(1)
	}
	if len(cfg.AdminUserIDs) == 0 {
		log.Warn("ADMIN_USER_IDS is empty, admin commands are disabled")
	}
	if cfg.TokenLinkSecret == "" {
		log.Warn("TOKEN_LINK_SECRET is empty, token links are unsigned")
	}

	// Initialize storage
	store, err := storage.New(cfg.DBPath)
	if err != nil {
		log.Error("init storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	log.Info("storage initialized", "path", cfg.DBPath)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.SpecialChannelID != 0 {
		if err := telegram.SetupSpecialChannel(ctx, store, cfg.SpecialChannelID, cfg.SpecialChannelName, 0); err != nil {
			log.Error("setup special channel", "error", err)
		} else {
			log.Info("special channel required", "channel_id", cfg.SpecialChannelID)
		}
	}

	// Initialize short-link client
	short := shortener.NewClient(cfg.ShortenerAPIURL, cfg.ShortenerAPIToken)
	log.Info("shortener client initialized", "base_url", cfg.ShortenerAPIURL, "enabled", short.Enabled())

	// Entitlements
	membership := telegram.NewMembershipChecker()
	verifier := entitlement.NewVerifier(membership, cfg.MembershipTimeout, log)
	engine := entitlement.NewEngine(store, verifier, log)

	// Initialize telegram bot
	bot, err := telegram.New(cfg, telegram.Deps{
		Storage:    store,
		Engine:     engine,
		Catalog:    catalog.New(store, short, cfg.BotUsername, log),
		Shortener:  short,
		Signer:     deeplink.NewSigner(cfg.TokenLinkSecret, cfg.TokenLinkTTL),
		Membership: membership,
	}, log)
	if err != nil {
		log.Error("init telegram bot", "error", err)
		os.Exit(1)
	}
	log.Info("telegram bot initialized", "username", cfg.BotUsername)

	// Initialize webhook manager
	webhookManager := webhook.NewManager(bot, cfg.WebhookURL, log)
	if err := webhookManager.Init(ctx); err != nil {
		log.Error("init webhook", "error", err)
		if webhookManager.Enabled() {
			os.Exit(1)
		}
	}

	// Start http server
	var updates http.Handler
	if webhookManager.Enabled() {
		updates = bot.WebhookHandler()
	}
	server := webhook.NewServer(updates, store.Ping, log)
	go func() {
		if err := server.Start(ctx, cfg.HTTPPort); err != nil && err != http.ErrServerClosed {
			log.Error("http server", "error", err)
		}
	}()

	go webhookManager.SyncLoop(ctx, 10*time.Minute)

	// Start expiry reminders
	reminders, err := notifier.NewScheduler(notifier.New(store, bot, log), cfg.ReminderSchedule, time.UTC, log)
	if err != nil {
		log.Error("init reminder scheduler", "error", err)
		os.Exit(1)
	}
	go reminders.Start(ctx)

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		log.Info("shutting down...")
		cancel()
	}()

	if webhookManager.Enabled() {
		log.Info("processing webhook updates", "endpoint", cfg.WebhookURL)
		bot.StartWebhook(ctx)
		return
	}

	log.Info("starting bot polling...")
	bot.Start(ctx)
}
