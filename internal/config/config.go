package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Telegram
	BotToken    string
	BotUsername string

	// Admins allowed to run management commands
	AdminUserIDs map[int64]bool

	// Database
	DBPath string

	// Channels
	SpecialChannelID   int64
	SpecialChannelName string

	// Short links
	ShortenerAPIURL   string
	ShortenerAPIToken string

	// Tokens
	TokenLinkSecret   string
	TokenLinkTTL      time.Duration
	MembershipTimeout time.Duration

	// Links shown to users
	HowToOpenURL      string
	VideosLinkURL     string
	PaymentContactURL string
	JoinChannelURLs   []string

	// Payment QR
	UPIID     string
	PayeeName string

	// Webhook
	WebhookURL    string
	WebhookSecret string
	HTTPPort      int

	// Reminders
	ReminderSchedule string
}

func Load() *Config {
	cfg := &Config{
		// Telegram
		BotToken:    getEnv("BOT_TOKEN", ""),
		BotUsername: strings.TrimPrefix(getEnv("BOT_USERNAME", "vidgate_bot"), "@"),

		// Database
		DBPath: getEnv("DB_PATH", "./vidgate.db"),

		// Channels
		SpecialChannelID:   getEnvInt64("SPECIAL_CHANNEL_ID", 0),
		SpecialChannelName: getEnv("SPECIAL_CHANNEL_NAME", "My Special Channel"),

		// Short links
		ShortenerAPIURL:   strings.TrimSuffix(getEnv("SHORTENER_API_URL", "https://inshorturl.com/api"), "/"),
		ShortenerAPIToken: getEnv("SHORTENER_API_TOKEN", ""),

		// Tokens
		TokenLinkSecret:   getEnv("TOKEN_LINK_SECRET", ""),
		TokenLinkTTL:      getEnvDuration("TOKEN_LINK_TTL", time.Hour),
		MembershipTimeout: getEnvDuration("MEMBERSHIP_TIMEOUT", 7*time.Second),

		// Links shown to users
		HowToOpenURL:      getEnv("HOW_TO_OPEN_URL", ""),
		VideosLinkURL:     getEnv("VIDEOS_LINK_URL", ""),
		PaymentContactURL: getEnv("PAYMENT_CONTACT_URL", ""),
		JoinChannelURLs:   getEnvList("JOIN_CHANNEL_URLS"),

		// Payment QR
		UPIID:     getEnv("UPI_ID", ""),
		PayeeName: getEnv("PAYEE_NAME", "Premium"),

		// Webhook
		WebhookURL:    getEnv("WEBHOOK_URL", ""),
		WebhookSecret: getEnv("WEBHOOK_SECRET", ""),
		HTTPPort:      getEnvInt("HTTP_PORT", 8080),

		// Reminders
		ReminderSchedule: getEnv("REMINDER_SCHEDULE", "0 0 12 * * *"),
	}

	cfg.AdminUserIDs = make(map[int64]bool)
	for _, id := range getEnvInt64List("ADMIN_USER_IDS") {
		cfg.AdminUserIDs[id] = true
	}

	return cfg
}

// IsAdmin reports whether userID is on the static admin allow-list.
func (c *Config) IsAdmin(userID int64) bool {
	return c.AdminUserIDs[userID]
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvInt64(key string, defaultVal int64) int64 {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil && d > 0 {
			return d
		}
	}
	return defaultVal
}

func getEnvList(key string) []string {
	var out []string
	for _, s := range strings.Split(os.Getenv(key), ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func getEnvInt64List(key string) []int64 {
	var out []int64
	for _, s := range getEnvList(key) {
		if id, err := strconv.ParseInt(s, 10, 64); err == nil {
			out = append(out, id)
		}
	}
	return out
}
