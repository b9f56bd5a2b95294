package webhook

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Registrar registers the bot's webhook with Telegram
type Registrar interface {
	SetWebhook(ctx context.Context, url string) error
	DeleteWebhook(ctx context.Context) error
	WebhookURL(ctx context.Context) (string, error)
}

// Manager keeps the Telegram webhook registration in line with the configured endpoint
type Manager struct {
	registrar Registrar
	endpoint  string
	log       *slog.Logger

	mu         sync.Mutex
	registered bool
}

// NewManager creates a new webhook manager. An empty endpoint selects long polling.
func NewManager(registrar Registrar, endpoint string, log *slog.Logger) *Manager {
	return &Manager{
		registrar: registrar,
		endpoint:  endpoint,
		log:       log,
	}
}

// Enabled reports whether updates arrive by webhook
func (m *Manager) Enabled() bool {
	return m.endpoint != ""
}

// Init registers the webhook, or removes a stale one when polling
func (m *Manager) Init(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.endpoint == "" {
		if err := m.registrar.DeleteWebhook(ctx); err != nil {
			return err
		}
		m.log.Info("webhook removed, using long polling")
		return nil
	}

	if err := m.registrar.SetWebhook(ctx, m.endpoint); err != nil {
		return err
	}
	m.registered = true
	m.log.Info("webhook registered", "endpoint", m.endpoint)
	return nil
}

// SyncLoop periodically re-registers the webhook if Telegram lost it
func (m *Manager) SyncLoop(ctx context.Context, interval time.Duration) {
	if m.endpoint == "" {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.log.Info("webhook sync loop started", "interval", interval)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.sync(ctx); err != nil {
				m.log.Error("sync webhook", "error", err)
			}
		}
	}
}

func (m *Manager) sync(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, err := m.registrar.WebhookURL(ctx)
	if err != nil {
		return err
	}
	if m.registered && current == m.endpoint {
		return nil
	}

	m.log.Warn("webhook out of sync, re-registering", "current", current, "endpoint", m.endpoint)
	if err := m.registrar.SetWebhook(ctx, m.endpoint); err != nil {
		m.registered = false
		return err
	}
	m.registered = true
	return nil
}

// Registered reports whether the last registration attempt succeeded
func (m *Manager) Registered() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.registered
}
