package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-telegram/bot/models"
	"github.com/suspectuso/vidgate/internal/storage"
)

// ReminderWindow is how far ahead of expiry users are reminded
const ReminderWindow = 24 * time.Hour

// Store lists users whose premium is about to end
type Store interface {
	ListPremiumExpiringBetween(ctx context.Context, from, to time.Time) ([]storage.User, error)
}

// Sender delivers a message to a user
type Sender interface {
	SendNotification(ctx context.Context, userID int64, text string, keyboard *models.InlineKeyboardMarkup) error
}

// Notifier sends premium expiry reminders
type Notifier struct {
	store  Store
	sender Sender
	log    *slog.Logger
	now    func() time.Time

	mu       sync.Mutex
	reminded map[int64]int64 // user id -> premium_until unix already reminded about
}

// New creates a new Notifier
func New(store Store, sender Sender, log *slog.Logger) *Notifier {
	return &Notifier{
		store:    store,
		sender:   sender,
		log:      log,
		now:      time.Now,
		reminded: make(map[int64]int64),
	}
}

// RemindExpiring notifies every user whose premium ends within ReminderWindow.
// A user is reminded once per expiry; extending premium re-arms the reminder.
func (n *Notifier) RemindExpiring(ctx context.Context) (int, error) {
	now := n.now()
	users, err := n.store.ListPremiumExpiringBetween(ctx, now, now.Add(ReminderWindow))
	if err != nil {
		return 0, fmt.Errorf("list expiring premium: %w", err)
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	sent := 0
	for _, u := range users {
		until := u.PremiumUntil.Unix()
		if n.reminded[u.UserID] == until {
			continue
		}

		if err := n.sender.SendNotification(ctx, u.UserID, reminderText(*u.PremiumUntil, now), renewKeyboard()); err != nil {
			n.log.Warn("send expiry reminder", "user_id", u.UserID, "error", err)
			continue
		}
		n.reminded[u.UserID] = until
		sent++
	}

	n.log.Info("expiry reminders sent", "candidates", len(users), "sent", sent)
	return sent, nil
}

func reminderText(until, now time.Time) string {
	left := until.Sub(now).Round(time.Hour)
	if left < time.Hour {
		left = until.Sub(now).Round(time.Minute)
	}
	return fmt.Sprintf(
		"⏳ <b>Your Premium is ending soon</b>\n\n"+
			"It expires on <b>%s UTC</b> (in %s).\n"+
			"Renew now to keep watching without ads.",
		until.UTC().Format("2006-01-02 15:04"), left,
	)
}

func renewKeyboard() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{{Text: "💎 Renew Premium", CallbackData: "remove_ads"}},
		},
	}
}
