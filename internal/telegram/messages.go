package telegram

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/suspectuso/vidgate/internal/storage"
)

const timeLayout = "2006-01-02 15:04:05"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout) + " UTC"
}

func joinRequiredText(name string) string {
	return fmt.Sprintf(
		"🚨 <b>CHANNEL JOIN REQUIRED</b> 🚨\n\n"+
			"Hello, %s\n\n"+
			"<i>To use this bot, you must join our official channels.</i>\n\n"+
			"📍 Why join?\n"+
			"• Get the latest updates and announcements\n"+
			"• Be the first to know about new videos\n\n"+
			"👇 Join the channels below, then press <b>Try Again</b>.",
		html.EscapeString(name),
	)
}

func tokenExpiredText(name string) string {
	return fmt.Sprintf(
		"Hey 👑 %s\n\n"+
			"<b><i>Your Ads token is expired, refresh your token and try again</i></b>\n\n"+
			"<u>Token Timeout: 24 hour</u>\n\n"+
			"<b>What is Token?</b>\n"+
			"This is an ads token. If you pass 1 ad, you can use the bot for 24 hours after passing the ad.\n\n"+
			"🚨 For Apple/iPhone users copy the token link and open it in the Chrome browser 🚨",
		html.EscapeString(name),
	)
}

func tokenActiveText(name string, expires time.Time) string {
	return fmt.Sprintf(
		"👋 Welcome back, %s!\n\n"+
			"✅ Your ads token is active until <b>%s</b>.\n"+
			"Open any video link to watch.",
		html.EscapeString(name), formatTime(expires),
	)
}

func tokenRefreshedText(expires time.Time) string {
	return fmt.Sprintf(
		"✅ <b>Token refreshed!</b>\n\n"+
			"You can use the bot until <b>%s</b>.",
		formatTime(expires),
	)
}

func premiumActiveText(name string, until time.Time) string {
	return fmt.Sprintf(
		"👑 Hey %s, you are a <b>Premium</b> member.\n\n"+
			"No ads and no channel checks until <b>%s</b>.",
		html.EscapeString(name), formatTime(until),
	)
}

func refreshLinkText() string {
	return "🔗 <b>Your token refresh link is ready.</b>\n\n" +
		"Open the link, pass the ad and you will be sent back here with a fresh 24 hour token.\n" +
		"The link only works for your account."
}

const invalidTokenLinkText = "❌ This token link is invalid or has expired.\nRequest a new one below."

const howToOpenText = "❓ <b>How to open links</b>\n\n" +
	"1. Tap the refresh link.\n" +
	"2. Wait for the page to load and pass the ad.\n" +
	"3. Tap <b>Get Link</b> and open it with Telegram.\n\n" +
	"iPhone users: copy the link and open it in Chrome."

func premiumPlansText(name, upiID string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "👋 Hey %s\n\n", html.EscapeString(name))
	sb.WriteString("🎖️ <b>Available Plans:</b>\n")
	sb.WriteString("● 30 rs for 7 Days Prime Membership\n")
	sb.WriteString("● 110 rs for 1 Month Prime Membership\n")
	sb.WriteString("● 299 rs for 3 Months Prime Membership\n")
	sb.WriteString("● 550 rs for 6 Months Prime Membership\n")
	sb.WriteString("● 999 rs for 1 Year Prime Membership\n\n")
	if upiID != "" {
		fmt.Fprintf(&sb, "💵 <b>UPI ID</b> - <code>%s</code>\n(Tap to copy UPI ID)\n\n", html.EscapeString(upiID))
	}
	sb.WriteString("🚨 Send a screenshot to the admin after payment 🚨")
	return sb.String()
}

func helpText(isAdmin bool) string {
	text := "🎬 <b>How it works</b>\n\n" +
		"• Open a video link to watch it here.\n" +
		"• Free access needs an ads token, valid for 24 hours.\n" +
		"• Premium members skip ads and channel checks.\n\n" +
		"Commands:\n" +
		"/start - check your access\n" +
		"/help - show this message"
	if isAdmin {
		text += "\n/admin - admin commands"
	}
	return text
}

const adminHelpText = "🛠 <b>Admin commands</b>\n\n" +
	"/add_premium [user_id] [n] [days] - grant premium, n months by default\n" +
	"/remove_premium user_id - revoke premium\n" +
	"/list_premium - list active premium users\n" +
	"/add_video - add a video (title, then the video)\n" +
	"/list_videos - list videos and links\n" +
	"/add_channel channel_id [name] - register a channel\n" +
	"/list_channels - list channels\n" +
	"/require_channel channel_id - make joining mandatory\n" +
	"/unrequire_channel channel_id - make joining optional\n" +
	"/setup_special_channel - register the configured special channel\n" +
	"/cancel - abort the current dialog"

func premiumListText(users []storage.User) string {
	if len(users) == 0 {
		return "No active premium users."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "👑 <b>Premium users (%d)</b>\n\n", len(users))
	for _, u := range users {
		name := ""
		if u.Username != "" {
			name = " @" + html.EscapeString(u.Username)
		}
		fmt.Fprintf(&sb, "• <code>%d</code>%s until %s\n", u.UserID, name, formatTime(*u.PremiumUntil))
	}
	return sb.String()
}

func videoListText(videos []storage.Video) string {
	if len(videos) == 0 {
		return "No videos yet."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🎬 <b>Videos (%d)</b>\n\n", len(videos))
	for _, v := range videos {
		link := v.ShortURL
		if link == "" {
			link = "no link"
		}
		fmt.Fprintf(&sb, "#%d %s\n%s\n\n", v.ID, html.EscapeString(v.Title), html.EscapeString(link))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func channelListText(channels []storage.Channel) string {
	if len(channels) == 0 {
		return "No channels registered."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📢 <b>Channels (%d)</b>\n\n", len(channels))
	for _, c := range channels {
		var flags []string
		if c.IsRequired {
			flags = append(flags, "required")
		}
		if c.IsSpecial {
			flags = append(flags, "special")
		}
		suffix := ""
		if len(flags) > 0 {
			suffix = " [" + strings.Join(flags, ", ") + "]"
		}
		fmt.Fprintf(&sb, "• <code>%d</code> %s%s\n", c.ChannelID, html.EscapeString(c.Name), suffix)
	}
	return sb.String()
}

func premiumGrantedText(userID int64, g premiumGrant, until time.Time) string {
	return fmt.Sprintf("✅ Premium access granted to user <code>%d</code> for %s.\nExpires on: %s",
		userID, g, formatTime(until))
}

func premiumReceivedText(until time.Time) string {
	return fmt.Sprintf("🎉 <b>Premium activated!</b>\n\nEnjoy ad-free access until <b>%s</b>.", formatTime(until))
}
