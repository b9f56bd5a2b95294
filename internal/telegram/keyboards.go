package telegram

import (
	"fmt"

	"github.com/go-telegram/bot/models"
)

// Callback data
const (
	cbRefreshToken        = "refresh_token"
	cbHowToOpenLinks      = "how_to_open_links"
	cbRemoveAds           = "remove_ads"
	cbClosePremiumMenu    = "close_premium_menu"
	cbMembershipConfirmed = "membership_confirmed"

	cbPremiumEnterUser = "premium_enter_user"
	cbPremiumList      = "premium_list"
	cbPremiumDuration  = "premium_dur:"
)

// JoinChannelsKeyboard returns join buttons followed by a "try again" button.
// videoID is carried through so the video is delivered once the check passes.
func JoinChannelsKeyboard(urls []string, videoID int64) *models.InlineKeyboardMarkup {
	var rows [][]models.InlineKeyboardButton

	for i, u := range urls {
		rows = append(rows, []models.InlineKeyboardButton{
			{Text: fmt.Sprintf("📢 Join Channel %d", i+1), URL: u},
		})
	}

	data := cbMembershipConfirmed
	if videoID > 0 {
		data = fmt.Sprintf("%s:%d", cbMembershipConfirmed, videoID)
	}
	rows = append(rows, []models.InlineKeyboardButton{
		{Text: "🔄 Try Again", CallbackData: data},
	})

	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// TokenExpiredKeyboard returns the refresh / help / premium options
func TokenExpiredKeyboard(howToURL string) *models.InlineKeyboardMarkup {
	rows := [][]models.InlineKeyboardButton{
		{{Text: "Click Here To Refresh Token", CallbackData: cbRefreshToken}},
	}
	if howToURL != "" {
		rows = append(rows, []models.InlineKeyboardButton{
			{Text: "How To Open Links?", URL: howToURL},
		})
	} else {
		rows = append(rows, []models.InlineKeyboardButton{
			{Text: "How To Open Links?", CallbackData: cbHowToOpenLinks},
		})
	}
	rows = append(rows, []models.InlineKeyboardButton{
		{Text: "Remove All Ads In One Click", CallbackData: cbRemoveAds},
	})

	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// RefreshLinkKeyboard returns the button that opens the ad-gated refresh link
func RefreshLinkKeyboard(link string) *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{{Text: "🔗 Open Refresh Link", URL: link}},
			{{Text: "How To Open Links?", CallbackData: cbHowToOpenLinks}},
		},
	}
}

// VideosKeyboard links to the public videos channel, nil if not configured
func VideosKeyboard(videosURL string) *models.InlineKeyboardMarkup {
	if videosURL == "" {
		return nil
	}
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{{Text: "🎬 Watch Videos", URL: videosURL}},
		},
	}
}

// PremiumPlansKeyboard returns the payment contact and close buttons
func PremiumPlansKeyboard(contactURL string) *models.InlineKeyboardMarkup {
	var rows [][]models.InlineKeyboardButton
	if contactURL != "" {
		rows = append(rows, []models.InlineKeyboardButton{
			{Text: "Send Payment Screenshot (ADMIN)", URL: contactURL},
		})
	}
	rows = append(rows, []models.InlineKeyboardButton{
		{Text: "CLOSE", CallbackData: cbClosePremiumMenu},
	})
	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// PremiumPanelKeyboard returns the admin premium panel
func PremiumPanelKeyboard() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{{Text: "👤 Enter User ID", CallbackData: cbPremiumEnterUser}},
			{{Text: "📋 List Premium Users", CallbackData: cbPremiumList}},
		},
	}
}

// PremiumDurationKeyboard returns quick duration buttons for userID
func PremiumDurationKeyboard(userID int64) *models.InlineKeyboardMarkup {
	btn := func(text, dur string) models.InlineKeyboardButton {
		return models.InlineKeyboardButton{
			Text:         text,
			CallbackData: fmt.Sprintf("%s%d:%s", cbPremiumDuration, userID, dur),
		}
	}

	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{btn("1 Day", "1d"), btn("7 Days", "7d")},
			{btn("1 Month", "1m"), btn("3 Months", "3m")},
			{btn("6 Months", "6m"), btn("1 Year", "12m")},
			{btn("✏️ Custom Months", "custom")},
		},
	}
}
