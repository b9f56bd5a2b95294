package telegram

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suspectuso/vidgate/internal/storage"
)

func TestParsePremiumArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    premiumGrant
		wantErr bool
	}{
		{name: "default month", args: []string{"42"}, want: premiumGrant{UserID: 42, Amount: 1}},
		{name: "months", args: []string{"42", "3"}, want: premiumGrant{UserID: 42, Amount: 3}},
		{name: "days", args: []string{"42", "7", "days"}, want: premiumGrant{UserID: 42, Amount: 7, Days: true}},
		{name: "short day unit", args: []string{"42", "1", "D"}, want: premiumGrant{UserID: 42, Amount: 1, Days: true}},
		{name: "explicit months", args: []string{"42", "2", "months"}, want: premiumGrant{UserID: 42, Amount: 2}},
		{name: "zero", args: []string{"42", "0"}, wantErr: true},
		{name: "negative", args: []string{"42", "-1", "days"}, wantErr: true},
		{name: "bad user", args: []string{"bob"}, wantErr: true},
		{name: "bad unit", args: []string{"42", "1", "weeks"}, wantErr: true},
		{name: "no args", args: nil, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parsePremiumArgs(tt.args)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDuration(t *testing.T) {
	g, err := parseDuration("7d")
	require.NoError(t, err)
	assert.Equal(t, premiumGrant{Amount: 7, Days: true}, g)

	g, err = parseDuration("12m")
	require.NoError(t, err)
	assert.Equal(t, premiumGrant{Amount: 12}, g)

	for _, bad := range []string{"", "d", "0m", "3w", "xm"} {
		_, err := parseDuration(bad)
		assert.Error(t, err, bad)
	}
}

func TestPremiumGrantString(t *testing.T) {
	assert.Equal(t, "1 month", premiumGrant{Amount: 1}.String())
	assert.Equal(t, "3 months", premiumGrant{Amount: 3}.String())
	assert.Equal(t, "1 day", premiumGrant{Amount: 1, Days: true}.String())
	assert.Equal(t, "7 days", premiumGrant{Amount: 7, Days: true}.String())
}

func TestStartParam(t *testing.T) {
	assert.Equal(t, "", startParam("/start"))
	assert.Equal(t, "video_5", startParam("/start video_5"))
	assert.Equal(t, "token_1_2_abc", startParam("/start  token_1_2_abc "))
}

func TestParseChannelArgs(t *testing.T) {
	id, name, err := parseChannelArgs([]string{"-100123", "My", "Channel"})
	require.NoError(t, err)
	assert.Equal(t, int64(-100123), id)
	assert.Equal(t, "My Channel", name)

	_, _, err = parseChannelArgs(nil)
	assert.ErrorIs(t, err, errUsage)
}

func TestUPIURI(t *testing.T) {
	assert.Equal(t, "upi://pay?pa=shop%40upi&pn=Shop+Name", upiURI("shop@upi", "Shop Name"))
	assert.Equal(t, "upi://pay?pa=shop%40upi", upiURI("shop@upi", ""))
}

func TestPaymentQRIsPNG(t *testing.T) {
	png, err := paymentQR("shop@upi", "Shop")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))
}

func TestJoinChannelsKeyboard(t *testing.T) {
	kb := JoinChannelsKeyboard([]string{"https://t.me/+a", "https://t.me/+b"}, 9)
	require.Len(t, kb.InlineKeyboard, 3)
	assert.Equal(t, "https://t.me/+b", kb.InlineKeyboard[1][0].URL)
	assert.Equal(t, "membership_confirmed:9", kb.InlineKeyboard[2][0].CallbackData)

	kb = JoinChannelsKeyboard(nil, 0)
	require.Len(t, kb.InlineKeyboard, 1)
	assert.Equal(t, cbMembershipConfirmed, kb.InlineKeyboard[0][0].CallbackData)
}

func TestChannelListText(t *testing.T) {
	text := channelListText([]storage.Channel{
		{ChannelID: -1, Name: "<Main>", IsRequired: true, IsSpecial: true},
		{ChannelID: -2, Name: "Extra"},
	})
	assert.Contains(t, text, "&lt;Main&gt; [required, special]")
	assert.Contains(t, text, "<code>-2</code> Extra\n")
}

func TestPremiumListText(t *testing.T) {
	until := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	text := premiumListText([]storage.User{{UserID: 7, Username: "ann", PremiumUntil: &until}})
	assert.Contains(t, text, "<code>7</code> @ann until 2026-05-01 10:00:00 UTC")
	assert.Equal(t, "No active premium users.", premiumListText(nil))
}

func TestDialogs(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	d := newDialogs()
	d.now = func() time.Time { return now }

	_, ok := d.get(1)
	assert.False(t, ok)
	assert.False(t, d.clear(1))

	d.start(1, dialog{step: stepVideo, title: "x"})
	dl, ok := d.get(1)
	require.True(t, ok)
	assert.Equal(t, stepVideo, dl.step)
	assert.Equal(t, "x", dl.title)

	assert.True(t, d.clear(1))
	_, ok = d.get(1)
	assert.False(t, ok)
}

func TestDialogsExpire(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	d := newDialogs()
	d.now = func() time.Time { return now }

	d.start(1, dialog{step: stepPremiumUser})
	now = now.Add(dialogTTL)

	_, ok := d.get(1)
	assert.False(t, ok)
	assert.False(t, d.clear(1))
}
