package telegram

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suspectuso/vidgate/internal/catalog"
	"github.com/suspectuso/vidgate/internal/config"
	"github.com/suspectuso/vidgate/internal/deeplink"
	"github.com/suspectuso/vidgate/internal/entitlement"
	"github.com/suspectuso/vidgate/internal/shortener"
	"github.com/suspectuso/vidgate/internal/storage"
)

const (
	adminID = int64(1)
	userID  = int64(42)
	channel = int64(-1001)
)

type apiCall struct {
	Method string
	Form   url.Values
}

// fakeAPI is a minimal Bot API server that records every call
type fakeAPI struct {
	mu      sync.Mutex
	calls   []apiCall
	members map[int64]string
	failGCM bool
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		_ = r.ParseForm()
	}
	method := path.Base(r.URL.Path)

	f.mu.Lock()
	f.calls = append(f.calls, apiCall{Method: method, Form: r.Form})
	status, known := f.members[formInt(r, "user_id")]
	failGCM := f.failGCM
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")

	switch method {
	case "getMe":
		fmt.Fprint(w, `{"ok":true,"result":{"id":999,"is_bot":true,"first_name":"vid","username":"vid_bot"}}`)
	case "getChatMember":
		if failGCM {
			fmt.Fprint(w, `{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`)
			return
		}
		if !known {
			status = "left"
		}
		extra := ""
		if status == "restricted" || status == "restricted_left" {
			extra = fmt.Sprintf(`,"is_member":%t`, status == "restricted")
			status = "restricted"
		}
		fmt.Fprintf(w, `{"ok":true,"result":{"status":%q,"user":{"id":%d,"is_bot":false,"first_name":"u"}%s}}`,
			status, formInt(r, "user_id"), extra)
	case "answerCallbackQuery", "deleteMessage":
		fmt.Fprint(w, `{"ok":true,"result":true}`)
	default:
		fmt.Fprint(w, `{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":1,"type":"private"}}}`)
	}
}

func formInt(r *http.Request, key string) int64 {
	n, _ := strconv.ParseInt(r.FormValue(key), 10, 64)
	return n
}

func (f *fakeAPI) byMethod(method string) []apiCall {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []apiCall
	for _, c := range f.calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

type testBot struct {
	*Bot
	api    *fakeAPI
	store  *storage.Storage
	engine *entitlement.Engine
	signer *deeplink.Signer

	membership *MembershipChecker
}

// MembershipChecker returns the checker bound to the test bot's API client
func (tb *testBot) MembershipChecker() *MembershipChecker {
	return tb.membership
}

func newTestBot(t *testing.T) *testBot {
	t.Helper()

	api := &fakeAPI{members: map[int64]string{}}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	store, err := storage.New(filepath.Join(t.TempDir(), "bot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.Config{
		BotToken:        "123:TEST",
		BotUsername:     "vid_bot",
		AdminUserIDs:    map[int64]bool{adminID: true},
		JoinChannelURLs: []string{"https://t.me/+join"},
	}

	membership := NewMembershipChecker()
	engine := entitlement.NewEngine(store, entitlement.NewVerifier(membership, 2*time.Second, log), log)
	short := shortener.NewClient("", "")
	signer := deeplink.NewSigner("secret", time.Hour)

	b, err := New(cfg, Deps{
		Storage:    store,
		Engine:     engine,
		Catalog:    catalog.New(store, short, cfg.BotUsername, log),
		Shortener:  short,
		Signer:     signer,
		Membership: membership,
	}, log, bot.WithServerURL(srv.URL))
	require.NoError(t, err)

	return &testBot{Bot: b, api: api, store: store, engine: engine, signer: signer, membership: membership}
}

func textUpdate(from int64, text string) *models.Update {
	return &models.Update{
		Message: &models.Message{
			ID:   10,
			From: &models.User{ID: from, FirstName: "Tester"},
			Chat: models.Chat{ID: from, Type: models.ChatTypePrivate},
			Text: text,
		},
	}
}

func (tb *testBot) addVideo(t *testing.T) storage.Video {
	t.Helper()
	v, err := tb.catalog.Register(context.Background(), catalog.NewVideo{Title: "Clip", FileID: "file-abc"})
	require.NoError(t, err)
	return v
}

func (tb *testBot) requireChannel(t *testing.T) {
	t.Helper()
	require.NoError(t, SetupSpecialChannel(context.Background(), tb.store, channel, "Special", adminID))
}

func TestMembershipChecker(t *testing.T) {
	tb := newTestBot(t)
	checker := tb.MembershipChecker()
	ctx := context.Background()

	cases := map[string]bool{
		"creator":         true,
		"administrator":   true,
		"member":          true,
		"restricted":      true,
		"restricted_left": false,
		"left":            false,
		"kicked":          false,
	}

	uid := int64(100)
	for status, want := range cases {
		uid++
		tb.api.members[uid] = status

		got, err := checker.IsMember(ctx, channel, uid)
		require.NoError(t, err, status)
		assert.Equal(t, want, got, status)
	}

	tb.api.failGCM = true
	got, err := checker.IsMember(ctx, channel, 101)
	assert.Error(t, err)
	assert.False(t, got)
}

func TestUnboundMembershipCheckerFails(t *testing.T) {
	ok, err := NewMembershipChecker().IsMember(context.Background(), channel, userID)
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestStartVideoNotMember(t *testing.T) {
	tb := newTestBot(t)
	tb.requireChannel(t)
	v := tb.addVideo(t)
	ctx := context.Background()

	_, err := tb.engine.RefreshToken(ctx, userID)
	require.NoError(t, err)

	tb.startHandler(ctx, tb.bot, textUpdate(userID, "/start "+deeplink.Video(v.ID)))

	assert.Empty(t, tb.api.byMethod("sendVideo"))
	msgs := tb.api.byMethod("sendMessage")
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Form.Get("text"), "CHANNEL JOIN REQUIRED")
	assert.Contains(t, msgs[0].Form.Get("reply_markup"), fmt.Sprintf("membership_confirmed:%d", v.ID))
}

func TestStartVideoAllowedWithToken(t *testing.T) {
	tb := newTestBot(t)
	tb.requireChannel(t)
	tb.api.members[userID] = "member"
	v := tb.addVideo(t)
	ctx := context.Background()

	_, err := tb.engine.RefreshToken(ctx, userID)
	require.NoError(t, err)

	tb.startHandler(ctx, tb.bot, textUpdate(userID, "/start "+deeplink.Video(v.ID)))

	videos := tb.api.byMethod("sendVideo")
	require.Len(t, videos, 1)
	assert.Equal(t, "file-abc", videos[0].Form.Get("video"))
}

func TestStartVideoTokenExpired(t *testing.T) {
	tb := newTestBot(t)
	tb.api.members[userID] = "member"
	v := tb.addVideo(t)

	tb.startHandler(context.Background(), tb.bot, textUpdate(userID, "/start "+deeplink.Video(v.ID)))

	assert.Empty(t, tb.api.byMethod("sendVideo"))
	msgs := tb.api.byMethod("sendMessage")
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Form.Get("text"), "token is expired")
	assert.Contains(t, msgs[0].Form.Get("reply_markup"), cbRefreshToken)
}

func TestStartVideoPremiumSkipsChecks(t *testing.T) {
	tb := newTestBot(t)
	tb.requireChannel(t)
	v := tb.addVideo(t)
	ctx := context.Background()

	_, err := tb.engine.AddPremium(ctx, userID, 1)
	require.NoError(t, err)

	tb.startHandler(ctx, tb.bot, textUpdate(userID, "/start "+deeplink.Video(v.ID)))

	assert.Len(t, tb.api.byMethod("sendVideo"), 1)
	assert.Empty(t, tb.api.byMethod("getChatMember"))
}

func TestStartStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("token active", func(t *testing.T) {
		tb := newTestBot(t)
		expires, err := tb.engine.RefreshToken(ctx, userID)
		require.NoError(t, err)

		tb.startHandler(ctx, tb.bot, textUpdate(userID, "/start"))

		msgs := tb.api.byMethod("sendMessage")
		require.Len(t, msgs, 1)
		assert.Contains(t, msgs[0].Form.Get("text"), "active until <b>"+formatTime(expires)+"</b>")
	})

	t.Run("no token", func(t *testing.T) {
		tb := newTestBot(t)

		tb.startHandler(ctx, tb.bot, textUpdate(userID, "/start"))

		msgs := tb.api.byMethod("sendMessage")
		require.Len(t, msgs, 1)
		assert.Contains(t, msgs[0].Form.Get("text"), "token is expired")
	})

	t.Run("not member", func(t *testing.T) {
		tb := newTestBot(t)
		tb.requireChannel(t)
		_, err := tb.engine.RefreshToken(ctx, userID)
		require.NoError(t, err)

		tb.startHandler(ctx, tb.bot, textUpdate(userID, "/start"))

		msgs := tb.api.byMethod("sendMessage")
		require.Len(t, msgs, 1)
		assert.Contains(t, msgs[0].Form.Get("text"), "CHANNEL JOIN REQUIRED")
	})

	t.Run("premium", func(t *testing.T) {
		tb := newTestBot(t)
		tb.requireChannel(t)
		_, err := tb.engine.AddPremium(ctx, userID, 1)
		require.NoError(t, err)

		tb.startHandler(ctx, tb.bot, textUpdate(userID, "/start"))

		assert.Empty(t, tb.api.byMethod("getChatMember"))
		msgs := tb.api.byMethod("sendMessage")
		require.Len(t, msgs, 1)
		assert.Contains(t, msgs[0].Form.Get("text"), "<b>Premium</b> member")
	})
}

func TestStartTokenLink(t *testing.T) {
	tb := newTestBot(t)
	ctx := context.Background()

	link := tb.signer.Token(userID, time.Now())
	tb.startHandler(ctx, tb.bot, textUpdate(userID, "/start "+link))

	st, err := tb.engine.TokenStatus(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, entitlement.Valid, st.State)
}

func TestStartTokenLinkRedeemsOnce(t *testing.T) {
	tb := newTestBot(t)
	ctx := context.Background()

	link := tb.signer.Token(userID, time.Now())
	tb.startHandler(ctx, tb.bot, textUpdate(userID, "/start "+link))
	tb.startHandler(ctx, tb.bot, textUpdate(userID, "/start "+link))

	msgs := tb.api.byMethod("sendMessage")
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[0].Form.Get("text"), "Token refreshed!")
	assert.Contains(t, msgs[1].Form.Get("text"), "invalid or has expired")
}

func TestStartTokenLinkForOtherUser(t *testing.T) {
	tb := newTestBot(t)
	ctx := context.Background()

	link := tb.signer.Token(userID, time.Now())
	tb.startHandler(ctx, tb.bot, textUpdate(userID+1, "/start "+link))

	st, err := tb.engine.TokenStatus(ctx, userID+1)
	require.NoError(t, err)
	assert.Equal(t, entitlement.NoToken, st.State)

	msgs := tb.api.byMethod("sendMessage")
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Form.Get("text"), "invalid or has expired")
}

func TestStartUnsignedTokenLinkRejected(t *testing.T) {
	tb := newTestBot(t)
	ctx := context.Background()

	tb.startHandler(ctx, tb.bot, textUpdate(userID, fmt.Sprintf("/start token_%d", userID)))

	st, err := tb.engine.TokenStatus(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, entitlement.NoToken, st.State)
}

func TestRefreshTokenCallbackSendsSignedLink(t *testing.T) {
	tb := newTestBot(t)

	tb.callbackHandler(context.Background(), tb.bot, &models.Update{
		CallbackQuery: &models.CallbackQuery{
			ID:   "cb1",
			From: models.User{ID: userID, FirstName: "Tester"},
			Data: cbRefreshToken,
		},
	})

	msgs := tb.api.byMethod("sendMessage")
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Form.Get("reply_markup"), fmt.Sprintf("https://t.me/vid_bot?start=token_%d_", userID))
	assert.Len(t, tb.api.byMethod("answerCallbackQuery"), 1)
}

func TestAddPremiumCommand(t *testing.T) {
	tb := newTestBot(t)
	ctx := context.Background()

	tb.adminOnly(tb.addPremiumHandler)(ctx, tb.bot, textUpdate(adminID, fmt.Sprintf("/add_premium %d 7 days", userID)))

	st, err := tb.engine.Status(ctx, userID)
	require.NoError(t, err)
	require.True(t, st.Premium)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), *st.PremiumUntil, time.Minute)

	var notified bool
	for _, c := range tb.api.byMethod("sendMessage") {
		if c.Form.Get("chat_id") == strconv.FormatInt(userID, 10) {
			notified = true
		}
	}
	assert.True(t, notified)
}

func TestAdminCommandRejectsNonAdmin(t *testing.T) {
	tb := newTestBot(t)
	ctx := context.Background()

	tb.adminOnly(tb.addPremiumHandler)(ctx, tb.bot, textUpdate(userID, fmt.Sprintf("/add_premium %d", userID)))

	premium, err := tb.engine.IsPremium(ctx, userID)
	require.NoError(t, err)
	assert.False(t, premium)

	msgs := tb.api.byMethod("sendMessage")
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Form.Get("text"), "only available to admins")
}

func TestRemovePremiumCommand(t *testing.T) {
	tb := newTestBot(t)
	ctx := context.Background()

	_, err := tb.engine.AddPremium(ctx, userID, 2)
	require.NoError(t, err)

	tb.adminOnly(tb.removePremiumHandler)(ctx, tb.bot, textUpdate(adminID, fmt.Sprintf("/remove_premium %d", userID)))

	premium, err := tb.engine.IsPremium(ctx, userID)
	require.NoError(t, err)
	assert.False(t, premium)
}

func TestAddVideoDialog(t *testing.T) {
	tb := newTestBot(t)
	ctx := context.Background()

	tb.adminOnly(tb.addVideoHandler)(ctx, tb.bot, textUpdate(adminID, "/add_video"))
	tb.defaultHandler(ctx, tb.bot, textUpdate(adminID, "Funny cats"))

	upd := textUpdate(adminID, "")
	upd.Message.Video = &models.Video{FileID: "vid-file"}
	tb.defaultHandler(ctx, tb.bot, upd)

	videos, err := tb.store.ListVideos(ctx)
	require.NoError(t, err)
	require.Len(t, videos, 1)
	assert.Equal(t, "Funny cats", videos[0].Title)
	assert.Equal(t, "vid-file", videos[0].FileID)
	_, open := tb.dialogs.get(adminID)
	assert.False(t, open)
}

func TestChannelPostIngested(t *testing.T) {
	tb := newTestBot(t)
	ctx := context.Background()

	post := &models.Update{
		ChannelPost: &models.Message{
			ID:      77,
			Chat:    models.Chat{ID: channel, Type: models.ChatTypeChannel, Title: "Clips"},
			Caption: "Dogs",
			Video:   &models.Video{FileID: "dog-file"},
		},
	}
	tb.defaultHandler(ctx, tb.bot, post)
	tb.defaultHandler(ctx, tb.bot, post)

	videos, err := tb.store.ListVideos(ctx)
	require.NoError(t, err)
	require.Len(t, videos, 1)
	assert.Equal(t, "Dogs", videos[0].Title)

	replies := tb.api.byMethod("sendMessage")
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0].Form.Get("text"), "https://t.me/vid_bot?start=video_")
}

func TestRequireChannelUnknown(t *testing.T) {
	tb := newTestBot(t)

	tb.adminOnly(tb.requireChannelHandler(true))(context.Background(), tb.bot, textUpdate(adminID, "/require_channel -100555"))

	msgs := tb.api.byMethod("sendMessage")
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Form.Get("text"), "Unknown channel")
}
