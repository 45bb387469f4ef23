package bot

import (
	"context"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xaenox/mgmt-boost/internal/models"
	"github.com/xaenox/mgmt-boost/internal/storage"
)

const (
	testOwner int64 = 1
	testUser  int64 = 5
	testChat  int64 = 100
)

type fakeSender struct {
	sent     []tgbotapi.MessageConfig
	requests []tgbotapi.Chattable
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, msg)
	}
	return tgbotapi.Message{}, nil
}

func (f *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeSender) last(t *testing.T) tgbotapi.MessageConfig {
	t.Helper()
	require.NotEmpty(t, f.sent)
	return f.sent[len(f.sent)-1]
}

type fakeBooster struct {
	texts   []string
	channel models.ChannelInfo
}

func (f *fakeBooster) Boost(_ context.Context, text string, channel models.ChannelInfo) models.BoostResult {
	f.texts = append(f.texts, text)
	f.channel = channel
	score := 85
	return models.BoostResult{
		OriginalText: text,
		BoostedText:  "Could we finish this by Friday?",
		Score:        &score,
		ScoreLabel:   "Excellent tone",
		Advisories:   []string{"Soften the opener"},
		Source:       models.SourceHeuristic,
	}
}

type fakeAdvisor struct {
	key     string
	cleared int
}

func (f *fakeAdvisor) SetAPIKey(key string) { f.key = key }
func (f *fakeAdvisor) ClearContext()        { f.cleared++ }

type testBot struct {
	*Bot
	out     *fakeSender
	booster *fakeBooster
	advisor *fakeAdvisor
	store   *storage.MemoryStorage
}

func newTestBot(allowed int64) *testBot {
	tb := &testBot{
		out:     &fakeSender{},
		booster: &fakeBooster{},
		advisor: &fakeAdvisor{},
		store:   storage.NewMemoryStorage(),
	}
	tb.Bot = newBot(tb.out, Config{OwnerID: testOwner, AllowedUserID: allowed}, tb.booster, tb.advisor, tb.store, zap.NewNop())
	return tb
}

func textMessage(text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		MessageID: 42,
		Text:      text,
		From:      &tgbotapi.User{ID: testUser},
		Chat:      &tgbotapi.Chat{ID: testChat, Type: "private"},
	}
}

func command(text string) *tgbotapi.Message {
	msg := textMessage(text)
	cmd, _, _ := strings.Cut(text, " ")
	msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}}
	return msg
}

func TestPlainMessageIsBoosted(t *testing.T) {
	tb := newTestBot(0)
	ctx := context.Background()

	tb.handleMessage(ctx, textMessage("You must finish this ASAP"))

	require.Equal(t, []string{"You must finish this ASAP"}, tb.booster.texts)
	require.Equal(t, models.ChannelInfo{Name: "Telegram", Type: "private"}, tb.booster.channel)

	reply := tb.out.last(t)
	require.Equal(t, tgbotapi.ModeMarkdownV2, reply.ParseMode)
	require.Equal(t, 42, reply.ReplyToMessageID)
	require.Contains(t, reply.Text, "Could we finish this by Friday?")
	require.Contains(t, reply.Text, `*Score:* 85/100 \(Excellent tone\)`)

	prefs, err := tb.store.GetPrefs(ctx, testOwner)
	require.NoError(t, err)
	require.Equal(t, testChat, prefs.ChatID)
}

func TestAllowedUser(t *testing.T) {
	tb := newTestBot(99)
	tb.handleMessage(context.Background(), textMessage("hello"))

	require.Empty(t, tb.booster.texts)
	require.Empty(t, tb.out.sent)
}

func TestScoreCommand(t *testing.T) {
	tb := newTestBot(0)

	tb.handleMessage(context.Background(), command("/score Let's consider it"))
	reply := tb.out.last(t)
	require.Contains(t, reply.Text, "*Primary tone:* collaborative")
	require.Empty(t, tb.booster.texts)

	tb.handleMessage(context.Background(), command("/score"))
	require.Equal(t, "Usage: /score <text>", tb.out.last(t).Text)
}

func TestClearCommand(t *testing.T) {
	tb := newTestBot(0)
	tb.handleMessage(context.Background(), command("/clear"))
	require.Equal(t, 1, tb.advisor.cleared)
}

func TestKeyCommand(t *testing.T) {
	tb := newTestBot(0)
	ctx := context.Background()

	tb.handleMessage(ctx, command("/key sk-secret"))

	require.Len(t, tb.out.requests, 1)
	del, ok := tb.out.requests[0].(tgbotapi.DeleteMessageConfig)
	require.True(t, ok)
	require.Equal(t, 42, del.MessageID)

	require.Equal(t, "sk-secret", tb.advisor.key)
	prefs, err := tb.store.GetPrefs(ctx, testOwner)
	require.NoError(t, err)
	require.Equal(t, "sk-secret", prefs.APIKey)
	require.NotContains(t, tb.out.last(t).Text, "sk-secret")

	tb.handleMessage(ctx, command("/key"))
	require.Empty(t, tb.advisor.key)
	require.Contains(t, tb.out.last(t).Text, "removed")
}

func TestDiaryCommand(t *testing.T) {
	tb := newTestBot(0)
	ctx := context.Background()

	tb.handleMessage(ctx, command("/diary"))
	require.Contains(t, tb.out.last(t).Text, "Nothing in today's diary yet")

	tb.handleMessage(ctx, command("/diary Talked to Ana about goals"))
	tb.handleMessage(ctx, command("/diary Planned the offsite"))

	entry, err := tb.store.GetDiaryEntry(ctx, testOwner, time.Now().Format(models.DiaryDateLayout))
	require.NoError(t, err)
	require.Equal(t, "Talked to Ana about goals\nPlanned the offsite", entry.Text)

	tb.handleMessage(ctx, command("/diary"))
	require.Contains(t, tb.out.last(t).Text, "Planned the offsite")
}

func TestMeetAndAgendaCommands(t *testing.T) {
	tb := newTestBot(0)
	ctx := context.Background()

	tb.handleMessage(ctx, command("/meet 23:30 1:1 with Ana"))
	require.Equal(t, "Added 1:1 with Ana at 23:30 (one-on-one).", tb.out.last(t).Text)

	tb.handleMessage(ctx, command("/meet soon"))
	require.Equal(t, "Usage: /meet <HH:MM> <title>", tb.out.last(t).Text)

	tb.handleMessage(ctx, command("/agenda"))
	require.Contains(t, tb.out.last(t).Text, "23:30-00:00 1:1 with Ana (one-on-one)")
}

func TestUnknownCommand(t *testing.T) {
	tb := newTestBot(0)
	tb.handleMessage(context.Background(), command("/tags"))
	require.Contains(t, tb.out.last(t).Text, "Unknown command")
}

func TestNotify(t *testing.T) {
	tb := newTestBot(0)
	require.NoError(t, tb.Notify(context.Background(), 77, "Today's agenda"))
	require.Equal(t, int64(77), tb.out.last(t).ChatID)
	require.Empty(t, tb.out.last(t).ParseMode)
}

func TestParseMeet(t *testing.T) {
	now := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

	start, title, err := parseMeet(" 14:05  Roadmap planning ", now)
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, 5, 1, 14, 5, 0, 0, time.UTC), start)
	require.Equal(t, "Roadmap planning", title)

	for _, args := range []string{"", "14:05", "25:00 late", "noon lunch"} {
		_, _, err := parseMeet(args, now)
		require.Error(t, err, args)
	}
}
