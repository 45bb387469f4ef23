package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/xaenox/mgmt-boost/internal/models"
	"github.com/xaenox/mgmt-boost/internal/scheduler"
	"github.com/xaenox/mgmt-boost/internal/storage"
	"github.com/xaenox/mgmt-boost/internal/tone"
)

const defaultMeetingLength = 30 * time.Minute

const welcomeText = `Welcome to Management Boost!
Send me any draft message and I'll suggest a clearer, more collaborative version with a tone score.

Use /help to see all available commands.`

const helpText = `Available commands:
/start - Start the bot
/help - Show this help message
/score <text> - Score a message's tone without rewriting it
/clear - Forget the conversation so far
/key <api key> - Set the OpenAI key (empty to remove it)
/diary [text] - Add to or show today's diary entry
/meet <HH:MM> <title> - Add a meeting today
/agenda - Show today's meetings

Any other message is boosted.`

func (b *Bot) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	switch message.Command() {
	case "start":
		b.rememberChat(ctx, message.Chat.ID)
		b.sendMessage(message.Chat.ID, welcomeText)
	case "help":
		b.sendMessage(message.Chat.ID, helpText)
	case "score":
		b.handleScore(message)
	case "clear":
		b.advisor.ClearContext()
		b.sendMessage(message.Chat.ID, "Conversation context cleared.")
	case "key":
		b.handleKey(ctx, message)
	case "diary":
		b.handleDiary(ctx, message)
	case "meet":
		b.handleMeet(ctx, message)
	case "agenda":
		b.handleAgenda(ctx, message)
	default:
		b.sendMessage(message.Chat.ID, "Unknown command. Use /help to see available commands.")
	}
}

func (b *Bot) handleScore(message *tgbotapi.Message) {
	text := strings.TrimSpace(message.CommandArguments())
	if text == "" {
		b.sendMessage(message.Chat.ID, "Usage: /score <text>")
		return
	}
	b.sendMarkdown(message.Chat.ID, message.MessageID, formatToneSignal(tone.Score(text)))
}

func (b *Bot) handleKey(ctx context.Context, message *tgbotapi.Message) {
	// The key should not linger in the chat history.
	if _, err := b.out.Request(tgbotapi.NewDeleteMessage(message.Chat.ID, message.MessageID)); err != nil {
		b.logger.Warn("Failed to delete key message", zap.Error(err), zap.Int64("chat_id", message.Chat.ID))
	}

	prefs, err := b.loadPrefs(ctx)
	if err != nil {
		b.logger.Error("Failed to load prefs", zap.Error(err))
		b.sendErrorMessage(message.Chat.ID, "Sorry, I couldn't update your key. Please try again.")
		return
	}

	prefs.APIKey = strings.TrimSpace(message.CommandArguments())
	prefs.ChatID = message.Chat.ID
	if err := b.storage.SavePrefs(ctx, prefs); err != nil {
		b.logger.Error("Failed to save prefs", zap.Error(err))
		b.sendErrorMessage(message.Chat.ID, "Sorry, I couldn't update your key. Please try again.")
		return
	}
	b.advisor.SetAPIKey(prefs.APIKey)

	if prefs.HasAPIKey() {
		b.sendMessage(message.Chat.ID, "API key saved. Drafts will now get AI suggestions.")
	} else {
		b.sendMessage(message.Chat.ID, "API key removed. Drafts will use built-in suggestions.")
	}
}

func (b *Bot) handleDiary(ctx context.Context, message *tgbotapi.Message) {
	date := time.Now().Format(models.DiaryDateLayout)
	addition := strings.TrimSpace(message.CommandArguments())

	entry, err := b.storage.GetDiaryEntry(ctx, b.cfg.OwnerID, date)
	if errors.Is(err, storage.ErrNotFound) {
		entry = &models.DiaryEntry{OwnerID: b.cfg.OwnerID, Date: date}
	} else if err != nil {
		b.logger.Error("Failed to load diary entry", zap.Error(err), zap.String("date", date))
		b.sendErrorMessage(message.Chat.ID, "Sorry, I couldn't open today's diary.")
		return
	}

	if addition == "" {
		if entry.Text == "" {
			b.sendMessage(message.Chat.ID, "Nothing in today's diary yet. Add to it with /diary <text>.")
			return
		}
		b.sendMessage(message.Chat.ID, fmt.Sprintf("Diary for %s:\n\n%s", date, entry.Text))
		return
	}

	entry.Text = appendLine(entry.Text, addition)
	if err := b.storage.SaveDiaryEntry(ctx, entry); err != nil {
		b.logger.Error("Failed to save diary entry", zap.Error(err), zap.String("date", date))
		b.sendErrorMessage(message.Chat.ID, "Sorry, I couldn't save your diary entry.")
		return
	}
	b.sendMessage(message.Chat.ID, "Added to today's diary.")
}

func appendLine(existing, line string) string {
	if existing == "" {
		return line
	}
	return existing + "\n" + line
}

func (b *Bot) handleMeet(ctx context.Context, message *tgbotapi.Message) {
	start, title, err := parseMeet(message.CommandArguments(), time.Now())
	if err != nil {
		b.sendMessage(message.Chat.ID, "Usage: /meet <HH:MM> <title>")
		return
	}

	event := &models.CalendarEvent{
		OwnerID: b.cfg.OwnerID,
		Title:   title,
		Start:   start,
		End:     start.Add(defaultMeetingLength),
	}
	if err := b.storage.SaveEvent(ctx, event); err != nil {
		b.logger.Error("Failed to save event", zap.Error(err))
		b.sendErrorMessage(message.Chat.ID, "Sorry, I couldn't add the meeting.")
		return
	}

	b.sendMessage(message.Chat.ID, fmt.Sprintf("Added %s at %s (%s).", title, start.Format("15:04"), event.Type()))
}

// parseMeet reads "HH:MM title" as a meeting today, relative to now.
func parseMeet(args string, now time.Time) (time.Time, string, error) {
	clock, title, ok := strings.Cut(strings.TrimSpace(args), " ")
	title = strings.TrimSpace(title)
	if !ok || title == "" {
		return time.Time{}, "", errors.New("missing title")
	}

	t, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("invalid time %q: %w", clock, err)
	}

	start := time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), 0, 0, now.Location())
	return start, title, nil
}

func (b *Bot) handleAgenda(ctx context.Context, message *tgbotapi.Message) {
	from, to := scheduler.Today(time.Now())
	text, _, err := scheduler.AgendaFor(ctx, b.storage, b.cfg.OwnerID, from, to)
	if err != nil {
		b.logger.Error("Failed to build agenda", zap.Error(err))
		b.sendErrorMessage(message.Chat.ID, "Sorry, I couldn't load today's meetings.")
		return
	}
	b.sendMessage(message.Chat.ID, text)
}
