// Package bot is the Telegram front end: drafts sent to the bot come back
// boosted, and commands manage the key, diary and calendar.
package bot

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/xaenox/mgmt-boost/internal/models"
	"github.com/xaenox/mgmt-boost/internal/storage"
)

// Booster produces boost results for drafts.
type Booster interface {
	Boost(ctx context.Context, text string, channel models.ChannelInfo) models.BoostResult
}

// Advisor is the session state the bot can reset or re-key.
type Advisor interface {
	SetAPIKey(key string)
	ClearContext()
}

// sender is the part of *tgbotapi.BotAPI the handlers use.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type Config struct {
	Token string
	// OwnerID is the panel owner the bot reads and writes records for.
	OwnerID int64
	// AllowedUserID, when non-zero, is the only Telegram user served.
	AllowedUserID int64
}

type Bot struct {
	api     *tgbotapi.BotAPI
	out     sender
	cfg     Config
	booster Booster
	advisor Advisor
	storage storage.Storage
	logger  *zap.Logger
}

func New(cfg Config, booster Booster, advisor Advisor, storage storage.Storage, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	b := newBot(api, cfg, booster, advisor, storage, logger)
	b.api = api
	return b, nil
}

func newBot(out sender, cfg Config, booster Booster, advisor Advisor, storage storage.Storage, logger *zap.Logger) *Bot {
	return &Bot{
		out:     out,
		cfg:     cfg,
		booster: booster,
		advisor: advisor,
		storage: storage,
		logger:  logger,
	}
}

// Start polls for updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	if b.api == nil {
		return errors.New("bot has no Telegram connection")
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	b.logger.Info("Bot started", zap.String("username", b.api.Self.UserName))

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			go b.handleMessage(ctx, update.Message)
		}
	}
}

// Notify sends plain text to a chat.
func (b *Bot) Notify(_ context.Context, chatID int64, text string) error {
	_, err := b.out.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	if message.From == nil || message.Chat == nil {
		return
	}
	if b.cfg.AllowedUserID != 0 && message.From.ID != b.cfg.AllowedUserID {
		b.logger.Warn("Ignoring message from unknown user", zap.Int64("user_id", message.From.ID))
		return
	}

	if message.IsCommand() {
		b.handleCommand(ctx, message)
		return
	}

	text := message.Text
	if text == "" {
		text = message.Caption
	}
	if text == "" {
		return
	}

	b.rememberChat(ctx, message.Chat.ID)

	result := b.booster.Boost(ctx, text, channelOf(message.Chat))
	b.sendMarkdown(message.Chat.ID, message.MessageID, formatBoostResult(result))
}

func channelOf(chat *tgbotapi.Chat) models.ChannelInfo {
	name := chat.Title
	if name == "" {
		name = "Telegram"
	}
	return models.ChannelInfo{Name: name, Type: chat.Type}
}

// loadPrefs returns the owner's prefs, or empty ones if none are stored yet.
func (b *Bot) loadPrefs(ctx context.Context) (*models.Prefs, error) {
	prefs, err := b.storage.GetPrefs(ctx, b.cfg.OwnerID)
	if errors.Is(err, storage.ErrNotFound) {
		return &models.Prefs{OwnerID: b.cfg.OwnerID}, nil
	}
	return prefs, err
}

// rememberChat stores the chat the digest is delivered to.
func (b *Bot) rememberChat(ctx context.Context, chatID int64) {
	prefs, err := b.loadPrefs(ctx)
	if err != nil {
		b.logger.Error("Failed to load prefs", zap.Error(err))
		return
	}
	if prefs.ChatID == chatID {
		return
	}

	prefs.ChatID = chatID
	if err := b.storage.SavePrefs(ctx, prefs); err != nil {
		b.logger.Error("Failed to save chat ID", zap.Error(err), zap.Int64("chat_id", chatID))
	}
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.out.Send(msg); err != nil {
		b.logger.Error("Failed to send message",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}

func (b *Bot) sendMarkdown(chatID int64, replyToID int, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	msg.ReplyToMessageID = replyToID

	if _, err := b.out.Send(msg); err != nil {
		b.logger.Error("Failed to send message",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}

func (b *Bot) sendErrorMessage(chatID int64, text string) {
	b.sendMessage(chatID, "⚠️ "+text)
}
