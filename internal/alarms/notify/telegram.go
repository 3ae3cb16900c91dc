package notify

import (
	"context"
	"errors"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramSender is the subset of *tgbotapi.BotAPI used to deliver messages.
type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramChannel sends notifications to one Telegram chat.
type TelegramChannel struct {
	bot    TelegramSender
	chatID int64
}

// NewTelegramChannel constructs a Telegram channel.
func NewTelegramChannel(bot TelegramSender, chatID int64) (*TelegramChannel, error) {
	if bot == nil {
		return nil, errors.New("telegram channel: nil bot")
	}
	if chatID == 0 {
		return nil, errors.New("telegram channel: empty chat id")
	}
	return &TelegramChannel{bot: bot, chatID: chatID}, nil
}

// NewTelegramBot connects to the Bot API with token.
func NewTelegramBot(token string) (*tgbotapi.BotAPI, error) {
	if token == "" {
		return nil, errors.New("telegram channel: empty token")
	}
	return tgbotapi.NewBotAPI(token)
}

// Name implements Channel.
func (t *TelegramChannel) Name() string { return "telegram" }

// Send delivers content as a plain text message. The Bot API client has no
// per-call context, so ctx is only checked before sending.
func (t *TelegramChannel) Send(ctx context.Context, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(t.chatID, content)
	msg.DisableWebPagePreview = true
	_, err := t.bot.Send(msg)
	return err
}
