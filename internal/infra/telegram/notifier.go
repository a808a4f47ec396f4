package telegram

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Notifier delivers customer-facing messages through a Telegram bot. Delivery
// is best effort: callers treat errors as log-and-continue.
type Notifier struct {
	api *tgbotapi.BotAPI
}

func NewNotifier(token string) (*Notifier, error) {
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("telegram bot token is empty")
	}

	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot api: %w", err)
	}

	return &Notifier{api: api}, nil
}

func (n *Notifier) Send(ctx context.Context, chatID int64, text string) error {
	if n == nil || n.api == nil {
		return fmt.Errorf("telegram notifier is not configured")
	}
	if chatID == 0 || strings.TrimSpace(text) == "" {
		return fmt.Errorf("invalid telegram message payload")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := n.api.Send(msg); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}

	return nil
}
