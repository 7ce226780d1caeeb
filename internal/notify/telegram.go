package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

var (
	ErrDisabled = errors.New("notify: telegram delivery is disabled")
	ErrNoChat   = errors.New("notify: user has no linked telegram chat")
)

// sender: часть tgbotapi.BotAPI, которая нам нужна; в тестах подменяется.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Telegram struct {
	api sender
	log *slog.Logger
}

// NewTelegram: при api == nil доставка выключена, методы вернут ErrDisabled.
func NewTelegram(api *tgbotapi.BotAPI, log *slog.Logger) *Telegram {
	if api == nil {
		return &Telegram{log: log}
	}
	return &Telegram{api: api, log: log}
}

func (t *Telegram) Enabled() bool { return t != nil && t.api != nil }

// SendShoppingList отправляет файл списка покупок документом в чат.
func (t *Telegram) SendShoppingList(ctx context.Context, chatID *int64, fileName string, data []byte) error {
	if !t.Enabled() {
		return ErrDisabled
	}
	if chatID == nil {
		return ErrNoChat
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	doc := tgbotapi.NewDocument(*chatID, tgbotapi.FileBytes{Name: fileName, Bytes: data})
	doc.Caption = "Список покупок"
	if _, err := t.api.Send(doc); err != nil {
		t.log.Error("telegram send failed", "chat_id", *chatID, "err", err)
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}
