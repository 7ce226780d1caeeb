package bot

import (
	"context"
	"log/slog"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/foodgram/internal/domain/users"
	"github.com/Spok95/foodgram/internal/shopping"
)

// botAPI: часть tgbotapi.BotAPI, которой пользуется бот.
type botAPI interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type Users interface {
	LinkChat(ctx context.Context, code string, chatID int64) (*users.User, error)
	GetByTelegramChat(ctx context.Context, chatID int64) (*users.User, error)
	ClearTelegramChat(ctx context.Context, id int64) error
}

type ShoppingLists interface {
	ForUser(ctx context.Context, userID int64) (*shopping.List, error)
}

type Bot struct {
	api     botAPI
	log     *slog.Logger
	users   Users
	lists   ShoppingLists
	pdfFont string
	now     func() time.Time
}

// New собирает бота; loc задаёт часовой пояс в именах и шапках файлов.
func New(api *tgbotapi.BotAPI, log *slog.Logger, usersRepo Users, lists ShoppingLists, pdfFont string, loc *time.Location) *Bot {
	if loc == nil {
		loc = time.Local
	}
	return &Bot{
		api: api, log: log, users: usersRepo, lists: lists,
		pdfFont: pdfFont, now: func() time.Time { return time.Now().In(loc) },
	}
}

func (b *Bot) Run(ctx context.Context, timeoutSec int) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = timeoutSec
	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case upd, ok := <-updates:
			if !ok {
				return nil
			}
			if upd.Message != nil {
				b.onMessage(ctx, upd.Message)
			} else if upd.CallbackQuery != nil {
				b.onCallback(ctx, upd.CallbackQuery)
			}
		}
	}
}

func (b *Bot) send(msg tgbotapi.Chattable) {
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send failed", "err", err)
	}
}

func (b *Bot) reply(chatID int64, text string) {
	b.send(tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) answerCallback(cb *tgbotapi.CallbackQuery, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, text)); err != nil {
		b.log.Warn("callback answer failed", "err", err)
	}
}
