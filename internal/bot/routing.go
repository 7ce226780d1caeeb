package bot

import (
	"bytes"
	"context"
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/foodgram/internal/domain/users"
	"github.com/Spok95/foodgram/internal/shopping"
)

const helpText = `Я присылаю список покупок из корзины Foodgram.

/start <код> — привязать чат (код выдаётся в профиле)
/list [pdf|txt|xlsx] — список покупок
/stop — отвязать чат`

func (b *Bot) onMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.Chat == nil {
		return
	}
	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}
	if strings.TrimSpace(msg.Text) == btnList {
		b.askFormat(msg.Chat.ID)
		return
	}
	b.reply(msg.Chat.ID, helpText)
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	args := strings.TrimSpace(msg.CommandArguments())

	switch msg.Command() {
	case "start":
		if args == "" {
			b.reply(chatID, "Привет! Чтобы получать списки покупок, откройте профиль Foodgram, "+
				"получите код привязки и отправьте его сюда: /start <код>")
			return
		}
		u, err := b.users.LinkChat(ctx, args, chatID)
		if errors.Is(err, users.ErrLinkCodeInvalid) {
			b.reply(chatID, "Код не подошёл или устарел. Получите новый в профиле.")
			return
		}
		if err != nil {
			b.log.Error("link chat failed", "chat_id", chatID, "err", err)
			b.reply(chatID, "Ошибка: не удалось привязать чат")
			return
		}
		b.log.Info("telegram chat linked", "user_id", u.ID, "chat_id", chatID)
		m := tgbotapi.NewMessage(chatID, "Готово, "+u.Username+"! Жмите «"+btnList+"», когда соберётесь в магазин.")
		m.ReplyMarkup = mainReplyKeyboard()
		b.send(m)

	case "list":
		if args == "" {
			b.askFormat(chatID)
			return
		}
		format, err := shopping.ParseFormat(args)
		if err != nil {
			b.reply(chatID, "Формат: pdf, txt или xlsx")
			return
		}
		b.sendList(ctx, chatID, format)

	case "stop":
		u, ok := b.linkedUser(ctx, chatID)
		if !ok {
			return
		}
		if err := b.users.ClearTelegramChat(ctx, u.ID); err != nil {
			b.log.Error("unlink chat failed", "chat_id", chatID, "err", err)
			b.reply(chatID, "Ошибка: не удалось отвязать чат")
			return
		}
		m := tgbotapi.NewMessage(chatID, "Чат отвязан.")
		m.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
		b.send(m)

	default:
		b.reply(chatID, helpText)
	}
}

func (b *Bot) onCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.Message == nil || cb.Message.Chat == nil {
		return
	}
	raw, ok := strings.CutPrefix(cb.Data, cbListPfx)
	if !ok {
		b.answerCallback(cb, "")
		return
	}
	format, err := shopping.ParseFormat(raw)
	if err != nil {
		b.answerCallback(cb, "Неизвестный формат")
		return
	}
	b.answerCallback(cb, "Собираю список…")
	b.sendList(ctx, cb.Message.Chat.ID, format)
}

func (b *Bot) askFormat(chatID int64) {
	m := tgbotapi.NewMessage(chatID, "В каком формате прислать список?")
	m.ReplyMarkup = formatKeyboard()
	b.send(m)
}

// linkedUser находит владельца чата; если чат не привязан, сам отвечает пользователю.
func (b *Bot) linkedUser(ctx context.Context, chatID int64) (*users.User, bool) {
	u, err := b.users.GetByTelegramChat(ctx, chatID)
	if err != nil {
		b.log.Error("lookup by chat failed", "chat_id", chatID, "err", err)
		b.reply(chatID, "Ошибка: попробуйте позже")
		return nil, false
	}
	if u == nil {
		b.reply(chatID, "Чат не привязан к аккаунту. Отправьте /start <код> из профиля.")
		return nil, false
	}
	return u, true
}

func (b *Bot) sendList(ctx context.Context, chatID int64, format shopping.Format) {
	u, ok := b.linkedUser(ctx, chatID)
	if !ok {
		return
	}
	list, err := b.lists.ForUser(ctx, u.ID)
	if err != nil {
		b.log.Error("shopping list failed", "user_id", u.ID, "err", err)
		b.reply(chatID, "Не удалось собрать список покупок")
		return
	}
	if list.Empty() {
		b.reply(chatID, "Корзина пуста: добавьте рецепты в список покупок на сайте.")
		return
	}

	now := b.now()
	var buf bytes.Buffer
	if err := shopping.Render(&buf, list, format, shopping.RenderOptions{FontPath: b.pdfFont, GeneratedAt: now}); err != nil {
		b.log.Error("render shopping list failed", "user_id", u.ID, "format", format, "err", err)
		b.reply(chatID, "Не удалось сформировать файл")
		return
	}
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: shopping.FileName(now, format), Bytes: buf.Bytes()})
	doc.Caption = "Список покупок"
	b.send(doc)
}
