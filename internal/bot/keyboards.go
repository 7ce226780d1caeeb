package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/foodgram/internal/shopping"
)

const (
	btnList   = "🛒 Список покупок"
	cbListPfx = "list:"
)

func mainReplyKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnList)),
	)
	kb.ResizeKeyboard = true
	return kb
}

func formatKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("PDF", cbListPfx+string(shopping.FormatPDF)),
			tgbotapi.NewInlineKeyboardButtonData("Текст", cbListPfx+string(shopping.FormatText)),
			tgbotapi.NewInlineKeyboardButtonData("Excel", cbListPfx+string(shopping.FormatXLSX)),
		),
	)
}
