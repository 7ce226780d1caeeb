package bot

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/Spok95/foodgram/internal/domain/ingredients"
	"github.com/Spok95/foodgram/internal/domain/recipes"
	"github.com/Spok95/foodgram/internal/domain/users"
	"github.com/Spok95/foodgram/internal/infra/logger"
	"github.com/Spok95/foodgram/internal/shopping"
)

type fakeAPI struct {
	mu       sync.Mutex
	updates  chan tgbotapi.Update
	sent     []tgbotapi.Chattable
	answered []string
	stopped  bool
}

func (f *fakeAPI) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel { return f.updates }

func (f *fakeAPI) StopReceivingUpdates() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if cb, ok := c.(tgbotapi.CallbackConfig); ok {
		f.answered = append(f.answered, cb.Text)
	}
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) last(t *testing.T) tgbotapi.Chattable {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.sent)
	return f.sent[len(f.sent)-1]
}

func (f *fakeAPI) lastText(t *testing.T) string {
	t.Helper()
	m, ok := f.last(t).(tgbotapi.MessageConfig)
	require.True(t, ok, "expected a text message")
	return m.Text
}

type fakeUsers struct {
	codes  map[string]int64
	byID   map[int64]*users.User
	failed bool
}

func (f *fakeUsers) LinkChat(_ context.Context, code string, chatID int64) (*users.User, error) {
	if f.failed {
		return nil, errors.New("db is down")
	}
	id, ok := f.codes[code]
	if !ok {
		return nil, users.ErrLinkCodeInvalid
	}
	delete(f.codes, code)
	u := f.byID[id]
	u.TelegramChatID = &chatID
	return u, nil
}

func (f *fakeUsers) GetByTelegramChat(_ context.Context, chatID int64) (*users.User, error) {
	for _, u := range f.byID {
		if u.TelegramChatID != nil && *u.TelegramChatID == chatID {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeUsers) ClearTelegramChat(_ context.Context, id int64) error {
	f.byID[id].TelegramChatID = nil
	return nil
}

type fakeLists struct{ list *shopping.List }

func (f fakeLists) ForUser(context.Context, int64) (*shopping.List, error) { return f.list, nil }

const chatID = 555

func newTestBot(list *shopping.List) (*Bot, *fakeAPI, *fakeUsers) {
	api := &fakeAPI{updates: make(chan tgbotapi.Update)}
	us := &fakeUsers{
		codes: map[string]int64{"abc123": 1},
		byID:  map[int64]*users.User{1: {ID: 1, Username: "cook"}},
	}
	b := &Bot{
		api:   api,
		log:   logger.Discard(),
		users: us,
		lists: fakeLists{list: list},
		now:   func() time.Time { return time.Date(2024, 3, 1, 9, 5, 7, 0, time.UTC) },
	}
	return b, api, us
}

func command(text string) *tgbotapi.Message {
	cmdLen := len(text)
	for i, r := range text {
		if r == ' ' {
			cmdLen = i
			break
		}
	}
	return &tgbotapi.Message{
		Text:     text,
		Chat:     &tgbotapi.Chat{ID: chatID},
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: cmdLen}},
	}
}

func filledList() *shopping.List {
	l := shopping.NewList()
	l.Add(recipes.Line{IngredientID: 1, Name: "мука", Unit: ingredients.UnitGram, Amount: decimal.NewFromInt(300)})
	return l
}

func TestStartLinksChat(t *testing.T) {
	b, api, us := newTestBot(filledList())
	ctx := context.Background()

	b.onMessage(ctx, command("/start"))
	assert.Contains(t, api.lastText(t), "/start <код>")

	b.onMessage(ctx, command("/start wrong"))
	assert.Contains(t, api.lastText(t), "Код не подошёл")

	b.onMessage(ctx, command("/start abc123"))
	assert.Contains(t, api.lastText(t), "cook")
	require.NotNil(t, us.byID[1].TelegramChatID)
	assert.Equal(t, int64(chatID), *us.byID[1].TelegramChatID)

	us.failed = true
	b.onMessage(ctx, command("/start again"))
	assert.Contains(t, api.lastText(t), "Ошибка")
}

func TestListRequiresLinkedChat(t *testing.T) {
	b, api, _ := newTestBot(filledList())
	b.onMessage(context.Background(), command("/list txt"))
	assert.Contains(t, api.lastText(t), "не привязан")
}

func TestListSendsDocument(t *testing.T) {
	b, api, _ := newTestBot(filledList())
	ctx := context.Background()
	b.onMessage(ctx, command("/start abc123"))

	b.onMessage(ctx, command("/list txt"))
	doc, ok := api.last(t).(tgbotapi.DocumentConfig)
	require.True(t, ok)
	file, ok := doc.File.(tgbotapi.FileBytes)
	require.True(t, ok)
	assert.Equal(t, "shopping_list_20240301_090507.txt", file.Name)
	assert.Equal(t, "мука (g) - 300\n", string(file.Bytes))

	b.onMessage(ctx, command("/list docx"))
	assert.Contains(t, api.lastText(t), "Формат")

	b.onMessage(ctx, command("/list"))
	m, ok := api.last(t).(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.IsType(t, tgbotapi.InlineKeyboardMarkup{}, m.ReplyMarkup)
}

func TestListEmptyCart(t *testing.T) {
	b, api, _ := newTestBot(shopping.NewList())
	ctx := context.Background()
	b.onMessage(ctx, command("/start abc123"))
	b.onMessage(ctx, command("/list pdf"))
	assert.Contains(t, api.lastText(t), "Корзина пуста")
}

func TestCallbackPicksFormat(t *testing.T) {
	b, api, _ := newTestBot(filledList())
	ctx := context.Background()
	b.onMessage(ctx, command("/start abc123"))

	b.onCallback(ctx, &tgbotapi.CallbackQuery{
		ID:      "cb1",
		Data:    cbListPfx + "xlsx",
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: chatID}},
	})
	doc, ok := api.last(t).(tgbotapi.DocumentConfig)
	require.True(t, ok)
	assert.Equal(t, "shopping_list_20240301_090507.xlsx", doc.File.(tgbotapi.FileBytes).Name)
	assert.Equal(t, []string{"Собираю список…"}, api.answered)
}

func TestStopUnlinks(t *testing.T) {
	b, api, us := newTestBot(filledList())
	ctx := context.Background()
	b.onMessage(ctx, command("/start abc123"))
	b.onMessage(ctx, command("/stop"))
	assert.Equal(t, "Чат отвязан.", api.lastText(t))
	assert.Nil(t, us.byID[1].TelegramChatID)
}

func TestRunStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	b, api, _ := newTestBot(filledList())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx, 1) }()

	api.updates <- tgbotapi.Update{Message: &tgbotapi.Message{Text: "привет", Chat: &tgbotapi.Chat{ID: chatID}}}
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.Contains(t, api.lastText(t), "/list")
	assert.True(t, api.stopped)
}
