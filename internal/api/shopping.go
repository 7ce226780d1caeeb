package api

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"net/http"

	"github.com/Spok95/foodgram/internal/shopping"
)

type renderedList struct {
	name   string
	format shopping.Format
	data   []byte
	empty  bool
}

// renderCart собирает список по корзине и рендерит его в нужный формат.
// Пустая корзина не ошибка, файл всё равно формируется.
func (h *Handler) renderCart(ctx context.Context, uid int64, format shopping.Format) (*renderedList, error) {
	list, err := h.shopping.ForUser(ctx, uid)
	if err != nil {
		h.metrics.ShoppingList(string(format), "error")
		return nil, err
	}

	now := h.now()
	var buf bytes.Buffer
	if err := shopping.Render(&buf, list, format, shopping.RenderOptions{
		FontPath:    h.pdfFont,
		GeneratedAt: now,
	}); err != nil {
		h.metrics.ShoppingList(string(format), "error")
		return nil, fmt.Errorf("render %s: %w", format, err)
	}

	outcome := "ok"
	if list.Empty() {
		outcome = "empty"
	}
	h.metrics.ShoppingList(string(format), outcome)
	return &renderedList{
		name:   shopping.FileName(now, format),
		format: format,
		data:   buf.Bytes(),
		empty:  list.Empty(),
	}, nil
}

func (h *Handler) downloadShoppingCart(w http.ResponseWriter, r *http.Request) {
	format, err := shopping.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out, err := h.renderCart(r.Context(), userID(r.Context()), format)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": out.name}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out.data)
}

// sendShoppingCart отправляет тот же файл в привязанный Telegram-чат.
func (h *Handler) sendShoppingCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uid := userID(ctx)

	format, err := shopping.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	u, err := h.users.GetByID(ctx, uid)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if u == nil {
		h.writeError(w, r, errNotFound)
		return
	}

	out, err := h.renderCart(ctx, uid, format)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.notifier.SendShoppingList(ctx, u.TelegramChatID, out.name, out.data); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.log.Info("shopping list sent", "user_id", uid, "format", format, "empty", out.empty)
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "sent", "file": out.name})
}
