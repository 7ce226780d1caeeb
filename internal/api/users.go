package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/Spok95/foodgram/internal/domain/recipes"
	"github.com/Spok95/foodgram/internal/domain/users"
)

// Subscription: автор в ленте подписок с его последними рецептами.
type Subscription struct {
	ID           int64         `json:"id"`
	Email        string        `json:"email"`
	Username     string        `json:"username"`
	FirstName    string        `json:"first_name"`
	LastName     string        `json:"last_name"`
	IsSubscribed bool          `json:"is_subscribed"`
	Recipes      []RecipeShort `json:"recipes"`
	RecipesCount int           `json:"recipes_count"`
}

// recipesLimit: ?recipes_limit=, сколько рецептов показывать у каждого автора.
func recipesLimit(r *http.Request) (int, error) {
	v := r.URL.Query().Get("recipes_limit")
	if v == "" {
		return defaultPageSize, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: recipes_limit must be a non-negative integer", errBadRequest)
	}
	return min(n, maxPageSize), nil
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	u, err := h.users.GetByID(r.Context(), userID(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if u == nil {
		h.writeError(w, r, users.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// newTelegramCode выдаёт одноразовый код; бот привяжет чат по /start <code>.
func (h *Handler) newTelegramCode(w http.ResponseWriter, r *http.Request) {
	uid := userID(r.Context())
	code, err := h.users.NewLinkCode(r.Context(), uid)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.log.Info("telegram link code issued", "user_id", uid, "expires_at", code.ExpiresAt)
	writeJSON(w, http.StatusCreated, code)
}

func (h *Handler) unlinkTelegram(w http.ResponseWriter, r *http.Request) {
	if err := h.users.ClearTelegramChat(r.Context(), userID(r.Context())); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// subscriptionOf дополняет автора его рецептами и их общим числом.
func (h *Handler) subscriptionOf(ctx context.Context, viewerID int64, s Subscription, limit, count int) (Subscription, error) {
	s.IsSubscribed = true
	s.RecipesCount = count
	s.Recipes = []RecipeShort{}
	if limit == 0 || count == 0 {
		return s, nil
	}
	list, _, err := h.recipes.List(ctx, recipes.Filter{ViewerID: viewerID, AuthorID: s.ID, Limit: limit})
	if err != nil {
		return s, err
	}
	for _, rc := range list {
		s.Recipes = append(s.Recipes, shortOf(rc))
	}
	return s, nil
}

func (h *Handler) listSubscriptions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uid := userID(ctx)

	p, err := parsePage(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	limit, err := recipesLimit(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	authors, total, err := h.follows.ListFollowed(ctx, uid, p.limit, p.offset())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	ids := make([]int64, len(authors))
	for i, a := range authors {
		ids[i] = a.ID
	}
	counts, err := h.recipes.CountByAuthor(ctx, ids)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	out := make([]Subscription, 0, len(authors))
	for _, a := range authors {
		s, err := h.subscriptionOf(ctx, uid, Subscription{
			ID: a.ID, Email: a.Email, Username: a.Username, FirstName: a.FirstName, LastName: a.LastName,
		}, limit, counts[a.ID])
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		out = append(out, s)
	}
	writeJSON(w, http.StatusOK, newPage(r, p, total, out))
}

func (h *Handler) subscribe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uid := userID(ctx)

	authorID, err := idParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	limit, err := recipesLimit(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	author, err := h.users.GetByID(ctx, authorID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if author == nil {
		h.writeError(w, r, users.ErrNotFound)
		return
	}
	if _, err := h.follows.Follow(ctx, uid, authorID); err != nil {
		h.writeError(w, r, err)
		return
	}

	counts, err := h.recipes.CountByAuthor(ctx, []int64{authorID})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	s, err := h.subscriptionOf(ctx, uid, Subscription{
		ID: author.ID, Email: author.Email, Username: author.Username,
		FirstName: author.FirstName, LastName: author.LastName,
	}, limit, counts[authorID])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.log.Info("subscribed", "user_id", uid, "author_id", authorID)
	writeJSON(w, http.StatusCreated, s)
}

func (h *Handler) unsubscribe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authorID, err := idParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	author, err := h.users.GetByID(ctx, authorID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if author == nil {
		h.writeError(w, r, users.ErrNotFound)
		return
	}
	if err := h.follows.Unfollow(ctx, userID(ctx), authorID); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
