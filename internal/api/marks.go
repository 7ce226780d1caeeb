package api

import (
	"context"
	"net/http"

	"github.com/Spok95/foodgram/internal/domain/recipes"
)

type markFunc func(ctx context.Context, userID, recipeID int64) error

func (h *Handler) addFavorite(w http.ResponseWriter, r *http.Request) {
	h.addMark(w, r, h.marks.AddFavorite)
}

func (h *Handler) removeFavorite(w http.ResponseWriter, r *http.Request) {
	h.removeMark(w, r, h.marks.RemoveFavorite)
}

func (h *Handler) addToCart(w http.ResponseWriter, r *http.Request) {
	h.addMark(w, r, h.marks.AddToCart)
}

func (h *Handler) removeFromCart(w http.ResponseWriter, r *http.Request) {
	h.removeMark(w, r, h.marks.RemoveFromCart)
}

// addMark: сначала 404 на несуществующий рецепт, потом 400 на повтор.
func (h *Handler) addMark(w http.ResponseWriter, r *http.Request, add markFunc) {
	id, err := idParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	ctx := r.Context()
	uid := userID(ctx)

	rc, err := h.recipes.GetByID(ctx, id, uid)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if rc == nil {
		h.writeError(w, r, recipes.ErrNotFound)
		return
	}
	if err := add(ctx, uid, id); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, shortOf(*rc))
}

func (h *Handler) removeMark(w http.ResponseWriter, r *http.Request, remove markFunc) {
	id, err := idParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	ctx := r.Context()

	ok, err := h.recipes.Exists(ctx, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if !ok {
		h.writeError(w, r, recipes.ErrNotFound)
		return
	}
	if err := remove(ctx, userID(ctx), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
