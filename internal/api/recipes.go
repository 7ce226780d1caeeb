package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/Spok95/foodgram/internal/domain/recipes"
)

// RecipeShort: рецепт в ответах на отметки и в ленте подписок.
type RecipeShort struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Image       *string `json:"image"`
	CookingTime int     `json:"cooking_time"`
}

func shortOf(rc recipes.Recipe) RecipeShort {
	return RecipeShort{ID: rc.ID, Name: rc.Name, Image: rc.Image, CookingTime: rc.CookingTime}
}

func truthy(v string) bool {
	b, err := strconv.ParseBool(v)
	return err == nil && b
}

func (h *Handler) listRecipes(w http.ResponseWriter, r *http.Request) {
	p, err := parsePage(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	f := recipes.Filter{
		ViewerID:         userID(r.Context()),
		TagSlugs:         q["tags"],
		IsFavorited:      truthy(q.Get("is_favorited")),
		IsInShoppingCart: truthy(q.Get("is_in_shopping_cart")),
		Limit:            p.limit,
		Offset:           p.offset(),
	}
	if v := q.Get("author"); v != "" {
		if f.AuthorID, err = strconv.ParseInt(v, 10, 64); err != nil {
			h.writeError(w, r, fmt.Errorf("%w: author must be an id", errBadRequest))
			return
		}
	}

	list, total, err := h.recipes.List(r.Context(), f)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPage(r, p, total, list))
}

func (h *Handler) getRecipe(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	rc, err := h.recipes.GetByID(r.Context(), id, userID(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if rc == nil {
		h.writeError(w, r, recipes.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, rc)
}

func (h *Handler) createRecipe(w http.ResponseWriter, r *http.Request) {
	var in recipes.Input
	if err := decodeJSON(w, r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	uid := userID(r.Context())
	rc, err := h.recipes.Create(r.Context(), uid, in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.log.Info("recipe created", "recipe_id", rc.ID, "author_id", uid)
	writeJSON(w, http.StatusCreated, rc)
}

// updateRecipe: PATCH заменяет рецепт целиком, состав и теги обязательны.
func (h *Handler) updateRecipe(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var in recipes.Input
	if err := decodeJSON(w, r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	rc, err := h.recipes.Update(r.Context(), id, userID(r.Context()), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rc)
}

func (h *Handler) deleteRecipe(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	uid := userID(r.Context())
	if err := h.recipes.Delete(r.Context(), id, uid); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.log.Info("recipe deleted", "recipe_id", id, "author_id", uid)
	w.WriteHeader(http.StatusNoContent)
}
