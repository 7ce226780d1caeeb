package api

import (
	"net/http"
	"strings"
)

func (h *Handler) listTags(w http.ResponseWriter, r *http.Request) {
	list, err := h.tags.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) getTag(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	t, err := h.tags.GetByID(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if t == nil {
		h.writeError(w, r, errNotFound)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// listIngredients ищет по началу названия (?name=) без учёта регистра.
func (h *Handler) listIngredients(w http.ResponseWriter, r *http.Request) {
	list, err := h.ingredients.List(r.Context(), strings.TrimSpace(r.URL.Query().Get("name")))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) getIngredient(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	ing, err := h.ingredients.GetByID(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if ing == nil {
		h.writeError(w, r, errNotFound)
		return
	}
	writeJSON(w, http.StatusOK, ing)
}
