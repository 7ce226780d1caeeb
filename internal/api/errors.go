package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Spok95/foodgram/internal/domain/favorites"
	"github.com/Spok95/foodgram/internal/domain/recipes"
	"github.com/Spok95/foodgram/internal/domain/subscriptions"
	"github.com/Spok95/foodgram/internal/domain/users"
	"github.com/Spok95/foodgram/internal/notify"
	"github.com/Spok95/foodgram/internal/shopping"
)

const (
	codeNotFound     = "NOT_FOUND"
	codeBadRequest   = "BAD_REQUEST"
	codeForbidden    = "FORBIDDEN"
	codeUnauthorized = "UNAUTHORIZED"
	codeUnavailable  = "UNAVAILABLE"
	codeInternal     = "INTERNAL"

	maxBodyBytes = 2 << 20 // картинка в base64 до ~900 КБ
)

var (
	errNotFound   = errors.New("not found")
	errBadRequest = errors.New("bad request")
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type errorMapping struct {
	target error
	status int
	code   string
}

var errorTable = []errorMapping{
	{errUnauthorized, http.StatusUnauthorized, codeUnauthorized},
	{recipes.ErrAuthorNotFound, http.StatusUnauthorized, codeUnauthorized},
	{favorites.ErrUserNotFound, http.StatusUnauthorized, codeUnauthorized},
	{subscriptions.ErrUserNotFound, http.StatusUnauthorized, codeUnauthorized},
	{users.ErrProfileConflict, http.StatusUnauthorized, codeUnauthorized},

	{errNotFound, http.StatusNotFound, codeNotFound},
	{recipes.ErrNotFound, http.StatusNotFound, codeNotFound},
	{favorites.ErrRecipeNotFound, http.StatusNotFound, codeNotFound},
	{subscriptions.ErrAuthorNotFound, http.StatusNotFound, codeNotFound},
	{users.ErrNotFound, http.StatusNotFound, codeNotFound},
	{shopping.ErrNotFound, http.StatusNotFound, codeNotFound},

	{recipes.ErrForbidden, http.StatusForbidden, codeForbidden},

	{errBadRequest, http.StatusBadRequest, codeBadRequest},
	{recipes.ErrInvalid, http.StatusBadRequest, codeBadRequest},
	{recipes.ErrIngredientNotFound, http.StatusBadRequest, codeBadRequest},
	{recipes.ErrTagNotFound, http.StatusBadRequest, codeBadRequest},
	{favorites.ErrAlreadyExists, http.StatusBadRequest, codeBadRequest},
	{favorites.ErrNotMarked, http.StatusBadRequest, codeBadRequest},
	{subscriptions.ErrSelfFollow, http.StatusBadRequest, codeBadRequest},
	{subscriptions.ErrAlreadyFollowing, http.StatusBadRequest, codeBadRequest},
	{subscriptions.ErrNotFollowing, http.StatusBadRequest, codeBadRequest},
	{shopping.ErrUnknownFormat, http.StatusBadRequest, codeBadRequest},
	{notify.ErrNoChat, http.StatusBadRequest, codeBadRequest},

	{notify.ErrDisabled, http.StatusServiceUnavailable, codeUnavailable},
}

// writeError: единственное место, где доменные ошибки превращаются в HTTP-статусы.
// Всё, чего нет в таблице, логируется и уходит клиенту как 500 без подробностей.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	for _, m := range errorTable {
		if errors.Is(err, m.target) {
			writeJSON(w, m.status, ErrorResponse{Error: m.code, Message: err.Error()})
			return
		}
	}
	h.log.Error("request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"user_id", userID(r.Context()),
		"err", err,
	)
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   codeInternal,
		Message: "internal server error",
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: malformed json: %v", errBadRequest, err)
	}
	return nil
}

// idParam: положительный id из пути; всё прочее считаем несуществующим ресурсом.
func idParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: bad %s", errNotFound, name)
	}
	return id, nil
}
