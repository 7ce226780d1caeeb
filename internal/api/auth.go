package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Spok95/foodgram/internal/domain/users"
)

type ctxKey int

const userKey ctxKey = 0

func withUser(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, userKey, id)
}

// userID: id из токена; 0 для анонимного запроса.
func userID(ctx context.Context) int64 {
	id, _ := ctx.Value(userKey).(int64)
	return id
}

// claims: sub = id пользователя; профиль кладёт в токен сервис авторизации.
type claims struct {
	jwt.RegisteredClaims
	Email     string `json:"email,omitempty"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

func (c *claims) profile() users.Profile {
	return users.Profile{Email: c.Email, Username: c.Username, FirstName: c.FirstName, LastName: c.LastName}
}

// parseToken проверяет HS256-токен и достаёт id пользователя из sub.
func parseToken(secret []byte, raw string) (int64, *claims, error) {
	var c claims
	_, err := jwt.ParseWithClaims(raw, &c, func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return 0, nil, err
	}
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, nil, fmt.Errorf("bad subject %q", c.Subject)
	}
	return id, &c, nil
}

// ensureUser сверяет справочник с токеном: профиль из токена заводится или
// обновляется, токен без профиля годится только для уже известного пользователя.
func (h *Handler) ensureUser(ctx context.Context, id int64, c *claims) error {
	u, err := h.users.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("load user %d: %w", id, err)
	}
	p := c.profile()
	if p.Email == "" || p.Username == "" {
		if u == nil {
			return fmt.Errorf("%w: unknown user", errUnauthorized)
		}
		return nil
	}
	if u != nil && u.Email == p.Email && u.Username == p.Username &&
		u.FirstName == p.FirstName && u.LastName == p.LastName {
		return nil
	}
	if _, err := h.users.Upsert(ctx, id, p); err != nil {
		return fmt.Errorf("sync user %d: %w", id, err)
	}
	if u == nil {
		h.log.Info("user registered from token", "user_id", id, "username", p.Username)
	}
	return nil
}

// identify: без заголовка запрос анонимный, с битым токеном отвечаем 401.
func (h *Handler) identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			h.writeError(w, r, fmt.Errorf("%w: expected bearer token", errUnauthorized))
			return
		}
		id, c, err := parseToken(h.secret, strings.TrimSpace(raw))
		if err != nil {
			h.log.Debug("rejected token", "err", err)
			h.writeError(w, r, fmt.Errorf("%w: invalid token", errUnauthorized))
			return
		}
		if err := h.ensureUser(r.Context(), id, c); err != nil {
			h.writeError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), id)))
	})
}

func requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if userID(r.Context()) == 0 {
			writeJSON(w, http.StatusUnauthorized, ErrorResponse{
				Error:   codeUnauthorized,
				Message: errUnauthorized.Error(),
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

var errUnauthorized = errors.New("authentication required")
