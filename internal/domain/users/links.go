package users

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var ErrLinkCodeInvalid = errors.New("users: link code is invalid or expired")

const LinkCodeTTL = 15 * time.Minute

// LinkCode: одноразовый код для привязки Telegram-чата (/start <code>).
type LinkCode struct {
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (r *Repo) NewLinkCode(ctx context.Context, userID int64) (*LinkCode, error) {
	// без дефисов: deep link Telegram принимает только [A-Za-z0-9_-] до 64 символов
	code := strings.ReplaceAll(uuid.NewString(), "-", "")
	var lc LinkCode
	err := r.pool.QueryRow(ctx, `
		INSERT INTO telegram_link_codes (code, user_id, expires_at)
		VALUES ($1, $2, now() + make_interval(secs => $3))
		RETURNING code, expires_at
	`, code, userID, LinkCodeTTL.Seconds()).Scan(&lc.Code, &lc.ExpiresAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &lc, nil
}

// LinkChat гасит код и привязывает чат к его владельцу.
// Если чат был привязан к другому пользователю, старая привязка снимается.
func (r *Repo) LinkChat(ctx context.Context, code string, chatID int64) (*User, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var userID int64
	err = tx.QueryRow(ctx, `
		DELETE FROM telegram_link_codes
		WHERE code = $1 AND expires_at > now()
		RETURNING user_id
	`, code).Scan(&userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrLinkCodeInvalid
	}
	if err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE users SET telegram_chat_id = NULL WHERE telegram_chat_id = $1 AND id <> $2
	`, chatID, userID); err != nil {
		return nil, err
	}
	u, err := scanUser(tx.QueryRow(ctx, `
		UPDATE users SET telegram_chat_id = $2 WHERE id = $1 RETURNING `+userCols, userID, chatID))
	if err != nil {
		return nil, err
	}
	// заодно чистим просроченные коды
	if _, err := tx.Exec(ctx, `DELETE FROM telegram_link_codes WHERE expires_at <= now()`); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return u, nil
}
