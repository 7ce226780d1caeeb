package users

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound        = errors.New("users: not found")
	ErrProfileConflict = errors.New("users: email or username belongs to another user")
)

const uniqueViolation = "23505"

type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

const userCols = `id, email, username, first_name, last_name, telegram_chat_id, created_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Email, &u.Username, &u.FirstName, &u.LastName, &u.TelegramChatID, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *Repo) GetByID(ctx context.Context, id int64) (*User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return u, err
}

// Upsert заводит или обновляет профиль под id из сервиса авторизации;
// telegram_chat_id не трогаем. Чужие email или username дают ErrProfileConflict.
func (r *Repo) Upsert(ctx context.Context, id int64, p Profile) (*User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `
		INSERT INTO users (id, email, username, first_name, last_name)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (id)
		DO UPDATE SET
			email      = EXCLUDED.email,
			username   = EXCLUDED.username,
			first_name = EXCLUDED.first_name,
			last_name  = EXCLUDED.last_name
		RETURNING `+userCols,
		id, p.Email, p.Username, p.FirstName, p.LastName))
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return nil, ErrProfileConflict
	}
	return u, err
}

// ClearTelegramChat отвязывает чат; повторный вызов не ошибка.
func (r *Repo) ClearTelegramChat(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET telegram_chat_id = NULL WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) GetByTelegramChat(ctx context.Context, chatID int64) (*User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE telegram_chat_id = $1`, chatID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return u, err
}
