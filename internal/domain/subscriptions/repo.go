package subscriptions

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrSelfFollow       = errors.New("subscriptions: cannot follow yourself")
	ErrAlreadyFollowing = errors.New("subscriptions: already following")
	ErrNotFollowing     = errors.New("subscriptions: not following")
	ErrAuthorNotFound   = errors.New("subscriptions: author not found")
	ErrUserNotFound     = errors.New("subscriptions: user not found")
)

type Repo struct{ db *pgxpool.Pool }

func NewRepo(db *pgxpool.Pool) *Repo { return &Repo{db: db} }

func (r *Repo) Follow(ctx context.Context, userID, authorID int64) (*Follow, error) {
	if userID == authorID {
		return nil, ErrSelfFollow
	}
	const q = `
		INSERT INTO follows (user_id, author_id) VALUES ($1,$2)
		ON CONFLICT (user_id, author_id) DO NOTHING
		RETURNING user_id, author_id, created_at`
	var f Follow
	err := r.db.QueryRow(ctx, q, userID, authorID).Scan(&f.UserID, &f.AuthorID, &f.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr) && pgErr.Code == "23503":
			if pgErr.ConstraintName == "follows_user_id_fkey" {
				return nil, ErrUserNotFound
			}
			return nil, ErrAuthorNotFound
		case errors.Is(err, pgx.ErrNoRows):
			// конфликт: подписка уже есть
			return nil, ErrAlreadyFollowing
		}
		return nil, err
	}
	return &f, nil
}

func (r *Repo) Unfollow(ctx context.Context, userID, authorID int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM follows WHERE user_id=$1 AND author_id=$2`, userID, authorID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFollowing
	}
	return nil
}

// ListFollowed: авторы, на которых подписан userID, свежие подписки сверху.
func (r *Repo) ListFollowed(ctx context.Context, userID int64, limit, offset int) ([]FollowedAuthor, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM follows WHERE user_id=$1`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}
	if limit <= 0 {
		limit = 10
	}
	const q = `
		SELECT u.id, u.email, u.username, u.first_name, u.last_name, f.created_at
		FROM follows f
		JOIN users u ON u.id = f.author_id
		WHERE f.user_id = $1
		ORDER BY f.created_at DESC, u.id
		LIMIT $2 OFFSET $3`
	rows, err := r.db.Query(ctx, q, userID, limit, max(offset, 0))
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []FollowedAuthor{}
	for rows.Next() {
		var a FollowedAuthor
		if err := rows.Scan(&a.ID, &a.Email, &a.Username, &a.FirstName, &a.LastName, &a.Since); err != nil {
			return nil, 0, err
		}
		out = append(out, a)
	}
	return out, total, rows.Err()
}
