package favorites

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrAlreadyExists  = errors.New("favorites: recipe already marked")
	ErrNotMarked      = errors.New("favorites: recipe is not marked")
	ErrRecipeNotFound = errors.New("favorites: recipe not found")
	ErrUserNotFound   = errors.New("favorites: user not found")
)

const fkViolation = "23503"

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

func (r *Repo) AddFavorite(ctx context.Context, userID, recipeID int64) error {
	return r.add(ctx, KindFavorite, userID, recipeID)
}

func (r *Repo) RemoveFavorite(ctx context.Context, userID, recipeID int64) error {
	return r.remove(ctx, KindFavorite, userID, recipeID)
}

func (r *Repo) AddToCart(ctx context.Context, userID, recipeID int64) error {
	return r.add(ctx, KindCart, userID, recipeID)
}

func (r *Repo) RemoveFromCart(ctx context.Context, userID, recipeID int64) error {
	return r.remove(ctx, KindCart, userID, recipeID)
}

func (r *Repo) add(ctx context.Context, kind Kind, userID, recipeID int64) error {
	// kind: константа пакета, не пользовательский ввод
	tag, err := r.pool.Exec(ctx, fmt.Sprintf(`
		INSERT INTO %s (user_id, recipe_id) VALUES ($1,$2)
		ON CONFLICT (user_id, recipe_id) DO NOTHING
	`, kind), userID, recipeID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == fkViolation {
			// имена ограничений по умолчанию: <таблица>_<колонка>_fkey
			if pgErr.ConstraintName == fmt.Sprintf("%s_user_id_fkey", kind) {
				return ErrUserNotFound
			}
			return ErrRecipeNotFound
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyExists
	}
	return nil
}

func (r *Repo) remove(ctx context.Context, kind Kind, userID, recipeID int64) error {
	tag, err := r.pool.Exec(ctx, fmt.Sprintf(`
		DELETE FROM %s WHERE user_id = $1 AND recipe_id = $2
	`, kind), userID, recipeID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotMarked
	}
	return nil
}

// CartRecipeIDs: рецепты в корзине пользователя в порядке добавления.
func (r *Repo) CartRecipeIDs(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT recipe_id FROM shopping_cart
		WHERE user_id = $1
		ORDER BY added_at, recipe_id
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
