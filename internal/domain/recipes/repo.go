package recipes

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/Spok95/foodgram/internal/domain/ingredients"
	"github.com/Spok95/foodgram/internal/domain/tags"
)

const defaultLimit = 6

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

/* Запись */

func (r *Repo) Create(ctx context.Context, authorID int64, in Input) (*Recipe, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var id int64
	if err := tx.QueryRow(ctx, `
		INSERT INTO recipes (author_id, name, text, image, cooking_time)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING id
	`, authorID, in.Name, in.Text, in.Image, in.CookingTime).Scan(&id); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return nil, fmt.Errorf("%w: id %d", ErrAuthorNotFound, authorID)
		}
		return nil, err
	}
	if err := writeComposition(ctx, tx, id, in); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id, authorID)
}

// Update заменяет поля, состав и теги целиком. Менять рецепт может только автор.
func (r *Repo) Update(ctx context.Context, id, authorID int64, in Input) (*Recipe, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := checkAuthor(ctx, tx, id, authorID); err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx, `
		UPDATE recipes SET name=$2, text=$3, image=$4, cooking_time=$5 WHERE id=$1
	`, id, in.Name, in.Text, in.Image, in.CookingTime); err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM recipe_ingredients WHERE recipe_id=$1`, id); err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM recipe_tags WHERE recipe_id=$1`, id); err != nil {
		return nil, err
	}
	if err := writeComposition(ctx, tx, id, in); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id, authorID)
}

func (r *Repo) Delete(ctx context.Context, id, authorID int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := checkAuthor(ctx, tx, id, authorID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM recipes WHERE id=$1`, id); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func checkAuthor(ctx context.Context, tx pgx.Tx, id, authorID int64) error {
	var owner int64
	err := tx.QueryRow(ctx, `SELECT author_id FROM recipes WHERE id=$1 FOR UPDATE`, id).Scan(&owner)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if owner != authorID {
		return ErrForbidden
	}
	return nil
}

// writeComposition пишет строки состава и теги. Единица строки по умолчанию: единица ингредиента.
func writeComposition(ctx context.Context, tx pgx.Tx, recipeID int64, in Input) error {
	ids := make([]int64, 0, len(in.Ingredients))
	for _, l := range in.Ingredients {
		ids = append(ids, l.IngredientID)
	}
	units := make(map[int64]string, len(ids))
	rows, err := tx.Query(ctx, `SELECT id, measurement_unit FROM ingredients WHERE id = ANY($1)`, ids)
	if err != nil {
		return err
	}
	for rows.Next() {
		var id int64
		var unit string
		if err := rows.Scan(&id, &unit); err != nil {
			rows.Close()
			return err
		}
		units[id] = unit
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	type key struct {
		id   int64
		unit string
	}
	seen := make(map[key]struct{}, len(in.Ingredients))
	for pos, l := range in.Ingredients {
		unit, ok := units[l.IngredientID]
		if !ok {
			return fmt.Errorf("%w: id %d", ErrIngredientNotFound, l.IngredientID)
		}
		if l.Unit != "" {
			unit = l.Unit
		}
		// {id} и {id, unit: <единица ингредиента>} дают одну и ту же строку
		k := key{l.IngredientID, unit}
		if _, dup := seen[k]; dup {
			return fmt.Errorf("%w: ingredient %d is listed twice in %s", ErrInvalid, l.IngredientID, unit)
		}
		seen[k] = struct{}{}
		if _, err := tx.Exec(ctx, `
			INSERT INTO recipe_ingredients (recipe_id, ingredient_id, position, amount, unit)
			VALUES ($1,$2,$3,$4::numeric,$5)
		`, recipeID, l.IngredientID, pos, l.Amount.String(), unit); err != nil {
			return err
		}
	}

	if len(in.Tags) == 0 {
		return nil
	}
	tag, err := tx.Exec(ctx, `
		INSERT INTO recipe_tags (recipe_id, tag_id)
		SELECT $1, id FROM tags WHERE id = ANY($2)
	`, recipeID, in.Tags)
	if err != nil {
		return err
	}
	if int(tag.RowsAffected()) != len(in.Tags) {
		return ErrTagNotFound
	}
	return nil
}

/* Чтение */

const recipeSelect = `
	SELECT r.id, r.name, r.text, r.image, r.cooking_time, r.pub_date,
	       u.id, u.email, u.username, u.first_name, u.last_name,
	       EXISTS(SELECT 1 FROM follows f WHERE f.user_id = $1 AND f.author_id = u.id),
	       EXISTS(SELECT 1 FROM favorites fv WHERE fv.user_id = $1 AND fv.recipe_id = r.id),
	       EXISTS(SELECT 1 FROM shopping_cart sc WHERE sc.user_id = $1 AND sc.recipe_id = r.id)
	FROM recipes r
	JOIN users u ON u.id = r.author_id
`

func scanRecipe(row pgx.Row) (*Recipe, error) {
	var rc Recipe
	a := &rc.Author
	if err := row.Scan(
		&rc.ID, &rc.Name, &rc.Text, &rc.Image, &rc.CookingTime, &rc.PubDate,
		&a.ID, &a.Email, &a.Username, &a.FirstName, &a.LastName,
		&a.IsSubscribed, &rc.IsFavorited, &rc.IsInShoppingCart,
	); err != nil {
		return nil, err
	}
	return &rc, nil
}

// GetByID отдаёт рецепт с составом и тегами; (nil, nil), если такого нет.
func (r *Repo) GetByID(ctx context.Context, id, viewerID int64) (*Recipe, error) {
	rc, err := scanRecipe(r.pool.QueryRow(ctx, recipeSelect+` WHERE r.id = $2`, viewerID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	list := []Recipe{*rc}
	if err := r.fillComposition(ctx, list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

// List возвращает страницу рецептов (новые сверху) и общее число подходящих под фильтр.
func (r *Repo) List(ctx context.Context, f Filter) ([]Recipe, int, error) {
	where, args := buildWhere(f)

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM recipes r`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := f.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	args = append(args, limit, max(f.Offset, 0))
	q := recipeSelect + where + fmt.Sprintf(
		" ORDER BY r.pub_date DESC, r.id DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []Recipe{}
	for rows.Next() {
		rc, err := scanRecipe(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *rc)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if err := r.fillComposition(ctx, out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// buildWhere: $1 всегда viewer, остальные параметры добавляются по порядку.
func buildWhere(f Filter) (string, []any) {
	args := []any{f.ViewerID}
	var conds []string
	if f.AuthorID > 0 {
		args = append(args, f.AuthorID)
		conds = append(conds, fmt.Sprintf("r.author_id = $%d", len(args)))
	}
	if len(f.TagSlugs) > 0 {
		args = append(args, f.TagSlugs)
		conds = append(conds, fmt.Sprintf(`EXISTS(
			SELECT 1 FROM recipe_tags rt JOIN tags t ON t.id = rt.tag_id
			WHERE rt.recipe_id = r.id AND t.slug = ANY($%d))`, len(args)))
	}
	if f.IsFavorited {
		conds = append(conds, `EXISTS(SELECT 1 FROM favorites fv2 WHERE fv2.user_id = $1 AND fv2.recipe_id = r.id)`)
	}
	if f.IsInShoppingCart {
		conds = append(conds, `EXISTS(SELECT 1 FROM shopping_cart sc2 WHERE sc2.user_id = $1 AND sc2.recipe_id = r.id)`)
	}
	// $1 должен участвовать и в count-запросе, иначе postgres не выведет его тип
	conds = append(conds, "$1::bigint IS NOT NULL")
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *Repo) fillComposition(ctx context.Context, list []Recipe) error {
	if len(list) == 0 {
		return nil
	}
	ids := make([]int64, len(list))
	idx := make(map[int64]int, len(list))
	for i, rc := range list {
		ids[i] = rc.ID
		idx[rc.ID] = i
		list[i].Ingredients = []Line{}
		list[i].Tags = []tags.Tag{}
	}

	lines, err := r.LinesByRecipes(ctx, ids)
	if err != nil {
		return err
	}
	for id, ls := range lines {
		list[idx[id]].Ingredients = ls
	}

	rows, err := r.pool.Query(ctx, `
		SELECT rt.recipe_id, t.id, t.name, t.color, t.slug
		FROM recipe_tags rt JOIN tags t ON t.id = rt.tag_id
		WHERE rt.recipe_id = ANY($1)
		ORDER BY t.id
	`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var recipeID int64
		var t tags.Tag
		if err := rows.Scan(&recipeID, &t.ID, &t.Name, &t.Color, &t.Slug); err != nil {
			return err
		}
		i := idx[recipeID]
		list[i].Tags = append(list[i].Tags, t)
	}
	return rows.Err()
}

// LinesByRecipes отдаёт составы существующих рецептов. Рецепт без строк попадает
// в map с пустым срезом; несуществующего id в map нет.
func (r *Repo) LinesByRecipes(ctx context.Context, ids []int64) (map[int64][]Line, error) {
	out := make(map[int64][]Line, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := r.pool.Query(ctx, `SELECT id FROM recipes WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		out[id] = []Line{}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = r.pool.Query(ctx, `
		SELECT ri.recipe_id, i.id, i.name, ri.unit, ri.amount::text
		FROM recipe_ingredients ri
		JOIN ingredients i ON i.id = ri.ingredient_id
		WHERE ri.recipe_id = ANY($1)
		ORDER BY ri.recipe_id, ri.position
	`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			recipeID int64
			l        Line
			unit     string
			amount   string
		)
		if err := rows.Scan(&recipeID, &l.IngredientID, &l.Name, &unit, &amount); err != nil {
			return nil, err
		}
		l.Unit = ingredients.Unit(unit)
		if l.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("recipe %d: bad amount %q: %w", recipeID, amount, err)
		}
		out[recipeID] = append(out[recipeID], l)
	}
	return out, rows.Err()
}

// Exists нужен отметкам (избранное/корзина), чтобы отличать 404 от остальных ошибок.
func (r *Repo) Exists(ctx context.Context, id int64) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM recipes WHERE id=$1)`, id).Scan(&ok)
	return ok, err
}

// CountByAuthor: количество рецептов по авторам (для ленты подписок).
func (r *Repo) CountByAuthor(ctx context.Context, authorIDs []int64) (map[int64]int, error) {
	out := make(map[int64]int, len(authorIDs))
	if len(authorIDs) == 0 {
		return out, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT author_id, count(*) FROM recipes
		WHERE author_id = ANY($1)
		GROUP BY author_id
	`, authorIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		out[id] = n
	}
	return out, rows.Err()
}
