package tags

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	slugRe  = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
	colorRe = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
)

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

func Validate(t Tag) error {
	if t.Name == "" {
		return fmt.Errorf("tag name is empty")
	}
	if !slugRe.MatchString(t.Slug) {
		return fmt.Errorf("invalid tag slug %q", t.Slug)
	}
	if !colorRe.MatchString(t.Color) {
		return fmt.Errorf("invalid tag color %q", t.Color)
	}
	return nil
}

func (r *Repo) Create(ctx context.Context, t Tag) (*Tag, error) {
	if err := Validate(t); err != nil {
		return nil, err
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO tags (name, color, slug) VALUES ($1,$2,$3)
		ON CONFLICT (slug) DO UPDATE SET name = EXCLUDED.name, color = EXCLUDED.color
		RETURNING id, name, color, slug
	`, t.Name, t.Color, t.Slug)
	var out Tag
	if err := row.Scan(&out.ID, &out.Name, &out.Color, &out.Slug); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *Repo) GetByID(ctx context.Context, id int64) (*Tag, error) {
	return r.getOne(ctx, `SELECT id, name, color, slug FROM tags WHERE id = $1`, id)
}

func (r *Repo) getOne(ctx context.Context, q string, arg any) (*Tag, error) {
	var t Tag
	if err := r.pool.QueryRow(ctx, q, arg).Scan(&t.ID, &t.Name, &t.Color, &t.Slug); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *Repo) List(ctx context.Context) ([]Tag, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, color, slug FROM tags ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Tag{}
	for rows.Next() {
		var t Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Color, &t.Slug); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
