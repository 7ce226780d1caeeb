package ingredients

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

// Create добавляет ингредиент; при конфликте (name, unit) возвращает существующий.
func (r *Repo) Create(ctx context.Context, name string, unit Unit) (*Ingredient, error) {
	name = strings.TrimSpace(name)
	row := r.pool.QueryRow(ctx, `
		INSERT INTO ingredients (name, measurement_unit) VALUES ($1,$2)
		ON CONFLICT (name, measurement_unit) DO NOTHING
		RETURNING id, name, measurement_unit
	`, name, string(unit))
	var in Ingredient
	err := row.Scan(&in.ID, &in.Name, &in.MeasurementUnit)
	if errors.Is(err, pgx.ErrNoRows) {
		return r.getByNameUnit(ctx, name, unit)
	}
	if err != nil {
		return nil, err
	}
	return &in, nil
}

func (r *Repo) getByNameUnit(ctx context.Context, name string, unit Unit) (*Ingredient, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, measurement_unit
		FROM ingredients WHERE name = $1 AND measurement_unit = $2
	`, name, string(unit))
	var in Ingredient
	if err := row.Scan(&in.ID, &in.Name, &in.MeasurementUnit); err != nil {
		return nil, err
	}
	return &in, nil
}

func (r *Repo) GetByID(ctx context.Context, id int64) (*Ingredient, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, measurement_unit
		FROM ingredients WHERE id = $1
	`, id)
	var in Ingredient
	if err := row.Scan(&in.ID, &in.Name, &in.MeasurementUnit); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &in, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// List ищет по началу названия без учёта регистра; пустой префикс отдаёт весь справочник.
func (r *Repo) List(ctx context.Context, namePrefix string) ([]Ingredient, error) {
	like := likeEscaper.Replace(strings.ToLower(strings.TrimSpace(namePrefix))) + "%"
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, measurement_unit
		FROM ingredients
		WHERE lower(name) LIKE $1
		ORDER BY name, measurement_unit
	`, like)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Ingredient{}
	for rows.Next() {
		var in Ingredient
		if err := rows.Scan(&in.ID, &in.Name, &in.MeasurementUnit); err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, rows.Err()
}
