//go:build integration

// Package dbtest поднимает пул к тестовой базе из FOODGRAM_TEST_DSN.
package dbtest

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/Spok95/foodgram/internal/infra/db"
)

const envDSN = "FOODGRAM_TEST_DSN"

// Open накатывает миграции, чистит таблицы и отдаёт пул; без DSN тест пропускается.
func Open(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv(envDSN)
	if dsn == "" {
		t.Skipf("%s is not set", envDSN)
	}
	require.NoError(t, db.Migrate(dsn))

	ctx := context.Background()
	pool, err := db.Connect(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, `
		TRUNCATE follows, shopping_cart, favorites, recipe_tags, recipe_ingredients, telegram_link_codes,
			recipes, tags, ingredients, users
		RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
	return pool
}
