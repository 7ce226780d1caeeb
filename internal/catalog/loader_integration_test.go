//go:build integration

package catalog_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spok95/foodgram/internal/catalog"
	"github.com/Spok95/foodgram/internal/domain/ingredients"
	"github.com/Spok95/foodgram/internal/domain/tags"
	"github.com/Spok95/foodgram/internal/infra/db/dbtest"
)

func TestLoadTwiceKeepsCatalogUnique(t *testing.T) {
	pool := dbtest.Open(t)
	ctx := context.Background()
	ir, tr := ingredients.NewRepo(pool), tags.NewRepo(pool)

	const fixture = `{
		"tags": [{"name": "Обед", "color": "#49B64E", "slug": "lunch"}],
		"ingredients": [{"name": "мука", "measurement_unit": "g"}, {"name": "мука", "measurement_unit": "kg"}]
	}`
	for i := 0; i < 2; i++ {
		st, err := catalog.Load(ctx, strings.NewReader(fixture), ir, tr)
		require.NoError(t, err)
		assert.Equal(t, catalog.Stats{Ingredients: 2, Tags: 1}, st)
	}

	list, err := ir.List(ctx, "мук")
	require.NoError(t, err)
	assert.Len(t, list, 2)
	all, err := tr.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
