//go:build integration

package favorites_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spok95/foodgram/internal/domain/favorites"
	"github.com/Spok95/foodgram/internal/domain/ingredients"
	"github.com/Spok95/foodgram/internal/domain/recipes"
	"github.com/Spok95/foodgram/internal/domain/users"
	"github.com/Spok95/foodgram/internal/infra/db/dbtest"
)

func TestMarks(t *testing.T) {
	pool := dbtest.Open(t)
	ctx := context.Background()

	u, err := users.NewRepo(pool).Upsert(ctx, 1, users.Profile{Email: "cook@example.com", Username: "cook"})
	require.NoError(t, err)
	salt, err := ingredients.NewRepo(pool).Create(ctx, "соль", ingredients.UnitGram)
	require.NoError(t, err)

	rr := recipes.NewRepo(pool)
	newRecipe := func(name string) int64 {
		rc, err := rr.Create(ctx, u.ID, recipes.Input{
			Name: name, CookingTime: 5,
			Ingredients: []recipes.LineInput{{IngredientID: salt.ID, Amount: decimal.NewFromInt(5)}},
		})
		require.NoError(t, err)
		return rc.ID
	}
	first, second := newRecipe("Суп"), newRecipe("Каша")

	repo := favorites.NewRepo(pool)

	t.Run("Favorites", func(t *testing.T) {
		require.NoError(t, repo.AddFavorite(ctx, u.ID, first))
		assert.ErrorIs(t, repo.AddFavorite(ctx, u.ID, first), favorites.ErrAlreadyExists)
		assert.ErrorIs(t, repo.AddFavorite(ctx, u.ID, 9999), favorites.ErrRecipeNotFound)
		assert.ErrorIs(t, repo.AddFavorite(ctx, 9999, first), favorites.ErrUserNotFound)
		assert.ErrorIs(t, repo.AddToCart(ctx, 9999, first), favorites.ErrUserNotFound)
		require.NoError(t, repo.RemoveFavorite(ctx, u.ID, first))
		assert.ErrorIs(t, repo.RemoveFavorite(ctx, u.ID, first), favorites.ErrNotMarked)
	})

	t.Run("Cart", func(t *testing.T) {
		ids, err := repo.CartRecipeIDs(ctx, u.ID)
		require.NoError(t, err)
		assert.Empty(t, ids)

		require.NoError(t, repo.AddToCart(ctx, u.ID, second))
		require.NoError(t, repo.AddToCart(ctx, u.ID, first))
		assert.ErrorIs(t, repo.AddToCart(ctx, u.ID, first), favorites.ErrAlreadyExists)

		ids, err = repo.CartRecipeIDs(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, []int64{second, first}, ids, "in order of addition")

		require.NoError(t, repo.RemoveFromCart(ctx, u.ID, second))
		assert.ErrorIs(t, repo.RemoveFromCart(ctx, u.ID, second), favorites.ErrNotMarked)
	})
}
