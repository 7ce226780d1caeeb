package shopping

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/Spok95/foodgram/internal/domain/recipes"
)

var ErrNotFound = errors.New("shopping: recipe not found")

// NotFoundError перечисляет отсутствующие рецепты; errors.Is(err, ErrNotFound) == true.
type NotFoundError struct {
	RecipeIDs []int64
}

func (e *NotFoundError) Error() string {
	ids := make([]string, len(e.RecipeIDs))
	for i, id := range e.RecipeIDs {
		ids[i] = fmt.Sprint(id)
	}
	return fmt.Sprintf("shopping: recipes not found: %s", strings.Join(ids, ", "))
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

type RecipeSource interface {
	LinesByRecipes(ctx context.Context, ids []int64) (map[int64][]recipes.Line, error)
}

type CartSource interface {
	CartRecipeIDs(ctx context.Context, userID int64) ([]int64, error)
}

// Aggregator не хранит состояния между вызовами: читает составы и считает.
type Aggregator struct {
	recipes RecipeSource
	cart    CartSource
	log     *slog.Logger
}

func NewAggregator(rs RecipeSource, cart CartSource, log *slog.Logger) *Aggregator {
	return &Aggregator{recipes: rs, cart: cart, log: log}
}

// Aggregate суммирует составы рецептов по (ингредиент, единица).
// Повторы id схлопываются: результат зависит от множества рецептов, а не от длины входа.
func (a *Aggregator) Aggregate(ctx context.Context, ids []int64) (*List, error) {
	uniq := dedup(ids)
	list := NewList()
	if len(uniq) == 0 {
		return list, nil
	}

	lines, err := a.recipes.LinesByRecipes(ctx, uniq)
	if err != nil {
		return nil, fmt.Errorf("load recipe lines: %w", err)
	}

	var missing []int64
	for _, id := range uniq {
		if _, ok := lines[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
		return nil, &NotFoundError{RecipeIDs: missing}
	}

	for _, id := range uniq {
		for _, l := range lines[id] {
			list.Add(l)
		}
	}
	return list, nil
}

// ForUser строит список по корзине пользователя.
func (a *Aggregator) ForUser(ctx context.Context, userID int64) (*List, error) {
	ids, err := a.cart.CartRecipeIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load shopping cart: %w", err)
	}
	list, err := a.Aggregate(ctx, ids)
	if err != nil {
		return nil, err
	}
	if list.Empty() {
		a.log.Info("shopping list is empty", "user_id", userID, "recipes", len(ids))
	} else {
		a.log.Debug("shopping list built", "user_id", userID, "recipes", len(ids), "entries", list.Len())
	}
	return list, nil
}

func dedup(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
