package shopping

import (
	"sort"

	"github.com/shopspring/decimal"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/Spok95/foodgram/internal/domain/ingredients"
	"github.com/Spok95/foodgram/internal/domain/recipes"
)

// Key: позиция списка. Разные единицы одного ингредиента не складываются.
type Key struct {
	IngredientID int64
	Unit         ingredients.Unit
}

type Entry struct {
	IngredientID int64            `json:"id"`
	Name         string           `json:"name"`
	Unit         ingredients.Unit `json:"measurement_unit"`
	Amount       decimal.Decimal  `json:"amount"`
}

// List: сводный список покупок. Не сохраняется, строится на каждый запрос.
type List struct {
	entries map[Key]*Entry
}

func NewList() *List {
	return &List{entries: make(map[Key]*Entry)}
}

// Add прибавляет строку рецепта к позиции (ингредиент, единица).
func (l *List) Add(line recipes.Line) {
	k := Key{IngredientID: line.IngredientID, Unit: line.Unit}
	if e, ok := l.entries[k]; ok {
		e.Amount = e.Amount.Add(line.Amount)
		return
	}
	l.entries[k] = &Entry{
		IngredientID: line.IngredientID,
		Name:         line.Name,
		Unit:         line.Unit,
		Amount:       line.Amount,
	}
}

func (l *List) Len() int { return len(l.entries) }

// Empty: пустая корзина даёт пустой, но валидный список.
func (l *List) Empty() bool { return len(l.entries) == 0 }

func (l *List) Amount(ingredientID int64, unit ingredients.Unit) (decimal.Decimal, bool) {
	e, ok := l.entries[Key{IngredientID: ingredientID, Unit: unit}]
	if !ok {
		return decimal.Zero, false
	}
	return e.Amount, true
}

// Entries отдаёт позиции по алфавиту (русская сортировка), затем по единице и id.
func (l *List) Entries() []Entry {
	out := make([]Entry, 0, len(l.entries))
	for _, e := range l.entries {
		out = append(out, *e)
	}
	col := collate.New(language.Russian, collate.IgnoreCase)
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if c := col.CompareString(a.Name, b.Name); c != 0 {
			return c < 0
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		if a.Unit != b.Unit {
			return a.Unit < b.Unit
		}
		return a.IngredientID < b.IngredientID
	})
	return out
}

// Merge возвращает новый список с поэлементной суммой l и o.
func (l *List) Merge(o *List) *List {
	out := NewList()
	for _, src := range []*List{l, o} {
		for _, e := range src.entries {
			out.Add(recipes.Line{IngredientID: e.IngredientID, Name: e.Name, Unit: e.Unit, Amount: e.Amount})
		}
	}
	return out
}

// Equal сравнивает списки по ключам и суммам (decimal сравнивается по значению, 1.0 == 1).
func (l *List) Equal(o *List) bool {
	if l.Len() != o.Len() {
		return false
	}
	for k, e := range l.entries {
		oe, ok := o.entries[k]
		if !ok || !e.Amount.Equal(oe.Amount) {
			return false
		}
	}
	return true
}
