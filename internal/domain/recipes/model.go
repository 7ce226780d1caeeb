package recipes

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Spok95/foodgram/internal/domain/ingredients"
	"github.com/Spok95/foodgram/internal/domain/tags"
)

var (
	ErrNotFound           = errors.New("recipes: not found")
	ErrForbidden          = errors.New("recipes: only the author may change a recipe")
	ErrInvalid            = errors.New("recipes: invalid input")
	ErrIngredientNotFound = errors.New("recipes: ingredient not found")
	ErrTagNotFound        = errors.New("recipes: tag not found")
	ErrAuthorNotFound     = errors.New("recipes: author not found")
)

const (
	maxNameLen  = 200
	maxImageLen = 900000 // base64

	// amount хранится в NUMERIC(10,3)
	amountScale = 3
)

var maxAmount = decimal.New(1, 10-amountScale)

// Line: строка состава рецепта. Unit хранится в строке, а не только у ингредиента:
// один и тот же ингредиент может идти в разных единицах.
type Line struct {
	IngredientID int64            `json:"id"`
	Name         string           `json:"name"`
	Unit         ingredients.Unit `json:"measurement_unit"`
	Amount       decimal.Decimal  `json:"amount"`
}

type Author struct {
	ID           int64  `json:"id"`
	Email        string `json:"email"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	IsSubscribed bool   `json:"is_subscribed"`
}

type Recipe struct {
	ID               int64      `json:"id"`
	Author           Author     `json:"author"`
	Name             string     `json:"name"`
	Text             string     `json:"text"`
	Image            *string    `json:"image"`
	CookingTime      int        `json:"cooking_time"`
	PubDate          time.Time  `json:"pub_date"`
	Ingredients      []Line     `json:"ingredients"`
	Tags             []tags.Tag `json:"tags"`
	IsFavorited      bool       `json:"is_favorited"`
	IsInShoppingCart bool       `json:"is_in_shopping_cart"`
}

type LineInput struct {
	IngredientID int64           `json:"id"`
	Amount       decimal.Decimal `json:"amount"`
	Unit         string          `json:"unit,omitempty"` // пусто: единица ингредиента
}

type Input struct {
	Name        string      `json:"name"`
	Text        string      `json:"text"`
	Image       *string     `json:"image"`
	CookingTime int         `json:"cooking_time"`
	Ingredients []LineInput `json:"ingredients"`
	Tags        []int64     `json:"tags"`
}

// Filter для списка рецептов. ViewerID = 0: анонимный пользователь.
type Filter struct {
	ViewerID         int64
	AuthorID         int64
	TagSlugs         []string
	IsFavorited      bool
	IsInShoppingCart bool
	Limit            int
	Offset           int
}

// Validate проверяет вход и нормализует его (trim, дедуп тегов).
func (in *Input) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	switch {
	case in.Name == "":
		return fmt.Errorf("%w: name is required", ErrInvalid)
	case len([]rune(in.Name)) > maxNameLen:
		return fmt.Errorf("%w: name is longer than %d", ErrInvalid, maxNameLen)
	case in.CookingTime < 1:
		return fmt.Errorf("%w: cooking_time must be >= 1", ErrInvalid)
	case len(in.Ingredients) == 0:
		return fmt.Errorf("%w: at least one ingredient is required", ErrInvalid)
	case in.Image != nil && len(*in.Image) > maxImageLen:
		return fmt.Errorf("%w: image is too large", ErrInvalid)
	}

	type key struct {
		id   int64
		unit string
	}
	seen := make(map[key]struct{}, len(in.Ingredients))
	for i, l := range in.Ingredients {
		if l.IngredientID <= 0 {
			return fmt.Errorf("%w: ingredients[%d]: bad id", ErrInvalid, i)
		}
		if err := checkAmount(l.Amount); err != nil {
			return fmt.Errorf("%w: ingredients[%d]: %v", ErrInvalid, i, err)
		}
		in.Ingredients[i].Unit = strings.TrimSpace(l.Unit)
		k := key{l.IngredientID, in.Ingredients[i].Unit}
		if _, dup := seen[k]; dup {
			return fmt.Errorf("%w: ingredient %d is listed twice", ErrInvalid, l.IngredientID)
		}
		seen[k] = struct{}{}
	}

	uniq := in.Tags[:0]
	tagSeen := make(map[int64]struct{}, len(in.Tags))
	for _, id := range in.Tags {
		if _, dup := tagSeen[id]; dup {
			continue
		}
		tagSeen[id] = struct{}{}
		uniq = append(uniq, id)
	}
	in.Tags = uniq
	return nil
}

// checkAmount: количество должно влезть в колонку без округления.
func checkAmount(d decimal.Decimal) error {
	switch {
	case !d.IsPositive():
		return errors.New("amount must be > 0")
	case !d.Equal(d.Round(amountScale)):
		return fmt.Errorf("amount has more than %d decimal places", amountScale)
	case d.GreaterThanOrEqual(maxAmount):
		return fmt.Errorf("amount must be < %s", maxAmount)
	}
	return nil
}
