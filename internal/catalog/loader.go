// Package catalog загружает справочники (ингредиенты и теги) из JSON-фикстуры.
package catalog

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Spok95/foodgram/internal/domain/ingredients"
	"github.com/Spok95/foodgram/internal/domain/tags"
)

var ErrBadFixture = errors.New("catalog: bad fixture")

type IngredientStore interface {
	Create(ctx context.Context, name string, unit ingredients.Unit) (*ingredients.Ingredient, error)
}

type TagStore interface {
	Create(ctx context.Context, t tags.Tag) (*tags.Tag, error)
}

// Fixture: либо объект {"ingredients": [...], "tags": [...]},
// либо голый массив ингредиентов, как в ingredients.json.
type Fixture struct {
	Ingredients []ingredients.Ingredient `json:"ingredients"`
	Tags        []tags.Tag               `json:"tags"`
}

type Stats struct {
	Ingredients int
	Tags        int
}

func Parse(r io.Reader) (*Fixture, error) {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadFixture, err)
	}

	var fx Fixture
	dec := json.NewDecoder(br)
	if first == '[' {
		err = dec.Decode(&fx.Ingredients)
	} else {
		err = dec.Decode(&fx)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadFixture, err)
	}

	for i, in := range fx.Ingredients {
		if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(string(in.MeasurementUnit)) == "" {
			return nil, fmt.Errorf("%w: ingredients[%d]: name and measurement_unit are required", ErrBadFixture, i)
		}
	}
	for i, t := range fx.Tags {
		if err := tags.Validate(t); err != nil {
			return nil, fmt.Errorf("%w: tags[%d]: %v", ErrBadFixture, i, err)
		}
	}
	return &fx, nil
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		}
		return b, br.UnreadByte()
	}
}

// Load разбирает фикстуру и пишет её в базу. Повторная загрузка не плодит дублей:
// ингредиенты уникальны по (name, unit), теги по slug.
func Load(ctx context.Context, r io.Reader, ings IngredientStore, ts TagStore) (Stats, error) {
	var st Stats
	fx, err := Parse(r)
	if err != nil {
		return st, err
	}
	for _, t := range fx.Tags {
		if _, err := ts.Create(ctx, t); err != nil {
			return st, fmt.Errorf("tag %q: %w", t.Slug, err)
		}
		st.Tags++
	}
	for _, in := range fx.Ingredients {
		unit := ingredients.Unit(strings.TrimSpace(string(in.MeasurementUnit)))
		if _, err := ings.Create(ctx, in.Name, unit); err != nil {
			return st, fmt.Errorf("ingredient %q: %w", in.Name, err)
		}
		st.Ingredients++
	}
	return st, nil
}
