package api

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/Spok95/foodgram/internal/domain/favorites"
	"github.com/Spok95/foodgram/internal/domain/ingredients"
	"github.com/Spok95/foodgram/internal/domain/recipes"
	"github.com/Spok95/foodgram/internal/domain/subscriptions"
	"github.com/Spok95/foodgram/internal/domain/tags"
	"github.com/Spok95/foodgram/internal/domain/users"
	"github.com/Spok95/foodgram/internal/notify"
	"github.com/Spok95/foodgram/internal/shopping"
)

type fakeTags struct {
	list []tags.Tag
	err  error
}

func (f *fakeTags) List(context.Context) ([]tags.Tag, error) { return f.list, f.err }

func (f *fakeTags) GetByID(_ context.Context, id int64) (*tags.Tag, error) {
	for _, t := range f.list {
		if t.ID == id {
			return &t, nil
		}
	}
	return nil, f.err
}

type fakeIngredients struct {
	list       []ingredients.Ingredient
	lastPrefix string
}

func (f *fakeIngredients) List(_ context.Context, prefix string) ([]ingredients.Ingredient, error) {
	f.lastPrefix = prefix
	return f.list, nil
}

func (f *fakeIngredients) GetByID(_ context.Context, id int64) (*ingredients.Ingredient, error) {
	for _, in := range f.list {
		if in.ID == id {
			return &in, nil
		}
	}
	return nil, nil
}

// fakeRecipes держит рецепты в памяти; id назначаются по порядку.
type fakeRecipes struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*recipes.Recipe
}

func newFakeRecipes() *fakeRecipes {
	return &fakeRecipes{nextID: 1, byID: map[int64]*recipes.Recipe{}}
}

func (f *fakeRecipes) put(authorID int64, name string) *recipes.Recipe {
	f.mu.Lock()
	defer f.mu.Unlock()
	rc := &recipes.Recipe{
		ID:          f.nextID,
		Author:      recipes.Author{ID: authorID},
		Name:        name,
		CookingTime: 10,
		PubDate:     time.Date(2024, 1, 1, 0, 0, int(f.nextID), 0, time.UTC),
		Ingredients: []recipes.Line{},
		Tags:        []tags.Tag{},
	}
	f.byID[rc.ID] = rc
	f.nextID++
	return rc
}

func (f *fakeRecipes) Create(_ context.Context, authorID int64, in recipes.Input) (*recipes.Recipe, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	rc := f.put(authorID, in.Name)
	rc.Text = in.Text
	rc.CookingTime = in.CookingTime
	return rc, nil
}

func (f *fakeRecipes) Update(_ context.Context, id, authorID int64, in recipes.Input) (*recipes.Recipe, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	rc, ok := f.byID[id]
	switch {
	case !ok:
		return nil, recipes.ErrNotFound
	case rc.Author.ID != authorID:
		return nil, recipes.ErrForbidden
	}
	rc.Name = in.Name
	rc.CookingTime = in.CookingTime
	return rc, nil
}

func (f *fakeRecipes) Delete(_ context.Context, id, authorID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rc, ok := f.byID[id]
	switch {
	case !ok:
		return recipes.ErrNotFound
	case rc.Author.ID != authorID:
		return recipes.ErrForbidden
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeRecipes) GetByID(_ context.Context, id, _ int64) (*recipes.Recipe, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rc, ok := f.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *rc
	return &cp, nil
}

func (f *fakeRecipes) List(_ context.Context, flt recipes.Filter) ([]recipes.Recipe, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []recipes.Recipe
	for _, rc := range f.byID {
		if flt.AuthorID > 0 && rc.Author.ID != flt.AuthorID {
			continue
		}
		all = append(all, *rc)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })

	total := len(all)
	lo := min(flt.Offset, total)
	hi := min(lo+flt.Limit, total)
	return all[lo:hi], total, nil
}

func (f *fakeRecipes) Exists(_ context.Context, id int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.byID[id]
	return ok, nil
}

func (f *fakeRecipes) CountByAuthor(_ context.Context, ids []int64) (map[int64]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[int64]int{}
	for _, id := range ids {
		for _, rc := range f.byID {
			if rc.Author.ID == id {
				out[id]++
			}
		}
	}
	return out, nil
}

type markKey struct {
	kind           favorites.Kind
	user, recipeID int64
}

type fakeMarks struct {
	set map[markKey]bool
}

func newFakeMarks() *fakeMarks { return &fakeMarks{set: map[markKey]bool{}} }

func (f *fakeMarks) add(k markKey) error {
	if f.set[k] {
		return favorites.ErrAlreadyExists
	}
	f.set[k] = true
	return nil
}

func (f *fakeMarks) remove(k markKey) error {
	if !f.set[k] {
		return favorites.ErrNotMarked
	}
	delete(f.set, k)
	return nil
}

func (f *fakeMarks) AddFavorite(_ context.Context, u, r int64) error {
	return f.add(markKey{favorites.KindFavorite, u, r})
}

func (f *fakeMarks) RemoveFavorite(_ context.Context, u, r int64) error {
	return f.remove(markKey{favorites.KindFavorite, u, r})
}

func (f *fakeMarks) AddToCart(_ context.Context, u, r int64) error {
	return f.add(markKey{favorites.KindCart, u, r})
}

func (f *fakeMarks) RemoveFromCart(_ context.Context, u, r int64) error {
	return f.remove(markKey{favorites.KindCart, u, r})
}

type fakeFollows struct {
	users   *fakeUsers
	follows map[[2]int64]time.Time
}

func (f *fakeFollows) Follow(_ context.Context, userID, authorID int64) (*subscriptions.Follow, error) {
	if userID == authorID {
		return nil, subscriptions.ErrSelfFollow
	}
	k := [2]int64{userID, authorID}
	if _, ok := f.follows[k]; ok {
		return nil, subscriptions.ErrAlreadyFollowing
	}
	now := time.Now()
	f.follows[k] = now
	return &subscriptions.Follow{UserID: userID, AuthorID: authorID, CreatedAt: now}, nil
}

func (f *fakeFollows) Unfollow(_ context.Context, userID, authorID int64) error {
	k := [2]int64{userID, authorID}
	if _, ok := f.follows[k]; !ok {
		return subscriptions.ErrNotFollowing
	}
	delete(f.follows, k)
	return nil
}

func (f *fakeFollows) ListFollowed(_ context.Context, userID int64, limit, offset int) ([]subscriptions.FollowedAuthor, int, error) {
	var out []subscriptions.FollowedAuthor
	for k, since := range f.follows {
		if k[0] != userID {
			continue
		}
		u := f.users.byID[k[1]]
		out = append(out, subscriptions.FollowedAuthor{
			ID: u.ID, Email: u.Email, Username: u.Username, Since: since,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	total := len(out)
	lo := min(offset, total)
	hi := min(lo+limit, total)
	return out[lo:hi], total, nil
}

type fakeUsers struct {
	byID map[int64]*users.User
}

func (f *fakeUsers) GetByID(_ context.Context, id int64) (*users.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, nil
	}
	return u, nil
}

func (f *fakeUsers) Upsert(_ context.Context, id int64, p users.Profile) (*users.User, error) {
	for _, u := range f.byID {
		if u.ID != id && (u.Email == p.Email || u.Username == p.Username) {
			return nil, users.ErrProfileConflict
		}
	}
	u, ok := f.byID[id]
	if !ok {
		u = &users.User{ID: id}
		f.byID[id] = u
	}
	u.Email, u.Username, u.FirstName, u.LastName = p.Email, p.Username, p.FirstName, p.LastName
	return u, nil
}

func (f *fakeUsers) NewLinkCode(_ context.Context, userID int64) (*users.LinkCode, error) {
	if _, ok := f.byID[userID]; !ok {
		return nil, users.ErrNotFound
	}
	return &users.LinkCode{Code: "c0de", ExpiresAt: time.Now().Add(users.LinkCodeTTL)}, nil
}

func (f *fakeUsers) ClearTelegramChat(_ context.Context, id int64) error {
	u, ok := f.byID[id]
	if !ok {
		return users.ErrNotFound
	}
	u.TelegramChatID = nil
	return nil
}

type fakeShopping struct {
	list *shopping.List
	err  error
}

func (f *fakeShopping) ForUser(context.Context, int64) (*shopping.List, error) {
	return f.list, f.err
}

type sentFile struct {
	chatID int64
	name   string
	data   []byte
}

// fakeNotifier повторяет контракт notify.Telegram.
type fakeNotifier struct {
	disabled bool
	sent     []sentFile
}

func (f *fakeNotifier) SendShoppingList(_ context.Context, chatID *int64, name string, data []byte) error {
	if f.disabled {
		return notify.ErrDisabled
	}
	if chatID == nil {
		return notify.ErrNoChat
	}
	f.sent = append(f.sent, sentFile{chatID: *chatID, name: name, data: data})
	return nil
}

var errStore = errors.New("connection reset by peer")
