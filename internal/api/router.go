package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Spok95/foodgram/internal/domain/ingredients"
	"github.com/Spok95/foodgram/internal/domain/recipes"
	"github.com/Spok95/foodgram/internal/domain/subscriptions"
	"github.com/Spok95/foodgram/internal/domain/tags"
	"github.com/Spok95/foodgram/internal/domain/users"
	"github.com/Spok95/foodgram/internal/infra/metrics"
	"github.com/Spok95/foodgram/internal/shopping"
)

type TagStore interface {
	List(ctx context.Context) ([]tags.Tag, error)
	GetByID(ctx context.Context, id int64) (*tags.Tag, error)
}

type IngredientStore interface {
	List(ctx context.Context, namePrefix string) ([]ingredients.Ingredient, error)
	GetByID(ctx context.Context, id int64) (*ingredients.Ingredient, error)
}

type RecipeStore interface {
	Create(ctx context.Context, authorID int64, in recipes.Input) (*recipes.Recipe, error)
	Update(ctx context.Context, id, authorID int64, in recipes.Input) (*recipes.Recipe, error)
	Delete(ctx context.Context, id, authorID int64) error
	GetByID(ctx context.Context, id, viewerID int64) (*recipes.Recipe, error)
	List(ctx context.Context, f recipes.Filter) ([]recipes.Recipe, int, error)
	Exists(ctx context.Context, id int64) (bool, error)
	CountByAuthor(ctx context.Context, authorIDs []int64) (map[int64]int, error)
}

// MarkStore: избранное и корзина.
type MarkStore interface {
	AddFavorite(ctx context.Context, userID, recipeID int64) error
	RemoveFavorite(ctx context.Context, userID, recipeID int64) error
	AddToCart(ctx context.Context, userID, recipeID int64) error
	RemoveFromCart(ctx context.Context, userID, recipeID int64) error
}

type FollowStore interface {
	Follow(ctx context.Context, userID, authorID int64) (*subscriptions.Follow, error)
	Unfollow(ctx context.Context, userID, authorID int64) error
	ListFollowed(ctx context.Context, userID int64, limit, offset int) ([]subscriptions.FollowedAuthor, int, error)
}

type UserStore interface {
	GetByID(ctx context.Context, id int64) (*users.User, error)
	Upsert(ctx context.Context, id int64, p users.Profile) (*users.User, error)
	NewLinkCode(ctx context.Context, userID int64) (*users.LinkCode, error)
	ClearTelegramChat(ctx context.Context, id int64) error
}

type ShoppingLists interface {
	ForUser(ctx context.Context, userID int64) (*shopping.List, error)
}

type Notifier interface {
	SendShoppingList(ctx context.Context, chatID *int64, fileName string, data []byte) error
}

type Deps struct {
	Log         *slog.Logger
	Tags        TagStore
	Ingredients IngredientStore
	Recipes     RecipeStore
	Marks       MarkStore
	Follows     FollowStore
	Users       UserStore
	Shopping    ShoppingLists
	Notifier    Notifier
	Metrics     *metrics.Metrics // nil: без метрик

	JWTSecret   []byte
	CORSOrigins []string
	PDFFont     string
	Now         func() time.Time
}

type Handler struct {
	log         *slog.Logger
	tags        TagStore
	ingredients IngredientStore
	recipes     RecipeStore
	marks       MarkStore
	follows     FollowStore
	users       UserStore
	shopping    ShoppingLists
	notifier    Notifier
	metrics     *metrics.Metrics

	secret      []byte
	corsOrigins []string
	pdfFont     string
	now         func() time.Time
}

func NewHandler(d Deps) *Handler {
	now := d.Now
	if now == nil {
		now = time.Now
	}
	return &Handler{
		log:         d.Log,
		tags:        d.Tags,
		ingredients: d.Ingredients,
		recipes:     d.Recipes,
		marks:       d.Marks,
		follows:     d.Follows,
		users:       d.Users,
		shopping:    d.Shopping,
		notifier:    d.Notifier,
		metrics:     d.Metrics,
		secret:      d.JWTSecret,
		corsOrigins: d.CORSOrigins,
		pdfFont:     d.PDFFont,
		now:         now,
	}
}

// Routes собирает /api. /health и /metrics вешает http-сервер.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.logRequests)
	r.Use(middleware.Recoverer)
	if h.metrics != nil {
		r.Use(h.metrics.Middleware)
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   h.corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(h.identify)

	r.Route("/api", func(r chi.Router) {
		r.Get("/tags/", h.listTags)
		r.Get("/tags/{id}/", h.getTag)
		r.Get("/ingredients/", h.listIngredients)
		r.Get("/ingredients/{id}/", h.getIngredient)

		r.Route("/recipes", func(r chi.Router) {
			r.Get("/", h.listRecipes)
			r.Get("/{id}/", h.getRecipe)

			r.Group(func(r chi.Router) {
				r.Use(requireUser)
				r.Post("/", h.createRecipe)
				r.Patch("/{id}/", h.updateRecipe)
				r.Delete("/{id}/", h.deleteRecipe)

				r.Post("/{id}/favorite/", h.addFavorite)
				r.Delete("/{id}/favorite/", h.removeFavorite)
				r.Post("/{id}/shopping_cart/", h.addToCart)
				r.Delete("/{id}/shopping_cart/", h.removeFromCart)

				r.Get("/download_shopping_cart/", h.downloadShoppingCart)
				r.Post("/send_shopping_cart/", h.sendShoppingCart)
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(requireUser)
			r.Get("/me/", h.me)
			r.Post("/me/telegram/", h.newTelegramCode)
			r.Delete("/me/telegram/", h.unlinkTelegram)
			r.Get("/subscriptions/", h.listSubscriptions)
			r.Post("/{id}/subscribe/", h.subscribe)
			r.Delete("/{id}/subscribe/", h.unsubscribe)
		})
	})
	return r
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		h.log.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
