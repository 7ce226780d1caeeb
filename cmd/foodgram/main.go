package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/Spok95/foodgram/internal/api"
	"github.com/Spok95/foodgram/internal/bot"
	"github.com/Spok95/foodgram/internal/catalog"
	"github.com/Spok95/foodgram/internal/config"
	"github.com/Spok95/foodgram/internal/domain/favorites"
	"github.com/Spok95/foodgram/internal/domain/ingredients"
	"github.com/Spok95/foodgram/internal/domain/recipes"
	"github.com/Spok95/foodgram/internal/domain/subscriptions"
	"github.com/Spok95/foodgram/internal/domain/tags"
	"github.com/Spok95/foodgram/internal/domain/users"
	"github.com/Spok95/foodgram/internal/infra/db"
	httpx "github.com/Spok95/foodgram/internal/infra/http"
	"github.com/Spok95/foodgram/internal/infra/logger"
	"github.com/Spok95/foodgram/internal/infra/metrics"
	"github.com/Spok95/foodgram/internal/notify"
	"github.com/Spok95/foodgram/internal/shopping"
)

func main() {
	configPath := flag.String("config", "config/example.yaml", "path to YAML config")
	catalogPath := flag.String("load-catalog", "", "load ingredients and tags from a JSON fixture and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	if err := run(cfg, log, *catalogPath); err != nil {
		log.Error("foodgram stopped", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger, catalogPath string) error {
	loc, err := time.LoadLocation(cfg.App.Timezone)
	if err != nil {
		return fmt.Errorf("timezone: %w", err)
	}

	if err := db.Migrate(cfg.Postgres.DSN); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	log.Info("migrations applied")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg.Postgres.DSN)
	if err != nil {
		return fmt.Errorf("db connect: %w", err)
	}
	defer pool.Close()
	log.Info("db connected")

	if catalogPath != "" {
		return loadCatalog(ctx, log, pool, catalogPath)
	}

	var tgAPI *tgbotapi.BotAPI
	if cfg.Telegram.Token != "" {
		if tgAPI, err = tgbotapi.NewBotAPI(cfg.Telegram.Token); err != nil {
			return fmt.Errorf("telegram: %w", err)
		}
		log.Info("telegram authorized", "bot", tgAPI.Self.UserName)
	}
	tg := notify.NewTelegram(tgAPI, log)

	// без метрик m остаётся nil, обработчики это допускают
	var (
		m              *metrics.Metrics
		metricsHandler http.Handler
	)
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m = metrics.New(reg)
		metricsHandler = m.Handler()
	}

	recipeRepo := recipes.NewRepo(pool)
	marks := favorites.NewRepo(pool)
	usersRepo := users.NewRepo(pool)
	aggregator := shopping.NewAggregator(recipeRepo, marks, log)

	h := api.NewHandler(api.Deps{
		Log:         log,
		Tags:        tags.NewRepo(pool),
		Ingredients: ingredients.NewRepo(pool),
		Recipes:     recipeRepo,
		Marks:       marks,
		Follows:     subscriptions.NewRepo(pool),
		Users:       usersRepo,
		Shopping:    aggregator,
		Notifier:    tg,
		Metrics:     m,
		JWTSecret:   []byte(cfg.Auth.JWTSecret),
		CORSOrigins: cfg.HTTP.CORSOrigins,
		PDFFont:     cfg.Export.PDFFont,
		Now:         func() time.Time { return time.Now().In(loc) },
	})

	srv := httpx.New(cfg.HTTP.Addr, h.Routes(), metricsHandler)
	go func() {
		if err := srv.Start(); err != nil {
			log.Error("http server error", "err", err)
			stop()
		}
	}()
	if tgAPI != nil {
		b := bot.New(tgAPI, log, usersRepo, aggregator, cfg.Export.PDFFont, loc)
		go func() {
			if err := b.Run(ctx, cfg.Telegram.PollTimeout); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("bot stopped", "err", err)
			}
		}()
	}

	log.Info("HTTP server started", "addr", cfg.HTTP.Addr, "metrics", cfg.Metrics.Enabled, "telegram", tg.Enabled())

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("graceful shutdown complete")
	return nil
}

func loadCatalog(ctx context.Context, log *slog.Logger, pool *pgxpool.Pool, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	defer func() { _ = f.Close() }()

	st, err := catalog.Load(ctx, f, ingredients.NewRepo(pool), tags.NewRepo(pool))
	if err != nil {
		return fmt.Errorf("catalog %s: %w", path, err)
	}
	log.Info("catalog loaded", "path", path, "ingredients", st.Ingredients, "tags", st.Tags)
	return nil
}
