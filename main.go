package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bayramdkmn/notepad-intern/config"
	"github.com/bayramdkmn/notepad-intern/handler"
	"github.com/bayramdkmn/notepad-intern/middleware"
	"github.com/bayramdkmn/notepad-intern/repository"
	"github.com/bayramdkmn/notepad-intern/services"
	"github.com/bayramdkmn/notepad-intern/usecase"
	"github.com/bayramdkmn/notepad-intern/utils"
	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := utils.NewLogger(cfg.Server.Env, cfg.Server.LogLevel)
	slog.SetDefault(logger)

	if err := utils.InitValidator(); err != nil {
		return fmt.Errorf("register validators: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := repository.Connect(ctx, cfg.Mongo)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			logger.Warn("disconnect mongodb", "error", err)
		}
	}()

	if err := repository.EnsureCollections(ctx, store.DB); err != nil {
		return fmt.Errorf("create collections: %w", err)
	}
	if err := repository.SetupIndexes(ctx, store.DB); err != nil {
		return fmt.Errorf("create indexes: %w", err)
	}
	logger.Info("connected to mongodb", "database", cfg.Mongo.DatabaseName)

	var cache handler.Pinger
	if cfg.Redis.URL != "" {
		pinger, err := services.NewRedisPinger(cfg.Redis.URL)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer pinger.Close()
		cache = pinger
	}

	a := wire(cfg, store, cache, logger)

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	if cfg.Server.Env != "production" {
		engine.Use(gin.Logger())
	}
	engine.Use(
		middleware.RequestTracingMiddleware(),
		middleware.EnhancedRecoveryMiddleware(logger),
		middleware.MetricsMiddleware(a.metrics),
		middleware.RequestSizeLimiter(cfg.Server.MaxBodyBytes),
	)
	handler.RegisterRoutes(engine, a.handlers, middleware.AuthMiddleware(a.ledger.Issuer, a.ledger, logger))

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           corsHandler.Handler(engine),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server starting", "addr", srv.Addr, "env", cfg.Server.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return a.sweeper.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

type app struct {
	handlers handler.Handlers
	ledger   *usecase.TokenLedger
	sweeper  *usecase.RetentionSweeper
	metrics  *middleware.RequestMetrics
}

// wire builds the repositories, services and handlers on top of store.
func wire(cfg *config.Config, store *repository.Store, cache handler.Pinger, logger *slog.Logger) *app {
	db := store.DB
	users := repository.NewUsersRepo(db)
	notes := repository.NewNotesRepo(db)
	tags := repository.NewTagsRepo(db)
	noteTags := repository.NewNoteTagsRepo(db)
	versions := repository.NewNoteVersionsRepo(db)

	ai := services.NewOpenAIProvider(services.OpenAIConfig{
		APIKey:         cfg.AI.APIKey,
		BaseURL:        cfg.AI.BaseURL,
		EmbeddingModel: cfg.AI.EmbeddingModel,
		ChatModel:      cfg.AI.ChatModel,
		Timeout:        cfg.AI.Timeout,
	})

	ledger := &usecase.TokenLedger{
		Issuer:    services.NewTokenIssuer(cfg.Auth.AccessSecret, cfg.Auth.RefreshSecret, cfg.Auth.AccessTTL, cfg.Auth.RefreshTTL),
		Tokens:    repository.NewTokensRepo(db),
		Blacklist: repository.NewBlacklistRepo(db),
	}

	auth := &usecase.AuthService{
		Tx:         store,
		Users:      users,
		Resets:     repository.NewResetTokensRepo(db),
		Hasher:     services.NewPasswordHasher(cfg.Auth.Argon2.Params()),
		Ledger:     ledger,
		ResetCodes: services.NewResetCodes(cfg.Auth.ResetTTL),
		ResetTTL:   cfg.Auth.ResetTTL,
		DevMode:    cfg.Server.DevMode,
	}
	notesService := &usecase.NotesService{
		Tx:         store,
		Notes:      notes,
		Tags:       tags,
		NoteTags:   noteTags,
		History:    versions,
		Users:      users,
		Embedder:   ai,
		Summarizer: ai,
	}
	tagsService := &usecase.TagsService{
		Tx:        store,
		Tags:      tags,
		Notes:     notes,
		NoteTags:  noteTags,
		History:   versions,
		Suggester: ai,
	}

	sweeper := &usecase.RetentionSweeper{
		Tx:       store,
		Notes:    notes,
		NoteTags: noteTags,
		History:  versions,
		Ledger:   ledger,
		Window:   cfg.Retention.Window,
		Interval: cfg.Retention.SweepInterval,
		Logger:   logger,
		OnSweep: func(result usecase.SweepResult, err error) {
			middleware.TrackSweep(result.PurgedNotes, err)
		},
	}

	metrics := middleware.NewRequestMetrics()
	return &app{
		handlers: handler.Handlers{
			Auth:   handler.NewAuthHandler(auth, logger),
			Notes:  handler.NewNotesHandler(notesService, tagsService, logger),
			Tags:   handler.NewTagsHandler(tagsService, logger),
			System: handler.NewSystemHandler(store, cache, cfg.Broker.URL != "", metrics, logger),
		},
		ledger:  ledger,
		sweeper: sweeper,
		metrics: metrics,
	}
}
