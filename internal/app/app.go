package app

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

	"github.com/go-chi/chi/v5"

	"club-portal/internal/config"
	"club-portal/internal/database"
	"club-portal/internal/handler"
	"club-portal/internal/middleware"
	"club-portal/internal/repository"
	"club-portal/internal/router"
	"club-portal/internal/service"
	"club-portal/internal/wechat"
)

type App struct {
	server       *http.Server
	db           *database.DB
	cleanupFuncs []func()
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	slog.Info("connecting to PostgreSQL")
	db, err := database.New(context.Background(), cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.EnsureSchema(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure database schema: %w", err)
	}

	pool := db.Pool
	userRepo := repository.NewUserRepository(pool)
	postRepo := repository.NewPostRepository(pool)
	eventRepo := repository.NewEventRepository(pool)
	slog.Info("database ready")

	hasher := service.NewPasswordHasher(cfg.BcryptCost)
	tokenService := service.NewTokenService(cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)
	authService := service.NewAuthService(userRepo, tokenService, hasher, cfg.AllowedEmailDomains)

	wxClient := wechat.NewClient(cfg.WeChatAppID, cfg.WeChatAppSecret, cfg.WeChatAPIBase, cfg.WeChatTimeout)
	wechatService := service.NewWeChatService(wxClient, userRepo, tokenService, hasher)

	postService := service.NewPostService(postRepo)
	eventService := service.NewEventService(eventRepo)
	avatarService, err := service.NewAvatarService(cfg.AvatarRoot, userRepo)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize avatar service: %w", err)
	}

	authMiddleware := middleware.NewAuthMiddleware(tokenService, userRepo)

	gates := router.Gates{
		PostOwner: authMiddleware.RequireOwnership(chi.URLParam, "post_id",
			func(ctx context.Context, id string) (any, string, error) {
				post, err := postService.Get(ctx, id)
				if err != nil {
					return nil, "", err
				}
				return post, post.AuthorID, nil
			}),
		EventOwner: authMiddleware.RequireOwnership(chi.URLParam, "event_id",
			func(ctx context.Context, id string) (any, string, error) {
				event, err := eventService.Get(ctx, id)
				if err != nil {
					return nil, "", err
				}
				return event, event.OwnerID, nil
			}),
	}

	handlers := router.Handlers{
		Auth:  handler.NewAuthHandler(authService, wechatService),
		User:  handler.NewUserHandler(authService, avatarService, userRepo, cfg.MaxAvatarSize),
		Post:  handler.NewPostHandler(postService),
		Event: handler.NewEventHandler(eventService),
	}

	appRouter := router.New(cfg, authMiddleware, handlers, gates, avatarService.Root())

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           appRouter,
		ReadHeaderTimeout: cfg.ServerReadHeaderTimeout,
		WriteTimeout:      cfg.ServerWriteTimeout,
		IdleTimeout:       cfg.ServerIdleTimeout,
	}

	return &App{
		server: server,
		db:     db,
		cleanupFuncs: []func(){
			func() {
				db.Close()
			},
		},
	}, nil
}

func (a *App) Run() error {
	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if serveErr := a.server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			slog.Error("server failed", "error", serveErr)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	for _, cleanup := range a.cleanupFuncs {
		cleanup()
	}

	slog.Info("server stopped")
	return nil
}
