package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"club-portal/internal/config"
	"club-portal/internal/handler"
	"club-portal/internal/middleware"
)

type Handlers struct {
	Auth  *handler.AuthHandler
	User  *handler.UserHandler
	Post  *handler.PostHandler
	Event *handler.EventHandler
}

// Gates are the preconfigured ownership middlewares, built in app wiring
// where the resource lookups live.
type Gates struct {
	PostOwner  func(http.Handler) http.Handler
	EventOwner func(http.Handler) http.Handler
}

func New(cfg *config.Config, authMiddleware *middleware.AuthMiddleware, handlers Handlers, gates Gates, avatarRoot string) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM)

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.SecurityHeaders)
	r.Use(rateLimitMiddleware.Handler)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Handle("/avatars/*", http.StripPrefix("/avatars/", http.FileServer(http.Dir(avatarRoot))))

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(middleware.Timeout(cfg.RequestTimeout))

		api.Route("/auth", func(auth chi.Router) {
			auth.Post("/register", handlers.Auth.Register)
			auth.Post("/login", handlers.Auth.Login)
			auth.Post("/wechat", handlers.Auth.WeChatLogin)
			auth.Post("/wechat/link", handlers.Auth.WeChatLink)
			auth.Post("/refresh", handlers.Auth.Refresh)
			auth.With(authMiddleware.RequireAuth).Post("/logout", handlers.Auth.Logout)
		})

		api.Route("/users", func(users chi.Router) {
			users.With(authMiddleware.RequireAuth).Get("/me", handlers.User.Me)
			users.With(authMiddleware.RequireAuth).Put("/me/password", handlers.User.ChangePassword)
			users.With(authMiddleware.RequireAuth).Post("/me/avatar", handlers.User.UploadAvatar)
			users.With(authMiddleware.RequireAuth, authMiddleware.RequireRoles("admin")).Get("/", handlers.User.List)
			users.With(authMiddleware.RequireAuth, authMiddleware.RequireRoles("admin")).Put("/{user_id}/role", handlers.User.UpdateRole)
		})

		api.Route("/posts", func(posts chi.Router) {
			posts.With(authMiddleware.OptionalAuth).Get("/", handlers.Post.List)
			posts.With(authMiddleware.RequireAuth).Post("/", handlers.Post.Create)
			posts.With(authMiddleware.OptionalAuth).Get("/{post_id}", handlers.Post.Get)
			posts.With(authMiddleware.RequireAuth, gates.PostOwner).Put("/{post_id}", handlers.Post.Update)
			posts.With(authMiddleware.RequireAuth, gates.PostOwner).Delete("/{post_id}", handlers.Post.Delete)
		})

		api.Route("/events", func(events chi.Router) {
			events.With(authMiddleware.OptionalAuth).Get("/", handlers.Event.List)
			events.With(authMiddleware.RequireAuth, authMiddleware.RequireRoles("moderator", "admin")).Post("/", handlers.Event.Create)
			events.With(authMiddleware.OptionalAuth).Get("/{event_id}", handlers.Event.Get)
			events.With(authMiddleware.RequireAuth).Post("/{event_id}/join", handlers.Event.Join)
			events.With(authMiddleware.RequireAuth, gates.EventOwner).Delete("/{event_id}", handlers.Event.Delete)
		})
	})

	return r
}
