// Package server is the composition root: it opens the store, builds every
// service and handler, mounts the routes and runs the HTTP server until a
// shutdown signal arrives.
//
//	config → store (sqlite|postgres) → services → handlers → chi router
//	       → redis cache (optional)  ↗
//	       → Gemini client (optional) → chat handler
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"

	"github.com/codinggeeks/api/internal/auth"
	"github.com/codinggeeks/api/internal/cache"
	"github.com/codinggeeks/api/internal/chat"
	"github.com/codinggeeks/api/internal/config"
	"github.com/codinggeeks/api/internal/handler"
	"github.com/codinggeeks/api/internal/middleware"
	"github.com/codinggeeks/api/internal/repository"
	"github.com/codinggeeks/api/internal/repository/postgres"
	sqliteRepo "github.com/codinggeeks/api/internal/repository/sqlite"
	"github.com/codinggeeks/api/internal/service"
	"github.com/codinggeeks/api/internal/validation"
)

const cacheKeyPrefix = "codinggeeks:"

// Server owns the store and redis connections and closes them on shutdown.
type Server struct {
	router *chi.Mux
	config config.Config
	logger *slog.Logger
	store  repository.Store
	redis  *redis.Client
}

// New connects to every backend the configuration asks for and wires the
// routes. Optional backends (redis, Gemini, OAuth) that are not configured
// are skipped with a warning; a configured one that fails is an error.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Server, error) {
	store, err := OpenStore(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		store:  store,
	}

	if cfg.Cache.RedisURL != "" {
		s.redis, err = cache.Connect(ctx, cfg.Cache.RedisURL)
		if err != nil {
			s.close()
			return nil, err
		}
	} else {
		logger.Info("REDIS_URL not set, read cache disabled")
	}

	if err := s.setupRoutes(ctx); err != nil {
		s.close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// OpenStore opens and migrates the backend selected by DB_DRIVER.
func OpenStore(ctx context.Context, cfg config.DatabaseConfig) (repository.Store, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		db, err := postgres.New(ctx, cfg.URL, postgres.WithQueryTimeout(cfg.QueryTimeout))
		if err != nil {
			return nil, fmt.Errorf("opening postgres: %w", err)
		}
		return db, nil
	default:
		if cfg.Path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
				return nil, fmt.Errorf("creating database directory: %w", err)
			}
		}
		db, err := sqliteRepo.New(cfg.Path, sqliteRepo.WithQueryTimeout(cfg.QueryTimeout))
		if err != nil {
			return nil, fmt.Errorf("opening sqlite: %w", err)
		}
		return db, nil
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes builds the dependency graph and mounts every route.
//
// ROUTES:
//
//	GET    /health
//	POST   /api/user                  find-or-create
//	GET    /api/user?email=
//	PUT    /api/user                  partial profile update
//	GET    /api/profile?email=        user + their solutions
//	POST   /api/solution/new
//	GET    /api/solution/all
//	GET    /api/solution/usersol?email=
//	GET    /api/solution/{id}         also ?id=
//	PATCH  /api/solution/{id}         contributor only (session, or X-User-Email without JWT_SECRET)
//	DELETE /api/solution/{id}         contributor only
//	POST   /api/gemini
//	GET    /api/me                    signed-in user
//	GET    /auth/{provider}/login
//	GET    /auth/{provider}/callback
//	POST   /auth/logout
//
// Middleware order: RequestID must precede Logger so the id is logged;
// Recoverer sits inside Logger so a panic is logged as a 500.
func (s *Server) setupRoutes(ctx context.Context) error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{s.config.FrontendURL},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", auth.EmailHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	var c *cache.Cache
	if s.redis != nil {
		c = cache.New(s.redis, cacheKeyPrefix, s.config.Cache.TTL)
	}
	v := validation.New()

	userService := service.NewUserService(s.store, c, v, s.logger)
	solutionService := service.NewSolutionService(s.store, userService, c, v, s.logger)
	profileService := service.NewProfileService(userService, solutionService, c, s.logger)

	userHandler := handler.NewUserHandler(userService)
	solutionHandler := handler.NewSolutionHandler(solutionService, profileService)
	profileHandler := handler.NewProfileHandler(profileService)
	healthHandler := handler.NewHealthHandler(s.store)

	var gen chat.Generator
	if s.config.Gemini.APIKey != "" {
		gemini, err := chat.NewGemini(ctx, s.config.Gemini.APIKey, s.config.Gemini.Model, s.logger)
		if err != nil {
			return err
		}
		gen = gemini
	} else {
		s.logger.Warn("GEMINI_API_KEY not set, /api/gemini will answer 503")
	}
	chatHandler := handler.NewChatHandler(gen, v, s.logger)

	var (
		tokens      *auth.TokenService
		authHandler *handler.AuthHandler
	)
	if s.config.Auth.JWTSecret != "" {
		var err error
		tokens, err = auth.NewTokenService(s.config.Auth.JWTSecret, s.config.Auth.SessionTTL)
		if err != nil {
			return err
		}
		authService := service.NewAuthService(userService, tokens, s.logger)
		authHandler = handler.NewAuthHandler(s.providers(), authService, tokens, s.config.FrontendURL, s.logger)
	} else {
		s.logger.Warn("JWT_SECRET not set, sign-in is disabled and solution edits trust the X-User-Email header")
	}

	// Identity for PATCH/DELETE on solutions: the session when sign-in is
	// configured, otherwise the caller-asserted email.
	var modify []func(http.Handler) http.Handler
	if tokens == nil {
		modify = append(modify, auth.AssertedIdentity(userService, s.logger))
	}

	s.router.Get("/health", healthHandler.HandleHealth)

	s.router.Route("/api", func(r chi.Router) {
		if tokens != nil {
			r.Use(auth.Authenticate(tokens, userService, s.logger))
		}

		r.Post("/user", userHandler.HandleEnsure)
		r.Get("/user", userHandler.HandleGet)
		r.Put("/user", userHandler.HandleUpdate)

		r.Get("/profile", profileHandler.HandleGet)

		r.Route("/solution", func(r chi.Router) {
			r.Post("/new", solutionHandler.HandleCreate)
			r.Get("/all", solutionHandler.HandleList)
			r.Get("/usersol", solutionHandler.HandleByUser)
			r.Get("/", solutionHandler.HandleGet)
			r.With(modify...).Patch("/", solutionHandler.HandleUpdate)
			r.With(modify...).Delete("/", solutionHandler.HandleDelete)
			r.Get("/{id}", solutionHandler.HandleGet)
			r.With(modify...).Patch("/{id}", solutionHandler.HandleUpdate)
			r.With(modify...).Delete("/{id}", solutionHandler.HandleDelete)
		})

		r.Post("/gemini", chatHandler.HandleChat)

		if authHandler != nil {
			r.With(auth.RequireSession).Get("/me", authHandler.HandleMe)
		}
	})

	if authHandler != nil {
		s.router.Route("/auth", func(r chi.Router) {
			r.Get("/{provider}/login", authHandler.HandleLogin)
			r.Get("/{provider}/callback", authHandler.HandleCallback)
			r.Post("/logout", authHandler.HandleLogout)
		})
	}

	return nil
}

func (s *Server) providers() []auth.Provider {
	var providers []auth.Provider
	if g := s.config.Auth.Google; g.Enabled() {
		providers = append(providers, auth.NewGoogleProvider(g.ClientID, g.ClientSecret, g.CallbackURL))
	}
	if g := s.config.Auth.GitHub; g.Enabled() {
		providers = append(providers, auth.NewGitHubProvider(g.ClientID, g.ClientSecret, g.CallbackURL))
	}
	if len(providers) == 0 {
		s.logger.Warn("no OAuth provider configured, sign-in routes will answer 404")
	}
	return providers
}

// Start serves until SIGINT or SIGTERM, then gives in-flight requests 30
// seconds to finish before closing the backends.
func (s *Server) Start() error {
	defer s.close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // chat replies can be slow
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("driver", s.config.Database.Driver),
			slog.Bool("cache", s.redis != nil),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}

// Close releases the backends without serving, for callers that built a
// Server only to use Handler.
func (s *Server) Close() {
	s.close()
}

func (s *Server) close() {
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Warn("closing redis", slog.String("error", err.Error()))
		}
	}
	if err := s.store.Close(); err != nil {
		s.logger.Warn("closing store", slog.String("error", err.Error()))
	}
}
