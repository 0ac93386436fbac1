package api

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/taskhub-io/taskhub/internal/auth"
	"github.com/taskhub-io/taskhub/internal/config"
	"github.com/taskhub-io/taskhub/internal/storage"
	"github.com/taskhub-io/taskhub/internal/store"
)

type Api struct {
	Config   config.Config
	Router   *chi.Mux
	store    *store.Store
	auth     *auth.Service
	exporter storage.Exporter
	limiter  *rateLimiter
	now      func() time.Time
}

// Option customizes an Api
type Option func(*Api)

// WithExporter enables project exports through e
func WithExporter(e storage.Exporter) Option {
	return func(api *Api) {
		api.exporter = e
	}
}

func NewApi(cfg config.Config, st *store.Store, opts ...Option) (*Api, error) {
	if cfg.APIPort == 0 {
		return nil, errors.New("Must have at least a port to start API")
	}
	if st == nil {
		return nil, errors.New("a store is required")
	}

	svc, err := auth.NewService(st, cfg.Auth)
	if err != nil {
		return nil, err
	}

	api := &Api{
		Config: cfg,
		Router: chi.NewRouter(),
		store:  st,
		auth:   svc,
		now:    func() time.Time { return time.Now().UTC() },
	}
	if cfg.RateLimit.Enabled {
		api.limiter = newRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	}
	for _, opt := range opts {
		opt(api)
	}

	api.setupRoutes()
	return api, nil
}

func (api *Api) basePath() string {
	p := "/" + strings.Trim(api.Config.BasePath, "/")
	return p
}

func (api *Api) setupRoutes() {
	r := api.Router

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   api.Config.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/heartbeat"))

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		if err := api.store.Ping(r.Context()); err != nil {
			log.Printf("[API] Database ping failed: %v", err)
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong"))
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeFail(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeFail(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Route(api.basePath(), func(r chi.Router) {
		// Public routes
		r.Group(func(r chi.Router) {
			if api.limiter != nil {
				r.Use(api.limiter.Middleware)
			}
			r.Post("/register", api.RegisterHandler)
			r.Post("/login", api.LoginHandler)
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(api.TokenAuthMiddleware)

			r.Get("/profile", api.ProfileHandler)
			r.Post("/logout", api.LogoutHandler)

			r.Get("/tokens", api.ListTokensHandler)
			r.Delete("/tokens/{tokenID}", api.DeleteTokenHandler)

			r.Get("/dashboard/stats", api.DashboardStatsHandler)

			r.Route("/projects", func(r chi.Router) {
				r.Get("/", api.ListProjectsHandler)
				r.Post("/", api.CreateProjectHandler)
				r.Get("/{id}", api.GetProjectHandler)
				r.Put("/{id}", api.UpdateProjectHandler)
				r.Delete("/{id}", api.DeleteProjectHandler)
				r.Post("/{id}/export", api.ExportProjectHandler)
			})

			r.Route("/tasks", func(r chi.Router) {
				r.Get("/", api.ListTasksHandler)
				r.Post("/", api.CreateTaskHandler)
				r.Get("/{id}", api.GetTaskHandler)
				r.Put("/{id}", api.UpdateTaskHandler)
				r.Delete("/{id}", api.DeleteTaskHandler)
			})
		})
	})
}

// Serve listens on the configured port until SIGINT or SIGTERM, then drains
// in-flight requests.
func (api *Api) Serve() error {
	srv := &http.Server{
		Addr:         fmt.Sprintf("0.0.0.0:%d", api.Config.APIPort),
		Handler:      api.Router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		log.Printf("[API] Starting API server on %s (base path %s)", srv.Addr, api.basePath())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case err := <-errChan:
		return err
	case <-stop:
		log.Println("[API] Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return err
		}
		log.Println("[API] Server gracefully stopped")
	}
	return nil
}
