package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"pymetrics/internal"
	"pymetrics/internal/assessment"
)

// App is the HTTP surface over the trait-inference pipeline.
type App struct {
	router  *chi.Mux
	service *assessment.Service
	logger  *internal.Logger
}

// NewApp creates the API application around an assessment service.
func NewApp(service *assessment.Service, logger *internal.Logger) *App {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	app := &App{
		router:  chi.NewRouter(),
		service: service,
		logger:  logger,
	}

	app.setupMiddleware()
	app.setupRoutes()
	return app
}

func (a *App) setupMiddleware() {
	a.router.Use(middleware.RequestID)
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Compress(5))
}

func (a *App) setupRoutes() {
	a.router.Get("/health", a.handleHealth)

	a.router.Post("/api/traits/infer", a.handleInferTraits)
	a.router.Get("/api/traits/profile/{session_id}", a.handleGetProfile)
	a.router.Get("/api/traits/report/{session_id}", a.handleGetReport)
}

// Router exposes the configured mux, mainly for tests.
func (a *App) Router() http.Handler {
	return a.router
}

// Start starts the HTTP server on the given port.
func (a *App) Start(port string) error {
	addr := ":" + port
	a.logger.Info("starting trait inference API on %s", addr)
	return http.ListenAndServe(addr, a.router)
}
