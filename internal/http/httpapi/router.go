package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"homestage/internal/http/handlers"
	"homestage/internal/infra"
	"homestage/internal/middleware"
)

// NewRouter assembles the HTTP surface. staticDir, when non-empty, exposes
// the local file store for development deployments.
func NewRouter(app *handlers.App, cfg *infra.Config, logger zerolog.Logger, country middleware.CountryLookup, staticDir string) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Locale(country),
		middleware.Logger(logger),
		middleware.CORS(cfg.AllowedOrigins),
		middleware.RateLimit(cfg.RateLimitPerMin, time.Minute),
		middleware.Session(cfg.SessionSecret),
	)

	r.Get("/healthz", app.Health)
	r.Get("/styles", app.Styles)

	r.Post("/generate", app.Generate)
	r.Post("/generate-video", app.GenerateVideo)
	r.Post("/detect-room", app.DetectRoom)

	r.Route("/generations", func(r chi.Router) {
		r.Get("/", app.ListGenerations)
		r.Get("/{id}", app.GetGeneration)
		r.Get("/{id}/zip", app.ZipGeneration)
	})

	if staticDir != "" {
		fs := http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir)))
		r.Get("/static/*", fs.ServeHTTP)
	}

	return r
}
