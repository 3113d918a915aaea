package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// RouterConfig controls the HTTP surface around the handlers.
type RouterConfig struct {
	RequestTimeout time.Duration
	StaticDir      string
}

// NewRouter assembles the storefront routes with the shared middleware
// stack and OpenTelemetry instrumentation.
func NewRouter(h *Handler, m *Metrics, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(RequestIDHeader)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", m.Handler())

	r.With(m.Middleware("store")).Get("/store", h.Store)
	r.With(m.Middleware("purchase")).Post("/purchase", h.Purchase)

	if cfg.StaticDir != "" {
		fs := http.StripPrefix("/public/", http.FileServer(http.Dir(cfg.StaticDir)))
		r.Handle("/public/*", fs)
	}

	return otelhttp.NewHandler(r, "storefront")
}
