// Package api serves the pump selector over JSON HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sells-group/pump-selector/internal/pipeline"
)

// maxUploadBytes bounds dataset uploads.
const maxUploadBytes = 32 << 20

// Options configures the HTTP handler.
type Options struct {
	AllowedOrigins []string
	// Gatherer backs GET /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer
}

// Server holds the handler dependencies.
type Server struct {
	p        *pipeline.Pipeline
	validate *validator.Validate
}

// NewHandler builds the API router.
func NewHandler(p *pipeline.Pipeline, opts Options) http.Handler {
	s := &Server{p: p, validate: validator.New()}

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/health", s.health)
	if opts.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/selector", s.selectorStatus)

		r.Post("/selections", s.submitSelection)
		r.Get("/selections", s.listSelections)

		r.Route("/datasets", func(r chi.Router) {
			r.Post("/", s.uploadDataset)
			r.Get("/", s.listDatasets)
			r.Get("/{id}", s.getDataset)
			r.Delete("/{id}", s.deleteDataset)
			r.Post("/{id}/assign", s.assignDataset)
			r.Post("/{id}/unassign", s.unassignDataset)
		})

		r.Get("/spares", s.listPumpTypes)
		r.Get("/spares/{pumpType}", s.sparesTable)

		r.Post("/orders", s.placeOrder)
		r.Get("/orders", s.listOrders)

		r.Post("/problems", s.reportProblem)
		r.Get("/problems", s.listProblems)

		r.Get("/stats", s.stats)
	})

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Debug("api: request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
