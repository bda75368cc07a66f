package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/okian/admitly/pkg/logger"
)

// RouterOption configures NewRouter.
type RouterOption func(*routerConfig)

type routerConfig struct {
	origins []string
	timeout time.Duration
	log     logger.Logger
}

// WithCORSOrigins sets the allowed CORS origins. Empty disables CORS.
func WithCORSOrigins(origins ...string) RouterOption {
	return func(c *routerConfig) { c.origins = origins }
}

// WithRequestTimeout bounds each request's context.
func WithRequestTimeout(d time.Duration) RouterOption {
	return func(c *routerConfig) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithRequestLogger logs each request at debug level.
func WithRequestLogger(l logger.Logger) RouterOption {
	return func(c *routerConfig) { c.log = l }
}

// NewRouter builds the chi router with the common middleware stack.
func NewRouter(opts ...RouterOption) chi.Router {
	cfg := routerConfig{timeout: 30 * time.Second}
	for _, opt := range opts {
		opt(&cfg)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.timeout))
	if cfg.log != nil {
		r.Use(requestLogger(cfg.log))
	}
	if len(cfg.origins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.origins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Accept-Language", "Content-Type"},
			ExposedHeaders:   []string{"X-Request-Id"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}
	return r
}

func requestLogger(l logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			l.Debug(r.Context(), "http request",
				logger.String("request_id", middleware.GetReqID(r.Context())),
				logger.String("method", r.Method),
				logger.String("path", r.URL.Path),
				logger.Int("status", ww.Status()),
				logger.Int("bytes", ww.BytesWritten()),
				logger.Float64("duration_ms", float64(time.Since(start).Microseconds())/1000),
			)
		})
	}
}
