// 文件路径: internal/api/router.go
// 模块说明: 这是 internal 模块里的 router 逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/creamcroissant/boxbuild/internal/api/handler"
	"github.com/creamcroissant/boxbuild/internal/api/middleware"
	"github.com/creamcroissant/boxbuild/internal/cache"
	"github.com/creamcroissant/boxbuild/internal/config"
	"github.com/creamcroissant/boxbuild/internal/service"
)

type Services struct {
	Builds service.ConfigBuildService
	// Cache backs the rate limiter; nil gets a private store.
	Cache cache.Store
}

// Options tune the router beyond the configuration file.
type Options struct {
	// Registry receives HTTP metrics and is served on /metrics; nil uses the
	// default Prometheus registry.
	Registry *prometheus.Registry
}

// NewRouter wires the read-only API.
func NewRouter(logger *slog.Logger, services Services, httpCfg config.HTTPConfig, metricsCfg config.MetricsConfig, opts Options) http.Handler {
	if services.Builds == nil {
		panic("router requires ConfigBuildService")
	}
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(
		chiMiddleware.RequestID,
		chiMiddleware.RealIP,
	)

	if metricsCfg.Enabled {
		mCfg := middleware.DefaultMetricsConfig()
		if metricsCfg.Namespace != "" {
			mCfg.Namespace = metricsCfg.Namespace
		}
		if metricsCfg.Subsystem != "" {
			mCfg.Subsystem = metricsCfg.Subsystem
		}
		if len(metricsCfg.Buckets) > 0 {
			mCfg.Buckets = metricsCfg.Buckets
		}
		if opts.Registry != nil {
			mCfg.Registerer = opts.Registry
		}
		r.Use(middleware.NewMetrics(mCfg).Middleware)
	}

	r.Use(
		middleware.StructuredLogger(middleware.LoggingConfig{
			Logger:        logger,
			SlowThreshold: 500 * time.Millisecond,
			SkipPaths:     []string{"/healthz", "/metrics"},
		}),
		chiMiddleware.Recoverer,
		chiMiddleware.Compress(5),
	)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]any{
			"status": "ok",
			"ts":     time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	if metricsCfg.Enabled {
		if opts.Registry != nil {
			r.Handle("/metrics", promhttp.HandlerFor(opts.Registry, promhttp.HandlerOpts{}))
		} else {
			r.Handle("/metrics", promhttp.Handler())
		}
	}

	profiles := handler.NewProfileHandler(services.Builds)
	r.Route("/api/v1/profiles", func(r chi.Router) {
		r.Get("/", profiles.List)
		r.Group(func(r chi.Router) {
			if httpCfg.RateLimit > 0 {
				r.Use(middleware.RateLimit(middleware.RateLimitConfig{
					Limit:  httpCfg.RateLimit,
					Window: httpCfg.RateWindow,
					Store:  services.Cache,
				}))
			}
			r.Get("/{id}/config", profiles.Config)
			r.Get("/{id}/build", profiles.Build)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusNotFound, map[string]any{
			"error": "not found / 未找到",
			"path":  r.URL.Path,
		})
	})

	return r
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Warn("failed to encode response JSON", "error", err)
	}
}
