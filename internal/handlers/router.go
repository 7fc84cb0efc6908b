package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/loom-field/api/internal/platform/httpx"
)

// RouteRegistrar registers a set of routes against the provided router.
type RouteRegistrar func(r chi.Router)

const (
	defaultAPIPrefix  = "/api/v1"
	defaultTimeout    = 60 * time.Second
	errorNotFoundCode = "route_not_found"
)

// routeGroup pairs a mounted subtree with its registrar and group-scoped
// middleware. A nil registrar leaves the subtree answering 501 so probes can
// tell a dormant group from a missing route.
type routeGroup struct {
	path        string
	name        string
	registrar   RouteRegistrar
	middlewares []func(http.Handler) http.Handler
}

type routerConfig struct {
	basePath    string
	middlewares []func(http.Handler) http.Handler
	health      *HealthHandlers

	admin    routeGroup
	internal routeGroup
}

// Option customises the router configuration before construction.
type Option func(*routerConfig)

// NewRouter constructs the chi router with shared middleware, the health
// probes, and the admin and internal route groups under the API prefix.
func NewRouter(opts ...Option) chi.Router {
	cfg := routerConfig{
		basePath: defaultAPIPrefix,
		middlewares: []func(http.Handler) http.Handler{
			middleware.RequestID,
			middleware.RealIP,
			middleware.Timeout(defaultTimeout),
		},
		admin:    routeGroup{path: "/admin", name: "admin"},
		internal: routeGroup{path: "/internal", name: "internal"},
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.health == nil {
		cfg.health = NewHealthHandlers()
	}

	r := chi.NewRouter()
	for _, mw := range cfg.middlewares {
		if mw != nil {
			r.Use(mw)
		}
	}

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		writeRouteError(w, req, errorNotFoundCode, fmt.Sprintf("no route for %s", req.URL.Path), http.StatusNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		writeRouteError(w, req, "method_not_allowed", fmt.Sprintf("method %s not allowed on %s", req.Method, req.URL.Path), http.StatusMethodNotAllowed)
	})

	r.Get("/healthz", cfg.health.Healthz)
	r.Get("/readyz", cfg.health.Readyz)

	r.Route(cfg.basePath, func(api chi.Router) {
		mountGroup(api, cfg.admin)
		mountGroup(api, cfg.internal)
	})

	return r
}

func mountGroup(api chi.Router, group routeGroup) {
	api.Route(group.path, func(r chi.Router) {
		for _, mw := range group.middlewares {
			if mw != nil {
				r.Use(mw)
			}
		}
		if group.registrar != nil {
			group.registrar(r)
			return
		}
		notImplemented := func(w http.ResponseWriter, req *http.Request) {
			writeRouteError(w, req, "not_implemented", fmt.Sprintf("%s routes not implemented", group.name), http.StatusNotImplemented)
		}
		r.HandleFunc("/*", notImplemented)
		r.HandleFunc("/", notImplemented)
		r.NotFound(notImplemented)
		r.MethodNotAllowed(notImplemented)
	})
}

func writeRouteError(w http.ResponseWriter, req *http.Request, code string, message string, status int) {
	httpx.WriteError(req.Context(), w, httpx.NewError(code, message, status))
}

// WithMiddlewares appends additional global middleware to the router.
func WithMiddlewares(mw ...func(http.Handler) http.Handler) Option {
	return func(cfg *routerConfig) {
		cfg.middlewares = append(cfg.middlewares, mw...)
	}
}

// WithHealthHandlers overrides the handlers used for /healthz and /readyz endpoints.
func WithHealthHandlers(h *HealthHandlers) Option {
	return func(cfg *routerConfig) {
		cfg.health = h
	}
}

// WithAdminRoutes configures the registrar responsible for admin endpoints.
func WithAdminRoutes(reg RouteRegistrar) Option {
	return func(cfg *routerConfig) {
		cfg.admin.registrar = reg
	}
}

// WithInternalRoutes configures the registrar responsible for internal endpoints.
func WithInternalRoutes(reg RouteRegistrar) Option {
	return func(cfg *routerConfig) {
		cfg.internal.registrar = reg
	}
}

// WithInternalMiddlewares configures middlewares applied to the /internal group.
func WithInternalMiddlewares(mw ...func(http.Handler) http.Handler) Option {
	return func(cfg *routerConfig) {
		cfg.internal.middlewares = append(cfg.internal.middlewares, mw...)
	}
}
