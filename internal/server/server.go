// Package server provides the HTTP handler assembly for hostpanel. It accepts
// all dependencies as parameters so that both main() and tests can build the
// same handler chain without route drift.
package server

import (
	"net/http"

	"github.com/jscorp/hostpanel/internal/auth"
	"github.com/jscorp/hostpanel/internal/config"
	"github.com/jscorp/hostpanel/internal/diagnostics"
	"github.com/jscorp/hostpanel/internal/domain"
	"github.com/jscorp/hostpanel/internal/events"
	"github.com/jscorp/hostpanel/internal/metrics"
	"github.com/jscorp/hostpanel/internal/middleware"
	"github.com/jscorp/hostpanel/internal/plugins"
	"github.com/jscorp/hostpanel/internal/prefs"
	"github.com/jscorp/hostpanel/internal/stats"
	"github.com/jscorp/hostpanel/internal/store"
)

// App holds all dependencies needed to build the HTTP handler.
type App struct {
	Store        *store.Store
	Gate         *auth.Gate
	Stats        *stats.Aggregator
	Themes       *prefs.Themes
	Bus          *events.Bus
	Metrics      *metrics.Metrics        // nil disables /metrics and counters
	Plugins      *plugins.Registry       // nil skips plugin checks in /readyz
	LoginLimiter *middleware.RateLimiter // nil disables login throttling
	Diagnostics  *diagnostics.Collector  // nil disables the support bundle
	Config       *config.Config
}

// Handler builds and returns the complete HTTP handler with all routes
// registered and middleware applied.
func (a *App) Handler() http.Handler {
	mux := http.NewServeMux()
	h := &handlers{app: a}

	// Observability endpoints (public)
	mux.HandleFunc("GET /healthz", h.handleHealthz)
	mux.HandleFunc("GET /readyz", h.handleReadyz)
	if a.Metrics != nil {
		mux.Handle("GET /metrics", a.Metrics.Handler())
	}

	// Auth routes (public)
	var login http.Handler = http.HandlerFunc(h.handleLogin)
	if a.LoginLimiter != nil {
		login = a.LoginLimiter.Limit(login)
	}
	mux.Handle("POST /api/auth/login", login)
	mux.HandleFunc("POST /api/auth/logout", h.handleLogout)
	mux.HandleFunc("GET /api/auth/logout", h.handleLogout)

	requireAuth := middleware.RequireAuth(a.Gate, a.Config.LoginPath)
	protect := func(fn http.HandlerFunc) http.Handler { return requireAuth(fn) }

	mux.Handle("GET /api/auth/me", protect(h.handleAuthMe))

	// The theme is one site-wide slot; only the admin may change it.
	mux.Handle("PUT /api/theme", protect(h.handleSetTheme))
	mux.Handle("POST /api/theme/toggle", protect(h.handleToggleTheme))

	// Landing page routes (public)
	mux.HandleFunc("GET /api/catalog", h.handleCatalog)
	mux.HandleFunc("GET /api/theme", h.handleGetTheme)
	mux.Handle("GET /api/events", events.NewSSEHandler(a.Bus, store.Packages))
	mux.Handle("GET /ws/packages", events.NewWebSocketHandler(a.Bus, store.Packages))

	// Record routes. Package reads are public; every write and every
	// customer or order route needs a session.
	packages := newResource[domain.Package, *domain.Package, domain.PackagePatch](store.PackagesOf(a.Store))
	customers := newResource[domain.Customer, *domain.Customer, domain.CustomerPatch](store.CustomersOf(a.Store))
	orders := newResource[domain.Order, *domain.Order, domain.OrderPatch](store.OrdersOf(a.Store))

	mux.HandleFunc("GET /api/packages", packages.list)
	mux.HandleFunc("GET /api/packages/{id}", packages.get)
	mux.Handle("POST /api/packages", protect(packages.create))
	mux.Handle("PUT /api/packages/{id}", protect(packages.update))
	mux.Handle("DELETE /api/packages/{id}", protect(packages.delete))

	for _, r := range []recordRoutes{customers, orders} {
		base := "/api/" + r.collection()
		mux.Handle("GET "+base, protect(r.list))
		mux.Handle("GET "+base+"/{id}", protect(r.get))
		mux.Handle("POST "+base, protect(r.create))
		mux.Handle("PUT "+base+"/{id}", protect(r.update))
		mux.Handle("DELETE "+base+"/{id}", protect(r.delete))
	}

	// Dashboard routes (protected)
	mux.Handle("GET /api/dashboard/stats", protect(h.handleDashboardStats))
	mux.Handle("GET /api/dashboard/activity", protect(h.handleDashboardActivity))

	if a.Diagnostics != nil {
		mux.Handle("GET /api/admin/diagnostics", protect(h.handleDiagnostics))
	}

	return middleware.SecurityHeaders(middleware.RequestID(mux))
}
