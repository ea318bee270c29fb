package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/jscorp/hostpanel/internal/domain"
	"github.com/jscorp/hostpanel/internal/format"
	"github.com/jscorp/hostpanel/internal/middleware"
	"github.com/jscorp/hostpanel/internal/prefs"
	"github.com/jscorp/hostpanel/internal/stats"
	"github.com/jscorp/hostpanel/internal/store"
)

// handlers binds HTTP handler methods to an App's dependencies.
type handlers struct {
	app *App
}

// --- Health endpoints ---

func (h *handlers) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handlers) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ready := true
	checks := make(map[string]any)

	if h.app.Plugins != nil {
		statuses := h.app.Plugins.HealthCheck(r.Context())
		pluginChecks := make([]map[string]any, 0, len(statuses))
		for _, ps := range statuses {
			if !ps.Healthy {
				ready = false
			}
			pluginChecks = append(pluginChecks, map[string]any{
				"name":    ps.PluginName,
				"type":    ps.PluginType,
				"healthy": ps.Healthy,
				"message": ps.Message,
			})
		}
		if len(statuses) == 0 {
			ready = false
		}
		checks["plugins"] = pluginChecks
	}

	if ready {
		checks["status"] = "ready"
		writeJSON(w, http.StatusOK, checks)
		return
	}
	checks["status"] = "not_ready"
	writeJSON(w, http.StatusServiceUnavailable, checks)
}

// --- Auth endpoints ---

type loginRequest struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	RememberMe bool   `json:"remember_me"`
}

func (h *handlers) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.app.Gate.Login(r.Context(), req.Username, req.Password, req.RememberMe)
	if err != nil {
		writeInternal(w, r, err)
		return
	}
	if h.app.Metrics != nil {
		h.app.Metrics.ObserveLogin(res.Success)
	}

	if !res.Success {
		writeJSON(w, http.StatusUnauthorized, res)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    res.Token,
		Path:     "/",
		Expires:  res.ExpiresAt,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, res)
}

func (h *handlers) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Gate.Logout(r.Context()); err != nil {
		writeInternal(w, r, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.app.Config.LoginPath, http.StatusSeeOther)
}

func (h *handlers) handleAuthMe(w http.ResponseWriter, r *http.Request) {
	user, err := h.app.Gate.CurrentUser(r.Context())
	if err != nil {
		writeInternal(w, r, err)
		return
	}
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// --- Landing page ---

type catalogEntry struct {
	domain.Package
	Popular               bool   `json:"popular"`
	PriceMonthlyFormatted string `json:"price_monthly_formatted"`
	PriceYearlyFormatted  string `json:"price_yearly_formatted"`
}

// handleCatalog lists the active packages in stored order. The second one
// is flagged as the popular plan.
func (h *handlers) handleCatalog(w http.ResponseWriter, r *http.Request) {
	all, err := store.PackagesOf(h.app.Store).GetAll(r.Context())
	if err != nil {
		writeInternal(w, r, err)
		return
	}

	entries := make([]catalogEntry, 0, len(all))
	for _, pkg := range all {
		if pkg.Status != domain.StatusActive {
			continue
		}
		entries = append(entries, catalogEntry{
			Package:               pkg,
			Popular:               len(entries) == 1,
			PriceMonthlyFormatted: format.Currency(pkg.PriceMonthly),
			PriceYearlyFormatted:  format.Currency(pkg.PriceYearly),
		})
	}
	writeJSON(w, http.StatusOK, entries)
}

type themeBody struct {
	Theme string `json:"theme"`
}

func (h *handlers) handleGetTheme(w http.ResponseWriter, r *http.Request) {
	theme, err := h.app.Themes.Get(r.Context())
	if err != nil {
		writeInternal(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, themeBody{Theme: theme})
}

func (h *handlers) handleSetTheme(w http.ResponseWriter, r *http.Request) {
	var body themeBody
	if !decodeJSON(w, r, &body) {
		return
	}
	if err := h.app.Themes.Set(r.Context(), body.Theme); err != nil {
		if errors.Is(err, prefs.ErrInvalidTheme) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeInternal(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, body)
}

func (h *handlers) handleToggleTheme(w http.ResponseWriter, r *http.Request) {
	theme, err := h.app.Themes.Toggle(r.Context())
	if err != nil {
		writeInternal(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, themeBody{Theme: theme})
}

// --- Dashboard ---

type statsView struct {
	stats.Stats
	TotalRevenueFormatted string `json:"total_revenue_formatted"`
}

func (h *handlers) handleDashboardStats(w http.ResponseWriter, r *http.Request) {
	s, err := h.app.Stats.GetStats(r.Context())
	if err != nil {
		writeInternal(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statsView{
		Stats:                 s,
		TotalRevenueFormatted: format.Currency(s.TotalRevenue),
	})
}

type activityView struct {
	stats.Activity
	AmountFormatted string       `json:"amount_formatted"`
	DateFormatted   string       `json:"date_formatted"`
	StatusBadge     format.Badge `json:"status_badge"`
}

func (h *handlers) handleDashboardActivity(w http.ResponseWriter, r *http.Request) {
	limit := stats.DefaultActivityLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = n
	}

	activity, err := h.app.Stats.GetRecentActivity(r.Context(), limit)
	if err != nil {
		writeInternal(w, r, err)
		return
	}

	views := make([]activityView, 0, len(activity))
	for _, a := range activity {
		date := a.StartDate
		if date == "" {
			date = a.CreatedAt
		}
		views = append(views, activityView{
			Activity:        a,
			AmountFormatted: format.Currency(a.Amount),
			DateFormatted:   format.Date(date),
			StatusBadge:     format.StatusBadge(a.Status),
		})
	}
	writeJSON(w, http.StatusOK, views)
}

// handleDiagnostics streams the support bundle as a tar.gz download, or as a
// single JSON document with ?format=json.
func (h *handlers) handleDiagnostics(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("format") == "json" {
		writeJSON(w, http.StatusOK, h.app.Diagnostics.Collect(r.Context()))
		return
	}

	filename := fmt.Sprintf("hostpanel-diagnostics-%s.tar.gz", time.Now().UTC().Format("20060102-150405"))
	w.Header().Set("Content-Type", "application/gzip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if err := h.app.Diagnostics.WriteTarGz(r.Context(), w); err != nil {
		slog.Error("diagnostics: failed to write bundle",
			"error", err,
			"request_id", middleware.GetRequestID(r.Context()),
		)
	}
}
