package insightshandler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"fitbusiness/internal/domain/auth"
	"fitbusiness/internal/domain/core"
	"fitbusiness/internal/domain/insights"
	"fitbusiness/internal/transport/http/api"
	"fitbusiness/internal/transport/http/middleware"
	reportshandler "fitbusiness/internal/transport/http/handlers/reports"
)

type Handler struct {
	Core     *core.Service
	Insights *insights.Service
	Perms    middleware.PermissionStore
}

func NewHandler(coreSvc *core.Service, insightSvc *insights.Service, perms middleware.PermissionStore) *Handler {
	return &Handler{Core: coreSvc, Insights: insightSvc, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequirePermission(auth.PermInsightsRead, h.Perms)).Get("/insights/{key}", h.handleInsight)
}

// handleInsight always answers 200 for a known key. Generator failures are
// replaced by the fallback text inside the insights service.
func (h *Handler) handleInsight(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	key, ok := insights.ParseKey(chi.URLParam(r, "key"))
	if !ok {
		api.Fail(w, http.StatusNotFound, "insight_not_found", "unknown insight key", middleware.GetRequestID(r.Context()))
		return
	}
	dash := reportshandler.ScopedDashboard(h.Core, user)
	api.Success(w, h.Insights.Insight(r.Context(), key, dash), middleware.GetRequestID(r.Context()))
}
