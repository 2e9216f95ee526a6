package audithandler

import (
	"encoding/csv"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"fitbusiness/internal/domain/audit"
	"fitbusiness/internal/domain/auth"
	"fitbusiness/internal/platform/logging"
	"fitbusiness/internal/transport/http/api"
	"fitbusiness/internal/transport/http/middleware"
	"fitbusiness/internal/transport/http/shared"
)

type Handler struct {
	Service *audit.Service
	Perms   middleware.PermissionStore
}

func NewHandler(service *audit.Service, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: service, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/audit", func(r chi.Router) {
		r.Use(middleware.RequirePermission(auth.PermAuditRead, h.Perms))
		r.Get("/events", h.handleListEvents)
		r.Get("/events/export", h.handleExportEvents)
	})
}

// filterFor builds the listing filter. HR managers are pinned to their own
// company; admins may narrow by companyId.
func filterFor(r *http.Request, user auth.UserContext) (audit.Filter, error) {
	q := r.URL.Query()
	from, to, err := shared.ParseRange(q.Get("from"), q.Get("to"))
	if err != nil {
		return audit.Filter{}, err
	}
	filter := audit.Filter{
		CompanyID:  q.Get("companyId"),
		Action:     q.Get("action"),
		EntityType: q.Get("entityType"),
		ActorUser:  q.Get("actorUserId"),
		From:       from,
		To:         to,
	}
	if user.Role != auth.RoleAdmin {
		filter.CompanyID = user.CompanyID
	}
	return filter, nil
}

func (h *Handler) handleListEvents(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	filter, err := filterFor(r, user)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_range", err.Error(), requestID)
		return
	}

	page := shared.ParsePagination(r, 100, 500)
	includeDetails := r.URL.Query().Get("includeDetails") == "true"
	total, err := h.Service.Count(r.Context(), filter)
	if err != nil {
		logging.FromContext(r.Context()).Warn("audit count failed", "err", err)
	}

	events, err := h.Service.List(r.Context(), filter, includeDetails, page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "audit_list_failed", "failed to list audit events", requestID)
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	api.SuccessWithTotal(w, events, total, requestID)
}

func (h *Handler) handleExportEvents(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	filter, err := filterFor(r, user)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_range", err.Error(), requestID)
		return
	}

	events, err := h.Service.ListExport(r.Context(), filter)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "audit_export_failed", "failed to export audit events", requestID)
		return
	}

	log := logging.FromContext(r.Context())
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=audit-events.csv")
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"id", "company_id", "actor_user_id", "actor_role", "action", "entity_type", "entity_id", "request_id", "ip", "created_at"}); err != nil {
		log.Warn("audit export header failed", "err", err)
	}
	for _, evt := range events {
		row := []string{evt.ID, evt.CompanyID, evt.ActorID, evt.ActorRole, evt.Action, evt.EntityType, evt.EntityID, evt.RequestID, evt.IP, evt.CreatedAt.UTC().Format(time.RFC3339)}
		if err := writer.Write(row); err != nil {
			log.Warn("audit export row failed", "err", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		log.Warn("audit export flush failed", "err", err)
	}
}
