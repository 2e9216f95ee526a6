package corehandler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"fitbusiness/internal/domain/audit"
	"fitbusiness/internal/domain/auth"
	"fitbusiness/internal/domain/core"
	"fitbusiness/internal/platform/logging"
	"fitbusiness/internal/transport/http/api"
	"fitbusiness/internal/transport/http/middleware"
	"fitbusiness/internal/transport/http/shared"
)

type Handler struct {
	Service *core.Service
	Audit   *audit.Service
	Perms   middleware.PermissionStore
}

func NewHandler(service *core.Service, auditSvc *audit.Service, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: service, Audit: auditSvc, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/me", h.handleMe)
	r.Route("/companies", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermCompaniesRead, h.Perms)).Get("/", h.handleListCompanies)
		r.With(middleware.RequirePermission(auth.PermCompaniesWrite, h.Perms)).Post("/", h.handleCreateCompany)
		r.Route("/{companyID}", func(r chi.Router) {
			r.With(middleware.RequirePermission(auth.PermCompaniesRead, h.Perms)).Get("/", h.handleGetCompany)
			r.With(middleware.RequirePermission(auth.PermCompaniesWrite, h.Perms)).Put("/", h.handleUpdateCompany)
			r.With(middleware.RequirePermission(auth.PermCompaniesWrite, h.Perms)).Delete("/", h.handleDeleteCompany)
			r.With(middleware.RequirePermission(auth.PermEmployeesRead, h.Perms)).Get("/employees", h.handleListCompanyEmployees)
			r.With(middleware.RequirePermission(auth.PermEmployeesWrite, h.Perms)).Post("/employees", h.handleCreateEmployee)
			r.With(middleware.RequirePermission(auth.PermEmployeesWrite, h.Perms)).Post("/employees/bulk-delete", h.handleBulkDeleteEmployees)
		})
	})
	r.Route("/employees", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermEmployeesRead, h.Perms)).Get("/", h.handleListEmployees)
		r.Route("/{employeeID}", func(r chi.Router) {
			r.With(middleware.RequirePermission(auth.PermEmployeesRead, h.Perms)).Get("/", h.handleGetEmployee)
			r.With(middleware.RequirePermission(auth.PermEmployeesWrite, h.Perms)).Put("/", h.handleUpdateEmployee)
			r.With(middleware.RequirePermission(auth.PermEmployeesWrite, h.Perms)).Delete("/", h.handleDeleteEmployee)
			r.With(middleware.RequirePermission(auth.PermEmployeesRead, h.Perms)).Get("/goals", h.handleListGoals)
			r.With(middleware.RequirePermission(auth.PermGoalsWrite, h.Perms)).Post("/goals", h.handleCreateGoal)
			r.With(middleware.RequirePermission(auth.PermGoalsWrite, h.Perms)).Put("/goals/{goalID}", h.handleUpdateGoal)
			r.With(middleware.RequirePermission(auth.PermGoalsWrite, h.Perms)).Delete("/goals/{goalID}", h.handleDeleteGoal)
		})
	})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}

	payload := map[string]any{
		"user":        user,
		"permissions": user.Role.Permissions(),
	}
	if user.CompanyID != "" {
		if company, err := h.Service.GetCompany(user.CompanyID); err == nil {
			payload["company"] = company
		}
	}
	if user.Role == auth.RoleEmployee {
		if emp, err := h.Service.FindEmployeeByEmail(user.CompanyID, user.Email); err == nil {
			core.FilterEmployeeFields(&emp, user)
			payload["employee"] = emp
		}
	}
	api.Success(w, payload, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListCompanies(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	sector := r.URL.Query().Get("sector")
	status := r.URL.Query().Get("status")

	out := make([]core.Company, 0)
	for _, c := range h.Service.ListCompanies() {
		if !user.CanAccessCompany(c.ID) {
			continue
		}
		if sector != "" && string(c.Sector) != sector {
			continue
		}
		if status != "" && string(c.Status) != status {
			continue
		}
		out = append(out, c)
	}
	api.Success(w, out, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetCompany(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	company, ok := h.loadCompany(w, r, user)
	if !ok {
		return
	}
	api.Success(w, company, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateCompany(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	var payload companyPayload
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	v := shared.NewValidator()
	payload.validate(v)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	company := h.Service.CreateCompany(r.Context(), user.UserID, payload.input())
	shared.RecordAudit(r, h.Audit, user, company.ID, "core.company.create", "company", company.ID, nil, company)
	api.Created(w, company, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateCompany(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	existing, ok := h.loadCompany(w, r, user)
	if !ok {
		return
	}
	var payload companyPayload
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	v := shared.NewValidator()
	payload.validateUpdate(v)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	updated, err := h.Service.UpdateCompany(r.Context(), user.UserID, payload.apply(existing))
	if err != nil {
		writeError(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, user, updated.ID, "core.company.update", "company", updated.ID, existing, updated)
	api.Success(w, updated, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeleteCompany(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	existing, ok := h.loadCompany(w, r, user)
	if !ok {
		return
	}
	removed, err := h.Service.DeleteCompany(r.Context(), user.UserID, existing.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, user, existing.ID, "core.company.delete", "company", existing.ID, existing, map[string]int{"employeesRemoved": removed})
	api.Success(w, map[string]any{"id": existing.ID, "employeesRemoved": removed}, middleware.GetRequestID(r.Context()))
}

// loadCompany resolves the companyID URL parameter and enforces tenant scope.
// Companies outside the caller's scope are reported as missing.
func (h *Handler) loadCompany(w http.ResponseWriter, r *http.Request, user auth.UserContext) (core.Company, bool) {
	companyID := chi.URLParam(r, "companyID")
	if !user.CanAccessCompany(companyID) {
		api.Fail(w, http.StatusNotFound, "company_not_found", "company not found", middleware.GetRequestID(r.Context()))
		return core.Company{}, false
	}
	company, err := h.Service.GetCompany(companyID)
	if err != nil {
		writeError(w, r, err)
		return core.Company{}, false
	}
	return company, true
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	requestID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, core.ErrCompanyNotFound):
		api.Fail(w, http.StatusNotFound, "company_not_found", "company not found", requestID)
	case errors.Is(err, core.ErrEmployeeNotFound):
		api.Fail(w, http.StatusNotFound, "employee_not_found", "employee not found", requestID)
	case errors.Is(err, core.ErrGoalNotFound):
		api.Fail(w, http.StatusNotFound, "goal_not_found", "goal not found", requestID)
	case errors.Is(err, core.ErrDuplicateGoal):
		api.Fail(w, http.StatusBadRequest, "duplicate_goal", err.Error(), requestID)
	case errors.Is(err, core.ErrInvalidGoal):
		api.Fail(w, http.StatusBadRequest, "invalid_goal", strings.TrimSpace(err.Error()), requestID)
	default:
		logging.FromContext(r.Context()).Error("core request failed", "path", r.URL.Path, "err", err)
		api.Fail(w, http.StatusInternalServerError, "internal_error", "internal server error", requestID)
	}
}
