package reportshandler

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"fitbusiness/internal/domain/auth"
	"fitbusiness/internal/domain/core"
	"fitbusiness/internal/domain/reports"
	"fitbusiness/internal/platform/logging"
	"fitbusiness/internal/transport/http/api"
	"fitbusiness/internal/transport/http/middleware"
)

type Handler struct {
	Service *core.Service
	Perms   middleware.PermissionStore
	Now     func() time.Time
}

func NewHandler(service *core.Service, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: service, Perms: perms, Now: func() time.Time { return time.Now().UTC() }}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequirePermission(auth.PermDashboardRead, h.Perms)).Get("/dashboard", h.handleDashboard)
	r.With(middleware.RequirePermission(auth.PermReportsRead, h.Perms)).Get("/companies/{companyID}/report.pdf", h.handleCompanyReport)
}

// ScopedDashboard aggregates the companies and employees visible to the user.
// Admins see every company; other roles see only their own.
func ScopedDashboard(svc *core.Service, user auth.UserContext) reports.Dashboard {
	if user.Role == auth.RoleAdmin {
		return reports.BuildDashboard(svc.ListCompanies(), svc.ListEmployees())
	}
	company, err := svc.GetCompany(user.CompanyID)
	if err != nil {
		return reports.BuildDashboard(nil, nil)
	}
	return reports.BuildDashboard([]core.Company{company}, svc.EmployeesByCompany(company.ID))
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return
	}
	if user.Role != auth.RoleEmployee {
		api.Success(w, ScopedDashboard(h.Service, user), middleware.GetRequestID(r.Context()))
		return
	}

	emp, err := h.Service.FindEmployeeByEmail(user.CompanyID, user.Email)
	if err != nil {
		api.Fail(w, http.StatusNotFound, "employee_not_found", "no employee record for this account", middleware.GetRequestID(r.Context()))
		return
	}
	company, err := h.Service.GetCompany(emp.CompanyID)
	if err != nil {
		api.Fail(w, http.StatusNotFound, "company_not_found", "company not found", middleware.GetRequestID(r.Context()))
		return
	}
	core.FilterEmployeeFields(&emp, user)
	api.Success(w, reports.BuildPersonalDashboard(emp, company), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCompanyReport(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	companyID := chi.URLParam(r, "companyID")
	requestID := middleware.GetRequestID(r.Context())
	if !user.CanAccessCompany(companyID) {
		api.Fail(w, http.StatusNotFound, "company_not_found", "company not found", requestID)
		return
	}
	company, err := h.Service.GetCompany(companyID)
	if err != nil {
		if errors.Is(err, core.ErrCompanyNotFound) {
			api.Fail(w, http.StatusNotFound, "company_not_found", "company not found", requestID)
			return
		}
		api.Fail(w, http.StatusInternalServerError, "internal_error", "internal server error", requestID)
		return
	}

	// Render into a buffer so a failure can still produce a JSON error.
	var buf bytes.Buffer
	if err := reports.WriteCompanyReport(&buf, company, h.Service.EmployeesByCompany(company.ID), h.Now()); err != nil {
		logging.FromContext(r.Context()).Error("company report failed", "reportCompanyId", company.ID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "report_failed", "failed to render report", requestID)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=fitbusiness-"+company.ID+".pdf")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	_, _ = w.Write(buf.Bytes())
}
