package corehandler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"fitbusiness/internal/domain/auth"
	"fitbusiness/internal/domain/core"
	"fitbusiness/internal/transport/http/api"
	"fitbusiness/internal/transport/http/middleware"
	"fitbusiness/internal/transport/http/shared"
)

func (h *Handler) handleListEmployees(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	list := h.Service.ListEmployees()
	if companyID := r.URL.Query().Get("companyId"); companyID != "" {
		list = h.Service.EmployeesByCompany(companyID)
	}
	writeEmployeePage(w, r, filterEmployees(core.VisibleEmployees(list, user), r))
}

func (h *Handler) handleListCompanyEmployees(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	company, ok := h.loadCompany(w, r, user)
	if !ok {
		return
	}
	list := core.VisibleEmployees(h.Service.EmployeesByCompany(company.ID), user)
	writeEmployeePage(w, r, filterEmployees(list, r))
}

// writeEmployeePage answers the whole filtered list unless limit/offset ask
// for a window; X-Total-Count always carries the filtered size.
func writeEmployeePage(w http.ResponseWriter, r *http.Request, list []core.Employee) {
	page := shared.ParsePagination(r, 0, 1000)
	api.SuccessWithTotal(w, shared.Page(list, page), len(list), middleware.GetRequestID(r.Context()))
}

// filterEmployees applies the optional risk and q (name, email or title)
// query filters.
func filterEmployees(list []core.Employee, r *http.Request) []core.Employee {
	risk := r.URL.Query().Get("risk")
	q := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q")))
	if risk == "" && q == "" {
		return list
	}
	out := make([]core.Employee, 0, len(list))
	for _, e := range list {
		if risk != "" && !strings.EqualFold(string(e.RiskLevel), risk) {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(e.Name+" "+e.Email+" "+e.Title), q) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func (h *Handler) handleGetEmployee(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	emp, ok := h.loadEmployee(w, r, user)
	if !ok {
		return
	}
	core.FilterEmployeeFields(&emp, user)
	api.Success(w, emp, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateEmployee(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	company, ok := h.loadCompany(w, r, user)
	if !ok {
		return
	}
	var payload employeePayload
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	v := shared.NewValidator()
	admission, goals := payload.validate(v)
	if payload.CompanyID != "" && payload.CompanyID != company.ID {
		v.Add("companyId", "must match the company in the path")
	}
	if _, err := h.Service.FindEmployeeByEmail(company.ID, payload.Email); err == nil {
		v.Add("email", "is already used in this company")
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	emp, err := h.Service.CreateEmployee(r.Context(), user.UserID, payload.input(company.ID, admission, goals))
	if err != nil {
		writeError(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, user, emp.CompanyID, "core.employee.create", "employee", emp.ID, nil, emp)
	core.FilterEmployeeFields(&emp, user)
	api.Created(w, emp, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateEmployee(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	existing, ok := h.loadEmployee(w, r, user)
	if !ok {
		return
	}
	var payload employeePayload
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	v := shared.NewValidator()
	admission, goals := payload.validate(v)
	if payload.CompanyID != "" && !user.CanAccessCompany(payload.CompanyID) {
		v.Add("companyId", "is outside your scope")
	}
	targetCompany := existing.CompanyID
	if payload.CompanyID != "" {
		targetCompany = payload.CompanyID
	}
	if other, err := h.Service.FindEmployeeByEmail(targetCompany, payload.Email); err == nil && other.ID != existing.ID {
		v.Add("email", "is already used in this company")
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	updated, err := h.Service.UpdateEmployee(r.Context(), user.UserID, payload.apply(existing, admission, goals, uuid.NewString))
	if err != nil {
		writeError(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, user, updated.CompanyID, "core.employee.update", "employee", updated.ID, existing, updated)
	core.FilterEmployeeFields(&updated, user)
	api.Success(w, updated, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeleteEmployee(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	existing, ok := h.loadEmployee(w, r, user)
	if !ok {
		return
	}
	removed, err := h.Service.DeleteEmployee(r.Context(), user.UserID, existing.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, user, removed.CompanyID, "core.employee.delete", "employee", removed.ID, removed, nil)
	api.Success(w, map[string]string{"id": removed.ID}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleBulkDeleteEmployees(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	company, ok := h.loadCompany(w, r, user)
	if !ok {
		return
	}
	var payload bulkDeletePayload
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	v := shared.NewValidator()
	v.Struct(payload)
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	removed := h.Service.BulkDeleteEmployees(r.Context(), user.UserID, company.ID, payload.IDs)
	shared.RecordAudit(r, h.Audit, user, company.ID, "core.employee.bulk_delete", "company", company.ID,
		map[string]any{"ids": payload.IDs}, map[string]int{"removed": removed})
	api.Success(w, map[string]any{"companyId": company.ID, "removed": removed}, middleware.GetRequestID(r.Context()))
}

// loadEmployee resolves the employeeID URL parameter. Records the caller may
// not see are reported as missing.
func (h *Handler) loadEmployee(w http.ResponseWriter, r *http.Request, user auth.UserContext) (core.Employee, bool) {
	emp, err := h.Service.GetEmployee(chi.URLParam(r, "employeeID"))
	if err != nil {
		writeError(w, r, err)
		return core.Employee{}, false
	}
	if !core.CanViewEmployee(emp, user) {
		api.Fail(w, http.StatusNotFound, "employee_not_found", "employee not found", middleware.GetRequestID(r.Context()))
		return core.Employee{}, false
	}
	return emp, true
}
