package corehandler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"fitbusiness/internal/domain/core"
	"fitbusiness/internal/transport/http/api"
	"fitbusiness/internal/transport/http/middleware"
	"fitbusiness/internal/transport/http/shared"
)

func (h *Handler) handleListGoals(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	emp, ok := h.loadEmployee(w, r, user)
	if !ok {
		return
	}
	api.Success(w, emp.Goals, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	emp, ok := h.loadEmployee(w, r, user)
	if !ok {
		return
	}
	if !core.CanEditGoals(emp, user) {
		api.Fail(w, http.StatusForbidden, "forbidden", "not allowed", middleware.GetRequestID(r.Context()))
		return
	}
	in, ok := decodeGoal(w, r)
	if !ok {
		return
	}

	_, goal, err := h.Service.AddGoal(r.Context(), user.UserID, emp.ID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, user, emp.CompanyID, "core.goal.create", "goal", goal.ID, nil, goal)
	api.Created(w, goal, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	emp, ok := h.loadEmployee(w, r, user)
	if !ok {
		return
	}
	if !core.CanEditGoals(emp, user) {
		api.Fail(w, http.StatusForbidden, "forbidden", "not allowed", middleware.GetRequestID(r.Context()))
		return
	}
	in, ok := decodeGoal(w, r)
	if !ok {
		return
	}

	goalID := chi.URLParam(r, "goalID")
	before := findGoal(emp.Goals, goalID)
	_, goal, err := h.Service.UpdateGoal(r.Context(), user.UserID, emp.ID, goalID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, user, emp.CompanyID, "core.goal.update", "goal", goal.ID, before, goal)
	api.Success(w, goal, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	emp, ok := h.loadEmployee(w, r, user)
	if !ok {
		return
	}
	if !core.CanEditGoals(emp, user) {
		api.Fail(w, http.StatusForbidden, "forbidden", "not allowed", middleware.GetRequestID(r.Context()))
		return
	}

	goalID := chi.URLParam(r, "goalID")
	before := findGoal(emp.Goals, goalID)
	if _, err := h.Service.DeleteGoal(r.Context(), user.UserID, emp.ID, goalID); err != nil {
		writeError(w, r, err)
		return
	}
	shared.RecordAudit(r, h.Audit, user, emp.CompanyID, "core.goal.delete", "goal", goalID, before, nil)
	api.Success(w, map[string]string{"id": goalID}, middleware.GetRequestID(r.Context()))
}

func decodeGoal(w http.ResponseWriter, r *http.Request) (core.GoalInput, bool) {
	var payload goalPayload
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return core.GoalInput{}, false
	}
	v := shared.NewValidator()
	v.Struct(payload)
	in, _ := payload.input(v, "")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return core.GoalInput{}, false
	}
	return in, true
}

func findGoal(goals []core.Goal, id string) *core.Goal {
	for i := range goals {
		if goals[i].ID == id {
			g := goals[i]
			return &g
		}
	}
	return nil
}
