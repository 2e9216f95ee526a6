package importshandler

import (
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"fitbusiness/internal/domain/audit"
	"fitbusiness/internal/domain/auth"
	"fitbusiness/internal/domain/core"
	"fitbusiness/internal/domain/imports"
	"fitbusiness/internal/platform/logging"
	"fitbusiness/internal/transport/http/api"
	"fitbusiness/internal/transport/http/middleware"
	"fitbusiness/internal/transport/http/shared"
)

// ImportRecorder counts preview outcomes.
type ImportRecorder interface {
	RecordImport(valid, invalid int)
}

type Handler struct {
	Service  *core.Service
	Sessions *imports.Manager
	Audit    *audit.Service
	Perms    middleware.PermissionStore
	Metrics  ImportRecorder
	MaxBytes int64
	Now      func() time.Time
}

func NewHandler(service *core.Service, sessions *imports.Manager, auditSvc *audit.Service, perms middleware.PermissionStore, metrics ImportRecorder, maxBytes int64) *Handler {
	return &Handler{
		Service:  service,
		Sessions: sessions,
		Audit:    auditSvc,
		Perms:    perms,
		Metrics:  metrics,
		MaxBytes: maxBytes,
		Now:      func() time.Time { return time.Now().UTC() },
	}
}

type preview struct {
	imports.Session
	ValidCount   int `json:"validCount"`
	InvalidCount int `json:"invalidCount"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	guard := middleware.RequirePermission(auth.PermImportsWrite, h.Perms)
	r.With(guard).Post("/companies/{companyID}/imports", h.handleStart)
	r.Route("/imports", func(r chi.Router) {
		r.Use(guard)
		r.Get("/template", h.handleTemplate)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", h.handleGet)
			r.Put("/", h.handleUpload)
			r.Delete("/", h.handleReset)
			r.Post("/confirm", h.handleConfirm)
		})
	})
}

func (h *Handler) handleTemplate(w http.ResponseWriter, r *http.Request) {
	tpl, err := imports.Template()
	if err != nil {
		logging.FromContext(r.Context()).Error("render import template", "err", err)
		api.Fail(w, http.StatusInternalServerError, "internal_error", "internal server error", middleware.GetRequestID(r.Context()))
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename="+imports.TemplateFileName)
	_, _ = w.Write(tpl)
}

// handleStart opens a session for the company and uploads the payload in one
// step. A structural error discards the session.
func (h *Handler) handleStart(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	companyID := chi.URLParam(r, "companyID")
	if !user.CanAccessCompany(companyID) {
		api.Fail(w, http.StatusNotFound, "company_not_found", "company not found", middleware.GetRequestID(r.Context()))
		return
	}
	if _, err := h.Service.GetCompany(companyID); err != nil {
		api.Fail(w, http.StatusNotFound, "company_not_found", "company not found", middleware.GetRequestID(r.Context()))
		return
	}
	fileName, payload, ok := h.readPayload(w, r)
	if !ok {
		return
	}

	session := h.Sessions.Open(companyID, user.UserID)
	updated, err := h.Sessions.Upload(session.ID, fileName, payload)
	if err != nil {
		h.Sessions.Discard(session.ID)
		h.writeError(w, r, err)
		return
	}
	h.recordPreview(updated)
	api.Created(w, toPreview(updated), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	if _, ok := h.loadSession(w, r, user); !ok {
		return
	}
	fileName, payload, ok := h.readPayload(w, r)
	if !ok {
		return
	}
	updated, err := h.Sessions.Upload(chi.URLParam(r, "sessionID"), fileName, payload)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.recordPreview(updated)
	api.Success(w, toPreview(updated), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	session, ok := h.loadSession(w, r, user)
	if !ok {
		return
	}
	api.Success(w, toPreview(session), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	session, ok := h.loadSession(w, r, user)
	if !ok {
		return
	}
	updated, err := h.Sessions.Reset(session.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	api.Success(w, toPreview(updated), middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleConfirm(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	session, ok := h.loadSession(w, r, user)
	if !ok {
		return
	}

	var created []core.Employee
	done, err := h.Sessions.Confirm(session.ID, func(companyID string, rows []imports.ValidRow) (int, error) {
		added, err := h.Service.ImportEmployees(r.Context(), user.UserID, companyID, imports.EmployeeInputs(companyID, rows, h.Now()))
		created = added
		return len(added), err
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	ids := make([]string, len(created))
	for i, e := range created {
		ids[i] = e.ID
	}
	shared.RecordAudit(r, h.Audit, user, done.CompanyID, "core.employee.import", "company", done.CompanyID, nil,
		map[string]any{"sessionId": done.ID, "fileName": done.FileName, "committed": done.Committed, "employeeIds": ids})
	api.Success(w, toPreview(done), middleware.GetRequestID(r.Context()))
}

// loadSession returns the session when it belongs to the caller. Other
// callers' sessions are reported as missing.
func (h *Handler) loadSession(w http.ResponseWriter, r *http.Request, user auth.UserContext) (imports.Session, bool) {
	session, err := h.Sessions.Get(chi.URLParam(r, "sessionID"))
	if err == nil && (session.ActorID != user.UserID || !user.CanAccessCompany(session.CompanyID)) {
		err = imports.ErrSessionNotFound
	}
	if err != nil {
		h.writeError(w, r, err)
		return imports.Session{}, false
	}
	return session, true
}

// readPayload accepts either a multipart form with a "file" field or a raw
// text/csv body.
func (h *Handler) readPayload(w http.ResponseWriter, r *http.Request) (string, []byte, bool) {
	requestID := middleware.GetRequestID(r.Context())
	if h.MaxBytes > 0 {
		if r.ContentLength > h.MaxBytes {
			api.Fail(w, http.StatusRequestEntityTooLarge, "payload_too_large", "import file too large", requestID)
			return "", nil, false
		}
		r.Body = http.MaxBytesReader(w, r.Body, h.MaxBytes)
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(h.MaxBytes); err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) || errors.Is(err, multipart.ErrMessageTooLarge) {
				api.Fail(w, http.StatusRequestEntityTooLarge, "payload_too_large", "import file too large", requestID)
				return "", nil, false
			}
			api.Fail(w, http.StatusBadRequest, "invalid_upload", "invalid multipart form", requestID)
			return "", nil, false
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			api.Fail(w, http.StatusBadRequest, "invalid_upload", "no file provided", requestID)
			return "", nil, false
		}
		defer file.Close()
		payload, err := io.ReadAll(file)
		if err != nil {
			api.Fail(w, http.StatusBadRequest, "invalid_upload", "failed to read file", requestID)
			return "", nil, false
		}
		return header.Filename, payload, true
	}

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			api.Fail(w, http.StatusRequestEntityTooLarge, "payload_too_large", "import file too large", requestID)
			return "", nil, false
		}
		api.Fail(w, http.StatusBadRequest, "invalid_upload", "failed to read body", requestID)
		return "", nil, false
	}
	return strings.TrimSpace(r.URL.Query().Get("fileName")), payload, true
}

func (h *Handler) recordPreview(s imports.Session) {
	if h.Metrics == nil || s.Result == nil {
		return
	}
	h.Metrics.RecordImport(len(s.Result.Valid), len(s.Result.Errors))
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	requestID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, imports.ErrMissingColumns), errors.Is(err, imports.ErrEmptyPayload):
		api.Fail(w, http.StatusBadRequest, "import_structure_error", err.Error(), requestID)
	case errors.Is(err, imports.ErrSessionNotFound):
		api.Fail(w, http.StatusNotFound, "import_session_not_found", "import session not found", requestID)
	case errors.Is(err, imports.ErrInvalidTransition):
		api.Fail(w, http.StatusConflict, "import_invalid_state", err.Error(), requestID)
	case errors.Is(err, core.ErrCompanyNotFound):
		api.Fail(w, http.StatusNotFound, "company_not_found", "company not found", requestID)
	default:
		logging.FromContext(r.Context()).Error("import request failed", "path", r.URL.Path, "err", err)
		api.Fail(w, http.StatusInternalServerError, "internal_error", "internal server error", requestID)
	}
}

func toPreview(s imports.Session) preview {
	p := preview{Session: s}
	if s.Result != nil {
		p.ValidCount = len(s.Result.Valid)
		p.InvalidCount = len(s.Result.Errors)
	}
	return p
}
