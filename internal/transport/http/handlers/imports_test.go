package handlers_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitbusiness/internal/domain/audit"
	"fitbusiness/internal/domain/imports"
)

type importPreview struct {
	ID           string          `json:"id"`
	CompanyID    string          `json:"companyId"`
	State        imports.State   `json:"state"`
	FileName     string          `json:"fileName"`
	Result       *imports.Result `json:"result"`
	Committed    int             `json:"committed"`
	ValidCount   int             `json:"validCount"`
	InvalidCount int             `json:"invalidCount"`
}

func (e *testEnv) uploadCSV(t *testing.T, method, path, tok, payload string) (*http.Response, envelope) {
	t.Helper()
	req, err := http.NewRequest(method, e.server.URL+path, strings.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "text/csv")
	return e.send(t, req, tok)
}

const mixedCSV = "nome,email,cargo\n" +
	"Eva Moura,eva.moura@technova.example,Analyst\n" +
	"Sem Email,,Analyst\n" +
	"Fabio Rocha,fabio.rocha@technova.example,Manager\n"

func TestImportPreviewAndConfirm(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.uploadCSV(t, http.MethodPost, "/api/v1/companies/"+env.techID+"/imports?fileName=team.csv", env.hrTok, mixedCSV)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	preview := decode[importPreview](t, body)
	assert.Equal(t, env.techID, preview.CompanyID)
	assert.Equal(t, "team.csv", preview.FileName)
	assert.Equal(t, 2, preview.ValidCount)
	assert.Equal(t, 1, preview.InvalidCount)
	require.NotNil(t, preview.Result)
	assert.Equal(t, 3, preview.Result.Errors[0].Line)

	resp, body = env.do(t, http.MethodPost, "/api/v1/imports/"+preview.ID+"/confirm", env.hrTok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	done := decode[importPreview](t, body)
	assert.Equal(t, 2, done.Committed)

	company, err := env.store.GetCompany(env.techID)
	require.NoError(t, err)
	assert.Equal(t, 4, company.TotalEmployees)

	resp, _ = env.do(t, http.MethodGet, "/api/v1/imports/"+preview.ID, env.hrTok, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	logged, err := env.auditSvc.List(t.Context(), audit.Filter{CompanyID: env.techID, Action: "core.employee.import"}, true, 0, 0)
	require.NoError(t, err)
	require.Len(t, logged, 1)
	assert.Contains(t, string(logged[0].After), "team.csv")
}

func TestImportMultipartUpload(t *testing.T) {
	env := newTestEnv(t)

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	part, err := form.CreateFormFile("file", "people.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte(mixedCSV))
	require.NoError(t, err)
	require.NoError(t, form.Close())

	req, err := http.NewRequest(http.MethodPost, env.server.URL+"/api/v1/companies/"+env.techID+"/imports", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", form.FormDataContentType())
	resp, body := env.send(t, req, env.hrTok)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	preview := decode[importPreview](t, body)
	assert.Equal(t, "people.csv", preview.FileName)
	assert.Equal(t, 2, preview.ValidCount)
}

func TestImportOversizeUploadsAre413(t *testing.T) {
	env := newTestEnv(t)
	path := "/api/v1/companies/" + env.techID + "/imports"
	big := "nome,email,cargo\n" + strings.Repeat("Eva Moura,eva.moura@technova.example,Analyst\n", (1<<20)/40)

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	part, err := form.CreateFormFile("file", "huge.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte(big))
	require.NoError(t, err)
	require.NoError(t, form.Close())

	uploads := map[string]*http.Request{
		"multipart": httptest.NewRequest(http.MethodPost, path, bytes.NewReader(buf.Bytes())),
		"raw":       httptest.NewRequest(http.MethodPost, path, strings.NewReader(big)),
	}
	uploads["multipart"].Header.Set("Content-Type", form.FormDataContentType())
	uploads["raw"].Header.Set("Content-Type", "text/csv")

	for name, req := range uploads {
		t.Run(name, func(t *testing.T) {
			req.Header.Set("Authorization", "Bearer "+env.hrTok)
			rec := httptest.NewRecorder()
			env.server.Config.Handler.ServeHTTP(rec, req)

			require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
			var body envelope
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			require.NotNil(t, body.Error)
			assert.Equal(t, "payload_too_large", body.Error.Code)
		})
	}
}

func TestImportStructureErrorDiscardsSession(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.uploadCSV(t, http.MethodPost, "/api/v1/companies/"+env.techID+"/imports", env.hrTok, "nome,telefone\nEva,123\n")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "import_structure_error", body.Error.Code)
}

func TestImportResetAndReupload(t *testing.T) {
	env := newTestEnv(t)

	_, body := env.uploadCSV(t, http.MethodPost, "/api/v1/companies/"+env.techID+"/imports", env.hrTok, mixedCSV)
	preview := decode[importPreview](t, body)

	resp, _ := env.uploadCSV(t, http.MethodPut, "/api/v1/imports/"+preview.ID, env.hrTok, mixedCSV)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, body = env.do(t, http.MethodDelete, "/api/v1/imports/"+preview.ID, env.hrTok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, imports.StateUpload, decode[importPreview](t, body).State)

	resp, _ = env.do(t, http.MethodPost, "/api/v1/imports/"+preview.ID+"/confirm", env.hrTok, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, body = env.uploadCSV(t, http.MethodPut, "/api/v1/imports/"+preview.ID, env.hrTok, "nome,email,cargo\nGil,gil@technova.example,Intern\n")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, decode[importPreview](t, body).ValidCount)
}

func TestImportSessionsArePrivate(t *testing.T) {
	env := newTestEnv(t)

	_, body := env.uploadCSV(t, http.MethodPost, "/api/v1/companies/"+env.techID+"/imports", env.hrTok, mixedCSV)
	preview := decode[importPreview](t, body)

	resp, _ := env.do(t, http.MethodPost, "/api/v1/imports/"+preview.ID+"/confirm", env.hrFerro, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = env.do(t, http.MethodPost, "/api/v1/imports/"+preview.ID+"/confirm", env.adminTok, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = env.uploadCSV(t, http.MethodPost, "/api/v1/companies/"+env.ferroID+"/imports", env.hrTok, mixedCSV)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = env.uploadCSV(t, http.MethodPost, "/api/v1/companies/"+env.techID+"/imports", env.anaTok, mixedCSV)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestImportTemplateDownload(t *testing.T) {
	env := newTestEnv(t)

	req, err := http.NewRequest(http.MethodGet, env.server.URL+"/api/v1/imports/template", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+env.hrTok)
	resp, err := env.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), imports.TemplateFileName)
}
