package imports

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"fitbusiness/internal/domain/core"
)

const goodCSV = "nome,email,cargo\nAna,ana@x.com,Dev\nBob,bob-at-x,QA\nCid,cid@x.com,Ops\n"

func TestSessionHappyPath(t *testing.T) {
	m := NewManager(time.Hour)
	s := m.Open("c-1", "u-1")
	require.Equal(t, StateUpload, s.State)

	s, err := m.Upload(s.ID, "people.csv", []byte(goodCSV))
	require.NoError(t, err)
	require.Equal(t, StatePreview, s.State)
	require.Len(t, s.Result.Valid, 2)
	require.Len(t, s.Result.Errors, 1)

	var committed []ValidRow
	done, err := m.Confirm(s.ID, func(companyID string, rows []ValidRow) (int, error) {
		require.Equal(t, "c-1", companyID)
		committed = rows
		return len(rows), nil
	})
	require.NoError(t, err)
	require.Equal(t, StateComplete, done.State)
	require.Equal(t, 2, done.Committed)
	require.Len(t, committed, 2)

	_, err = m.Get(s.ID)
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionStructuralErrorStaysInUpload(t *testing.T) {
	m := NewManager(time.Hour)
	s := m.Open("c-1", "u-1")

	_, err := m.Upload(s.ID, "bad.csv", []byte("nome,email\nAna,a@b.c"))
	require.ErrorIs(t, err, ErrMissingColumns)

	got, err := m.Get(s.ID)
	require.NoError(t, err)
	require.Equal(t, StateUpload, got.State)
	require.Nil(t, got.Result)
}

func TestSessionTransitions(t *testing.T) {
	m := NewManager(time.Hour)
	s := m.Open("c-1", "u-1")
	never := func(string, []ValidRow) (int, error) {
		t.Fatal("commit must not run")
		return 0, nil
	}

	_, err := m.Confirm(s.ID, never)
	require.ErrorIs(t, err, ErrInvalidTransition)

	_, err = m.Upload(s.ID, "", []byte(goodCSV))
	require.NoError(t, err)
	_, err = m.Upload(s.ID, "", []byte(goodCSV))
	require.ErrorIs(t, err, ErrInvalidTransition, "preview must be reset before a new upload")

	s, err = m.Reset(s.ID)
	require.NoError(t, err)
	require.Equal(t, StateUpload, s.State)
	require.Nil(t, s.Result)

	_, err = m.Reset("missing")
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionFailedCommitKeepsPreview(t *testing.T) {
	m := NewManager(time.Hour)
	s := m.Open("c-1", "u-1")
	_, err := m.Upload(s.ID, "", []byte(goodCSV))
	require.NoError(t, err)

	_, err = m.Confirm(s.ID, func(string, []ValidRow) (int, error) {
		return 0, core.ErrCompanyNotFound
	})
	require.True(t, errors.Is(err, core.ErrCompanyNotFound))

	got, err := m.Get(s.ID)
	require.NoError(t, err)
	require.Equal(t, StatePreview, got.State)
}

func TestSessionExpiry(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewManager(10 * time.Minute)
	m.now = func() time.Time { return now }

	s := m.Open("c-1", "u-1")
	require.Equal(t, 1, m.Len())

	now = now.Add(11 * time.Minute)
	_, err := m.Get(s.ID)
	require.ErrorIs(t, err, ErrSessionNotFound)
	require.Zero(t, m.Len())
}

func TestTemplate(t *testing.T) {
	tpl, err := Template()
	require.NoError(t, err)
	res, err := Validate(tpl)
	require.NoError(t, err)
	require.Len(t, res.Valid, 2)
	require.Empty(t, res.Errors)
	require.Equal(t, "nome,email,cargo\n", string(tpl[:len("nome,email,cargo\n")]))
}

func TestEmployeeInputsApplyDefaults(t *testing.T) {
	now := time.Date(2025, 4, 9, 17, 45, 0, 0, time.UTC)
	store := core.NewStore(core.WithClock(func() time.Time { return now }))
	c := store.AddCompany(core.CompanyInput{Name: "Acme", Sector: core.SectorRetail})

	inputs := EmployeeInputs(c.ID, []ValidRow{{Name: "Ana", Email: "ana@x.com", Title: "Dev"}}, now)
	created, err := store.BulkAddEmployees(c.ID, inputs)
	require.NoError(t, err)
	require.Len(t, created, 1)

	e := created[0]
	require.Equal(t, core.DefaultFitScore, e.FitScore)
	require.Equal(t, core.RiskMedium, e.RiskLevel)
	require.Equal(t, core.SectorRetail, e.Sector)
	require.True(t, e.AdmissionDate.Equal(time.Date(2025, 4, 9, 0, 0, 0, 0, time.UTC)))
	require.Len(t, e.History, core.HistoryMonths)
	require.NotEmpty(t, e.Avatar)
	require.Empty(t, e.Goals)
	require.NotNil(t, e.Metrics)
}

func TestSessionSweep(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewManager(10 * time.Minute)
	m.now = func() time.Time { return now }

	m.Open("c-1", "u-1")
	now = now.Add(5 * time.Minute)
	fresh := m.Open("c-1", "u-2")
	now = now.Add(6 * time.Minute)

	require.Equal(t, 1, m.Sweep())
	_, err := m.Get(fresh.ID)
	require.NoError(t, err)
	require.Zero(t, m.Sweep())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestTemplateWriteErrorsSurface(t *testing.T) {
	err := writeTemplate(failingWriter{})
	require.ErrorContains(t, err, "disk full")
}
