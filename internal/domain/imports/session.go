package imports

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrSessionNotFound   = errors.New("import session not found")
	ErrInvalidTransition = errors.New("invalid import session transition")
)

type State string

const (
	StateUpload   State = "upload"
	StatePreview  State = "preview"
	StateComplete State = "complete"
)

// Session is one walk through the import flow for one company. Nothing is
// written to the record store before Confirm.
type Session struct {
	ID        string    `json:"id"`
	CompanyID string    `json:"companyId"`
	ActorID   string    `json:"actorId"`
	State     State     `json:"state"`
	FileName  string    `json:"fileName,omitempty"`
	Result    *Result   `json:"result,omitempty"`
	Committed int       `json:"committed"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CommitFunc persists the valid rows of a session and returns how many were written.
type CommitFunc func(companyID string, rows []ValidRow) (int, error)

// Manager holds open sessions in memory. Sessions idle longer than the TTL
// are dropped lazily on the next access.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
}

func NewManager(ttl time.Duration) *Manager {
	return &Manager{
		sessions: map[string]*Session{},
		ttl:      ttl,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Open starts a session in the Upload state.
func (m *Manager) Open(companyID, actorID string) Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expireLocked()

	now := m.now()
	s := &Session{
		ID:        uuid.NewString(),
		CompanyID: companyID,
		ActorID:   actorID,
		State:     StateUpload,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.sessions[s.ID] = s
	return *s
}

// Upload validates the payload and moves the session to Preview. A structural
// error leaves the session in Upload.
func (m *Manager) Upload(id, fileName string, payload []byte) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.getLocked(id)
	if err != nil {
		return Session{}, err
	}
	if s.State != StateUpload {
		return Session{}, fmt.Errorf("%w: upload from %s", ErrInvalidTransition, s.State)
	}
	result, err := Validate(payload)
	if err != nil {
		return Session{}, err
	}
	s.Result = &result
	s.FileName = fileName
	s.State = StatePreview
	s.UpdatedAt = m.now()
	return *s, nil
}

// Reset discards the preview and returns the session to Upload.
func (m *Manager) Reset(id string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.getLocked(id)
	if err != nil {
		return Session{}, err
	}
	s.Result = nil
	s.FileName = ""
	s.State = StateUpload
	s.UpdatedAt = m.now()
	return *s, nil
}

// Confirm commits the valid rows of a previewed session, reaches Complete and
// closes the session. A failed commit leaves the session in Preview.
func (m *Manager) Confirm(id string, commit CommitFunc) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.getLocked(id)
	if err != nil {
		return Session{}, err
	}
	if s.State != StatePreview || s.Result == nil {
		return Session{}, fmt.Errorf("%w: confirm from %s", ErrInvalidTransition, s.State)
	}
	written, err := commit(s.CompanyID, s.Result.Valid)
	if err != nil {
		return Session{}, err
	}
	s.Committed = written
	s.State = StateComplete
	s.UpdatedAt = m.now()
	delete(m.sessions, id)
	return *s, nil
}

func (m *Manager) Get(id string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.getLocked(id)
	if err != nil {
		return Session{}, err
	}
	return *s, nil
}

// Discard drops a session regardless of state.
func (m *Manager) Discard(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expireLocked()
	return len(m.sessions)
}

// Sweep drops expired sessions and reports how many were removed.
func (m *Manager) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	before := len(m.sessions)
	m.expireLocked()
	return before - len(m.sessions)
}

func (m *Manager) getLocked(id string) (*Session, error) {
	m.expireLocked()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func (m *Manager) expireLocked() {
	if m.ttl <= 0 {
		return
	}
	cutoff := m.now().Add(-m.ttl)
	for id, s := range m.sessions {
		if s.UpdatedAt.Before(cutoff) {
			delete(m.sessions, id)
		}
	}
}
