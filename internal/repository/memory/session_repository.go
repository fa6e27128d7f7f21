package memory

import (
	"sync"
	"time"

	"pneumoscan/internal/models"
	"pneumoscan/internal/repository"
)

// SessionRepository keeps sessions in process memory. Values are cloned on
// the way in and out so callers never share state with the store.
type SessionRepository struct {
	sessions map[string]*models.Session
	mu       sync.RWMutex
}

// NewSessionRepository creates an empty in-memory repository.
func NewSessionRepository() *SessionRepository {
	return &SessionRepository{sessions: make(map[string]*models.Session)}
}

// Get returns a copy of the session or repository.ErrNotFound.
func (r *SessionRepository) Get(id string) (*models.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return session.Clone(), nil
}

// Count returns the number of stored sessions.
func (r *SessionRepository) Count() (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions), nil
}

// Save inserts or replaces a session.
func (r *SessionRepository) Save(session *models.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.ID] = session.Clone()
	return nil
}

// Delete removes a session; unknown IDs are ignored.
func (r *SessionRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	return nil
}

// DeleteExpired removes sessions last updated before the cutoff and returns
// their IDs.
func (r *SessionRepository) DeleteExpired(before time.Time) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed []string
	for id, session := range r.sessions {
		if session.UpdatedAt.Before(before) {
			delete(r.sessions, id)
			removed = append(removed, id)
		}
	}
	return removed, nil
}
