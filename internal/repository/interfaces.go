package repository

import (
	"errors"
	"time"

	"pneumoscan/internal/models"
)

// ErrNotFound is returned when no session exists for an ID.
var ErrNotFound = errors.New("session not found")

// SessionRepository stores per-browser UI state.
type SessionRepository interface {
	// Read operations
	Get(id string) (*models.Session, error)
	Count() (int, error)

	// Write operations
	Save(session *models.Session) error

	// Delete operations
	Delete(id string) error
	DeleteExpired(before time.Time) ([]string, error)
}
