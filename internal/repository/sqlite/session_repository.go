package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"pneumoscan/internal/models"
	"pneumoscan/internal/repository"
)

// SessionRepository implements repository.SessionRepository for SQLite.
type SessionRepository struct {
	db *DB
}

// NewSessionRepository creates a new SQLite session repository.
func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Get retrieves a session by its ID.
func (r *SessionRepository) Get(id string) (*models.Session, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var (
		session    models.Session
		result     sql.NullString
		uploadName sql.NullString
		uploadType sql.NullString
		uploadData []byte
		updatedAt  int64
	)
	err := r.db.Conn().QueryRow(`
		SELECT id, screen, result, upload_name, upload_type, upload_data, error, updated_at
		FROM sessions WHERE id = ?
	`, id).Scan(&session.ID, &session.Screen, &result, &uploadName, &uploadType, &uploadData, &session.Error, &updatedAt)

	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	if result.Valid && result.String != "" {
		var pr models.PredictionResult
		if err := json.Unmarshal([]byte(result.String), &pr); err != nil {
			return nil, fmt.Errorf("failed to decode stored result: %w", err)
		}
		session.Result = &pr
	}
	if uploadName.Valid || len(uploadData) > 0 {
		session.Upload = &models.Upload{
			FileName:    uploadName.String,
			ContentType: uploadType.String,
			Data:        uploadData,
		}
	}
	session.UpdatedAt = time.Unix(0, updatedAt)

	return &session, nil
}

// Count returns the number of stored sessions.
func (r *SessionRepository) Count() (int, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var count int
	if err := r.db.Conn().QueryRow(`SELECT COUNT(*) FROM sessions`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return count, nil
}

// Save inserts or replaces a session row.
func (r *SessionRepository) Save(session *models.Session) error {
	var result sql.NullString
	if session.Result != nil {
		data, err := json.Marshal(session.Result)
		if err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
		result = sql.NullString{String: string(data), Valid: true}
	}

	var uploadName, uploadType sql.NullString
	var uploadData []byte
	if session.Upload != nil {
		uploadName = sql.NullString{String: session.Upload.FileName, Valid: true}
		uploadType = sql.NullString{String: session.Upload.ContentType, Valid: true}
		uploadData = session.Upload.Data
	}

	r.db.Lock()
	defer r.db.Unlock()

	_, err := r.db.Conn().Exec(`
		INSERT INTO sessions (id, screen, result, upload_name, upload_type, upload_data, error, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			screen = excluded.screen,
			result = excluded.result,
			upload_name = excluded.upload_name,
			upload_type = excluded.upload_type,
			upload_data = excluded.upload_data,
			error = excluded.error,
			updated_at = excluded.updated_at
	`, session.ID, string(session.Screen), result, uploadName, uploadType, uploadData, session.Error, session.UpdatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Delete removes a session by its ID.
func (r *SessionRepository) Delete(id string) error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().Exec(`DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteExpired removes sessions last updated before the cutoff in one
// transaction and returns their IDs.
func (r *SessionRepository) DeleteExpired(before time.Time) ([]string, error) {
	r.db.Lock()
	defer r.db.Unlock()

	tx, err := r.db.Conn().Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.Query(`SELECT id FROM sessions WHERE updated_at < ?`, before.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("failed to query expired sessions: %w", err)
	}

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan session id: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()

	if _, err := tx.Exec(`DELETE FROM sessions WHERE updated_at < ?`, before.UnixNano()); err != nil {
		return nil, fmt.Errorf("failed to delete expired sessions: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}
	return ids, nil
}
