package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Session status constants.
const (
	SessionStatusActive    = "active"
	SessionStatusCompleted = "completed"
	SessionStatusFailed    = "failed"
)

// Session is one catalogued record or replay run.
type Session struct {
	ID         string     `json:"id"`
	Mode       string     `json:"mode"`
	LogPath    string     `json:"logPath,omitempty"`
	Status     string     `json:"status"`
	StartedAt  time.Time  `json:"startedAt"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
	Events     int64      `json:"events"`
	Bytes      int64      `json:"bytes"`
	Error      string     `json:"error,omitempty"`
}

// CreateSession inserts an active session.
func (s *Store) CreateSession(session *Session) error {
	if s == nil || s.db == nil {
		return ErrStoreClosed
	}
	if strings.TrimSpace(session.ID) == "" {
		return fmt.Errorf("session id cannot be empty")
	}
	status := strings.TrimSpace(strings.ToLower(session.Status))
	if status == "" {
		status = SessionStatusActive
	}
	started := session.StartedAt
	if started.IsZero() {
		started = time.Now()
	}

	err := withRetry(func() error {
		_, err := s.db.Exec(`
			INSERT INTO sessions (session_id, mode, log_path, status, started_at, events, bytes, error)
			VALUES (?, ?, ?, ?, ?, 0, 0, '')
		`, session.ID, session.Mode, session.LogPath, status, started.UTC())
		return err
	})
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}

	clone := *session
	clone.Status, clone.StartedAt = status, started
	s.notify(newEvent(EventSessionCreated, session.ID, clone))
	return nil
}

// FinishSession records the outcome of a session. A non-nil runErr marks it
// failed regardless of status.
func (s *Store) FinishSession(id, status string, events, bytes int64, runErr error) error {
	if s == nil || s.db == nil {
		return ErrStoreClosed
	}
	if status == "" {
		status = SessionStatusCompleted
	}
	var msg string
	if runErr != nil {
		status, msg = SessionStatusFailed, runErr.Error()
	}
	now := time.Now().UTC()

	var res sql.Result
	err := withRetry(func() error {
		var err error
		res, err = s.db.Exec(`
			UPDATE sessions SET status = ?, finished_at = ?, events = ?, bytes = ?, error = ?
			WHERE session_id = ?
		`, status, now, events, bytes, msg, id)
		return err
	})
	if err != nil {
		return fmt.Errorf("finish session: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("finish session %s: %w", id, sql.ErrNoRows)
	}

	s.notify(newEvent(EventSessionFinished, id, map[string]any{
		"status": status,
		"events": events,
		"bytes":  bytes,
	}))
	return nil
}

const sessionColumns = `session_id, mode, log_path, status, started_at, finished_at, events, bytes, error`

func scanSession(row interface{ Scan(...any) error }) (*Session, error) {
	var session Session
	var finished sql.NullTime
	if err := row.Scan(
		&session.ID,
		&session.Mode,
		&session.LogPath,
		&session.Status,
		&session.StartedAt,
		&finished,
		&session.Events,
		&session.Bytes,
		&session.Error,
	); err != nil {
		return nil, err
	}
	if finished.Valid {
		t := finished.Time
		session.FinishedAt = &t
	}
	return &session, nil
}

// GetSession returns the session with id, or nil if there is none.
func (s *Store) GetSession(id string) (*Session, error) {
	if s == nil || s.db == nil {
		return nil, ErrStoreClosed
	}
	session, err := scanSession(s.db.QueryRow(`SELECT `+sessionColumns+` FROM sessions WHERE session_id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return session, nil
}

// ListSessions returns the most recently started sessions first. A limit of
// zero or less returns all of them.
func (s *Store) ListSessions(limit int) ([]Session, error) {
	if s == nil || s.db == nil {
		return nil, ErrStoreClosed
	}
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(`SELECT `+sessionColumns+` FROM sessions ORDER BY started_at DESC, session_id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, *session)
	}
	return out, rows.Err()
}

// DeleteSession removes a session from the catalog. The log file is left alone.
func (s *Store) DeleteSession(id string) error {
	if s == nil || s.db == nil {
		return ErrStoreClosed
	}
	if err := withRetry(func() error {
		_, err := s.db.Exec(`DELETE FROM sessions WHERE session_id = ?`, id)
		return err
	}); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	s.notify(newEvent(EventSessionDeleted, id, nil))
	return nil
}
