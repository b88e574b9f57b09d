package store

import (
	"database/sql"
	"errors"
	"image"
	"time"

	"github.com/google/uuid"
)

// Session records one run of a demo.
type Session struct {
	ID        string     `json:"id"`
	Demo      string     `json:"demo"`
	Source    string     `json:"source"`
	Frames    int        `json:"frames"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

// Selection is a region the user chose as a tracking target.
type Selection struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"session_id"`
	X         int       `json:"x"`
	Y         int       `json:"y"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	CreatedAt time.Time `json:"created_at"`
}

// Rect returns the selection as an image.Rectangle.
func (s Selection) Rect() image.Rectangle {
	return image.Rect(s.X, s.Y, s.X+s.Width, s.Y+s.Height)
}

// SessionRepository provides operations on sessions and their selections.
type SessionRepository struct {
	db *sql.DB
}

// Sessions returns the session repository for this store.
func (s *Store) Sessions() *SessionRepository {
	return &SessionRepository{db: s.db}
}

// Start inserts a new session for demo reading from source.
func (r *SessionRepository) Start(demo, source string) (*Session, error) {
	sess := &Session{
		ID:        uuid.NewString(),
		Demo:      demo,
		Source:    source,
		StartedAt: time.Now().UTC(),
	}

	_, err := r.db.Exec(
		`INSERT INTO sessions (id, demo, source, frames, started_at) VALUES (?, ?, ?, 0, ?)`,
		sess.ID, sess.Demo, sess.Source, sess.StartedAt,
	)
	if err != nil {
		return nil, err
	}

	return sess, nil
}

// Finish records the frame count and end time of a session.
func (r *SessionRepository) Finish(id string, frames int) error {
	res, err := r.db.Exec(
		`UPDATE sessions SET frames = ?, ended_at = ? WHERE id = ?`,
		frames, time.Now().UTC(), id,
	)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Get retrieves a session by ID.
func (r *SessionRepository) Get(id string) (*Session, error) {
	row := r.db.QueryRow(
		`SELECT id, demo, source, frames, started_at, ended_at FROM sessions WHERE id = ?`,
		id,
	)

	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return sess, err
}

// List returns up to limit sessions, most recent first.
func (r *SessionRepository) List(limit int) ([]Session, error) {
	rows, err := r.db.Query(
		`SELECT id, demo, source, frames, started_at, ended_at
		 FROM sessions
		 ORDER BY started_at DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *sess)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sessions, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*Session, error) {
	var sess Session
	var ended sql.NullTime
	if err := row.Scan(&sess.ID, &sess.Demo, &sess.Source, &sess.Frames, &sess.StartedAt, &ended); err != nil {
		return nil, err
	}
	if ended.Valid {
		t := ended.Time
		sess.EndedAt = &t
	}
	return &sess, nil
}

// AddSelection records a tracking target chosen during a session.
func (r *SessionRepository) AddSelection(sessionID string, rect image.Rectangle) (*Selection, error) {
	sel := &Selection{
		SessionID: sessionID,
		X:         rect.Min.X,
		Y:         rect.Min.Y,
		Width:     rect.Dx(),
		Height:    rect.Dy(),
		CreatedAt: time.Now().UTC(),
	}

	res, err := r.db.Exec(
		`INSERT INTO selections (session_id, x, y, width, height, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		sel.SessionID, sel.X, sel.Y, sel.Width, sel.Height, sel.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	sel.ID, err = res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return sel, nil
}

// Selections returns all selections for a session in the order they were made.
func (r *SessionRepository) Selections(sessionID string) ([]Selection, error) {
	rows, err := r.db.Query(
		`SELECT id, session_id, x, y, width, height, created_at
		 FROM selections
		 WHERE session_id = ?
		 ORDER BY id`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var selections []Selection
	for rows.Next() {
		var sel Selection
		if err := rows.Scan(&sel.ID, &sel.SessionID, &sel.X, &sel.Y, &sel.Width, &sel.Height, &sel.CreatedAt); err != nil {
			return nil, err
		}
		selections = append(selections, sel)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return selections, nil
}
