package tracklog

import (
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/relabs-tech/visual_inertial/internal/engine"
	"github.com/relabs-tech/visual_inertial/internal/landmarks"
)

// DB persists fused path points and landmark snapshots. Persistence
// is a collaborator concern; the engine only hands out in-memory
// snapshots.
type DB struct {
	*sql.DB
}

//go:embed schema.sql
var schemaSQL string

// Open opens (creating if needed) the track database at path and
// applies the schema.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("tracklog: open %s: %w", path, err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("tracklog: apply schema: %w", err)
	}
	return &DB{db}, nil
}

// BeginSession registers a new tracking session and returns its id.
func (d *DB) BeginSession(description string, startedAt time.Time) (string, error) {
	id := uuid.NewString()
	_, err := d.Exec(
		`INSERT INTO session (session_id, started_at, description) VALUES (?, ?, ?)`,
		id, startedAt.UnixNano(), description,
	)
	if err != nil {
		return "", fmt.Errorf("tracklog: begin session: %w", err)
	}
	return id, nil
}

// InsertPathPoint appends one fused path point for the session.
func (d *DB) InsertPathPoint(sessionID string, p engine.PathPoint) error {
	_, err := d.Exec(
		`INSERT INTO path_point (session_id, step, x, y, at_unix_nanos) VALUES (?, ?, ?, ?, ?)`,
		sessionID, p.Step, p.X, p.Y, p.Time.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("tracklog: insert path point: %w", err)
	}
	return nil
}

// InsertLandmarkSnapshot stores the full landmark set at a point in
// time, in one transaction.
func (d *DB) InsertLandmarkSnapshot(sessionID string, marks []landmarks.Landmark, at time.Time) error {
	tx, err := d.Begin()
	if err != nil {
		return fmt.Errorf("tracklog: begin snapshot tx: %w", err)
	}
	stmt, err := tx.Prepare(
		`INSERT INTO landmark_snapshot (session_id, landmark_id, x, y, quality, at_unix_nanos) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("tracklog: prepare snapshot: %w", err)
	}
	defer stmt.Close()

	nanos := at.UnixNano()
	for _, lm := range marks {
		if _, err := stmt.Exec(sessionID, lm.ID, lm.X, lm.Y, lm.Quality, nanos); err != nil {
			tx.Rollback()
			return fmt.Errorf("tracklog: insert landmark %d: %w", lm.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("tracklog: commit snapshot: %w", err)
	}
	return nil
}

// PathPoints returns the session's path in step order.
func (d *DB) PathPoints(sessionID string) ([]engine.PathPoint, error) {
	rows, err := d.Query(
		`SELECT step, x, y, at_unix_nanos FROM path_point WHERE session_id = ? ORDER BY step`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("tracklog: query path: %w", err)
	}
	defer rows.Close()

	var out []engine.PathPoint
	for rows.Next() {
		var p engine.PathPoint
		var nanos int64
		if err := rows.Scan(&p.Step, &p.X, &p.Y, &nanos); err != nil {
			return nil, fmt.Errorf("tracklog: scan path point: %w", err)
		}
		p.Time = time.Unix(0, nanos)
		out = append(out, p)
	}
	return out, rows.Err()
}

// LatestLandmarks returns the most recent landmark snapshot for the
// session.
func (d *DB) LatestLandmarks(sessionID string) ([]landmarks.Landmark, error) {
	rows, err := d.Query(
		`SELECT landmark_id, x, y, quality FROM landmark_snapshot
		 WHERE session_id = ?
		   AND at_unix_nanos = (SELECT MAX(at_unix_nanos) FROM landmark_snapshot WHERE session_id = ?)
		 ORDER BY landmark_id`,
		sessionID, sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("tracklog: query landmarks: %w", err)
	}
	defer rows.Close()

	var out []landmarks.Landmark
	for rows.Next() {
		var lm landmarks.Landmark
		if err := rows.Scan(&lm.ID, &lm.X, &lm.Y, &lm.Quality); err != nil {
			return nil, fmt.Errorf("tracklog: scan landmark: %w", err)
		}
		out = append(out, lm)
	}
	return out, rows.Err()
}

// Sessions lists known session ids, newest first.
func (d *DB) Sessions() ([]string, error) {
	rows, err := d.Query(`SELECT session_id FROM session ORDER BY started_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("tracklog: query sessions: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("tracklog: scan session: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
