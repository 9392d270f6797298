package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/thumbstick/internal/hand"
	"github.com/ayusman/thumbstick/internal/tracking"
)

// Recording is a stored tracking session.
type Recording struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Frames    int           `json:"frames"`
	Duration  time.Duration `json:"duration_ns"`
	CreatedAt time.Time     `json:"created_at"`
}

// RecordingRepository stores recordings and their frames.
type RecordingRepository struct {
	db *sql.DB
}

// Recordings returns the recording repository for this store.
func (s *Store) Recordings() *RecordingRepository {
	return &RecordingRepository{db: s.db}
}

// Create inserts an empty recording, assigning an ID when rec has none.
func (r *RecordingRepository) Create(rec *Recording) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	rec.CreatedAt = time.Now()
	rec.Frames = 0
	rec.Duration = 0

	_, err := r.db.Exec(
		`INSERT INTO recordings (id, name, frames, duration_ms, created_at) VALUES (?, ?, 0, 0, ?)`,
		rec.ID, rec.Name, rec.CreatedAt,
	)
	return err
}

// AppendFrames adds frames after the existing ones in a single
// transaction and updates the frame count and duration.
func (r *RecordingRepository) AppendFrames(recordingID string, frames []tracking.Frame) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var count int
	var durationMs int64
	err = tx.QueryRow(`SELECT frames, duration_ms FROM recordings WHERE id = ?`, recordingID).
		Scan(&count, &durationMs)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}

	stmt, err := tx.Prepare(
		`INSERT INTO recording_frames (recording_id, sequence, offset_ms, data) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, f := range frames {
		data, err := json.Marshal(f.Update)
		if err != nil {
			return err
		}
		offset := f.Offset.Milliseconds()
		if _, err := stmt.Exec(recordingID, count+i, offset, string(data)); err != nil {
			return err
		}
		if offset > durationMs {
			durationMs = offset
		}
	}

	_, err = tx.Exec(`UPDATE recordings SET frames = ?, duration_ms = ? WHERE id = ?`,
		count+len(frames), durationMs, recordingID)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// Frames returns a recording's frames in order.
func (r *RecordingRepository) Frames(recordingID string) ([]tracking.Frame, error) {
	if _, err := r.GetByID(recordingID); err != nil {
		return nil, err
	}

	rows, err := r.db.Query(
		`SELECT offset_ms, data FROM recording_frames WHERE recording_id = ? ORDER BY sequence`,
		recordingID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var frames []tracking.Frame
	for rows.Next() {
		var offsetMs int64
		var data string
		if err := rows.Scan(&offsetMs, &data); err != nil {
			return nil, err
		}
		var u hand.Update
		if err := json.Unmarshal([]byte(data), &u); err != nil {
			return nil, err
		}
		frames = append(frames, tracking.Frame{
			Offset: time.Duration(offsetMs) * time.Millisecond,
			Update: u,
		})
	}
	return frames, rows.Err()
}

// GetByID retrieves a recording by its ID.
func (r *RecordingRepository) GetByID(id string) (*Recording, error) {
	rec := &Recording{}
	var durationMs int64
	err := r.db.QueryRow(
		`SELECT id, name, frames, duration_ms, created_at FROM recordings WHERE id = ?`, id,
	).Scan(&rec.ID, &rec.Name, &rec.Frames, &durationMs, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	rec.Duration = time.Duration(durationMs) * time.Millisecond
	return rec, nil
}

// List retrieves all recordings, newest first.
func (r *RecordingRepository) List() ([]*Recording, error) {
	rows, err := r.db.Query(
		`SELECT id, name, frames, duration_ms, created_at FROM recordings ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []*Recording
	for rows.Next() {
		rec := &Recording{}
		var durationMs int64
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Frames, &durationMs, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.Duration = time.Duration(durationMs) * time.Millisecond
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// Delete removes a recording and its frames.
func (r *RecordingRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM recordings WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkAffected(result)
}
