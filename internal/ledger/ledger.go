// Package ledger records captured frames and compiled days in SQLite.
//
// The ledger is the artifact-level idempotence record for the video
// compiler and the source of the frame counts reported by the control
// channel. Photographs themselves live on disk.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Frame is one captured photograph.
type Frame struct {
	ID         uuid.UUID
	Day        string // YYYY-MM-DD in local time
	Path       string
	CapturedAt time.Time
}

// Compilation is one compiled daily video.
type Compilation struct {
	Day        string
	VideoPath  string
	Frames     int
	CompiledAt time.Time
}

// Ledger is a SQLite backed record of frames and compilations.
type Ledger struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens (and migrates) the ledger at path. ":memory:" is accepted.
func Open(path string) (*Ledger, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single connection keeps ":memory:" databases coherent and serialises writers.
	db.SetMaxOpenConns(1)

	l := &Ledger{db: db}
	if err := l.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return l, nil
}

func (l *Ledger) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS frames (
		id TEXT PRIMARY KEY,
		day TEXT NOT NULL,
		path TEXT NOT NULL UNIQUE,
		captured_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_frames_day ON frames(day);
	CREATE TABLE IF NOT EXISTS compilations (
		day TEXT PRIMARY KEY,
		video_path TEXT NOT NULL,
		frames INTEGER NOT NULL,
		compiled_at INTEGER NOT NULL
	);
	`
	_, err := l.db.Exec(schema)
	return err
}

// DayKey formats t as the ledger's day key.
func DayKey(t time.Time) string {
	return t.Format(time.DateOnly)
}

// RecordFrame stores a captured frame.
func (l *Ledger) RecordFrame(ctx context.Context, f Frame) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	if f.Day == "" {
		f.Day = DayKey(f.CapturedAt)
	}
	_, err := l.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO frames (id, day, path, captured_at) VALUES (?, ?, ?, ?)",
		f.ID.String(), f.Day, f.Path, f.CapturedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert frame: %w", err)
	}
	return nil
}

// ForgetFrame removes a frame by path, used after pruning deletes a file.
func (l *Ledger) ForgetFrame(ctx context.Context, path string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.db.ExecContext(ctx, "DELETE FROM frames WHERE path = ?", path); err != nil {
		return fmt.Errorf("delete frame: %w", err)
	}
	return nil
}

// FramesForDay returns the frames of a day ordered by capture time.
func (l *Ledger) FramesForDay(ctx context.Context, day time.Time) ([]Frame, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	rows, err := l.db.QueryContext(ctx,
		"SELECT id, day, path, captured_at FROM frames WHERE day = ? ORDER BY captured_at",
		DayKey(day),
	)
	if err != nil {
		return nil, fmt.Errorf("query frames: %w", err)
	}
	defer rows.Close()

	var frames []Frame
	for rows.Next() {
		var (
			f      Frame
			id     string
			takenN int64
		)
		if err := rows.Scan(&id, &f.Day, &f.Path, &takenN); err != nil {
			return nil, fmt.Errorf("scan frame: %w", err)
		}
		if f.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse frame id: %w", err)
		}
		f.CapturedAt = time.Unix(0, takenN)
		frames = append(frames, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return frames, nil
}

// CountFrames returns the number of frames recorded for a day.
func (l *Ledger) CountFrames(ctx context.Context, day time.Time) (int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var n int
	err := l.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM frames WHERE day = ?", DayKey(day)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count frames: %w", err)
	}
	return n, nil
}

// MarkCompiled records a compiled day.
func (l *Ledger) MarkCompiled(ctx context.Context, c Compilation) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if c.CompiledAt.IsZero() {
		c.CompiledAt = time.Now()
	}
	_, err := l.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO compilations (day, video_path, frames, compiled_at) VALUES (?, ?, ?, ?)",
		c.Day, c.VideoPath, c.Frames, c.CompiledAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert compilation: %w", err)
	}
	return nil
}

// Compiled returns the compilation of a day, if any.
func (l *Ledger) Compiled(ctx context.Context, day time.Time) (*Compilation, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.scanCompilation(l.db.QueryRowContext(ctx,
		"SELECT day, video_path, frames, compiled_at FROM compilations WHERE day = ?", DayKey(day)))
}

// LastCompiled returns the most recent compiled day, if any.
func (l *Ledger) LastCompiled(ctx context.Context) (*Compilation, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.scanCompilation(l.db.QueryRowContext(ctx,
		"SELECT day, video_path, frames, compiled_at FROM compilations ORDER BY day DESC LIMIT 1"))
}

func (l *Ledger) scanCompilation(row *sql.Row) (*Compilation, error) {
	var (
		c  Compilation
		at int64
	)
	err := row.Scan(&c.Day, &c.VideoPath, &c.Frames, &at)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan compilation: %w", err)
	}
	c.CompiledAt = time.Unix(at, 0)
	return &c, nil
}

// Close closes the database.
func (l *Ledger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.db.Close()
}
