package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/san-kum/genlab/internal/engine"
	"github.com/san-kum/genlab/internal/export"
)

var ErrNotFound = errors.New("storage: run not found")

// Store keeps one directory per run, holding frame.png and metadata.json,
// and indexes the runs in runs.db.
type Store struct {
	baseDir string
	db      *sql.DB
}

func Open(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", filepath.Join(baseDir, "runs.db"))
	if err != nil {
		return nil, err
	}
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			generator TEXT NOT NULL,
			label TEXT,
			seed INTEGER,
			status TEXT,
			frames INTEGER,
			created_at TEXT NOT NULL
		);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("error in db execution: %w", err)
	}
	return &Store{baseDir: baseDir, db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Dir() string { return s.baseDir }

type RunMetadata struct {
	ID        string             `json:"id"`
	Generator string             `json:"generator"`
	Label     string             `json:"label"`
	Timestamp time.Time          `json:"timestamp"`
	Seed      int64              `json:"seed"`
	Status    string             `json:"status"`
	Frames    int                `json:"frames"`
	Config    any                `json:"config,omitempty"`
	Metrics   map[string]float64 `json:"metrics,omitempty"`
}

// Save writes a run directory for meta and its final frame. ID and
// Timestamp are filled in when empty.
func (s *Store) Save(meta RunMetadata, frame *engine.Frame) (string, error) {
	if meta.ID == "" {
		meta.ID = ulid.Make().String()
	}
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	if frame != nil {
		if meta.Label == "" {
			meta.Label = frame.Label
		}
		if meta.Metrics == nil {
			meta.Metrics = frame.Metrics
		}
	}

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	if frame != nil && frame.Image != nil {
		if err := imgio.Save(filepath.Join(runDir, "frame.png"), frame.Image, imgio.PNGEncoder()); err != nil {
			return "", err
		}
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	_, err = s.db.Exec(
		"INSERT INTO runs(id, generator, label, seed, status, frames, created_at) values(?, ?, ?, ?, ?, ?, ?)",
		meta.ID, meta.Generator, meta.Label, meta.Seed, meta.Status, meta.Frames, meta.Timestamp.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return "", fmt.Errorf("error in db execution: %w", err)
	}
	return meta.ID, nil
}

// List returns the indexed runs, newest first. Config and metrics live
// only in metadata.json; use Load for them.
func (s *Store) List() ([]RunMetadata, error) {
	rows, err := s.db.Query("SELECT id, generator, label, seed, status, frames, created_at FROM runs ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, fmt.Errorf("error in db execution: %w", err)
	}
	defer rows.Close()

	runs := make([]RunMetadata, 0)
	for rows.Next() {
		var (
			meta    RunMetadata
			label   sql.NullString
			status  sql.NullString
			created string
		)
		if err := rows.Scan(&meta.ID, &meta.Generator, &label, &meta.Seed, &status, &meta.Frames, &created); err != nil {
			return nil, err
		}
		meta.Label = label.String
		meta.Status = status.String
		meta.Timestamp, _ = time.Parse(time.RFC3339Nano, created)
		runs = append(runs, meta)
	}
	return runs, rows.Err()
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) LoadFrame(runID string) (image.Image, error) {
	img, err := imgio.Open(filepath.Join(s.baseDir, runID, "frame.png"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
		}
		return nil, err
	}
	return img, nil
}

// Exporter returns a PNG exporter writing into the run's directory.
func (s *Store) Exporter(runID string, scale int) *export.PNG {
	return export.NewPNG(filepath.Join(s.baseDir, runID, "images"), scale)
}

func (s *Store) Delete(runID string) error {
	res, err := s.db.Exec("DELETE FROM runs WHERE id = ?", runID)
	if err != nil {
		return fmt.Errorf("error in db execution: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, runID)
	}
	return os.RemoveAll(filepath.Join(s.baseDir, runID))
}
