// Package stats persists per-frame processing statistics to SQLite.
package stats

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"edge-video-processing/internal/metrics"
)

// RunInfo describes one invocation of the processing loop.
type RunInfo struct {
	Source    string
	Output    string
	Width     int
	Height    int
	SourceFPS float64
}

// FrameRecord is one processed frame.
type FrameRecord struct {
	Index      int
	BlurRadius int
	Threshold  int
	Min        float64
	Max        float64
	Effective  float64
	Metrics    map[string]float64
	Duration   time.Duration
}

// Recorder writes runs and frames into a SQLite database.
type Recorder struct {
	db     *sql.DB
	runID  string
	insert *sql.Stmt
}

const schema = `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		output TEXT,
		width INTEGER,
		height INTEGER,
		source_fps REAL,
		started_at TEXT
	);
	CREATE TABLE IF NOT EXISTS frames (
		run_id TEXT NOT NULL REFERENCES runs(id),
		frame_index INTEGER NOT NULL,
		blur_radius INTEGER,
		threshold INTEGER,
		min_value REAL,
		max_value REAL,
		effective_threshold REAL,
		edge_density REAL,
		mean_magnitude REAL,
		energy_retained REAL,
		duration_us INTEGER,
		PRIMARY KEY (run_id, frame_index)
	);
	CREATE INDEX IF NOT EXISTS idx_frames_run ON frames(run_id);`

// Frames are inserted from the processing loop, one commit each. WAL with
// NORMAL sync keeps those commits off the fsync path.
const dsnOptions = "?_journal_mode=WAL&_synchronous=NORMAL"

// Open initializes the database at path and returns a recorder
func Open(path string) (*Recorder, error) {
	db, err := sql.Open("sqlite3", path+dsnOptions)
	if err != nil {
		return nil, fmt.Errorf("open stats database %s: %w", path, err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create stats schema in %s: %w", path, err)
	}

	return &Recorder{db: db}, nil
}

// BeginRun stores the run row and assigns the run a fresh identifier.
// Frames recorded afterwards belong to this run.
func (r *Recorder) BeginRun(info RunInfo) error {
	id := uuid.NewString()

	_, err := r.db.Exec(
		`INSERT INTO runs (id, source, output, width, height, source_fps, started_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, info.Source, info.Output, info.Width, info.Height, info.SourceFPS, time.Now().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("cannot insert run for %s: %w", info.Source, err)
	}

	stmt, err := r.db.Prepare(`
		INSERT INTO frames (
			run_id, frame_index, blur_radius, threshold, min_value, max_value,
			effective_threshold, edge_density, mean_magnitude, energy_retained, duration_us
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("cannot prepare frame statement: %w", err)
	}

	if r.insert != nil {
		r.insert.Close()
	}
	r.insert = stmt
	r.runID = id
	return nil
}

// RunID returns the identifier of the current run, empty before BeginRun.
func (r *Recorder) RunID() string {
	return r.runID
}

// RecordFrame stores one frame of the current run.
func (r *Recorder) RecordFrame(f FrameRecord) error {
	if r.insert == nil {
		return fmt.Errorf("no run started")
	}

	_, err := r.insert.Exec(
		r.runID,
		f.Index,
		f.BlurRadius,
		f.Threshold,
		f.Min,
		f.Max,
		f.Effective,
		f.Metrics[metrics.MetricEdgeDensity],
		f.Metrics[metrics.MetricMeanMagnitude],
		f.Metrics[metrics.MetricEnergyRetained],
		f.Duration.Microseconds(),
	)
	if err != nil {
		return fmt.Errorf("cannot insert frame %d: %w", f.Index, err)
	}
	return nil
}

// FrameCount returns how many frames the current run has recorded.
func (r *Recorder) FrameCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM frames WHERE run_id = ?", r.runID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count frames: %w", err)
	}
	return count, nil
}

// Close closes the database
func (r *Recorder) Close() error {
	if r.insert != nil {
		r.insert.Close()
	}
	return r.db.Close()
}
