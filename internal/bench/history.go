package bench

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Run is one row of the history table.
type Run struct {
	ID         string
	Instance   string
	Mode       string
	Robots     int // 0 when the run had no robot count
	Seconds    float64
	PlanLength int
	RecordedAt time.Time
}

// History keeps every benchmark run in a sqlite database.
type History struct {
	db *sql.DB
	mu sync.Mutex
}

// OpenHistory creates or opens the history database at path.
func OpenHistory(path string) (*History, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	h := &History{db: db}
	if err := h.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return h, nil
}

func (h *History) initSchema() error {
	_, err := h.db.Exec(`
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		instance TEXT NOT NULL,
		mode TEXT NOT NULL,
		robots INTEGER,
		seconds REAL NOT NULL,
		plan_length INTEGER NOT NULL,
		recorded_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_runs_instance ON runs(instance);
	`)
	return err
}

// Close closes the database connection.
func (h *History) Close() error {
	return h.db.Close()
}

// Add stores s and returns its run id.
func (h *History) Add(s Sample) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var robots sql.NullInt64
	if s.Robots > 0 {
		robots = sql.NullInt64{Int64: int64(s.Robots), Valid: true}
	}

	id := uuid.NewString()
	_, err := h.db.Exec(`
		INSERT INTO runs (id, instance, mode, robots, seconds, plan_length, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, id, s.Instance, s.Mode, robots, s.Elapsed.Seconds(), s.PlanLength, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("failed to record run: %w", err)
	}
	return id, nil
}

// Runs returns the recorded runs for instance, oldest first. An empty
// instance returns every run.
func (h *History) Runs(instance string) ([]Run, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	query := `SELECT id, instance, mode, robots, seconds, plan_length, recorded_at FROM runs`
	var args []interface{}
	if instance != "" {
		query += ` WHERE instance = ?`
		args = append(args, instance)
	}
	query += ` ORDER BY recorded_at, rowid`

	rows, err := h.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var robots sql.NullInt64
		if err := rows.Scan(&r.ID, &r.Instance, &r.Mode, &robots, &r.Seconds, &r.PlanLength, &r.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.Robots = int(robots.Int64)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
