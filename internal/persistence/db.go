// Package persistence records simulation runs to SQLite for later analysis.
// It stores per-step statistics only; simulation state is never restored.
package persistence

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/peter-principle/internal/engine"
)

// DB wraps a SQLite connection for run history.
type DB struct {
	conn *sqlx.DB
}

// Run describes one recorded simulation run.
type Run struct {
	ID           string    `db:"id" json:"id"`
	Strategy     string    `db:"strategy" json:"strategy"`
	Transmission string    `db:"transmission" json:"transmission"`
	Seed         int64     `db:"seed" json:"seed"`
	StartedAt    time.Time `db:"started_at" json:"started_at"`
}

// StepRow is one recorded step.
type StepRow struct {
	RunID      string  `db:"run_id" json:"run_id"`
	Step       uint64  `db:"step" json:"step"`
	Efficiency float64 `db:"efficiency" json:"efficiency"`
	Alive      int     `db:"alive" json:"alive"`
	Dismissed  int     `db:"dismissed" json:"dismissed"`
	Retired    int     `db:"retired" json:"retired"`
	Promoted   int     `db:"promoted" json:"promoted"`
	Hired      int     `db:"hired" json:"hired"`
	LevelsJSON string  `db:"levels_json" json:"-"`
}

// Levels decodes the per-level summary stored with the step.
func (r StepRow) Levels() ([]engine.LevelSummary, error) {
	var out []engine.LevelSummary
	if r.LevelsJSON == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(r.LevelsJSON), &out); err != nil {
		return nil, fmt.Errorf("decode levels for step %d: %w", r.Step, err)
	}
	return out, nil
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		strategy TEXT NOT NULL,
		transmission TEXT NOT NULL,
		seed INTEGER NOT NULL,
		started_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS steps (
		run_id TEXT NOT NULL REFERENCES runs(id),
		step INTEGER NOT NULL,
		efficiency REAL NOT NULL,
		alive INTEGER NOT NULL,
		dismissed INTEGER NOT NULL,
		retired INTEGER NOT NULL,
		promoted INTEGER NOT NULL,
		hired INTEGER NOT NULL,
		levels_json TEXT NOT NULL,
		PRIMARY KEY (run_id, step)
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(id),
		step INTEGER NOT NULL,
		kind TEXT NOT NULL,
		agent_id INTEGER NOT NULL,
		level INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_run_step ON events(run_id, step);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// BeginRun registers a new run and returns it.
func (db *DB) BeginRun(policy engine.Policy, seed int64) (Run, error) {
	run := Run{
		ID:           uuid.NewString(),
		Strategy:     policy.Strategy.String(),
		Transmission: policy.Transmission.String(),
		Seed:         seed,
		StartedAt:    time.Now().UTC(),
	}
	_, err := db.conn.NamedExec(`INSERT INTO runs (id, strategy, transmission, seed, started_at)
		VALUES (:id, :strategy, :transmission, :seed, :started_at)`, run)
	if err != nil {
		return Run{}, fmt.Errorf("insert run: %w", err)
	}
	slog.Debug("run registered", "run", run.ID, "policy", policy.String(), "seed", seed)
	return run, nil
}

// RecordStep stores one step report with the per-level summary taken after it.
func (db *DB) RecordStep(runID string, report engine.StepReport, levels []engine.LevelSummary) error {
	levelsJSON, err := json.Marshal(levels)
	if err != nil {
		return fmt.Errorf("encode levels: %w", err)
	}

	_, err = db.conn.NamedExec(`INSERT INTO steps
		(run_id, step, efficiency, alive, dismissed, retired, promoted, hired, levels_json)
		VALUES (:run_id, :step, :efficiency, :alive, :dismissed, :retired, :promoted, :hired, :levels_json)`,
		StepRow{
			RunID:      runID,
			Step:       report.Step,
			Efficiency: report.Efficiency,
			Alive:      report.Alive,
			Dismissed:  report.Dismissed,
			Retired:    report.Retired,
			Promoted:   report.Promoted(),
			Hired:      report.Hired,
			LevelsJSON: string(levelsJSON),
		})
	if err != nil {
		return fmt.Errorf("insert step %d: %w", report.Step, err)
	}
	return nil
}

// SaveEvents appends events for a run.
func (db *DB) SaveEvents(runID string, events []engine.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Preparex(`INSERT INTO events (run_id, step, kind, agent_id, level) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range events {
		if _, err := stmt.Exec(runID, e.Step, string(e.Kind), uint64(e.AgentID), e.Level); err != nil {
			return fmt.Errorf("insert event for agent %d: %w", e.AgentID, err)
		}
	}

	return tx.Commit()
}

// Runs returns all recorded runs, oldest first.
func (db *DB) Runs() ([]Run, error) {
	var runs []Run
	err := db.conn.Select(&runs, "SELECT id, strategy, transmission, seed, started_at FROM runs ORDER BY started_at, id")
	return runs, err
}

// Steps returns the recorded steps of a run in step order.
func (db *DB) Steps(runID string) ([]StepRow, error) {
	var steps []StepRow
	err := db.conn.Select(&steps, `SELECT run_id, step, efficiency, alive, dismissed, retired, promoted, hired, levels_json
		FROM steps WHERE run_id = ? ORDER BY step`, runID)
	return steps, err
}

// FinalEfficiency returns the efficiency at the last recorded step of a run.
func (db *DB) FinalEfficiency(runID string) (float64, error) {
	var eff float64
	err := db.conn.Get(&eff, "SELECT efficiency FROM steps WHERE run_id = ? ORDER BY step DESC LIMIT 1", runID)
	return eff, err
}

// EventCounts returns how many events of each kind a run recorded.
func (db *DB) EventCounts(runID string) (map[engine.EventKind]int, error) {
	var rows []struct {
		Kind  string `db:"kind"`
		Count int    `db:"n"`
	}
	if err := db.conn.Select(&rows, "SELECT kind, COUNT(*) AS n FROM events WHERE run_id = ? GROUP BY kind", runID); err != nil {
		return nil, err
	}
	out := make(map[engine.EventKind]int, len(rows))
	for _, r := range rows {
		out[engine.EventKind(r.Kind)] = r.Count
	}
	return out, nil
}
