// Package store provides SQLite-backed storage for run configurations and
// per-day records.
package store

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"epigrid/internal/sim"
)

// DB wraps a SQLite connection.
type DB struct {
	conn *sqlx.DB
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
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		seed TEXT NOT NULL,
		started_at TEXT NOT NULL,
		config_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS day_records (
		run_id INTEGER NOT NULL REFERENCES runs(id),
		day INTEGER NOT NULL,
		susceptible INTEGER NOT NULL,
		infected INTEGER NOT NULL,
		recovered INTEGER NOT NULL,
		dead INTEGER NOT NULL,
		vaccinated_any INTEGER NOT NULL,
		vaccine_effective INTEGER NOT NULL,
		asymptomatic_infected INTEGER NOT NULL,
		lockdown_active INTEGER NOT NULL,
		PRIMARY KEY (run_id, day)
	);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// Run is a stored run header. The seed is kept as decimal text since SQLite
// integers are signed.
type Run struct {
	ID        int64  `db:"id"`
	Seed      uint64 `db:"seed"`
	StartedAt string `db:"started_at"`
	Config    string `db:"config_json"`
}

// BeginRun records cfg as a new run and returns its id.
func (db *DB) BeginRun(cfg sim.Config) (int64, error) {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return 0, fmt.Errorf("encode config: %w", err)
	}
	res, err := db.conn.Exec(
		`INSERT INTO runs (seed, started_at, config_json) VALUES (?, ?, ?)`,
		strconv.FormatUint(cfg.Seed, 10), time.Now().UTC().Format(time.RFC3339), string(raw),
	)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	return res.LastInsertId()
}

type recordRow struct {
	RunID int64 `db:"run_id"`
	sim.Record
}

// SaveRecord stores one day of a run.
func (db *DB) SaveRecord(runID int64, r sim.Record) error {
	_, err := db.conn.NamedExec(`
		INSERT INTO day_records (
			run_id, day, susceptible, infected, recovered, dead,
			vaccinated_any, vaccine_effective, asymptomatic_infected, lockdown_active
		) VALUES (
			:run_id, :day, :susceptible, :infected, :recovered, :dead,
			:vaccinated_any, :vaccine_effective, :asymptomatic_infected, :lockdown_active
		)`, recordRow{RunID: runID, Record: r})
	if err != nil {
		return fmt.Errorf("insert day %d: %w", r.Day, err)
	}
	return nil
}

// Records returns every stored day of a run in day order.
func (db *DB) Records(runID int64) ([]sim.Record, error) {
	var rows []recordRow
	err := db.conn.Select(&rows, `
		SELECT run_id, day, susceptible, infected, recovered, dead,
			vaccinated_any, vaccine_effective, asymptomatic_infected, lockdown_active
		FROM day_records WHERE run_id = ? ORDER BY day`, runID)
	if err != nil {
		return nil, fmt.Errorf("select records: %w", err)
	}
	out := make([]sim.Record, len(rows))
	for i, r := range rows {
		out[i] = r.Record
	}
	return out, nil
}

// Runs lists stored runs, newest first.
func (db *DB) Runs() ([]Run, error) {
	var runs []Run
	if err := db.conn.Select(&runs, `SELECT id, seed, started_at, config_json FROM runs ORDER BY id DESC`); err != nil {
		return nil, fmt.Errorf("select runs: %w", err)
	}
	return runs, nil
}

// Sink adapts a run in the database to sim.MetricsSink. Write failures are
// latched: after the first one, further records are dropped and Err reports
// it.
type Sink struct {
	db    *DB
	runID int64
	err   error
}

// NewSink starts a run for cfg and returns a sink writing into it.
func (db *DB) NewSink(cfg sim.Config) (*Sink, error) {
	id, err := db.BeginRun(cfg)
	if err != nil {
		return nil, err
	}
	return &Sink{db: db, runID: id}, nil
}

// RunID is the id of the run the sink writes to.
func (s *Sink) RunID() int64 { return s.runID }

// Emit stores r.
func (s *Sink) Emit(r sim.Record) {
	if s.err != nil {
		return
	}
	s.err = s.db.SaveRecord(s.runID, r)
}

// Err returns the first write error, if any.
func (s *Sink) Err() error { return s.err }
