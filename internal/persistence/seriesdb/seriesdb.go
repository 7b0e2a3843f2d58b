// Package seriesdb records runs and their counter time series in SQLite.
// Sample inserts happen on a dedicated writer goroutine fed by a channel,
// so the simulation never waits on the database.
package seriesdb

import (
	"database/sql"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"epidemia.dev/internal/sim/epidemic"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id          TEXT PRIMARY KEY,
	scenario        TEXT NOT NULL,
	seed            INTEGER NOT NULL,
	started_at      TEXT NOT NULL,
	stop_reason     TEXT,
	sim_time        REAL,
	wall_ms         INTEGER,
	susceptibles    INTEGER,
	infects         INTEGER,
	immunes         INTEGER,
	newborns        INTEGER,
	natural_deaths  INTEGER,
	epidemic_deaths INTEGER
);
CREATE TABLE IF NOT EXISTS samples (
	run_id       TEXT NOT NULL,
	t            REAL NOT NULL,
	susceptibles INTEGER NOT NULL,
	infects      INTEGER NOT NULL,
	immunes      INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS samples_run_t ON samples(run_id, t);
`

// Recorder persists one run. It implements epidemic.Observer.
type Recorder struct {
	db    *sql.DB
	runID string

	ch     chan epidemic.Sample
	wg     sync.WaitGroup
	once   sync.Once
	closed atomic.Bool

	mu  sync.Mutex
	err error
}

// Open creates or opens the database at path, applies the schema and
// registers a new run row.
func Open(path, scenarioName string, seed int64) (*Recorder, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// The writer goroutine is the only writer.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	r := &Recorder{
		db:    db,
		runID: uuid.NewString(),
		ch:    make(chan epidemic.Sample, 1024),
	}
	if _, err := db.Exec(
		`INSERT INTO runs (run_id, scenario, seed, started_at) VALUES (?, ?, ?, ?)`,
		r.runID, scenarioName, seed, time.Now().UTC().Format(time.RFC3339Nano),
	); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("insert run: %w", err)
	}

	r.wg.Add(1)
	go r.writeLoop()
	return r, nil
}

// RunID returns the identifier of the run being recorded.
func (r *Recorder) RunID() string { return r.runID }

// Observe enqueues a sample for the writer goroutine.
func (r *Recorder) Observe(s epidemic.Sample) {
	if r.closed.Load() {
		return
	}
	r.ch <- s
}

func (r *Recorder) writeLoop() {
	defer r.wg.Done()
	for s := range r.ch {
		_, err := r.db.Exec(
			`INSERT INTO samples (run_id, t, susceptibles, infects, immunes) VALUES (?, ?, ?, ?, ?)`,
			r.runID, s.Time, s.Susceptibles, s.Infects, s.Immunes,
		)
		if err != nil {
			r.setErr(fmt.Errorf("insert sample: %w", err))
		}
	}
}

func (r *Recorder) setErr(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err == nil {
		r.err = err
	}
}

// Finish drains pending samples and stores the run-end report on the run
// row. The recorder accepts no samples afterwards.
func (r *Recorder) Finish(rep epidemic.Report) error {
	r.stopWriter()
	_, err := r.db.Exec(
		`UPDATE runs SET stop_reason = ?, sim_time = ?, wall_ms = ?,
			susceptibles = ?, infects = ?, immunes = ?,
			newborns = ?, natural_deaths = ?, epidemic_deaths = ?
		 WHERE run_id = ?`,
		rep.Reason.String(), rep.SimTime, rep.Wall.Milliseconds(),
		rep.Susceptibles, rep.Infects, rep.Immunes,
		rep.Newborns, rep.NaturalDeaths, rep.EpidemicDeaths,
		r.runID,
	)
	if err != nil {
		r.setErr(fmt.Errorf("finish run: %w", err))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

func (r *Recorder) stopWriter() {
	r.once.Do(func() {
		r.closed.Store(true)
		close(r.ch)
		r.wg.Wait()
	})
}

// Close stops the writer and closes the database.
func (r *Recorder) Close() error {
	r.stopWriter()
	return r.db.Close()
}
