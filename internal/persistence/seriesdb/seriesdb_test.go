package seriesdb

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"epidemia.dev/internal/sim/epidemic"
)

func TestRecorder_RunAndSamples(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	rec, err := Open(path, "sir-permanent", 42)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rec.Close()

	if rec.RunID() == "" {
		t.Fatal("empty run id")
	}

	samples := []epidemic.Sample{
		{Time: 0, Susceptibles: 90, Infects: 10},
		{Time: 2.5, Susceptibles: 89, Infects: 11},
		{Time: 7.1, Susceptibles: 89, Infects: 10, Immunes: 1},
	}
	for _, s := range samples {
		rec.Observe(s)
	}

	rep := epidemic.Report{
		Susceptibles:   89,
		Infects:        10,
		Immunes:        1,
		SimTime:        7.1,
		Wall:           12 * time.Millisecond,
		Reason:         epidemic.StopTimeElapsed,
	}
	if err := rec.Finish(rep); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()

	var n int
	if err := db.QueryRow(
		`SELECT COUNT(*) FROM samples WHERE run_id = ?`, rec.RunID(),
	).Scan(&n); err != nil {
		t.Fatalf("count samples: %v", err)
	}
	if n != len(samples) {
		t.Fatalf("stored %d samples, want %d", n, len(samples))
	}

	var reason string
	var infects int
	if err := db.QueryRow(
		`SELECT stop_reason, infects FROM runs WHERE run_id = ?`, rec.RunID(),
	).Scan(&reason, &infects); err != nil {
		t.Fatalf("read run row: %v", err)
	}
	if reason != epidemic.StopTimeElapsed.String() || infects != 10 {
		t.Fatalf("run row mismatch: reason=%q infects=%d", reason, infects)
	}
}

func TestRecorder_ObserveAfterFinishIsDropped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	rec, err := Open(path, "si", 1)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rec.Close()

	rec.Observe(epidemic.Sample{Time: 0, Susceptibles: 1})
	if err := rec.Finish(epidemic.Report{Reason: epidemic.StopNoInfects}); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	// Must not panic or block.
	rec.Observe(epidemic.Sample{Time: 1})
}
