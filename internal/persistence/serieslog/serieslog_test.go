package serieslog

import (
	"path/filepath"
	"testing"

	"epidemia.dev/internal/sim/epidemic"
)

func TestWriter_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run", "series.jsonl.zst")
	w, err := NewWriter(path)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}

	want := []epidemic.Sample{
		{Time: 0, Susceptibles: 90, Infects: 10, Immunes: 0},
		{Time: 1.25, Susceptibles: 89, Infects: 11, Immunes: 0},
		{Time: 3.5, Susceptibles: 89, Infects: 10, Immunes: 1},
	}
	for _, s := range want {
		w.Observe(s)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	got, err := ReadAll(path)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("read %d samples, wrote %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sample %d: got %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestWriter_ObserveAfterCloseIsSafe(t *testing.T) {
	path := filepath.Join(t.TempDir(), "series.jsonl.zst")
	w, err := NewWriter(path)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	w.Observe(epidemic.Sample{Time: 0, Susceptibles: 1})
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	// Must not panic; the latched error path swallows late writes.
	w.Observe(epidemic.Sample{Time: 1})
}
