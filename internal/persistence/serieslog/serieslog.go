// Package serieslog records the observed time series of a run as
// zstd-compressed JSONL, one sample per line.
package serieslog

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"github.com/klauspost/compress/zstd"

	"epidemia.dev/internal/sim/epidemic"
)

var json = jsoniter.ConfigFastest

// Writer streams samples to a single compressed file. It implements
// epidemic.Observer; write failures are latched and surfaced by Close, so
// a broken disk never aborts a simulation.
type Writer struct {
	mu  sync.Mutex
	f   *os.File
	enc *zstd.Encoder
	w   *bufio.Writer
	err error
}

// NewWriter creates (or truncates) the series file at path.
func NewWriter(path string) (*Writer, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &Writer{
		f:   f,
		enc: enc,
		w:   bufio.NewWriterSize(enc, 64*1024),
	}, nil
}

// Observe appends one sample line.
func (w *Writer) Observe(s epidemic.Sample) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return
	}
	b, err := json.Marshal(s)
	if err != nil {
		w.err = err
		return
	}
	if _, err := w.w.Write(b); err != nil {
		w.err = err
		return
	}
	if err := w.w.WriteByte('\n'); err != nil {
		w.err = err
	}
}

// Close flushes and closes the file, returning the first error seen.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	err := w.err
	if e := w.w.Flush(); err == nil {
		err = e
	}
	if e := w.enc.Close(); err == nil {
		err = e
	}
	if e := w.f.Close(); err == nil {
		err = e
	}
	if w.err == nil {
		w.err = os.ErrClosed // reject samples arriving after Close
	}
	return err
}

// ReadAll decodes a series file back into samples, mostly for tooling and
// tests.
func ReadAll(path string) ([]epidemic.Sample, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	dec, err := zstd.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	var out []epidemic.Sample
	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var s epidemic.Sample
		if err := json.Unmarshal(line, &s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
