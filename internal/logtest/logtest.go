// Copyright 2025 the libevm authors.
//
// The libevm additions to go-ethereum are free software: you can redistribute
// them and/or modify them under the terms of the GNU Lesser General Public License
// as published by the Free Software Foundation, either version 3 of the License,
// or (at your option) any later version.
//
// The libevm additions are distributed in the hope that they will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the GNU Lesser
// General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see
// <http://www.gnu.org/licenses/>.

// Package logtest provides a log handler that records everything logged
// during a test, for assertions, and mirrors it to [testing.TB.Logf].
package logtest

import (
	"context"
	"sync"
	"testing"

	"github.com/ava-labs/libevm/log"
	"golang.org/x/exp/slog"
)

// A Record is a single captured log line.
type Record struct {
	Level   slog.Level
	Message string
	Attrs   map[string]slog.Value
}

// A Recorder is an [slog.Handler] that captures all records at or above a
// minimum level. Records logged at [log.LevelCrit] fail the test.
type Recorder struct {
	tb       testing.TB
	minLevel slog.Level

	mu      sync.Mutex
	records []Record
	// attrs are those accumulated by WithAttrs() on derived handlers, which
	// share the parent's storage.
	attrs  []slog.Attr
	parent *Recorder
}

var _ slog.Handler = (*Recorder)(nil)

// NewRecorder returns a Recorder capturing records at `minLevel` and above.
func NewRecorder(tb testing.TB, minLevel slog.Level) *Recorder {
	return &Recorder{tb: tb, minLevel: minLevel}
}

// Logger returns a [log.Logger] that writes to the Recorder.
func (r *Recorder) Logger() log.Logger {
	return log.NewLogger(r)
}

func (r *Recorder) root() *Recorder {
	if r.parent != nil {
		return r.parent
	}
	return r
}

// Enabled implements [slog.Handler].
func (r *Recorder) Enabled(_ context.Context, level slog.Level) bool {
	return level >= r.minLevel
}

// Handle implements [slog.Handler].
func (r *Recorder) Handle(_ context.Context, rec slog.Record) error {
	got := Record{
		Level:   rec.Level,
		Message: rec.Message,
		Attrs:   make(map[string]slog.Value, len(r.attrs)+rec.NumAttrs()),
	}
	for _, a := range r.attrs {
		got.Attrs[a.Key] = a.Value.Resolve()
	}
	rec.Attrs(func(a slog.Attr) bool {
		got.Attrs[a.Key] = a.Value.Resolve()
		return true
	})

	to := r.tb.Logf
	if rec.Level >= log.LevelCrit {
		to = r.tb.Errorf
	}
	to("[%s] %s", log.LevelAlignedString(rec.Level), rec.Message)

	root := r.root()
	root.mu.Lock()
	defer root.mu.Unlock()
	root.records = append(root.records, got)
	return nil
}

// WithAttrs implements [slog.Handler].
func (r *Recorder) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &Recorder{
		tb:       r.tb,
		minLevel: r.minLevel,
		attrs:    append(append([]slog.Attr(nil), r.attrs...), attrs...),
		parent:   r.root(),
	}
}

// WithGroup implements [slog.Handler]. Groups are flattened.
func (r *Recorder) WithGroup(string) slog.Handler { return r }

// Records returns a copy of everything captured so far.
func (r *Recorder) Records() []Record {
	root := r.root()
	root.mu.Lock()
	defer root.mu.Unlock()
	return append([]Record(nil), root.records...)
}

// AtLevel returns the captured records of exactly `level`.
func (r *Recorder) AtLevel(level slog.Level) []Record {
	var out []Record
	for _, rec := range r.Records() {
		if rec.Level == level {
			out = append(out, rec)
		}
	}
	return out
}
