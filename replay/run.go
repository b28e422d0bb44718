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

package replay

import (
	"context"
	"fmt"

	"github.com/ava-labs/libevm/ethdb"
	"github.com/ava-labs/libevm/ethdb/memorydb"
	"github.com/ava-labs/libevm/log"
	"golang.org/x/sync/errgroup"

	"github.com/ava-labs/validationtracer/storage"
	"github.com/ava-labs/validationtracer/validation"
	"github.com/ava-labs/validationtracer/vm"
)

// A Result is the outcome of tracing a [Script].
type Result struct {
	Name string
	// Executed is the number of instructions passed to the tracer, counting
	// each repetition.
	Executed  int
	Mode      validation.Mode
	Stopped   bool
	Violation *validation.ViolatedRule
	Gas       validation.ComputationalGas
	// Mismatches describe how the outcome differs from the script's
	// expectation.
	Mismatches []string
}

// Passed reports whether the outcome matched the expectation.
func (r *Result) Passed() bool {
	return len(r.Mismatches) == 0
}

// layered reads from `top` and falls back to `base`, which MAY be nil.
type layered struct {
	top, base ethdb.KeyValueReader
}

func (l layered) Has(key []byte) (bool, error) {
	if ok, err := l.top.Has(key); ok || err != nil {
		return ok, err
	}
	if l.base == nil {
		return false, nil
	}
	return l.base.Has(key)
}

func (l layered) Get(key []byte) ([]byte, error) {
	switch ok, err := l.top.Has(key); {
	case err != nil:
		return nil, err
	case ok || l.base == nil:
		return l.top.Get(key)
	}
	return l.base.Get(key)
}

// Run traces `s` the way a VM driver would: every instruction is passed to
// [validation.Tracer.BeforeExecution] and execution stops as soon as the
// tracer halts. Storage is read from the script, then from `base` if non-nil.
// Options are applied after a default logger carrying the script name.
//
// Run panics, as the tracer does, if the script nests validation phases.
func Run(ctx context.Context, s *Script, base ethdb.KeyValueReader, opts ...validation.Option) (*Result, error) {
	steps, err := s.compile()
	if err != nil {
		return nil, err
	}
	params, err := s.Params()
	if err != nil {
		return nil, err
	}

	top := memorydb.New()
	defer top.Close()
	if err := s.Seed(top); err != nil {
		return nil, err
	}
	mem := new(vm.SimpleMemory)
	for _, m := range s.Memory {
		mem.Write(vm.MemoryPage(m.Page), m.Offset, m.Data)
	}

	logger := log.Root().With("script", s.Name)
	var current validation.Hook
	classify := validation.HookClassifierFunc(func(*vm.State, *vm.Instruction, vm.Memory) validation.Hook {
		return current
	})
	opts = append([]validation.Option{
		validation.WithLogger(logger),
		validation.WithHookClassifier(classify),
	}, opts...)

	db := storage.NewDB(layered{top: top, base: base}, storage.WithLogger(logger))
	tracer := validation.New(db, params, opts...)

	res := &Result{Name: s.Name}
run:
	for i, st := range steps {
		for range st.repeat {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("step %d: %w", i, err)
			}
			current = st.hook
			tracer.BeforeExecution(st.state, st.instr, mem)
			res.Executed++
			if tracer.Halted() {
				break run
			}
		}
	}

	res.Mode = tracer.Mode()
	res.Stopped = tracer.ShouldStop()
	res.Violation = tracer.Violation()
	res.Gas = tracer.ComputationalGas()
	res.Mismatches = s.Expect.check(res)
	logger.Debug("Script replayed", "executed", res.Executed, "passed", res.Passed())
	return res, nil
}

func (e *Expectation) check(r *Result) []string {
	var out []string
	mismatch := func(what string, got, want any) {
		out = append(out, fmt.Sprintf("%s: got %v; want %v", what, got, want))
	}

	gotViolation := ""
	if r.Violation != nil {
		gotViolation = r.Violation.Kind.String()
	}
	if gotViolation != e.Violation {
		mismatch("violation", gotViolation, e.Violation)
	}
	if r.Stopped != e.Stopped {
		mismatch("stopped", r.Stopped, e.Stopped)
	}
	if e.Mode != "" && r.Mode.String() != e.Mode {
		mismatch("mode", r.Mode, e.Mode)
	}
	if e.Executed != 0 && r.Executed != e.Executed {
		mismatch("executed", r.Executed, e.Executed)
	}
	return out
}

// RunAll replays scripts concurrently, with at most `jobs` running at once.
// Each script gets its own tracer. Results are in the same order as
// `scripts`.
func RunAll(ctx context.Context, scripts []*Script, base ethdb.KeyValueReader, jobs int, opts ...validation.Option) ([]*Result, error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(jobs, 1))

	results := make([]*Result, len(scripts))
	for i, s := range scripts {
		g.Go(func() error {
			r, err := Run(ctx, s, base, opts...)
			if err != nil {
				return fmt.Errorf("script %q: %w", s.Name, err)
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
