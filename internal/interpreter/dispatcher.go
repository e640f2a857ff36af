package interpreter

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/park285/voicechess/internal/domain"
	"github.com/park285/voicechess/internal/obslog"
)

// Dispatcher runs interpretations off the host's event loop. Every dispatch
// gets a monotonically increasing sequence number; when a result completes
// it is applied only if its number is still the latest dispatched, so a
// slow remote call from an earlier utterance can never override a newer
// result. There is no cancellation of in-flight attempts, only disposal of
// their results.
type Dispatcher struct {
	interp *Interpreter
	apply  func(domain.Action)

	seq atomic.Uint64 // highest sequence number handed out = latest dispatched

	mu sync.Mutex // serializes apply, the single point of result consumption
	wg sync.WaitGroup
}

// NewDispatcher wires an interpreter to the host's apply callback. The
// callback is invoked from worker goroutines, one at a time.
func NewDispatcher(interp *Interpreter, apply func(domain.Action)) *Dispatcher {
	return &Dispatcher{interp: interp, apply: apply}
}

// Dispatch starts interpreting one utterance and returns its sequence
// number immediately. Any result still in flight is superseded.
func (d *Dispatcher) Dispatch(ctx context.Context, in Input) uint64 {
	seq := d.seq.Add(1)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		action := d.interp.Interpret(ctx, in)

		d.mu.Lock()
		defer d.mu.Unlock()
		if d.seq.Load() != seq {
			obslog.L().Debug("result_superseded", zap.Uint64("seq", seq))
			return
		}
		d.apply(action)
	}()
	return seq
}

// Wait blocks until every dispatched interpretation has completed or been
// discarded. Intended for shutdown and tests.
func (d *Dispatcher) Wait() { d.wg.Wait() }
