// ABOUTME: Lock-free admission gate for driver callbacks
// ABOUTME: Lets Stop refuse new callbacks and wait out the ones in flight
package engine

import (
	"runtime"
	"sync/atomic"
	"time"
)

// gate counts callbacks inside the engine. After close, enter fails and
// drain returns once the count reaches zero.
type gate struct {
	closed   atomic.Bool
	inflight atomic.Int64
}

func (g *gate) enter() bool {
	g.inflight.Add(1)
	if g.closed.Load() {
		g.inflight.Add(-1)
		return false
	}
	return true
}

func (g *gate) leave() { g.inflight.Add(-1) }
func (g *gate) close() { g.closed.Store(true) }

// drain waits for in-flight callbacks. It gives up after timeout and
// reports whether the gate emptied.
func (g *gate) drain(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for spins := 0; g.inflight.Load() > 0; spins++ {
		if time.Now().After(deadline) {
			return false
		}
		if spins < 64 {
			runtime.Gosched()
		} else {
			time.Sleep(100 * time.Microsecond)
		}
	}
	return true
}
