// ABOUTME: Capture source interface consumed by the engine
// ABOUTME: Sources push PCM blocks to a registered handler from their own goroutine
package capture

import (
	"sync/atomic"

	"github.com/vmic-audio/vmic-go/pkg/audio"
)

// Handler receives one block of interleaved PCM in the source's format.
// It runs on the source's callback goroutine and must not block. The block
// is only valid for the duration of the call.
type Handler func(block []byte)

// Source produces audio blocks on its own schedule
type Source interface {
	Name() string
	Format() audio.Format
	// SetHandler registers h; nil unregisters. Safe while running.
	SetHandler(h Handler)
	Start() error
	// Stop returns after the last handler invocation has finished
	Stop() error
}

// handlerSlot stores a Handler for lock-free loads from callback goroutines
type handlerSlot struct {
	p atomic.Pointer[Handler]
}

func (s *handlerSlot) set(h Handler) {
	if h == nil {
		s.p.Store(nil)
		return
	}
	s.p.Store(&h)
}

func (s *handlerSlot) deliver(block []byte) {
	if h := s.p.Load(); h != nil {
		(*h)(block)
	}
}
