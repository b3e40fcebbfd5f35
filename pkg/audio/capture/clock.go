// ABOUTME: Ticker-driven delivery loop shared by synthetic and file sources
// ABOUTME: Emulates a hardware period callback on a dedicated goroutine
package capture

import (
	"errors"
	"sync"
	"time"

	"github.com/vmic-audio/vmic-go/pkg/audio"
)

// ErrAlreadyStarted is returned by Start on a running source
var ErrAlreadyStarted = errors.New("source already started")

// clock calls fill then delivers the block once per period
type clock struct {
	name    string
	format  audio.Format
	period  time.Duration
	handler handlerSlot

	mu       sync.Mutex
	stopChan chan struct{}
	done     chan struct{}
}

func newClock(name string, format audio.Format, period time.Duration) clock {
	if period <= 0 {
		period = 10 * time.Millisecond
	}
	return clock{name: name, format: format, period: period}
}

func (c *clock) Name() string          { return c.name }
func (c *clock) Format() audio.Format  { return c.format }
func (c *clock) Period() time.Duration { return c.period }
func (c *clock) SetHandler(h Handler)  { c.handler.set(h) }
func (c *clock) framesPerPeriod() int  { return max(1, c.format.FramesFor(c.period)) }

func (c *clock) start(fill func(block []byte)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopChan != nil {
		return ErrAlreadyStarted
	}
	c.stopChan = make(chan struct{})
	c.done = make(chan struct{})

	block := make([]byte, c.format.BytesFor(c.framesPerPeriod()))
	go c.run(block, fill, c.stopChan, c.done)
	return nil
}

func (c *clock) run(block []byte, fill func([]byte), stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(c.period)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			fill(block)
			c.handler.deliver(block)
		case <-stop:
			return
		}
	}
}

// Stop halts the loop and waits for the goroutine to exit
func (c *clock) Stop() error {
	c.mu.Lock()
	stop, done := c.stopChan, c.done
	c.stopChan, c.done = nil, nil
	c.mu.Unlock()

	if stop == nil {
		return nil
	}
	close(stop)
	<-done
	return nil
}
