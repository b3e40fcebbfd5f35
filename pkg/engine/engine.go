// ABOUTME: Engine wiring capture sources through mixer and effects to render sinks
// ABOUTME: Owns the Idle/Starting/Running/Stopping lifecycle of one session at a time
package engine

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"

	"github.com/cwbudde/algo-vecmath"
	"github.com/google/uuid"
	"github.com/vmic-audio/vmic-go/pkg/audio"
	"github.com/vmic-audio/vmic-go/pkg/audio/broadcast"
	"github.com/vmic-audio/vmic-go/pkg/audio/capture"
	"github.com/vmic-audio/vmic-go/pkg/audio/effect"
	"github.com/vmic-audio/vmic-go/pkg/audio/gain"
	"github.com/vmic-audio/vmic-go/pkg/audio/mix"
	"github.com/vmic-audio/vmic-go/pkg/audio/output"
	"github.com/vmic-audio/vmic-go/pkg/audio/ring"
	"github.com/vmic-audio/vmic-go/pkg/device"
	"golang.org/x/sync/errgroup"
)

// Engine routes audio from capture sources to render sinks. Start and Stop
// may be called from any goroutine; the data path runs entirely on the
// drivers' callback goroutines.
type Engine struct {
	cfg   Config
	log   *slog.Logger
	gains []*gain.Stage
	names map[string]int

	effect atomic.Pointer[effect.Settings]

	mu    sync.Mutex
	state atomic.Int32
	sess  *session

	// transitions not yet reported to OnStateChange, guarded by mu
	pending    []State
	delivering bool
}

// New creates an idle engine
func New(cfg Config) (*Engine, error) {
	cfg.applyDefaults()

	e := &Engine{
		cfg:   cfg,
		log:   cfg.Logger,
		gains: make([]*gain.Stage, len(cfg.Sources)),
		names: make(map[string]int, len(cfg.Sources)),
	}
	if err := e.validate(); err != nil {
		return nil, err
	}

	for i, sc := range cfg.Sources {
		e.gains[i] = gain.New(sc.Gain)
		e.names[sc.Source.Name()] = i
	}
	settings := cfg.Effect
	e.effect.Store(&settings)
	return e, nil
}

// State returns the current lifecycle state
func (e *Engine) State() State {
	return State(e.state.Load())
}

// Format returns the session format
func (e *Engine) Format() audio.Format {
	return e.cfg.Format
}

// SessionID returns the ID of the running session, or "" when idle
func (e *Engine) SessionID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sess == nil {
		return ""
	}
	return e.sess.id
}

// Effect returns the current effect settings
func (e *Engine) Effect() effect.Settings {
	return *e.effect.Load()
}

// setState records a transition; mu must be held. OnStateChange hears about
// it from unlock.
func (e *Engine) setState(s State) {
	e.state.Store(int32(s))
	if e.cfg.OnStateChange != nil {
		e.pending = append(e.pending, s)
	}
}

// unlock releases mu, then reports queued transitions. One goroutine reports
// at a time so callbacks see every transition in order and may call back
// into the engine, Stop included.
func (e *Engine) unlock() {
	if e.delivering || len(e.pending) == 0 {
		e.mu.Unlock()
		return
	}
	e.delivering = true
	for len(e.pending) > 0 {
		batch := e.pending
		e.pending = nil
		e.mu.Unlock()
		for _, s := range batch {
			e.cfg.OnStateChange(s)
		}
		e.mu.Lock()
	}
	e.delivering = false
	e.mu.Unlock()
}

// Start validates the configuration, wires the pipeline and starts every
// device. Sinks start before sources so no capture callback ever finds an
// unallocated consumer. On failure everything already started is stopped
// and the engine is back to Idle.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.unlock()

	if e.State() != Idle {
		return ErrNotIdle
	}
	if err := e.validate(); err != nil {
		return err
	}
	if err := e.checkDevices(); err != nil {
		return err
	}

	e.setState(Starting)

	sess, err := e.build()
	if err == nil {
		err = e.startSession(sess)
	}
	if err != nil {
		e.setState(Stopping)
		if sess != nil {
			if stopErr := e.teardown(sess); stopErr != nil {
				e.log.Warn("cleanup after failed start", "error", stopErr)
			}
		}
		e.setState(Idle)
		return err
	}

	e.sess = sess
	e.setState(Running)
	go e.watch(sess)

	e.log.Info("engine running",
		"session", sess.id,
		"format", e.cfg.Format.String(),
		"sources", len(sess.sources),
		"sinks", len(sess.sinks),
		"effect", sess.chain.Settings().Kind.String())
	return nil
}

// Stop stops capture sources, then render sinks, then releases the session.
// It is safe in any state and from several goroutines at once.
func (e *Engine) Stop() error {
	return e.stop(nil)
}

// stop tears down the running session. A non-nil only restricts the stop to
// that session.
func (e *Engine) stop(only *session) error {
	e.mu.Lock()
	defer e.unlock()

	sess := e.sess
	if sess == nil || (only != nil && sess != only) {
		return nil
	}

	e.setState(Stopping)
	err := e.teardown(sess)
	e.sess = nil
	e.setState(Idle)

	if err != nil {
		e.log.Warn("engine stopped with errors", "session", sess.id, "error", err)
		return err
	}
	e.log.Info("engine stopped", "session", sess.id)
	return nil
}

// watch turns the first callback fault into a full stop
func (e *Engine) watch(sess *session) {
	select {
	case err := <-sess.faults:
		e.log.Error("fault in audio callback, stopping", "session", sess.id, "error", err)
		stopErr := e.stop(sess)
		if e.cfg.OnError != nil {
			e.cfg.OnError(errors.Join(err, stopErr))
		}
	case <-sess.done:
	}
}

// SetGain changes a source's gain. It applies from the next mixed block and
// is kept across sessions.
func (e *Engine) SetGain(source string, g float64) error {
	if math.IsNaN(g) || math.IsInf(g, 0) || g < 0 {
		return fmt.Errorf("gain must be finite and >= 0: %v", g)
	}
	i, ok := e.names[source]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSource, source)
	}
	e.gains[i].Set(g)
	return nil
}

// Gain returns a source's current gain
func (e *Engine) Gain(source string) (float64, error) {
	i, ok := e.names[source]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownSource, source)
	}
	return e.gains[i].Value(), nil
}

// TuneEffect changes the two effect parameters. A running chain picks them
// up at its next block without losing delay or hold state.
func (e *Engine) TuneEffect(param1, param2 float64) error {
	next := *e.effect.Load()
	next.Param1, next.Param2 = param1, param2
	if err := next.Validate(); err != nil {
		return err
	}
	e.effect.Store(&next)
	return nil
}

func (e *Engine) validate() error {
	cfg := &e.cfg
	if err := cfg.Format.Validate(); err != nil {
		return configErr("format", err, "%v", err)
	}
	if len(cfg.Sources) == 0 {
		return configErr("sources", ErrNoSource, "at least one capture source is required")
	}
	if len(cfg.Sinks) == 0 {
		return configErr("sinks", ErrNoSink, "at least one render sink is required")
	}

	seen := make(map[string]bool, len(cfg.Sources))
	for i, sc := range cfg.Sources {
		field := fmt.Sprintf("sources[%d]", i)
		if sc.Source == nil {
			return configErr(field, ErrNilComponent, "source is nil")
		}
		name := sc.Source.Name()
		if seen[name] {
			return configErr(field, ErrDuplicateName, "source name %q is used twice", name)
		}
		seen[name] = true

		if got := sc.Source.Format(); got != cfg.Format {
			return configErr(field, ErrFormatMismatch, "%s delivers %s, session is %s", name, got, cfg.Format)
		}
		if math.IsNaN(sc.Gain) || math.IsInf(sc.Gain, 0) || sc.Gain < 0 {
			return configErr(field, nil, "gain must be finite and >= 0: %v", sc.Gain)
		}
		if sc.Policy != ring.RejectOnFull && sc.Policy != ring.DropOldestOnFull {
			return configErr(field, nil, "unknown overflow policy %v", sc.Policy)
		}
		if cfg.Format.FramesFor(sc.Buffer) < 1 {
			return configErr(field, nil, "buffer %v holds no frames", sc.Buffer)
		}
	}

	seen = make(map[string]bool, len(cfg.Sinks))
	for i, sc := range cfg.Sinks {
		field := fmt.Sprintf("sinks[%d]", i)
		if sc.Sink == nil {
			return configErr(field, ErrNilComponent, "sink is nil")
		}
		name := sc.Sink.Name()
		if seen[name] {
			return configErr(field, ErrDuplicateName, "sink name %q is used twice", name)
		}
		seen[name] = true
		if i == 0 && sc.Optional {
			return configErr(field, nil, "the primary sink cannot be optional")
		}
	}

	if err := cfg.Effect.Validate(); err != nil {
		return configErr("effect", err, "%v", err)
	}
	return nil
}

// checkDevices confirms every bound endpoint is still listed
func (e *Engine) checkDevices() error {
	if e.cfg.Devices == nil {
		return nil
	}

	check := func(field, name string, v any, optional bool) error {
		d, ok := v.(device.Describer)
		if !ok {
			return nil
		}
		ep := d.Endpoint()
		present, err := device.Present(e.cfg.Devices, ep)
		if err != nil {
			return &DeviceUnavailableError{Device: name, Op: "enumerate", Err: err}
		}
		if present {
			return nil
		}
		if optional {
			e.log.Warn("optional device not present", "device", ep.String())
			return nil
		}
		return configErr(field, ErrDeviceVanished, "%s is no longer present", ep)
	}

	for i, sc := range e.cfg.Sources {
		if err := check(fmt.Sprintf("sources[%d]", i), sc.Source.Name(), sc.Source, false); err != nil {
			return err
		}
	}
	for i, sc := range e.cfg.Sinks {
		if err := check(fmt.Sprintf("sinks[%d]", i), sc.Sink.Name(), sc.Sink, sc.Optional); err != nil {
			return err
		}
	}
	return nil
}

// build allocates every consumer-side structure of a session
func (e *Engine) build() (*session, error) {
	format := e.cfg.Format
	blockFrames := max(1, format.FramesFor(e.cfg.Block))

	mixer, err := mix.New(format, blockFrames)
	if err != nil {
		return nil, fmt.Errorf("failed to create mixer: %w", err)
	}

	rings := make([]*ring.Buffer, len(e.cfg.Sources))
	for i, sc := range e.cfg.Sources {
		var opts []ring.Option
		if sc.HighWater > 0 {
			opts = append(opts, ring.WithHighWater(format.FramesFor(sc.HighWater)))
		}
		buf, err := ring.New(format, format.FramesFor(sc.Buffer), sc.Policy, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create ring for %s: %w", sc.Source.Name(), err)
		}
		if err := mixer.Add(sc.Source.Name(), buf, e.gains[i]); err != nil {
			return nil, err
		}
		rings[i] = buf
	}
	mixer.Seal()

	settings := e.effect.Load()
	chain, err := effect.Build(*settings, format)
	if err != nil {
		return nil, fmt.Errorf("failed to build effect chain: %w", err)
	}

	bcast, err := broadcast.New(format, max(blockFrames, format.FramesFor(e.cfg.History)))
	if err != nil {
		return nil, fmt.Errorf("failed to create broadcaster: %w", err)
	}

	return &session{
		id:          uuid.NewString(),
		format:      format,
		rings:       rings,
		mixer:       mixer,
		chain:       chain,
		tune:        &e.effect,
		applied:     settings,
		bcast:       bcast,
		blockFrames: blockFrames,
		block:       make([]float64, blockFrames*format.Channels),
		faults:      make(chan error, 8),
		done:        make(chan struct{}),
	}, nil
}

// startSession initializes and plays the sinks, then starts the sources
func (e *Engine) startSession(sess *session) error {
	format := sess.format

	for i, sc := range e.cfg.Sinks {
		name := sc.Sink.Name()
		var produce func(int)
		prefill := format.FramesFor(sc.Prefill)
		if i == 0 {
			produce = sess.produce
			prefill = 0
		}

		cursor := sess.bcast.Attach(name, prefill)
		reader := &gatedReader{
			r:     cursor.Reader(sess.blockFrames, produce),
			gate:  &sess.sinkGate,
			name:  name,
			fault: sess.fault,
		}

		if err := sc.Sink.Init(format, reader); err != nil {
			cursor.Close()
			if sc.Optional {
				e.log.Warn("optional sink failed to initialize", "sink", name, "error", err)
				continue
			}
			return &DeviceUnavailableError{Device: name, Op: "init", Err: err}
		}
		sess.sinks = append(sess.sinks, activeSink{sink: sc.Sink, cursor: cursor, optional: sc.Optional})
	}

	playing := make([]activeSink, 0, len(sess.sinks))
	for i, s := range sess.sinks {
		if err := s.sink.Play(); err != nil {
			if !s.optional {
				// the failed sink and the rest were initialized and need stopping
				sess.sinks = append(playing, sess.sinks[i:]...)
				return &DeviceUnavailableError{Device: s.sink.Name(), Op: "play", Err: err}
			}
			e.log.Warn("optional sink failed to play", "sink", s.sink.Name(), "error", err)
			s.cursor.Close()
			if err := s.sink.Stop(); err != nil {
				e.log.Warn("failed to release optional sink", "sink", s.sink.Name(), "error", err)
			}
			continue
		}
		playing = append(playing, s)
	}
	sess.sinks = playing

	for i, sc := range e.cfg.Sources {
		src := sc.Source
		src.SetHandler(sess.handler(src.Name(), sess.rings[i]))
		if err := src.Start(); err != nil {
			src.SetHandler(nil)
			return &DeviceUnavailableError{Device: src.Name(), Op: "start", Err: err}
		}
		sess.sources = append(sess.sources, src)
	}
	return nil
}

// teardown stops sources, then sinks, waiting for their callbacks each time
func (e *Engine) teardown(sess *session) error {
	timeout := e.cfg.DrainTimeout

	sess.srcGate.close()
	for _, src := range sess.sources {
		src.SetHandler(nil)
	}
	srcErrs := stopAll(sess.sources, func(s capture.Source) (string, error) { return s.Name(), s.Stop() })
	if !sess.srcGate.drain(timeout) {
		srcErrs = append(srcErrs, fmt.Errorf("capture callbacks still running after %v", timeout))
	}

	sess.bcast.Close()
	sess.sinkGate.close()
	sinkErrs := stopAll(sess.sinks, func(s activeSink) (string, error) { return s.sink.Name(), s.sink.Stop() })
	if !sess.sinkGate.drain(timeout) {
		sinkErrs = append(sinkErrs, fmt.Errorf("render callbacks still running after %v", timeout))
	}

	for _, buf := range sess.rings {
		buf.Reset()
	}
	sess.sources, sess.sinks = nil, nil
	close(sess.done)

	return errors.Join(append(srcErrs, sinkErrs...)...)
}

// stopAll stops every item concurrently and collects the failures
func stopAll[T any](items []T, stop func(T) (string, error)) []error {
	errs := make([]error, len(items))
	var g errgroup.Group
	for i, item := range items {
		g.Go(func() error {
			if name, err := stop(item); err != nil {
				errs[i] = fmt.Errorf("stop %s: %w", name, err)
			}
			return nil
		})
	}
	_ = g.Wait()

	out := errs[:0]
	for _, err := range errs {
		if err != nil {
			out = append(out, err)
		}
	}
	return out
}

type activeSink struct {
	sink     output.Sink
	cursor   *broadcast.Cursor
	optional bool
}

// session is everything built for one Start..Stop cycle
type session struct {
	id     string
	format audio.Format

	rings []*ring.Buffer
	mixer *mix.Mixer
	chain *effect.Chain
	bcast *broadcast.Broadcaster

	// tune is the engine's effect settings; applied is what the chain runs
	tune    *atomic.Pointer[effect.Settings]
	applied *effect.Settings

	blockFrames int
	block       []float64

	srcGate  gate
	sinkGate gate
	sources  []capture.Source
	sinks    []activeSink

	faults chan error
	done   chan struct{}

	produced atomic.Uint64
	peak     atomic.Uint64
}

// produce mixes, processes and publishes frames. It runs on the primary
// sink's render goroutine only.
func (s *session) produce(frames int) {
	if p := s.tune.Load(); p != s.applied {
		_ = s.chain.Tune(p.Param1, p.Param2)
		s.applied = p
	}

	ch := s.format.Channels
	for frames > 0 {
		n := min(frames, s.blockFrames)
		block := s.block[:n*ch]

		s.mixer.Pull(block)
		s.chain.Process(block)
		s.bcast.Publish(block)

		s.peak.Store(math.Float64bits(vecmath.MaxAbs(block)))
		s.produced.Add(uint64(n))
		frames -= n
	}
}

// handler is the capture callback for one source
func (s *session) handler(name string, buf *ring.Buffer) capture.Handler {
	where := "source " + name
	return func(block []byte) {
		if !s.srcGate.enter() {
			return
		}
		defer s.srcGate.leave()
		defer s.recoverFault(where)

		buf.Push(block)
	}
}

func (s *session) recoverFault(where string) {
	if v := recover(); v != nil {
		s.fault(fmt.Errorf("%s: panic in callback: %v", where, v))
	}
}

// fault records err without blocking; only the first one matters
func (s *session) fault(err error) {
	select {
	case s.faults <- err:
	default:
	}
}

// gatedReader admits render reads through the sink gate
type gatedReader struct {
	r     io.Reader
	gate  *gate
	name  string
	fault func(error)
}

func (r *gatedReader) Read(p []byte) (n int, err error) {
	if !r.gate.enter() {
		return 0, io.EOF
	}
	defer r.gate.leave()
	defer func() {
		if v := recover(); v != nil {
			r.fault(fmt.Errorf("sink %s: panic in callback: %v", r.name, v))
			n, err = 0, io.EOF
		}
	}()
	return r.r.Read(p)
}
