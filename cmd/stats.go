// ABOUTME: Periodic statistics logging while the engine runs
// ABOUTME: Reports ring fill, sink delivery and process CPU and memory
package cmd

import (
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/process"
	"github.com/vmic-audio/vmic-go/internal/logging"
	"github.com/vmic-audio/vmic-go/pkg/engine"
)

// statsLoop logs a snapshot of eng every interval until done is closed
func statsLoop(eng *engine.Engine, interval time.Duration, done <-chan struct{}) {
	log := logging.L("stats")

	// Process metrics are best effort
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		log.Debug("Process metrics unavailable", slog.Any("error", err))
		proc = nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			logStats(log, eng.Stats())
			if proc != nil {
				logProcess(log, proc)
			}
		}
	}
}

func logStats(log *slog.Logger, st engine.Stats) {
	if st.State != engine.Running {
		return
	}
	log.Info("Mix",
		slog.String("session", st.SessionID),
		slog.String("effect", st.Effect.Kind.String()),
		slog.Uint64("produced", st.Produced),
		slog.Float64("peak", st.Peak))

	for _, src := range st.Sources {
		log.Info("Source",
			slog.String("name", src.Name),
			slog.Float64("gain", src.Gain),
			slog.Int("fill", src.Ring.Fill),
			slog.Int("capacity", src.Ring.Capacity),
			slog.Uint64("overflows", src.Ring.Overflows),
			slog.Uint64("dropped", src.Ring.DroppedFrames),
			slog.Uint64("underruns", src.Underruns))
	}
	for _, sink := range st.Sinks {
		log.Info("Sink",
			slog.String("name", sink.Name),
			slog.Uint64("delivered", sink.Delivered),
			slog.Uint64("underruns", sink.Underruns),
			slog.Uint64("overruns", sink.Overruns),
			slog.Int("lag", sink.Lag))
	}
}

func logProcess(log *slog.Logger, proc *process.Process) {
	attrs := []any{}
	if pct, err := proc.Percent(0); err == nil {
		attrs = append(attrs, slog.Float64("cpu", pct))
	}
	if mem, err := proc.MemoryInfo(); err == nil {
		attrs = append(attrs, slog.Uint64("rss", mem.RSS))
	}
	if sys, err := cpu.Percent(0, false); err == nil && len(sys) > 0 {
		attrs = append(attrs, slog.Float64("system_cpu", sys[0]))
	}
	log.Debug("Process", attrs...)
}
