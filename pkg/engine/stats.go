// ABOUTME: Point-in-time engine statistics
// ABOUTME: Ring fill and loss, mixer shortfalls, per-sink delivery and output peak
package engine

import (
	"math"

	"github.com/vmic-audio/vmic-go/pkg/audio/broadcast"
	"github.com/vmic-audio/vmic-go/pkg/audio/effect"
	"github.com/vmic-audio/vmic-go/pkg/audio/ring"
)

// SourceStats describes one capture input
type SourceStats struct {
	Name          string
	Gain          float64
	Ring          ring.Stats
	Underruns     uint64
	MissingFrames uint64
}

// Stats is a snapshot of a session. Counters restart with every session.
type Stats struct {
	State     State
	SessionID string
	Effect    effect.Settings

	Sources []SourceStats
	Sinks   []broadcast.CursorStats

	// Produced is the number of frames mixed and published
	Produced uint64
	// Peak is the largest absolute sample in the last published block
	Peak float64
}

// Stats returns a snapshot; only State and Effect are set while idle
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := Stats{
		State:  e.State(),
		Effect: e.Effect(),
	}
	sess := e.sess
	if sess == nil {
		return st
	}

	st.SessionID = sess.id
	st.Produced = sess.produced.Load()
	st.Peak = math.Float64frombits(sess.peak.Load())

	mixStats := sess.mixer.Stats()
	st.Sources = make([]SourceStats, len(sess.rings))
	for i, buf := range sess.rings {
		in := mixStats.Inputs[i]
		st.Sources[i] = SourceStats{
			Name:          in.Name,
			Gain:          in.Gain,
			Ring:          buf.Stats(),
			Underruns:     in.Underruns,
			MissingFrames: in.MissingFrames,
		}
	}
	st.Sinks = sess.bcast.Stats()
	return st
}
