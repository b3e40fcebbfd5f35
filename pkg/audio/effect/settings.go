// ABOUTME: Effect selection and the mapping from two slider parameters
// ABOUTME: Builds fresh chains for echo, reverb and low quality mic
package effect

import (
	"fmt"
	"math"
	"strings"

	"github.com/vmic-audio/vmic-go/pkg/audio"
)

// Kind selects the effect applied to the mix
type Kind int

const (
	KindNone Kind = iota
	KindEcho
	KindReverb
	KindLowQualityMic
)

// MaxEchoDelayMs is the longest echo accepted from Param1
const MaxEchoDelayMs = 5000

var kindNames = map[Kind]string{
	KindNone:          "none",
	KindEcho:          "echo",
	KindReverb:        "reverb",
	KindLowQualityMic: "low-quality-mic",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind accepts the names returned by Kind.String plus a few aliases
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "off":
		return KindNone, nil
	case "echo", "delay":
		return KindEcho, nil
	case "reverb":
		return KindReverb, nil
	case "low-quality-mic", "lowqualitymic", "low_quality_mic", "lofi", "degrade":
		return KindLowQualityMic, nil
	default:
		return 0, fmt.Errorf("unknown effect %q (supported: none, echo, reverb, low-quality-mic)", s)
	}
}

// Settings is the user-facing effect selection. Param1 and Param2 are the
// two slider values, nominally in [0, 1]:
//
//	echo:            delay = Param1 * 1000 ms, decay = Param2
//	low-quality-mic: bits = int(Param1 * 6) + 2, noise = Param2 * 0.1
//	reverb, none:    parameters ignored
type Settings struct {
	Kind   Kind
	Param1 float64
	Param2 float64
}

// Validate checks the kind and that both parameters are finite and non-negative
func (s Settings) Validate() error {
	if _, ok := kindNames[s.Kind]; !ok {
		return fmt.Errorf("unknown effect kind %d", int(s.Kind))
	}
	for i, p := range []float64{s.Param1, s.Param2} {
		if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 {
			return fmt.Errorf("effect param%d must be finite and >= 0: %v", i+1, p)
		}
	}
	if s.Kind == KindEcho && s.echoDelayMs() > MaxEchoDelayMs {
		return fmt.Errorf("echo delay %.0fms exceeds %dms", s.echoDelayMs(), MaxEchoDelayMs)
	}
	return nil
}

func (s Settings) echoDelayMs() float64    { return s.Param1 * 1000 }
func (s Settings) echoDecay() float64      { return s.Param2 }
func (s Settings) bitLevels() int          { return int(s.Param1*6) + 2 }
func (s Settings) noiseAmplitude() float64 { return s.Param2 * 0.1 }

// Build creates a fresh chain for settings. State never carries over from a
// previous chain.
func Build(s Settings, format audio.Format) (*Chain, error) {
	if err := format.Validate(); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}

	var chain *Chain
	switch s.Kind {
	case KindEcho:
		echo := NewEcho(format.Channels, msToFrames(s.echoDelayMs(), format.SampleRate), s.echoDecay())
		// Tune runs on the render goroutine
		echo.Reserve(msToFrames(MaxEchoDelayMs, format.SampleRate))
		chain = NewChain(echo)
	case KindReverb:
		chain = Reverb(format)
	case KindLowQualityMic:
		chain = NewChain(NewDegrade(s.bitLevels(), s.noiseAmplitude()))
	default:
		chain = NewChain()
	}
	chain.settings = s
	chain.sampleRate = format.SampleRate
	return chain, nil
}

// Reverb is a short two-tap echo chain: 50 ms at 0.3 followed by 100 ms at 0.2
func Reverb(format audio.Format) *Chain {
	c := NewChain(
		NewEcho(format.Channels, msToFrames(50, format.SampleRate), 0.3),
		NewEcho(format.Channels, msToFrames(100, format.SampleRate), 0.2),
	)
	c.settings = Settings{Kind: KindReverb}
	c.sampleRate = format.SampleRate
	return c
}

func msToFrames(ms float64, sampleRate int) int {
	return int(math.Round(ms * float64(sampleRate) / 1000))
}
