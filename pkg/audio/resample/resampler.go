// ABOUTME: Streaming linear resampler for interleaved float64 audio
// ABOUTME: Carries the last input frame across calls so chunk boundaries are seamless
package resample

import "fmt"

// Resampler performs linear interpolation to convert between sample rates
type Resampler struct {
	inputRate  int
	outputRate int
	channels   int
	ratio      float64 // input frames advanced per output frame

	// pos is the position of the next output frame, in input frames,
	// relative to last
	pos     float64
	last    []float64
	hasLast bool
}

// New creates a new resampler
func New(inputRate, outputRate, channels int) (*Resampler, error) {
	if inputRate <= 0 || outputRate <= 0 {
		return nil, fmt.Errorf("invalid rates %d -> %d", inputRate, outputRate)
	}
	if channels <= 0 {
		return nil, fmt.Errorf("invalid channel count %d", channels)
	}
	return &Resampler{
		inputRate:  inputRate,
		outputRate: outputRate,
		channels:   channels,
		ratio:      float64(inputRate) / float64(outputRate),
		last:       make([]float64, channels),
	}, nil
}

func (r *Resampler) InputRate() int  { return r.inputRate }
func (r *Resampler) OutputRate() int { return r.outputRate }

// Process converts interleaved input into output until either runs out.
// It returns the number of input samples consumed and output samples
// written. Unconsumed input must be passed again on the next call.
func (r *Resampler) Process(input, output []float64) (consumed, produced int) {
	ch := r.channels
	inFrames := len(input) / ch
	outFrames := len(output) / ch

	if !r.hasLast {
		if inFrames == 0 {
			return 0, 0
		}
		copy(r.last, input[:ch])
		r.hasLast = true
		input = input[ch:]
		inFrames--
		consumed = ch
	}

	// frame 0 is last, frame i>0 is input[i-1]
	frame := func(i int) []float64 {
		if i == 0 {
			return r.last
		}
		return input[(i-1)*ch : i*ch]
	}

	out := 0
	for out < outFrames {
		idx := int(r.pos)
		frac := r.pos - float64(idx)
		if idx > inFrames || (idx == inFrames && frac != 0) {
			break
		}
		a := frame(idx)
		if frac == 0 {
			copy(output[out*ch:(out+1)*ch], a)
		} else {
			b := frame(idx + 1)
			for c := 0; c < ch; c++ {
				output[out*ch+c] = a[c]*(1-frac) + b[c]*frac
			}
		}
		out++
		r.pos += r.ratio
	}

	// advance past input frames no longer needed
	used := min(int(r.pos), inFrames)
	if used > 0 {
		copy(r.last, frame(used))
		r.pos -= float64(used)
	}
	return consumed + used*ch, out * ch
}

// Reset forgets the carried frame and fractional position
func (r *Resampler) Reset() {
	r.pos = 0
	r.hasLast = false
	clear(r.last)
}

// OutputSamplesNeeded estimates how many output samples inputSamples produce
func (r *Resampler) OutputSamplesNeeded(inputSamples int) int {
	inputFrames := inputSamples / r.channels
	outputFrames := int(float64(inputFrames) / r.ratio)
	return outputFrames * r.channels
}

// InputSamplesNeeded estimates how many input samples yield outputSamples
func (r *Resampler) InputSamplesNeeded(outputSamples int) int {
	outputFrames := outputSamples / r.channels
	inputFrames := int(float64(outputFrames) * r.ratio)
	return inputFrames * r.channels
}
