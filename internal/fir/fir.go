// Package fir models the FIR filter accelerator block: a single-stage
// multiply-accumulate pipeline behind the same valid/ready handshake the FFT
// block uses, with no multi-phase state machine. One accepted input produces
// one staged output, held until the consumer takes it.
package fir

import (
	"errors"
	"fmt"
	"math"

	"github.com/jeongseonghan/dsp-accel/internal/fixed"
)

// ErrNoTaps is returned when a filter is constructed without coefficients.
var ErrNoTaps = errors.New("fir: empty tap set")

// In carries the input signals for one tick.
type In struct {
	Reset    bool
	InValid  bool
	In       int32
	OutReady bool
}

// Out carries the output signals for one tick.
type Out struct {
	InReady  bool
	OutValid bool
	Out      int32
}

// Filter is one FIR instance: quantized taps, a ring-buffered delay line, and
// a single output slot. The accumulator is int64 throughout; the result is
// narrowed to the sample format once per output.
type Filter struct {
	format   fixed.Format
	saturate bool
	taps     []int32
	delay    []int32
	pos      int

	staged int32
	valid  bool
}

// New builds a filter from float coefficients, quantizing them to the sample
// format. Coefficients outside the representable range clip.
func New(format fixed.Format, coeffs []float64, saturate bool) (*Filter, error) {
	if err := format.Validate(); err != nil {
		return nil, fmt.Errorf("fir: %w", err)
	}
	if len(coeffs) == 0 {
		return nil, ErrNoTaps
	}
	taps := make([]int32, len(coeffs))
	for i, c := range coeffs {
		taps[i] = format.FromFloat(c)
	}
	return &Filter{
		format:   format,
		saturate: saturate,
		taps:     taps,
		delay:    make([]int32, len(coeffs)),
	}, nil
}

// Tick advances the pipeline one synchronous step. Reset clears the delay
// line and the output slot with highest priority. A sample is accepted only
// while the slot is free; the staged result holds bit-identical until the
// consumer's ready coincides with the asserted valid.
func (f *Filter) Tick(in In) Out {
	if in.Reset {
		f.Reset()
		return Out{}
	}

	out := Out{InReady: !f.valid, OutValid: f.valid, Out: f.staged}

	if out.OutValid && in.OutReady {
		f.valid = false
	}
	if out.InReady && in.InValid {
		f.staged = f.process(in.In)
		f.valid = true
	}
	return out
}

// ProcessBlock filters a block directly, bypassing the handshake. It is the
// host-side convenience used when the caller already owns the whole block.
func (f *Filter) ProcessBlock(block []int32) []int32 {
	out := make([]int32, len(block))
	for i, x := range block {
		out[i] = f.process(x)
	}
	return out
}

func (f *Filter) process(x int32) int32 {
	f.delay[f.pos] = x
	order := len(f.taps)

	var acc int64
	for i := 0; i < order; i++ {
		idx := f.pos - i
		if idx < 0 {
			idx += order
		}
		acc += int64(f.taps[i]) * int64(f.delay[idx])
	}
	f.pos++
	if f.pos == order {
		f.pos = 0
	}
	return f.format.Narrow(acc>>uint(f.format.Frac), f.saturate)
}

// Reset clears the delay line, the ring position, and the output slot.
func (f *Filter) Reset() {
	for i := range f.delay {
		f.delay[i] = 0
	}
	f.pos = 0
	f.staged = 0
	f.valid = false
}

// Order returns the number of taps.
func (f *Filter) Order() int { return len(f.taps) }

// LowpassTaps designs a windowed-sinc lowpass: numtaps coefficients with the
// cutoff given as a fraction of Nyquist (0 < cutoff < 1), Hamming-windowed
// and normalized to unity DC gain.
func LowpassTaps(numtaps int, cutoff float64) []float64 {
	taps := make([]float64, numtaps)
	m := float64(numtaps-1) / 2

	var sum float64
	for i := range taps {
		x := float64(i) - m
		s := cutoff
		if x != 0 {
			s = math.Sin(math.Pi*cutoff*x) / (math.Pi * x)
		}
		w := 0.54 - 0.46*math.Cos(2*math.Pi*float64(i)/float64(numtaps-1))
		taps[i] = s * w
		sum += taps[i]
	}
	for i := range taps {
		taps[i] /= sum
	}
	return taps
}
