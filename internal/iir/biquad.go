// Package iir models the IIR biquad accelerator block: one second-order
// section in Direct Form II Transposed, fixed-point state and coefficients,
// behind the suite's valid/ready handshake.
package iir

import (
	"fmt"
	"math"

	"github.com/jeongseonghan/dsp-accel/internal/fixed"
)

// Coefficients holds the section's transfer function with a0 normalized to 1
// and not stored:
//
//	y  = b0*x + d0
//	d0 = b1*x - a1*y + d1
//	d1 = b2*x - a2*y
type Coefficients struct {
	B0, B1, B2 float64
	A1, A2     float64
}

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

// Section is a single biquad with quantized coefficients and wide delay
// state. Coefficients keep the sample's fractional scale but a full 32-bit
// container, since stable filters routinely need |a1| up to 2. The delay
// elements are held at double scale (2·Frac fractional bits) so feedback
// accumulates at extended precision; the output is narrowed once per sample.
type Section struct {
	format   fixed.Format
	saturate bool

	b0, b1, b2 int32
	a1, a2     int32

	d0, d1 int64

	staged int32
	valid  bool
}

// New quantizes the coefficients and returns a section with zero state.
func New(format fixed.Format, c Coefficients, saturate bool) (*Section, error) {
	if err := format.Validate(); err != nil {
		return nil, fmt.Errorf("iir: %w", err)
	}
	cf := fixed.Format{Width: 32, Frac: format.Frac}
	return &Section{
		format:   format,
		saturate: saturate,
		b0:       cf.FromFloat(c.B0),
		b1:       cf.FromFloat(c.B1),
		b2:       cf.FromFloat(c.B2),
		a1:       cf.FromFloat(c.A1),
		a2:       cf.FromFloat(c.A2),
	}, nil
}

// Tick advances the section one synchronous step with the same slot
// discipline as the other blocks: reset first, one accepted input fills the
// slot, the staged output holds until taken.
func (s *Section) Tick(in In) Out {
	if in.Reset {
		s.Reset()
		return Out{}
	}

	out := Out{InReady: !s.valid, OutValid: s.valid, Out: s.staged}

	if out.OutValid && in.OutReady {
		s.valid = false
	}
	if out.InReady && in.InValid {
		s.staged = s.process(in.In)
		s.valid = true
	}
	return out
}

// ProcessBlock filters a block directly, bypassing the handshake.
func (s *Section) ProcessBlock(block []int32) []int32 {
	out := make([]int32, len(block))
	for i, x := range block {
		out[i] = s.process(x)
	}
	return out
}

func (s *Section) process(x int32) int32 {
	frac := uint(s.format.Frac)

	// d0/d1 carry 2·Frac fractional bits; products of a Frac-scaled
	// coefficient and a Frac-scaled sample land on the same scale.
	y := s.format.Narrow((int64(s.b0)*int64(x)+s.d0)>>frac, s.saturate)
	s.d0 = int64(s.b1)*int64(x) - int64(s.a1)*int64(y) + s.d1
	s.d1 = int64(s.b2)*int64(x) - int64(s.a2)*int64(y)
	return y
}

// Reset clears the delay state and the output slot.
func (s *Section) Reset() {
	s.d0 = 0
	s.d1 = 0
	s.staged = 0
	s.valid = false
}

// State returns the wide delay elements, for inspection in tests.
func (s *Section) State() [2]int64 {
	return [2]int64{s.d0, s.d1}
}

// Lowpass returns Butterworth biquad lowpass coefficients with the cutoff
// given as a fraction of Nyquist (0 < cutoff < 1), the same convention as
// the FIR tap designer.
func Lowpass(cutoff float64) Coefficients {
	w0 := math.Pi * cutoff
	alpha := math.Sin(w0) / math.Sqrt2
	cosw0 := math.Cos(w0)
	a0 := 1 + alpha
	return Coefficients{
		B0: (1 - cosw0) / 2 / a0,
		B1: (1 - cosw0) / a0,
		B2: (1 - cosw0) / 2 / a0,
		A1: -2 * cosw0 / a0,
		A2: (1 - alpha) / a0,
	}
}
