package fft

import "github.com/jeongseonghan/dsp-accel/internal/fixed"

// wide is a complex intermediate carried at extended precision. All butterfly
// arithmetic stays wide from the first stage to the last; values are narrowed
// back to the sample format exactly once, when the pass completes.
type wide struct {
	re, im int64
}

// Stepper iterates the radix-2 decimation-in-time butterfly recurrence one
// butterfly per Step call. It works on a wide copy of the sample buffer and
// writes the narrowed result back only after the final stage, so the buffer
// never holds partially transformed data at reduced precision.
//
// The input buffer must already be in bit-reversed order (see Permute).
type Stepper struct {
	buf      []fixed.Complex
	work     []wide
	tw       *Table
	format   fixed.Format
	saturate bool
	logn     int

	stage  int // 1..logn
	group  int // start index of the current butterfly group
	offset int // 0..half-1 within the group
	done   bool
}

// NewStepper prepares an incremental transform over buf, whose length must
// equal the table's transform size.
func NewStepper(buf []fixed.Complex, tw *Table, format fixed.Format, saturate bool) *Stepper {
	work := make([]wide, len(buf))
	for i, c := range buf {
		work[i] = wide{re: int64(c.Re), im: int64(c.Im)}
	}
	return &Stepper{
		buf:      buf,
		work:     work,
		tw:       tw,
		format:   format,
		saturate: saturate,
		logn:     tw.logn,
		stage:    1,
	}
}

// Step executes one butterfly and advances the (stage, group, offset)
// position. It returns false once the transform has completed and the result
// has been written back; calling Step again after that is a no-op.
func (s *Stepper) Step() bool {
	if s.done {
		return false
	}

	half := 1 << uint(s.stage-1)
	i := s.group + s.offset
	j := i + half

	w := s.tw.Lookup(s.stage, s.offset)
	top := s.work[i]
	bot := s.work[j]

	// product = bottom * twiddle, kept wide
	pr, pi := fixed.Mul(bot.re, bot.im, w, s.format.Frac)

	s.work[i] = wide{re: top.re + pr, im: top.im + pi}
	s.work[j] = wide{re: top.re - pr, im: top.im - pi}

	s.advance()
	if s.done {
		s.flush()
	}
	return true
}

// Done reports whether the full pass has completed.
func (s *Stepper) Done() bool {
	return s.done
}

// advance moves to the next (offset, group, stage) position.
func (s *Stepper) advance() {
	half := 1 << uint(s.stage-1)
	groupLen := half << 1
	n := len(s.work)

	s.offset++
	if s.offset < half {
		return
	}
	s.offset = 0
	s.group += groupLen
	if s.group < n {
		return
	}
	s.group = 0
	s.stage++
	if s.stage > s.logn {
		s.done = true
	}
}

// flush narrows the wide intermediates back into the sample buffer. This is
// the single point where precision is lost; the narrowing mode (wrap or
// saturate) is fixed per instance.
func (s *Stepper) flush() {
	for i, v := range s.work {
		s.buf[i] = fixed.Complex{
			Re: s.format.Narrow(v.re, s.saturate),
			Im: s.format.Narrow(v.im, s.saturate),
		}
	}
}

// Transform runs the complete pass over buf as one atomic unit. It is
// equivalent to stepping a Stepper to completion.
func Transform(buf []fixed.Complex, tw *Table, format fixed.Format, saturate bool) {
	s := NewStepper(buf, tw, format, saturate)
	for s.Step() {
	}
}

// Permute reorders buf into bit-reversed index order in place. Applying it
// before the butterfly pass makes the drained output a correctly ordered
// discrete Fourier transform.
func Permute(buf []fixed.Complex) {
	n := len(buf)
	bits := 0
	for tmp := n; tmp > 1; tmp >>= 1 {
		bits++
	}
	for i := 0; i < n; i++ {
		j := reverseBits(i, bits)
		if i < j {
			buf[i], buf[j] = buf[j], buf[i]
		}
	}
}

func reverseBits(x, bits int) int {
	result := 0
	for i := 0; i < bits; i++ {
		result = (result << 1) | (x & 1)
		x >>= 1
	}
	return result
}
