// Package fft models the streaming FFT accelerator block: a sample buffer,
// a precomputed twiddle table, an incremental radix-2 transform engine, and
// the three-phase control state machine that sequences them behind a pair of
// valid/ready stream ports.
package fft

import (
	"errors"
	"fmt"

	"github.com/jeongseonghan/dsp-accel/internal/fixed"
)

// Configuration limits.
const (
	MinLogN = 1
	MaxLogN = 16 // twiddle table stays under 64K entries
)

// Sentinel errors returned by NewCore.
var (
	// ErrInvalidLogN is returned when the transform size exponent is out of
	// the supported range.
	ErrInvalidLogN = errors.New("fft: invalid transform size exponent")

	// ErrBadFormat is returned when the sample format does not validate.
	ErrBadFormat = errors.New("fft: invalid sample format")
)

// Config fixes the per-instance parameters: transform size 2^LogN, the
// fixed-point sample format, and the narrowing mode applied when the engine
// writes results back. The zero Format selects Q1.15.
type Config struct {
	LogN     int
	Format   fixed.Format
	Saturate bool
}

// Phase is the control state machine state.
type Phase int

const (
	Loading Phase = iota
	Computing
	Draining
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case Loading:
		return "LOADING"
	case Computing:
		return "COMPUTING"
	case Draining:
		return "DRAINING"
	default:
		return "UNKNOWN"
	}
}

// CoreIn carries the input signals sampled on one tick.
type CoreIn struct {
	Reset    bool // synchronous, overrides everything else this tick
	Arm      bool // request to start the transform
	InValid  bool // producer offers In
	In       fixed.Complex
	OutReady bool // consumer accepts the staged result
}

// CoreOut carries the output signals driven during one tick, derived from
// the state the machine held when the tick began.
type CoreOut struct {
	InReady  bool // loader accepts a sample this tick
	Busy     bool // asserted throughout Computing
	Done     bool // asserted throughout Draining
	OutValid bool // Out holds a staged result
	Out      fixed.Complex
}

// Stats counts externally observable events since construction. The counters
// are diagnostics only; they survive reset and never influence behavior.
type Stats struct {
	Ticks       int
	SamplesIn   int
	SamplesOut  int
	Transforms  int
	ArmsIgnored int
}

// Core is one accelerator instance. It is driven synchronously: the host
// calls Tick once per cycle with the input signals and reads back the output
// signals. The sample buffer is owned exclusively by the core and its access
// is gated by phase — the loader writes it, the engine rewrites it in place,
// the drain reads it — so the phases never contend.
type Core struct {
	cfg     Config
	n       int
	buf     []fixed.Complex
	tw      *Table
	phase   Phase
	cursor  int // load cursor while Loading, drain cursor while Draining
	stepper *Stepper
	stats   Stats
}

// NewCore validates cfg and builds an idle core in the Loading phase with
// its twiddle table precomputed.
func NewCore(cfg Config) (*Core, error) {
	if cfg.LogN < MinLogN || cfg.LogN > MaxLogN {
		return nil, fmt.Errorf("%w: %d not in [%d,%d]", ErrInvalidLogN, cfg.LogN, MinLogN, MaxLogN)
	}
	if cfg.Format == (fixed.Format{}) {
		cfg.Format = fixed.Q15
	}
	if err := cfg.Format.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadFormat, err)
	}

	n := 1 << uint(cfg.LogN)
	return &Core{
		cfg:   cfg,
		n:     n,
		buf:   make([]fixed.Complex, n),
		tw:    NewTable(cfg.LogN, cfg.Format),
		phase: Loading,
	}, nil
}

// Tick advances the machine by one synchronous step. Reset has highest
// priority: a reset tick returns to Loading with cleared cursors and all
// handshake outputs deasserted, regardless of phase. Otherwise the outputs
// reflect the phase held at the start of the tick, and a stream transfer
// occurs exactly when the matching valid and ready are both asserted within
// the tick.
func (c *Core) Tick(in CoreIn) CoreOut {
	c.stats.Ticks++

	if in.Reset {
		c.phase = Loading
		c.cursor = 0
		c.stepper = nil
		return CoreOut{}
	}

	var out CoreOut
	switch c.phase {
	case Loading:
		out.InReady = c.cursor < c.n
		if out.InReady && in.InValid {
			c.buf[c.cursor] = in.In
			c.cursor++
			c.stats.SamplesIn++
		}
		if in.Arm {
			if c.cursor == c.n {
				Permute(c.buf)
				c.stepper = NewStepper(c.buf, c.tw, c.cfg.Format, c.cfg.Saturate)
				c.phase = Computing
				c.cursor = 0
			} else {
				c.stats.ArmsIgnored++
			}
		}

	case Computing:
		out.Busy = true
		c.stepper.Step()
		if c.stepper.Done() {
			c.stepper = nil
			c.phase = Draining
			c.cursor = 0
			c.stats.Transforms++
		}

	case Draining:
		out.Done = true
		out.OutValid = true
		out.Out = c.buf[c.cursor]
		if in.OutReady {
			c.cursor++
			c.stats.SamplesOut++
			if c.cursor == c.n {
				c.phase = Loading
				c.cursor = 0
			}
		}
	}

	return out
}

// N returns the transform size.
func (c *Core) N() int { return c.n }

// Format returns the instance's sample format.
func (c *Core) Format() fixed.Format { return c.cfg.Format }

// Phase returns the current control phase.
func (c *Core) Phase() Phase { return c.phase }

// Stats returns the event counters.
func (c *Core) Stats() Stats { return c.stats }
