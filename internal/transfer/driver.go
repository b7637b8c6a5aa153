package transfer

import (
	"fmt"

	"github.com/jeongseonghan/dsp-accel/internal/fft"
	"github.com/jeongseonghan/dsp-accel/internal/fixed"
)

// Stats counts driver-level events.
type Stats struct {
	BlocksLoaded  int
	BlocksDrained int
	StallTicks    int
	Resets        int
}

// Driver is the bulk transfer engine: it owns one core and moves whole
// blocks through the streaming handshake, one tick at a time, stalling where
// the core stalls. A tick budget bounds every operation so a wedged exchange
// surfaces as an error instead of a livelock.
type Driver struct {
	core     *fft.Core
	maxTicks int
	stats    Stats

	// OnProgress, when set, is called after each accepted sample with the
	// number moved so far and the block size.
	OnProgress func(moved, total int)
}

// NewDriver wraps a core. The tick budget is derived from the transform
// size: a full compute pass plus generous handshake slack per block.
func NewDriver(core *fft.Core) *Driver {
	n := core.N()
	return &Driver{
		core:     core,
		maxTicks: 8*n*fft.MaxLogN + 64,
	}
}

// LoadBlock streams exactly N samples into the core, one accepted transfer
// per tick while the loader is ready.
func (d *Driver) LoadBlock(block []fixed.Complex) error {
	n := d.core.N()
	if len(block) != n {
		return fmt.Errorf("load block: got %d samples, core needs %d", len(block), n)
	}

	loaded := 0
	for ticks := 0; loaded < n; ticks++ {
		if ticks >= d.maxTicks {
			return fmt.Errorf("load block: stalled after %d ticks in phase %v", ticks, d.core.Phase())
		}
		out := d.core.Tick(fft.CoreIn{InValid: true, In: block[loaded]})
		if out.InReady {
			loaded++
			if d.OnProgress != nil {
				d.OnProgress(loaded, n)
			}
		} else {
			d.stats.StallTicks++
		}
	}
	d.stats.BlocksLoaded++
	return nil
}

// Arm issues the arm request and verifies the core took it. A refused arm
// means the load cursor was short of N; the core ignores it silently, so the
// driver is where the host learns about it.
func (d *Driver) Arm() error {
	d.core.Tick(fft.CoreIn{Arm: true})
	if phase := d.core.Phase(); phase != fft.Computing {
		return fmt.Errorf("arm ignored: core still %v", phase)
	}
	return nil
}

// DrainBlock collects exactly N results, holding ready asserted and waiting
// out the compute phase.
func (d *Driver) DrainBlock() ([]fixed.Complex, error) {
	n := d.core.N()
	block := make([]fixed.Complex, 0, n)

	for ticks := 0; len(block) < n; ticks++ {
		if ticks >= d.maxTicks {
			return nil, fmt.Errorf("drain block: stalled after %d ticks in phase %v", ticks, d.core.Phase())
		}
		out := d.core.Tick(fft.CoreIn{OutReady: true})
		if out.OutValid {
			block = append(block, out.Out)
			if d.OnProgress != nil {
				d.OnProgress(len(block), n)
			}
		} else {
			d.stats.StallTicks++
		}
	}
	d.stats.BlocksDrained++
	return block, nil
}

// Transform runs one full load, arm, drain cycle and returns the
// transformed block.
func (d *Driver) Transform(block []fixed.Complex) ([]fixed.Complex, error) {
	if err := d.LoadBlock(block); err != nil {
		return nil, err
	}
	if err := d.Arm(); err != nil {
		return nil, err
	}
	return d.DrainBlock()
}

// Reset issues a synchronous reset tick.
func (d *Driver) Reset() {
	d.core.Tick(fft.CoreIn{Reset: true})
	d.stats.Resets++
}

// N returns the wrapped core's transform size.
func (d *Driver) N() int { return d.core.N() }

// Format returns the wrapped core's sample format.
func (d *Driver) Format() fixed.Format { return d.core.Format() }

// Phase returns the wrapped core's current phase.
func (d *Driver) Phase() fft.Phase { return d.core.Phase() }

// Stats returns driver counters alongside the core's own.
func (d *Driver) Stats() (Stats, fft.Stats) {
	return d.stats, d.core.Stats()
}
