package fft

import (
	"math/rand"
	"testing"

	"github.com/jeongseonghan/dsp-accel/internal/fixed"
)

func newTestCore(t *testing.T, logn int) *Core {
	t.Helper()
	c, err := NewCore(Config{LogN: logn})
	if err != nil {
		t.Fatalf("NewCore: %v", err)
	}
	return c
}

// loadAll feeds samples one per tick and fails if the core refuses any.
func loadAll(t *testing.T, c *Core, samples []fixed.Complex) {
	t.Helper()
	for i, s := range samples {
		out := c.Tick(CoreIn{InValid: true, In: s})
		if !out.InReady {
			t.Fatalf("sample %d: InReady deasserted during load", i)
		}
		if out.Busy || out.Done || out.OutValid {
			t.Fatalf("sample %d: status asserted during load: %+v", i, out)
		}
	}
}

// runCompute arms the core and ticks it through Computing, returning the
// number of busy ticks.
func runCompute(t *testing.T, c *Core) int {
	t.Helper()
	if out := c.Tick(CoreIn{Arm: true}); out.Busy || out.Done {
		t.Fatalf("arm tick shows %+v, status must lag one tick", out)
	}
	busy := 0
	for c.Phase() == Computing {
		out := c.Tick(CoreIn{})
		if !out.Busy {
			t.Fatal("Busy deasserted while Computing")
		}
		if out.OutValid || out.InReady {
			t.Fatalf("stream signals asserted while Computing: %+v", out)
		}
		busy++
	}
	return busy
}

func TestNewCore_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		ok   bool
	}{
		{"minimum size", Config{LogN: 1}, true},
		{"default format", Config{LogN: 4}, true},
		{"explicit format", Config{LogN: 4, Format: fixed.Format{Width: 24, Frac: 20}}, true},
		{"zero exponent", Config{LogN: 0}, false},
		{"oversized exponent", Config{LogN: 17}, false},
		{"broken format", Config{LogN: 4, Format: fixed.Format{Width: 40, Frac: 2}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCore(tt.cfg)
			if (err == nil) != tt.ok {
				t.Errorf("NewCore(%+v) error = %v, want ok=%v", tt.cfg, err, tt.ok)
			}
		})
	}
}

func TestCore_FullCycle(t *testing.T) {
	const logn = 2
	c := newTestCore(t, logn)
	n := c.N()

	input := quantize(c.Format(), []complex128{0.5, 0, 0, 0})
	loadAll(t, c, input)

	// Loader must refuse further samples once full.
	if out := c.Tick(CoreIn{InValid: true, In: fixed.Complex{Re: 99}}); out.InReady {
		t.Error("InReady still asserted after N samples")
	}

	busy := runCompute(t, c)
	if want := n / 2 * logn; busy != want {
		t.Errorf("busy for %d ticks, want %d", busy, want)
	}

	// Drain: impulse transforms to a constant sequence of (0.5, 0).
	want := c.Format().FromFloat(0.5)
	for i := 0; i < n; i++ {
		out := c.Tick(CoreIn{OutReady: true})
		if !out.Done || !out.OutValid {
			t.Fatalf("drain %d: Done/OutValid deasserted: %+v", i, out)
		}
		if out.Busy {
			t.Errorf("drain %d: Busy still asserted", i)
		}
		if abs32(out.Out.Re-want) > 1 || abs32(out.Out.Im) > 1 {
			t.Errorf("drain %d = %+v, want (%d, 0) within 1 ulp", i, out.Out, want)
		}
	}

	// Back to Loading, accepting a fresh block.
	if c.Phase() != Loading {
		t.Fatalf("phase after drain = %v, want LOADING", c.Phase())
	}
	if out := c.Tick(CoreIn{InValid: true, In: input[0]}); !out.InReady || out.Done {
		t.Errorf("fresh load refused after completed cycle: %+v", out)
	}

	st := c.Stats()
	if st.SamplesIn != n+1 || st.SamplesOut != n || st.Transforms != 1 {
		t.Errorf("stats = %+v", st)
	}
}

func TestCore_PrematureArmIgnored(t *testing.T) {
	c := newTestCore(t, 3)

	c.Tick(CoreIn{InValid: true, In: fixed.Complex{Re: 1}})
	c.Tick(CoreIn{Arm: true})

	if c.Phase() != Loading {
		t.Fatalf("premature arm left phase %v", c.Phase())
	}
	if got := c.Stats().ArmsIgnored; got != 1 {
		t.Errorf("ArmsIgnored = %d, want 1", got)
	}
	// The machine keeps loading as if nothing happened.
	if out := c.Tick(CoreIn{InValid: true, In: fixed.Complex{Re: 2}}); !out.InReady {
		t.Error("InReady lost after ignored arm")
	}
}

func TestCore_ArmWithFinalSample(t *testing.T) {
	// Arm asserted on the same tick the Nth sample is accepted must take
	// effect: the cursor reaches N before the arm is evaluated.
	c := newTestCore(t, 1)
	c.Tick(CoreIn{InValid: true, In: fixed.Complex{Re: 100}})
	c.Tick(CoreIn{InValid: true, In: fixed.Complex{Re: 200}, Arm: true})
	if c.Phase() != Computing {
		t.Fatalf("phase = %v, want COMPUTING", c.Phase())
	}
}

func TestCore_DrainBackpressure(t *testing.T) {
	c := newTestCore(t, 2)
	loadAll(t, c, quantize(c.Format(), []complex128{0.25, 0.1, -0.2, 0.05}))
	runCompute(t, c)

	// Consumer withholds readiness: the staged value must hold bit-identical
	// and the cursor must not advance.
	first := c.Tick(CoreIn{}).Out
	for i := 0; i < 50; i++ {
		out := c.Tick(CoreIn{})
		if !out.OutValid || !out.Done {
			t.Fatalf("tick %d: OutValid/Done dropped under backpressure", i)
		}
		if out.Out != first {
			t.Fatalf("tick %d: staged value changed %+v -> %+v", i, first, out.Out)
		}
	}
	if c.Phase() != Draining {
		t.Errorf("phase = %v, want DRAINING while stalled", c.Phase())
	}
	if c.Stats().SamplesOut != 0 {
		t.Errorf("SamplesOut = %d under full backpressure", c.Stats().SamplesOut)
	}
}

func TestCore_DrainRandomBackpressure(t *testing.T) {
	// Arbitrary ready patterns must yield the exact buffer sequence, no
	// skips, no duplicates.
	const logn = 4
	c := newTestCore(t, logn)
	n := c.N()
	format := c.Format()
	rng := rand.New(rand.NewSource(3))

	input := make([]fixed.Complex, n)
	for i := range input {
		input[i] = fixed.Complex{Re: int32(rng.Intn(2000) - 1000), Im: int32(rng.Intn(2000) - 1000)}
	}

	// Expected result via the atomic engine path.
	want := make([]fixed.Complex, n)
	copy(want, input)
	Permute(want)
	Transform(want, NewTable(logn, format), format, false)

	loadAll(t, c, input)
	runCompute(t, c)

	var got []fixed.Complex
	for len(got) < n {
		ready := rng.Intn(3) == 0
		out := c.Tick(CoreIn{OutReady: ready})
		if !out.OutValid {
			t.Fatal("OutValid deasserted mid-drain")
		}
		if ready {
			got = append(got, out.Out)
		}
	}

	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("drained[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestCore_ResetEveryPhase(t *testing.T) {
	newLoaded := func(t *testing.T) *Core {
		c := newTestCore(t, 2)
		loadAll(t, c, quantize(c.Format(), []complex128{0.1, 0.2, 0.3, 0.4}))
		return c
	}

	tests := []struct {
		name string
		prep func(t *testing.T) *Core
	}{
		{"during loading", func(t *testing.T) *Core {
			c := newTestCore(t, 2)
			c.Tick(CoreIn{InValid: true, In: fixed.Complex{Re: 5}})
			return c
		}},
		{"during computing", func(t *testing.T) *Core {
			c := newLoaded(t)
			c.Tick(CoreIn{Arm: true})
			c.Tick(CoreIn{})
			return c
		}},
		{"during draining", func(t *testing.T) *Core {
			c := newLoaded(t)
			runCompute(t, c)
			c.Tick(CoreIn{})
			return c
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := tt.prep(t)

			out := c.Tick(CoreIn{Reset: true})
			if out.Busy || out.Done || out.OutValid || out.InReady {
				t.Errorf("reset tick outputs not cleared: %+v", out)
			}
			if c.Phase() != Loading {
				t.Errorf("phase after reset = %v, want LOADING", c.Phase())
			}

			// Next tick: an idle loader, cursor back at 0, so a full fresh
			// block is accepted.
			out = c.Tick(CoreIn{})
			if !out.InReady || out.Busy || out.Done || out.OutValid {
				t.Errorf("post-reset tick = %+v, want bare InReady", out)
			}
			loadAll(t, c, quantize(c.Format(), []complex128{0, 0, 0, 0}))
		})
	}
}

func TestCore_ResetOverridesArm(t *testing.T) {
	// Reset and arm on the same tick: reset wins unconditionally.
	c := newTestCore(t, 2)
	loadAll(t, c, quantize(c.Format(), []complex128{0.1, 0.2, 0.3, 0.4}))
	c.Tick(CoreIn{Reset: true, Arm: true})
	if c.Phase() != Loading {
		t.Fatalf("phase = %v, want LOADING", c.Phase())
	}
}

func TestCore_Determinism(t *testing.T) {
	run := func() []fixed.Complex {
		c := newTestCore(t, 3)
		n := c.N()
		input := make([]fixed.Complex, n)
		for i := range input {
			input[i] = fixed.Complex{Re: int32(i * 100), Im: int32(-i * 50)}
		}
		loadAll(t, c, input)
		runCompute(t, c)

		out := make([]fixed.Complex, 0, n)
		for len(out) < n {
			o := c.Tick(CoreIn{OutReady: true})
			out = append(out, o.Out)
		}
		return out
	}

	a, b := run(), run()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("output %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestCore_SecondCycleOverwritesBuffer(t *testing.T) {
	// No state from a completed cycle may leak into the next one: a second
	// block must produce the same result as a fresh core given that block.
	c := newTestCore(t, 2)

	cycle := func(core *Core, vals []complex128) []fixed.Complex {
		loadAll(t, core, quantize(core.Format(), vals))
		runCompute(t, core)
		out := make([]fixed.Complex, 0, core.N())
		for len(out) < core.N() {
			out = append(out, core.Tick(CoreIn{OutReady: true}).Out)
		}
		return out
	}

	cycle(c, []complex128{0.5, -0.5, 0.5, -0.5})
	second := cycle(c, []complex128{0.1, 0.2, 0.3, 0.4})

	fresh := newTestCore(t, 2)
	want := cycle(fresh, []complex128{0.1, 0.2, 0.3, 0.4})

	for i := range want {
		if second[i] != want[i] {
			t.Fatalf("bin %d: reused core %+v, fresh core %+v", i, second[i], want[i])
		}
	}
}

func TestPhase_String(t *testing.T) {
	tests := []struct {
		phase Phase
		want  string
	}{
		{Loading, "LOADING"},
		{Computing, "COMPUTING"},
		{Draining, "DRAINING"},
		{Phase(42), "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := tt.phase.String(); got != tt.want {
			t.Errorf("Phase(%d).String() = %q, want %q", tt.phase, got, tt.want)
		}
	}
}
