package fft

import (
	"math"

	"github.com/jeongseonghan/dsp-accel/internal/fixed"
)

// Table holds the N/2 precomputed rotation factors for an N-point transform.
// Entry j is e^(-2πi·j/N) quantized to the configured sample format. The
// table is built once per configuration; lookups are table reads only, no
// trigonometric evaluation happens after construction.
type Table struct {
	logn    int
	factors []fixed.Complex
}

// NewTable builds the twiddle table for a 2^logn-point transform.
func NewTable(logn int, format fixed.Format) *Table {
	n := 1 << uint(logn)
	factors := make([]fixed.Complex, n/2)
	for j := range factors {
		angle := -2 * math.Pi * float64(j) / float64(n)
		factors[j] = format.FromFloats(math.Cos(angle), math.Sin(angle))
	}
	return &Table{logn: logn, factors: factors}
}

// Lookup returns the rotation factor for butterfly offset s within stage k
// (stages count from 1). The angle is -2π·s/2^k, which maps to table entry
// s·2^(logn-k).
func (t *Table) Lookup(stage, offset int) fixed.Complex {
	return t.factors[offset<<uint(t.logn-stage)]
}

// Size returns the number of table entries (N/2).
func (t *Table) Size() int {
	return len(t.factors)
}
