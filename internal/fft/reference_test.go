package fft

import (
	"math"
	"math/cmplx"

	"github.com/jeongseonghan/dsp-accel/internal/fixed"
)

// refFFT computes a float64 radix-2 FFT in natural order, used as the
// reference model the fixed-point engine is checked against.
func refFFT(x []complex128) []complex128 {
	n := len(x)
	out := make([]complex128, n)
	copy(out, x)
	if n <= 1 {
		return out
	}

	bits := 0
	for tmp := n; tmp > 1; tmp >>= 1 {
		bits++
	}
	for i := 0; i < n; i++ {
		j := reverseBits(i, bits)
		if i < j {
			out[i], out[j] = out[j], out[i]
		}
	}

	for size := 2; size <= n; size <<= 1 {
		halfSize := size >> 1
		wn := cmplx.Exp(complex(0, -2*math.Pi/float64(size)))
		for start := 0; start < n; start += size {
			w := complex(1, 0)
			for j := 0; j < halfSize; j++ {
				u := out[start+j]
				v := w * out[start+j+halfSize]
				out[start+j] = u + v
				out[start+j+halfSize] = u - v
				w *= wn
			}
		}
	}
	return out
}

// quantize converts float pairs to fixed samples in the given format.
func quantize(format fixed.Format, values []complex128) []fixed.Complex {
	out := make([]fixed.Complex, len(values))
	for i, v := range values {
		out[i] = format.FromFloats(real(v), imag(v))
	}
	return out
}

// toFloats converts fixed samples back to complex128.
func toFloats(format fixed.Format, samples []fixed.Complex) []complex128 {
	out := make([]complex128, len(samples))
	for i, s := range samples {
		re, im := format.ToFloats(s)
		out[i] = complex(re, im)
	}
	return out
}
