// Package fixed implements the signed fixed-point sample arithmetic used by
// the accelerator blocks. Samples are stored as raw two's-complement integers
// in an int32 container; the Format decides how many of those bits are live
// and where the binary point sits.
package fixed

import "fmt"

// Format describes a signed fixed-point layout: Width total bits (sign
// included) with Frac fractional bits. The default Q1.15 gives a range of
// roughly [-1, 1) with 2^-15 resolution.
type Format struct {
	Width int
	Frac  int
}

// Q15 is the default sample format: 1 integer bit, 15 fractional bits.
var Q15 = Format{Width: 16, Frac: 15}

// Validate checks that the format fits the int32 container.
func (f Format) Validate() error {
	if f.Width < 2 || f.Width > 32 {
		return fmt.Errorf("fixed: width %d out of range [2,32]", f.Width)
	}
	if f.Frac < 0 || f.Frac >= f.Width {
		return fmt.Errorf("fixed: %d fractional bits do not fit in width %d", f.Frac, f.Width)
	}
	return nil
}

// String returns the Q-notation name, e.g. "Q1.15".
func (f Format) String() string {
	return fmt.Sprintf("Q%d.%d", f.Width-f.Frac, f.Frac)
}

// Max returns the largest representable raw value.
func (f Format) Max() int32 {
	return int32(1)<<(f.Width-1) - 1
}

// Min returns the smallest representable raw value.
func (f Format) Min() int32 {
	return -(int32(1) << (f.Width - 1))
}

// Wrap narrows an extended-precision value to the format's width by
// discarding the high bits, the reference truncation behavior.
func (f Format) Wrap(v int64) int32 {
	shift := 64 - uint(f.Width)
	return int32((v << shift) >> shift)
}

// Saturate narrows an extended-precision value to the format's width by
// clamping to the representable range.
func (f Format) Saturate(v int64) int32 {
	if v > int64(f.Max()) {
		return f.Max()
	}
	if v < int64(f.Min()) {
		return f.Min()
	}
	return int32(v)
}

// Narrow applies Wrap or Saturate depending on the saturate flag.
func (f Format) Narrow(v int64, saturate bool) int32 {
	if saturate {
		return f.Saturate(v)
	}
	return f.Wrap(v)
}

// FromFloat quantizes a real value to the format, saturating at the range
// limits. Quantization truncates toward zero.
func (f Format) FromFloat(x float64) int32 {
	scaled := int64(x * float64(int64(1)<<uint(f.Frac)))
	return f.Saturate(scaled)
}

// ToFloat converts a raw value back to its real interpretation.
func (f Format) ToFloat(raw int32) float64 {
	return float64(raw) / float64(int64(1)<<uint(f.Frac))
}

// Complex is one complex sample, both parts raw values in a common Format.
type Complex struct {
	Re int32
	Im int32
}

// FromFloats quantizes a complex value to the format.
func (f Format) FromFloats(re, im float64) Complex {
	return Complex{Re: f.FromFloat(re), Im: f.FromFloat(im)}
}

// ToFloats converts a complex sample to float parts.
func (f Format) ToFloats(c Complex) (re, im float64) {
	return f.ToFloat(c.Re), f.ToFloat(c.Im)
}

// Mul multiplies a wide complex intermediate (are, aim) by a complex sample
// in extended precision and returns the wide (un-narrowed) parts, still
// scaled by 2^Frac. The caller narrows once, after any accumulation, so a
// butterfly loses precision only at its final write-back.
func Mul(are, aim int64, b Complex, frac int) (re, im int64) {
	br, bi := int64(b.Re), int64(b.Im)
	re = (are*br - aim*bi) >> uint(frac)
	im = (are*bi + aim*br) >> uint(frac)
	return re, im
}
