// Package transfer models the host-side bulk mover that feeds and drains
// the accelerator streams: a sample frame format with CRC-32 integrity and
// optional Reed-Solomon armor, and a driver that moves whole blocks through
// the core's handshake.
package transfer

import (
	"encoding/binary"
	"fmt"

	"github.com/jeongseonghan/dsp-accel/internal/fec"
	"github.com/jeongseonghan/dsp-accel/internal/fixed"
)

// Frame types
const (
	TypeLoad   byte = 0x01 // host -> accelerator: one full sample block
	TypeResult byte = 0x02 // accelerator -> host: one transformed block
	TypeStatus byte = 0x03 // accelerator -> host: phase and counters
	TypeReset  byte = 0x04 // host -> accelerator: synchronous reset
)

// Frame layout. Count is 32-bit so a frame can carry a full block at the
// largest transform size (LogN 16 means 65536 samples, one past uint16).
const (
	HeaderSize = 6 // Type(1) Seq(1) Count(4)
	SampleSize = 8 // Re(4) Im(4)
	CRCSize    = 4
)

// Frame is one unit of bulk transfer.
// Format: [Type(1B)][Seq(1B)][Count(4B)][samples: Re,Im int32 BE][CRC-32(4B)]
type Frame struct {
	Type    byte
	Seq     byte
	Count   uint32
	Samples []fixed.Complex
}

// TypeName returns a human-readable name for the frame type.
func (f *Frame) TypeName() string {
	switch f.Type {
	case TypeLoad:
		return "LOAD"
	case TypeResult:
		return "RESULT"
	case TypeStatus:
		return "STATUS"
	case TypeReset:
		return "RESET"
	default:
		return fmt.Sprintf("UNKNOWN(0x%02x)", f.Type)
	}
}

// NewLoadFrame creates a LOAD frame carrying one full sample block.
func NewLoadFrame(seq byte, samples []fixed.Complex) *Frame {
	return &Frame{
		Type:    TypeLoad,
		Seq:     seq,
		Count:   uint32(len(samples)),
		Samples: samples,
	}
}

// NewResultFrame creates a RESULT frame carrying one transformed block.
func NewResultFrame(seq byte, samples []fixed.Complex) *Frame {
	return &Frame{
		Type:    TypeResult,
		Seq:     seq,
		Count:   uint32(len(samples)),
		Samples: samples,
	}
}

// NewResetFrame creates a RESET frame.
func NewResetFrame(seq byte) *Frame {
	return &Frame{Type: TypeReset, Seq: seq}
}

// Encode serializes the frame with a trailing CRC-32.
func (f *Frame) Encode() []byte {
	buf := make([]byte, HeaderSize+int(f.Count)*SampleSize)

	buf[0] = f.Type
	buf[1] = f.Seq
	binary.BigEndian.PutUint32(buf[2:6], f.Count)

	for i, s := range f.Samples[:f.Count] {
		off := HeaderSize + i*SampleSize
		binary.BigEndian.PutUint32(buf[off:off+4], uint32(s.Re))
		binary.BigEndian.PutUint32(buf[off+4:off+8], uint32(s.Im))
	}
	return fec.AppendCRC32(buf)
}

// DecodeFrame deserializes a frame, verifying its CRC-32. Trailing bytes
// beyond the frame (for example Reed-Solomon padding) are ignored.
func DecodeFrame(data []byte) (*Frame, error) {
	if len(data) < HeaderSize+CRCSize {
		return nil, fmt.Errorf("frame too short: %d bytes", len(data))
	}

	f := &Frame{
		Type:  data[0],
		Seq:   data[1],
		Count: binary.BigEndian.Uint32(data[2:6]),
	}

	expectedLen := HeaderSize + int(f.Count)*SampleSize + CRCSize
	if len(data) < expectedLen {
		return nil, fmt.Errorf("frame truncated: have %d, need %d", len(data), expectedLen)
	}

	if _, ok := fec.VerifyCRC32(data[:expectedLen]); !ok {
		return nil, fmt.Errorf("frame CRC mismatch")
	}

	if f.Count > 0 {
		f.Samples = make([]fixed.Complex, f.Count)
		for i := range f.Samples {
			off := HeaderSize + i*SampleSize
			f.Samples[i] = fixed.Complex{
				Re: int32(binary.BigEndian.Uint32(data[off : off+4])),
				Im: int32(binary.BigEndian.Uint32(data[off+4 : off+8])),
			}
		}
	}
	return f, nil
}

// FrameToBytes encodes a frame for the link, adding Reed-Solomon armor when
// a coder is supplied.
func FrameToBytes(f *Frame, coder *fec.BlockCoder) ([]byte, error) {
	raw := f.Encode()
	if coder == nil {
		return raw, nil
	}
	armored, err := coder.Encode(raw)
	if err != nil {
		return nil, fmt.Errorf("rs armor: %w", err)
	}
	return armored, nil
}

// BytesToFrame decodes link bytes back into a frame, stripping Reed-Solomon
// armor when a coder is supplied.
func BytesToFrame(data []byte, coder *fec.BlockCoder) (*Frame, error) {
	raw := data
	if coder != nil {
		var err error
		raw, err = coder.Decode(data, nil)
		if err != nil {
			return nil, fmt.Errorf("rs unarmor: %w", err)
		}
	}
	return DecodeFrame(raw)
}
