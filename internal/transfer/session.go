package transfer

import (
	"fmt"
	"log"

	"github.com/jeongseonghan/dsp-accel/internal/fec"
)

// Session is the register-level face of the accelerator: it accepts encoded
// frames, executes the exchange they request against the driver, and returns
// the encoded response frame. Sequence numbers echo the request so the host
// can match responses to blocks.
type Session struct {
	driver *Driver
	coder  *fec.BlockCoder // nil disables Reed-Solomon armor

	exchanges int
	errors    int
}

// NewSession wraps a driver. coder may be nil for links that need no armor.
func NewSession(driver *Driver, coder *fec.BlockCoder) *Session {
	return &Session{driver: driver, coder: coder}
}

// Handle decodes one request frame, runs it, and returns the encoded
// response. LOAD runs a full transform cycle and answers with RESULT; RESET
// resets the core and answers with STATUS.
func (s *Session) Handle(request []byte) ([]byte, error) {
	frame, err := BytesToFrame(request, s.coder)
	if err != nil {
		s.errors++
		return nil, fmt.Errorf("decode request: %w", err)
	}

	switch frame.Type {
	case TypeLoad:
		return s.handleLoad(frame)
	case TypeReset:
		s.driver.Reset()
		s.exchanges++
		return FrameToBytes(&Frame{Type: TypeStatus, Seq: frame.Seq}, s.coder)
	default:
		s.errors++
		return nil, fmt.Errorf("unexpected frame type %s", frame.TypeName())
	}
}

func (s *Session) handleLoad(frame *Frame) ([]byte, error) {
	if int(frame.Count) != s.driver.N() {
		s.errors++
		return nil, fmt.Errorf("load frame carries %d samples, core needs %d", frame.Count, s.driver.N())
	}

	result, err := s.driver.Transform(frame.Samples)
	if err != nil {
		s.errors++
		return nil, fmt.Errorf("transform block seq=%d: %w", frame.Seq, err)
	}

	s.exchanges++
	log.Printf("transfer: block seq=%d transformed (%d samples)", frame.Seq, len(result))
	return FrameToBytes(NewResultFrame(frame.Seq, result), s.coder)
}

// Stats returns the exchange and error counters.
func (s *Session) Stats() (exchanges, errors int) {
	return s.exchanges, s.errors
}
