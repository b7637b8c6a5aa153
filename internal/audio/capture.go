package audio

import (
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
)

// Capture defaults.
const (
	DefaultSampleRate = 44100
	framesPerBuf      = 512
)

// Capturer reads mono float32 blocks from the default input device.
type Capturer struct {
	stream *portaudio.Stream
	buf    []float32
	rate   float64
	mu     sync.Mutex
}

// NewCapturer creates a capturer at the given sample rate; rate <= 0 selects
// the default.
func NewCapturer(rate float64) *Capturer {
	if rate <= 0 {
		rate = DefaultSampleRate
	}
	return &Capturer{
		buf:  make([]float32, framesPerBuf),
		rate: rate,
	}
}

// Open opens and starts the default input stream.
func (c *Capturer) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	stream, err := portaudio.OpenDefaultStream(1, 0, c.rate, framesPerBuf, c.buf)
	if err != nil {
		return fmt.Errorf("open input stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return fmt.Errorf("start input stream: %w", err)
	}
	c.stream = stream
	return nil
}

// ReadSamples blocks until n samples have been captured.
func (c *Capturer) ReadSamples(n int) ([]float32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stream == nil {
		return nil, fmt.Errorf("input stream not opened")
	}

	result := make([]float32, 0, n)
	for len(result) < n {
		if err := c.stream.Read(); err != nil {
			return nil, fmt.Errorf("read: %w", err)
		}
		result = append(result, c.buf...)
	}
	return result[:n], nil
}

// Close stops and closes the stream.
func (c *Capturer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stream == nil {
		return nil
	}
	err := c.stream.Close()
	c.stream = nil
	if err != nil {
		return fmt.Errorf("close input stream: %w", err)
	}
	return nil
}
