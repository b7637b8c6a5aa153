package fec

import (
	"fmt"

	"github.com/klauspost/reedsolomon"
)

// Default shard geometry for sample frames. A frame for a 2^10-point block
// is on the order of 4 KiB; 16+4 keeps shards reasonably sized across the
// whole supported range of transform sizes while tolerating 4 lost shards.
const (
	DefaultDataShards   = 16
	DefaultParityShards = 4
)

// BlockCoder armors encoded sample frames with Reed-Solomon parity so a
// frame survives partial corruption on the link between the host mover and
// the accelerator.
type BlockCoder struct {
	enc        reedsolomon.Encoder
	dataShards int
	parShards  int
}

// NewBlockCoder creates a coder with the default shard geometry.
func NewBlockCoder() (*BlockCoder, error) {
	return NewBlockCoderCustom(DefaultDataShards, DefaultParityShards)
}

// NewBlockCoderCustom creates a coder with explicit shard counts.
func NewBlockCoderCustom(dataShards, parityShards int) (*BlockCoder, error) {
	enc, err := reedsolomon.New(dataShards, parityShards)
	if err != nil {
		return nil, fmt.Errorf("create reed-solomon coder: %w", err)
	}
	return &BlockCoder{
		enc:        enc,
		dataShards: dataShards,
		parShards:  parityShards,
	}, nil
}

// Encode splits a frame into data shards, pads the tail shard, computes
// parity, and returns the concatenated shards. The original length is
// carried by the frame format itself; Decode returns the padded payload.
func (c *BlockCoder) Encode(frame []byte) ([]byte, error) {
	shards := c.split(frame)
	if err := c.enc.Encode(shards); err != nil {
		return nil, fmt.Errorf("rs encode: %w", err)
	}

	total := c.dataShards + c.parShards
	out := make([]byte, 0, total*len(shards[0]))
	for _, s := range shards {
		out = append(out, s...)
	}
	return out, nil
}

// Decode reconstructs the original (padded) frame from a possibly corrupted
// shard concatenation. Known-bad shards are marked by index in erasures.
func (c *BlockCoder) Decode(encoded []byte, erasures []int) ([]byte, error) {
	total := c.dataShards + c.parShards
	if len(encoded)%total != 0 {
		return nil, fmt.Errorf("encoded size %d not divisible by %d shards", len(encoded), total)
	}
	shardSize := len(encoded) / total

	shards := make([][]byte, total)
	for i := range shards {
		shards[i] = make([]byte, shardSize)
		copy(shards[i], encoded[i*shardSize:(i+1)*shardSize])
	}
	for _, idx := range erasures {
		if idx >= 0 && idx < total {
			shards[idx] = nil
		}
	}

	if err := c.enc.Reconstruct(shards); err != nil {
		return nil, fmt.Errorf("rs reconstruct: %w", err)
	}
	ok, err := c.enc.Verify(shards)
	if err != nil {
		return nil, fmt.Errorf("rs verify: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("rs verify failed: frame corrupted beyond repair")
	}

	out := make([]byte, 0, c.dataShards*shardSize)
	for i := 0; i < c.dataShards; i++ {
		out = append(out, shards[i]...)
	}
	return out, nil
}

func (c *BlockCoder) split(frame []byte) [][]byte {
	total := c.dataShards + c.parShards
	shardSize := (len(frame) + c.dataShards - 1) / c.dataShards
	if shardSize == 0 {
		shardSize = 1
	}

	shards := make([][]byte, total)
	for i := range shards {
		shards[i] = make([]byte, shardSize)
		if i < c.dataShards {
			start := i * shardSize
			if start < len(frame) {
				end := start + shardSize
				if end > len(frame) {
					end = len(frame)
				}
				copy(shards[i], frame[start:end])
			}
		}
	}
	return shards
}

// DataShards returns the number of data shards.
func (c *BlockCoder) DataShards() int { return c.dataShards }

// ParityShards returns the number of parity shards.
func (c *BlockCoder) ParityShards() int { return c.parShards }
