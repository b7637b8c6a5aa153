// Package fec provides the integrity layer for sample frames moved between
// system memory and the accelerator streams: CRC-32 framing checksums and
// Reed-Solomon block coding for links that can corrupt bytes in flight.
package fec

import (
	"encoding/binary"
	"hash/crc32"
)

// CRC32 computes the CRC-32 checksum using the IEEE polynomial.
func CRC32(data []byte) uint32 {
	return crc32.ChecksumIEEE(data)
}

// AppendCRC32 returns data with its 4-byte big-endian CRC-32 appended.
func AppendCRC32(data []byte) []byte {
	result := make([]byte, len(data)+4)
	copy(result, data)
	binary.BigEndian.PutUint32(result[len(data):], CRC32(data))
	return result
}

// VerifyCRC32 checks the trailing CRC-32 and returns the payload without it,
// along with whether the checksum matched.
func VerifyCRC32(dataWithCRC []byte) ([]byte, bool) {
	if len(dataWithCRC) < 4 {
		return nil, false
	}
	data := dataWithCRC[:len(dataWithCRC)-4]
	expected := binary.BigEndian.Uint32(dataWithCRC[len(dataWithCRC)-4:])
	return data, CRC32(data) == expected
}
