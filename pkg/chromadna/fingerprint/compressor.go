package fingerprint

import (
	"fmt"

	"github.com/himanishpuri/chromadna/pkg/chromadna/bitpack"
)

const (
	// headerSize is the algorithm byte plus the 24-bit big-endian value count.
	headerSize = 4

	normalBits     = 3
	maxNormalValue = 1<<normalBits - 1

	// MaxValues is the largest feature array the 24-bit count can describe.
	MaxValues = 1<<24 - 1
)

// Compress packs a feature array into the binary fingerprint format:
//
//	byte 0     algorithm
//	bytes 1-3  number of values, big endian
//	...        3-bit lanes: per value, the distances between set bits of
//	           value XOR previous value, each value terminated by a 0 lane
//	...        5-bit lanes: overflow of every distance that did not fit in
//	           3 bits (its 3-bit lane holds 7)
func Compress(algorithm uint8, values []uint32) ([]byte, error) {
	size := len(values)
	if size > MaxValues {
		return nil, &LengthError{Reason: fmt.Sprintf("%d values do not fit the 24-bit count", size)}
	}

	normal := make([]byte, 0, size*2)
	exceptional := make([]byte, 0, size/10)

	var prev uint32
	for i, v := range values {
		x := v
		if i > 0 {
			x ^= prev
		}
		prev = v

		lastBit := 0
		for bit := 1; x != 0; bit, x = bit+1, x>>1 {
			if x&1 == 0 {
				continue
			}
			if d := bit - lastBit; d >= maxNormalValue {
				normal = append(normal, maxNormalValue)
				exceptional = append(exceptional, byte(d-maxNormalValue))
			} else {
				normal = append(normal, byte(d))
			}
			lastBit = bit
		}
		normal = append(normal, 0)
	}

	packedNormal := bitpack.PackInt3Array(normal)
	packedExceptional := bitpack.PackInt5Array(exceptional)

	output := make([]byte, 0, headerSize+len(packedNormal)+len(packedExceptional))
	output = append(output, algorithm, byte(size>>16), byte(size>>8), byte(size))
	output = append(output, packedNormal...)
	output = append(output, packedExceptional...)
	return output, nil
}
