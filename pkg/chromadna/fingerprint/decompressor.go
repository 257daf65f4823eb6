package fingerprint

import (
	"github.com/himanishpuri/chromadna/pkg/chromadna/bitpack"
)

// UnsetValue pre-fills every slot of a decompressed feature array. A
// successful Decompress overwrites all of them, because the number of value
// terminators is checked before any value is rebuilt, so the sentinel only
// exists inside the decoder and is never a valid decoded feature.
const UnsetValue uint32 = 0xFFFFFFFF

// Decompress parses the binary fingerprint format produced by Compress.
func Decompress(data []byte) (*Fingerprint, error) {
	if len(data) < headerSize {
		return nil, &FormatError{Reason: "fingerprint cannot be shorter than 4 bytes"}
	}

	algorithm := data[0]
	numValues := int(data[1])<<16 | int(data[2])<<8 | int(data[3])
	offset := headerSize

	bits := bitpack.UnpackInt3Array(data[offset:])

	foundValues, numExceptional := 0, 0
	if numValues == 0 {
		bits = bits[:0]
	}
	for i := 0; i < len(bits) && foundValues < numValues; i++ {
		switch bits[i] {
		case 0:
			foundValues++
			if foundValues == numValues {
				bits = bits[:i+1]
			}
		case maxNormalValue:
			numExceptional++
		}
	}
	if foundValues != numValues {
		return nil, &FormatError{Reason: "fingerprint is too short, not enough data for normal bits"}
	}

	offset += bitpack.PackedInt3ArraySize(len(bits))
	if len(data) < offset+bitpack.PackedInt5ArraySize(numExceptional) {
		return nil, &FormatError{Reason: "fingerprint is too short, not enough data for exceptional bits"}
	}

	if numExceptional > 0 {
		exceptional := bitpack.UnpackInt5Array(data[offset:])
		j := 0
		for i, b := range bits {
			if b == maxNormalValue {
				bits[i] += exceptional[j]
				j++
			}
		}
	}

	return &Fingerprint{
		Algorithm: algorithm,
		Raw:       unpackBits(bits, numValues),
	}, nil
}

// unpackBits rebuilds the feature values from bit distances. Every 0 lane
// closes one value, which is XORed onto the previous value.
func unpackBits(bits []byte, size int) []uint32 {
	output := make([]uint32, size)
	for i := range output {
		output[i] = UnsetValue
	}

	bit, i := 0, 0
	var value uint32
	for _, b := range bits {
		if b == 0 {
			if i == 0 {
				output[i] = value
			} else {
				output[i] = output[i-1] ^ value
			}
			bit, value = 0, 0
			i++
			continue
		}
		bit += int(b)
		value |= 1 << (bit - 1)
	}
	return output
}
