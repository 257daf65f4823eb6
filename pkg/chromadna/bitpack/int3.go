// Package bitpack packs small unsigned integers into dense byte buffers.
//
// Two lane widths are supported: 3-bit lanes (eight lanes in three bytes) and
// 5-bit lanes (eight lanes in five bytes). Lanes are stored least significant
// bit first. Only the low bits of each input lane are read, so any []byte is a
// valid input and none of the functions can fail.
package bitpack

// PackedInt3ArraySize returns the number of bytes needed to hold n 3-bit lanes.
func PackedInt3ArraySize(n int) int {
	return (n*3 + 7) / 8
}

// UnpackedInt3ArraySize returns the number of 3-bit lanes stored in n bytes.
func UnpackedInt3ArraySize(n int) int {
	return n * 8 / 3
}

// PackInt3Array packs the low 3 bits of every input value.
func PackInt3Array(input []byte) []byte {
	output := make([]byte, PackedInt3ArraySize(len(input)))

	i, j := 0, 0
	for len(input)-j >= 8 {
		in := input[j : j+8]
		output[i] = in[0]&0x07 | (in[1]&0x07)<<3 | (in[2]&0x03)<<6
		output[i+1] = (in[2]&0x04)>>2 | (in[3]&0x07)<<1 | (in[4]&0x07)<<4 | (in[5]&0x01)<<7
		output[i+2] = (in[5]&0x06)>>1 | (in[6]&0x07)<<2 | (in[7]&0x07)<<5
		i += 3
		j += 8
	}

	in := input[j:]
	if n := len(in); n >= 1 {
		output[i] = in[0] & 0x07
		if n >= 2 {
			output[i] |= (in[1] & 0x07) << 3
		}
		if n >= 3 {
			output[i] |= (in[2] & 0x03) << 6
			output[i+1] = (in[2] & 0x04) >> 2
		}
		if n >= 4 {
			output[i+1] |= (in[3] & 0x07) << 1
		}
		if n >= 5 {
			output[i+1] |= (in[4] & 0x07) << 4
		}
		if n >= 6 {
			output[i+1] |= (in[5] & 0x01) << 7
			output[i+2] = (in[5] & 0x06) >> 1
		}
		if n == 7 {
			output[i+2] |= (in[6] & 0x07) << 2
		}
	}

	return output
}

// UnpackInt3Array expands every byte triple into eight 3-bit lanes. A trailing
// one or two bytes yield two or five lanes; lanes past the last value written
// by PackInt3Array are padding and carry no meaning.
func UnpackInt3Array(input []byte) []byte {
	output := make([]byte, UnpackedInt3ArraySize(len(input)))

	i, j := 0, 0
	for len(input)-j >= 3 {
		in := input[j : j+3]
		output[i] = in[0] & 0x07
		output[i+1] = (in[0] & 0x38) >> 3
		output[i+2] = (in[0]&0xc0)>>6 | (in[1]&0x01)<<2
		output[i+3] = (in[1] & 0x0e) >> 1
		output[i+4] = (in[1] & 0x70) >> 4
		output[i+5] = (in[1]&0x80)>>7 | (in[2]&0x03)<<1
		output[i+6] = (in[2] & 0x1c) >> 2
		output[i+7] = (in[2] & 0xe0) >> 5
		i += 8
		j += 3
	}

	in := input[j:]
	if len(in) >= 1 {
		output[i] = in[0] & 0x07
		output[i+1] = (in[0] & 0x38) >> 3
	}
	if len(in) == 2 {
		output[i+2] = (in[0]&0xc0)>>6 | (in[1]&0x01)<<2
		output[i+3] = (in[1] & 0x0e) >> 1
		output[i+4] = (in[1] & 0x70) >> 4
	}

	return output
}
