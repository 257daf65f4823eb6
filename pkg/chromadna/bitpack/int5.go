package bitpack

// PackedInt5ArraySize returns the number of bytes needed to hold n 5-bit lanes.
func PackedInt5ArraySize(n int) int {
	return (n*5 + 7) / 8
}

// UnpackedInt5ArraySize returns the number of 5-bit lanes stored in n bytes.
func UnpackedInt5ArraySize(n int) int {
	return n * 8 / 5
}

// PackInt5Array packs the low 5 bits of every input value.
func PackInt5Array(input []byte) []byte {
	output := make([]byte, PackedInt5ArraySize(len(input)))

	i, j := 0, 0
	for len(input)-j >= 8 {
		in := input[j : j+8]
		output[i] = in[0]&0x1f | (in[1]&0x07)<<5
		output[i+1] = (in[1]&0x18)>>3 | (in[2]&0x1f)<<2 | (in[3]&0x01)<<7
		output[i+2] = (in[3]&0x1e)>>1 | (in[4]&0x0f)<<4
		output[i+3] = (in[4]&0x10)>>4 | (in[5]&0x1f)<<1 | (in[6]&0x03)<<6
		output[i+4] = (in[6]&0x1c)>>2 | (in[7]&0x1f)<<3
		i += 5
		j += 8
	}

	in := input[j:]
	n := len(in)
	if n >= 1 {
		output[i] = in[0] & 0x1f
	}
	if n >= 2 {
		output[i] |= (in[1] & 0x07) << 5
		output[i+1] = (in[1] & 0x18) >> 3
	}
	if n >= 3 {
		output[i+1] |= (in[2] & 0x1f) << 2
	}
	if n >= 4 {
		output[i+1] |= (in[3] & 0x01) << 7
		output[i+2] = (in[3] & 0x1e) >> 1
	}
	if n >= 5 {
		output[i+2] |= (in[4] & 0x0f) << 4
		output[i+3] = (in[4] & 0x10) >> 4
	}
	if n >= 6 {
		output[i+3] |= (in[5] & 0x1f) << 1
	}
	if n == 7 {
		output[i+3] |= (in[6] & 0x03) << 6
		output[i+4] = (in[6] & 0x1c) >> 2
	}

	return output
}

// UnpackInt5Array expands every five bytes into eight 5-bit lanes. A partial
// trailing group yields as many whole lanes as its bits allow.
func UnpackInt5Array(input []byte) []byte {
	output := make([]byte, UnpackedInt5ArraySize(len(input)))

	i, j := 0, 0
	for len(input)-j >= 5 {
		in := input[j : j+5]
		output[i] = in[0] & 0x1f
		output[i+1] = (in[0]&0xe0)>>5 | (in[1]&0x03)<<3
		output[i+2] = (in[1] & 0x7c) >> 2
		output[i+3] = (in[1]&0x80)>>7 | (in[2]&0x0f)<<1
		output[i+4] = (in[2]&0xf0)>>4 | (in[3]&0x01)<<4
		output[i+5] = (in[3] & 0x3e) >> 1
		output[i+6] = (in[3]&0xc0)>>6 | (in[4]&0x07)<<2
		output[i+7] = (in[4] & 0xf8) >> 3
		i += 8
		j += 5
	}

	in := input[j:]
	n := len(in)
	if n >= 1 {
		output[i] = in[0] & 0x1f
	}
	if n >= 2 {
		output[i+1] = (in[0]&0xe0)>>5 | (in[1]&0x03)<<3
		output[i+2] = (in[1] & 0x7c) >> 2
	}
	if n >= 3 {
		output[i+3] = (in[1]&0x80)>>7 | (in[2]&0x0f)<<1
	}
	if n == 4 {
		output[i+4] = (in[2]&0xf0)>>4 | (in[3]&0x01)<<4
		output[i+5] = (in[3] & 0x3e) >> 1
	}

	return output
}
