// Package signal holds the smoothing and segmentation helpers used by the
// fingerprint matcher: reflect-boundary box filtering, a cascaded box-filter
// approximation of a Gaussian, a discrete gradient and peak picking.
package signal

import "math"

// reflectIterator walks an index back and forth over [0, size), bouncing off
// both ends so that position -1 maps to 0, -2 to 1, size to size-1 and so on.
type reflectIterator struct {
	size    int
	pos     int
	forward bool
}

func newReflectIterator(size int) *reflectIterator {
	return &reflectIterator{size: size, forward: true}
}

func (it *reflectIterator) moveForward() {
	if it.forward {
		if it.pos+1 == it.size {
			it.forward = false
		} else {
			it.pos++
		}
	} else {
		if it.pos == 0 {
			it.forward = true
		} else {
			it.pos--
		}
	}
}

func (it *reflectIterator) moveBack() {
	if it.forward {
		if it.pos == 0 {
			it.forward = false
		} else {
			it.pos--
		}
	} else {
		if it.pos+1 == it.size {
			it.forward = true
		} else {
			it.pos++
		}
	}
}

// BoxFilter returns the moving average of input over a window of w samples.
// Samples outside the input are reflected back into it. The sum is updated
// incrementally, so the cost is linear in len(input) regardless of w.
// A zero width returns a copy of the input.
func BoxFilter(input []float64, w int) []float64 {
	output := make([]float64, len(input))
	if w <= 0 {
		copy(output, input)
		return output
	}
	boxFilter(input, output, w)
	return output
}

func boxFilter(input, output []float64, w int) {
	size := len(input)
	if size == 0 {
		return
	}

	wl := w / 2
	wr := w - wl
	fw := float64(w)

	it1 := newReflectIterator(size)
	it2 := newReflectIterator(size)
	for i := 0; i < wl; i++ {
		it1.moveBack()
		it2.moveBack()
	}

	var sum float64
	for i := 0; i < w; i++ {
		sum += input[it2.pos]
		it2.moveForward()
	}

	if size > w {
		for i := 0; i < wl; i++ {
			output[i] = sum / fw
			sum += input[it2.pos] - input[it1.pos]
			it1.moveForward()
			it2.moveForward()
		}
		// Both iterators are now inside the input and moving forward.
		for i := 0; i < size-w-1; i++ {
			output[wl+i] = sum / fw
			sum += input[it2.pos] - input[it1.pos]
			it1.pos++
			it2.pos++
		}
		for i := 0; i < wr+1; i++ {
			output[size-wr-1+i] = sum / fw
			sum += input[it2.pos] - input[it1.pos]
			it1.moveForward()
			it2.moveForward()
		}
		return
	}

	for i := 0; i < size; i++ {
		output[i] = sum / fw
		sum += input[it2.pos] - input[it1.pos]
		it1.moveForward()
		it2.moveForward()
	}
}

// GaussianFilter approximates a Gaussian blur with standard deviation sigma by
// running numPasses box filters. The first m passes use the odd width wl
// closest to the ideal width from below and the rest use wl+2, with m picked
// so the variance of the cascade matches sigma².
func GaussianFilter(input []float64, numPasses int, sigma float64) []float64 {
	data1 := make([]float64, len(input))
	copy(data1, input)
	if numPasses <= 0 || len(input) == 0 {
		return data1
	}

	n := float64(numPasses)
	w := int(math.Floor(math.Sqrt(12*sigma*sigma/n + 1)))
	wl := w
	if w%2 == 0 {
		wl--
	}
	wu := wl + 2
	fwl := float64(wl)
	m := int(math.Round((12*sigma*sigma - n*fwl*fwl - 4*n*fwl - 3*n) / (-4*fwl - 4)))

	data2 := make([]float64, len(input))
	i := 0
	for ; i < m; i++ {
		boxFilter(data1, data2, wl)
		data1, data2 = data2, data1
	}
	for ; i < numPasses; i++ {
		boxFilter(data1, data2, wu)
		data1, data2 = data2, data1
	}
	return data1
}
