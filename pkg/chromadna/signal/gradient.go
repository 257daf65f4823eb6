package signal

import "math"

// Gradient returns the discrete derivative of input. Interior samples use the
// central difference (f[i+1]-f[i-1])/2; the first and last samples use the
// forward and backward difference. A single sample has a zero gradient.
func Gradient(input []float64) []float64 {
	n := len(input)
	output := make([]float64, n)
	if n < 2 {
		return output
	}

	output[0] = input[1] - input[0]
	for i := 1; i < n-1; i++ {
		output[i] = (input[i+1] - input[i-1]) / 2
	}
	output[n-1] = input[n-1] - input[n-2]
	return output
}

// Abs returns a new slice holding the absolute value of every sample.
func Abs(input []float64) []float64 {
	output := make([]float64, len(input))
	for i, x := range input {
		output[i] = math.Abs(x)
	}
	return output
}

// DetectPeaks returns the indices of interior local maxima of g that exceed
// threshold. Plateaus count as maxima, but a candidate directly next to the
// previously accepted peak is skipped, so accepted peaks are at least two
// samples apart.
func DetectPeaks(g []float64, threshold float64) []int {
	var peaks []int
	for i := 1; i < len(g)-1; i++ {
		if g[i] <= threshold || g[i] < g[i-1] || g[i] < g[i+1] {
			continue
		}
		if len(peaks) == 0 || peaks[len(peaks)-1]+1 < i {
			peaks = append(peaks, i)
		}
	}
	return peaks
}
