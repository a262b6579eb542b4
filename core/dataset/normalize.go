package dataset

import "gonum.org/v1/gonum/floats"

// Normalize maps raw travel durations to accessibility scores in [0,1]:
// score = (max - raw) / (max - min). Longer durations never score higher.
// A batch whose values are all equal normalizes to zeros.
func Normalize(raw []float64) []float64 {
	out := make([]float64, len(raw))
	if len(raw) == 0 {
		return out
	}
	lo, hi := floats.Min(raw), floats.Max(raw)
	if hi == lo {
		return out
	}
	span := hi - lo
	for i, v := range raw {
		out[i] = (hi - v) / span
	}
	return out
}
