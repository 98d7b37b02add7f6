package profile

import (
	"math"
	"sort"
)

// ComputeStats returns min/max/mean/median and population standard
// deviation, or nil for an empty sample. The input is not modified.
func ComputeStats(vals []float64) *NumericStats {
	if len(vals) == 0 {
		return nil
	}
	sorted := sortedCopy(vals)
	n := len(sorted)
	var sum float64
	for _, v := range sorted {
		sum += v
	}
	mean := sum / float64(n)
	var sq float64
	for _, v := range sorted {
		d := v - mean
		sq += d * d
	}
	median := sorted[n/2]
	if n%2 == 0 {
		median = (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return &NumericStats{
		Min:    sorted[0],
		Max:    sorted[n-1],
		Mean:   mean,
		Median: median,
		StdDev: math.Sqrt(sq / float64(n)),
	}
}

func sortedCopy(vals []float64) []float64 {
	cp := make([]float64, len(vals))
	copy(cp, vals)
	sort.Float64s(cp)
	return cp
}
