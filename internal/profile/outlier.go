package profile

import "math"

// minOutlierSamples is the sample size a column must exceed before fences
// are computed.
const minOutlierSamples = 5

// Fences holds the IQR bounds for one numeric sample.
type Fences struct {
	Q1, Q3     float64
	IQR        float64
	Multiplier float64
	Lower      float64
	Upper      float64
}

// FenceMultiplier maps sensitivity to the IQR multiplier.
func FenceMultiplier(s Sensitivity) float64 {
	switch s {
	case SensitivityLow:
		return 3.0
	case SensitivityHigh:
		return 1.0
	default:
		return 1.5
	}
}

// ComputeFences returns the IQR fences for vals using index quartiles
// (floor(n*0.25) and floor(n*0.75) on the ascending sample). ok is false when
// the sample has too few values.
func ComputeFences(vals []float64, s Sensitivity) (Fences, bool) {
	if len(vals) <= minOutlierSamples {
		return Fences{}, false
	}
	sorted := sortedCopy(vals)
	n := float64(len(sorted))
	q1 := sorted[int(math.Floor(n*0.25))]
	q3 := sorted[int(math.Floor(n*0.75))]
	iqr := q3 - q1
	m := FenceMultiplier(s)
	return Fences{
		Q1:         q1,
		Q3:         q3,
		IQR:        iqr,
		Multiplier: m,
		Lower:      q1 - m*iqr,
		Upper:      q3 + m*iqr,
	}, true
}

// Contains reports whether v lies inside the fences.
func (f Fences) Contains(v float64) bool {
	return v >= f.Lower && v <= f.Upper
}

// DetectOutliers returns the values outside the fences, in input order.
func DetectOutliers(vals []float64, s Sensitivity) ([]float64, Fences, bool) {
	f, ok := ComputeFences(vals, s)
	if !ok {
		return nil, f, false
	}
	var out []float64
	for _, v := range vals {
		if !f.Contains(v) {
			out = append(out, v)
		}
	}
	return out, f, true
}

// outlierSeverity: high sensitivity reports Medium, everything else High.
func outlierSeverity(s Sensitivity) Severity {
	if s == SensitivityHigh {
		return SeverityMedium
	}
	return SeverityHigh
}
