package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary describes the distribution of a sample.
type Summary struct {
	Count        int
	Sum          float64
	Mean         float64
	Median       float64
	Std          float64
	Min          float64
	Max          float64
	Q1           float64
	Q3           float64
	IQR          float64
	Skewness     float64
	Kurtosis     float64
	OutlierCount int
	OutlierPct   float64
}

// RightSkewed reports whether the sample has a long right tail.
func (s Summary) RightSkewed() bool {
	return s.Skewness > 0
}

// Describe summarizes values. Skewness is the adjusted Fisher-Pearson
// coefficient and Kurtosis is bias-corrected excess kurtosis; both are NaN
// for samples too small to estimate them. Outliers lie outside
// [Q1 - 1.5 IQR, Q3 + 1.5 IQR].
func Describe(values []float64) (Summary, error) {
	if len(values) == 0 {
		return Summary{}, ErrEmptyInput
	}

	sorted := sortedCopy(values)
	n := len(sorted)

	s := Summary{
		Count:    n,
		Sum:      floats.Sum(sorted),
		Mean:     stat.Mean(sorted, nil),
		Median:   Quantile(sorted, 0.5),
		Min:      sorted[0],
		Max:      sorted[n-1],
		Q1:       Quantile(sorted, 0.25),
		Q3:       Quantile(sorted, 0.75),
		Std:      math.NaN(),
		Skewness: math.NaN(),
		Kurtosis: math.NaN(),
	}
	s.IQR = s.Q3 - s.Q1

	if n > 1 {
		s.Std = stat.StdDev(sorted, nil)
	}
	if n > 2 && s.Std > 0 {
		s.Skewness = stat.Skew(sorted, nil)
	}
	if n > 3 && s.Std > 0 {
		s.Kurtosis = stat.ExKurtosis(sorted, nil)
	}

	lower, upper := s.Q1-1.5*s.IQR, s.Q3+1.5*s.IQR
	for _, v := range sorted {
		if v < lower || v > upper {
			s.OutlierCount++
		}
	}
	s.OutlierPct = float64(s.OutlierCount) / float64(n) * 100

	return s, nil
}

// Quantile returns the p-quantile of sorted data using linear interpolation
// between closest ranks, h = (n-1)p.
func Quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if n == 1 {
		return sorted[0]
	}
	h := float64(n-1) * p
	lo := math.Floor(h)
	i := int(lo)
	if i >= n-1 {
		return sorted[n-1]
	}
	return sorted[i] + (h-lo)*(sorted[i+1]-sorted[i])
}

// Median returns the median of values.
func Median(values []float64) float64 {
	return Quantile(sortedCopy(values), 0.5)
}

// Mean returns the arithmetic mean of values, or NaN when empty.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	return stat.Mean(values, nil)
}

// Skewness returns the adjusted Fisher-Pearson skewness, or NaN when it
// cannot be estimated.
func Skewness(values []float64) float64 {
	if len(values) < 3 {
		return math.NaN()
	}
	if stat.StdDev(values, nil) == 0 {
		return math.NaN()
	}
	return stat.Skew(values, nil)
}

func sortedCopy(values []float64) []float64 {
	out := make([]float64, len(values))
	copy(out, values)
	sort.Float64s(out)
	return out
}

func isConstant(values []float64) bool {
	if len(values) == 0 {
		return true
	}
	for _, v := range values[1:] {
		if v != values[0] {
			return false
		}
	}
	return true
}
