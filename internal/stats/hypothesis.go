package stats

import (
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Alpha is the significance level used to label results.
const Alpha = 0.05

// TestResult is the outcome of a hypothesis test.
type TestResult struct {
	Statistic float64
	PValue    float64
	DF        float64
}

// Significant reports whether the p-value falls below Alpha.
func (r TestResult) Significant() bool {
	return r.SignificantAt(Alpha)
}

// SignificantAt reports whether the p-value falls below alpha.
func (r TestResult) SignificantAt(alpha float64) bool {
	return r.PValue < alpha
}

// TTestInd runs Student's two-sample t-test with pooled variance. The
// p-value is two-sided.
func TTestInd(a, b []float64) (TestResult, error) {
	n1, n2 := float64(len(a)), float64(len(b))
	if len(a) == 0 || len(b) == 0 {
		return TestResult{}, ErrEmptyInput
	}
	df := n1 + n2 - 2
	if df < 1 {
		return TestResult{}, ErrInsufficientData
	}

	m1, v1 := stat.MeanVariance(a, nil)
	m2, v2 := stat.MeanVariance(b, nil)
	if len(a) == 1 {
		v1 = 0
	}
	if len(b) == 1 {
		v2 = 0
	}

	pooled := ((n1-1)*v1 + (n2-1)*v2) / df
	if pooled == 0 {
		return TestResult{}, ErrConstantInput
	}

	t := (m1 - m2) / math.Sqrt(pooled*(1/n1+1/n2))
	return TestResult{
		Statistic: t,
		PValue:    studentsTwoSided(t, df),
		DF:        df,
	}, nil
}

// MannWhitneyU runs the two-sided Mann-Whitney U test using the normal
// approximation with tie and continuity corrections. Statistic is U for a.
func MannWhitneyU(a, b []float64) (TestResult, error) {
	if len(a) == 0 || len(b) == 0 {
		return TestResult{}, ErrEmptyInput
	}
	n1, n2 := float64(len(a)), float64(len(b))
	n := n1 + n2

	combined := make([]float64, 0, len(a)+len(b))
	combined = append(combined, a...)
	combined = append(combined, b...)
	ranks, tieTerm := rankAverage(combined)

	var r1 float64
	for _, r := range ranks[:len(a)] {
		r1 += r
	}
	u1 := r1 - n1*(n1+1)/2
	u2 := n1*n2 - u1
	u := math.Max(u1, u2)

	mu := n1 * n2 / 2
	sigma := math.Sqrt(n1 * n2 / 12 * ((n + 1) - tieTerm/(n*(n-1))))
	if sigma == 0 || math.IsNaN(sigma) {
		return TestResult{}, ErrConstantInput
	}

	z := (u - mu - 0.5) / sigma
	p := math.Min(1, 2*distuv.UnitNormal.Survival(z))

	return TestResult{Statistic: u1, PValue: p}, nil
}

// Pearson returns the Pearson correlation coefficient of x and y and its
// two-sided p-value.
func Pearson(x, y []float64) (TestResult, error) {
	if len(x) != len(y) {
		return TestResult{}, ErrLengthMismatch
	}
	if len(x) < 3 {
		return TestResult{}, ErrInsufficientData
	}
	if isConstant(x) || isConstant(y) {
		return TestResult{}, ErrConstantInput
	}

	r := stat.Correlation(x, y, nil)
	r = math.Max(-1, math.Min(1, r))
	return TestResult{
		Statistic: r,
		PValue:    correlationPValue(r, float64(len(x))),
		DF:        float64(len(x) - 2),
	}, nil
}

// Spearman returns the Spearman rank correlation of x and y and its
// two-sided p-value.
func Spearman(x, y []float64) (TestResult, error) {
	if len(x) != len(y) {
		return TestResult{}, ErrLengthMismatch
	}
	rx, _ := rankAverage(x)
	ry, _ := rankAverage(y)
	return Pearson(rx, ry)
}

func correlationPValue(r, n float64) float64 {
	if math.Abs(r) == 1 {
		return 0
	}
	df := n - 2
	t := r * math.Sqrt(df/(1-r*r))
	return studentsTwoSided(t, df)
}

func studentsTwoSided(t, df float64) float64 {
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	return math.Min(1, 2*dist.Survival(math.Abs(t)))
}

// OneWayANOVA tests whether the group means differ. Every group needs at
// least one value and there must be more values than groups.
func OneWayANOVA(groups ...[]float64) (TestResult, error) {
	k := len(groups)
	if k < 2 {
		return TestResult{}, ErrInsufficientData
	}

	var total float64
	var n int
	for _, g := range groups {
		if len(g) == 0 {
			return TestResult{}, ErrEmptyInput
		}
		for _, v := range g {
			total += v
		}
		n += len(g)
	}
	if n <= k {
		return TestResult{}, ErrInsufficientData
	}
	grand := total / float64(n)

	var ssb, ssw float64
	for _, g := range groups {
		m := stat.Mean(g, nil)
		ssb += float64(len(g)) * (m - grand) * (m - grand)
		for _, v := range g {
			ssw += (v - m) * (v - m)
		}
	}

	dfb, dfw := float64(k-1), float64(n-k)
	if ssw == 0 {
		if ssb == 0 {
			return TestResult{}, ErrConstantInput
		}
		return TestResult{Statistic: math.Inf(1), PValue: 0, DF: dfb}, nil
	}

	f := (ssb / dfb) / (ssw / dfw)
	dist := distuv.F{D1: dfb, D2: dfw}
	return TestResult{
		Statistic: f,
		PValue:    dist.Survival(f),
		DF:        dfb,
	}, nil
}
