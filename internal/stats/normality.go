package stats

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Shapiro-Wilk sample size limits.
const (
	ShapiroMinN = 3
	ShapiroMaxN = 5000
)

// DAgostinoMinN is the smallest sample DAgostinoK2 accepts.
const DAgostinoMinN = 8

// ShapiroWilk tests the null hypothesis that values come from a normal
// distribution, using Royston's approximation for the coefficients and the
// p-value.
func ShapiroWilk(values []float64) (TestResult, error) {
	n := len(values)
	if n < ShapiroMinN || n > ShapiroMaxN {
		return TestResult{}, ErrInsufficientData
	}
	x := sortedCopy(values)
	if isConstant(x) {
		return TestResult{}, ErrConstantInput
	}

	a := shapiroCoefficients(n)
	mean := stat.Mean(x, nil)
	var num, ssq float64
	for i, v := range x {
		num += a[i] * v
		ssq += (v - mean) * (v - mean)
	}
	w := math.Min(1, num*num/ssq)

	return TestResult{Statistic: w, PValue: shapiroPValue(w, n)}, nil
}

func shapiroCoefficients(n int) []float64 {
	a := make([]float64, n)
	if n == 3 {
		a[0], a[2] = -math.Sqrt(0.5), math.Sqrt(0.5)
		return a
	}

	fn := float64(n)
	m := make([]float64, n)
	var mm float64
	for i := range m {
		m[i] = distuv.UnitNormal.Quantile((float64(i+1) - 0.375) / (fn + 0.25))
		mm += m[i] * m[i]
	}

	u := 1 / math.Sqrt(fn)
	last := m[n-1] / math.Sqrt(mm)
	an := last + poly(u, 0, 0.221157, -0.147981, -2.071190, 4.434685, -2.706056)

	var phi float64
	start := 1
	if n > 5 {
		prev := m[n-2] / math.Sqrt(mm)
		an1 := prev + poly(u, 0, 0.042981, -0.293762, -1.752461, 5.682633, -3.582633)
		phi = (mm - 2*m[n-1]*m[n-1] - 2*m[n-2]*m[n-2]) / (1 - 2*an*an - 2*an1*an1)
		a[n-2], a[1] = an1, -an1
		start = 2
	} else {
		phi = (mm - 2*m[n-1]*m[n-1]) / (1 - 2*an*an)
	}
	a[n-1], a[0] = an, -an

	sp := math.Sqrt(phi)
	for i := start; i < n-start; i++ {
		a[i] = m[i] / sp
	}
	return a
}

func shapiroPValue(w float64, n int) float64 {
	if w >= 1 {
		return 1
	}
	if n == 3 {
		p := 6 / math.Pi * (math.Asin(math.Sqrt(w)) - math.Pi/3)
		return math.Max(0, math.Min(1, p))
	}

	fn := float64(n)
	y := math.Log(1 - w)
	var mu, sigma float64
	if n <= 11 {
		gamma := poly(fn, -2.273, 0.459)
		if y >= gamma {
			return 1e-99
		}
		y = -math.Log(gamma - y)
		mu = poly(fn, 0.544, -0.39978, 0.025054, -6.714e-4)
		sigma = math.Exp(poly(fn, 1.3822, -0.77857, 0.062767, -0.0020322))
	} else {
		l := math.Log(fn)
		mu = poly(l, -1.5861, -0.31082, -0.083751, 0.0038915)
		sigma = math.Exp(poly(l, -0.4803, -0.082676, 0.0030302))
	}
	return distuv.UnitNormal.Survival((y - mu) / sigma)
}

// poly evaluates c[0] + c[1]x + c[2]x^2 + ...
func poly(x float64, c ...float64) float64 {
	var r float64
	for i := len(c) - 1; i >= 0; i-- {
		r = r*x + c[i]
	}
	return r
}

// DAgostinoK2 runs D'Agostino and Pearson's omnibus normality test, which
// combines the skewness and kurtosis z-scores into a chi-square statistic
// with two degrees of freedom.
func DAgostinoK2(values []float64) (TestResult, error) {
	n := len(values)
	if n < DAgostinoMinN {
		return TestResult{}, ErrInsufficientData
	}
	if isConstant(values) {
		return TestResult{}, ErrConstantInput
	}

	m2 := stat.Moment(2, values, nil)
	b1 := stat.Moment(3, values, nil) / math.Pow(m2, 1.5)
	b2 := stat.Moment(4, values, nil) / (m2 * m2)

	zs := skewZ(b1, float64(n))
	zk := kurtosisZ(b2, float64(n))
	k2 := zs*zs + zk*zk
	if math.IsNaN(k2) {
		return TestResult{}, ErrInsufficientData
	}

	chi := distuv.ChiSquared{K: 2}
	return TestResult{Statistic: k2, PValue: chi.Survival(k2), DF: 2}, nil
}

func skewZ(b1, n float64) float64 {
	y := b1 * math.Sqrt((n+1)*(n+3)/(6*(n-2)))
	beta2 := 3 * (n*n + 27*n - 70) * (n + 1) * (n + 3) /
		((n - 2) * (n + 5) * (n + 7) * (n + 9))
	w2 := -1 + math.Sqrt(2*(beta2-1))
	delta := 1 / math.Sqrt(0.5*math.Log(w2))
	alpha := math.Sqrt(2 / (w2 - 1))
	return delta * math.Asinh(y/alpha)
}

func kurtosisZ(b2, n float64) float64 {
	e := 3 * (n - 1) / (n + 1)
	varb2 := 24 * n * (n - 2) * (n - 3) / ((n + 1) * (n + 1) * (n + 3) * (n + 5))
	x := (b2 - e) / math.Sqrt(varb2)
	sqrtBeta1 := 6 * (n*n - 5*n + 2) / ((n + 7) * (n + 9)) *
		math.Sqrt(6*(n+3)*(n+5)/(n*(n-2)*(n-3)))
	a := 6 + 8/sqrtBeta1*(2/sqrtBeta1+math.Sqrt(1+4/(sqrtBeta1*sqrtBeta1)))
	term1 := 1 - 2/(9*a)
	denom := 1 + x*math.Sqrt(2/(a-4))
	if denom == 0 {
		return math.NaN()
	}
	term2 := math.Copysign(math.Cbrt((1-2/a)/math.Abs(denom)), denom)
	return (term1 - term2) / math.Sqrt(2/(9*a))
}

// Sample returns up to n values drawn without replacement. The draw is
// deterministic for a given seed; when n covers the input a copy is returned.
func Sample(values []float64, n int, seed uint64) []float64 {
	if n >= len(values) {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	if n <= 0 {
		return nil
	}
	r := rand.New(rand.NewPCG(seed, 0))
	perm := r.Perm(len(values))
	out := make([]float64, n)
	for i := range out {
		out[i] = values[perm[i]]
	}
	return out
}
