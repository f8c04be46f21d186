package stats

import (
	"math"

	"gonum.org/v1/gonum/optimize"
)

// lambdaBound limits the Box-Cox exponent search to (-lambdaBound, lambdaBound).
const lambdaBound = 5.0

// Transformation holds a positive sample and its power and log transforms.
// All slices have the same length.
type Transformation struct {
	Original []float64
	BoxCox   []float64
	Log      []float64
	Log10    []float64
	Lambda   float64
}

// TransformDistribution drops non-positive values and returns the Box-Cox,
// natural log and base-10 log transforms of what remains. It fails with
// ErrEmptyInput when nothing is left and ErrConstantInput when every
// remaining value is equal.
func TransformDistribution(values []float64) (*Transformation, error) {
	positive := make([]float64, 0, len(values))
	for _, v := range values {
		if v > 0 && !math.IsInf(v, 1) {
			positive = append(positive, v)
		}
	}
	if len(positive) == 0 {
		return nil, ErrEmptyInput
	}
	if isConstant(positive) {
		return nil, ErrConstantInput
	}

	logs := make([]float64, len(positive))
	log10s := make([]float64, len(positive))
	for i, v := range positive {
		logs[i] = math.Log(v)
		log10s[i] = math.Log10(v)
	}

	lambda := fitBoxCoxLambda(logs)

	return &Transformation{
		Original: positive,
		BoxCox:   BoxCox(positive, lambda),
		Lambda:   lambda,
		Log:      logs,
		Log10:    log10s,
	}, nil
}

// BoxCox applies the power transform with the given lambda to positive values.
func BoxCox(values []float64, lambda float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		if lambda == 0 {
			out[i] = math.Log(v)
			continue
		}
		out[i] = math.Expm1(lambda*math.Log(v)) / lambda
	}
	return out
}

// BoxCoxLogLikelihood is the profile log-likelihood of lambda given the
// natural logs of a positive sample.
func BoxCoxLogLikelihood(logs []float64, lambda float64) float64 {
	n := float64(len(logs))
	var sumLog float64
	for _, l := range logs {
		sumLog += l
	}
	return (lambda-1)*sumLog - n/2*logVarianceBoxCox(logs, lambda)
}

// logVarianceBoxCox returns ln(var(y)) of the transformed sample, using the
// biased variance. The shift by -1 does not change the variance, so it is
// computed from exp(lambda*ln x) scaled by its largest term to stay finite.
func logVarianceBoxCox(logs []float64, lambda float64) float64 {
	if math.Abs(lambda) < 1e-12 {
		return math.Log(biasedVariance(logs))
	}

	scaled := make([]float64, len(logs))
	peak := math.Inf(-1)
	for _, l := range logs {
		peak = math.Max(peak, lambda*l)
	}
	for i, l := range logs {
		scaled[i] = math.Exp(lambda*l - peak)
	}

	v := biasedVariance(scaled)
	if v <= 0 {
		return math.Inf(-1)
	}
	return 2*peak + math.Log(v) - 2*math.Log(math.Abs(lambda))
}

func biasedVariance(values []float64) float64 {
	n := float64(len(values))
	var mean float64
	for _, v := range values {
		mean += v
	}
	mean /= n
	var ss float64
	for _, v := range values {
		d := v - mean
		ss += d * d
	}
	return ss / n
}

// fitBoxCoxLambda maximizes the Box-Cox log-likelihood. A coarse grid picks
// the starting point, then Nelder-Mead refines it over theta where
// lambda = lambdaBound * tanh(theta).
func fitBoxCoxLambda(logs []float64) float64 {
	negLLF := func(lambda float64) float64 {
		llf := BoxCoxLogLikelihood(logs, lambda)
		if math.IsNaN(llf) || math.IsInf(llf, 1) {
			return math.Inf(1)
		}
		return -llf
	}

	best, bestF := 0.0, negLLF(0)
	for l := -lambdaBound + 0.25; l < lambdaBound; l += 0.25 {
		if f := negLLF(l); f < bestF {
			best, bestF = l, f
		}
	}

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			return negLLF(lambdaBound * math.Tanh(x[0]))
		},
	}
	// A search stopped early may still beat the grid, so its error is not
	// fatal; the result is kept only when it improves the likelihood.
	result, _ := optimize.Minimize(problem, []float64{math.Atanh(best / lambdaBound)}, nil, &optimize.NelderMead{})
	if result == nil || len(result.X) == 0 {
		return best
	}
	refined := lambdaBound * math.Tanh(result.X[0])
	if math.IsNaN(refined) || math.IsInf(refined, 0) || negLLF(refined) > bestF {
		return best
	}
	return refined
}

// BestTransform names the transform whose output has the smallest absolute
// skewness. Ties keep the earlier of Box-Cox, Natural Log, Common Log.
func BestTransform(t *Transformation) (string, float64) {
	candidates := []struct {
		name   string
		values []float64
	}{
		{name: "Box-Cox", values: t.BoxCox},
		{name: "Natural Log", values: t.Log},
		{name: "Common Log", values: t.Log10},
	}

	bestName, bestSkew := "", math.Inf(1)
	for _, c := range candidates {
		s := math.Abs(Skewness(c.values))
		if math.IsNaN(s) {
			continue
		}
		if s < bestSkew {
			bestName, bestSkew = c.name, s
		}
	}
	return bestName, bestSkew
}
