package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat/distuv"
)

// normalQuantiles returns n evenly spaced standard normal quantiles.
func normalQuantiles(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = distuv.UnitNormal.Quantile((float64(i) + 0.5) / float64(n))
	}
	return out
}

// exponentialQuantiles returns n evenly spaced unit exponential quantiles.
func exponentialQuantiles(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = -math.Log(1 - (float64(i)+0.5)/float64(n))
	}
	return out
}

func lognormal(n int) []float64 {
	out := normalQuantiles(n)
	for i, v := range out {
		out[i] = math.Exp(8 + 1.5*v)
	}
	return out
}

func TestTransformDistribution(t *testing.T) {
	tests := []struct {
		name       string
		values     []float64
		wantErr    error
		wantLength int
	}{
		{
			name:       "drops zero negative and NaN",
			values:     []float64{0, -5, 1, 2, math.NaN(), 3},
			wantLength: 3,
		},
		{
			name:       "drops infinity",
			values:     []float64{1, 2, math.Inf(1)},
			wantLength: 2,
		},
		{
			name:       "two points",
			values:     []float64{1, 10},
			wantLength: 2,
		},
		{
			name:       "skewed sample",
			values:     lognormal(200),
			wantLength: 200,
		},
		{
			name:    "nothing positive",
			values:  []float64{0, -1, -2},
			wantErr: ErrEmptyInput,
		},
		{
			name:    "empty",
			values:  nil,
			wantErr: ErrEmptyInput,
		},
		{
			name:    "constant",
			values:  []float64{4, 4, 4, -1},
			wantErr: ErrConstantInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := TransformDistribution(tt.values)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, tr)
				return
			}
			require.NoError(t, err)

			assert.Len(t, tr.Original, tt.wantLength)
			assert.Len(t, tr.BoxCox, tt.wantLength)
			assert.Len(t, tr.Log, tt.wantLength)
			assert.Len(t, tr.Log10, tt.wantLength)
			assert.False(t, math.IsNaN(tr.Lambda))
			assert.False(t, math.IsInf(tr.Lambda, 0))
			assert.Less(t, math.Abs(tr.Lambda), lambdaBound)
			for i, v := range tr.Original {
				assert.Greater(t, v, 0.0)
				assert.InDelta(t, math.Log(v), tr.Log[i], 1e-12)
				assert.InDelta(t, math.Log10(v), tr.Log10[i], 1e-12)
			}
		})
	}
}

func TestTransformDistribution_LognormalLambdaNearZero(t *testing.T) {
	tr, err := TransformDistribution(lognormal(500))
	require.NoError(t, err)
	assert.InDelta(t, 0, tr.Lambda, 0.25)

	name, skew := BestTransform(tr)
	assert.NotEmpty(t, name)
	assert.Less(t, skew, 0.1)
	assert.Less(t, skew, math.Abs(Skewness(tr.Original)))
}

func TestTransformDistribution_LambdaMaximizesLikelihood(t *testing.T) {
	values := exponentialQuantiles(300)
	for i := range values {
		values[i] = 1 + 100*values[i]
	}
	tr, err := TransformDistribution(values)
	require.NoError(t, err)

	logs := tr.Log
	best := BoxCoxLogLikelihood(logs, tr.Lambda)
	for _, l := range []float64{tr.Lambda - 0.5, tr.Lambda + 0.5, -1, 1} {
		assert.GreaterOrEqual(t, best, BoxCoxLogLikelihood(logs, l), "lambda %v", l)
	}
}

func TestBoxCox(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		lambda float64
		want   []float64
	}{
		{name: "log at zero", values: []float64{1, math.E}, lambda: 0, want: []float64{0, 1}},
		{name: "identity shift", values: []float64{2, 5}, lambda: 1, want: []float64{1, 4}},
		{name: "square root", values: []float64{4}, lambda: 0.5, want: []float64{2}},
		{name: "reciprocal", values: []float64{2}, lambda: -1, want: []float64{0.5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BoxCox(tt.values, tt.lambda)
			require.Len(t, got, len(tt.want))
			for i := range got {
				assert.InDelta(t, tt.want[i], got[i], 1e-12)
			}
		})
	}
}

func TestBestTransform_SkipsUndefinedSkew(t *testing.T) {
	tr := &Transformation{
		BoxCox: []float64{1, 2},
		Log:    []float64{1, 2, 10},
		Log10:  []float64{1, 2, 3},
	}
	name, skew := BestTransform(tr)
	assert.Equal(t, "Common Log", name)
	assert.InDelta(t, 0, skew, 1e-12)
}
