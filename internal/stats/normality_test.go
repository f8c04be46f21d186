package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShapiroWilk(t *testing.T) {
	tests := []struct {
		name       string
		values     []float64
		wantErr    error
		wantNormal bool
	}{
		{name: "normal n=100", values: normalQuantiles(100), wantNormal: true},
		{name: "normal n=8", values: normalQuantiles(8), wantNormal: true},
		{name: "normal n=5", values: normalQuantiles(5), wantNormal: true},
		{name: "normal n=2000", values: normalQuantiles(2000), wantNormal: true},
		{name: "exponential n=100", values: exponentialQuantiles(100)},
		{name: "skewed lognormal n=50", values: lognormal(50)},
		{name: "too few", values: []float64{1, 2}, wantErr: ErrInsufficientData},
		{name: "too many", values: make([]float64, ShapiroMaxN+1), wantErr: ErrInsufficientData},
		{name: "constant", values: []float64{3, 3, 3, 3}, wantErr: ErrConstantInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := ShapiroWilk(tt.values)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Greater(t, r.Statistic, 0.0)
			assert.LessOrEqual(t, r.Statistic, 1.0)
			if tt.wantNormal {
				assert.Greater(t, r.PValue, 0.5)
			} else {
				assert.Less(t, r.PValue, 0.001)
			}
		})
	}
}

func TestShapiroWilk_ThreePoints(t *testing.T) {
	r, err := ShapiroWilk([]float64{1, 2, 4})
	require.NoError(t, err)
	assert.InDelta(t, 0.9642857, r.Statistic, 1e-6)
	assert.InDelta(t, 0.6369, r.PValue, 1e-3)

	r, err = ShapiroWilk([]float64{3, 1, 2})
	require.NoError(t, err)
	assert.InDelta(t, 1, r.Statistic, 1e-12)
	assert.InDelta(t, 1, r.PValue, 1e-12)
}

func TestShapiroWilk_Reference(t *testing.T) {
	x := []float64{148, 154, 158, 160, 161, 162, 166, 170, 182, 195, 236}
	r, err := ShapiroWilk(x)
	require.NoError(t, err)
	assert.InDelta(t, 0.7888, r.Statistic, 1e-4)
	assert.InDelta(t, 0.0067, r.PValue, 1e-4)
	assert.True(t, r.Significant())
}

func TestShapiroWilk_CoefficientsAntisymmetric(t *testing.T) {
	for _, n := range []int{4, 5, 6, 11, 12, 50} {
		a := shapiroCoefficients(n)
		var ss float64
		for i := range a {
			assert.InDelta(t, -a[i], a[n-1-i], 1e-12, "n=%d i=%d", n, i)
			ss += a[i] * a[i]
		}
		assert.InDelta(t, 1, ss, 1e-3, "n=%d", n)
	}
}

func TestDAgostinoK2(t *testing.T) {
	tests := []struct {
		name       string
		values     []float64
		wantErr    error
		wantNormal bool
	}{
		{name: "normal", values: normalQuantiles(200), wantNormal: true},
		{name: "exponential", values: exponentialQuantiles(200)},
		{name: "too few", values: normalQuantiles(7), wantErr: ErrInsufficientData},
		{name: "constant", values: []float64{1, 1, 1, 1, 1, 1, 1, 1}, wantErr: ErrConstantInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := DAgostinoK2(tt.values)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.GreaterOrEqual(t, r.Statistic, 0.0)
			assert.Equal(t, 2.0, r.DF)
			if tt.wantNormal {
				assert.Greater(t, r.PValue, 0.5)
			} else {
				assert.Less(t, r.PValue, 0.001)
			}
		})
	}
}

func TestSample(t *testing.T) {
	values := make([]float64, 100)
	for i := range values {
		values[i] = float64(i)
	}

	a := Sample(values, 10, 42)
	b := Sample(values, 10, 42)
	c := Sample(values, 10, 7)
	require.Len(t, a, 10)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)

	seen := map[float64]bool{}
	for _, v := range a {
		assert.False(t, seen[v], "duplicate %v", v)
		seen[v] = true
		assert.Contains(t, values, v)
	}

	all := Sample(values, 500, 42)
	assert.Equal(t, values, all)
	all[0] = -1
	assert.Equal(t, 0.0, values[0])

	assert.Empty(t, Sample(values, 0, 42))
}
