package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTTestInd(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float64
		wantErr  error
		wantStat float64
		wantP    float64
	}{
		{
			name:     "separated groups",
			a:        []float64{1, 2, 3, 4, 5},
			b:        []float64{6, 7, 8, 9, 10},
			wantStat: -5,
			wantP:    0.0010528,
		},
		{
			name:     "identical means",
			a:        []float64{1, 2, 3},
			b:        []float64{0, 2, 4},
			wantStat: 0,
			wantP:    1,
		},
		{name: "empty group", a: nil, b: []float64{1, 2}, wantErr: ErrEmptyInput},
		{name: "one value each", a: []float64{1}, b: []float64{2}, wantErr: ErrInsufficientData},
		{name: "no variance", a: []float64{3, 3}, b: []float64{5, 5}, wantErr: ErrConstantInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := TTestInd(tt.a, tt.b)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.wantStat, r.Statistic, 1e-9)
			assert.InDelta(t, tt.wantP, r.PValue, 1e-5)
			assert.Equal(t, float64(len(tt.a)+len(tt.b)-2), r.DF)
		})
	}
}

func TestMannWhitneyU(t *testing.T) {
	a := []float64{1, 2, 3, 4, 5}
	b := []float64{6, 7, 8, 9, 10}

	r, err := MannWhitneyU(a, b)
	require.NoError(t, err)
	assert.InDelta(t, 0, r.Statistic, 1e-12)
	assert.InDelta(t, 0.01219, r.PValue, 1e-4)
	assert.True(t, r.Significant())

	// Swapping the samples reports U for the other side with the same p.
	r2, err := MannWhitneyU(b, a)
	require.NoError(t, err)
	assert.InDelta(t, 25, r2.Statistic, 1e-12)
	assert.InDelta(t, r.PValue, r2.PValue, 1e-12)
}

func TestMannWhitneyU_Ties(t *testing.T) {
	r, err := MannWhitneyU([]float64{1, 2, 2, 3}, []float64{2, 3, 3, 4})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, r.PValue, 0.0)
	assert.LessOrEqual(t, r.PValue, 1.0)
	assert.False(t, r.Significant())

	_, err = MannWhitneyU([]float64{2, 2}, []float64{2, 2})
	assert.ErrorIs(t, err, ErrConstantInput)

	_, err = MannWhitneyU(nil, []float64{1})
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestCorrelation(t *testing.T) {
	tests := []struct {
		name    string
		fn      func(x, y []float64) (TestResult, error)
		x, y    []float64
		wantErr error
		wantR   float64
		wantP   float64
	}{
		{
			name:  "pearson moderate",
			fn:    Pearson,
			x:     []float64{1, 2, 3, 4, 5},
			y:     []float64{1, 3, 2, 5, 4},
			wantR: 0.8,
			wantP: 0.10408,
		},
		{
			name:  "pearson perfect",
			fn:    Pearson,
			x:     []float64{1, 2, 3, 4},
			y:     []float64{2, 4, 6, 8},
			wantR: 1,
			wantP: 0,
		},
		{
			name:  "spearman monotone nonlinear",
			fn:    Spearman,
			x:     []float64{1, 2, 3, 4, 5},
			y:     []float64{1, 8, 27, 64, 125},
			wantR: 1,
			wantP: 0,
		},
		{
			name:  "spearman inverse",
			fn:    Spearman,
			x:     []float64{10, 20, 30, 40, 50},
			y:     []float64{5, 4, 3, 2, 1},
			wantR: -1,
			wantP: 0,
		},
		{
			name:  "spearman moderate",
			fn:    Spearman,
			x:     []float64{10, 20, 30, 40, 50},
			y:     []float64{1, 30, 20, 500, 400},
			wantR: 0.8,
			wantP: 0.10408,
		},
		{name: "too short", fn: Pearson, x: []float64{1, 2}, y: []float64{1, 2}, wantErr: ErrInsufficientData},
		{name: "mismatch", fn: Pearson, x: []float64{1, 2, 3}, y: []float64{1, 2}, wantErr: ErrLengthMismatch},
		{name: "constant", fn: Spearman, x: []float64{1, 1, 1}, y: []float64{1, 2, 3}, wantErr: ErrConstantInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := tt.fn(tt.x, tt.y)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.wantR, r.Statistic, 1e-9)
			assert.InDelta(t, tt.wantP, r.PValue, 1e-4)
		})
	}
}

func TestOneWayANOVA(t *testing.T) {
	tests := []struct {
		name    string
		groups  [][]float64
		wantErr error
		wantF   float64
		wantP   float64
	}{
		{
			name:   "three groups",
			groups: [][]float64{{1, 2, 3}, {4, 5, 6}, {7, 8, 9}},
			wantF:  27,
			wantP:  0.001,
		},
		{
			name:   "equal means",
			groups: [][]float64{{1, 3}, {0, 4}},
			wantF:  0,
			wantP:  1,
		},
		{
			name:   "no within-group spread",
			groups: [][]float64{{1, 1}, {2, 2}},
			wantF:  math.Inf(1),
			wantP:  0,
		},
		{name: "single group", groups: [][]float64{{1, 2, 3}}, wantErr: ErrInsufficientData},
		{name: "empty group", groups: [][]float64{{1, 2}, {}}, wantErr: ErrEmptyInput},
		{name: "one value per group", groups: [][]float64{{1}, {2}}, wantErr: ErrInsufficientData},
		{name: "all constant", groups: [][]float64{{2, 2}, {2, 2}}, wantErr: ErrConstantInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := OneWayANOVA(tt.groups...)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			if math.IsInf(tt.wantF, 1) {
				assert.True(t, math.IsInf(r.Statistic, 1))
			} else {
				assert.InDelta(t, tt.wantF, r.Statistic, 1e-9)
			}
			assert.InDelta(t, tt.wantP, r.PValue, 1e-6)
		})
	}
}

func TestRankAverage(t *testing.T) {
	ranks, ties := rankAverage([]float64{10, 20, 20, 5, 20})
	assert.Equal(t, []float64{2, 4, 4, 1, 4}, ranks)
	assert.InDelta(t, 24, ties, 1e-12)
}
