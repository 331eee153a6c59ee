package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuantile(t *testing.T) {
	tests := []struct {
		name string
		xs   []float64
		q    float64
		want float64
	}{
		{"empty series", nil, 0.5, 0},
		{"single element", []float64{7}, 0.9, 7},
		{"median of even series interpolates", []float64{1, 2, 3, 4}, 0.5, 2.5},
		{"p90 of 1..10", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.9, 9.1},
		{"q=0 is minimum", []float64{5, 1, 3}, 0, 1},
		{"q=1 is maximum", []float64{5, 1, 3}, 1, 5},
		{"unsorted input", []float64{10, 1, 5, 3, 8}, 0.5, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Quantile(tt.xs, tt.q), 1e-12)
		})
	}
}

func TestQuantileDoesNotMutateInput(t *testing.T) {
	xs := []float64{3, 1, 2}
	Quantile(xs, 0.5)
	assert.Equal(t, []float64{3, 1, 2}, xs)
}

func TestNormalize01Boundedness(t *testing.T) {
	series := [][]float64{
		{0, 1, 2, 3, 4, 5},
		{100, 200, 40000}, // single extreme outlier
		{0.001, 0.002, 0.003},
		{5},
	}

	for _, xs := range series {
		out := Normalize01(xs, 0)
		require.Len(t, out, len(xs))
		for i, v := range out {
			assert.GreaterOrEqual(t, v, 0.0, "index %d", i)
			assert.LessOrEqual(t, v, 1.0, "index %d", i)
		}
	}
}

func TestNormalize01AllZeroSeries(t *testing.T) {
	out := Normalize01([]float64{0, 0, 0, 0}, 0)
	assert.Equal(t, []float64{0, 0, 0, 0}, out)
}

func TestNormalize01Monotonic(t *testing.T) {
	xs := []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 1000}
	out := Normalize01(xs, 0)

	hi := Quantile(xs, DefaultQuantile)
	for i := 0; i < len(xs); i++ {
		for j := 0; j < len(xs); j++ {
			if xs[i] < xs[j] && xs[j] <= hi {
				assert.LessOrEqual(t, out[i], out[j], "xs[%d]=%v vs xs[%d]=%v", i, xs[i], j, xs[j])
			}
		}
	}
}

func TestNormalize01OutlierResistance(t *testing.T) {
	// Without the percentile cap the outlier would push everything else
	// below 0.01; with it, mid-range values stay meaningful.
	xs := make([]float64, 0, 21)
	for i := 1; i <= 20; i++ {
		xs = append(xs, float64(10*i))
	}
	xs = append(xs, 40000)
	out := Normalize01(xs, 0)

	assert.Greater(t, out[9], 0.1, "median-range value keeps resolution")
	assert.InDelta(t, 1.0, out[20], 1e-12, "outlier clips to the cap")
}

func TestNormalizeAgainst(t *testing.T) {
	baseline := []float64{0, 10, 20, 30, 40, 50, 60, 70, 80, 90}

	assert.Zero(t, NormalizeAgainst(5, nil, 0))
	assert.Zero(t, NormalizeAgainst(-3, baseline, 0))
	assert.InDelta(t, 1.0, NormalizeAgainst(1e9, baseline, 0), 1e-12)

	mid := NormalizeAgainst(40, baseline, 0)
	assert.Greater(t, mid, 0.0)
	assert.Less(t, mid, 1.0)
}

func TestClip(t *testing.T) {
	assert.Equal(t, 0.0, Clip(-1, 0, 1))
	assert.Equal(t, 1.0, Clip(2, 0, 1))
	assert.Equal(t, 0.5, Clip(0.5, 0, 1))
}
