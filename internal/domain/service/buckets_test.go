package service_test

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jeninefer/Commercial-View-sub000/internal/domain/service"
)

func TestNewBucketTable_Validation(t *testing.T) {
	_, err := service.NewBucketTable(nil, nil)
	assert.Error(t, err)

	_, err = service.NewBucketTable([]float64{0, 10}, []string{"only-one"})
	assert.Error(t, err)

	_, err = service.NewBucketTable([]float64{0, 10, 5}, []string{"a", "b", "c"})
	assert.Error(t, err)

	_, err = service.NewBucketTable([]float64{0, math.NaN()}, []string{"a", "b"})
	assert.Error(t, err)
}

func TestBucketTable_LowerInclusiveBoundaries(t *testing.T) {
	table, err := service.NewBucketTable([]float64{0, 15, 20, 25, 30},
		[]string{"0-15%", "15-20%", "20-25%", "25-30%", "30%+"})
	require.NoError(t, err)

	cases := []struct {
		value float64
		label string
		idx   int
	}{
		{0, "0-15%", 0},
		{14.999, "0-15%", 0},
		{15.0, "15-20%", 1},
		{19.999, "15-20%", 1},
		{20.0, "20-25%", 2},
		{30.0, "30%+", 4},
		{99.0, "30%+", 4},
	}
	for _, tc := range cases {
		label, idx := table.Bucket(tc.value)
		assert.Equal(t, tc.label, label, "value %v", tc.value)
		assert.Equal(t, tc.idx, idx, "value %v", tc.value)
	}
}

func TestBucketTable_OutOfDomainIsUnclassified(t *testing.T) {
	table, err := service.NewBucketTable([]float64{0, 10}, []string{"low", "high"})
	require.NoError(t, err)

	label, idx := table.Bucket(-0.001)
	assert.Equal(t, service.UnclassifiedLabel, label)
	assert.Equal(t, -1, idx)

	label, idx = table.Bucket(math.NaN())
	assert.Equal(t, service.UnclassifiedLabel, label)
	assert.Equal(t, -1, idx)

	label, idx = table.BucketDecimal(decimal.NewFromInt(-5))
	assert.Equal(t, service.UnclassifiedLabel, label)
	assert.Equal(t, -1, idx)
}

func TestAPRBucketLabels(t *testing.T) {
	labels := service.APRBucketLabels([]float64{0, 15, 20, 25, 30})
	assert.Equal(t, []string{"0-15%", "15-20%", "20-25%", "25-30%", "30%+"}, labels)
}

func TestLineBucketLabels(t *testing.T) {
	labels := service.LineBucketLabels([]float64{0, 100_000, 250_000, 500_000, 1_000_000, 5_000_000})
	assert.Equal(t, []string{"0-100k", "100k-250k", "250k-500k", "500k-1M", "1M-5M", "5M+"}, labels)
}

func TestDPDBucketLabels(t *testing.T) {
	labels := service.DPDBucketLabels([]int{0, 1, 31, 61, 91, 121, 181})
	assert.Equal(t, []string{"current", "1-30", "31-60", "61-90", "91-120", "121-180", "180+"}, labels)
}
