package service_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jeninefer/Commercial-View-sub000/internal/domain/service"
)

func TestWithinTolerance(t *testing.T) {
	got := service.WithinTolerance(0.28, 0.30, 0.1)
	require.NotNil(t, got)
	assert.True(t, *got)

	got = service.WithinTolerance(0.40, 0.30, 0.1)
	require.NotNil(t, got)
	assert.False(t, *got)
}

func TestWithinTolerance_BoundaryIsWithin(t *testing.T) {
	// |110 - 100| == 0.1 * 100 exactly.
	got := service.WithinTolerance(110, 100, 0.1)
	require.NotNil(t, got)
	assert.True(t, *got)

	got = service.WithinTolerance(90, 100, 0.1)
	require.NotNil(t, got)
	assert.True(t, *got)
}

func TestWithinTolerance_NoComparisonAvailable(t *testing.T) {
	assert.Nil(t, service.WithinTolerance(0.25, 0, 0.1))
	assert.Nil(t, service.WithinTolerance(0.25, math.NaN(), 0.1))
	assert.Nil(t, service.WithinTolerance(math.NaN(), 0.3, 0.1))
}
