package valueobject_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jeninefer/Commercial-View-sub000/internal/domain/valueobject"
)

func TestPayerGradeFromString(t *testing.T) {
	g, err := valueobject.PayerGradeFromString("B")
	require.NoError(t, err)
	assert.True(t, valueobject.PayerGradeB.Equal(g))

	_, err = valueobject.PayerGradeFromString("E")
	assert.Error(t, err)
}

func TestPayerGrade_SeverityOrdering(t *testing.T) {
	assert.Equal(t, 0, valueobject.PayerGradeA.Severity())
	assert.Equal(t, 1, valueobject.PayerGradeB.Severity())
	assert.Equal(t, 2, valueobject.PayerGradeC.Severity())
	assert.Equal(t, 3, valueobject.PayerGradeD.Severity())
	// Unplaceable payers must never rank safer than graded ones.
	assert.Equal(t, 3, valueobject.PayerGradeUnclassified.Severity())
}

func TestPayerGrade_IsZero(t *testing.T) {
	var g valueobject.PayerGrade
	assert.True(t, g.IsZero())
	assert.False(t, valueobject.PayerGradeA.IsZero())
}
