package service_test

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jeninefer/Commercial-View-sub000/internal/domain/model"
	"github.com/Jeninefer/Commercial-View-sub000/internal/domain/service"
	"github.com/Jeninefer/Commercial-View-sub000/internal/domain/valueobject"
)

func newClassifier(t *testing.T) *service.Classifier {
	t.Helper()
	c, err := service.NewClassifier(service.DefaultClassifierConfig())
	require.NoError(t, err)
	return c
}

func TestClassifier_BucketAPRBoundaries(t *testing.T) {
	c := newClassifier(t)

	cases := map[float64]string{
		0:      "0-15%",
		14.999: "0-15%",
		15.0:   "15-20%",
		19.999: "15-20%",
		20.0:   "20-25%",
		25.0:   "25-30%",
		30.0:   "30%+",
		48.5:   "30%+",
	}
	for apr, want := range cases {
		assert.Equal(t, want, c.BucketAPR(apr), "apr %v", apr)
	}

	assert.Equal(t, service.UnclassifiedLabel, c.BucketAPR(-1))
	assert.Equal(t, service.UnclassifiedLabel, c.BucketAPR(math.NaN()))
}

func TestClassifier_BucketLine(t *testing.T) {
	c := newClassifier(t)

	assert.Equal(t, "0-100k", c.BucketLine(decimal.NewFromInt(99_999)))
	assert.Equal(t, "100k-250k", c.BucketLine(decimal.NewFromInt(100_000)))
	assert.Equal(t, "500k-1M", c.BucketLine(decimal.NewFromInt(750_000)))
	assert.Equal(t, "5M+", c.BucketLine(decimal.NewFromInt(5_000_000)))
	assert.Equal(t, service.UnclassifiedLabel, c.BucketLine(decimal.NewFromInt(-10)))
}

func TestClassifier_BucketPayer(t *testing.T) {
	c := newClassifier(t)

	assert.True(t, valueobject.PayerGradeA.Equal(c.BucketPayer(0)))
	assert.True(t, valueobject.PayerGradeA.Equal(c.BucketPayer(4.9)))
	assert.True(t, valueobject.PayerGradeB.Equal(c.BucketPayer(5)))
	assert.True(t, valueobject.PayerGradeC.Equal(c.BucketPayer(15)))
	assert.True(t, valueobject.PayerGradeD.Equal(c.BucketPayer(30)))
	assert.True(t, valueobject.PayerGradeD.Equal(c.BucketPayer(87.5)))
	assert.True(t, valueobject.PayerGradeUnclassified.Equal(c.BucketPayer(-3)))
	assert.True(t, valueobject.PayerGradeUnclassified.Equal(c.BucketPayer(math.NaN())))
}

func TestClassifier_ClassifyClient(t *testing.T) {
	c := newClassifier(t)

	cases := []struct {
		name    string
		revenue int64
		years   float64
		want    valueobject.ClientType
	}{
		{"young small company", 1_000_000, 2, valueobject.ClientTypeStartup},
		{"startup boundary years", 4_999_999, 3, valueobject.ClientTypeStartup},
		{"small but long established", 1_000_000, 10, valueobject.ClientTypeEnterprise},
		{"mid revenue mature", 10_000_000, 5, valueobject.ClientTypeGrowing},
		{"mid revenue young", 10_000_000, 2, valueobject.ClientTypeEnterprise},
		{"revenue at startup ceiling", 5_000_000, 2, valueobject.ClientTypeEnterprise},
		{"large company", 60_000_000, 12, valueobject.ClientTypeEnterprise},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := c.ClassifyClient(decimal.NewFromInt(tc.revenue), tc.years)
			assert.True(t, tc.want.Equal(got), "got %s", got)
		})
	}
}

func TestClassifier_ClassifyClient_OutOfDomain(t *testing.T) {
	c := newClassifier(t)

	got := c.ClassifyClient(decimal.NewFromInt(-1), 5)
	assert.True(t, valueobject.ClientTypeUnclassified.Equal(got))

	got = c.ClassifyClient(decimal.NewFromInt(1_000_000), math.NaN())
	assert.True(t, valueobject.ClientTypeUnclassified.Equal(got))

	got = c.ClassifyClient(decimal.NewFromInt(1_000_000), -2)
	assert.True(t, valueobject.ClientTypeUnclassified.Equal(got))
}

func TestClassifier_ClassifyTagsAllLabels(t *testing.T) {
	c := newClassifier(t)

	rec := model.LoanRecord{
		LoanID:        "L-1",
		CustomerID:    "C-1",
		Amount:        decimal.NewFromInt(300_000),
		APR:           22.5,
		Industry:      "Tech",
		DPDHistoryPct: 7.2,
		Revenue:       decimal.NewFromInt(12_000_000),
		YearsActive:   6,
	}
	got := c.Classify(rec)

	assert.Equal(t, "20-25%", got.AprBucket)
	assert.Equal(t, "250k-500k", got.LineBucket)
	assert.True(t, valueobject.PayerGradeB.Equal(got.PayerGrade))
	assert.True(t, valueobject.ClientTypeGrowing.Equal(got.ClientType))
	// The input facts ride along untouched.
	assert.Equal(t, "L-1", got.LoanID)
	assert.True(t, rec.Amount.Equal(got.Amount))
}

func TestNewClassifier_RejectsBadConfig(t *testing.T) {
	cfg := service.DefaultClassifierConfig()
	cfg.APRBounds = []float64{0, 20, 15}
	_, err := service.NewClassifier(cfg)
	assert.Error(t, err)

	cfg = service.DefaultClassifierConfig()
	cfg.PayerBounds = []float64{0, 5, 15}
	_, err = service.NewClassifier(cfg)
	assert.Error(t, err)

	cfg = service.DefaultClassifierConfig()
	cfg.StartupRevenueMax = decimal.NewFromInt(50_000_000)
	_, err = service.NewClassifier(cfg)
	assert.Error(t, err)
}
