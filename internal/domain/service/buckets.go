package service

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"
)

// UnclassifiedLabel is the bucket assigned to values outside every interval,
// NaN and negatives included. Downstream aggregation groups these rows
// instead of dropping them.
const UnclassifiedLabel = "unclassified"

// BucketTable maps a numeric value onto one of an ordered set of half-open,
// lower-inclusive intervals. Bounds are the ascending lower bounds of the
// intervals; the last interval is unbounded above. The table is immutable
// after construction so bucket rules stay auditable in one place.
type BucketTable struct {
	bounds []float64
	labels []string
}

// NewBucketTable validates and builds a bucket table. Bounds must be strictly
// ascending and carry exactly one label each.
func NewBucketTable(bounds []float64, labels []string) (BucketTable, error) {
	if len(bounds) == 0 {
		return BucketTable{}, fmt.Errorf("bucket table requires at least one bound")
	}
	if len(bounds) != len(labels) {
		return BucketTable{}, fmt.Errorf("bucket table has %d bounds but %d labels", len(bounds), len(labels))
	}
	for i, b := range bounds {
		if math.IsNaN(b) {
			return BucketTable{}, fmt.Errorf("bucket bound %d is NaN", i)
		}
		if i > 0 && b <= bounds[i-1] {
			return BucketTable{}, fmt.Errorf("bucket bounds must be strictly ascending, bound %d (%v) <= bound %d (%v)", i, b, i-1, bounds[i-1])
		}
	}
	bs := make([]float64, len(bounds))
	copy(bs, bounds)
	ls := make([]string, len(labels))
	copy(ls, labels)
	return BucketTable{bounds: bs, labels: ls}, nil
}

// Bucket returns the label of the interval containing v and the interval's
// ordinal index. Values below the lowest bound, NaN included, return
// (UnclassifiedLabel, -1).
func (t BucketTable) Bucket(v float64) (string, int) {
	if math.IsNaN(v) || v < t.bounds[0] {
		return UnclassifiedLabel, -1
	}
	// SearchFloat64s yields the first bound >= v; an exact hit starts its own
	// interval, anything else belongs to the interval before.
	idx := sort.SearchFloat64s(t.bounds, v)
	if idx < len(t.bounds) && t.bounds[idx] == v {
		return t.labels[idx], idx
	}
	return t.labels[idx-1], idx - 1
}

// BucketDecimal buckets a decimal amount. Negative amounts are out of domain.
func (t BucketTable) BucketDecimal(d decimal.Decimal) (string, int) {
	if d.IsNegative() {
		return UnclassifiedLabel, -1
	}
	return t.Bucket(d.InexactFloat64())
}

// Size returns the number of intervals in the table.
func (t BucketTable) Size() int {
	return len(t.bounds)
}

// Labels returns a copy of the interval labels in order.
func (t BucketTable) Labels() []string {
	ls := make([]string, len(t.labels))
	copy(ls, t.labels)
	return ls
}

// ------- label builders -------

// APRBucketLabels derives range labels from ascending APR bounds, e.g.
// [0 15 20 25 30] -> ["0-15%" "15-20%" "20-25%" "25-30%" "30%+"].
func APRBucketLabels(bounds []float64) []string {
	labels := make([]string, len(bounds))
	for i := range bounds {
		if i == len(bounds)-1 {
			labels[i] = trimFloat(bounds[i]) + "%+"
			continue
		}
		labels[i] = trimFloat(bounds[i]) + "-" + trimFloat(bounds[i+1]) + "%"
	}
	return labels
}

// LineBucketLabels derives compact amount-range labels from ascending line
// bounds, e.g. [0 100000 250000 500000 1000000 5000000] ->
// ["0-100k" "100k-250k" "250k-500k" "500k-1M" "1M-5M" "5M+"].
func LineBucketLabels(bounds []float64) []string {
	labels := make([]string, len(bounds))
	for i := range bounds {
		if i == len(bounds)-1 {
			labels[i] = compactAmount(bounds[i]) + "+"
			continue
		}
		labels[i] = compactAmount(bounds[i]) + "-" + compactAmount(bounds[i+1])
	}
	return labels
}

// DPDBucketLabels derives day-range labels from ascending DPD lower bounds.
// The first interval is the zero-days "current" bucket, e.g.
// [0 1 31 61 91 121 181] ->
// ["current" "1-30" "31-60" "61-90" "91-120" "121-180" "180+"].
func DPDBucketLabels(bounds []int) []string {
	labels := make([]string, len(bounds))
	for i := range bounds {
		switch {
		case i == 0:
			labels[i] = "current"
		case i == len(bounds)-1:
			labels[i] = strconv.Itoa(bounds[i]-1) + "+"
		default:
			labels[i] = strconv.Itoa(bounds[i]) + "-" + strconv.Itoa(bounds[i+1]-1)
		}
	}
	return labels
}

func trimFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func compactAmount(v float64) string {
	switch {
	case v >= 1_000_000:
		return trimFloat(v/1_000_000) + "M"
	case v >= 1_000:
		return trimFloat(v/1_000) + "k"
	default:
		return trimFloat(v)
	}
}
