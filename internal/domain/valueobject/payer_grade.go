package valueobject

import "fmt"

// PayerGrade is an immutable value object grading a payer by its historical
// delinquency behavior. A is the cleanest book, D the most delinquent.
type PayerGrade struct {
	value string
}

var (
	PayerGradeA            = PayerGrade{value: "A"}
	PayerGradeB            = PayerGrade{value: "B"}
	PayerGradeC            = PayerGrade{value: "C"}
	PayerGradeD            = PayerGrade{value: "D"}
	PayerGradeUnclassified = PayerGrade{value: "UNCLASSIFIED"}
)

// PayerGradeFromString reconstructs a PayerGrade from its string representation.
func PayerGradeFromString(s string) (PayerGrade, error) {
	switch s {
	case "A":
		return PayerGradeA, nil
	case "B":
		return PayerGradeB, nil
	case "C":
		return PayerGradeC, nil
	case "D":
		return PayerGradeD, nil
	case "UNCLASSIFIED":
		return PayerGradeUnclassified, nil
	default:
		return PayerGrade{}, fmt.Errorf("invalid payer grade: %s", s)
	}
}

// String returns the string representation.
func (g PayerGrade) String() string {
	return g.value
}

// Severity returns the ordinal badness of the grade. A=0, B=1, C=2, D=3.
// An unclassified payer is treated as the worst grade so that rows the
// classifier could not place never look safer than graded ones.
func (g PayerGrade) Severity() int {
	switch g.value {
	case "A":
		return 0
	case "B":
		return 1
	case "C":
		return 2
	default:
		return 3
	}
}

// IsZero returns true if the PayerGrade has not been set.
func (g PayerGrade) IsZero() bool {
	return g.value == ""
}

// Equal checks equality with another PayerGrade.
func (g PayerGrade) Equal(other PayerGrade) bool {
	return g.value == other.value
}
