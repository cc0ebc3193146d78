package valueobject

import "fmt"

// ClientType is an immutable value object segmenting a borrower by company
// maturity. Segmentation drives reporting and pricing review, not limits.
type ClientType struct {
	value string
}

var (
	ClientTypeStartup      = ClientType{value: "STARTUP"}
	ClientTypeGrowing      = ClientType{value: "GROWING"}
	ClientTypeEnterprise   = ClientType{value: "ENTERPRISE"}
	ClientTypeUnclassified = ClientType{value: "UNCLASSIFIED"}
)

// ClientTypeFromString reconstructs a ClientType from its string representation.
func ClientTypeFromString(s string) (ClientType, error) {
	switch s {
	case "STARTUP":
		return ClientTypeStartup, nil
	case "GROWING":
		return ClientTypeGrowing, nil
	case "ENTERPRISE":
		return ClientTypeEnterprise, nil
	case "UNCLASSIFIED":
		return ClientTypeUnclassified, nil
	default:
		return ClientType{}, fmt.Errorf("invalid client type: %s", s)
	}
}

// String returns the string representation.
func (c ClientType) String() string {
	return c.value
}

// IsZero returns true if the ClientType has not been set.
func (c ClientType) IsZero() bool {
	return c.value == ""
}

// Equal checks equality with another ClientType.
func (c ClientType) Equal(other ClientType) bool {
	return c.value == other.value
}
