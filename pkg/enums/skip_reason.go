package enums

import "fmt"

// SkipReason explains why a stored cart line was left out of totals.
type SkipReason string

const (
	SkipReasonMalformed       SkipReason = "malformed"
	SkipReasonInvalidQuantity SkipReason = "invalid_quantity"
)

var validSkipReasons = []SkipReason{
	SkipReasonMalformed,
	SkipReasonInvalidQuantity,
}

// String implements fmt.Stringer.
func (v SkipReason) String() string {
	return string(v)
}

// IsValid reports whether the value is a known SkipReason.
func (v SkipReason) IsValid() bool {
	for _, candidate := range validSkipReasons {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseSkipReason converts raw input into a SkipReason.
func ParseSkipReason(value string) (SkipReason, error) {
	for _, candidate := range validSkipReasons {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid skip reason %q", value)
}
