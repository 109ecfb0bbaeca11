package enums

import "fmt"

// PaymentDecision is the admin verdict on a payment proof.
type PaymentDecision string

const (
	PaymentDecisionConfirm PaymentDecision = "confirm"
	PaymentDecisionReject  PaymentDecision = "reject"
)

var validPaymentDecisions = []PaymentDecision{
	PaymentDecisionConfirm,
	PaymentDecisionReject,
}

// String implements fmt.Stringer.
func (v PaymentDecision) String() string {
	return string(v)
}

// IsValid reports whether the value is a known PaymentDecision.
func (v PaymentDecision) IsValid() bool {
	for _, candidate := range validPaymentDecisions {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParsePaymentDecision converts raw input into a PaymentDecision.
func ParsePaymentDecision(value string) (PaymentDecision, error) {
	for _, candidate := range validPaymentDecisions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment decision %q", value)
}
