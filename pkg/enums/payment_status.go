package enums

import "fmt"

// PaymentStatus tracks the manual review of an uploaded payment proof.
type PaymentStatus string

const (
	PaymentStatusPendingVerification PaymentStatus = "pending_verification"
	PaymentStatusConfirmed           PaymentStatus = "confirmed"
	PaymentStatusRejected            PaymentStatus = "rejected"
)

var validPaymentStatuses = []PaymentStatus{
	PaymentStatusPendingVerification,
	PaymentStatusConfirmed,
	PaymentStatusRejected,
}

// String implements fmt.Stringer.
func (v PaymentStatus) String() string {
	return string(v)
}

// IsValid reports whether the value is a known PaymentStatus.
func (v PaymentStatus) IsValid() bool {
	for _, candidate := range validPaymentStatuses {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParsePaymentStatus converts raw input into a PaymentStatus.
func ParsePaymentStatus(value string) (PaymentStatus, error) {
	for _, candidate := range validPaymentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment status %q", value)
}
