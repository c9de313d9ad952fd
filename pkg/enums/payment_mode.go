package enums

import (
	"fmt"
	"strings"
)

// PaymentMode records how the customer settles the order.
type PaymentMode string

const (
	PaymentModeCOD  PaymentMode = "cod"
	PaymentModeCard PaymentMode = "card"
	PaymentModeUPI  PaymentMode = "upi"
)

var validPaymentModes = []PaymentMode{
	PaymentModeCOD,
	PaymentModeCard,
	PaymentModeUPI,
}

// String implements fmt.Stringer.
func (p PaymentMode) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentMode.
func (p PaymentMode) IsValid() bool {
	for _, candidate := range validPaymentModes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentMode converts raw input into a PaymentMode.
func ParsePaymentMode(value string) (PaymentMode, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validPaymentModes {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment mode %q", value)
}
