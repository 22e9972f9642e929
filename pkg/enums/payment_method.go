package enums

import "fmt"

// PaymentMethod identifies how a trip is settled. Subscriber trips are billed
// through the enclosing cycle; cash and card trips are settled on the spot.
type PaymentMethod string

const (
	PaymentMethodSubscriber PaymentMethod = "subscriber"
	PaymentMethodCash       PaymentMethod = "cash"
	PaymentMethodCard       PaymentMethod = "card"
)

var validPaymentMethods = []PaymentMethod{
	PaymentMethodSubscriber,
	PaymentMethodCash,
	PaymentMethodCard,
}

// String implements fmt.Stringer.
func (p PaymentMethod) String() string {
	return string(p)
}

// IsValid reports whether the value is a known payment method.
func (p PaymentMethod) IsValid() bool {
	for _, candidate := range validPaymentMethods {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentMethod converts raw input into PaymentMethod.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	for _, candidate := range validPaymentMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment method %q", value)
}
