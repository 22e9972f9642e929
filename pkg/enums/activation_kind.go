package enums

import "fmt"

// ActivationKind distinguishes the first-run trial from a code renewal.
type ActivationKind string

const (
	ActivationKindTrial   ActivationKind = "trial"
	ActivationKindRenewal ActivationKind = "renewal"
)

var validActivationKinds = []ActivationKind{
	ActivationKindTrial,
	ActivationKindRenewal,
}

// String implements fmt.Stringer.
func (a ActivationKind) String() string {
	return string(a)
}

// IsValid reports whether the value is a known activation kind.
func (a ActivationKind) IsValid() bool {
	for _, candidate := range validActivationKinds {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseActivationKind converts raw input into ActivationKind.
func ParseActivationKind(value string) (ActivationKind, error) {
	for _, candidate := range validActivationKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid activation kind %q", value)
}
