package activation

import "strings"

// validRenewalCodes is the compiled-in allow-list of redeemable codes. Codes
// are stored in clean form (16 uppercase alphanumerics, no separators) and
// compared after normalization, so drivers can type them with or without
// dashes.
var validRenewalCodes = []string{
	"TX7K2M9P4Q8R1S6T",
	"W3N8B5V2C7X4Z9L1",
	"H6J3F9G2D8S5A1K7",
	"R4T7Y2U9I5O1P8Q3",
	"M8K5L2J9H6G3F7D4",
	"Z1X8C5V2B9N6M3W7",
	"Q9W6E3R7T4Y1U8I5",
	"A5S2D9F6G3H7J4K1",
	"P7O4I1U8Y5T2R9E6",
	"L3K9J6H2G8F5D1S7",
	"N2M7B4V9C6X1Z8W5",
	"E8R5T2Y9U6I3O7P4",
}

// NormalizeCode strips separators and any other non-alphanumeric input and
// uppercases the rest.
func NormalizeCode(code string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(code) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FormatCode renders free-text input as dash-separated groups of four for
// display, capped at the full code width of 19 characters. Formatting is an
// input-ergonomics helper only; it performs no validation.
func FormatCode(code string) string {
	cleaned := NormalizeCode(code)

	var groups []string
	for len(cleaned) > 0 {
		n := 4
		if len(cleaned) < n {
			n = len(cleaned)
		}
		groups = append(groups, cleaned[:n])
		cleaned = cleaned[n:]
	}

	formatted := strings.Join(groups, "-")
	if len(formatted) > 19 {
		formatted = formatted[:19]
	}
	return formatted
}

func isAllowedCode(cleaned string) bool {
	for _, candidate := range validRenewalCodes {
		if candidate == cleaned {
			return true
		}
	}
	return false
}
