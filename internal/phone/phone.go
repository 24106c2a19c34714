// Package phone normalizes free-form phone numbers into an E.164-like
// "+<country code><digits>" form for SMS delivery.
package phone

import "strings"

// Normalize applies a best-effort heuristic to raw:
//
//   - non-digits are stripped;
//   - 10 digits are treated as a national number and prefixed with "+"+countryCode;
//   - 12 digits starting with countryCode only get a "+";
//   - any other number with at least 10 digits gets a "+";
//   - anything shorter is not a usable number and yields ok == false.
func Normalize(raw, countryCode string) (string, bool) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	switch {
	case len(digits) == 10:
		return "+" + countryCode + digits, true
	case len(digits) == 12 && countryCode != "" && strings.HasPrefix(digits, countryCode):
		return "+" + digits, true
	case len(digits) >= 10:
		return "+" + digits, true
	default:
		return "", false
	}
}
