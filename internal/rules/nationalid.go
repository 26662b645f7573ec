package rules

import "strings"

const nationalIDLength = 11

// ValidateNationalID checks an 11-digit national ID (CPF) and returns it
// normalized. Surrounding whitespace is only tolerated for the length check;
// a padded value still fails as a formatting error.
func ValidateNationalID(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if len(trimmed) != nationalIDLength {
		return "", Fail(KindInvalidFormat, "", "national ID must have 11 digits")
	}
	if trimmed != raw || !allDigits(trimmed) {
		return "", Fail(KindInvalidFormat, "", "national ID must contain only digits")
	}
	if strings.Count(trimmed, trimmed[:1]) == nationalIDLength {
		return "", Fail(KindInvalidFormat, "", "invalid national ID")
	}
	digits := make([]int, nationalIDLength)
	for i := range trimmed {
		digits[i] = int(trimmed[i] - '0')
	}
	if checkDigit(digits[:9]) != digits[9] || checkDigit(digits[:10]) != digits[10] {
		return "", Fail(KindInvalidChecksum, "", "national ID check digits are invalid")
	}
	return trimmed, nil
}

// checkDigit computes the modulo-11 verifier for the given prefix, weighting
// the digits from len(prefix)+1 down to 2.
func checkDigit(prefix []int) int {
	sum := 0
	weight := len(prefix) + 1
	for _, d := range prefix {
		sum += d * weight
		weight--
	}
	rem := sum % 11
	if rem < 2 {
		return 0
	}
	return 11 - rem
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
