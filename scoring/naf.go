package scoring

import (
	"strings"
	"unicode"
)

// NormalizeNAF puts a NAF code in the dotted form the Sirene API expects
// (6201Z -> 62.01Z). Wildcard patterns and already dotted codes are left
// alone, as is anything that does not look like a NAF code.
func NormalizeNAF(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))

	if IsWildcardNAF(code) || strings.Contains(code, ".") {
		return code
	}

	r := []rune(code)
	if len(r) != 5 || !unicode.IsLetter(r[4]) {
		return code
	}

	for _, c := range r[:4] {
		if !unicode.IsDigit(c) {
			return code
		}
	}

	return string(r[:2]) + "." + string(r[2:])
}

// IsWildcardNAF reports whether code is a search pattern rather than a code.
func IsWildcardNAF(code string) bool {
	return strings.ContainsAny(code, "*?")
}
