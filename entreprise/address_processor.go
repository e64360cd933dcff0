package entreprise

import (
	"regexp"
	"strconv"

	olc "github.com/google/open-location-code/go"
)

const plusCodeLength = 10

var postalCodeRe = regexp.MustCompile(`\b(\d{5})\b`)

// ExtractDepartmentNumber returns the department of the first postal code
// found in address. Overseas departments (971-976) keep three digits.
func ExtractDepartmentNumber(address string) string {
	matches := postalCodeRe.FindStringSubmatch(address)
	if len(matches) < 2 {
		return ""
	}

	if matches[1][:2] == "97" {
		return matches[1][:3]
	}

	return matches[1][:2]
}

// PlusCode encodes the head office coordinates, or returns "" when the
// registry has none.
func PlusCode(latitude, longitude string) string {
	if latitude == "" || longitude == "" {
		return ""
	}

	lat, err := strconv.ParseFloat(latitude, 64)
	if err != nil {
		return ""
	}

	lng, err := strconv.ParseFloat(longitude, 64)
	if err != nil {
		return ""
	}

	return olc.Encode(lat, lng, plusCodeLength)
}
