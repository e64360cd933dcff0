package entreprise

import (
	"strings"
)

// ProcessForSearch tidies a free-text company query. Very long inputs are
// cut to their first words, which is what the search engine ranks on.
func ProcessForSearch(companyName string) string {
	words := strings.Fields(companyName)
	trimmed := strings.Join(words, " ")

	if len(trimmed) > 50 {
		if len(words) >= 3 {
			return strings.Join(words[:3], " ")
		} else if len(words) >= 2 {
			return strings.Join(words[:2], " ")
		}
	}

	return trimmed
}

// NormalizeIdentifier strips the spaces and dots people type inside
// SIREN and SIRET numbers.
func NormalizeIdentifier(id string) string {
	return strings.NewReplacer(" ", "", ".", "", "\u00a0", "").Replace(strings.TrimSpace(id))
}

func formatDirectors(dirigeants []GOUVDirigeant) []string {
	var directors []string

	for _, dir := range dirigeants {
		switch {
		case dir.Nom != "":
			fullName := dir.Nom
			if dir.Prenoms != "" {
				fullName = dir.Prenoms + " " + fullName
			}

			directors = append(directors, fullName)
		case dir.Denomination != "":
			directors = append(directors, dir.Denomination)
		}
	}

	return directors
}
