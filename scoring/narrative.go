package scoring

import (
	"fmt"
	"strings"
)

const unknownStructureSentence = "Established organization with a coherent operational structure. "

// GenerateNarrative writes a short company profile: who the company is,
// how widely it is established, and an outlook sentence driven by the
// health score. The same inputs always produce the same text.
func GenerateNarrative(name string, sector, size, count Field) string {
	var b strings.Builder

	sizeDesc, ok := sizeDescriptions[size.String()]
	if !ok {
		sizeDesc = defaultSizeDescription
	}

	sectorDesc, ok := sectorDescriptions[prefix(sector.String())]
	if !ok {
		sectorDesc = defaultSectorDescription
	}

	fmt.Fprintf(&b, "%s is a %s (%s) %s specialized in %s. ",
		name, sizeDesc.category, sizeDesc.detail, sizeDesc.qualifier, sectorDesc)

	b.WriteString(expansionSentence(count))
	b.WriteString(outlookSentence(ComputeHealthScore(size, count, sector)))

	return b.String()
}

func expansionSentence(count Field) string {
	n, digits := 1, "1"

	if count.Truthy() {
		v, ok := count.bigInt()
		if !ok {
			return unknownStructureSentence
		}

		n, digits = saturate(v), v.String()
	}

	switch {
	case n > 50:
		return fmt.Sprintf("Its network of %s establishments reflects an exceptional territorial presence and an ambitious expansion strategy. ", digits)
	case n > 20:
		return fmt.Sprintf("With %s establishments spread across the territory, it benefits from a significant geographic presence. ", digits)
	case n > 10:
		return fmt.Sprintf("Its presence across %s establishments illustrates a successful multi-site development strategy. ", digits)
	case n > 5:
		return fmt.Sprintf("With %s establishments, it shows a progressive geographic expansion. ", digits)
	case n > 1:
		return fmt.Sprintf("It operates from %s establishments, ensuring regional proximity. ", digits)
	default:
		return "Centralized structure on a single establishment, favoring direct and responsive management. "
	}
}

// outlookSentence uses its own five bands (85/70/55/40); they are not the
// Interpret bands.
func outlookSentence(score int) string {
	switch {
	case score >= 85:
		return "The structural indicators reveal a company with an exceptional profile, combining critical size, territorial expansion and a favorable sector position, suggesting high growth potential and remarkable resilience."
	case score >= 70:
		return "The data highlights solid fundamentals, with a robust structure and a relevant strategic position, pointing to a positive development trajectory and lasting financial stability."
	case score >= 55:
		return "The evaluated criteria indicate a stable situation, with sound foundations that open development opportunities in the medium term, provided management stays proactive and adapts to market changes."
	case score >= 40:
		return "The current profile calls for vigilance, with particular attention needed on operational and financial balances, and identified room for improvement in the organization or the sector position."
	default:
		return "The indicators call for closer monitoring, as structural factors (size, sector, territorial coverage) show potential weaknesses that require reinforced strategic steering."
	}
}
