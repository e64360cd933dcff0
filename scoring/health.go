// Package scoring computes the rule-based health score of a company from
// the few registry fields every source exposes (employee size code,
// number of open establishments and NAF sector code) and turns it into a
// status label and a short narrative.
//
// Every function in this package is pure and never fails: unknown or
// malformed inputs fall back to documented defaults.
package scoring

const (
	baseScore          = 50
	maxEstablishments  = 20
	minScore, maxScore = 0, 100
)

// Signals is the input tuple of the scoring pipeline.
type Signals struct {
	EmployeeSizeCode   Field `json:"employeeSizeCode"`
	EstablishmentCount Field `json:"establishmentCount"`
	SectorCode         Field `json:"sectorCode"`
}

// HealthScore returns ComputeHealthScore for s.
func (s Signals) HealthScore() int {
	return ComputeHealthScore(s.EmployeeSizeCode, s.EstablishmentCount, s.SectorCode)
}

// ComputeHealthScore returns a score in [0, 100]: a base of 50 adjusted by
// company size, number of establishments and sector.
func ComputeHealthScore(size, count, sector Field) int {
	score := baseScore

	if delta, ok := sizeScores[size.String()]; ok {
		score += delta
	} else {
		score += defaultSizeScore
	}

	if count.Truthy() {
		if n, ok := count.Int(); ok {
			score += establishmentBonus(n)
		}
	}

	if sector.Truthy() {
		score += sectorRisks[prefix(sector.String())]
	}

	return clamp(score)
}

// establishmentBonus is min(20, 2n). Very negative counts are floored so
// that doubling cannot overflow; the final clamp hides the difference.
func establishmentBonus(n int) int {
	if n > maxEstablishments/2 {
		return maxEstablishments
	}

	if n < -maxScore {
		n = -maxScore
	}

	return n * 2
}

func clamp(score int) int {
	return min(maxScore, max(minScore, score))
}

// prefix returns the first two characters of s, or s itself when shorter.
func prefix(s string) string {
	r := []rune(s)
	if len(r) <= 2 {
		return s
	}

	return string(r[:2])
}
