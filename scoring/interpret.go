package scoring

// Tier is one of the four health bands.
type Tier int

const (
	TierFragile Tier = iota
	TierAverage
	TierGood
	TierExcellent
)

func (t Tier) String() string {
	switch t {
	case TierExcellent:
		return "excellent"
	case TierGood:
		return "good"
	case TierAverage:
		return "average"
	default:
		return "fragile"
	}
}

// Interpretation is the status label and description of a score.
type Interpretation struct {
	Tier        Tier   `json:"-"`
	Status      string `json:"statusLabel"`
	Description string `json:"description"`
}

// Interpret maps a score to its band. Lower bounds are inclusive.
func Interpret(score int) Interpretation {
	switch {
	case score >= 80:
		return Interpretation{TierExcellent, "Excellent health", "Strong company with high potential"}
	case score >= 60:
		return Interpretation{TierGood, "Good health", "Stable company"}
	case score >= 40:
		return Interpretation{TierAverage, "Average health", "Company to monitor"}
	default:
		return Interpretation{TierFragile, "Fragile health", "Company at risk"}
	}
}
