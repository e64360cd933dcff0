package scoring

// Assessment is the flat bundle handed to the dashboard and the export.
type Assessment struct {
	Score       int    `json:"score"`
	Tier        Tier   `json:"-"`
	Status      string `json:"statusLabel"`
	Description string `json:"description"`
	Narrative   string `json:"narrative,omitempty"`
}

// Assess scores s and writes the narrative for name from narrativeSignals.
// Callers that have the same inputs for both pass them twice.
func Assess(name string, s, narrativeSignals Signals) Assessment {
	score := s.HealthScore()
	interp := Interpret(score)

	return Assessment{
		Score:       score,
		Tier:        interp.Tier,
		Status:      interp.Status,
		Description: interp.Description,
		Narrative: GenerateNarrative(
			name,
			narrativeSignals.SectorCode,
			narrativeSignals.EmployeeSizeCode,
			narrativeSignals.EstablishmentCount,
		),
	}
}
