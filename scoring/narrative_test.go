package scoring

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInterpretBoundaries(t *testing.T) {
	tests := []struct {
		score    int
		expected string
		tier     Tier
	}{
		{100, "Excellent health", TierExcellent},
		{80, "Excellent health", TierExcellent},
		{79, "Good health", TierGood},
		{60, "Good health", TierGood},
		{59, "Average health", TierAverage},
		{40, "Average health", TierAverage},
		{39, "Fragile health", TierFragile},
		{0, "Fragile health", TierFragile},
	}

	for _, tt := range tests {
		got := Interpret(tt.score)
		assert.Equal(t, tt.expected, got.Status, "score %d", tt.score)
		assert.Equal(t, tt.tier, got.Tier, "score %d", tt.score)
	}

	assert.Equal(t, "Company to monitor", Interpret(45).Description)
}

func TestGenerateNarrativeOpening(t *testing.T) {
	got := GenerateNarrative("ACME", Text("6201Z"), Text("51"), Number(15))

	assert.True(t, strings.HasPrefix(got,
		"ACME is a large company (more than 250 employees) of major scale specialized in computer programming and consultancy. "))
	assert.Contains(t, got, "Its presence across 15 establishments")
}

func TestGenerateNarrativeDefaults(t *testing.T) {
	got := GenerateNarrative("Company", Text("N/A"), Text("N/A"), Text("N/A"))

	assert.True(t, strings.HasPrefix(got,
		"Company is a company (variable workforce) active specialized in diversified economic activities. "))
	assert.Contains(t, got, unknownStructureSentence)
	assert.NotContains(t, got, "establishments")
}

func TestGenerateNarrativeExpansionTiers(t *testing.T) {
	tests := []struct {
		count    Field
		expected string
	}{
		{Number(51), "Its network of 51 establishments"},
		{Number(50), "With 50 establishments spread across the territory"},
		{Number(21), "With 21 establishments spread across the territory"},
		{Number(20), "Its presence across 20 establishments"},
		{Number(11), "Its presence across 11 establishments"},
		{Number(10), "With 10 establishments, it shows"},
		{Number(6), "With 6 establishments, it shows"},
		{Number(5), "It operates from 5 establishments"},
		{Text("2"), "It operates from 2 establishments"},
		{Number(1), "single establishment"},
		{Number(0), "single establishment"},
		{Absent(), "single establishment"},
		{Text(""), "single establishment"},
		{Text("many"), "coherent operational structure"},
	}

	for _, tt := range tests {
		got := GenerateNarrative("X", Absent(), Absent(), tt.count)
		assert.Contains(t, got, tt.expected, "count %s", tt.count)
	}
}

func TestGenerateNarrativeOutlookBands(t *testing.T) {
	tests := []struct {
		name     string
		size     Field
		count    Field
		sector   Field
		expected string
	}{
		// 50+30+20+10 clamped to 100
		{"exceptional", Text("53"), Number(30), Text("72"), "exceptional profile"},
		// 50+15+6 = 71
		{"solid", Text("32"), Number(3), Absent(), "solid fundamentals"},
		// 50+20 = 70, lower bound of the 70 band
		{"solid lower bound", Text("41"), Absent(), Absent(), "solid fundamentals"},
		// 50+5 = 55
		{"stable", Absent(), Absent(), Absent(), "stable situation"},
		// 50+2+2 = 54
		{"vigilance", Text("11"), Number(1), Absent(), "calls for vigilance"},
		// 50+0-5 = 45: Average health for Interpret, vigilance here
		{"vigilance retail", Text("00"), Absent(), Text("4711D"), "calls for vigilance"},
		// 50+0-10*2-5 = 25
		{"monitoring", Text("00"), Number(-10), Text("56"), "closer monitoring"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GenerateNarrative("X", tt.sector, tt.size, tt.count)
			assert.Contains(t, got, tt.expected)
		})
	}
}

func TestOutlookBandsDifferFromInterpret(t *testing.T) {
	// 80 is Excellent for Interpret but only the 70 band here.
	assert.Equal(t, TierExcellent, Interpret(80).Tier)
	assert.Contains(t, outlookSentence(80), "solid fundamentals")
	assert.Contains(t, outlookSentence(84), "solid fundamentals")
	assert.Contains(t, outlookSentence(85), "exceptional profile")
	assert.Contains(t, outlookSentence(69), "stable situation")
	assert.Contains(t, outlookSentence(55), "stable situation")
	assert.Contains(t, outlookSentence(54), "calls for vigilance")
	assert.Contains(t, outlookSentence(40), "calls for vigilance")
	assert.Contains(t, outlookSentence(39), "closer monitoring")
}

func TestGenerateNarrativeDeterministic(t *testing.T) {
	inputs := [][3]Field{
		{Text("62.01Z"), Text("42"), Number(7)},
		{Absent(), Absent(), Absent()},
		{Text("47"), Text("00"), Text("oops")},
	}

	for _, in := range inputs {
		first := GenerateNarrative("Société Test", in[0], in[1], in[2])
		second := GenerateNarrative("Société Test", in[0], in[1], in[2])
		assert.Equal(t, first, second)
	}
}

func TestAssess(t *testing.T) {
	s := Signals{
		EmployeeSizeCode:   Text("00"),
		EstablishmentCount: Number(0),
		SectorCode:         Text("4711D"),
	}
	narrative := Signals{
		EmployeeSizeCode:   Text("N/A"),
		EstablishmentCount: Text("N/A"),
		SectorCode:         Text("4711D"),
	}

	got := Assess("Shop", s, narrative)

	assert.Equal(t, 45, got.Score)
	assert.Equal(t, TierAverage, got.Tier)
	assert.Equal(t, "Average health", got.Status)
	assert.Equal(t, "Company to monitor", got.Description)
	assert.Equal(t, GenerateNarrative("Shop", Text("4711D"), Text("N/A"), Text("N/A")), got.Narrative)
	assert.Contains(t, got.Narrative, "specialized in retail trade")
}

func TestGenerateNarrativeOversizedCount(t *testing.T) {
	got := GenerateNarrative("ACME", Absent(), Absent(), Text("99999999999999999999"))
	assert.Contains(t, got, "Its network of 99999999999999999999 establishments")
	assert.NotContains(t, got, unknownStructureSentence)

	got = GenerateNarrative("ACME", Absent(), Absent(), Decimal(1e30))
	assert.Contains(t, got, "Its network of 1000000000000000019884624838656 establishments")

	got = GenerateNarrative("ACME", Absent(), Absent(), Text("1_2"))
	assert.Contains(t, got, "Its presence across 12 establishments")
}

func TestSizeLabel(t *testing.T) {
	assert.Equal(t, "11 (1 employee)", SizeLabel("11"))
	assert.Equal(t, "NN", SizeLabel("NN"))

	for _, code := range SizeCodes {
		_, ok := sizeScores[code]
		assert.True(t, ok, "size code %s", code)
	}
}
