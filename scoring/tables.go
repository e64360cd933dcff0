package scoring

// Size deltas keyed by INSEE tranche effectif code.
var sizeScores = map[string]int{
	"51": 30, "52": 30, "53": 30, // 250+ employees
	"42": 25, "41": 20, // 50-199
	"32": 15, "31": 10, // 10-49
	"22": 5, "21": 5, // 3-9
	"12": 2, "11": 2, // 1-2
	"00": 0, "01": 0, "02": 0, "03": 0,
}

const defaultSizeScore = 5

// Sector bonus/malus keyed by NAF division.
var sectorRisks = map[string]int{
	"47": -5, // retail trade
	"56": -5, // food service
	"62": 10, // computer programming
	"63": 10, // information services
	"72": 10, // scientific R&D
}

var sectorDescriptions = map[string]string{
	"01": "agriculture and livestock farming",
	"02": "forestry",
	"03": "fishing",
	"05": "mining",
	"10": "food processing industries",
	"13": "textile manufacturing",
	"14": "clothing industry",
	"20": "chemical industry",
	"21": "pharmaceutical industry",
	"26": "manufacture of electronic products",
	"27": "manufacture of electrical equipment",
	"28": "manufacture of machinery and equipment",
	"29": "automotive industry",
	"30": "manufacture of transport equipment",
	"41": "construction of buildings",
	"43": "specialised construction work",
	"45": "motor vehicle trade and repair",
	"46": "wholesale trade",
	"47": "retail trade",
	"49": "land transport",
	"50": "water transport",
	"51": "air transport",
	"55": "accommodation",
	"56": "food service",
	"58": "publishing",
	"59": "audiovisual production",
	"60": "programming and broadcasting",
	"61": "telecommunications",
	"62": "computer programming and consultancy",
	"63": "information services",
	"64": "financial services",
	"65": "insurance",
	"66": "activities auxiliary to financial services and insurance",
	"68": "real estate activities",
	"69": "legal and accounting activities",
	"70": "consulting and management activities",
	"71": "architectural and engineering activities",
	"72": "scientific research and development",
	"73": "advertising and market research",
	"74": "other specialised activities",
	"77": "rental and leasing activities",
	"78": "employment activities",
	"80": "security and investigation",
	"85": "education",
	"86": "human health activities",
	"87": "residential care",
	"88": "social work",
	"90": "creative, arts and entertainment activities",
	"91": "libraries, archives and museums",
	"93": "sports activities",
	"95": "computer repair",
	"96": "other personal services",
}

const defaultSectorDescription = "diversified economic activities"

type sizeDescription struct {
	category  string
	detail    string
	qualifier string
}

var sizeDescriptions = map[string]sizeDescription{
	"51": {"large company", "more than 250 employees", "of major scale"},
	"52": {"large company", "more than 500 employees", "of national scale"},
	"53": {"very large company", "more than 2000 employees", "of international dimension"},
	"42": {"mid-sized company (ETI)", "between 100 and 199 employees", "that is well structured"},
	"41": {"medium-sized company", "between 50 and 99 employees", "in sustained development"},
	"32": {"SME", "between 20 and 49 employees", "that is solidly established"},
	"31": {"SME", "between 10 and 19 employees", "in a consolidation phase"},
	"22": {"very small business (TPE)", "between 6 and 9 employees", "on a human scale"},
	"21": {"very small business (TPE)", "between 3 and 5 employees", "that is agile and responsive"},
	"12": {"micro-enterprise", "1 to 2 employees", "with an entrepreneurial profile"},
	"11": {"micro-enterprise", "1 employee", "in startup mode"},
	"00": {"structure", "no declared employees", "in its launch phase"},
	"01": {"sole proprietorship", "no employees", "operating independently"},
	"02": {"sole proprietorship", "1 or 2 employees", "in growth"},
	"03": {"small structure", "3 to 5 employees", "in development"},
}

var defaultSizeDescription = sizeDescription{"company", "variable workforce", "active"}

// SizeCodes lists the tranche effectif codes known to the scoring tables,
// smallest first.
var SizeCodes = []string{"00", "01", "02", "03", "11", "12", "21", "22", "31", "32", "41", "42", "51", "52", "53"}

// SizeLabel describes a tranche effectif code for display, e.g.
// "11 (1 employee)". Unknown codes are returned as is.
func SizeLabel(code string) string {
	d, ok := sizeDescriptions[code]
	if !ok {
		return code
	}

	return code + " (" + d.detail + ")"
}
