package entreprise

import (
	"encoding/json"

	"github.com/Tpgainz/smart-business-directory/scoring"
)

type SearchMode string

const (
	ModeSiren SearchMode = "siren"
	ModeSiret SearchMode = "siret"
	ModeNAF   SearchMode = "naf"
	ModeName  SearchMode = "name"
)

type CompanyReport struct {
	Siren              string             `json:"siren"`
	Siret              string             `json:"siret,omitempty"`
	Name               string             `json:"name"`
	NAF                string             `json:"naf,omitempty"`
	LegalCategory      string             `json:"legalCategory,omitempty"`
	EmployeeSizeCode   scoring.Field      `json:"employeeSizeCode"`
	EstablishmentCount scoring.Field      `json:"establishmentCount"`
	HeadOfficeSiret    string             `json:"headOfficeSiret,omitempty"`
	HeadOfficeAddress  string             `json:"headOfficeAddress,omitempty"`
	Department         string             `json:"department,omitempty"`
	PlusCode           string             `json:"plusCode,omitempty"`
	Directors          []string           `json:"directors,omitempty"`
	PappersURL         string             `json:"pappersURL,omitempty"`
	AnnuaireURL        string             `json:"annuaireURL,omitempty"`
	Assessment         scoring.Assessment `json:"assessment"`
	Source             string             `json:"source"`
	Raw                json.RawMessage    `json:"raw,omitempty"`
}

type SearchResult struct {
	Success      bool            `json:"success"`
	Mode         SearchMode      `json:"mode"`
	Query        string          `json:"query"`
	Data         []CompanyReport `json:"data,omitempty"`
	Error        string          `json:"error,omitempty"`
	TotalResults int             `json:"totalResults,omitempty"`
}

func newSearchResult(mode SearchMode, query string, reports []CompanyReport) *SearchResult {
	if reports == nil {
		reports = []CompanyReport{}
	}

	return &SearchResult{
		Success:      true,
		Mode:         mode,
		Query:        query,
		Data:         reports,
		TotalResults: len(reports),
	}
}

// Enrichment holds the two size signals recherche-entreprises adds to an
// INSEE record.
type Enrichment struct {
	TrancheEffectifSalarie      scoring.Field `json:"tranche_effectif_salarie"`
	NombreEtablissementsOuverts scoring.Field `json:"nombre_etablissements_ouverts"`
}

// UniteLegaleInfo is what the dashboard reads from an INSEE legal unit.
type UniteLegaleInfo struct {
	Siren         string
	Denomination  string
	NAF           string
	LegalCategory string
}
