package entreprise

import (
	"fmt"
	"strings"
)

func CreatePappersURL(name, siren string) string {
	cleanName := strings.ToLower(strings.TrimSpace(name))
	cleanName = strings.Join(strings.Fields(cleanName), "-")

	return fmt.Sprintf("https://www.pappers.fr/entreprise/%s-%s", cleanName, siren)
}

func CreateAnnuaireURL(siren string) string {
	return fmt.Sprintf("https://annuaire-entreprises.data.gouv.fr/entreprise/%s", siren)
}

func withLinks(report *CompanyReport) {
	if report.Siren == "" {
		return
	}

	report.AnnuaireURL = CreateAnnuaireURL(report.Siren)

	if report.Name != "" {
		report.PappersURL = CreatePappersURL(report.Name, report.Siren)
	}
}
