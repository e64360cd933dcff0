package entreprise

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Tpgainz/smart-business-directory/scoring"
)

const (
	defaultEnrichConcurrency = 4
	defaultCompanyName       = "Company"
	unnamedCompany           = "Unnamed"
)

var (
	ErrInvalidSiren = eris.New("SIREN must be 9 digits")
	ErrInvalidSiret = eris.New("SIRET must be 14 digits")
	ErrEmptyQuery   = eris.New("search query is empty")
)

var notAvailable = scoring.Text("N/A")

// Scorer turns signals into an assessment. The local scorer never fails;
// remote ones may.
type Scorer interface {
	Assess(ctx context.Context, name string, s, narrative scoring.Signals) (scoring.Assessment, error)
}

type LocalScorer struct{}

func (LocalScorer) Assess(_ context.Context, name string, s, narrative scoring.Signals) (scoring.Assessment, error) {
	return scoring.Assess(name, s, narrative), nil
}

type Service struct {
	inseeService      *INSEEService
	gouvService       *GOUVService
	scorer            Scorer
	validate          *validator.Validate
	enrichConcurrency int
}

type ServiceOption func(*Service)

func WithScorer(scorer Scorer) ServiceOption {
	return func(s *Service) {
		s.scorer = scorer
	}
}

func WithEnrichConcurrency(n int) ServiceOption {
	return func(s *Service) {
		if n > 0 {
			s.enrichConcurrency = n
		}
	}
}

// NewService wires the registry clients. insee may be nil when no API key
// is configured; SIREN, SIRET and NAF lookups then fail with
// ErrMissingINSEEKey.
func NewService(insee *INSEEService, gouv *GOUVService, opts ...ServiceOption) *Service {
	if gouv == nil {
		gouv = NewGOUVService()
	}

	s := &Service{
		inseeService:      insee,
		gouvService:       gouv,
		scorer:            LocalScorer{},
		validate:          validator.New(),
		enrichConcurrency: defaultEnrichConcurrency,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *Service) INSEE() *INSEEService {
	return s.inseeService
}

func (s *Service) GOUV() *GOUVService {
	return s.gouvService
}

// ValidateSiren normalizes and checks a SIREN.
func (s *Service) ValidateSiren(siren string) (string, error) {
	siren = NormalizeIdentifier(siren)
	if err := s.validate.Var(siren, "required,number,len=9"); err != nil {
		return "", eris.Wrap(ErrInvalidSiren, err.Error())
	}

	return siren, nil
}

// ValidateSiret normalizes and checks a SIRET.
func (s *Service) ValidateSiret(siret string) (string, error) {
	siret = NormalizeIdentifier(siret)
	if err := s.validate.Var(siret, "required,number,len=14"); err != nil {
		return "", eris.Wrap(ErrInvalidSiret, err.Error())
	}

	return siret, nil
}

func (s *Service) LookupSiren(ctx context.Context, siren string) (*SearchResult, error) {
	siren, err := s.ValidateSiren(siren)
	if err != nil {
		return nil, err
	}

	if s.inseeService == nil {
		return nil, ErrMissingINSEEKey
	}

	zap.L().Info("siren lookup", zap.String("siren", siren))

	ul, err := s.inseeService.GetUniteLegale(ctx, siren)
	if err != nil {
		return nil, err
	}

	info := s.enrich(ctx, siren)
	report := s.ReportFromUniteLegale(ctx, ul, info)

	if report.Siren == "" {
		report.Siren = siren
		withLinks(&report)
	}

	return newSearchResult(ModeSiren, siren, []CompanyReport{report}), nil
}

func (s *Service) LookupSiret(ctx context.Context, siret string) (*SearchResult, error) {
	siret, err := s.ValidateSiret(siret)
	if err != nil {
		return nil, err
	}

	if s.inseeService == nil {
		return nil, ErrMissingINSEEKey
	}

	zap.L().Info("siret lookup", zap.String("siret", siret))

	etab, err := s.inseeService.GetEtablissement(ctx, siret)
	if err != nil {
		return nil, err
	}

	siren := stringValue(etab["siren"])
	if siren == "" {
		siren = siret[:9]
	}

	info := s.enrich(ctx, siren)
	report := s.ReportFromEtablissement(ctx, siret, etab, info)

	return newSearchResult(ModeSiret, siret, []CompanyReport{report}), nil
}

// SearchNAF lists up to n legal units of a sector, each enriched and
// scored. Result order follows the INSEE response.
func (s *Service) SearchNAF(ctx context.Context, naf string, n int) (*SearchResult, error) {
	if naf == "" {
		return nil, ErrEmptyQuery
	}

	if s.inseeService == nil {
		return nil, ErrMissingINSEEKey
	}

	units := s.inseeService.SearchByNAF(ctx, naf, n)
	reports := make([]CompanyReport, len(units))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.enrichConcurrency)

	for i, ul := range units {
		g.Go(func() error {
			info := s.enrich(gctx, stringValue(ul["siren"]))
			reports[i] = s.ReportFromUniteLegale(gctx, ul, info)

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	zap.L().Info("naf search done", zap.String("naf", naf), zap.Int("results", len(reports)))

	return newSearchResult(ModeNAF, naf, reports), nil
}

func (s *Service) SearchName(ctx context.Context, params NameSearchParams) (*SearchResult, error) {
	if ProcessForSearch(params.Query) == "" {
		return nil, ErrEmptyQuery
	}

	results, err := s.gouvService.SearchByName(ctx, params)
	if err != nil {
		return nil, err
	}

	reports := make([]CompanyReport, 0, len(results))
	for i := range results {
		reports = append(reports, s.ReportFromGOUV(ctx, &results[i]))
	}

	return newSearchResult(ModeName, params.Query, reports), nil
}

// enrich never fails: a registry error is logged and treated as no match.
func (s *Service) enrich(ctx context.Context, siren string) *Enrichment {
	if siren == "" {
		return nil
	}

	info, err := s.gouvService.Enrich(ctx, siren)
	if err != nil {
		zap.L().Warn("gouv enrichment failed", zap.String("siren", siren), zap.Error(err))
		return nil
	}

	return info
}

// ReportFromUniteLegale builds the report of an INSEE legal unit. Without
// enrichment the score assumes no employees and no establishments while
// the narrative reports both as unknown.
func (s *Service) ReportFromUniteLegale(ctx context.Context, ul map[string]any, info *Enrichment) CompanyReport {
	ulInfo := ExtractUniteLegaleInfo(ul)

	report := CompanyReport{
		Siren:         ulInfo.Siren,
		Name:          ulInfo.Denomination,
		NAF:           ulInfo.NAF,
		LegalCategory: ulInfo.LegalCategory,
		Source:        "insee",
		Raw:           marshalRaw(ul),
	}

	naf := optionalText(ulInfo.NAF)
	signals, narrative := enrichedSignals(info, naf)
	report.EmployeeSizeCode = signals.EmployeeSizeCode
	report.EstablishmentCount = signals.EstablishmentCount

	if info == nil {
		report.EmployeeSizeCode = scoring.Absent()
		report.EstablishmentCount = scoring.Absent()
	}

	if report.Name == "" {
		report.Name = defaultCompanyName
	}

	report.Assessment = s.assess(ctx, report.Name, signals, narrative)
	withLinks(&report)

	return report
}

func (s *Service) ReportFromEtablissement(ctx context.Context, siret string, etab map[string]any, info *Enrichment) CompanyReport {
	naf := stringValue(etab["activitePrincipaleEtablissement"])

	report := CompanyReport{
		Siren:  stringValue(etab["siren"]),
		Siret:  firstString(etab["siret"], siret),
		Name:   firstString(Unwrap(etab, "uniteLegale")["denominationUniteLegale"]),
		NAF:    naf,
		Source: "insee",
		Raw:    marshalRaw(etab),
	}

	if report.Siren == "" && len(siret) >= 9 {
		report.Siren = siret[:9]
	}

	signals, narrative := enrichedSignals(info, optionalText(naf))
	report.EmployeeSizeCode = signals.EmployeeSizeCode
	report.EstablishmentCount = signals.EstablishmentCount

	if info == nil {
		report.EmployeeSizeCode = scoring.Absent()
		report.EstablishmentCount = scoring.Absent()
	}

	label := fmt.Sprintf("Establishment %s", siret)
	if report.Name == "" {
		report.Name = label
	}

	report.Assessment = s.assess(ctx, label, signals, narrative)
	withLinks(&report)

	return report
}

// ReportFromGOUV builds the report of a name search hit. Missing size
// signals count as "00" and 0 for the score and as unknown for the
// narrative.
func (s *Service) ReportFromGOUV(ctx context.Context, r *GOUVEntrepriseResult) CompanyReport {
	name := r.NomComplet
	if name == "" {
		name = unnamedCompany
	}

	report := CompanyReport{
		Siren:              r.Siren,
		Name:               name,
		NAF:                r.ActivitePrincipale,
		LegalCategory:      r.NatureJuridique,
		EmployeeSizeCode:   r.TrancheEffectifSalarie,
		EstablishmentCount: r.NombreEtablissementsOuverts,
		Directors:          formatDirectors(r.Dirigeants),
		Source:             "gouv",
		Raw:                r.Raw,
	}

	if r.Siege != nil {
		report.HeadOfficeSiret = r.Siege.Siret
		report.HeadOfficeAddress = r.Siege.Adresse
		report.Department = ExtractDepartmentNumber(r.Siege.Adresse)
		report.PlusCode = PlusCode(r.Siege.Latitude, r.Siege.Longitude)
	}

	naf := scoring.Text(r.ActivitePrincipale)

	signals := scoring.Signals{
		EmployeeSizeCode:   r.TrancheEffectifSalarie.Or(scoring.Text("00")),
		EstablishmentCount: r.NombreEtablissementsOuverts.Or(scoring.Number(0)),
		SectorCode:         naf,
	}
	narrative := scoring.Signals{
		EmployeeSizeCode:   r.TrancheEffectifSalarie.Or(notAvailable),
		EstablishmentCount: r.NombreEtablissementsOuverts.Or(notAvailable),
		SectorCode:         naf.Or(notAvailable),
	}

	report.Assessment = s.assess(ctx, name, signals, narrative)
	withLinks(&report)

	return report
}

// assess falls back to the local rules when a remote scorer fails.
func (s *Service) assess(ctx context.Context, name string, signals, narrative scoring.Signals) scoring.Assessment {
	a, err := s.scorer.Assess(ctx, name, signals, narrative)
	if err != nil {
		zap.L().Warn("remote scoring failed, using local rules", zap.String("name", name), zap.Error(err))
		return scoring.Assess(name, signals, narrative)
	}

	return a
}

func enrichedSignals(info *Enrichment, naf scoring.Field) (scoring.Signals, scoring.Signals) {
	if info == nil {
		return scoring.Signals{
				EmployeeSizeCode:   scoring.Text("00"),
				EstablishmentCount: scoring.Number(0),
				SectorCode:         naf,
			}, scoring.Signals{
				EmployeeSizeCode:   notAvailable,
				EstablishmentCount: notAvailable,
				SectorCode:         naf.Or(notAvailable),
			}
	}

	signals := scoring.Signals{
		EmployeeSizeCode:   info.TrancheEffectifSalarie,
		EstablishmentCount: info.NombreEtablissementsOuverts,
		SectorCode:         naf,
	}

	narrative := signals
	narrative.SectorCode = naf.Or(notAvailable)

	return signals, narrative
}

func optionalText(s string) scoring.Field {
	if s == "" {
		return scoring.Absent()
	}

	return scoring.Text(s)
}

func marshalRaw(v map[string]any) json.RawMessage {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}

	return raw
}
