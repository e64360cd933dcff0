package entreprise

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Tpgainz/smart-business-directory/scoring"
)

const (
	gouvSearchEndpoint = "/search"
	gouvBaseURL        = "https://recherche-entreprises.api.gouv.fr"
	gouvPerPage        = 25

	defaultGOUVTimeout           = 15 * time.Second
	defaultGOUVEnrichTimeout     = 10 * time.Second
	defaultGOUVRequestsPerSecond = 7
)

type GOUVService struct {
	baseURL       string
	client        *http.Client
	enrichTimeout time.Duration
	limiter       *rate.Limiter
}

type GOUVEntrepriseResult struct {
	Siren                       string          `json:"siren"`
	NomComplet                  string          `json:"nom_complet"`
	NomRaisonSociale            string          `json:"nom_raison_sociale"`
	Sigle                       string          `json:"sigle"`
	NombreEtablissements        scoring.Field   `json:"nombre_etablissements"`
	NombreEtablissementsOuverts scoring.Field   `json:"nombre_etablissements_ouverts"`
	Siege                       *GOUVSiege      `json:"siege"`
	ActivitePrincipale          string          `json:"activite_principale"`
	CategorieEntreprise         string          `json:"categorie_entreprise"`
	DateCreation                string          `json:"date_creation"`
	EtatAdministratif           string          `json:"etat_administratif"`
	NatureJuridique             string          `json:"nature_juridique"`
	TrancheEffectifSalarie      scoring.Field   `json:"tranche_effectif_salarie"`
	Dirigeants                  []GOUVDirigeant `json:"dirigeants"`

	Raw json.RawMessage `json:"-"`
}

type GOUVSiege struct {
	Siret              string `json:"siret"`
	ActivitePrincipale string `json:"activite_principale"`
	Adresse            string `json:"adresse"`
	CodePostal         string `json:"code_postal"`
	LibelleCommune     string `json:"libelle_commune"`
	Latitude           string `json:"latitude"`
	Longitude          string `json:"longitude"`
	EstSiege           bool   `json:"est_siege"`
}

type GOUVDirigeant struct {
	Nom           string `json:"nom"`
	Prenoms       string `json:"prenoms"`
	Denomination  string `json:"denomination"`
	Qualite       string `json:"qualite"`
	TypeDirigeant string `json:"type_dirigeant"`
}

type GOUVSearchResponse struct {
	Results      []GOUVEntrepriseResult `json:"-"`
	TotalResults int                    `json:"total_results"`
	Page         int                    `json:"page"`
	PerPage      int                    `json:"per_page"`
	TotalPages   int                    `json:"total_pages"`
}

// NameSearchParams are the filters of a free-text company search.
type NameSearchParams struct {
	Query           string
	MaxResults      int
	TrancheEffectif string
	EtabMin         *int
	EtabMax         *int
	CodeNAF         string
}

type GOUVOption func(*GOUVService)

func WithGOUVBaseURL(baseURL string) GOUVOption {
	return func(s *GOUVService) {
		s.baseURL = strings.TrimRight(baseURL, "/")
	}
}

func WithGOUVHTTPClient(client *http.Client) GOUVOption {
	return func(s *GOUVService) {
		s.client = client
	}
}

func WithGOUVTimeouts(search, enrich time.Duration) GOUVOption {
	return func(s *GOUVService) {
		s.client.Timeout = search
		s.enrichTimeout = enrich
	}
}

// WithGOUVRateLimit caps outgoing calls. Zero or less disables the limit.
func WithGOUVRateLimit(perSecond int) GOUVOption {
	return func(s *GOUVService) {
		if perSecond <= 0 {
			s.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}

		s.limiter = rate.NewLimiter(rate.Limit(perSecond), perSecond)
	}
}

func NewGOUVService(opts ...GOUVOption) *GOUVService {
	s := &GOUVService{
		baseURL:       gouvBaseURL,
		enrichTimeout: defaultGOUVEnrichTimeout,
		client: &http.Client{
			Timeout: defaultGOUVTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				IdleConnTimeout:     30 * time.Second,
				DisableKeepAlives:   false,
				MaxIdleConnsPerHost: 2,
			},
		},
	}

	WithGOUVRateLimit(defaultGOUVRequestsPerSecond)(s)

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// SearchURL returns the URL of one result page of a name search. The
// query text is only trimmed; the registry ranks on the full input.
func (s *GOUVService) SearchURL(params NameSearchParams, page int) string {
	q := url.Values{}
	q.Set("q", strings.TrimSpace(params.Query))
	q.Set("per_page", strconv.Itoa(gouvPerPage))
	q.Set("page", strconv.Itoa(page))

	if params.TrancheEffectif != "" {
		q.Set("tranche_effectif_salarie", params.TrancheEffectif)
	}

	if params.EtabMin != nil {
		q.Set("nombre_etablissements_ouverts_min", strconv.Itoa(*params.EtabMin))
	}

	if params.EtabMax != nil {
		q.Set("nombre_etablissements_ouverts_max", strconv.Itoa(*params.EtabMax))
	}

	if params.CodeNAF != "" {
		q.Set("activite_principale", scoring.NormalizeNAF(params.CodeNAF))
	}

	return s.baseURL + gouvSearchEndpoint + "?" + q.Encode()
}

// EnrichURL returns the URL looking up a single SIREN.
func (s *GOUVService) EnrichURL(siren string) string {
	q := url.Values{}
	q.Set("siren", siren)
	q.Set("per_page", "1")

	return s.baseURL + gouvSearchEndpoint + "?" + q.Encode()
}

// SearchByName pages through results until MaxResults are collected or a
// page comes back empty.
func (s *GOUVService) SearchByName(ctx context.Context, params NameSearchParams) ([]GOUVEntrepriseResult, error) {
	maxResults := params.MaxResults
	if maxResults <= 0 {
		maxResults = 10
	}

	var results []GOUVEntrepriseResult

	for page := 1; len(results) < maxResults; page++ {
		status, body, err := s.get(ctx, s.SearchURL(params, page))
		if err != nil {
			return nil, eris.Wrapf(err, "gouv: search %q page %d", params.Query, page)
		}

		if status != http.StatusOK {
			zap.L().Debug("gouv search failed", zap.Int("status", status), zap.String("body", string(body[:min(500, len(body))])))
			return nil, eris.Errorf("gouv: search %q page %d: status %d", params.Query, page, status)
		}

		resp, err := ParseGOUVSearch(body)
		if err != nil {
			return nil, eris.Wrapf(err, "gouv: search %q page %d", params.Query, page)
		}

		if len(resp.Results) == 0 {
			break
		}

		results = append(results, resp.Results...)

		if resp.TotalPages > 0 && page >= resp.TotalPages {
			break
		}
	}

	zap.L().Info("gouv search done", zap.String("query", params.Query), zap.Int("results", len(results)))

	if len(results) > maxResults {
		results = results[:maxResults]
	}

	return results, nil
}

// Enrich returns the size signals of a SIREN, or nil when the registry
// does not answer with a match.
func (s *GOUVService) Enrich(ctx context.Context, siren string) (*Enrichment, error) {
	ctx, cancel := context.WithTimeout(ctx, s.enrichTimeout)
	defer cancel()

	status, body, err := s.get(ctx, s.EnrichURL(siren))
	if err != nil {
		return nil, eris.Wrapf(err, "gouv: enrich %s", siren)
	}

	if status != http.StatusOK {
		return nil, nil
	}

	resp, err := ParseGOUVSearch(body)
	if err != nil {
		return nil, eris.Wrapf(err, "gouv: enrich %s", siren)
	}

	return EnrichmentFrom(resp), nil
}

func (s *GOUVService) get(ctx context.Context, searchURL string) (int, []byte, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return 0, nil, eris.Wrap(err, "waiting for rate limiter")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return 0, nil, eris.Wrap(err, "error creating request")
	}

	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, nil, eris.Wrap(err, "error executing request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, eris.Wrap(err, "error reading response")
	}

	return resp.StatusCode, body, nil
}

// ParseGOUVSearch decodes a search page, keeping each raw result.
func ParseGOUVSearch(body []byte) (*GOUVSearchResponse, error) {
	var envelope struct {
		GOUVSearchResponse
		Results []json.RawMessage `json:"results"`
	}

	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, eris.Wrap(err, "error decoding response")
	}

	resp := envelope.GOUVSearchResponse
	resp.Results = make([]GOUVEntrepriseResult, 0, len(envelope.Results))

	for _, raw := range envelope.Results {
		var r GOUVEntrepriseResult
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, eris.Wrap(err, "error decoding result")
		}

		r.Raw = raw
		resp.Results = append(resp.Results, r)
	}

	return &resp, nil
}

// EnrichmentFrom takes the size signals of the first result.
func EnrichmentFrom(resp *GOUVSearchResponse) *Enrichment {
	if resp == nil || len(resp.Results) == 0 {
		return nil
	}

	r := resp.Results[0]

	return &Enrichment{
		TrancheEffectifSalarie:      r.TrancheEffectifSalarie,
		NombreEtablissementsOuverts: r.NombreEtablissementsOuverts,
	}
}
