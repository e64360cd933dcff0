package entreprise

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
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
	inseeBaseURL       = "https://api.insee.fr/api-sirene/3.11"
	inseeSirenEndpoint = "/siren"
	inseeSiretEndpoint = "/siret"
	inseeKeyHeader     = "X-INSEE-Api-Key-Integration"

	defaultINSEETimeout           = 15 * time.Second
	defaultINSEERequestsPerMinute = 30
)

var ErrMissingINSEEKey = eris.New("INSEE_API_KEY is not set")

type INSEEService struct {
	apiKey  string
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

type INSEEOption func(*INSEEService)

func WithINSEEBaseURL(baseURL string) INSEEOption {
	return func(s *INSEEService) {
		s.baseURL = strings.TrimRight(baseURL, "/")
	}
}

func WithINSEEHTTPClient(client *http.Client) INSEEOption {
	return func(s *INSEEService) {
		s.client = client
	}
}

func WithINSEETimeout(timeout time.Duration) INSEEOption {
	return func(s *INSEEService) {
		s.client.Timeout = timeout
	}
}

// WithINSEERateLimit caps outgoing calls. Zero or less disables the limit.
func WithINSEERateLimit(perMinute int) INSEEOption {
	return func(s *INSEEService) {
		if perMinute <= 0 {
			s.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}

		s.limiter = rate.NewLimiter(rate.Limit(float64(perMinute)/60), max(1, perMinute/10))
	}
}

func NewINSEEService(apiKey string, opts ...INSEEOption) *INSEEService {
	s := &INSEEService{
		apiKey:  apiKey,
		baseURL: inseeBaseURL,
		client: &http.Client{
			Timeout: defaultINSEETimeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				IdleConnTimeout:     30 * time.Second,
				DisableKeepAlives:   false,
				MaxIdleConnsPerHost: 2,
			},
		},
	}

	WithINSEERateLimit(defaultINSEERequestsPerMinute)(s)

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Headers are the request headers every Sirene call needs.
func (s *INSEEService) Headers() map[string]string {
	return map[string]string{
		inseeKeyHeader: s.apiKey,
		"Accept":       "application/json",
	}
}

func (s *INSEEService) UniteLegaleURL(siren string) string {
	return s.baseURL + inseeSirenEndpoint + "/" + url.PathEscape(siren)
}

func (s *INSEEService) EtablissementURL(siret string) string {
	return s.baseURL + inseeSiretEndpoint + "/" + url.PathEscape(siret)
}

// NAFSearchURL returns the legal unit search URL for a NAF code or pattern.
// Plain codes are matched against the current period only.
func (s *INSEEService) NAFSearchURL(naf string, nombre int) string {
	naf = scoring.NormalizeNAF(naf)

	q := fmt.Sprintf("periode(activitePrincipaleUniteLegale:%s)", naf)
	if scoring.IsWildcardNAF(naf) {
		q = "activitePrincipaleUniteLegale:" + naf
	}

	params := url.Values{}
	params.Set("q", q)
	params.Set("nombre", strconv.Itoa(nombre))

	return s.baseURL + inseeSirenEndpoint + "?" + params.Encode()
}

func (s *INSEEService) GetUniteLegale(ctx context.Context, siren string) (map[string]any, error) {
	data, err := s.call(ctx, s.UniteLegaleURL(siren))
	if err != nil {
		return nil, eris.Wrapf(err, "insee: siren %s", siren)
	}

	return Unwrap(data, "uniteLegale"), nil
}

func (s *INSEEService) GetEtablissement(ctx context.Context, siret string) (map[string]any, error) {
	data, err := s.call(ctx, s.EtablissementURL(siret))
	if err != nil {
		return nil, eris.Wrapf(err, "insee: siret %s", siret)
	}

	return Unwrap(data, "etablissement"), nil
}

// SearchByNAF lists legal units of a sector. Failures are logged and yield
// an empty list.
func (s *INSEEService) SearchByNAF(ctx context.Context, naf string, nombre int) []map[string]any {
	data, err := s.call(ctx, s.NAFSearchURL(naf, nombre))
	if err != nil {
		zap.L().Warn("insee naf search failed", zap.String("naf", naf), zap.Error(err))
		return []map[string]any{}
	}

	return UnitesLegales(data)
}

func (s *INSEEService) call(ctx context.Context, searchURL string) (map[string]any, error) {
	if s.apiKey == "" {
		return nil, ErrMissingINSEEKey
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "waiting for rate limiter")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "error creating request")
	}

	for k, v := range s.Headers() {
		req.Header.Set(k, v)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "error executing request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "error reading response")
	}

	if resp.StatusCode != http.StatusOK {
		zap.L().Debug("insee request failed",
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body[:min(500, len(body))])),
		)

		return nil, eris.Errorf("request failed: status %d", resp.StatusCode)
	}

	return ParseINSEE(body)
}

// ParseINSEE decodes a Sirene response, keeping numbers as json.Number.
func ParseINSEE(body []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var data map[string]any
	if err := dec.Decode(&data); err != nil {
		return nil, eris.Wrap(err, "error decoding response")
	}

	if data == nil {
		data = map[string]any{}
	}

	return data, nil
}

// Unwrap returns data[key] when it is an object, data otherwise.
func Unwrap(data map[string]any, key string) map[string]any {
	if inner, ok := data[key].(map[string]any); ok {
		return inner
	}

	return data
}

// UnitesLegales returns the legal units of a search response, each
// unwrapped from its optional "uniteLegale" envelope.
func UnitesLegales(data map[string]any) []map[string]any {
	items, _ := data["unitesLegales"].([]any)

	result := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if ul, ok := item.(map[string]any); ok {
			result = append(result, Unwrap(ul, "uniteLegale"))
		}
	}

	return result
}

// ExtractUniteLegaleInfo reads name, sector and legal category from the
// most recent period, falling back to the unit itself.
func ExtractUniteLegaleInfo(ul map[string]any) UniteLegaleInfo {
	var periode map[string]any

	if periodes, ok := ul["periodesUniteLegale"].([]any); ok && len(periodes) > 0 {
		periode, _ = periodes[0].(map[string]any)
	}

	return UniteLegaleInfo{
		Siren: stringValue(ul["siren"]),
		Denomination: firstString(
			periode["denominationUniteLegale"],
			periode["nomUniteLegale"],
			ul["denominationUniteLegale"],
			ul["nomUniteLegale"],
		),
		NAF:           firstString(periode["activitePrincipaleUniteLegale"], ul["activitePrincipaleUniteLegale"]),
		LegalCategory: firstString(periode["categorieJuridiqueUniteLegale"], ul["categorieJuridiqueUniteLegale"]),
	}
}

func stringValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

func firstString(values ...any) string {
	for _, v := range values {
		if s := stringValue(v); s != "" {
			return s
		}
	}

	return ""
}
