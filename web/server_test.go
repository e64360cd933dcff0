package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tpgainz/smart-business-directory/entreprise"
	"github.com/Tpgainz/smart-business-directory/export"
	"github.com/Tpgainz/smart-business-directory/scoring"
	"github.com/Tpgainz/smart-business-directory/serverless"
)

const searchJSON = `{
  "results": [
    {
      "siren": "552100554",
      "nom_complet": "ACME CONSEIL",
      "activite_principale": "62.01Z",
      "tranche_effectif_salarie": "51",
      "nombre_etablissements_ouverts": 15,
      "siege": {"siret": "55210055400013", "adresse": "10 RUE DE LA PAIX 75002 PARIS"},
      "dirigeants": [{"nom": "DUPONT", "prenoms": "Jean", "qualite": "Président"}]
    }
  ],
  "total_results": 1, "page": 1, "per_page": 25, "total_pages": 1
}`

type recordingTracker struct {
	mu     sync.Mutex
	events []map[string]any
}

func (r *recordingTracker) Track(_, _ string, props map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, props)
}

func (r *recordingTracker) Close() error { return nil }

func newTestServer(t *testing.T, tracker Tracker) http.Handler {
	t.Helper()

	return New(newTestService(t, searchJSON), WithTracker(tracker)).Routes()
}

func newTestService(t *testing.T, body string) *entreprise.Service {
	t.Helper()

	gouv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") != "1" {
			_, _ = w.Write([]byte(`{"results": []}`))
			return
		}

		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(gouv.Close)

	return entreprise.NewService(nil, entreprise.NewGOUVService(
		entreprise.WithGOUVBaseURL(gouv.URL),
		entreprise.WithGOUVRateLimit(0),
	))
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))

	return rec
}

func TestSearchAPI(t *testing.T) {
	tracker := &recordingTracker{}
	h := newTestServer(t, tracker)

	rec := get(t, h, "/api/search?q=acme&n=5")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))

	var result entreprise.SearchResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))

	assert.True(t, result.Success)
	assert.Equal(t, entreprise.ModeName, result.Mode)
	require.Len(t, result.Data, 1)
	assert.Equal(t, "ACME CONSEIL", result.Data[0].Name)
	assert.Equal(t, 100, result.Data[0].Assessment.Score)
	assert.Equal(t, "Excellent health", result.Data[0].Assessment.Status)
	assert.Equal(t, "75", result.Data[0].Department)

	require.Len(t, tracker.events, 1)
	assert.Equal(t, "name", tracker.events[0]["mode"])
	assert.Equal(t, true, tracker.events[0]["success"])
}

func TestSearchAPIKeepsRequestID(t *testing.T) {
	h := newTestServer(t, NopTracker{})

	req := httptest.NewRequest(http.MethodGet, "/api/search?q=acme", nil)
	req.Header.Set(requestIDHeader, "abc-123")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", rec.Header().Get(requestIDHeader))
}

func TestSearchAPIExport(t *testing.T) {
	h := newTestServer(t, NopTracker{})

	rec := get(t, h, "/api/search?q=acme&format=xlsx")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, export.ContentType, rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="smart_report_acme.xlsx"`, rec.Header().Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "PK"))
}

func TestAPIErrors(t *testing.T) {
	tracker := &recordingTracker{}
	h := newTestServer(t, tracker)

	tests := []struct {
		target string
		status int
	}{
		{"/api/siren/123", http.StatusBadRequest},
		{"/api/siret/5521005540001", http.StatusBadRequest},
		{"/api/search?q=%20", http.StatusBadRequest},
		{"/api/naf?code=", http.StatusBadRequest},
		{"/api/siren/552100554", http.StatusServiceUnavailable},
		{"/api/naf?code=62.01Z", http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		rec := get(t, h, tt.target)
		assert.Equal(t, tt.status, rec.Code, tt.target)

		var result entreprise.SearchResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result), tt.target)
		assert.False(t, result.Success, tt.target)
		assert.NotEmpty(t, result.Error, tt.target)
	}

	assert.Len(t, tracker.events, len(tests))
}

func TestScoreAPI(t *testing.T) {
	h := newTestServer(t, NopTracker{})

	body := `{"employeeSizeCode": "51", "establishmentCount": 15, "sectorCode": "62.01Z"}`
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/score", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
	  "statusCode": 200,
	  "body": {"score": 100, "statusLabel": "Excellent health", "description": "Strong company with high potential"}
	}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/score", strings.NewReader(`[1, 2]`)))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error"`)
}

func TestHealth(t *testing.T) {
	h := newTestServer(t, NopTracker{})

	rec := get(t, h, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)

	var status map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "ok", status["status"])
	assert.Equal(t, false, status["inseeEnabled"])
}

func TestDashboard(t *testing.T) {
	h := newTestServer(t, NopTracker{})

	rec := get(t, h, "/?mode=name&q=acme")
	require.Equal(t, http.StatusOK, rec.Code)

	doc, err := goquery.NewDocumentFromReader(rec.Body)
	require.NoError(t, err)

	assert.Equal(t, 1, doc.Find("#insee-warning").Length())
	assert.Equal(t, 0, doc.Find("#error").Length())

	cards := doc.Find(".company")
	require.Equal(t, 1, cards.Length())

	siren, _ := cards.Attr("data-siren")
	assert.Equal(t, "552100554", siren)
	assert.Equal(t, "ACME CONSEIL", cards.Find("h2").Text())
	assert.Contains(t, cards.Find(".score").Text(), "🟢 100/100")
	assert.Contains(t, cards.Find(".narrative").Text(), "ACME CONSEIL is a")
	assert.Equal(t, 1, cards.Find(".directors li").Length())

	href, ok := doc.Find("#export").Attr("href")
	require.True(t, ok)
	assert.Contains(t, href, "/api/search?")
	assert.Contains(t, href, "format=xlsx")
	assert.NotContains(t, href, "mode=")
}

func TestDashboardErrors(t *testing.T) {
	h := newTestServer(t, NopTracker{})

	rec := get(t, h, "/?mode=siren&q=552100554")
	require.Equal(t, http.StatusOK, rec.Code)

	doc, err := goquery.NewDocumentFromReader(rec.Body)
	require.NoError(t, err)

	assert.Contains(t, doc.Find("#error").Text(), "INSEE_API_KEY")
	assert.Equal(t, 0, doc.Find(".company").Length())

	rec = get(t, h, "/")
	doc, err = goquery.NewDocumentFromReader(rec.Body)
	require.NoError(t, err)

	assert.Equal(t, 0, doc.Find("#summary").Length())
	_, selected := doc.Find(`option[value="name"]`).Attr("selected")
	assert.True(t, selected)
}

func TestScoreAPIHandlerError(t *testing.T) {
	srv := New(newTestService(t, searchJSON))
	srv.scoreHandler = func(context.Context, json.RawMessage) (serverless.Response, error) {
		return serverless.Response{}, errors.New("runtime unavailable")
	}

	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/score", strings.NewReader(`{}`)))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"statusCode": 500, "body": {"error": "runtime unavailable"}}`, rec.Body.String())
}

func TestVisitorID(t *testing.T) {
	tests := []struct {
		remoteAddr string
		expected   string
	}{
		{"192.0.2.1:1234", "192.0.2.1"},
		{"[::1]:8080", "::1"},
		{"[2001:db8::2]:443", "2001:db8::2"},
		{"192.0.2.1", "192.0.2.1"},
	}

	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = tt.remoteAddr

		assert.Equal(t, tt.expected, visitorID(r), tt.remoteAddr)
	}
}

func TestDashboardFilters(t *testing.T) {
	h := newTestServer(t, NopTracker{})

	rec := get(t, h, "/?mode=name&q=acme&tranche=51&etab_min=2&etab_max=40")
	require.Equal(t, http.StatusOK, rec.Code)

	doc, err := goquery.NewDocumentFromReader(rec.Body)
	require.NoError(t, err)

	options := doc.Find(`select[name="tranche"] option`)
	assert.Equal(t, len(scoring.SizeCodes)+1, options.Length())

	selected := doc.Find(`select[name="tranche"] option[selected]`)
	require.Equal(t, 1, selected.Length())
	assert.Equal(t, "51", selected.AttrOr("value", ""))
	assert.Contains(t, selected.Text(), "51 (")

	assert.Equal(t, "2", doc.Find(`input[name="etab_min"]`).AttrOr("value", ""))
	assert.Equal(t, "40", doc.Find(`input[name="etab_max"]`).AttrOr("value", ""))
}

func TestDashboardShowsMissingValuesAsNA(t *testing.T) {
	svc := newTestService(t, `{"total_pages": 1, "results": [{"siren": "111111111", "nom_complet": "BARE"}]}`)
	h := New(svc).Routes()

	rec := get(t, h, "/?mode=name&q=bare")
	require.Equal(t, http.StatusOK, rec.Code)

	doc, err := goquery.NewDocumentFromReader(rec.Body)
	require.NoError(t, err)

	card := doc.Find(".company")
	require.Equal(t, 1, card.Length())
	assert.Equal(t, "N/A", card.Find(".size").Text())
	assert.Equal(t, "N/A", card.Find(".count").Text())
	assert.NotContains(t, card.Text(), "None")
}
