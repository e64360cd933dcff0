package web

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/Tpgainz/smart-business-directory/entreprise"
	"github.com/Tpgainz/smart-business-directory/scoring"
)

type dashboardPage struct {
	Mode         entreprise.SearchMode
	Query        string
	Limit        int
	Filters      entreprise.NameSearchParams
	INSEEEnabled bool
	SizeCodes    []string
	Result       *entreprise.SearchResult
	Error        string
	ExportURL    string
}

// handleDashboard renders the search form and, when mode and q are set,
// the results of that search.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page := dashboardPage{
		Mode:         entreprise.SearchMode(strings.ToLower(strings.TrimSpace(q.Get("mode")))),
		Query:        strings.TrimSpace(q.Get("q")),
		Limit:        intParam(q.Get("n"), defaultResults, maxNameResults),
		INSEEEnabled: s.service.INSEE() != nil,
		SizeCodes:    scoring.SizeCodes,
	}

	if page.Mode == "" {
		page.Mode = entreprise.ModeName
	}

	if page.Query != "" {
		s.runDashboardSearch(r, &page)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	if err := s.tmpl.ExecuteTemplate(w, "dashboard.html", page); err != nil {
		zap.L().Error("rendering dashboard failed", zap.Error(err))
	}
}

func (s *Server) runDashboardSearch(r *http.Request, page *dashboardPage) {
	var lookup lookupFunc

	switch page.Mode {
	case entreprise.ModeSiren:
		lookup = func(ctx context.Context) (*entreprise.SearchResult, error) {
			return s.service.LookupSiren(ctx, page.Query)
		}
		page.ExportURL = "/api/siren/" + url.PathEscape(page.Query) + "?format=xlsx"
	case entreprise.ModeSiret:
		lookup = func(ctx context.Context) (*entreprise.SearchResult, error) {
			return s.service.LookupSiret(ctx, page.Query)
		}
		page.ExportURL = "/api/siret/" + url.PathEscape(page.Query) + "?format=xlsx"
	case entreprise.ModeNAF:
		page.Limit = min(page.Limit, maxNAFResults)
		lookup = func(ctx context.Context) (*entreprise.SearchResult, error) {
			return s.service.SearchNAF(ctx, page.Query, page.Limit)
		}
		page.ExportURL = "/api/naf?" + url.Values{
			"code":   {page.Query},
			"n":      {strconv.Itoa(page.Limit)},
			"format": {"xlsx"},
		}.Encode()
	case entreprise.ModeName:
		page.Filters = nameSearchParams(r)
		lookup = func(ctx context.Context) (*entreprise.SearchResult, error) {
			return s.service.SearchName(ctx, page.Filters)
		}
		export := r.URL.Query()
		export.Del("mode")
		export.Set("format", "xlsx")
		page.ExportURL = "/api/search?" + export.Encode()
	default:
		page.Error = "unknown search mode " + string(page.Mode)
		return
	}

	result, err := s.search(r, page.Mode, page.Query, lookup)
	if err != nil {
		page.Error = err.Error()
		return
	}

	page.Result = result
}
