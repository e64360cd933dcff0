// Package web serves the dashboard and its JSON API.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/shirou/gopsutil/v4/mem"
	"go.uber.org/zap"

	"github.com/Tpgainz/smart-business-directory/entreprise"
	"github.com/Tpgainz/smart-business-directory/export"
	"github.com/Tpgainz/smart-business-directory/scoring"
	"github.com/Tpgainz/smart-business-directory/serverless"
)

const (
	requestIDHeader = "X-Request-Id"
	requestTimeout  = 60 * time.Second
	maxScoreBody    = 1 << 16

	defaultResults = 10
	maxNAFResults  = 50
	maxNameResults = 100
)

//go:embed templates/*.html
var templateFS embed.FS

var tierIcons = map[scoring.Tier]string{
	scoring.TierExcellent: "🟢",
	scoring.TierGood:      "🟡",
	scoring.TierAverage:   "🟠",
	scoring.TierFragile:   "🔴",
}

type Server struct {
	service      *entreprise.Service
	tracker      Tracker
	tmpl         *template.Template
	scoreHandler func(context.Context, json.RawMessage) (serverless.Response, error)
}

type Option func(*Server)

func WithTracker(tracker Tracker) Option {
	return func(s *Server) {
		s.tracker = tracker
	}
}

func New(service *entreprise.Service, opts ...Option) *Server {
	s := &Server{
		service:      service,
		tracker:      NopTracker{},
		scoreHandler: serverless.Handler,
		tmpl: template.Must(template.New("").Funcs(template.FuncMap{
			"icon":      func(t scoring.Tier) string { return tierIcons[t] },
			"sizeLabel": scoring.SizeLabel,
			"orNA":      orNA,
		}).ParseFS(templateFS, "templates/*.html")),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Routes returns the dashboard and API router.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(accessLog)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/", s.handleDashboard)
	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", requestIDHeader},
			ExposedHeaders: []string{requestIDHeader, "Content-Disposition"},
			MaxAge:         300,
		}))

		r.Get("/siren/{siren}", s.handleSiren)
		r.Get("/siret/{siret}", s.handleSiret)
		r.Get("/naf", s.handleNAF)
		r.Get("/search", s.handleSearch)
		r.Post("/score", s.handleScore)
	})

	return r
}

func (s *Server) handleSiren(w http.ResponseWriter, r *http.Request) {
	siren := chi.URLParam(r, "siren")
	s.respond(w, r, entreprise.ModeSiren, siren, func(ctx context.Context) (*entreprise.SearchResult, error) {
		return s.service.LookupSiren(ctx, siren)
	})
}

func (s *Server) handleSiret(w http.ResponseWriter, r *http.Request) {
	siret := chi.URLParam(r, "siret")
	s.respond(w, r, entreprise.ModeSiret, siret, func(ctx context.Context) (*entreprise.SearchResult, error) {
		return s.service.LookupSiret(ctx, siret)
	})
}

func (s *Server) handleNAF(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	code := strings.TrimSpace(q.Get("code"))
	n := intParam(q.Get("n"), defaultResults, maxNAFResults)

	s.respond(w, r, entreprise.ModeNAF, code, func(ctx context.Context) (*entreprise.SearchResult, error) {
		return s.service.SearchNAF(ctx, code, n)
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	params := nameSearchParams(r)

	s.respond(w, r, entreprise.ModeName, params.Query, func(ctx context.Context) (*entreprise.SearchResult, error) {
		return s.service.SearchName(ctx, params)
	})
}

// handleScore exposes the serverless contract over HTTP.
func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxScoreBody))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, serverless.ErrorBody{Error: err.Error()})
		return
	}

	resp, err := s.scoreHandler(r.Context(), body)
	if err != nil {
		zap.L().Error("scoring failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, serverless.Response{
			StatusCode: http.StatusInternalServerError,
			Body:       serverless.ErrorBody{Error: err.Error()},
		})

		return
	}

	writeJSON(w, resp.StatusCode, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"status":       "ok",
		"inseeEnabled": s.service.INSEE() != nil,
		"time":         time.Now().UTC().Format(time.RFC3339),
	}

	if vm, err := mem.VirtualMemoryWithContext(r.Context()); err == nil {
		status["memoryUsedPercent"] = vm.UsedPercent
		status["memoryAvailable"] = vm.Available
	}

	writeJSON(w, http.StatusOK, status)
}

type lookupFunc func(ctx context.Context) (*entreprise.SearchResult, error)

func (s *Server) respond(w http.ResponseWriter, r *http.Request, mode entreprise.SearchMode, query string, lookup lookupFunc) {
	result, err := s.search(r, mode, query, lookup)
	if err != nil {
		writeJSON(w, statusFor(err), &entreprise.SearchResult{Mode: mode, Query: query, Error: err.Error()})
		return
	}

	if r.URL.Query().Get("format") == "xlsx" {
		data, err := result.Workbook()
		if err != nil {
			zap.L().Error("workbook export failed", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, &entreprise.SearchResult{Mode: mode, Query: query, Error: err.Error()})

			return
		}

		w.Header().Set("Content-Type", export.ContentType)
		w.Header().Set("Content-Disposition", `attachment; filename="`+result.FileName()+`"`)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)

		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) search(r *http.Request, mode entreprise.SearchMode, query string, lookup lookupFunc) (*entreprise.SearchResult, error) {
	start := time.Now()

	result, err := lookup(r.Context())

	props := map[string]any{
		"mode":       string(mode),
		"durationMs": time.Since(start).Milliseconds(),
		"success":    err == nil,
	}

	if err == nil {
		props["results"] = result.TotalResults
	}

	s.tracker.Track(visitorID(r), "company_search", props)

	if err != nil {
		zap.L().Warn("search failed",
			zap.String("mode", string(mode)),
			zap.String("query", query),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err),
		)
	}

	return result, err
}

func nameSearchParams(r *http.Request) entreprise.NameSearchParams {
	q := r.URL.Query()

	return entreprise.NameSearchParams{
		Query:           strings.TrimSpace(q.Get("q")),
		MaxResults:      intParam(q.Get("n"), defaultResults, maxNameResults),
		TrancheEffectif: strings.TrimSpace(q.Get("tranche")),
		EtabMin:         optionalInt(q.Get("etab_min")),
		EtabMax:         optionalInt(q.Get("etab_max")),
		CodeNAF:         strings.TrimSpace(q.Get("naf")),
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, entreprise.ErrInvalidSiren),
		errors.Is(err, entreprise.ErrInvalidSiret),
		errors.Is(err, entreprise.ErrEmptyQuery):
		return http.StatusBadRequest
	case errors.Is(err, entreprise.ErrMissingINSEEKey):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func intParam(raw string, fallback, upper int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return fallback
	}

	return min(n, upper)
}

func optionalInt(raw string) *int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return nil
	}

	return &n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Debug("writing response failed", zap.Error(err))
	}
}

// requestID keeps the caller's request ID or assigns a new one, and makes
// it available through middleware.GetReqID.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}

		w.Header().Set(requestIDHeader, id)
		ctx := context.WithValue(r.Context(), middleware.RequestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		zap.L().Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

// orNA renders an absent registry value the way the dashboard always has.
func orNA(f scoring.Field) string {
	if f.IsAbsent() {
		return "N/A"
	}

	return f.String()
}

func visitorID(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}

	return r.RemoteAddr
}
