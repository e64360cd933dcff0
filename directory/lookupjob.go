// Package directory runs registry lookups as scrapemate jobs so batch
// files go through the same fetch, retry and concurrency machinery as any
// other crawl.
package directory

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gosom/scrapemate"

	"github.com/Tpgainz/smart-business-directory/entreprise"
)

const (
	defaultNAFResults  = 10
	defaultNameResults = 10
	maxNAFResults      = 50
	maxNameResults     = 100
)

// Record is one report produced for one input line. Seq is the line
// number and Pos the rank of the company within that line's results.
type Record struct {
	Seq     int
	Pos     int
	InputID string
	Query   string
	Mode    entreprise.SearchMode
	Report  entreprise.CompanyReport
}

type LookupJobOptions func(*LookupJob)

// LookupJob fetches the registry document matching its query. SIREN, SIRET
// and NAF lookups read INSEE and hand every legal unit to an EnrichJob;
// name searches read recherche-entreprises one page at a time.
type LookupJob struct {
	scrapemate.Job

	Seq     int
	InputID string
	Query   string
	Mode    entreprise.SearchMode
	Limit   int
	Params  entreprise.NameSearchParams
	Page    int
	Offset  int

	service *entreprise.Service
}

func NewLookupJob(service *entreprise.Service, seq int, mode entreprise.SearchMode, query string, opts ...LookupJobOptions) *LookupJob {
	const (
		defaultPrio       = scrapemate.PriorityMedium
		defaultMaxRetries = 1
	)

	job := LookupJob{
		Job: scrapemate.Job{
			ID:         uuid.New().String(),
			Method:     http.MethodGet,
			MaxRetries: defaultMaxRetries,
			Priority:   defaultPrio,
		},
		Seq:     seq,
		Query:   query,
		Mode:    mode,
		Page:    1,
		service: service,
	}

	for _, opt := range opts {
		opt(&job)
	}

	switch mode {
	case entreprise.ModeNAF:
		job.Limit = clampLimit(job.Limit, defaultNAFResults, maxNAFResults)
	case entreprise.ModeName:
		job.Limit = clampLimit(job.Limit, defaultNameResults, maxNameResults)
		job.Params.Query = query
		job.Params.MaxResults = job.Limit
	}

	job.URL, job.Headers = job.request()

	return &job
}

func WithLookupJobParentID(parentID string) LookupJobOptions {
	return func(j *LookupJob) {
		j.ParentID = parentID
	}
}

func WithLookupJobInputID(id string) LookupJobOptions {
	return func(j *LookupJob) {
		j.InputID = id
	}
}

func WithLookupJobLimit(n int) LookupJobOptions {
	return func(j *LookupJob) {
		j.Limit = n
	}
}

// WithLookupJobFilters sets the filters of a name search.
func WithLookupJobFilters(params entreprise.NameSearchParams) LookupJobOptions {
	return func(j *LookupJob) {
		j.Params = params
	}
}

func withLookupJobPage(page, offset int) LookupJobOptions {
	return func(j *LookupJob) {
		j.Page = page
		j.Offset = offset
	}
}

func (j *LookupJob) request() (string, map[string]string) {
	insee := j.service.INSEE()
	if insee == nil && j.Mode != entreprise.ModeName {
		return "", nil
	}

	switch j.Mode {
	case entreprise.ModeSiren:
		return insee.UniteLegaleURL(j.Query), insee.Headers()
	case entreprise.ModeSiret:
		return insee.EtablissementURL(j.Query), insee.Headers()
	case entreprise.ModeNAF:
		return insee.NAFSearchURL(j.Query, j.Limit), insee.Headers()
	default:
		return j.service.GOUV().SearchURL(j.Params, j.Page), map[string]string{"Accept": "application/json"}
	}
}

func (j *LookupJob) Process(ctx context.Context, resp *scrapemate.Response) (any, []scrapemate.IJob, error) {
	defer func() {
		resp.Document = nil
		resp.Body = nil
		resp.Meta = nil
	}()

	log := scrapemate.GetLoggerFromContext(ctx)

	if j.Mode == entreprise.ModeName {
		return j.processNamePage(ctx, resp)
	}

	data, err := entreprise.ParseINSEE(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("%s %s: %w", j.Mode, j.Query, err)
	}

	var next []scrapemate.IJob

	switch j.Mode {
	case entreprise.ModeSiren:
		next = append(next, NewEnrichJob(j, 0, entreprise.Unwrap(data, "uniteLegale")))
	case entreprise.ModeSiret:
		next = append(next, NewEnrichJob(j, 0, entreprise.Unwrap(data, "etablissement")))
	case entreprise.ModeNAF:
		for i, ul := range entreprise.UnitesLegales(data) {
			next = append(next, NewEnrichJob(j, i, ul))
		}
	}

	log.Info("lookup done", "mode", string(j.Mode), "query", j.Query, "records", len(next))

	return nil, next, nil
}

func (j *LookupJob) processNamePage(ctx context.Context, resp *scrapemate.Response) (any, []scrapemate.IJob, error) {
	log := scrapemate.GetLoggerFromContext(ctx)

	page, err := entreprise.ParseGOUVSearch(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("name %q page %d: %w", j.Query, j.Page, err)
	}

	records := make([]*Record, 0, len(page.Results))

	for i := range page.Results {
		if j.Offset+len(records) >= j.Limit {
			break
		}

		records = append(records, &Record{
			Seq:     j.Seq,
			Pos:     j.Offset + len(records),
			InputID: j.InputID,
			Query:   j.Query,
			Mode:    j.Mode,
			Report:  j.service.ReportFromGOUV(ctx, &page.Results[i]),
		})
	}

	log.Info("name page done", "query", j.Query, "page", j.Page, "records", len(records))

	var next []scrapemate.IJob

	collected := j.Offset + len(records)
	if len(page.Results) > 0 && collected < j.Limit && (page.TotalPages == 0 || j.Page < page.TotalPages) {
		next = append(next, NewLookupJob(j.service, j.Seq, j.Mode, j.Query,
			WithLookupJobParentID(j.ID),
			WithLookupJobInputID(j.InputID),
			WithLookupJobFilters(j.Params),
			WithLookupJobLimit(j.Limit),
			withLookupJobPage(j.Page+1, collected),
		))
	}

	return records, next, nil
}

func (j *LookupJob) UseInResults() bool {
	return j.Mode == entreprise.ModeName
}

func clampLimit(n, fallback, upper int) int {
	if n <= 0 {
		return fallback
	}

	return min(n, upper)
}
