package directory

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/gosom/scrapemate"

	"github.com/Tpgainz/smart-business-directory/entreprise"
)

// EnrichJob completes one INSEE record with the size signals of
// recherche-entreprises and turns it into a Record.
type EnrichJob struct {
	scrapemate.Job

	Seq     int
	Pos     int
	InputID string
	Query   string
	Mode    entreprise.SearchMode
	Siren   string
	Record  map[string]any

	service *entreprise.Service
}

func NewEnrichJob(parent *LookupJob, pos int, record map[string]any) *EnrichJob {
	const (
		defaultPrio       = scrapemate.PriorityHigh
		defaultMaxRetries = 1
	)

	siren, _ := record["siren"].(string)
	if siren == "" && parent.Mode == entreprise.ModeSiret && len(parent.Query) >= 9 {
		siren = parent.Query[:9]
	}

	job := EnrichJob{
		Job: scrapemate.Job{
			ID:         uuid.New().String(),
			ParentID:   parent.ID,
			Method:     http.MethodGet,
			URL:        parent.service.GOUV().EnrichURL(siren),
			Headers:    map[string]string{"Accept": "application/json"},
			MaxRetries: defaultMaxRetries,
			Priority:   defaultPrio,
		},
		Seq:     parent.Seq,
		Pos:     pos,
		InputID: parent.InputID,
		Query:   parent.Query,
		Mode:    parent.Mode,
		Siren:   siren,
		Record:  record,
		service: parent.service,
	}

	return &job
}

// DoCheckResponse accepts every status: a SIREN unknown to
// recherche-entreprises still yields a report, scored without enrichment.
func (j *EnrichJob) DoCheckResponse(_ *scrapemate.Response) bool {
	return true
}

func (j *EnrichJob) Process(ctx context.Context, resp *scrapemate.Response) (any, []scrapemate.IJob, error) {
	defer func() {
		resp.Document = nil
		resp.Body = nil
		resp.Meta = nil
	}()

	log := scrapemate.GetLoggerFromContext(ctx)

	var info *entreprise.Enrichment

	// Without a SIREN the registry answer is an unrelated first hit.
	if resp.StatusCode == http.StatusOK && j.Siren != "" {
		page, err := entreprise.ParseGOUVSearch(resp.Body)
		if err != nil {
			log.Info("enrichment unreadable", "siren", j.Siren, "error", err.Error())
		} else {
			info = entreprise.EnrichmentFrom(page)
		}
	}

	var report entreprise.CompanyReport

	if j.Mode == entreprise.ModeSiret {
		report = j.service.ReportFromEtablissement(ctx, j.Query, j.Record, info)
	} else {
		report = j.service.ReportFromUniteLegale(ctx, j.Record, info)
	}

	if report.Siren == "" {
		report.Siren = j.Siren
	}

	return &Record{
		Seq:     j.Seq,
		Pos:     j.Pos,
		InputID: j.InputID,
		Query:   j.Query,
		Mode:    j.Mode,
		Report:  report,
	}, nil, nil
}

func (j *EnrichJob) UseInResults() bool {
	return true
}
