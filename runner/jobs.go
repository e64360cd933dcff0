package runner

import (
	"bufio"
	"io"
	"strings"

	"github.com/gosom/scrapemate"
	"github.com/rotisserie/eris"

	"github.com/Tpgainz/smart-business-directory/directory"
	"github.com/Tpgainz/smart-business-directory/entreprise"
)

// ParseQuery reads one input line. An explicit "siren:", "siret:", "naf:" or
// "name:" prefix wins; otherwise 9 and 14 digit numbers are identifiers and
// anything else is a company name.
func ParseQuery(line string) (entreprise.SearchMode, string) {
	if prefix, rest, ok := strings.Cut(line, ":"); ok {
		switch mode := entreprise.SearchMode(strings.ToLower(strings.TrimSpace(prefix))); mode {
		case entreprise.ModeSiren, entreprise.ModeSiret, entreprise.ModeNAF, entreprise.ModeName:
			return mode, strings.TrimSpace(rest)
		}
	}

	id := entreprise.NormalizeIdentifier(line)
	if isDigits(id) {
		switch len(id) {
		case 9:
			return entreprise.ModeSiren, id
		case 14:
			return entreprise.ModeSiret, id
		}
	}

	return entreprise.ModeName, strings.TrimSpace(line)
}

func CreateSeedJobs(service *entreprise.Service, r io.Reader, limit int) (jobs []scrapemate.IJob, err error) {
	scanner := bufio.NewScanner(r)

	for seq := 0; scanner.Scan(); {
		query := strings.TrimSpace(scanner.Text())
		if query == "" || strings.HasPrefix(query, "#") && !strings.Contains(query, "#!#") {
			continue
		}

		var id string

		if before, after, ok := strings.Cut(query, "#!#"); ok {
			query = strings.TrimSpace(before)
			id = strings.TrimSpace(after)
		}

		mode, q := ParseQuery(query)

		switch mode {
		case entreprise.ModeSiren:
			q, err = service.ValidateSiren(q)
		case entreprise.ModeSiret:
			q, err = service.ValidateSiret(q)
		case entreprise.ModeNAF, entreprise.ModeName:
			if q == "" {
				err = entreprise.ErrEmptyQuery
			}
		}

		if err != nil {
			return nil, eris.Wrapf(err, "line %q", query)
		}

		if mode != entreprise.ModeName && service.INSEE() == nil {
			return nil, eris.Wrapf(entreprise.ErrMissingINSEEKey, "line %q", query)
		}

		opts := []directory.LookupJobOptions{directory.WithLookupJobLimit(limit)}
		if id != "" {
			opts = append(opts, directory.WithLookupJobInputID(id))
		}

		jobs = append(jobs, directory.NewLookupJob(service, seq, mode, q, opts...))
		seq++
	}

	return jobs, scanner.Err()
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}

	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}

	return true
}
