package directory

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gosom/scrapemate"
	"github.com/rotisserie/eris"

	"github.com/Tpgainz/smart-business-directory/entreprise"
	"github.com/Tpgainz/smart-business-directory/export"
)

var batchColumns = []string{
	"Line", "Input ID", "Query", "Mode", "SIREN", "SIRET", "Name", "NAF code", "Legal category",
	"Head office address", "Department", "Employee size code", "Open establishments",
	"Health score", "Status", "Narrative",
}

// ObjectPutter is the part of the S3 client the writer needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type WorkbookWriterOption func(*WorkbookWriter)

// WithS3Upload also stores the workbook under prefix in bucket.
func WithS3Upload(client ObjectPutter, bucket, prefix string) WorkbookWriterOption {
	return func(w *WorkbookWriter) {
		w.s3 = client
		w.bucket = bucket
		w.prefix = prefix
	}
}

// WorkbookWriter collects every Record of a run and writes them as one
// workbook once the result channel closes.
type WorkbookWriter struct {
	path   string
	s3     ObjectPutter
	bucket string
	prefix string

	mu      sync.Mutex
	records []*Record
}

func NewWorkbookWriter(path string, opts ...WorkbookWriterOption) *WorkbookWriter {
	w := &WorkbookWriter{path: path}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

func (w *WorkbookWriter) Run(ctx context.Context, in <-chan scrapemate.Result) error {
	log := scrapemate.GetLoggerFromContext(ctx)

	for result := range in {
		switch data := result.Data.(type) {
		case *Record:
			w.add(data)
		case []*Record:
			w.add(data...)
		case nil:
		default:
			log.Info("ignoring unexpected result", "type", fmt.Sprintf("%T", data))
		}
	}

	records := w.Records()
	log.Info("writing workbook", "path", w.path, "records", len(records))

	return w.flush(ctx, records)
}

func (w *WorkbookWriter) add(records ...*Record) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.records = append(w.records, records...)
}

// Records returns the collected records ordered by input line, then rank.
func (w *WorkbookWriter) Records() []*Record {
	w.mu.Lock()
	defer w.mu.Unlock()

	records := make([]*Record, len(w.records))
	copy(records, w.records)

	sort.SliceStable(records, func(i, k int) bool {
		if records[i].Seq != records[k].Seq {
			return records[i].Seq < records[k].Seq
		}

		return records[i].Pos < records[k].Pos
	})

	return records
}

func (w *WorkbookWriter) flush(ctx context.Context, records []*Record) error {
	data, err := export.Workbook(Table(records))
	if err != nil {
		return err
	}

	if w.path != "" {
		if dir := filepath.Dir(w.path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return eris.Wrapf(err, "creating %s", dir)
			}
		}

		if err := os.WriteFile(w.path, data, 0o644); err != nil {
			return eris.Wrapf(err, "writing %s", w.path)
		}
	}

	if w.s3 == nil {
		return nil
	}

	key := w.prefix + filepath.Base(w.path)
	if w.path == "" {
		key = w.prefix + export.FileName("batch", "results")
	}

	_, err = w.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(w.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(export.ContentType),
	})
	if err != nil {
		return eris.Wrapf(err, "uploading s3://%s/%s", w.bucket, key)
	}

	return nil
}

// Table lays out records from any mix of search modes.
func Table(records []*Record) export.Table {
	t := export.Table{Columns: batchColumns, Rows: make([][]any, 0, len(records))}

	for _, r := range records {
		rep := r.Report

		t.Rows = append(t.Rows, []any{
			r.Seq + 1, r.InputID, r.Query, string(r.Mode), rep.Siren, rep.Siret, rep.Name, rep.NAF, rep.LegalCategory,
			rep.HeadOfficeAddress, rep.Department,
			entreprise.CellValue(rep.EmployeeSizeCode), entreprise.CellValue(rep.EstablishmentCount),
			rep.Assessment.Score, rep.Assessment.Status, rep.Assessment.Narrative,
		})
	}

	return t
}
