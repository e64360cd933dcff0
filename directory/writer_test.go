package directory

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gosom/scrapemate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Tpgainz/smart-business-directory/entreprise"
	"github.com/Tpgainz/smart-business-directory/export"
	"github.com/Tpgainz/smart-business-directory/scoring"
)

type memoryBucket struct {
	bucket string
	key    string
	body   []byte
}

func (m *memoryBucket) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	m.bucket = aws.ToString(params.Bucket)
	m.key = aws.ToString(params.Key)

	body, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}

	m.body = body

	return &s3.PutObjectOutput{}, nil
}

func record(seq, pos int, siren string, score int) *Record {
	return &Record{
		Seq:   seq,
		Pos:   pos,
		Query: siren,
		Mode:  entreprise.ModeSiren,
		Report: entreprise.CompanyReport{
			Siren:              siren,
			Name:               "ACME " + siren,
			EmployeeSizeCode:   scoring.Text("51"),
			EstablishmentCount: scoring.Number(15),
			Assessment:         scoring.Assessment{Score: score, Status: "Excellent health"},
		},
	}
}

func TestWorkbookWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "report.xlsx")
	bucket := &memoryBucket{}

	w := NewWorkbookWriter(path, WithS3Upload(bucket, "reports", "batch/"))

	in := make(chan scrapemate.Result, 4)
	in <- scrapemate.Result{Data: record(1, 0, "222222222", 80)}
	in <- scrapemate.Result{Data: []*Record{record(0, 1, "111111112", 90), record(0, 0, "111111111", 100)}}
	in <- scrapemate.Result{Data: nil}
	in <- scrapemate.Result{Data: "unexpected"}
	close(in)

	require.NoError(t, w.Run(context.Background(), in))

	records := w.Records()
	require.Len(t, records, 3)
	assert.Equal(t, "111111111", records[0].Report.Siren)
	assert.Equal(t, "111111112", records[1].Report.Siren)
	assert.Equal(t, "222222222", records[2].Report.Siren)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(export.SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, batchColumns[:5], rows[0][:5])
	assert.Equal(t, []string{"1", "", "111111111", "siren", "111111111"}, rows[1][:5])
	assert.Equal(t, "51", rows[1][11])
	assert.Equal(t, "15", rows[1][12])
	assert.Equal(t, "100", rows[1][13])

	assert.Equal(t, "reports", bucket.bucket)
	assert.Equal(t, "batch/report.xlsx", bucket.key)

	uploaded, err := excelize.OpenReader(bytes.NewReader(bucket.body))
	require.NoError(t, err)
	defer uploaded.Close()
	assert.Equal(t, []string{export.SheetName}, uploaded.GetSheetList())
}

func TestWorkbookWriterEmptyRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.xlsx")
	w := NewWorkbookWriter(path)

	in := make(chan scrapemate.Result)
	close(in)

	require.NoError(t, w.Run(context.Background(), in))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(export.SheetName)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
