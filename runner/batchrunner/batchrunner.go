package batchrunner

import (
	"context"
	"errors"
	"os"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gosom/scrapemate"
	"github.com/gosom/scrapemate/scrapemateapp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/Tpgainz/smart-business-directory/config"
	"github.com/Tpgainz/smart-business-directory/directory"
	"github.com/Tpgainz/smart-business-directory/runner"
)

type batchrunner struct {
	cfg    *runner.Config
	app    *scrapemateapp.ScrapemateApp
	writer *directory.WorkbookWriter
}

func New(cfg *runner.Config) (runner.Runner, error) {
	if cfg.InputFile == "" {
		return nil, eris.New("input file must be provided in batch mode")
	}

	if cfg.ResultsFile == "" {
		return nil, eris.New("results file must be provided in batch mode")
	}

	ans := batchrunner{cfg: cfg}

	return &ans, nil
}

func (b *batchrunner) Run(ctx context.Context) error {
	service, err := runner.NewService(ctx, b.cfg)
	if err != nil {
		return err
	}

	f, err := os.Open(b.cfg.InputFile)
	if err != nil {
		return eris.Wrapf(err, "open input %s", b.cfg.InputFile)
	}
	defer f.Close()

	seedJobs, err := runner.CreateSeedJobs(service, f, b.cfg.Limit)
	if err != nil {
		return err
	}

	if len(seedJobs) == 0 {
		zap.L().Warn("no queries in input", zap.String("file", b.cfg.InputFile))
		return nil
	}

	var writerOpts []directory.WorkbookWriterOption

	if b.cfg.S3Bucket != "" {
		settings := b.cfg.Settings
		if settings == nil {
			settings = &config.Config{}
		}

		awsCfg, err := config.LoadAWS(ctx, settings.AWS)
		if err != nil {
			return err
		}

		writerOpts = append(writerOpts, directory.WithS3Upload(s3.NewFromConfig(awsCfg), b.cfg.S3Bucket, b.cfg.S3Prefix))
	}

	b.writer = directory.NewWorkbookWriter(b.cfg.ResultsFile, writerOpts...)

	b.app, err = b.setApp()
	if err != nil {
		return err
	}

	zap.L().Info("batch started", zap.Int("queries", len(seedJobs)), zap.String("results", b.cfg.ResultsFile))

	err = b.app.Start(ctx, seedJobs...)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) &&
		!errors.Is(err, scrapemate.ErrorExitSignal) {
		return err
	}

	zap.L().Info("batch finished", zap.Int("companies", len(b.writer.Records())))

	return nil
}

func (b *batchrunner) Close(context.Context) error {
	if b.app != nil {
		return b.app.Close()
	}

	return nil
}

func (b *batchrunner) setApp() (*scrapemateapp.ScrapemateApp, error) {
	opts := []func(*scrapemateapp.Config) error{
		scrapemateapp.WithConcurrency(b.cfg.Concurrency),
		scrapemateapp.WithExitOnInactivity(b.cfg.ExitOnInactivityDuration),
	}

	writers := []scrapemate.ResultWriter{b.writer}

	matecfg, err := scrapemateapp.NewConfig(writers, opts...)
	if err != nil {
		return nil, err
	}

	return scrapemateapp.NewScrapeMateApp(matecfg)
}
