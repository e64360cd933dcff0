package webrunner

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/Tpgainz/smart-business-directory/runner"
	"github.com/Tpgainz/smart-business-directory/web"
)

const shutdownTimeout = 10 * time.Second

type webrunner struct {
	cfg     *runner.Config
	srv     *http.Server
	tracker web.Tracker
}

func New(cfg *runner.Config) (runner.Runner, error) {
	if cfg.Addr == "" {
		return nil, eris.New("addr must be provided in web mode")
	}

	ans := webrunner{cfg: cfg}

	return &ans, nil
}

func (w *webrunner) Run(ctx context.Context) error {
	service, err := runner.NewService(ctx, w.cfg)
	if err != nil {
		return err
	}

	w.tracker = web.NopTracker{}

	if settings := w.cfg.Settings; settings != nil {
		w.tracker, err = web.NewPostHogTracker(settings.PostHog.APIKey, settings.PostHog.Endpoint)
		if err != nil {
			return err
		}
	}

	w.srv = &http.Server{
		Addr:              w.cfg.Addr,
		Handler:           web.New(service, web.WithTracker(w.tracker)).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)

	go func() {
		zap.L().Info("dashboard listening", zap.String("addr", w.cfg.Addr))

		if err := w.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- eris.Wrap(err, "http server")
		}

		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	zap.L().Info("shutting down dashboard")

	return w.srv.Shutdown(shutdownCtx)
}

func (w *webrunner) Close(context.Context) error {
	if w.tracker != nil {
		return w.tracker.Close()
	}

	return nil
}
