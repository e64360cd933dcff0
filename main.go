package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/Tpgainz/smart-business-directory/config"
	"github.com/Tpgainz/smart-business-directory/runner"
	"github.com/Tpgainz/smart-business-directory/runner/batchrunner"
	"github.com/Tpgainz/smart-business-directory/runner/lambdarunner"
	"github.com/Tpgainz/smart-business-directory/runner/webrunner"
)

func main() {
	if _, err := os.Stat("/.dockerenv"); os.IsNotExist(err) {
		if err := godotenv.Load(); err != nil {
			log.Printf("Warning: Error loading .env file: %v (continuing without it)", err)
		}
	}

	settings, err := config.Load()
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")

		os.Exit(1)
	}

	if err := config.InitLogger(settings.Log); err != nil {
		os.Stderr.WriteString(err.Error() + "\n")

		os.Exit(1)
	}

	defer func() { _ = zap.L().Sync() }()

	ctx, cancel := context.WithCancel(context.Background())

	cfg := runner.ParseConfig()
	cfg.Settings = settings

	if cfg.RunMode != runner.RunModeLambda {
		runner.Banner()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan

		zap.L().Info("received signal, shutting down")

		cancel()
	}()

	runnerInstance, err := runnerFactory(cfg)
	if err != nil {
		cancel()
		os.Stderr.WriteString(err.Error() + "\n")

		os.Exit(1)
	}

	if err := runnerInstance.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		os.Stderr.WriteString(err.Error() + "\n")

		_ = runnerInstance.Close(ctx)

		cancel()

		os.Exit(1)
	}

	_ = runnerInstance.Close(ctx)

	cancel()
}

func runnerFactory(cfg *runner.Config) (runner.Runner, error) {
	switch cfg.RunMode {
	case runner.RunModeWeb:
		return webrunner.New(cfg)
	case runner.RunModeBatch:
		return batchrunner.New(cfg)
	case runner.RunModeLambda:
		return lambdarunner.New(cfg)
	default:
		return nil, fmt.Errorf("%w: %d", runner.ErrInvalidRunMode, cfg.RunMode)
	}
}
