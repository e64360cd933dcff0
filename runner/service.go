package runner

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Tpgainz/smart-business-directory/config"
	"github.com/Tpgainz/smart-business-directory/entreprise"
	"github.com/Tpgainz/smart-business-directory/serverless"
)

// NewService wires the registry clients and the scorer from the settings.
// Without an INSEE key only name searches are available.
func NewService(ctx context.Context, cfg *Config) (*entreprise.Service, error) {
	settings := cfg.Settings
	if settings == nil {
		settings = &config.Config{}
	}

	var insee *entreprise.INSEEService

	if settings.INSEE.APIKey != "" {
		opts := []entreprise.INSEEOption{entreprise.WithINSEERateLimit(settings.INSEE.RequestsPerMinute)}

		if settings.INSEE.BaseURL != "" {
			opts = append(opts, entreprise.WithINSEEBaseURL(settings.INSEE.BaseURL))
		}

		if settings.INSEE.TimeoutSecs > 0 {
			opts = append(opts, entreprise.WithINSEETimeout(time.Duration(settings.INSEE.TimeoutSecs)*time.Second))
		}

		insee = entreprise.NewINSEEService(settings.INSEE.APIKey, opts...)
	} else {
		zap.L().Warn("INSEE_API_KEY is not set, SIREN, SIRET and NAF lookups are disabled")
	}

	gouvOpts := []entreprise.GOUVOption{entreprise.WithGOUVRateLimit(settings.GOUV.RequestsPerSecond)}

	if settings.GOUV.BaseURL != "" {
		gouvOpts = append(gouvOpts, entreprise.WithGOUVBaseURL(settings.GOUV.BaseURL))
	}

	if settings.GOUV.TimeoutSecs > 0 && settings.GOUV.EnrichTimeoutSecs > 0 {
		gouvOpts = append(gouvOpts, entreprise.WithGOUVTimeouts(
			time.Duration(settings.GOUV.TimeoutSecs)*time.Second,
			time.Duration(settings.GOUV.EnrichTimeoutSecs)*time.Second,
		))
	}

	opts := []entreprise.ServiceOption{entreprise.WithEnrichConcurrency(cfg.EnrichConcurrency)}

	if cfg.ScorerFunction != "" {
		awsCfg, err := config.LoadAWS(ctx, settings.AWS)
		if err != nil {
			return nil, err
		}

		zap.L().Info("scoring through lambda", zap.String("function", cfg.ScorerFunction))
		opts = append(opts, entreprise.WithScorer(serverless.NewInvokerFromConfig(awsCfg, cfg.ScorerFunction)))
	}

	return entreprise.NewService(insee, entreprise.NewGOUVService(gouvOpts...), opts...), nil
}
