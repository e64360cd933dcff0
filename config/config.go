package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the settings read from the environment and the optional
// config file.
type Config struct {
	INSEE   INSEEConfig   `yaml:"insee" mapstructure:"insee"`
	GOUV    GOUVConfig    `yaml:"gouv" mapstructure:"gouv"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
	PostHog PostHogConfig `yaml:"posthog" mapstructure:"posthog"`
	AWS     AWSConfig     `yaml:"aws" mapstructure:"aws"`
}

// INSEEConfig configures the Sirene client.
type INSEEConfig struct {
	APIKey            string `yaml:"api_key" mapstructure:"api_key"`
	BaseURL           string `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs       int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RequestsPerMinute int    `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
}

// GOUVConfig configures the recherche-entreprises client.
type GOUVConfig struct {
	BaseURL           string `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs       int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	EnrichTimeoutSecs int    `yaml:"enrich_timeout_secs" mapstructure:"enrich_timeout_secs"`
	RequestsPerSecond int    `yaml:"requests_per_second" mapstructure:"requests_per_second"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

type PostHogConfig struct {
	APIKey   string `yaml:"api_key" mapstructure:"api_key"`
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`
}

// AWSConfig is used by the S3 upload and the remote scorer. Static keys are
// optional; the default credential chain applies when they are empty.
type AWSConfig struct {
	Region          string `yaml:"region" mapstructure:"region"`
	AccessKeyID     string `yaml:"access_key_id" mapstructure:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key" mapstructure:"secret_access_key"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("SBD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// INSEE_API_KEY is the name the key has always had in .env files.
	if err := v.BindEnv("insee.api_key", "SBD_INSEE_API_KEY", "INSEE_API_KEY"); err != nil {
		return nil, eris.Wrap(err, "config: bind env")
	}

	v.SetDefault("insee.api_key", "")
	v.SetDefault("insee.base_url", "https://api.insee.fr/api-sirene/3.11")
	v.SetDefault("insee.timeout_secs", 15)
	v.SetDefault("insee.requests_per_minute", 30)
	v.SetDefault("gouv.base_url", "https://recherche-entreprises.api.gouv.fr")
	v.SetDefault("gouv.timeout_secs", 15)
	v.SetDefault("gouv.enrich_timeout_secs", 10)
	v.SetDefault("gouv.requests_per_second", 7)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("posthog.api_key", "")
	v.SetDefault("posthog.endpoint", "https://eu.i.posthog.com")
	v.SetDefault("aws.region", "eu-west-3")
	v.SetDefault("aws.access_key_id", "")
	v.SetDefault("aws.secret_access_key", "")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
