package internal

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hbomb79/Resonance/internal/http/prediction"
	"github.com/hbomb79/Resonance/pkg/logger"
	"github.com/ilyakaznacheev/cleanenv"
)

// ResonanceConfig is the struct used to contain the
// various user config supplied by file, environment
// or command line flags.
type ResonanceConfig struct {
	Prediction      PredictionConfig `yaml:"prediction"`
	DefaultMusicURL string           `yaml:"default_music_url" env:"MUSIC_INPUT_URL" env-default:"https://example.com/samples/music.mp3" validate:"required,url"`
	OutputDir       string           `yaml:"output_dir" env:"OUTPUT_DIR" env-default:"analysis_results" validate:"required"`
	Visualize       bool             `yaml:"visualize" env:"VISUALIZE"`
	Sonify          bool             `yaml:"sonify" env:"SONIFY"`
	Concurrency     int              `yaml:"concurrency" env:"PERSIST_CONCURRENCY" env-default:"4" validate:"min=1,max=32"`
	LogLevel        string           `yaml:"log_level" env:"LOG_LEVEL" env-default:"INFO" validate:"required"`
}

// PredictionConfig is a subset of the configuration that focuses
// only on how the prediction API is reached.
type PredictionConfig struct {
	Endpoint       string `yaml:"endpoint" env:"PREDICTION_ENDPOINT" env-default:"http://localhost:5000/predictions" validate:"required,url"`
	ApiToken       string `yaml:"api_token" env:"PREDICTION_API_TOKEN"`
	PreferWait     bool   `yaml:"prefer_wait" env:"PREDICTION_PREFER_WAIT"`
	TimeoutSeconds int    `yaml:"request_timeout_seconds" env:"PREDICTION_TIMEOUT_SECONDS" env-default:"0" validate:"min=0"`
}

// LoadConfig reads the configuration from the YAML file at the path
// given, if any, and then from the environment. The result is validated
// before being returned.
func LoadConfig(configPath string) (*ResonanceConfig, error) {
	config := defaultConfig()
	if configPath != "" {
		if err := cleanenv.ReadConfig(configPath, config); err != nil {
			return nil, fmt.Errorf("failed to load configuration from %s: %w", configPath, err)
		}
	} else if err := cleanenv.ReadEnv(config); err != nil {
		return nil, fmt.Errorf("failed to load configuration from environment: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// defaultConfig returns the config with the boolean options which default to
// true already set. cleanenv cannot apply an env-default of true without
// also overriding an explicit 'false' from the config file.
func defaultConfig() *ResonanceConfig {
	return &ResonanceConfig{
		Prediction: PredictionConfig{PreferWait: true},
		Visualize:  true,
		Sonify:     true,
	}
}

// Validate ensures the configuration is usable, returning an
// error describing the first problem found.
func (config *ResonanceConfig) Validate() error {
	if err := validator.New().Struct(config); err != nil {
		return fmt.Errorf("configuration is invalid: %w", err)
	}

	if _, ok := logger.ParseStatus(config.LogLevel); !ok {
		return fmt.Errorf("configuration is invalid: unknown log level %q", config.LogLevel)
	}

	return nil
}

func (config *ResonanceConfig) LogStatus() logger.LogStatus {
	status, _ := logger.ParseStatus(config.LogLevel)
	return status
}

func (config *PredictionConfig) clientConfig() prediction.Config {
	return prediction.Config{
		Endpoint:   config.Endpoint,
		ApiToken:   config.ApiToken,
		PreferWait: config.PreferWait,
		Timeout:    time.Duration(config.TimeoutSeconds) * time.Second,
	}
}
