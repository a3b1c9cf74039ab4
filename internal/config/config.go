// Package config loads service settings from defaults, an optional YAML file
// and PILOT_* environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix = "PILOT_"
	// FileEnv names the variable holding the optional YAML file path.
	FileEnv = "PILOT_CONFIG"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Addr              string        `koanf:"addr"`
	GinMode           string        `koanf:"gin_mode"`
	LogLevel          string        `koanf:"log_level"`
	LogFile           string        `koanf:"log_file"`
	ModelDir          string        `koanf:"model_dir"`
	APIKey            string        `koanf:"api_key"`
	MaxBodyBytes      int64         `koanf:"max_body_bytes"`
	PredictTimeout    time.Duration `koanf:"predict_timeout"`
	TrainTimeout      time.Duration `koanf:"train_timeout"`
	PredictionWorkers int           `koanf:"prediction_workers"`
	TrainingWorkers   int           `koanf:"training_workers"`
	SyllabusWorkers   int           `koanf:"syllabus_workers"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout"`
}

func Default() Config {
	return Config{
		Addr:              ":8080",
		GinMode:           "release",
		LogLevel:          "info",
		ModelDir:          "models",
		MaxBodyBytes:      8 << 20,
		PredictTimeout:    10 * time.Second,
		TrainTimeout:      10 * time.Minute,
		PredictionWorkers: 8,
		TrainingWorkers:   1,
		SyllabusWorkers:   4,
		ShutdownTimeout:   15 * time.Second,
	}
}

// Load layers defaults, the file named by PILOT_CONFIG and PILOT_* variables.
// PILOT_MODEL_DIR sets model_dir.
func Load() (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}
	if path := os.Getenv(FileEnv); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}
	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		if s == FileEnv {
			return ""
		}
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var problems []string
	if c.Addr == "" {
		problems = append(problems, "addr must not be empty")
	}
	if c.ModelDir == "" {
		problems = append(problems, "model_dir must not be empty")
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("log_level %q is not one of debug, info, warn, error", c.LogLevel))
	}
	switch c.GinMode {
	case "debug", "release", "test":
	default:
		problems = append(problems, fmt.Sprintf("gin_mode %q is not one of debug, release, test", c.GinMode))
	}
	if c.PredictTimeout <= 0 || c.TrainTimeout <= 0 {
		problems = append(problems, "timeouts must be positive")
	}
	if c.PredictionWorkers < 1 || c.TrainingWorkers < 1 || c.SyllabusWorkers < 1 {
		problems = append(problems, "worker counts must be at least 1")
	}
	if c.MaxBodyBytes < 1024 {
		problems = append(problems, "max_body_bytes must be at least 1024")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}
