// Package config resolves bookrec settings from built-in defaults, an
// optional YAML file and BOOKREC_* environment variables, in that order.
package config

import (
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/lehigh-university-libraries/bookrec/internal/recommend"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "BOOKREC_"

// PathEnvVar names a config file to load instead of the default search.
const PathEnvVar = EnvPrefix + "CONFIG"

// DefaultPaths are searched in order when no config file is named.
var DefaultPaths = []string{
	"bookrec.yaml",
	"bookrec.yml",
	"config.yaml",
}

// Config is the resolved configuration.
type Config struct {
	Catalog   CatalogConfig   `koanf:"catalog"`
	Recommend RecommendConfig `koanf:"recommend"`
	Server    ServerConfig    `koanf:"server"`
	Log       LogConfig       `koanf:"log"`
}

type CatalogConfig struct {
	Path string `koanf:"path"`
}

// RecommendConfig holds query defaults. Weights are passed through as
// configured as long as they are finite; top_k may not exceed
// recommend.MaxTopK.
type RecommendConfig struct {
	TopK        int     `koanf:"top_k" validate:"gte=0"`
	GenreWeight float64 `koanf:"genre_weight" validate:"finite"`
	TFWeight    float64 `koanf:"tf_weight" validate:"finite"`
	Weighting   string  `koanf:"weighting" validate:"oneof=tf tfidf"`
}

type ServerConfig struct {
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
}

type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=text json"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Catalog: CatalogConfig{
			Path: "data/goodreads_data.csv",
		},
		Recommend: RecommendConfig{
			TopK:        5,
			GenreWeight: 0.6,
			TFWeight:    0.4,
			Weighting:   "tfidf",
		},
		Server: ServerConfig{
			Port:            8888,
			ShutdownTimeout: 5 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
		f := fl.Field().Float()
		return !math.IsNaN(f) && !math.IsInf(f, 0)
	})
	return v
}

// Load layers defaults, the config file and the environment. An empty path
// falls back to BOOKREC_CONFIG and then DefaultPaths; a named file that
// does not exist is an error.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	configPath, err := resolvePath(path)
	if err != nil {
		return nil, err
	}
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// BOOKREC_RECOMMEND_GENRE_WEIGHT -> recommend.genre_weight
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	if c.Recommend.TopK > recommend.MaxTopK {
		return fmt.Errorf("configuration validation failed: TopK %d exceeds the maximum of %d", c.Recommend.TopK, recommend.MaxTopK)
	}
	return nil
}

func resolvePath(path string) (string, error) {
	if path == "" {
		path = os.Getenv(PathEnvVar)
	}
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("config file %s: %w", path, err)
		}
		return path, nil
	}

	for _, candidate := range DefaultPaths {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", nil
}

// envKey maps an environment variable onto a config path. The first
// underscore after the prefix separates the section from the key.
func envKey(name string) string {
	key := strings.ToLower(strings.TrimPrefix(name, EnvPrefix))
	if key == "config" {
		return ""
	}
	section, rest, ok := strings.Cut(key, "_")
	if !ok {
		return key
	}
	return section + "." + rest
}
