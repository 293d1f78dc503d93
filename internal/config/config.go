// Package config provides configuration loading and validation for the CLI and server.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/ghostpen/internal/lexicon"
)

// Environments.
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// Defaults applied by Defaults.
const (
	DefaultLogLevel          = "info"
	DefaultLogFormat         = "console"
	DefaultDatabasePath      = "ghostpen.db"
	DefaultModel             = "gemini-2.5-flash"
	DefaultGenerationTimeout = 30 * time.Second
	DefaultMaxTokens         = 500
	DefaultProfileCacheTTL   = 24 * time.Hour
	DefaultAlgorithm         = "v1"
	DefaultPort              = 8080
)

// Duration is a time.Duration that reads "30s"-style strings from JSON.
type Duration time.Duration

// UnmarshalJSON accepts a Go duration string or a number of seconds.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		v, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(v)
		return nil
	}
	var secs float64
	if err := json.Unmarshal(data, &secs); err != nil {
		return fmt.Errorf("invalid duration %s", data)
	}
	*d = Duration(time.Duration(secs * float64(time.Second)))
	return nil
}

// MarshalJSON writes the duration as a Go duration string.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// Config is the runtime configuration. It can be read from the environment
// (FromEnv) and from a JSON file (LoadConfig); all fields are optional.
type Config struct {
	Environment string `json:"environment,omitempty" validate:"omitempty,oneof=development staging production"`
	LogLevel    string `json:"log_level,omitempty" validate:"omitempty,oneof=debug info warn error"`
	LogFormat   string `json:"log_format,omitempty" validate:"omitempty,oneof=json console"`

	// Storage
	DatabaseURL  string `json:"database_url,omitempty"`  // PostgreSQL connection URL
	DatabasePath string `json:"database_path,omitempty"` // SQLite file used when DatabaseURL is empty
	RedisURL     string `json:"redis_url,omitempty" validate:"omitempty,url"`

	// Generation
	APIKey            string   `json:"api_key,omitempty"` // Gemini API key
	Model             string   `json:"model,omitempty"`
	GenerationTimeout Duration `json:"generation_timeout,omitempty" validate:"gte=0"`
	MaxTokens         int      `json:"max_tokens,omitempty" validate:"gte=0,lte=8192"`

	// Profiling
	Algorithm       string   `json:"algorithm,omitempty" validate:"omitempty,oneof=v1 v2"`
	LexiconPath     string   `json:"lexicon_path,omitempty"`
	ProfileCacheTTL Duration `json:"profile_cache_ttl,omitempty" validate:"gte=0"`

	// Server
	Port           int      `json:"port,omitempty" validate:"gte=0,lte=65535"`
	AllowedOrigins []string `json:"allowed_origins,omitempty"`
}

// Defaults returns the configuration used for unset values.
func Defaults() Config {
	return Config{
		Environment:       EnvDevelopment,
		LogLevel:          DefaultLogLevel,
		LogFormat:         DefaultLogFormat,
		DatabasePath:      DefaultDatabasePath,
		Model:             DefaultModel,
		GenerationTimeout: Duration(DefaultGenerationTimeout),
		MaxTokens:         DefaultMaxTokens,
		Algorithm:         DefaultAlgorithm,
		ProfileCacheTTL:   Duration(DefaultProfileCacheTTL),
		Port:              DefaultPort,
		AllowedOrigins:    []string{"*"},
	}
}

// FromEnv reads the configuration from environment variables. Unset
// variables leave the field at its zero value.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Environment:  os.Getenv("ENVIRONMENT"),
		LogLevel:     strings.ToLower(os.Getenv("LOG_LEVEL")),
		LogFormat:    strings.ToLower(os.Getenv("LOG_FORMAT")),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		DatabasePath: os.Getenv("DATABASE_PATH"),
		RedisURL:     os.Getenv("REDIS_URL"),
		APIKey:       os.Getenv("GEMINI_API_KEY"),
		Model:        os.Getenv("GEMINI_MODEL"),
		Algorithm:    os.Getenv("PROFILE_ALGORITHM"),
		LexiconPath:  os.Getenv("GHOSTPEN_LEXICON_PATH"),
	}

	var err error
	if cfg.GenerationTimeout, err = envDuration("GENERATION_TIMEOUT"); err != nil {
		return nil, err
	}
	if cfg.ProfileCacheTTL, err = envDuration("PROFILE_CACHE_TTL"); err != nil {
		return nil, err
	}
	if cfg.MaxTokens, err = envInt("MAX_TOKENS"); err != nil {
		return nil, err
	}
	if cfg.Port, err = envInt("PORT"); err != nil {
		return nil, err
	}
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
			}
		}
	}
	return cfg, nil
}

func envInt(key string) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %v", key, err)
	}
	return n, nil
}

func envDuration(key string) (Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %v", key, err)
	}
	return Duration(d), nil
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Load resolves the effective configuration: environment first, then the
// optional JSON file at path, then Defaults. The result is validated.
func Load(path string) (*Config, error) {
	cfg, err := FromEnv()
	if err != nil {
		return nil, err
	}
	if path != "" {
		file, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		merged := cfg.MergeWithDefaults(*file)
		cfg = &merged
	}
	merged := cfg.MergeWithDefaults(Defaults())
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return &merged, nil
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if c.LexiconPath != "" && c.LexiconPath != lexicon.NameDefault && c.LexiconPath != lexicon.NameExtended {
		if _, err := os.Stat(c.LexiconPath); os.IsNotExist(err) {
			return fmt.Errorf("config error: lexicon file not found: %s", c.LexiconPath)
		}
	}
	return nil
}

// IsProduction reports whether the configured environment is production.
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// This is used to layer environment, file and built-in values.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	fillString(&result.Environment, defaults.Environment)
	fillString(&result.LogLevel, defaults.LogLevel)
	fillString(&result.LogFormat, defaults.LogFormat)
	fillString(&result.DatabaseURL, defaults.DatabaseURL)
	fillString(&result.DatabasePath, defaults.DatabasePath)
	fillString(&result.RedisURL, defaults.RedisURL)
	fillString(&result.APIKey, defaults.APIKey)
	fillString(&result.Model, defaults.Model)
	fillString(&result.Algorithm, defaults.Algorithm)
	fillString(&result.LexiconPath, defaults.LexiconPath)

	// Numeric fields: use default if zero
	if result.GenerationTimeout == 0 {
		result.GenerationTimeout = defaults.GenerationTimeout
	}
	if result.ProfileCacheTTL == 0 {
		result.ProfileCacheTTL = defaults.ProfileCacheTTL
	}
	if result.MaxTokens == 0 {
		result.MaxTokens = defaults.MaxTokens
	}
	if result.Port == 0 {
		result.Port = defaults.Port
	}

	if len(result.AllowedOrigins) == 0 && len(defaults.AllowedOrigins) > 0 {
		result.AllowedOrigins = append([]string(nil), defaults.AllowedOrigins...)
	}

	return result
}

func fillString(dst *string, def string) {
	if *dst == "" {
		*dst = def
	}
}
