// Package config loads the server configuration.
//
// Values are layered with koanf: built-in defaults, then an optional YAML
// file, then STAC_ prefixed environment variables. The file is taken from
// STAC_CONFIG, or the first of DefaultConfigPaths that exists.
//
//	STAC_SERVER_ADDR=:9000            -> server.addr
//	STAC_PAGINATION_MAX_LIMIT=500     -> pagination.max_limit
//	STAC_AUTH_TOKENS=secret1,secret2  -> auth.tokens
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/robert-malhotra/go-stac-api/internal/validation"
	"github.com/robert-malhotra/go-stac-api/pkg/pagination"
	"github.com/robert-malhotra/go-stac-api/pkg/render"
)

// EnvPrefix prefixes every configuration environment variable.
const EnvPrefix = "STAC_"

// ConfigPathEnvVar names the variable holding an explicit config file path.
const ConfigPathEnvVar = "STAC_CONFIG"

// DefaultConfigPaths are searched in order when STAC_CONFIG is not set.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/stac-api/config.yaml",
}

// Config is the complete server configuration.
type Config struct {
	Server     ServerConfig      `koanf:"server"`
	Pagination pagination.Config `koanf:"pagination"`
	Store      StoreConfig       `koanf:"store"`
	Auth       AuthConfig        `koanf:"auth"`
	CORS       CORSConfig        `koanf:"cors"`
	RateLimit  RateLimitConfig   `koanf:"rate_limit"`
	Logging    LoggingConfig     `koanf:"logging"`
	Landing    LandingConfig     `koanf:"landing"`
	Assets     AssetsConfig      `koanf:"assets"`
}

// ServerConfig configures the HTTP listener and response behaviour.
type ServerConfig struct {
	Addr    string `koanf:"addr" validate:"required"`
	APIBase string `koanf:"api_base"`
	// Debug with DebugPropagateAPIErrors off renders internal faults as a
	// plain text diagnostic page.
	Debug                   bool          `koanf:"debug"`
	DebugPropagateAPIErrors bool          `koanf:"debug_propagate_api_errors"`
	ReadTimeout             time.Duration `koanf:"read_timeout"`
	WriteTimeout            time.Duration `koanf:"write_timeout"`
	ShutdownTimeout         time.Duration `koanf:"shutdown_timeout"`
	CacheMaxAge             int           `koanf:"cache_max_age" validate:"min=0"`
}

// StoreConfig selects the persistence driver.
type StoreConfig struct {
	Driver string `koanf:"driver" validate:"oneof=memory badger"`
	Path   string `koanf:"path" validate:"required_if=Driver badger"`
}

// AuthConfig lists the tokens accepted on write requests. Writes are open
// when the list is empty.
type AuthConfig struct {
	Tokens []string `koanf:"tokens"`
}

// CORSConfig configures cross-origin access.
type CORSConfig struct {
	AllowedOrigins []string `koanf:"allowed_origins"`
}

// RateLimitConfig limits requests per client IP. Zero disables the limit.
type RateLimitConfig struct {
	RequestsPerMinute int `koanf:"requests_per_minute" validate:"min=0"`
}

// LoggingConfig configures the global logger.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// LandingConfig holds the landing page identity.
type LandingConfig struct {
	ID          string `koanf:"id" validate:"required"`
	Title       string `koanf:"title"`
	Description string `koanf:"description" validate:"required"`
}

// AssetsConfig configures the optional object storage check of assets.
type AssetsConfig struct {
	S3Check   bool   `koanf:"s3_check"`
	Bucket    string `koanf:"bucket" validate:"required_if=S3Check true"`
	Region    string `koanf:"region"`
	Endpoint  string `koanf:"endpoint" validate:"omitempty,url"`
	PathStyle bool   `koanf:"path_style"`
	// Static keys, mostly for S3 compatible endpoints. The default AWS
	// credential chain is used when AccessKeyID is empty.
	AccessKeyID     string `koanf:"access_key_id"`
	SecretAccessKey string `koanf:"secret_access_key" validate:"required_with=AccessKeyID"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8000",
			APIBase:         render.DefaultAPIBase,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			CacheMaxAge:     600,
		},
		Pagination: pagination.DefaultConfig(),
		Store:      StoreConfig{Driver: "memory"},
		Auth:       AuthConfig{Tokens: []string{}},
		CORS:       CORSConfig{AllowedOrigins: []string{"*"}},
		Logging:    LoggingConfig{Level: "info", Format: "json"},
		Landing: LandingConfig{
			ID:          "ch",
			Title:       "data.geo.admin.ch",
			Description: "Data Catalog of the Swiss Federal Spatial Data Infrastructure",
		},
		Assets: AssetsConfig{Region: "eu-central-1"},
	}
}

// Load reads the configuration from defaults, the config file and the
// environment, then validates it. An explicit path overrides the search.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envValueFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration values.
func (c *Config) Validate() error {
	return validation.Struct(c)
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		return p
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// sections are the top level keys, longest first so that rate_limit wins
// over a hypothetical "rate" section.
var sections = []string{
	"rate_limit",
	"pagination",
	"logging",
	"landing",
	"server",
	"assets",
	"store",
	"auth",
	"cors",
}

// envTransformFunc maps STAC_SERVER_CACHE_MAX_AGE to server.cache_max_age.
// Variables outside a known section are ignored.
func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	for _, s := range sections {
		if strings.HasPrefix(key, s+"_") {
			return s + "." + strings.TrimPrefix(key, s+"_")
		}
	}
	return ""
}

// listKeys hold comma separated values in the environment.
var listKeys = map[string]bool{
	"auth.tokens":          true,
	"cors.allowed_origins": true,
}

// envValueFunc maps a variable to its key and splits list values.
func envValueFunc(key, value string) (string, any) {
	key = envTransformFunc(key)
	if !listKeys[key] {
		return key, value
	}
	return key, splitList(value)
}

func splitList(value string) []string {
	result := []string{}
	for _, item := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
