// Package config loads the enginectl configuration.
//
// Settings come from a YAML file and are then overridden by environment
// variables prefixed with ENGINECTL_. Nested keys are joined with "__":
//
//	ENGINECTL_ENGINE__ENDPOINT=https://engine.example.com
//	ENGINECTL_ENGINE__TOKEN=...
//	ENGINECTL_ENGINE__TOKENS__ADMIN=...
//	ENGINECTL_LOGGING__LEVEL=debug
//
// The file is the --config flag value, else $ENGINECTL_CONFIG, else
// config.yaml under os.UserConfigDir()/enginectl when it exists.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/haivivi/enginectl/pkg/engine"
	"github.com/haivivi/enginectl/pkg/telemetry"
)

const (
	// EnvPrefix prefixes every environment override.
	EnvPrefix = "ENGINECTL_"

	// EnvConfig names the configuration file when --config is not given.
	EnvConfig = EnvPrefix + "CONFIG"

	// appDir is the directory name under os.UserConfigDir().
	appDir = "enginectl"

	// configFile is the default configuration filename.
	configFile = "config.yaml"
)

// ErrIncomplete is returned by Validate when the engine endpoint or token
// is missing.
var ErrIncomplete = errors.New("Engine endpoint and token must be configured.")

// Config is the enginectl configuration.
type Config struct {
	Name      string          `yaml:"name"`
	App       AppConfig       `yaml:"app"`
	Logging   LoggingConfig   `yaml:"logging"`
	Engine    EngineConfig    `yaml:"engine"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Path is the file the configuration was read from; empty when only
	// defaults and environment were used.
	Path string `yaml:"-"`
}

// AppConfig holds application-wide settings.
type AppConfig struct {
	Env string `yaml:"env"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`
}

// EngineConfig holds the engine backend connection settings.
type EngineConfig struct {
	Endpoint string `yaml:"endpoint"`
	Token    string `yaml:"token"`
	// Tokens are named credentials preferred by individual endpoints.
	Tokens    map[string]string `yaml:"tokens,omitempty"`
	VerifyTLS bool              `yaml:"verify_tls"`
	// Timeout and HealthTimeout are in seconds.
	Timeout       float64 `yaml:"timeout"`
	HealthTimeout float64 `yaml:"health_timeout"`
	MaxRetries    int     `yaml:"max_retries"`
}

// TelemetryConfig holds tracing settings.
type TelemetryConfig struct {
	Enabled     bool    `yaml:"enabled"`
	ServiceName string  `yaml:"service_name"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		Name:    "enginectl",
		App:     AppConfig{Env: "dev"},
		Logging: LoggingConfig{Level: "info"},
		Engine: EngineConfig{
			Timeout:       engine.DefaultTimeout.Seconds(),
			HealthTimeout: engine.DefaultHealthTimeout.Seconds(),
		},
		Telemetry: TelemetryConfig{
			ServiceName: telemetry.DefaultServiceName,
			SampleRatio: 1,
		},
	}
}

// DefaultPath returns the default configuration file path.
func DefaultPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine config directory: %w", err)
	}
	return filepath.Join(base, appDir, configFile), nil
}

// Load loads the configuration using the process environment. path is the
// --config flag value and may be empty.
func Load(path string) (*Config, error) {
	return LoadWithEnv(path, os.Environ())
}

// LoadWithEnv loads the configuration using environ, a list of KEY=value
// entries, in place of the process environment.
func LoadWithEnv(path string, environ []string) (*Config, error) {
	env := parseEnviron(environ)

	explicit := path != ""
	if !explicit {
		if p := env[EnvConfig]; p != "" {
			path, explicit = p, true
		}
	}
	if !explicit {
		p, err := DefaultPath()
		if err == nil {
			path = p
		}
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
			cfg.Path = path
		case errors.Is(err, os.ErrNotExist) && !explicit:
			// No default file; defaults and environment only.
		default:
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := cfg.applyEnv(env); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the engine endpoint and token are set.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Engine.Endpoint) == "" || strings.TrimSpace(c.Engine.Token) == "" {
		return ErrIncomplete
	}
	return nil
}

// SlogLevel returns the configured log level.
func (c *Config) SlogLevel() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.Logging.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid logging.level %q", c.Logging.Level)
	}
	return l, nil
}

// ClientOptions returns the engine client options for this configuration.
func (c *Config) ClientOptions() []engine.Option {
	tokens := make(map[engine.TokenName]string, len(c.Engine.Tokens))
	for k, v := range c.Engine.Tokens {
		tokens[engine.TokenName(strings.ToLower(k))] = v
	}
	opts := []engine.Option{
		engine.WithTokens(tokens),
		engine.WithInsecureSkipVerify(!c.Engine.VerifyTLS),
		engine.WithRetry(c.Engine.MaxRetries),
	}
	if c.Engine.Timeout > 0 {
		opts = append(opts, engine.WithTimeout(seconds(c.Engine.Timeout)))
	}
	if c.Engine.HealthTimeout > 0 {
		opts = append(opts, engine.WithHealthTimeout(seconds(c.Engine.HealthTimeout)))
	}
	return opts
}

// TracingConfig returns the tracing configuration.
func (c *Config) TracingConfig() telemetry.Config {
	return telemetry.Config{
		Enabled:     c.Telemetry.Enabled,
		ServiceName: c.Telemetry.ServiceName,
		SampleRatio: c.Telemetry.SampleRatio,
	}
}

// Masked returns a copy with every token masked for display.
func (c *Config) Masked() *Config {
	out := *c
	out.Engine.Token = MaskToken(c.Engine.Token)
	if c.Engine.Tokens != nil {
		out.Engine.Tokens = make(map[string]string, len(c.Engine.Tokens))
		for k, v := range c.Engine.Tokens {
			out.Engine.Tokens[k] = MaskToken(v)
		}
	}
	return &out
}

// YAML encodes the configuration.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}

// MaskToken masks a token for display. Tokens of up to eight characters
// are fully masked; longer ones keep a quarter of their length, at most
// four characters, at each end.
func MaskToken(token string) string {
	r := []rune(token)
	if len(r) <= 8 {
		return strings.Repeat("*", len(r))
	}
	keep := min(len(r)/4, 4)
	return string(r[:keep]) + strings.Repeat("*", len(r)-2*keep) + string(r[len(r)-keep:])
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
