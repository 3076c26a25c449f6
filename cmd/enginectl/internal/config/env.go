package config

import (
	"fmt"
	"strconv"
	"strings"
)

// envSetters maps an override key, the variable name without EnvPrefix, to
// the field it sets.
var envSetters = map[string]func(*Config, string) error{
	"NAME":                    func(c *Config, v string) error { c.Name = v; return nil },
	"APP__ENV":                func(c *Config, v string) error { c.App.Env = v; return nil },
	"LOGGING__LEVEL":          func(c *Config, v string) error { c.Logging.Level = v; return nil },
	"ENGINE__ENDPOINT":        func(c *Config, v string) error { c.Engine.Endpoint = v; return nil },
	"ENGINE__TOKEN":           func(c *Config, v string) error { c.Engine.Token = v; return nil },
	"ENGINE__VERIFY_TLS":      boolSetter(func(c *Config) *bool { return &c.Engine.VerifyTLS }),
	"ENGINE__TIMEOUT":         floatSetter(func(c *Config) *float64 { return &c.Engine.Timeout }),
	"ENGINE__HEALTH_TIMEOUT":  floatSetter(func(c *Config) *float64 { return &c.Engine.HealthTimeout }),
	"ENGINE__MAX_RETRIES":     intSetter(func(c *Config) *int { return &c.Engine.MaxRetries }),
	"TELEMETRY__ENABLED":      boolSetter(func(c *Config) *bool { return &c.Telemetry.Enabled }),
	"TELEMETRY__SERVICE_NAME": func(c *Config, v string) error { c.Telemetry.ServiceName = v; return nil },
	"TELEMETRY__SAMPLE_RATIO": floatSetter(func(c *Config) *float64 { return &c.Telemetry.SampleRatio }),
}

const envTokensPrefix = "ENGINE__TOKENS__"

// applyEnv applies the ENGINECTL_ overrides in env. Keys are matched
// case-insensitively; unknown keys are ignored.
func (c *Config) applyEnv(env map[string]string) error {
	for name, value := range env {
		upper := strings.ToUpper(name)
		if !strings.HasPrefix(upper, EnvPrefix) || upper == EnvConfig {
			continue
		}
		key := strings.TrimPrefix(upper, EnvPrefix)

		if tok, ok := strings.CutPrefix(key, envTokensPrefix); ok && tok != "" {
			if c.Engine.Tokens == nil {
				c.Engine.Tokens = make(map[string]string)
			}
			c.Engine.Tokens[strings.ToLower(tok)] = value
			continue
		}

		set, ok := envSetters[key]
		if !ok {
			continue
		}
		if err := set(c, value); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

func boolSetter(field func(*Config) *bool) func(*Config, string) error {
	return func(c *Config, v string) error {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return err
		}
		*field(c) = b
		return nil
	}
}

func intSetter(field func(*Config) *int) func(*Config, string) error {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return err
		}
		*field(c) = n
		return nil
	}
}

func floatSetter(field func(*Config) *float64) func(*Config, string) error {
	return func(c *Config, v string) error {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return err
		}
		*field(c) = f
		return nil
	}
}

// parseEnviron turns KEY=value entries into a map. Later entries win.
func parseEnviron(environ []string) map[string]string {
	env := make(map[string]string, len(environ))
	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		env[k] = v
	}
	return env
}
