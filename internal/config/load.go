package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// LookupFunc resolves an environment variable. os.LookupEnv satisfies it.
type LookupFunc func(key string) (string, bool)

// Load builds the configuration from an optional YAML file, a .env file in the
// working directory and the process environment, in increasing precedence.
func Load(path string) (Config, error) {
	return LoadFrom(path, ".env", os.LookupEnv)
}

// LoadFrom is Load with explicit sources. An empty path skips the YAML file;
// a missing envFile is ignored.
func LoadFrom(path, envFile string, lookup LookupFunc) (Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read configuration file %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
		}
	}

	dotenv := map[string]string{}
	if envFile != "" {
		m, err := godotenv.Read(envFile)
		switch {
		case err == nil:
			dotenv = m
		case errors.Is(err, fs.ErrNotExist):
		default:
			return Config{}, fmt.Errorf("failed to read env file %q: %w", envFile, err)
		}
	}
	env := func(key string) (string, bool) {
		if lookup != nil {
			if v, ok := lookup(key); ok {
				return v, true
			}
		}
		v, ok := dotenv[key]
		return v, ok
	}

	ApplyDefaults(&cfg)
	if err := applyEnvOverrides(&cfg, env); err != nil {
		return Config{}, err
	}
	if err := Validate(cfg); err != nil {
		return Config{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config, env LookupFunc) error {
	get := func(key string) string {
		v, _ := env(key)
		return strings.TrimSpace(v)
	}

	if v := get("PORT"); v != "" {
		cfg.Server.ListenAddress = ":" + v
	}
	if v := get("GATEWAY_LISTEN_ADDRESS"); v != "" {
		cfg.Server.ListenAddress = v
	}
	if v := get("GATEWAY_ALLOWED_ORIGIN"); v != "" {
		cfg.Server.AllowedOrigin = v
	}
	// GEMINI_API_KEY wins over the older GOOGLE_API_KEY name.
	if v := get("GOOGLE_API_KEY"); v != "" {
		cfg.Upstream.APIKey = v
	}
	if v := get("GEMINI_API_KEY"); v != "" {
		cfg.Upstream.APIKey = v
	}
	if v := get("LLM_MODEL"); v != "" {
		cfg.Upstream.DefaultModel = v
	}
	if v := get("GATEWAY_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := get("GATEWAY_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := get("GATEWAY_MOCK_UPSTREAM"); v != "" {
		mock, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid GATEWAY_MOCK_UPSTREAM %q: %w", v, err)
		}
		cfg.Upstream.Mock = mock
	}
	if v := get("GATEWAY_METRICS_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid GATEWAY_METRICS_ENABLED %q: %w", v, err)
		}
		cfg.Metrics.Enabled = enabled
	}
	return nil
}
