// Package config holds the gateway configuration. A Config is built once at
// startup and passed by value to the components that need it; nothing reads
// process environment at request time.
package config

import (
	"time"
)

// Config is the root configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

type ServerConfig struct {
	ListenAddress     string        `yaml:"listen_address" validate:"required"`
	AllowedOrigin     string        `yaml:"allowed_origin"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout" validate:"gte=0"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout" validate:"gte=0"`
}

// UpstreamConfig describes the generative-AI API. APIKey is the process-wide
// default credential; a request may override it.
type UpstreamConfig struct {
	APIKey       string `yaml:"api_key"`
	DefaultModel string `yaml:"default_model" validate:"required"`
	// Mock serves scripted output instead of calling the API, for local
	// frontend work.
	Mock bool `yaml:"mock"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=json text"`
}

type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Path      string `yaml:"path" validate:"required_if=Enabled true"`
	Namespace string `yaml:"namespace" validate:"required_if=Enabled true"`
}
