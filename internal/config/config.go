// Package config defines the application configuration and loads it
// from files, environment variables and flag bindings.
package config

import (
	"fmt"
	"strings"
)

// Config is the complete configuration of the bargo tool: decode and
// encode defaults for the CLI plus settings for the HTTP server. It
// loads from configuration files, BARGO_* environment variables and
// command-line flags, in ascending precedence.
type Config struct {
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	Decode DecodeConfig `mapstructure:"decode" yaml:"decode" json:"decode"`
	Encode EncodeConfig `mapstructure:"encode" yaml:"encode" json:"encode"`
	Output OutputConfig `mapstructure:"output" yaml:"output" json:"output"`
	Server ServerConfig `mapstructure:"server" yaml:"server" json:"server"`
	PDF    PDFConfig    `mapstructure:"pdf" yaml:"pdf" json:"pdf"`
}

// DecodeConfig holds recognition defaults.
type DecodeConfig struct {
	TryHarder    bool   `mapstructure:"try_harder" yaml:"try_harder" json:"try_harder"`
	Multi        bool   `mapstructure:"multi" yaml:"multi" json:"multi"`
	Formats      string `mapstructure:"formats" yaml:"formats" json:"formats"`
	PureBarcode  bool   `mapstructure:"pure_barcode" yaml:"pure_barcode" json:"pure_barcode"`
	CharacterSet string `mapstructure:"character_set" yaml:"character_set" json:"character_set"`
	AlsoInverted bool   `mapstructure:"also_inverted" yaml:"also_inverted" json:"also_inverted"`
}

// EncodeConfig holds generation defaults. Margin -1 keeps the engine's
// per-symbology quiet zone.
type EncodeConfig struct {
	Format          string `mapstructure:"format" yaml:"format" json:"format"`
	Width           int    `mapstructure:"width" yaml:"width" json:"width"`
	Height          int    `mapstructure:"height" yaml:"height" json:"height"`
	Margin          int    `mapstructure:"margin" yaml:"margin" json:"margin"`
	ErrorCorrection string `mapstructure:"error_correction" yaml:"error_correction" json:"error_correction"`
	ImageFormat     string `mapstructure:"image_format" yaml:"image_format" json:"image_format"`
	JPEGQuality     int    `mapstructure:"jpeg_quality" yaml:"jpeg_quality" json:"jpeg_quality"`
}

// OutputConfig holds CLI output settings.
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format" json:"format"`
	File   string `mapstructure:"file" yaml:"file" json:"file"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string `mapstructure:"host" yaml:"host" json:"host"`
	Port            int    `mapstructure:"port" yaml:"port" json:"port"`
	CORSOrigin      string `mapstructure:"cors_origin" yaml:"cors_origin" json:"cors_origin"`
	MaxUploadMB     int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb" json:"max_upload_mb"`
	TimeoutSec      int    `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" json:"shutdown_timeout"`

	RateLimitEnabled   bool `mapstructure:"rate_limit_enabled" yaml:"rate_limit_enabled" json:"rate_limit_enabled"`
	RateLimitPerMinute int  `mapstructure:"rate_limit_per_minute" yaml:"rate_limit_per_minute" json:"rate_limit_per_minute"`
}

// PDFConfig holds document scanning settings.
type PDFConfig struct {
	Pages string `mapstructure:"pages" yaml:"pages" json:"pages"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
		Decode: DecodeConfig{
			TryHarder: false,
			Multi:     false,
		},
		Encode: EncodeConfig{
			Format:      "qr",
			Width:       0,
			Height:      0,
			Margin:      -1,
			ImageFormat: "jpeg",
			JPEGQuality: 90,
		},
		Output: OutputConfig{
			Format: "text",
		},
		Server: ServerConfig{
			Host:               "localhost",
			Port:               8080,
			CORSOrigin:         "*",
			MaxUploadMB:        50,
			TimeoutSec:         30,
			ShutdownTimeout:    10,
			RateLimitEnabled:   false,
			RateLimitPerMinute: 120,
		},
	}
}

// Validate checks field values that have a closed set of valid inputs.
// Format names and charsets are validated where they are used, so an
// unused bad default does not block unrelated commands.
func (c *Config) Validate() error {
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q (debug, info, warn, error)", c.LogLevel)
	}

	switch strings.ToLower(c.Output.Format) {
	case "text", "json", "csv":
	default:
		return fmt.Errorf("invalid output format %q (text, json, csv)", c.Output.Format)
	}

	if c.Encode.Width < 0 {
		return fmt.Errorf("encode width %d is negative", c.Encode.Width)
	}
	if c.Encode.Height < 0 {
		return fmt.Errorf("encode height %d is negative", c.Encode.Height)
	}
	if c.Encode.Margin < -1 {
		return fmt.Errorf("encode margin %d is invalid (-1 keeps the engine default)", c.Encode.Margin)
	}
	if c.Encode.JPEGQuality < 0 || c.Encode.JPEGQuality > 100 {
		return fmt.Errorf("jpeg quality %d is not in 1..100", c.Encode.JPEGQuality)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d is out of range", c.Server.Port)
	}
	if c.Server.MaxUploadMB < 1 {
		return fmt.Errorf("max upload size %d MB is too small", c.Server.MaxUploadMB)
	}
	if c.Server.TimeoutSec < 1 {
		return fmt.Errorf("server timeout %d s is too small", c.Server.TimeoutSec)
	}
	if c.Server.ShutdownTimeout < 1 {
		return fmt.Errorf("shutdown timeout %d s is too small", c.Server.ShutdownTimeout)
	}
	if c.Server.RateLimitEnabled && c.Server.RateLimitPerMinute < 1 {
		return fmt.Errorf("rate limit %d/min is too small", c.Server.RateLimitPerMinute)
	}
	return nil
}
