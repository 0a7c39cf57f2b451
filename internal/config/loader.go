package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the base name of configuration files, without
	// extension.
	ConfigFileName = "bargo"

	// EnvPrefix is the prefix of environment variables, so
	// server.port becomes BARGO_SERVER_PORT.
	EnvPrefix = "BARGO"
)

// Loader reads configuration from files, the environment and bound
// flags through a single viper instance.
type Loader struct {
	v *viper.Viper
}

// NewLoader returns a loader on the global viper instance, which is
// the one cobra flag bindings attach to.
func NewLoader() *Loader {
	return &Loader{v: viper.GetViper()}
}

// NewLoaderWith returns a loader on a private viper instance, useful
// in tests that must not share global state.
func NewLoaderWith(v *viper.Viper) *Loader {
	return &Loader{v: v}
}

// Load reads configuration from the search paths and environment,
// applies defaults and validates the result. A missing config file is
// fine; a malformed one is not.
func (l *Loader) Load() (*Config, error) {
	l.v.SetConfigName(ConfigFileName)
	l.v.SetConfigType("yaml")
	l.addConfigPaths()
	l.setupEnvironment()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}
	return l.finish()
}

// LoadWithFile reads configuration from an explicit file instead of
// the search paths. The file must exist.
func (l *Loader) LoadWithFile(configFile string) (*Config, error) {
	if configFile == "" {
		return l.Load()
	}
	if _, err := os.Stat(configFile); err != nil {
		return nil, fmt.Errorf("config file %s: %w", configFile, err)
	}

	l.v.SetConfigFile(configFile)
	l.setupEnvironment()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config file %s: %w", configFile, err)
	}
	return l.finish()
}

func (l *Loader) finish() (*Config, error) {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

// ConfigFileUsed returns the path of the file the configuration was
// read from, if any.
func (l *Loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// Viper exposes the underlying instance for flag binding.
func (l *Loader) Viper() *viper.Viper {
	return l.v
}

// WriteDefault writes a config file populated with the defaults,
// as a starting point for editing.
func WriteDefault(filename string) error {
	if filename == "" {
		filename = ConfigFileName + ".yaml"
	}
	v := viper.New()
	l := &Loader{v: v}
	l.setDefaults()
	return v.WriteConfigAs(filename)
}

// SearchPaths lists where config files are looked for, in order.
func SearchPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, home, filepath.Join(home, ".config", "bargo"))
	}
	if xdg, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok {
		paths = append(paths, filepath.Join(xdg, "bargo"))
	}
	return append(paths, "/etc/bargo")
}

func (l *Loader) addConfigPaths() {
	for _, p := range SearchPaths() {
		l.v.AddConfigPath(p)
	}
}

func (l *Loader) setupEnvironment() {
	l.v.SetEnvPrefix(EnvPrefix)
	l.v.AutomaticEnv()
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}

func (l *Loader) setDefaults() {
	d := DefaultConfig()

	l.v.SetDefault("log_level", d.LogLevel)
	l.v.SetDefault("verbose", d.Verbose)

	l.v.SetDefault("decode.try_harder", d.Decode.TryHarder)
	l.v.SetDefault("decode.multi", d.Decode.Multi)
	l.v.SetDefault("decode.formats", d.Decode.Formats)
	l.v.SetDefault("decode.pure_barcode", d.Decode.PureBarcode)
	l.v.SetDefault("decode.character_set", d.Decode.CharacterSet)
	l.v.SetDefault("decode.also_inverted", d.Decode.AlsoInverted)

	l.v.SetDefault("encode.format", d.Encode.Format)
	l.v.SetDefault("encode.width", d.Encode.Width)
	l.v.SetDefault("encode.height", d.Encode.Height)
	l.v.SetDefault("encode.margin", d.Encode.Margin)
	l.v.SetDefault("encode.error_correction", d.Encode.ErrorCorrection)
	l.v.SetDefault("encode.image_format", d.Encode.ImageFormat)
	l.v.SetDefault("encode.jpeg_quality", d.Encode.JPEGQuality)

	l.v.SetDefault("output.format", d.Output.Format)
	l.v.SetDefault("output.file", d.Output.File)

	l.v.SetDefault("server.host", d.Server.Host)
	l.v.SetDefault("server.port", d.Server.Port)
	l.v.SetDefault("server.cors_origin", d.Server.CORSOrigin)
	l.v.SetDefault("server.max_upload_mb", d.Server.MaxUploadMB)
	l.v.SetDefault("server.timeout_sec", d.Server.TimeoutSec)
	l.v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
	l.v.SetDefault("server.rate_limit_enabled", d.Server.RateLimitEnabled)
	l.v.SetDefault("server.rate_limit_per_minute", d.Server.RateLimitPerMinute)

	l.v.SetDefault("pdf.pages", d.PDF.Pages)
}
