package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/bargo/internal/config"
	"github.com/MeKo-Tech/bargo/internal/version"
)

var (
	// Global configuration loader.
	configLoader *config.Loader
	// Global configuration.
	globalConfig *config.Config
	// Configuration file path.
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "bargo",
	Short: "Barcode recognition and generation toolkit",
	Long: `Decode and generate barcodes from the command line or over HTTP.

This tool provides:
- Barcode recognition from image files, raw base64 and data URLs
- Barcode generation for QR, Code 128, EAN, Data Matrix and more
- PDF scanning with page-range selection
- Both CLI and server modes

Examples:
  bargo decode photo.jpg
  bargo decode scan.pdf --pages 1-3 --format json
  bargo encode "hello" --output qr.png
  bargo serve --port 8080`,
	RunE: func(cmd *cobra.Command, args []string) error {
		v, _ := cmd.PersistentFlags().GetBool("version")
		if v {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "bargo version %s\n", version.Version)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Commit: %s\n", version.GitCommit)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Date: %s\n", version.BuildDate)
			return nil
		}
		// If no version flag, show help
		return cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// GetRootCommand returns the root command for testing purposes.
// This allows tests to execute commands without calling os.Exit().
func GetRootCommand() *cobra.Command {
	return rootCmd
}

func init() {
	// Initialize configuration loader
	cobra.OnInitialize(initConfig)

	// Global flags that apply to all commands
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is search in ., $HOME, $HOME/.config/bargo, /etc/bargo)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output (equivalent to --log-level=debug)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")

	// Version flag for tests and usability
	rootCmd.PersistentFlags().Bool("version", false, "print version information and exit")

	// Bind flags to viper
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		// Initialize configuration if not already done
		if globalConfig == nil {
			initConfig()
		}

		// Determine log level from config
		var logLevel slog.Level

		// Check verbose flag first for backward compatibility
		if globalConfig.Verbose {
			logLevel = slog.LevelDebug
		} else {
			// Parse log-level from config
			switch globalConfig.LogLevel {
			case "debug":
				logLevel = slog.LevelDebug
			case "info":
				logLevel = slog.LevelInfo
			case "warn":
				logLevel = slog.LevelWarn
			case "error":
				logLevel = slog.LevelError
			default:
				logLevel = slog.LevelInfo
			}
		}

		// Set up structured logging
		logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: logLevel,
		}))
		slog.SetDefault(logger)
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	configLoader = config.NewLoader()

	var err error
	if cfgFile != "" {
		// Use config file from the flag
		globalConfig, err = configLoader.LoadWithFile(cfgFile)
	} else {
		// Search for config in default locations
		globalConfig, err = configLoader.Load()
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
}

// GetConfig returns the global configuration.
func GetConfig() *config.Config {
	if globalConfig == nil {
		initConfig()
	}

	// Reload configuration to ensure CLI flags are included
	// This is necessary because flag binding happens after initial config loading
	loader := GetConfigLoader()
	var cfg config.Config
	if err := loader.Viper().Unmarshal(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error unmarshaling updated configuration: %v\n", err)
		return globalConfig // Return the original config if unmarshal fails
	}

	return &cfg
}

// GetConfigLoader returns the global configuration loader.
func GetConfigLoader() *config.Loader {
	if configLoader == nil {
		configLoader = config.NewLoader()
	}
	return configLoader
}
