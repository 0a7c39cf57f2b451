package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/bargo/internal/server"
)

// serveCmd represents the serve command.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP server for the barcode API",
	Long: `Start an HTTP server that provides REST API endpoints for barcode processing.

The server provides the following endpoints:
  POST /decode     - Recognize barcodes in uploaded or referenced images
  POST /decode/pdf - Recognize barcodes in uploaded PDF documents
  POST /encode     - Generate barcode images
  GET  /health     - Health check endpoint
  GET  /formats    - List supported barcode formats
  GET  /metrics    - Prometheus metrics
  WS   /decode/ws  - Streaming decode over websocket

Examples:
  bargo serve
  bargo serve --port 8080
  bargo serve --host 0.0.0.0 --port 3000 --rate-limit-enabled`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Get configuration from centralized system (includes CLI flags, config file, env vars, and defaults)
		cfg := GetConfig()

		// Extract server configuration with CLI flag overrides
		host := cfg.Server.Host
		if cmd.Flags().Changed("host") {
			host, _ = cmd.Flags().GetString("host")
		}

		port := cfg.Server.Port
		if cmd.Flags().Changed("port") {
			port, _ = cmd.Flags().GetInt("port")
		}

		corsOrigin := cfg.Server.CORSOrigin
		if cmd.Flags().Changed("cors-origin") {
			corsOrigin, _ = cmd.Flags().GetString("cors-origin")
		}

		maxUploadSize := cfg.Server.MaxUploadMB
		if cmd.Flags().Changed("max-upload-size") {
			maxUploadSize, _ = cmd.Flags().GetInt("max-upload-size")
		}

		timeout := cfg.Server.TimeoutSec
		if cmd.Flags().Changed("timeout") {
			timeout, _ = cmd.Flags().GetInt("timeout")
		}

		shutdownTimeout := cfg.Server.ShutdownTimeout
		if cmd.Flags().Changed("shutdown-timeout") {
			shutdownTimeout, _ = cmd.Flags().GetInt("shutdown-timeout")
		}

		// Extract rate limiting configuration
		rateLimitEnabled := cfg.Server.RateLimitEnabled
		if cmd.Flags().Changed("rate-limit-enabled") {
			rateLimitEnabled, _ = cmd.Flags().GetBool("rate-limit-enabled")
		}

		rateLimitPerMinute := cfg.Server.RateLimitPerMinute
		if cmd.Flags().Changed("rate-limit-per-minute") {
			rateLimitPerMinute, _ = cmd.Flags().GetInt("rate-limit-per-minute")
		}

		// Validate port number
		if port < 1 || port > 65535 {
			return fmt.Errorf("invalid port number: %d (must be between 1 and 65535)", port)
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		serverConfig := server.Config{
			Host:        host,
			Port:        port,
			CORSOrigin:  corsOrigin,
			MaxUploadMB: int64(maxUploadSize),
			TimeoutSec:  timeout,
		}
		if rateLimitEnabled {
			serverConfig.RateLimitPerMinute = rateLimitPerMinute
		}

		barcodeServer := server.NewServer(serverConfig)

		mux := http.NewServeMux()
		barcodeServer.SetupRoutes(mux)

		httpServer := &http.Server{
			Addr:              fmt.Sprintf("%s:%d", host, port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       time.Duration(timeout) * time.Second,
			WriteTimeout:      time.Duration(timeout) * time.Second,
		}

		go func() {
			slog.Info("Starting barcode server", "host", host, "port", port)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("Server error", "error", err)
				cancel()
			}
		}()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

		select {
		case sig := <-sigChan:
			slog.Info("Received shutdown signal", "signal", sig.String())
		case <-ctx.Done():
			slog.Info("Context cancelled, initiating shutdown")
		}

		slog.Info("Starting graceful shutdown", "timeout", fmt.Sprintf("%ds", shutdownTimeout))

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Duration(shutdownTimeout)*time.Second)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("HTTP server shutdown error", "error", err)
		} else {
			slog.Info("HTTP server shutdown completed")
		}

		slog.Info("Graceful shutdown completed")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("host", "H", "localhost", "server host")
	serveCmd.Flags().IntP("port", "p", 8080, "server port")
	serveCmd.Flags().String("cors-origin", "*", "CORS allowed origins")
	serveCmd.Flags().Int("max-upload-size", 50, "maximum upload size in MB")
	serveCmd.Flags().Int("timeout", 30, "request timeout in seconds")
	serveCmd.Flags().Int("shutdown-timeout", 10, "shutdown timeout in seconds")
	// Rate limiting flags
	serveCmd.Flags().Bool("rate-limit-enabled", false, "enable rate limiting")
	serveCmd.Flags().Int("rate-limit-per-minute", 120, "maximum requests per minute per client")
}
