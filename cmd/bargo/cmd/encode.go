package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/bargo"
)

// encodeCmd represents the encode command.
var encodeCmd = &cobra.Command{
	Use:   "encode [text]",
	Short: "Generate a barcode image from text",
	Long: `Render the given text as a barcode image.

The image is written to the --output file when one is given, otherwise
the raw image bytes go to stdout for piping. Logs always go to stderr,
so piping stays safe.

Examples:
  bargo encode "hello world" --output qr.png
  bargo encode "4006381333931" -f ean13 -o label.png
  bargo encode "WIFI:S:mynet;P:secret;;" --error-correction H > wifi.jpg`,
	Args:         cobra.ArbitraryArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Help handling for tests
		if len(args) > 0 && (args[0] == "--help" || args[0] == "-h") {
			return cmd.Help()
		}
		if len(args) == 0 {
			return errors.New("no content provided")
		}
		if len(args) > 1 {
			return fmt.Errorf("expected one content argument, got %d (quote text containing spaces)", len(args))
		}

		// Get configuration (includes CLI flags, config file, env vars, and defaults)
		cfg := GetConfig()

		// The output path comes straight from the flag. Binding it to
		// output.file would fight with the decode command over the key.
		outputFile, _ := cmd.Flags().GetString("output")

		opts := &bargo.EncodeOptions{
			Width:           cfg.Encode.Width,
			Height:          cfg.Encode.Height,
			ErrorCorrection: cfg.Encode.ErrorCorrection,
			ImageFormat:     cfg.Encode.ImageFormat,
			JPEGQuality:     cfg.Encode.JPEGQuality,
			OutputFile:      outputFile,
		}
		if cfg.Encode.Format != "" {
			format, err := bargo.ParseFormat(cfg.Encode.Format)
			if err != nil {
				return err
			}
			opts.Format = format
		}
		// Margin -1 keeps the symbology's own quiet zone.
		if cfg.Encode.Margin >= 0 {
			margin := cfg.Encode.Margin
			opts.Margin = &margin
		}

		// Symbology details beyond the config file come straight from flags.
		opts.CharacterSet, _ = cmd.Flags().GetString("charset")
		opts.QRVersion, _ = cmd.Flags().GetInt("qr-version")
		opts.AztecLayers, _ = cmd.Flags().GetInt("aztec-layers")
		opts.GS1Format, _ = cmd.Flags().GetBool("gs1")
		opts.DataMatrixCompact, _ = cmd.Flags().GetBool("datamatrix-compact")
		opts.Code128Compact, _ = cmd.Flags().GetBool("code128-compact")
		opts.ForceCodeSet, _ = cmd.Flags().GetString("force-code-set")
		opts.ForceC40, _ = cmd.Flags().GetBool("force-c40")
		if mask, _ := cmd.Flags().GetInt("qr-mask"); mask >= 0 {
			opts.QRMaskPattern = &mask
		}

		data, err := bargo.Encode(args[0], opts)
		if err != nil {
			return fmt.Errorf("encode failed: %w", err)
		}

		if opts.OutputFile != "" {
			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "Barcode written to %s (%d bytes)\n", opts.OutputFile, len(data)); err != nil {
				return err
			}
			return nil
		}
		if _, err := cmd.OutOrStdout().Write(data); err != nil {
			return fmt.Errorf("failed to write image to stdout: %w", err)
		}
		return nil
	},
}

func addEncodeFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("format", "f", "qr", "barcode symbology (e.g. qr, code128, ean13, datamatrix)")
	cmd.Flags().StringP("output", "o", "", "output file (default: raw bytes to stdout)")
	cmd.Flags().Int("width", 0, "image width in pixels (0 = 200)")
	cmd.Flags().Int("height", 0, "image height in pixels (0 = width)")
	cmd.Flags().Int("margin", -1, "quiet zone in modules (-1 = symbology default)")
	cmd.Flags().String("error-correction", "", "QR error correction level (L, M, Q, H)")
	cmd.Flags().String("image-format", "jpeg", "image codec (jpeg, png, bmp, tiff)")
	cmd.Flags().Int("quality", 90, "JPEG quality (1-100)")
	cmd.Flags().String("charset", "", "character set for the content (IANA name)")
	cmd.Flags().Int("qr-version", 0, "force QR version 1-40 (0 = smallest that fits)")
	cmd.Flags().Int("qr-mask", -1, "force QR mask pattern 0-7 (-1 = automatic)")
	cmd.Flags().Int("aztec-layers", 0, "force Aztec layers, 1-32 full or -1..-4 compact (0 = automatic)")
	cmd.Flags().Bool("gs1", false, "mark the content as GS1 formatted")
	cmd.Flags().Bool("datamatrix-compact", false, "use compact Data Matrix encoding")
	cmd.Flags().Bool("code128-compact", false, "use compact Code 128 encoding")
	cmd.Flags().String("force-code-set", "", "force Code 128 code set (A, B or C)")
	cmd.Flags().Bool("force-c40", false, "force Data Matrix C40 encoding mode")
}

// bindEncodeFlags binds all flags to viper configuration keys.
func bindEncodeFlags(cmd *cobra.Command) {
	flagBindings := []struct {
		key  string
		flag string
	}{
		{"encode.format", "format"},
		{"encode.width", "width"},
		{"encode.height", "height"},
		{"encode.margin", "margin"},
		{"encode.error_correction", "error-correction"},
		{"encode.image_format", "image-format"},
		{"encode.jpeg_quality", "quality"},
	}

	for _, binding := range flagBindings {
		if err := viper.BindPFlag(binding.key, cmd.Flags().Lookup(binding.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", binding.flag, err))
		}
	}
}

func init() {
	rootCmd.AddCommand(encodeCmd)

	addEncodeFlags(encodeCmd)
	bindEncodeFlags(encodeCmd)

	// Ensure subcommand help prints expected sections when executed directly in tests
	encodeCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		if _, err := fmt.Fprintln(out, cmd.Short); err != nil {
			return
		}
		if _, err := fmt.Fprintln(out, "Usage:"); err != nil {
			return
		}
		_, _ = fmt.Fprintln(out, cmd.UseLine())
		_, _ = fmt.Fprintln(out, "Flags:")
		_, _ = fmt.Fprintln(out, cmd.Flags().FlagUsages())
	})
}

// GetEncodeCommand returns the encode command for testing purposes.
func GetEncodeCommand() *cobra.Command {
	return encodeCmd
}
