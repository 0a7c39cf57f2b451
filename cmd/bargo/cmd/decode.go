package cmd

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/bargo"
	"github.com/MeKo-Tech/bargo/internal/config"
)

const (
	outputFormatJSON = "json"
	outputFormatCSV  = "csv"
	outputFormatText = "text"
)

// decodeCmd represents the decode command.
var decodeCmd = &cobra.Command{
	Use:   "decode [inputs...]",
	Short: "Decode barcodes from images, data URLs or PDFs",
	Long: `Recognize barcodes in one or more inputs and print what was found.

An input is a file path, a raw base64 string or a data URL. Files
ending in .pdf are scanned page by page; use --pages to restrict the
range. With --multi every barcode in an image is reported, otherwise
only the first one found.

Finding no barcode is a normal outcome, not an error: single decodes
report null, multi decodes report an empty list.

Examples:
  bargo decode photo.jpg
  bargo decode *.png --multi --format json
  bargo decode scan.pdf --pages 1-3,7
  bargo decode "data:image/png;base64,iVBOR..." --try-harder`,
	Args:         cobra.ArbitraryArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Help handling for tests
		if len(args) > 0 && (args[0] == "--help" || args[0] == "-h") {
			return cmd.Help()
		}
		if len(args) == 0 {
			return errors.New("no inputs provided")
		}

		// Get configuration (includes CLI flags, config file, env vars, and defaults)
		cfg := GetConfig()

		format := cfg.Output.Format
		outputFile := cfg.Output.File
		multi := cfg.Decode.Multi
		pages := cfg.PDF.Pages

		// Validate output format
		validFormats := []string{outputFormatText, outputFormatJSON, outputFormatCSV}
		isValidFormat := false
		for _, f := range validFormats {
			if format == f {
				isValidFormat = true
				break
			}
		}
		if !isValidFormat {
			return fmt.Errorf("invalid output format: %s (must be one of: %s)", format, strings.Join(validFormats, ", "))
		}

		opts, err := decodeOptionsFromConfig(cfg)
		if err != nil {
			return err
		}

		var outputs []string
		for _, in := range args {
			report, err := decodeOne(in, pages, multi, opts)
			if err != nil {
				return fmt.Errorf("decode failed for %s: %w", in, err)
			}
			rendered, err := renderDecodeReport(report, format, len(args) > 1)
			if err != nil {
				return err
			}
			outputs = append(outputs, rendered)
		}

		final := strings.Join(outputs, "\n")
		if outputFile != "" {
			if err := os.WriteFile(outputFile, []byte(final+"\n"), 0o600); err != nil {
				return fmt.Errorf("failed to write output file: %w", err)
			}
			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "Results written to %s\n", outputFile); err != nil {
				return err
			}
		} else {
			if _, err := fmt.Fprintln(cmd.OutOrStdout(), final); err != nil {
				return fmt.Errorf("failed to write final output: %w", err)
			}
		}
		return nil
	},
}

// decodeReport is the outcome for one input. Exactly one of Result,
// Results and Pages is meaningful, selected by Mode.
type decodeReport struct {
	Input   string
	Mode    string // "single", "multi" or "pdf"
	Result  *bargo.Result
	Results []bargo.Result
	Pages   []bargo.PageResult
}

// decodeOptionsFromConfig translates recognition settings into library
// options. The formats list is parsed here so a bad name fails before
// any file is touched.
func decodeOptionsFromConfig(cfg *config.Config) (*bargo.DecodeOptions, error) {
	opts := &bargo.DecodeOptions{
		TryHarder:    cfg.Decode.TryHarder,
		PureBarcode:  cfg.Decode.PureBarcode,
		CharacterSet: cfg.Decode.CharacterSet,
		AlsoInverted: cfg.Decode.AlsoInverted,
	}
	if cfg.Decode.Formats != "" {
		formats, err := bargo.ParseFormats(cfg.Decode.Formats)
		if err != nil {
			return nil, err
		}
		opts.Formats = formats
	}
	return opts, nil
}

func decodeOne(in, pages string, multi bool, opts *bargo.DecodeOptions) (decodeReport, error) {
	if isPDFPath(in) {
		pageResults, err := bargo.DecodePDF(in, pages, opts)
		if err != nil {
			return decodeReport{}, err
		}
		return decodeReport{Input: in, Mode: "pdf", Pages: pageResults}, nil
	}
	if multi {
		results, err := bargo.DecodeAll(in, opts)
		if err != nil {
			return decodeReport{}, err
		}
		return decodeReport{Input: in, Mode: "multi", Results: results}, nil
	}
	result, err := bargo.Decode(in, opts)
	if err != nil {
		return decodeReport{}, err
	}
	return decodeReport{Input: in, Mode: "single", Result: result}, nil
}

// isPDFPath reports whether the input should be scanned as a document.
// Only path-shaped inputs qualify; base64 and data URLs never do.
func isPDFPath(in string) bool {
	return strings.EqualFold(filepath.Ext(in), ".pdf")
}

func renderDecodeReport(report decodeReport, format string, multiInput bool) (string, error) {
	switch format {
	case outputFormatJSON:
		return renderDecodeJSON(report)
	case outputFormatCSV:
		return renderDecodeCSV(report, multiInput)
	default:
		return renderDecodeText(report), nil
	}
}

// renderDecodeJSON emits one document per input. A single decode keeps
// its result field even when nothing was found, so consumers can rely
// on "result": null rather than a missing key.
func renderDecodeJSON(report decodeReport) (string, error) {
	var obj any
	switch report.Mode {
	case "pdf":
		obj = struct {
			Input string             `json:"input"`
			Pages []bargo.PageResult `json:"pages"`
		}{Input: report.Input, Pages: report.Pages}
	case "multi":
		obj = struct {
			Input   string         `json:"input"`
			Results []bargo.Result `json:"results"`
		}{Input: report.Input, Results: report.Results}
	default:
		obj = struct {
			Input  string        `json:"input"`
			Result *bargo.Result `json:"result"`
		}{Input: report.Input, Result: report.Result}
	}
	bts, err := json.MarshalIndent(obj, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(bts), nil
}

func renderDecodeCSV(report decodeReport, multiInput bool) (string, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)
	if err := w.Write([]string{"input", "page", "format", "text"}); err != nil {
		return "", fmt.Errorf("format csv failed: %w", err)
	}
	writeRow := func(page string, r bargo.Result) error {
		return w.Write([]string{report.Input, page, string(r.Format), r.Text})
	}
	var err error
	switch report.Mode {
	case "pdf":
		for _, page := range report.Pages {
			for _, r := range page.Results {
				if err = writeRow(strconv.Itoa(page.Page), r); err != nil {
					break
				}
			}
		}
	case "multi":
		for _, r := range report.Results {
			if err = writeRow("", r); err != nil {
				break
			}
		}
	default:
		if report.Result != nil {
			err = writeRow("", *report.Result)
		}
	}
	if err != nil {
		return "", fmt.Errorf("format csv failed: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("format csv failed: %w", err)
	}
	s := strings.TrimSuffix(sb.String(), "\n")
	if multiInput {
		s = "# " + report.Input + "\n" + s
	}
	return s, nil
}

func renderDecodeText(report decodeReport) string {
	var lines []string
	switch report.Mode {
	case "pdf":
		found := false
		for _, page := range report.Pages {
			for _, r := range page.Results {
				found = true
				lines = append(lines, fmt.Sprintf("%s page %d: %s (%s)", report.Input, page.Page, r.Text, r.Format))
			}
		}
		if !found {
			lines = append(lines, fmt.Sprintf("%s: no barcode found", report.Input))
		}
	case "multi":
		if len(report.Results) == 0 {
			lines = append(lines, fmt.Sprintf("%s: no barcode found", report.Input))
		}
		for _, r := range report.Results {
			lines = append(lines, fmt.Sprintf("%s: %s (%s)", report.Input, r.Text, r.Format))
		}
	default:
		if report.Result == nil {
			lines = append(lines, fmt.Sprintf("%s: no barcode found", report.Input))
		} else {
			lines = append(lines, fmt.Sprintf("%s: %s (%s)", report.Input, report.Result.Text, report.Result.Format))
		}
	}
	return strings.Join(lines, "\n")
}

func addDecodeFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("format", "f", "text", "output format (text, json, csv)")
	cmd.Flags().StringP("output", "o", "", "output file (default: stdout)")
	cmd.Flags().BoolP("multi", "m", false, "report every barcode in the image, not just the first")
	cmd.Flags().Bool("try-harder", false, "spend more time per image (extra passes, rotated retries)")
	cmd.Flags().String("formats", "", "comma-separated symbologies to look for (e.g. qr,code128,ean13)")
	cmd.Flags().Bool("pure-barcode", false, "treat the input as a clean barcode rendering, not a photo")
	cmd.Flags().String("charset", "", "character set for payload text (IANA name, e.g. ISO-8859-1)")
	cmd.Flags().Bool("also-inverted", false, "retry with inverted luminance for light-on-dark symbols")
	cmd.Flags().String("pages", "", "PDF page range (e.g. 1-3,5; default all pages)")
}

// bindDecodeFlags binds all flags to viper configuration keys.
func bindDecodeFlags(cmd *cobra.Command) {
	flagBindings := []struct {
		key  string
		flag string
	}{
		{"output.format", "format"},
		{"output.file", "output"},
		{"decode.multi", "multi"},
		{"decode.try_harder", "try-harder"},
		{"decode.formats", "formats"},
		{"decode.pure_barcode", "pure-barcode"},
		{"decode.character_set", "charset"},
		{"decode.also_inverted", "also-inverted"},
		{"pdf.pages", "pages"},
	}

	for _, binding := range flagBindings {
		if err := viper.BindPFlag(binding.key, cmd.Flags().Lookup(binding.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", binding.flag, err))
		}
	}
}

func init() {
	rootCmd.AddCommand(decodeCmd)

	addDecodeFlags(decodeCmd)
	bindDecodeFlags(decodeCmd)

	// Ensure subcommand help prints expected sections when executed directly in tests
	decodeCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
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

// GetDecodeCommand returns the decode command for testing purposes.
func GetDecodeCommand() *cobra.Command {
	return decodeCmd
}
