package cmd

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/bargo"
)

// writeQRPNG renders text as a QR code file and returns its path.
func writeQRPNG(t *testing.T, dir, name, text string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	_, err := bargo.Encode(text, &bargo.EncodeOptions{ImageFormat: "png", OutputFile: path})
	require.NoError(t, err)
	return path
}

// writeBlankPNG writes an all-white image with no barcode in it.
func writeBlankPNG(t *testing.T, dir string) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 120, 120))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	path := filepath.Join(dir, "blank.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
	return path
}

// runDecode executes the decode command through the root command.
// Flag values persist between executions in one test process, so every
// invocation pins the flags its assertions depend on.
func runDecode(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	decodeCmd.SetOut(buf)
	decodeCmd.SetErr(buf)
	rootCmd.SetArgs(append([]string{"decode"}, args...))
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestDecodeCommand(t *testing.T) {
	assert.NotNil(t, decodeCmd)
	assert.True(t, strings.HasPrefix(decodeCmd.Use, "decode"))
	assert.NotEmpty(t, decodeCmd.Short)
	assert.NotEmpty(t, decodeCmd.Long)
}

func TestDecodeCommandHelp(t *testing.T) {
	command := decodeCmd
	buf := new(bytes.Buffer)
	command.SetOut(buf)
	command.SetErr(buf)
	err := command.Help()
	require.NoError(t, err)
	output := strings.TrimSpace(buf.String())
	assert.Contains(t, output, "Decode barcodes")
	assert.Contains(t, output, "Usage:")
	assert.Contains(t, output, "Flags:")
}

func TestDecodeCommandNoInputs(t *testing.T) {
	err := decodeCmd.RunE(decodeCmd, []string{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no inputs provided")
}

func TestDecodeCommandWithNonExistentFile(t *testing.T) {
	err := decodeCmd.RunE(decodeCmd, []string{"/non/existent/file.png"})
	require.Error(t, err)
	assert.Equal(t, bargo.KindInput, bargo.ErrorKind(err))
}

func TestDecodeCommandRoundTripText(t *testing.T) {
	dir := t.TempDir()
	path := writeQRPNG(t, dir, "qr.png", "cli text output")

	output, err := runDecode(t, path, "--format=text", "--multi=false", "--formats=", "--output=")
	require.NoError(t, err)
	assert.Contains(t, output, "cli text output")
	assert.Contains(t, output, "(QR_CODE)")
}

func TestDecodeCommandRoundTripJSON(t *testing.T) {
	dir := t.TempDir()
	path := writeQRPNG(t, dir, "qr.png", "cli json output")

	output, err := runDecode(t, path, "--format=json", "--multi=false", "--formats=", "--output=")
	require.NoError(t, err)

	var report struct {
		Input  string        `json:"input"`
		Result *bargo.Result `json:"result"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &report))
	assert.Equal(t, path, report.Input)
	require.NotNil(t, report.Result)
	assert.Equal(t, "cli json output", report.Result.Text)
	assert.Equal(t, bargo.FormatQRCode, report.Result.Format)
}

func TestDecodeCommandMultiJSON(t *testing.T) {
	dir := t.TempDir()
	path := writeQRPNG(t, dir, "qr.png", "cli multi output")

	output, err := runDecode(t, path, "--format=json", "--multi=true", "--formats=", "--output=")
	require.NoError(t, err)

	var report struct {
		Input   string         `json:"input"`
		Results []bargo.Result `json:"results"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &report))
	require.Len(t, report.Results, 1)
	assert.Equal(t, "cli multi output", report.Results[0].Text)
}

// A barcode-free image is a normal outcome, not an error: the single
// shape answers null and the multi shape answers an empty list.
func TestDecodeCommandNoBarcodeShapes(t *testing.T) {
	dir := t.TempDir()
	path := writeBlankPNG(t, dir)

	t.Run("single null", func(t *testing.T) {
		output, err := runDecode(t, path, "--format=json", "--multi=false", "--formats=", "--output=")
		require.NoError(t, err)

		var raw map[string]json.RawMessage
		require.NoError(t, json.Unmarshal([]byte(output), &raw))
		require.Contains(t, raw, "result")
		assert.Equal(t, "null", string(raw["result"]))
	})

	t.Run("multi empty list", func(t *testing.T) {
		output, err := runDecode(t, path, "--format=json", "--multi=true", "--formats=", "--output=")
		require.NoError(t, err)

		var raw map[string]json.RawMessage
		require.NoError(t, json.Unmarshal([]byte(output), &raw))
		require.Contains(t, raw, "results")
		assert.Equal(t, "[]", string(raw["results"]))
	})
}

func TestDecodeCommandCSV(t *testing.T) {
	dir := t.TempDir()
	path := writeQRPNG(t, dir, "qr.png", "csv,value")

	output, err := runDecode(t, path, "--format=csv", "--multi=false", "--formats=", "--output=")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(output), "\n")
	require.NotEmpty(t, lines)
	assert.Equal(t, "input,page,format,text", lines[0])
	assert.Contains(t, output, "QR_CODE")
	// Comma in the payload must stay quoted
	assert.Contains(t, output, `"csv,value"`)
}

func TestDecodeCommandMultipleInputs(t *testing.T) {
	dir := t.TempDir()
	qrPath := writeQRPNG(t, dir, "qr.png", "first of two")
	blankPath := writeBlankPNG(t, dir)

	output, err := runDecode(t, qrPath, blankPath, "--format=text", "--multi=false", "--formats=", "--output=")
	require.NoError(t, err)
	assert.Contains(t, output, "first of two")
	assert.Contains(t, output, blankPath+": no barcode found")
}

func TestDecodeCommandBadFormatsFilter(t *testing.T) {
	dir := t.TempDir()
	path := writeQRPNG(t, dir, "qr.png", "unused")

	_, err := runDecode(t, path, "--format=text", "--multi=false", "--formats=bogus", "--output=")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown barcode format")
}

func TestDecodeCommandOutputFile(t *testing.T) {
	dir := t.TempDir()
	path := writeQRPNG(t, dir, "qr.png", "to a file")
	outPath := filepath.Join(dir, "results.json")

	output, err := runDecode(t, path, "--format=json", "--multi=false", "--formats=", "--output", outPath)
	require.NoError(t, err)
	assert.Contains(t, output, "Results written to")

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)

	var report struct {
		Result *bargo.Result `json:"result"`
	}
	require.NoError(t, json.Unmarshal(data, &report))
	require.NotNil(t, report.Result)
	assert.Equal(t, "to a file", report.Result.Text)
}

func TestIsPDFPath(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"scan.pdf", true},
		{"/tmp/DOC.PDF", true},
		{"photo.png", false},
		{"iVBORw0KGgo=", false},
		{"data:image/png;base64,iVBORw0KGgo=", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, isPDFPath(tt.in), "input %q", tt.in)
	}
}
