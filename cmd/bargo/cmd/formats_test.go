package cmd

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/bargo"
)

func runFormats(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	formatsCmd.SetOut(buf)
	formatsCmd.SetErr(buf)
	rootCmd.SetArgs(append([]string{"formats"}, args...))
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestFormatsCommand(t *testing.T) {
	assert.NotNil(t, formatsCmd)
	assert.Equal(t, "formats", formatsCmd.Use)
	assert.NotEmpty(t, formatsCmd.Short)
}

func TestFormatsCommandHelp(t *testing.T) {
	command := formatsCmd
	buf := new(bytes.Buffer)
	command.SetOut(buf)
	command.SetErr(buf)
	err := command.Help()
	require.NoError(t, err)
	output := strings.TrimSpace(buf.String())
	assert.Contains(t, output, "List supported barcode formats")
	assert.Contains(t, output, "Usage:")
}

func TestFormatsCommandText(t *testing.T) {
	output, err := runFormats(t, "--format=text")
	require.NoError(t, err)
	assert.Contains(t, output, "FORMAT")
	assert.Contains(t, output, "QR_CODE")
	assert.Contains(t, output, "MAXICODE")
	assert.Contains(t, output, "yes")
}

func TestFormatsCommandJSON(t *testing.T) {
	output, err := runFormats(t, "--format=json")
	require.NoError(t, err)

	var infos []bargo.FormatInfo
	require.NoError(t, json.Unmarshal([]byte(output), &infos))
	assert.Len(t, infos, len(bargo.SupportedFormats()))

	byName := make(map[bargo.Format]bargo.FormatInfo, len(infos))
	for _, info := range infos {
		byName[info.Format] = info
	}
	assert.True(t, byName[bargo.FormatQRCode].CanDecode)
	assert.True(t, byName[bargo.FormatQRCode].CanEncode)
	// MaxiCode has neither a reader nor a writer in the engine
	assert.False(t, byName[bargo.FormatMaxiCode].CanDecode)
	assert.False(t, byName[bargo.FormatMaxiCode].CanEncode)
	// DataBar family reads but does not write
	assert.True(t, byName[bargo.FormatRSS14].CanDecode)
	assert.False(t, byName[bargo.FormatRSS14].CanEncode)
}

func TestFormatsCommandCSV(t *testing.T) {
	output, err := runFormats(t, "--format=csv")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(output), "\n")
	require.NotEmpty(t, lines)
	assert.Equal(t, "format,decode,encode", lines[0])
	assert.Len(t, lines, len(bargo.SupportedFormats())+1)
}

func TestFormatsCommandBadFormat(t *testing.T) {
	_, err := runFormats(t, "--format=yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid output format")
}
