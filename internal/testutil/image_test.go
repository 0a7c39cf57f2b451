package testutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/bargo"
)

func TestNewQRImage_RoundTrip(t *testing.T) {
	img, err := NewQRImage("fixture payload", 200)
	require.NoError(t, err)

	res, err := bargo.DecodeImage(img, nil)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, "fixture payload", res.Text)
	assert.Equal(t, bargo.FormatQRCode, res.Format)
}

func TestNewSymbolPairImage_BothFound(t *testing.T) {
	img, err := NewSymbolPairImage("left", "right")
	require.NoError(t, err)

	results, err := bargo.DecodeAllImage(img, &bargo.DecodeOptions{TryHarder: true})
	require.NoError(t, err)
	require.Len(t, results, 2)

	texts := []string{results[0].Text, results[1].Text}
	assert.Contains(t, texts, "left")
	assert.Contains(t, texts, "right")
}

func TestNewBlankImage_NoSymbol(t *testing.T) {
	res, err := bargo.DecodeImage(NewBlankImage(120, 120), nil)
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestSavePNG(t *testing.T) {
	img, err := NewQRImage("saved", 200)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "nested", "symbol.png")
	require.NoError(t, SavePNG(img, path))

	res, err := bargo.Decode(path, nil)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, "saved", res.Text)
}
