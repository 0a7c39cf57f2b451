package imgio

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPattern(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8((x*7 + y*13) % 256)
			img.SetRGBA(x, y, color.RGBA{R: v, G: 255 - v, B: v / 2, A: 255})
		}
	}
	return img
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		name string
		want Format
	}{
		{"", JPEG},
		{"jpg", JPEG},
		{"jpeg", JPEG},
		{"JPEG", JPEG},
		{" png ", PNG},
		{"PNG", PNG},
		{"bmp", BMP},
		{"tif", TIFF},
		{"tiff", TIFF},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.name)
		require.NoError(t, err, "name %q", tt.name)
		assert.Equal(t, tt.want, got, "name %q", tt.name)
	}

	for _, name := range []string{"gif", "webp", "svg", "raw"} {
		_, err := ParseFormat(name)
		assert.Error(t, err, "name %q", name)
		assert.Contains(t, err.Error(), "unsupported image format")
	}
}

func TestFormatExt(t *testing.T) {
	assert.Equal(t, ".jpg", JPEG.Ext())
	assert.Equal(t, ".png", PNG.Ext())
	assert.Equal(t, ".bmp", BMP.Ext())
	assert.Equal(t, ".tiff", TIFF.Ext())
}

func TestFormatMIMEType(t *testing.T) {
	assert.Equal(t, "image/jpeg", JPEG.MIMEType())
	assert.Equal(t, "image/png", PNG.MIMEType())
	assert.Equal(t, "image/bmp", BMP.MIMEType())
	assert.Equal(t, "image/tiff", TIFF.MIMEType())
}

func TestSniff(t *testing.T) {
	tests := []struct {
		name   string
		data   []byte
		format string
		ok     bool
	}{
		{"jpeg", []byte{0xFF, 0xD8, 0xFF, 0xE0}, "jpeg", true},
		{"png", []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0x00}, "png", true},
		{"gif87a", []byte("GIF87a trailer"), "gif", true},
		{"gif89a", []byte("GIF89a trailer"), "gif", true},
		{"bmp", []byte("BM1234"), "bmp", true},
		{"tiff little endian", []byte("II*\x00rest"), "tiff", true},
		{"tiff big endian", []byte("MM\x00*rest"), "tiff", true},
		{"webp", []byte("RIFF\x00\x00\x00\x00WEBPVP8 "), "webp", true},
		{"riff but not webp", []byte("RIFF\x00\x00\x00\x00WAVEfmt "), "", false},
		{"truncated png", []byte{0x89, 'P', 'N'}, "", false},
		{"empty", nil, "", false},
		{"text", []byte("hello world"), "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			format, ok := Sniff(tt.data)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.format, format)
		})
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	src := testPattern(40, 30)

	for _, format := range []Format{JPEG, PNG, BMP, TIFF} {
		t.Run(string(format), func(t *testing.T) {
			data, err := Encode(src, format, 90)
			require.NoError(t, err)
			require.NotEmpty(t, data)

			sniffed, ok := Sniff(data)
			require.True(t, ok)
			assert.Equal(t, string(format), sniffed)

			img, name, err := Decode(data)
			require.NoError(t, err)
			assert.Equal(t, string(format), name)
			assert.Equal(t, src.Bounds().Dx(), img.Bounds().Dx())
			assert.Equal(t, src.Bounds().Dy(), img.Bounds().Dy())
		})
	}
}

func TestEncodeJPEGQuality(t *testing.T) {
	src := testPattern(120, 120)

	low, err := Encode(src, JPEG, 10)
	require.NoError(t, err)
	high, err := Encode(src, JPEG, 95)
	require.NoError(t, err)

	assert.Less(t, len(low), len(high))
}

func TestEncodeUnsupportedFormat(t *testing.T) {
	_, err := Encode(testPattern(10, 10), Format("gif"), 90)
	require.Error(t, err)

	var imgErr *Error
	require.ErrorAs(t, err, &imgErr)
	assert.Equal(t, "encode", imgErr.Op)
	assert.Contains(t, err.Error(), "image encode")
}

func TestDecodeGIF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, gif.Encode(&buf, testPattern(16, 16), nil))

	img, name, err := Decode(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "gif", name)
	assert.Equal(t, 16, img.Bounds().Dx())
}

func TestDecodeGarbage(t *testing.T) {
	_, _, err := Decode([]byte("definitely not pixels"))
	require.Error(t, err)

	var imgErr *Error
	require.ErrorAs(t, err, &imgErr)
	assert.Equal(t, "decode", imgErr.Op)
}

func TestErrorUnwrap(t *testing.T) {
	inner := errors.New("boom")
	err := &Error{Op: "decode", Err: inner}
	assert.ErrorIs(t, err, inner)
	assert.Equal(t, "image decode: boom", err.Error())
}

func TestWriteFile(t *testing.T) {
	data, err := Encode(testPattern(12, 12), PNG, 0)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out.png")
	require.NoError(t, WriteFile(path, data))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestWriteFileMissingDir(t *testing.T) {
	err := WriteFile(filepath.Join(t.TempDir(), "missing", "out.png"), []byte("data"))
	require.Error(t, err)

	var imgErr *Error
	require.ErrorAs(t, err, &imgErr)
	assert.Equal(t, "write", imgErr.Op)
}
