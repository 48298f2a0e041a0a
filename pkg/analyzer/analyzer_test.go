package analyzer

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/chai2010/webp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/clothing-landmarks/pkg/types"
)

// createTestImage creates a simple test image
func createTestImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))

	// Fill with a gradient pattern
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r := uint8((x * 255) / width)
			g := uint8((y * 255) / height)
			b := uint8(128)
			img.Set(x, y, color.RGBA{r, g, b, 255})
		}
	}

	return img
}

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func TestNew(t *testing.T) {
	analyzer := New()
	require.NotNil(t, analyzer)
	assert.Equal(t, 1, analyzer.config.MinImageSize)
}

func TestNewWithConfig(t *testing.T) {
	cfg := Config{
		SupportedFormats: []string{"png"},
		MinImageSize:     200,
	}

	analyzer := NewWithConfig(cfg)
	require.NotNil(t, analyzer)
	assert.Equal(t, 200, analyzer.config.MinImageSize)
}

func TestLoadImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "img.png")
	writePNG(t, path, createTestImage(40, 30))

	img, err := New().LoadImage(path)
	require.NoError(t, err)
	assert.Equal(t, 40, img.Bounds().Dx())
	assert.Equal(t, 30, img.Bounds().Dy())
}

func TestLoadImageWebP(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, webp.Encode(&buf, createTestImage(16, 12), &webp.Options{Lossless: true}))
	path := filepath.Join(t.TempDir(), "img.webp")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	img, err := New().LoadImage(path)
	require.NoError(t, err)
	assert.Equal(t, 16, img.Bounds().Dx())
	assert.Equal(t, 12, img.Bounds().Dy())
}

func TestLoadImageErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := New().LoadImage(filepath.Join(dir, "missing.jpg"))
	assert.ErrorIs(t, err, types.ErrImage)

	corrupt := filepath.Join(dir, "corrupt.jpg")
	require.NoError(t, os.WriteFile(corrupt, []byte("not an image"), 0o644))
	_, err = New().LoadImage(corrupt)
	assert.ErrorIs(t, err, types.ErrImage)
}

func TestLoadImageUnsupportedFormat(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, gif.Encode(&buf, createTestImage(10, 10), nil))
	path := filepath.Join(t.TempDir(), "small.gif")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	analyzer := NewWithConfig(Config{SupportedFormats: []string{"png"}, MinImageSize: 1})
	_, err := analyzer.LoadImage(path)
	assert.ErrorIs(t, err, types.ErrImage)
}

func TestGetImageInfo(t *testing.T) {
	analyzer := New()
	img := createTestImage(400, 300)

	info := analyzer.GetImageInfo(img)

	assert.Equal(t, 400, info.Width)
	assert.Equal(t, 300, info.Height)
	assert.Equal(t, float64(400)/float64(300), info.AspectRatio)
	assert.Equal(t, 120000, info.Area)
}

func TestValidateImage(t *testing.T) {
	analyzer := NewWithConfig(Config{SupportedFormats: []string{"png"}, MinImageSize: 100})

	assert.NoError(t, analyzer.ValidateImage(createTestImage(200, 200)))
	assert.ErrorIs(t, analyzer.ValidateImage(createTestImage(50, 50)), types.ErrImage)
}

func TestIsFormatSupported(t *testing.T) {
	analyzer := New()

	for _, format := range []string{"jpeg", "png", "webp", "JPEG", "PNG", "gif"} {
		assert.True(t, analyzer.isFormatSupported(format), format)
	}
	for _, format := range []string{"bmp", "tiff"} {
		assert.False(t, analyzer.isFormatSupported(format), format)
	}
}

func BenchmarkGetImageInfo(b *testing.B) {
	analyzer := New()
	img := createTestImage(1920, 1080)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		analyzer.GetImageInfo(img)
	}
}
