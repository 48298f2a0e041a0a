package analyzer

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	_ "golang.org/x/image/webp"

	"github.com/menta2k/clothing-landmarks/pkg/types"
)

// ImageAnalyzer decodes dataset images and checks them against basic requirements
type ImageAnalyzer struct {
	config Config
}

// Config holds configuration for the image analyzer
type Config struct {
	SupportedFormats []string
	MinImageSize     int
}

// New creates a new ImageAnalyzer with default configuration
func New() *ImageAnalyzer {
	return &ImageAnalyzer{
		config: Config{
			SupportedFormats: []string{"jpeg", "png", "gif", "webp"},
			MinImageSize:     1,
		},
	}
}

// NewWithConfig creates a new ImageAnalyzer with custom configuration
func NewWithConfig(config Config) *ImageAnalyzer {
	return &ImageAnalyzer{config: config}
}

// LoadImage loads an image from file. Any failure is reported as types.ErrImage.
func (a *ImageAnalyzer) LoadImage(path string) (image.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(types.ErrImage, "reading %q: %v", path, err)
	}
	img, err := a.decode(data, path)
	if err != nil {
		return nil, err
	}
	if err := a.ValidateImage(img); err != nil {
		return nil, errors.WithMessagef(err, "image %q", path)
	}
	return img, nil
}

// decode tries the registered decoders first, honoring EXIF orientation like
// imaging.Open does, then falls back to the libwebp decoder for WebP files the
// pure Go decoder rejects.
func (a *ImageAnalyzer) decode(data []byte, path string) (image.Image, error) {
	_, format, cfgErr := image.DecodeConfig(bytes.NewReader(data))
	if cfgErr == nil {
		if !a.isFormatSupported(format) {
			return nil, errors.Wrapf(types.ErrImage, "unsupported image format %q in %q", format, path)
		}
		img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
		if err == nil {
			return img, nil
		}
		cfgErr = err
	}

	if strings.EqualFold(filepath.Ext(path), ".webp") {
		if img, err := webp.Decode(bytes.NewReader(data)); err == nil {
			return img, nil
		}
	}
	return nil, errors.Wrapf(types.ErrImage, "decoding %q: %v", path, cfgErr)
}

// GetImageInfo returns basic information about an image
func (a *ImageAnalyzer) GetImageInfo(img image.Image) ImageInfo {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	return ImageInfo{
		Width:       width,
		Height:      height,
		AspectRatio: float64(width) / float64(height),
		Area:        width * height,
	}
}

// ImageInfo contains basic image metadata
type ImageInfo struct {
	Width       int
	Height      int
	AspectRatio float64
	Area        int
}

func (a *ImageAnalyzer) isFormatSupported(format string) bool {
	for _, supported := range a.config.SupportedFormats {
		if strings.EqualFold(format, supported) {
			return true
		}
	}
	return false
}

// ValidateImage checks if an image meets minimum requirements
func (a *ImageAnalyzer) ValidateImage(img image.Image) error {
	bounds := img.Bounds()
	if bounds.Dx() < a.config.MinImageSize || bounds.Dy() < a.config.MinImageSize {
		return errors.Wrapf(types.ErrImage, "image too small: %dx%d (minimum: %d)",
			bounds.Dx(), bounds.Dy(), a.config.MinImageSize)
	}
	return nil
}
