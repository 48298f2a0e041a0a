// Package processing draws landmark overlays on samples and writes images to disk.
package processing

import (
	"image"
	"image/color"
	"io"
	"math"
	"os"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/pkg/errors"

	"github.com/menta2k/clothing-landmarks/pkg/types"
)

// Formats accepted by SaveImage and EncodeImage.
var Formats = []string{"jpg", "jpeg", "png", "webp"}

// Processor handles overlay and export operations
type Processor struct {
	// Margin around the landmark box drawn by CreateLandmarkOverlay. Zero draws
	// the tight box.
	Margin int
}

// NewProcessor creates a new processor drawing the box with the crop margin
func NewProcessor() *Processor {
	return &Processor{Margin: 10}
}

// IsSupportedFormat reports whether format is one of Formats
func IsSupportedFormat(format string) bool {
	format = strings.ToLower(format)
	for _, f := range Formats {
		if f == format {
			return true
		}
	}
	return false
}

// SaveImage saves an image to a file with the specified format and quality
func (p *Processor) SaveImage(img image.Image, path, format string, quality int, lossless bool) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %q", path)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.Wrapf(cerr, "closing %q", path)
		}
	}()
	return p.EncodeImage(f, img, format, quality, lossless)
}

// EncodeImage writes img to w. Quality applies to jpg and lossy webp.
func (p *Processor) EncodeImage(w io.Writer, img image.Image, format string, quality int, lossless bool) error {
	switch strings.ToLower(format) {
	case "webp":
		opts := &webp.Options{Lossless: lossless, Quality: float32(quality)}
		return errors.Wrap(webp.Encode(w, img, opts), "encoding webp")
	case "png":
		return errors.Wrap(imaging.Encode(w, img, imaging.PNG), "encoding png")
	case "jpg", "jpeg":
		return errors.Wrap(imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(quality)), "encoding jpeg")
	default:
		return errors.Errorf("unsupported output format %q", format)
	}
}

// CreateLandmarkOverlay returns a copy of the sample image with a crosshair on
// every landmark and the landmark bounding box, grown by p.Margin, outlined.
func (p *Processor) CreateLandmarkOverlay(sample types.Sample) (image.Image, error) {
	if sample.Image == nil {
		return nil, errors.New("overlay: sample has no image")
	}
	nrgba := imaging.Clone(sample.Image)
	w := nrgba.Bounds().Dx()
	h := nrgba.Bounds().Dy()

	// Colors
	green := color.NRGBA{0, 255, 0, 255} // landmark box
	red := color.NRGBA{255, 0, 0, 255}   // landmarks
	stroke := int(math.Max(1, 0.004*float64(minInt(w, h))))
	cross := int(math.Max(3, 0.015*float64(minInt(w, h))))

	if len(sample.Landmarks) > 0 {
		box, err := types.BoundingBox(sample.Landmarks)
		if err != nil {
			return nil, err
		}
		drawBox(nrgba, box, p.Margin, green, stroke)
	}
	DrawLandmarks(nrgba, sample.Landmarks, cross, red)
	return nrgba, nil
}

// DrawLandmarks draws a crosshair of half size cross on every landmark.
// Points outside img are clipped.
func DrawLandmarks(img *image.NRGBA, landmarks []types.Landmark, cross int, c color.NRGBA) {
	for _, lm := range landmarks {
		px := int(lm.X + 0.5)
		py := int(lm.Y + 0.5)
		drawHLine(img, py, px-cross, px+cross+1, c)
		drawVLine(img, px, py-cross, py+cross+1, c)
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// boxToPixels grows box by margin and clamps it to a w x h image.
func boxToPixels(box types.Box, margin, w, h int) (int, int, int, int) {
	x0 := maxInt(int(box.MinX)-margin, 0)
	y0 := maxInt(int(box.MinY)-margin, 0)
	x1 := minInt(int(box.MaxX)+margin+1, w)
	y1 := minInt(int(box.MaxY)+margin+1, h)
	if x1 <= x0 {
		x1 = x0 + 1
	}
	if y1 <= y0 {
		y1 = y0 + 1
	}
	return x0, y0, x1, y1
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func drawBox(img *image.NRGBA, box types.Box, margin int, color color.NRGBA, stroke int) {
	x0, y0, x1, y1 := boxToPixels(box, margin, img.Bounds().Dx(), img.Bounds().Dy())
	for s := 0; s < stroke; s++ {
		drawHLine(img, y0+s, x0, x1, color)
		drawHLine(img, y1-1-s, x0, x1, color)
		drawVLine(img, x0+s, y0, y1, color)
		drawVLine(img, x1-1-s, y0, y1, color)
	}
}

// drawHLine paints [x0, x1) on row y.
func drawHLine(img *image.NRGBA, y, x0, x1 int, c color.NRGBA) {
	if y < 0 || y >= img.Bounds().Dy() {
		return
	}
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	x0 = maxInt(x0, 0)
	x1 = minInt(x1, img.Bounds().Dx())
	for x := x0; x < x1; x++ {
		setPix(img, img.PixOffset(x+img.Rect.Min.X, y+img.Rect.Min.Y), c)
	}
}

// drawVLine paints [y0, y1) on column x.
func drawVLine(img *image.NRGBA, x, y0, y1 int, c color.NRGBA) {
	if x < 0 || x >= img.Bounds().Dx() {
		return
	}
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	y0 = maxInt(y0, 0)
	y1 = minInt(y1, img.Bounds().Dy())
	for y := y0; y < y1; y++ {
		setPix(img, img.PixOffset(x+img.Rect.Min.X, y+img.Rect.Min.Y), c)
	}
}

func setPix(img *image.NRGBA, i int, c color.NRGBA) {
	img.Pix[i+0] = c.R
	img.Pix[i+1] = c.G
	img.Pix[i+2] = c.B
	img.Pix[i+3] = c.A
}
