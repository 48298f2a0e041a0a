// Package cropper cuts fixed-size training windows out of an image while keeping
// its annotated landmarks inside the window.
//
// The window position is random wherever the landmarks leave room for it. Two
// cases are not random:
//
//   - Pinned: on at least one axis the landmarks (plus the margin) leave no free
//     play, so the window sits at the lowest valid corner on both axes.
//   - Oversize: the landmark bounding box spans more than MaxSpan pixels on an
//     axis. The image is cut tightly around the landmarks (plus the margin) and
//     resized to the window size instead.
package cropper

import (
	"image"
	"image/color"
	"math"
	"math/rand"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"

	"github.com/menta2k/clothing-landmarks/pkg/types"
)

// Branch tells which strategy produced a crop
type Branch int

const (
	// Random: the window corner was drawn uniformly inside the valid range.
	Random Branch = iota
	// Pinned: no free play on some axis, the corner is the lowest valid one.
	Pinned
	// Oversize: tight landmark crop resized to the window size.
	Oversize
)

func (b Branch) String() string {
	switch b {
	case Random:
		return "random"
	case Pinned:
		return "pinned"
	case Oversize:
		return "oversize"
	default:
		return "unknown"
	}
}

// LandmarkCropper computes and extracts landmark-preserving crop windows
type LandmarkCropper struct {
	config CropConfig
}

// CropConfig holds configuration for landmark-aware cropping
type CropConfig struct {
	// Margin in pixels kept between the landmarks and the window border.
	Margin int
	// MaxSpan is the largest landmark bounding box side handled by a plain window.
	// Wider or taller boxes take the oversize branch.
	MaxSpan float64
}

// DefaultConfig is tuned for 224x224 windows: 224 - 2*10 = 204.
func DefaultConfig() CropConfig {
	return CropConfig{
		Margin:  10,
		MaxSpan: 204,
	}
}

// New creates a new LandmarkCropper with default configuration
func New() *LandmarkCropper {
	return &LandmarkCropper{config: DefaultConfig()}
}

// NewWithConfig creates a new LandmarkCropper with custom configuration
func NewWithConfig(config CropConfig) *LandmarkCropper {
	return &LandmarkCropper{config: config}
}

// Config returns the cropper configuration
func (c *LandmarkCropper) Config() CropConfig {
	return c.config
}

// Result contains the result of a cropping operation
type Result struct {
	// Image is always exactly the requested window size.
	Image     image.Image
	Landmarks []types.Landmark
	// Window is the region of the source image that was used, relative to its
	// top-left corner. In the random and pinned branches it may extend past the
	// image; that part is filled with black.
	Window image.Rectangle
	Branch Branch
}

// Crop cuts a window of the given size out of img. rng is only consulted in the
// random branch and may be nil when the caller knows the crop is deterministic.
func (c *LandmarkCropper) Crop(img image.Image, landmarks []types.Landmark, size types.Size, rng *rand.Rand) (Result, error) {
	if size.Height <= 0 || size.Width <= 0 {
		return Result{}, errors.Errorf("invalid crop size %s", size)
	}
	box, err := types.BoundingBox(landmarks)
	if err != nil {
		return Result{}, err
	}

	if box.Width() > c.config.MaxSpan || box.Height() > c.config.MaxSpan {
		return c.cropOversize(img, landmarks, box, size)
	}

	window, branch, err := c.FindWindow(box, size, rng)
	if err != nil {
		return Result{}, err
	}

	shifted := make([]types.Landmark, len(landmarks))
	for i, lm := range landmarks {
		shifted[i] = types.Landmark{
			X: lm.X - float64(window.Min.X),
			Y: lm.Y - float64(window.Min.Y),
		}
	}

	return Result{
		Image:     extractWindow(img, window),
		Landmarks: shifted,
		Window:    window,
		Branch:    branch,
	}, nil
}

// FindWindow picks the window corner for a landmark box that fits the window.
//
// Per axis the corner must lie in [lower, upper) with
//
//	upper = max(0, min - margin)
//	lower = max(max - window + margin, 0)
//
// If either axis has lower >= upper, both axes take their lower bound and rng is
// not used. Otherwise top and then left are drawn from rng.
func (c *LandmarkCropper) FindWindow(box types.Box, size types.Size, rng *rand.Rand) (image.Rectangle, Branch, error) {
	margin := c.config.Margin

	upperX := maxInt(0, floorInt(box.MinX)-margin)
	upperY := maxInt(0, floorInt(box.MinY)-margin)
	lowerX := maxInt(floorInt(box.MaxX)-size.Width+margin, 0)
	lowerY := maxInt(floorInt(box.MaxY)-size.Height+margin, 0)

	var top, left int
	branch := Random
	if lowerY >= upperY || lowerX >= upperX {
		top, left = lowerY, lowerX
		branch = Pinned
	} else {
		if rng == nil {
			return image.Rectangle{}, branch, errors.New("random crop needs a random source")
		}
		top = lowerY + rng.Intn(upperY-lowerY)
		left = lowerX + rng.Intn(upperX-lowerX)
	}

	return image.Rect(left, top, left+size.Width, top+size.Height), branch, nil
}

// cropOversize cuts the landmark box plus margin out of the image and resizes it
// to the window size.
//
// Landmarks are scaled by window/original image size, not window/cut size, and
// are not shifted by the cut corner. The result therefore does not line up with
// the cut, and callers that need aligned landmarks must not rely on this branch.
func (c *LandmarkCropper) cropOversize(img image.Image, landmarks []types.Landmark, box types.Box, size types.Size) (Result, error) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	margin := c.config.Margin

	cut := image.Rect(
		maxInt(floorInt(box.MinX)-margin, 0),
		maxInt(floorInt(box.MinY)-margin, 0),
		minInt(floorInt(box.MaxX)+margin, w),
		minInt(floorInt(box.MaxY)+margin, h),
	)
	if cut.Empty() {
		return Result{}, errors.Errorf("landmark box %+v lies outside the %dx%d image", box, w, h)
	}

	cropped := imaging.Crop(img, cut.Add(bounds.Min))
	resized := imaging.Resize(cropped, size.Width, size.Height, imaging.Linear)

	scaleX := float64(size.Width) / float64(w)
	scaleY := float64(size.Height) / float64(h)
	scaled := make([]types.Landmark, len(landmarks))
	for i, lm := range landmarks {
		scaled[i] = types.Landmark{X: lm.X * scaleX, Y: lm.Y * scaleY}
	}

	return Result{
		Image:     resized,
		Landmarks: scaled,
		Window:    cut,
		Branch:    Oversize,
	}, nil
}

// extractWindow returns the window of img as a new image of exactly the window
// size. Parts of the window outside the image are black.
func extractWindow(img image.Image, window image.Rectangle) *image.NRGBA {
	bounds := img.Bounds()
	dst := imaging.New(window.Dx(), window.Dy(), color.NRGBA{0, 0, 0, 255})

	src := window.Add(bounds.Min).Intersect(bounds)
	if src.Empty() {
		return dst
	}
	part := imaging.Crop(img, src)
	return imaging.Paste(dst, part, src.Min.Sub(bounds.Min).Sub(window.Min))
}

// floorInt rounds toward negative infinity, so boxes with negative
// coordinates land on the pixel that contains them.
func floorInt(v float64) int {
	return int(math.Floor(v))
}

// Helper functions
func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
