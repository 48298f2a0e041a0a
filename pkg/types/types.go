package types

import (
	"fmt"
	"image"
	"math"

	"github.com/gomlx/gomlx/pkg/core/tensors"
	"github.com/pkg/errors"
)

// Landmark is an annotated garment point in image pixel coordinates
type Landmark struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Box is the axis-aligned bounding box of a set of landmarks, in pixels
type Box struct {
	MinX float64 `json:"min_x"`
	MinY float64 `json:"min_y"`
	MaxX float64 `json:"max_x"`
	MaxY float64 `json:"max_y"`
}

// Width returns the horizontal span of the box
func (b Box) Width() float64 {
	return b.MaxX - b.MinX
}

// Height returns the vertical span of the box
func (b Box) Height() float64 {
	return b.MaxY - b.MinY
}

// BoundingBox returns the box enclosing all landmarks.
// An empty slice yields ErrNoLandmarks.
func BoundingBox(landmarks []Landmark) (Box, error) {
	if len(landmarks) == 0 {
		return Box{}, ErrNoLandmarks
	}
	box := Box{
		MinX: math.Inf(1),
		MinY: math.Inf(1),
		MaxX: math.Inf(-1),
		MaxY: math.Inf(-1),
	}
	for _, lm := range landmarks {
		box.MinX = math.Min(box.MinX, lm.X)
		box.MinY = math.Min(box.MinY, lm.Y)
		box.MaxX = math.Max(box.MaxX, lm.X)
		box.MaxY = math.Max(box.MaxY, lm.Y)
	}
	return box, nil
}

// Size is an image size in pixels, height first like the tensors it feeds
type Size struct {
	Height int `json:"height"`
	Width  int `json:"width"`
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Height, s.Width)
}

// OutputSize is the target of a rescale or crop.
// Either Edge is set (a single integer target) or Size is set (explicit height and width).
type OutputSize struct {
	Edge int  `json:"edge,omitempty"`
	Size Size `json:"size,omitempty"`
}

// EdgeSize returns an OutputSize given by a single integer
func EdgeSize(edge int) OutputSize {
	return OutputSize{Edge: edge}
}

// ExactSize returns an OutputSize with explicit height and width
func ExactSize(height, width int) OutputSize {
	return OutputSize{Size: Size{Height: height, Width: width}}
}

// IsEdge reports whether the size was given as a single integer
func (o OutputSize) IsEdge() bool {
	return o.Edge > 0
}

// Validate checks that exactly one form is set and it is positive
func (o OutputSize) Validate() error {
	switch {
	case o.Edge > 0 && (o.Size.Height != 0 || o.Size.Width != 0):
		return errors.Errorf("output size: both edge %d and size %s given", o.Edge, o.Size)
	case o.Edge > 0:
		return nil
	case o.Size.Height > 0 && o.Size.Width > 0:
		return nil
	default:
		return errors.Errorf("output size: need a positive edge or height and width, got %+v", o)
	}
}

// Sample is one dataset item threaded through the transform chain
type Sample struct {
	Index     int
	Filename  string
	Image     image.Image
	Landmarks []Landmark

	// Set by the tensor conversion: image as [C, H, W] and landmarks as [N, 2].
	ImageTensor     *tensors.Tensor
	LandmarksTensor *tensors.Tensor
}

// Bounds returns the image size of the sample
func (s Sample) Bounds() Size {
	if s.Image == nil {
		return Size{}
	}
	b := s.Image.Bounds()
	return Size{Height: b.Dy(), Width: b.Dx()}
}

// HasTensors reports whether the sample went through the tensor conversion
func (s Sample) HasTensors() bool {
	return s.ImageTensor != nil && s.LandmarksTensor != nil
}
