package transform

import (
	"math"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/menta2k/clothing-landmarks/pkg/types"
)

// MaxLandmarkCoord is the largest coordinate a rescaled landmark can hold.
// Rescaled coordinates are stored in 8 bits, as in the annotation tooling the
// datasets come from, so anything past 255 px is clipped.
const MaxLandmarkCoord = 255

// Rescale resizes the sample image and scales its landmarks.
//
// With an edge size T the shorter image edge becomes T and the longer one keeps
// the aspect ratio (truncated to whole pixels). With an explicit size the image
// is resized to exactly that.
//
// Landmark coordinates are truncated to integers and clamped into
// [0, MaxLandmarkCoord]. Images whose rescaled size exceeds 256 px on an axis
// lose landmark precision there.
type Rescale struct {
	Size types.OutputSize
}

// NewRescale returns a Rescale to the given size
func NewRescale(size types.OutputSize) Rescale {
	return Rescale{Size: size}
}

// TargetSize returns the (height, width) an image of the given size is rescaled to.
func (r Rescale) TargetSize(height, width int) types.Size {
	if !r.Size.IsEdge() {
		return r.Size.Size
	}
	edge := float64(r.Size.Edge)
	if height > width {
		return types.Size{
			Height: int(edge * float64(height) / float64(width)),
			Width:  r.Size.Edge,
		}
	}
	return types.Size{
		Height: r.Size.Edge,
		Width:  int(edge * float64(width) / float64(height)),
	}
}

// Apply implements Transform
func (r Rescale) Apply(sample types.Sample) (types.Sample, error) {
	if err := r.Size.Validate(); err != nil {
		return types.Sample{}, errors.WithMessage(err, "rescale")
	}
	if sample.Image == nil {
		return types.Sample{}, errors.New("rescale: sample has no image")
	}
	old := sample.Bounds()
	if old.Height == 0 || old.Width == 0 {
		return types.Sample{}, errors.Errorf("rescale: empty image %s", old)
	}

	target := r.TargetSize(old.Height, old.Width)
	out := sample
	out.Image = imaging.Resize(sample.Image, target.Width, target.Height, imaging.Linear)

	scaleX := float64(target.Width) / float64(old.Width)
	scaleY := float64(target.Height) / float64(old.Height)
	out.Landmarks = make([]types.Landmark, len(sample.Landmarks))
	for i, lm := range sample.Landmarks {
		out.Landmarks[i] = types.Landmark{
			X: toLandmarkCoord(lm.X * scaleX),
			Y: toLandmarkCoord(lm.Y * scaleY),
		}
	}
	klog.V(2).Infof("rescale sample %d: %s -> %s", sample.Index, old, target)
	return out, nil
}

// toLandmarkCoord truncates v and clamps it into [0, MaxLandmarkCoord].
func toLandmarkCoord(v float64) float64 {
	v = math.Trunc(v)
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > MaxLandmarkCoord {
		return MaxLandmarkCoord
	}
	return v
}
