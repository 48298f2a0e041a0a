package transform

import (
	"math/rand"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/menta2k/clothing-landmarks/pkg/cropper"
	"github.com/menta2k/clothing-landmarks/pkg/types"
)

// RandomCrop cuts a fixed-size window that keeps the sample landmarks inside.
// See package cropper for the window rules. An edge size gives a square window.
//
// Rand is only used when the window position has free play. It is not safe
// for concurrent use, so one RandomCrop must not be applied from several
// goroutines at once.
type RandomCrop struct {
	Size    types.OutputSize
	Rand    *rand.Rand
	Cropper *cropper.LandmarkCropper
}

// NewRandomCrop returns a RandomCrop with the default landmark margins
func NewRandomCrop(size types.OutputSize, rng *rand.Rand) RandomCrop {
	return RandomCrop{
		Size:    size,
		Rand:    rng,
		Cropper: cropper.New(),
	}
}

// WindowSize returns the crop window as (height, width)
func (c RandomCrop) WindowSize() types.Size {
	if c.Size.IsEdge() {
		return types.Size{Height: c.Size.Edge, Width: c.Size.Edge}
	}
	return c.Size.Size
}

// Apply implements Transform
func (c RandomCrop) Apply(sample types.Sample) (types.Sample, error) {
	if err := c.Size.Validate(); err != nil {
		return types.Sample{}, errors.WithMessage(err, "random crop")
	}
	if sample.Image == nil {
		return types.Sample{}, errors.New("random crop: sample has no image")
	}
	cr := c.Cropper
	if cr == nil {
		cr = cropper.New()
	}

	result, err := cr.Crop(sample.Image, sample.Landmarks, c.WindowSize(), c.Rand)
	if err != nil {
		return types.Sample{}, errors.WithMessage(err, "random crop")
	}
	klog.V(2).Infof("crop sample %d: %s branch, window %v", sample.Index, result.Branch, result.Window)

	out := sample
	out.Image = result.Image
	out.Landmarks = result.Landmarks
	return out, nil
}
