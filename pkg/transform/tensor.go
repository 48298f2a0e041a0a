package transform

import (
	"github.com/disintegration/imaging"
	"github.com/gomlx/gomlx/pkg/core/tensors"
	"github.com/pkg/errors"

	"github.com/menta2k/clothing-landmarks/pkg/types"
)

// NumChannels of the image tensors: RGB, alpha is dropped.
const NumChannels = 3

// ToTensor converts the sample to gomlx tensors for a training loop.
//
// The image becomes a float32 tensor shaped [C, H, W] (channels first), with
// values scaled to [0, 1]. The landmarks become a float32 tensor shaped [N, 2]
// holding x,y pairs. Image and Landmarks are left in place for display.
type ToTensor struct{}

// Apply implements Transform
func (ToTensor) Apply(sample types.Sample) (types.Sample, error) {
	if sample.Image == nil {
		return types.Sample{}, errors.New("to tensor: sample has no image")
	}

	out := sample
	out.ImageTensor = ImageToTensor(sample)
	out.LandmarksTensor = LandmarksToTensor(sample.Landmarks)
	return out, nil
}

// ImageToTensor returns the sample image as a [C, H, W] float32 tensor
func ImageToTensor(sample types.Sample) *tensors.Tensor {
	nrgba := imaging.Clone(sample.Image)
	bounds := nrgba.Bounds()
	h, w := bounds.Dy(), bounds.Dx()
	plane := h * w

	data := make([]float32, NumChannels*plane)
	for y := 0; y < h; y++ {
		row := nrgba.Pix[y*nrgba.Stride:]
		for x := 0; x < w; x++ {
			px := row[x*4:]
			pos := y*w + x
			for c := 0; c < NumChannels; c++ {
				data[c*plane+pos] = float32(px[c]) / 255.0
			}
		}
	}
	return tensors.FromFlatDataAndDimensions(data, NumChannels, h, w)
}

// LandmarksToTensor returns the landmarks as a [N, 2] float32 tensor
func LandmarksToTensor(landmarks []types.Landmark) *tensors.Tensor {
	data := make([]float32, 0, 2*len(landmarks))
	for _, lm := range landmarks {
		data = append(data, float32(lm.X), float32(lm.Y))
	}
	return tensors.FromFlatDataAndDimensions(data, len(landmarks), 2)
}
