// Package transform holds the per-sample preprocessing steps applied between
// loading a dataset sample and handing it to a training loop.
//
// Every step implements Transform. Steps hold no state across calls apart from
// the random source given to RandomCrop, and they are chained with Compose:
//
//	chain := transform.Compose{
//		transform.NewRescale(types.EdgeSize(256)),
//		transform.NewRandomCrop(types.EdgeSize(224), rng),
//		transform.ToTensor{},
//	}
//	sample, err = chain.Apply(sample)
package transform

import (
	"math/rand"

	"github.com/pkg/errors"

	"github.com/menta2k/clothing-landmarks/pkg/types"
)

// Transform is one preprocessing step
type Transform interface {
	Apply(sample types.Sample) (types.Sample, error)
}

// Func adapts a plain function to a Transform
type Func func(sample types.Sample) (types.Sample, error)

// Apply implements Transform
func (f Func) Apply(sample types.Sample) (types.Sample, error) {
	return f(sample)
}

// Compose runs its transforms in order. The first failure stops the chain.
type Compose []Transform

// Apply implements Transform
func (c Compose) Apply(sample types.Sample) (types.Sample, error) {
	for i, t := range c {
		out, err := t.Apply(sample)
		if err != nil {
			return types.Sample{}, errors.WithMessagef(err, "transform #%d (%T) on sample %d %q",
				i, t, sample.Index, sample.Filename)
		}
		sample = out
	}
	return sample, nil
}

// Standard returns the training chain: rescale the shorter edge to rescale,
// random-crop a crop x crop window, and convert to tensors when withTensors is set.
func Standard(rescale, crop int, rng *rand.Rand, withTensors bool) Compose {
	chain := Compose{
		NewRescale(types.EdgeSize(rescale)),
		NewRandomCrop(types.EdgeSize(crop), rng),
	}
	if withTensors {
		chain = append(chain, ToTensor{})
	}
	return chain
}
