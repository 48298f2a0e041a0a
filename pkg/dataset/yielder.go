package dataset

import (
	"io"
	"sync"

	"github.com/gomlx/gomlx/pkg/core/tensors"
	"github.com/pkg/errors"
)

// Yielder walks a Dataset once per epoch, one sample per Yield, in index
// order. It has the method set of gomlx's train.Dataset, so it can be handed
// to a training loop directly or wrapped for batching and shuffling.
//
// The Dataset must end its chain with transform.ToTensor.
type Yielder struct {
	ds   *Dataset
	name string

	mu   sync.Mutex
	next int
}

// NewYielder returns a Yielder over ds.
func NewYielder(ds *Dataset, name string) *Yielder {
	return &Yielder{ds: ds, name: name}
}

// Name implements train.Dataset.
func (y *Yielder) Name() string { return y.name }

// Reset implements train.Dataset. It restarts the epoch.
func (y *Yielder) Reset() {
	y.mu.Lock()
	y.next = 0
	y.mu.Unlock()
}

// nextIndex returns the next index and increments it, or -1 at the end of
// the epoch. Concurrency safe.
func (y *Yielder) nextIndex() int {
	y.mu.Lock()
	defer y.mu.Unlock()
	if y.next >= y.ds.Len() {
		return -1
	}
	index := y.next
	y.next++
	return index
}

// Yield implements train.Dataset. It returns the Yielder as spec, the image
// tensor [3, H, W] as the only input and the landmarks tensor [N, 2] as the
// only label. At the end of the epoch it returns io.EOF until Reset is called.
func (y *Yielder) Yield() (spec any, inputs, labels []*tensors.Tensor, err error) {
	spec = y
	index := y.nextIndex()
	if index < 0 {
		err = io.EOF
		return
	}
	sample, err := y.ds.Get(index)
	if err != nil {
		err = errors.WithMessagef(err, "failed to read sample #%d", index)
		return
	}
	if !sample.HasTensors() {
		err = errors.Errorf("sample #%d has no tensors, the dataset chain must end with ToTensor", index)
		return
	}
	inputs = []*tensors.Tensor{sample.ImageTensor}
	labels = []*tensors.Tensor{sample.LandmarksTensor}
	return
}
