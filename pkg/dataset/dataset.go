// Package dataset turns annotation records into samples: it resolves the
// image of a record, decodes it, filters the sentinel landmarks and runs the
// configured transform chain.
package dataset

import (
	"path/filepath"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/menta2k/clothing-landmarks/pkg/analyzer"
	"github.com/menta2k/clothing-landmarks/pkg/annotations"
	"github.com/menta2k/clothing-landmarks/pkg/transform"
	"github.com/menta2k/clothing-landmarks/pkg/types"
)

// Dataset gives indexed access to the samples of an annotation store.
//
// Samples are loaded on every Get, nothing is cached. A Dataset whose chain
// contains a RandomCrop shares that crop's random source and must not be used
// from several goroutines at once.
type Dataset struct {
	store      *annotations.Store
	imageDir   string
	analyzer   *analyzer.ImageAnalyzer
	transforms transform.Compose
}

// Option configures a Dataset
type Option func(*Dataset)

// WithTransforms sets the chain applied to every sample, in order.
func WithTransforms(transforms ...transform.Transform) Option {
	return func(ds *Dataset) {
		ds.transforms = append(transform.Compose(nil), transforms...)
	}
}

// WithAnalyzer replaces the default image decoder. A nil analyzer is ignored.
func WithAnalyzer(a *analyzer.ImageAnalyzer) Option {
	return func(ds *Dataset) {
		if a != nil {
			ds.analyzer = a
		}
	}
}

// New returns a Dataset reading images relative to imageDir.
func New(store *annotations.Store, imageDir string, opts ...Option) (*Dataset, error) {
	if store == nil {
		return nil, errors.Wrap(types.ErrConfig, "dataset: nil annotation store")
	}
	ds := &Dataset{
		store:    store,
		imageDir: imageDir,
		analyzer: analyzer.New(),
	}
	for _, opt := range opts {
		opt(ds)
	}
	return ds, nil
}

// Len returns the number of samples
func (ds *Dataset) Len() int {
	return ds.store.Len()
}

// ImageDir returns the directory images are resolved against
func (ds *Dataset) ImageDir() string {
	return ds.imageDir
}

// Transforms returns the chain applied by Get
func (ds *Dataset) Transforms() transform.Compose {
	return ds.transforms
}

// Get loads sample i and runs the transform chain on it.
//
// It returns ErrIndexOutOfRange for i outside [0, Len) and ErrNoLandmarks when
// every landmark of the row is a sentinel, before the image is read. ErrImage
// means the image cannot be read or decoded.
func (ds *Dataset) Get(i int) (types.Sample, error) {
	record, err := ds.store.Get(i)
	if err != nil {
		return types.Sample{}, err
	}

	landmarks, err := record.Landmarks()
	if err != nil {
		return types.Sample{}, errors.WithMessagef(err, "sample %d", i)
	}
	path := filepath.Join(ds.imageDir, record.Filename)
	img, err := ds.analyzer.LoadImage(path)
	if err != nil {
		return types.Sample{}, errors.WithMessagef(err, "sample %d", i)
	}

	if klog.V(2).Enabled() {
		info := ds.analyzer.GetImageInfo(img)
		klog.Infof("sample %d: %s %dx%d, %d landmarks", i, record.Filename, info.Width, info.Height, len(landmarks))
	}

	sample := types.Sample{
		Index:     i,
		Filename:  record.Filename,
		Image:     img,
		Landmarks: landmarks,
	}
	if len(ds.transforms) == 0 {
		return sample, nil
	}
	return ds.transforms.Apply(sample)
}
