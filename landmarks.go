// Package landmarks prepares clothing-landmark datasets for training.
//
// A dataset is an annotation CSV, whose rows name an image and list the x,y
// pixel coordinates of its landmarks, plus the directory holding the images.
// Samples are read lazily and run through a preprocessing chain: rescale the
// shorter edge, cut a random window that keeps every landmark inside, and
// optionally convert to gomlx tensors.
//
// Basic usage:
//
//	package main
//
//	import (
//		"log"
//
//		"github.com/menta2k/clothing-landmarks"
//	)
//
//	func main() {
//		cfg := landmarks.DefaultConfig()
//		cfg.Dataset.CSVFile = "list_landmarks.csv"
//		cfg.Dataset.ImageDir = "img"
//
//		toolset, err := landmarks.New(cfg)
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		tensorDS, arrayDS, err := toolset.InitializeDataset()
//		if err != nil {
//			log.Fatal(err)
//		}
//		_ = tensorDS // hand dataset.NewYielder(tensorDS, "train") to a training loop
//
//		if err := toolset.ShowRandomSample(arrayDS, 4, "samples.png"); err != nil {
//			log.Fatal(err)
//		}
//	}
//
// The package consists of these components:
//
//  1. Annotations (pkg/annotations): reads the CSV into records
//  2. Dataset (pkg/dataset): indexed samples plus a training loop adapter
//  3. Transform (pkg/transform): Rescale, RandomCrop and ToTensor
//  4. Cropper (pkg/cropper): the landmark-aware window selection
//  5. Visualize and processing (pkg/visualize, pkg/processing): rendering and export
package landmarks

import (
	"math/rand"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/menta2k/clothing-landmarks/internal/config"
	"github.com/menta2k/clothing-landmarks/internal/utils"
	"github.com/menta2k/clothing-landmarks/pkg/annotations"
	"github.com/menta2k/clothing-landmarks/pkg/cropper"
	"github.com/menta2k/clothing-landmarks/pkg/dataset"
	"github.com/menta2k/clothing-landmarks/pkg/processing"
	"github.com/menta2k/clothing-landmarks/pkg/transform"
	"github.com/menta2k/clothing-landmarks/pkg/types"
	"github.com/menta2k/clothing-landmarks/pkg/visualize"
)

// Version of the landmarks library
const Version = "1.0.0"

// Config is the toolset configuration
type Config = config.Config

// DefaultConfig returns a configuration with default values and no dataset paths.
func DefaultConfig() *Config {
	return config.Default()
}

// Toolset builds the datasets described by one configuration and shares a
// single random source between them. It is not safe for concurrent use.
type Toolset struct {
	config    *Config
	store     *annotations.Store
	cropper   *cropper.LandmarkCropper
	processor *processing.Processor
	rng       *rand.Rand
}

// New validates cfg and loads its annotation file.
func New(cfg *Config) (*Toolset, error) {
	if cfg == nil {
		return nil, errors.Wrap(types.ErrConfig, "nil config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := []annotations.Option{annotations.WithSkipLines(cfg.Dataset.SkipLines)}
	if cfg.Dataset.ColumnRow {
		opts = append(opts, annotations.WithColumnRow())
	}
	store, err := annotations.Load(cfg.Dataset.CSVFile, opts...)
	if err != nil {
		return nil, err
	}

	seed := cfg.Transform.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	klog.V(1).Infof("toolset: %d records, images in %q, seed %d", store.Len(), cfg.Dataset.ImageDir, seed)

	return &Toolset{
		config: cfg,
		store:  store,
		cropper: cropper.NewWithConfig(cropper.CropConfig{
			Margin:  cfg.Transform.Margin,
			MaxSpan: cfg.Transform.MaxSpan,
		}),
		processor: processing.NewProcessor(),
		rng:       rand.New(rand.NewSource(seed)),
	}, nil
}

// Config returns the configuration the toolset was built from
func (t *Toolset) Config() *Config {
	return t.config
}

// Store returns the loaded annotations
func (t *Toolset) Store() *annotations.Store {
	return t.store
}

// Rand returns the random source shared by the datasets and ShowRandomSample
func (t *Toolset) Rand() *rand.Rand {
	return t.rng
}

// chain returns Rescale then RandomCrop, plus ToTensor when withTensors is set.
func (t *Toolset) chain(withTensors bool) []transform.Transform {
	tr := t.config.Transform
	chain := []transform.Transform{
		transform.NewRescale(types.EdgeSize(tr.RescaleSize)),
		transform.RandomCrop{
			Size:    types.EdgeSize(tr.CropSize),
			Rand:    t.rng,
			Cropper: t.cropper,
		},
	}
	if withTensors {
		chain = append(chain, transform.ToTensor{})
	}
	return chain
}

// InitializeDataset returns the two datasets over the annotations: the tensor
// dataset, whose samples end as gomlx tensors for training, and the array
// dataset, whose samples keep the cropped image for display.
func (t *Toolset) InitializeDataset() (tensorDS, arrayDS *dataset.Dataset, err error) {
	dir := t.config.Dataset.ImageDir
	tensorDS, err = dataset.New(t.store, dir, dataset.WithTransforms(t.chain(true)...))
	if err != nil {
		return nil, nil, err
	}
	arrayDS, err = dataset.New(t.store, dir, dataset.WithTransforms(t.chain(false)...))
	if err != nil {
		return nil, nil, err
	}
	return tensorDS, arrayDS, nil
}

// ShowRandomSample renders n random samples of ds side by side into a PNG at path.
func (t *Toolset) ShowRandomSample(ds *dataset.Dataset, n int, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := utils.EnsureDir(dir); err != nil {
			return errors.Wrapf(err, "creating %q", dir)
		}
	}
	return visualize.SaveSample(ds, n, t.rng, path)
}

// ExportSample writes sample i of ds with its landmarks drawn on it into the
// configured output directory and returns the written path.
func (t *Toolset) ExportSample(ds *dataset.Dataset, i int) (string, error) {
	sample, err := ds.Get(i)
	if err != nil {
		return "", err
	}
	overlay, err := t.processor.CreateLandmarkOverlay(sample)
	if err != nil {
		return "", errors.WithMessagef(err, "sample %d", i)
	}

	out := t.config.Output
	if err := utils.EnsureDir(out.OutputDir); err != nil {
		return "", errors.Wrapf(err, "creating %q", out.OutputDir)
	}
	path := utils.GenerateOutputFilename(sample.Filename, out.OutputDir, out.Prefix, out.Suffix, out.Format)
	if err := t.processor.SaveImage(overlay, path, out.Format, out.Quality, out.Lossless); err != nil {
		return "", errors.WithMessagef(err, "sample %d", i)
	}
	klog.V(2).Infof("exported sample %d to %q", i, path)
	return path, nil
}

// GetVersion returns the library version
func GetVersion() string {
	return Version
}
