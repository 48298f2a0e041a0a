package landmarks

import (
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/clothing-landmarks/pkg/dataset"
	"github.com/menta2k/clothing-landmarks/pkg/types"
)

// writeDataset creates a csv with the standard header block, two annotated
// images and returns a config pointing at them.
func writeDataset(t *testing.T) *Config {
	t.Helper()
	dir := t.TempDir()
	imgDir := filepath.Join(dir, "img")
	require.NoError(t, os.MkdirAll(filepath.Join(imgDir, "Tee"), 0o755))

	require.NoError(t, imaging.Save(imaging.New(300, 300, color.NRGBA{90, 90, 200, 255}), filepath.Join(imgDir, "img1.jpg")))
	require.NoError(t, imaging.Save(imaging.New(400, 300, color.NRGBA{200, 90, 90, 255}), filepath.Join(imgDir, "Tee", "002.png")))

	csv := strings.Repeat("header\n", 17) +
		"img1.jpg,10,20,0,0,30,40\n" +
		"Tee/002.png,120,80,260,200,0,0\n"
	csvFile := filepath.Join(dir, "landmarks.csv")
	require.NoError(t, os.WriteFile(csvFile, []byte(csv), 0o644))

	cfg := DefaultConfig()
	cfg.Dataset.CSVFile = csvFile
	cfg.Dataset.ImageDir = imgDir
	cfg.Transform.Seed = 5
	cfg.Output.OutputDir = filepath.Join(dir, "out")
	return cfg
}

func TestNew(t *testing.T) {
	toolset, err := New(writeDataset(t))
	require.NoError(t, err)
	assert.Equal(t, 2, toolset.Store().Len())
	assert.NotNil(t, toolset.Rand())
	assert.Equal(t, int64(5), toolset.Config().Transform.Seed)
}

func TestNewRejectsBadConfig(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, types.ErrConfig)

	_, err = New(DefaultConfig())
	assert.ErrorIs(t, err, types.ErrConfig)

	cfg := writeDataset(t)
	cfg.Transform.CropSize = cfg.Transform.RescaleSize + 1
	_, err = New(cfg)
	assert.ErrorIs(t, err, types.ErrConfig)
}

func TestInitializeDataset(t *testing.T) {
	toolset, err := New(writeDataset(t))
	require.NoError(t, err)

	tensorDS, arrayDS, err := toolset.InitializeDataset()
	require.NoError(t, err)
	require.Equal(t, 2, tensorDS.Len())
	require.Equal(t, 2, arrayDS.Len())

	for i := 0; i < 2; i++ {
		sample, err := arrayDS.Get(i)
		require.NoError(t, err)
		assert.Equal(t, types.Size{Height: 224, Width: 224}, sample.Bounds())
		assert.Len(t, sample.Landmarks, 2)
		assert.False(t, sample.HasTensors())

		sample, err = tensorDS.Get(i)
		require.NoError(t, err)
		assert.Equal(t, []int{3, 224, 224}, sample.ImageTensor.Shape().Dimensions)
		assert.Equal(t, []int{2, 2}, sample.LandmarksTensor.Shape().Dimensions)
	}

	_, inputs, labels, err := dataset.NewYielder(tensorDS, "train").Yield()
	require.NoError(t, err)
	assert.Len(t, inputs, 1)
	assert.Len(t, labels, 1)
}

func TestShowRandomSample(t *testing.T) {
	cfg := writeDataset(t)
	toolset, err := New(cfg)
	require.NoError(t, err)
	_, arrayDS, err := toolset.InitializeDataset()
	require.NoError(t, err)

	path := filepath.Join(cfg.Output.OutputDir, "nested", "samples.png")
	require.NoError(t, toolset.ShowRandomSample(arrayDS, 3, path))
	img, err := imaging.Open(path)
	require.NoError(t, err)
	assert.Greater(t, img.Bounds().Dx(), img.Bounds().Dy())

	assert.Error(t, toolset.ShowRandomSample(arrayDS, 0, path))
}

func TestExportSample(t *testing.T) {
	cfg := writeDataset(t)
	cfg.Output.Format = "webp"
	toolset, err := New(cfg)
	require.NoError(t, err)
	_, arrayDS, err := toolset.InitializeDataset()
	require.NoError(t, err)

	path, err := toolset.ExportSample(arrayDS, 1)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cfg.Output.OutputDir, "Tee_002_landmarks.webp"), path)
	_, err = os.Stat(path)
	require.NoError(t, err)

	_, err = toolset.ExportSample(arrayDS, 7)
	assert.ErrorIs(t, err, types.ErrIndexOutOfRange)
}

func TestGetVersion(t *testing.T) {
	assert.Equal(t, Version, GetVersion())
}
