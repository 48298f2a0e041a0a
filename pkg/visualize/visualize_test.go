package visualize

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/clothing-landmarks/pkg/types"
)

type fakeSource struct {
	samples []types.Sample
	gets    []int
	err     error
}

func (f *fakeSource) Len() int { return len(f.samples) }

func (f *fakeSource) Get(i int) (types.Sample, error) {
	f.gets = append(f.gets, i)
	if f.err != nil {
		return types.Sample{}, f.err
	}
	return f.samples[i], nil
}

func newFakeSource(n int) *fakeSource {
	src := &fakeSource{}
	for i := 0; i < n; i++ {
		src.samples = append(src.samples, types.Sample{
			Index:     i,
			Image:     imaging.New(224, 224, color.NRGBA{G: uint8(40 * i), A: 255}),
			Landmarks: []types.Landmark{{X: 20, Y: 30}, {X: 100, Y: 200}},
		})
	}
	return src
}

func TestPickIndices(t *testing.T) {
	indices, err := PickIndices(5, 100, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	require.Len(t, indices, 100)
	for _, i := range indices {
		assert.GreaterOrEqual(t, i, 0)
		assert.Less(t, i, 5)
	}

	again, err := PickIndices(5, 100, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	assert.Equal(t, indices, again)

	_, err = PickIndices(5, 0, rand.New(rand.NewSource(1)))
	assert.Error(t, err)
	_, err = PickIndices(0, 3, rand.New(rand.NewSource(1)))
	assert.ErrorIs(t, err, types.ErrIndexOutOfRange)
	_, err = PickIndices(5, 3, nil)
	assert.Error(t, err)
}

func TestShowSample(t *testing.T) {
	src := newFakeSource(4)
	var buf bytes.Buffer
	require.NoError(t, ShowSample(src, 3, rand.New(rand.NewSource(7)), &buf))
	assert.Len(t, src.gets, 3)

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	bounds := img.Bounds()
	assert.Greater(t, bounds.Dx(), 2*bounds.Dy(), "tiles are laid out side by side")
}

func TestShowSampleErrors(t *testing.T) {
	src := newFakeSource(2)
	src.err = errors.Wrap(types.ErrImage, "boom")
	err := ShowSample(src, 1, rand.New(rand.NewSource(1)), &bytes.Buffer{})
	assert.ErrorIs(t, err, types.ErrImage)

	err = ShowSample(&fakeSource{}, 1, rand.New(rand.NewSource(1)), &bytes.Buffer{})
	assert.ErrorIs(t, err, types.ErrIndexOutOfRange)
}

func TestSaveSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "samples.png")
	require.NoError(t, SaveSample(newFakeSource(2), 2, rand.New(rand.NewSource(3)), path))

	img, err := imaging.Open(path)
	require.NoError(t, err)
	assert.Greater(t, img.Bounds().Dx(), 0)
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	err := Render([]types.Sample{{Index: 9, Image: image.NewNRGBA(image.Rect(0, 0, 50, 80))}}, &buf)
	require.NoError(t, err)
	_, err = png.Decode(&buf)
	require.NoError(t, err)

	assert.Error(t, Render(nil, &buf))
	assert.Error(t, Render([]types.Sample{{Index: 1}}, &buf))
}

func TestTitle(t *testing.T) {
	assert.Equal(t, "Sample #12", titleOf(types.Sample{Index: 12}))
}
