// Package visualize renders dataset samples with their landmarks so a person
// can eyeball annotations and crops.
package visualize

import (
	"fmt"
	"image/color"
	"io"
	"math/rand"
	"os"

	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
	"k8s.io/klog/v2"

	"github.com/menta2k/clothing-landmarks/pkg/types"
)

// TileSize is the edge of one sample tile in the rendered grid.
var TileSize = 4 * vg.Inch

// LandmarkColor is the color of the landmark markers.
var LandmarkColor = color.RGBA{R: 255, A: 255}

// Source is what ShowSample draws from. *dataset.Dataset satisfies it.
type Source interface {
	Len() int
	Get(i int) (types.Sample, error)
}

// PickIndices draws n indices uniformly from [0, length). Duplicates are possible.
func PickIndices(length, n int, rng *rand.Rand) ([]int, error) {
	if n <= 0 {
		return nil, errors.Errorf("number of samples must be positive, got %d", n)
	}
	if length <= 0 {
		return nil, errors.Wrap(types.ErrIndexOutOfRange, "dataset is empty")
	}
	if rng == nil {
		return nil, errors.New("nil random source")
	}
	indices := make([]int, n)
	for i := range indices {
		indices[i] = rng.Intn(length)
	}
	return indices, nil
}

// ShowSample draws n random samples from src and writes them as one PNG to w:
// one tile per sample, side by side, with the landmarks as red points and the
// sample index as the tile title.
func ShowSample(src Source, n int, rng *rand.Rand, w io.Writer) error {
	indices, err := PickIndices(src.Len(), n, rng)
	if err != nil {
		return err
	}

	samples := make([]types.Sample, len(indices))
	for i, index := range indices {
		samples[i], err = src.Get(index)
		if err != nil {
			return errors.WithMessagef(err, "show sample #%d", index)
		}
	}
	klog.V(1).Infof("rendering samples %v", indices)
	return Render(samples, w)
}

// SaveSample is ShowSample writing to the file at path.
func SaveSample(src Source, n int, rng *rand.Rand, path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %q", path)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.Wrapf(cerr, "closing %q", path)
		}
	}()
	return ShowSample(src, n, rng, f)
}

// Render writes samples as a 1 x len(samples) PNG grid to w.
func Render(samples []types.Sample, w io.Writer) error {
	if len(samples) == 0 {
		return errors.New("no samples to render")
	}

	row := make([]*plot.Plot, len(samples))
	for i, sample := range samples {
		p, err := samplePlot(sample)
		if err != nil {
			return errors.WithMessagef(err, "sample #%d", sample.Index)
		}
		row[i] = p
	}

	img := vgimg.New(vg.Length(len(samples))*TileSize, TileSize)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows: 1,
		Cols: len(samples),
		PadX: vg.Millimeter,
		PadY: vg.Millimeter,
	}
	canvases := plot.Align([][]*plot.Plot{row}, tiles, dc)
	for i, p := range row {
		p.Draw(canvases[0][i])
	}

	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(w); err != nil {
		return errors.Wrap(err, "writing png")
	}
	return nil
}

// samplePlot builds the tile of one sample. Plot coordinates grow upwards, so
// landmark y values are flipped against the image height.
func samplePlot(sample types.Sample) (*plot.Plot, error) {
	if sample.Image == nil {
		return nil, errors.New("sample has no image")
	}
	size := sample.Bounds()
	h, w := float64(size.Height), float64(size.Width)

	p := plot.New()
	p.Title.Text = titleOf(sample)
	p.HideAxes()
	p.Add(plotter.NewImage(sample.Image, 0, 0, w, h))

	if len(sample.Landmarks) > 0 {
		xys := make(plotter.XYs, len(sample.Landmarks))
		for i, lm := range sample.Landmarks {
			xys[i].X = lm.X
			xys[i].Y = h - lm.Y
		}
		scatter, err := plotter.NewScatter(xys)
		if err != nil {
			return nil, errors.Wrap(err, "landmark scatter")
		}
		scatter.GlyphStyle.Color = LandmarkColor
		scatter.GlyphStyle.Shape = draw.CircleGlyph{}
		scatter.GlyphStyle.Radius = vg.Points(2)
		p.Add(scatter)
	}

	p.X.Min, p.X.Max = 0, w
	p.Y.Min, p.Y.Max = 0, h
	return p, nil
}

func titleOf(sample types.Sample) string {
	return fmt.Sprintf("Sample #%d", sample.Index)
}
