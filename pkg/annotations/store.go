// Package annotations reads the landmark annotation CSV into row-indexed records.
//
// The file starts with a fixed block of header lines that carry no data. Every
// following row holds an image filename and a flattened list of x,y landmark
// coordinates, with the same number of columns on every row:
//
//	img/01.jpg,10,20,0,0,30,40
//
// A (0,0) pair marks a landmark that was not annotated. The store keeps the raw
// values; filtering happens when a sample is built.
package annotations

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/menta2k/clothing-landmarks/pkg/types"
)

// DefaultSkipLines is the size of the header block in the landmark CSV exports.
const DefaultSkipLines = 17

// Record is one annotation row
type Record struct {
	Filename string
	// Coords holds x1,y1,x2,y2,... as read from the file.
	Coords []float64
}

// Pairs reshapes Coords into landmarks, keeping sentinel pairs
func (r Record) Pairs() []types.Landmark {
	out := make([]types.Landmark, 0, len(r.Coords)/2)
	for i := 0; i+1 < len(r.Coords); i += 2 {
		out = append(out, types.Landmark{X: r.Coords[i], Y: r.Coords[i+1]})
	}
	return out
}

// Landmarks returns the pairs with the sentinel entries removed: any pair with
// x == 0 or y == 0 is dropped. It returns ErrNoLandmarks if nothing is left.
func (r Record) Landmarks() ([]types.Landmark, error) {
	var out []types.Landmark
	for _, lm := range r.Pairs() {
		if lm.X == 0 || lm.Y == 0 {
			continue
		}
		out = append(out, lm)
	}
	if len(out) == 0 {
		return nil, errors.Wrapf(types.ErrNoLandmarks, "record %q: all %d pairs are zero sentinels",
			r.Filename, len(r.Coords)/2)
	}
	return out, nil
}

// Store holds the parsed records in file order
type Store struct {
	path    string
	records []Record
}

type options struct {
	skipLines int
	columnRow bool
}

// Option configures Load
type Option func(*options)

// WithSkipLines overrides the number of header lines discarded before the data rows.
func WithSkipLines(n int) Option {
	return func(o *options) { o.skipLines = n }
}

// WithColumnRow treats the first line after the skipped block as column names.
func WithColumnRow() Option {
	return func(o *options) { o.columnRow = true }
}

// Load reads and parses the annotation file at path.
func Load(path string, opts ...Option) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(types.ErrConfig, "opening annotations %q: %v", path, err)
	}
	defer func() { _ = f.Close() }()

	store, err := Parse(f, opts...)
	if err != nil {
		return nil, errors.WithMessagef(err, "annotations %q", path)
	}
	store.path = path
	klog.V(1).Infof("loaded %d annotation records from %q", store.Len(), path)
	return store, nil
}

// Parse reads annotations from r. See Load.
func Parse(r io.Reader, opts ...Option) (*Store, error) {
	o := options{skipLines: DefaultSkipLines}
	for _, opt := range opts {
		opt(&o)
	}
	if o.skipLines < 0 {
		return nil, errors.Wrapf(types.ErrConfig, "negative skip lines %d", o.skipLines)
	}

	reader := bufio.NewReader(r)
	toSkip := o.skipLines
	if o.columnRow {
		toSkip++
	}
	for i := 0; i < toSkip; i++ {
		line, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF && line != "" && i == toSkip-1 {
				// Header block without a trailing newline and no rows.
				return &Store{}, nil
			}
			if err == io.EOF {
				return nil, errors.Wrapf(types.ErrParse, "file ends after %d lines, inside the %d line header", i, toSkip)
			}
			return nil, errors.Wrapf(types.ErrParse, "reading header line %d: %v", i+1, err)
		}
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.Wrapf(types.ErrParse, "reading rows: %v", err)
	}
	if strings.TrimSpace(string(body)) == "" {
		return &Store{}, nil
	}

	// No NaN mapping at load time, it would rewrite filenames such as "NA".
	// Coordinates are mapped by parseCoord instead.
	df := dataframe.ReadCSV(strings.NewReader(string(body)),
		dataframe.HasHeader(false),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(nil))
	if df.Err != nil {
		return nil, errors.Wrapf(types.ErrParse, "reading rows: %v", df.Err)
	}
	return fromDataFrame(df, toSkip)
}

// fromDataFrame converts the all-string frame into records. lineOffset is used to
// report file line numbers in errors.
func fromDataFrame(df dataframe.DataFrame, lineOffset int) (*Store, error) {
	nrows, ncols := df.Dims()
	numCoords := ncols - 1
	if numCoords < 0 {
		return nil, errors.Wrap(types.ErrParse, "no columns")
	}
	if numCoords%2 != 0 {
		return nil, errors.Wrapf(types.ErrParse,
			"%d coordinate columns after the filename, expected an even number of x,y values", numCoords)
	}

	records := make([]Record, 0, nrows)
	for row := 0; row < nrows; row++ {
		line := lineOffset + row + 1
		filename := strings.TrimSpace(df.Elem(row, 0).String())
		if filename == "" {
			return nil, errors.Wrapf(types.ErrParse, "line %d: empty filename", line)
		}
		coords := make([]float64, numCoords)
		for col := 1; col < ncols; col++ {
			v, err := parseCoord(df.Elem(row, col).String())
			if err != nil {
				return nil, errors.Wrapf(types.ErrParse, "line %d column %d: %v", line, col+1, err)
			}
			coords[col-1] = v
		}
		records = append(records, Record{Filename: filename, Coords: coords})
	}
	return &Store{records: records}, nil
}

// parseCoord reads one coordinate. Empty, NA and NaN cells count as a missing
// landmark.
func parseCoord(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "nan") || strings.EqualFold(s, "na") {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

// Path returns the file the store was loaded from, empty for Parse.
func (s *Store) Path() string {
	return s.path
}

// Len returns the number of records
func (s *Store) Len() int {
	return len(s.records)
}

// Get returns the record at index i
func (s *Store) Get(i int) (Record, error) {
	if i < 0 || i >= len(s.records) {
		return Record{}, errors.Wrapf(types.ErrIndexOutOfRange, "record %d of %d", i, len(s.records))
	}
	return s.records[i], nil
}

// Records returns all records in file order. The slice must not be modified.
func (s *Store) Records() []Record {
	return s.records
}
