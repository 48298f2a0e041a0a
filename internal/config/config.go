package config

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"

	"github.com/menta2k/clothing-landmarks/pkg/types"
)

// Environment variables read by ApplyEnv
const (
	EnvCSVFile  = "LANDMARKS_CSV_FILE"
	EnvImageDir = "LANDMARKS_IMAGE_DIR"
	EnvSeed     = "LANDMARKS_SEED"
)

// Config holds the application configuration
type Config struct {
	Dataset   DatasetConfig   `json:"dataset"`
	Transform TransformConfig `json:"transform"`
	Output    OutputConfig    `json:"output"`
}

// DatasetConfig locates the annotations and the images they refer to
type DatasetConfig struct {
	CSVFile   string `json:"csv_file" validate:"required,file"`
	ImageDir  string `json:"image_dir" validate:"required,dir"`
	SkipLines int    `json:"skip_lines" validate:"gte=0"`
	ColumnRow bool   `json:"column_row"`
}

// TransformConfig holds the preprocessing chain parameters
type TransformConfig struct {
	RescaleSize int     `json:"rescale_size" validate:"gt=0"`
	CropSize    int     `json:"crop_size" validate:"gt=0,ltefield=RescaleSize"`
	Margin      int     `json:"margin" validate:"gte=0"`
	MaxSpan     float64 `json:"max_span" validate:"gt=0"`
	// Seed of the crop random source. Zero seeds from the clock.
	Seed int64 `json:"seed"`
}

// OutputConfig holds configuration for rendered and exported images
type OutputConfig struct {
	Format     string `json:"format" validate:"oneof=jpg jpeg png webp"`
	Quality    int    `json:"quality" validate:"min=1,max=100"`
	Lossless   bool   `json:"lossless"`
	OutputDir  string `json:"output_dir"`
	Prefix     string `json:"prefix"`
	Suffix     string `json:"suffix"`
	SampleFile string `json:"sample_file"`
}

// Default returns a configuration with default values. The dataset paths are
// left empty and must be set before Validate passes.
func Default() *Config {
	return &Config{
		Dataset: DatasetConfig{
			SkipLines: 17,
		},
		Transform: TransformConfig{
			RescaleSize: 256,
			CropSize:    224,
			Margin:      10,
			MaxSpan:     204,
		},
		Output: OutputConfig{
			Format:     "png",
			Quality:    90,
			OutputDir:  "./output",
			Suffix:     "_landmarks",
			SampleFile: "samples.png",
		},
	}
}

// LoadFromFile loads configuration from a JSON file. Fields missing from the
// file keep their Default values.
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrapf(types.ErrConfig, "failed to read config file: %v", err)
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, errors.Wrapf(types.ErrConfig, "failed to parse config file %q: %v", filename, err)
	}

	return config, nil
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(filename string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(err, "failed to create config directory")
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return errors.Wrap(err, "failed to write config file")
	}

	return nil
}

// LoadDotEnv loads the given .env files (".env" when none is given) into the
// process environment. Missing files are ignored.
func LoadDotEnv(filenames ...string) error {
	if len(filenames) == 0 {
		filenames = []string{".env"}
	}
	for _, name := range filenames {
		if err := godotenv.Load(name); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return errors.Wrapf(types.ErrConfig, "loading %q: %v", name, err)
		}
	}
	return nil
}

// ApplyEnv overrides the dataset location and seed from the environment.
func (c *Config) ApplyEnv() error {
	if v := strings.TrimSpace(os.Getenv(EnvCSVFile)); v != "" {
		c.Dataset.CSVFile = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvImageDir)); v != "" {
		c.Dataset.ImageDir = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvSeed)); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return errors.Wrapf(types.ErrConfig, "%s=%q: %v", EnvSeed, v, err)
		}
		c.Transform.Seed = seed
	}
	return nil
}

var validate = newValidator()

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return errors.Wrapf(types.ErrConfig, "%v", err)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describe(fe))
	}
	return errors.Wrap(types.ErrConfig, strings.Join(msgs, "; "))
}

// describe turns a failed validation tag into a message naming the JSON field,
// e.g. "dataset.csv_file is required".
func describe(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "file":
		return fmt.Sprintf("%s must be an existing file, got %q", field, fe.Value())
	case "dir":
		return fmt.Sprintf("%s must be an existing directory, got %q", field, fe.Value())
	case "ltefield":
		return fmt.Sprintf("%s (%v) must not exceed %s", field, fe.Value(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", field, fe.Param(), fe.Value())
	default:
		return fmt.Sprintf("%s fails %s=%s, got %v", field, fe.Tag(), fe.Param(), fe.Value())
	}
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "clothing-landmarks", "config.json")
}
