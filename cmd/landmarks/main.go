// Command landmarks checks, renders and exports clothing-landmark datasets.
//
//	landmarks -csv list_landmarks.csv -images img -show 4 -out samples.png
//	landmarks -config config.json -validate
//	landmarks -csv list_landmarks.csv -images img -export out -ext webp
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"k8s.io/klog/v2"

	landmarks "github.com/menta2k/clothing-landmarks"
	"github.com/menta2k/clothing-landmarks/internal/config"
	"github.com/menta2k/clothing-landmarks/internal/utils"
	"github.com/menta2k/clothing-landmarks/pkg/dataset"
	"github.com/menta2k/clothing-landmarks/pkg/processing"
)

// options are the command line flags not stored in the config file
type options struct {
	configPath string
	saveConfig string
	show       int
	validate   bool
	export     bool
	quiet      bool
}

func main() {
	klog.InitFlags(nil)
	if err := run(flag.CommandLine, os.Args[1:], os.Stderr); err != nil {
		klog.Fatalf("%+v", err)
	}
	klog.Flush()
}

// run parses args into a configuration and executes the requested actions.
func run(fs *flag.FlagSet, args []string, progressOut io.Writer) error {
	cfg := config.Default()
	var opts options
	var csvFile, imageDir, outPath, exportDir, ext string
	var skip, rescale, crop, quality int
	var seed int64
	var columnRow, lossless bool

	fs.StringVar(&opts.configPath, "config", "", "JSON configuration file")
	fs.StringVar(&opts.saveConfig, "save-config", "", "write the effective configuration to this file and exit")
	fs.StringVar(&csvFile, "csv", "", "landmark annotation CSV (env "+config.EnvCSVFile+")")
	fs.StringVar(&imageDir, "images", "", "directory the CSV image names are relative to (env "+config.EnvImageDir+")")
	fs.IntVar(&skip, "skip", cfg.Dataset.SkipLines, "header lines to skip in the CSV")
	fs.BoolVar(&columnRow, "column-row", false, "the first line after the skipped header holds column names")
	fs.IntVar(&rescale, "rescale", cfg.Transform.RescaleSize, "shorter image edge after rescaling (px)")
	fs.IntVar(&crop, "crop", cfg.Transform.CropSize, "edge of the square crop window (px)")
	fs.Int64Var(&seed, "seed", 0, "random seed for the crop, 0 seeds from the clock (env "+config.EnvSeed+")")
	fs.IntVar(&opts.show, "show", 0, "render this many random samples")
	fs.StringVar(&outPath, "out", cfg.Output.SampleFile, "PNG file written by -show")
	fs.BoolVar(&opts.validate, "validate", false, "load every sample and report the ones that fail")
	fs.StringVar(&exportDir, "export", "", "write every sample with its landmarks drawn into this directory")
	fs.StringVar(&ext, "ext", cfg.Output.Format, "export format: jpg|png|webp")
	fs.IntVar(&quality, "quality", cfg.Output.Quality, "JPEG/WebP export quality (1-100)")
	fs.BoolVar(&lossless, "lossless", false, "WebP export lossless mode")
	fs.BoolVar(&opts.quiet, "quiet", false, "no progress bars")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	if opts.configPath == "" {
		if p := config.GetConfigPath(); utils.FileExists(p) {
			klog.V(1).Infof("using config %s", p)
			opts.configPath = p
		}
	}
	if opts.configPath != "" {
		loaded, err := config.LoadFromFile(opts.configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if err := cfg.ApplyEnv(); err != nil {
		return err
	}

	// Flags given explicitly win over the file and the environment.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "csv":
			cfg.Dataset.CSVFile = csvFile
		case "images":
			cfg.Dataset.ImageDir = imageDir
		case "skip":
			cfg.Dataset.SkipLines = skip
		case "column-row":
			cfg.Dataset.ColumnRow = columnRow
		case "rescale":
			cfg.Transform.RescaleSize = rescale
		case "crop":
			cfg.Transform.CropSize = crop
		case "seed":
			cfg.Transform.Seed = seed
		case "out":
			cfg.Output.SampleFile = outPath
		case "export":
			cfg.Output.OutputDir = exportDir
			opts.export = true
		case "ext":
			cfg.Output.Format = ext
		case "quality":
			cfg.Output.Quality = quality
		case "lossless":
			cfg.Output.Lossless = lossless
		}
	})

	if opts.saveConfig != "" {
		if err := cfg.SaveToFile(opts.saveConfig); err != nil {
			return err
		}
		klog.Infof("wrote %s", opts.saveConfig)
		return nil
	}
	if opts.export {
		if !processing.IsSupportedFormat(cfg.Output.Format) {
			return errors.Errorf("unsupported -ext %q, use jpg, png or webp", cfg.Output.Format)
		}
		if utils.FileExists(cfg.Output.OutputDir) {
			return errors.Errorf("-export %s is a file, not a directory", cfg.Output.OutputDir)
		}
		if !utils.DirExists(cfg.Output.OutputDir) {
			klog.V(1).Infof("creating %s", cfg.Output.OutputDir)
		}
	}

	toolset, err := landmarks.New(cfg)
	if err != nil {
		return err
	}
	csvSize, err := utils.FileSize(cfg.Dataset.CSVFile)
	if err != nil {
		csvSize = "?"
	}
	klog.Infof("%s (%s): %d samples, images in %s", filepath.Base(cfg.Dataset.CSVFile), csvSize,
		toolset.Store().Len(), cfg.Dataset.ImageDir)

	_, arrayDS, err := toolset.InitializeDataset()
	if err != nil {
		return err
	}

	if !opts.quiet && progressOut == nil {
		opts.quiet = true
	}
	if opts.validate {
		failed := validateAll(arrayDS, newBar(arrayDS.Len(), "validating", progressOut, opts.quiet))
		klog.Infof("validated %d samples, %d failed", arrayDS.Len(), failed)
		if failed > 0 {
			return errors.Errorf("%d of %d samples failed validation", failed, arrayDS.Len())
		}
	}
	if opts.export {
		if err := exportAll(toolset, arrayDS, newBar(arrayDS.Len(), "exporting", progressOut, opts.quiet)); err != nil {
			return err
		}
		klog.Infof("exported %d samples to %s", arrayDS.Len(), cfg.Output.OutputDir)
	}
	if opts.show > 0 {
		if err := toolset.ShowRandomSample(arrayDS, opts.show, cfg.Output.SampleFile); err != nil {
			return err
		}
		klog.Infof("wrote %s", cfg.Output.SampleFile)
	}
	if !opts.validate && !opts.export && opts.show == 0 {
		fmt.Fprintln(fs.Output(), "nothing to do: use -show N, -validate or -export DIR")
	}
	return nil
}

// newBar returns a progress bar over n samples, or nil when quiet.
func newBar(n int, description string, out io.Writer, quiet bool) *progressbar.ProgressBar {
	if quiet {
		return nil
	}
	return progressbar.NewOptions(n,
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("samples"),
		progressbar.OptionSetTheme(progressbar.ThemeASCII),
		progressbar.OptionOnCompletion(func() { _, _ = fmt.Fprintln(out) }),
	)
}

// validateAll loads every sample and logs the failures. It returns how many failed.
func validateAll(ds *dataset.Dataset, bar *progressbar.ProgressBar) (failed int) {
	for i := 0; i < ds.Len(); i++ {
		if _, err := ds.Get(i); err != nil {
			klog.Warningf("sample %d: %v", i, err)
			failed++
		}
		if bar != nil {
			_ = bar.Add(1)
		}
	}
	return failed
}

// exportAll writes every sample with its landmark overlay. Samples that fail
// to load are skipped with a warning.
func exportAll(toolset *landmarks.Toolset, ds *dataset.Dataset, bar *progressbar.ProgressBar) error {
	for i := 0; i < ds.Len(); i++ {
		path, err := toolset.ExportSample(ds, i)
		switch {
		case err == nil:
			klog.V(1).Infof("wrote %s", path)
		case errors.Is(err, os.ErrPermission):
			return err
		default:
			klog.Warningf("skipping sample %d: %v", i, err)
		}
		if bar != nil {
			_ = bar.Add(1)
		}
	}
	return nil
}
