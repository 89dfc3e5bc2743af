package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/shape-recognizer/internal/contour"
	"github.com/ironsheep/shape-recognizer/internal/descriptor"
	"github.com/ironsheep/shape-recognizer/internal/raster"
	"github.com/ironsheep/shape-recognizer/internal/recognizer"
	"github.com/ironsheep/shape-recognizer/internal/reference"
)

// trainOptions controls how a training set is built from sample images.
type trainOptions struct {
	Output   string
	Jobs     int
	Contours bool
	Strict   bool
}

// trainSample is one image found under a label directory.
type trainSample struct {
	Label string
	Path  string
}

// trainSummary reports what buildTrainingSet did.
type trainSummary struct {
	Written int
	Skipped int
	Labels  []string
}

func trainCmd() *cobra.Command {
	opts := trainOptions{}

	cmd := &cobra.Command{
		Use:   "train <dir>",
		Short: "Build a training data file from labeled sample images",
		Long: `Build a training data file from a directory of sample drawings.

Each subdirectory of <dir> is a label and every PNG, JPEG or GIF inside it is
a sample of that label:

  samples/
    circle/ a.png b.png
    square/ a.png

Images are processed concurrently. The output format follows the extension
of --output: .json, .yaml/.yml or .db (SQLite). SQLite output always stores
feature vectors.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, logger, rec, err := setup()
			if err != nil {
				return err
			}
			sum, err := buildTrainingSet(cmd.Context(), rec, logger, args[0], opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d samples (%d labels) to %s\n", sum.Written, len(sum.Labels), opts.Output)
			if sum.Skipped > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "Skipped %d images with no usable shape\n", sum.Skipped)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "training.json", "output file (.json, .yaml, .db)")
	cmd.Flags().IntVarP(&opts.Jobs, "jobs", "j", runtime.NumCPU(), "images processed in parallel")
	cmd.Flags().BoolVar(&opts.Contours, "contours", false, "store raw contours instead of feature vectors")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "fail on the first image with no usable shape")
	return cmd
}

// findSamples lists images under each label directory of root, sorted by
// label then file name so output order is reproducible.
func findSamples(root string) ([]trainSample, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read sample directory: %w", err)
	}

	var samples []trainSample
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		files, err := os.ReadDir(filepath.Join(root, e.Name()))
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			if f.IsDir() || !isImageFile(f.Name()) {
				continue
			}
			samples = append(samples, trainSample{
				Label: e.Name(),
				Path:  filepath.Join(root, e.Name(), f.Name()),
			})
		}
	}

	sort.SliceStable(samples, func(i, j int) bool {
		if samples[i].Label != samples[j].Label {
			return samples[i].Label < samples[j].Label
		}
		return samples[i].Path < samples[j].Path
	})
	return samples, nil
}

func isImageFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".jpg", ".jpeg", ".gif":
		return true
	}
	return false
}

// buildTrainingSet describes every sample under dir and writes the result
// to opts.Output.
func buildTrainingSet(ctx context.Context, rec *recognizer.Recognizer, logger *slog.Logger, dir string, opts trainOptions) (*trainSummary, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	samples, err := findSamples(dir)
	if err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("no sample images under %s", dir)
	}
	if opts.Contours && isDatabaseFile(opts.Output) {
		return nil, fmt.Errorf("database output stores feature vectors; drop --contours")
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = 1
	}

	// Each goroutine writes only its own slot.
	records := make([]*reference.Record, len(samples))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, s := range samples {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := describeSample(rec, s, opts.Contours)
			if err != nil {
				if !opts.Strict && isShapeError(err) {
					logger.Warn("skipping sample", "path", s.Path, "label", s.Label, "error", err)
					return nil
				}
				return fmt.Errorf("%s: %w", s.Path, err)
			}
			records[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	doc := reference.Document{Dimension: rec.Store().Dimension()}
	sum := &trainSummary{}
	seen := make(map[string]bool)
	for _, r := range records {
		if r == nil {
			sum.Skipped++
			continue
		}
		doc.Entries = append(doc.Entries, *r)
		if !seen[r.Label] {
			seen[r.Label] = true
			sum.Labels = append(sum.Labels, r.Label)
		}
	}
	if len(doc.Entries) == 0 {
		return nil, fmt.Errorf("%w: every sample was skipped", reference.ErrEmptyDataset)
	}

	if err := reference.WriteFile(opts.Output, doc); err != nil {
		return nil, err
	}
	sum.Written = len(doc.Entries)
	logger.Info("training data written", "path", opts.Output, "samples", sum.Written, "skipped", sum.Skipped)
	return sum, nil
}

// describeSample turns one image into a training record.
func describeSample(rec *recognizer.Recognizer, s trainSample, rawContour bool) (*reference.Record, error) {
	img, err := raster.LoadFile(s.Path)
	if err != nil {
		return nil, err
	}
	c, err := rec.Extract(img)
	if err != nil {
		return nil, err
	}
	// Contour records are described too; degenerate samples must not reach
	// the output file.
	vec, err := rec.Describe(c)
	if err != nil {
		return nil, err
	}
	if rawContour {
		r := reference.ContourRecord(s.Label, c)
		return &r, nil
	}
	r := reference.FeatureRecord(s.Label, vec)
	return &r, nil
}

// isShapeError reports whether err means the image held no usable shape,
// as opposed to an I/O or decoding failure.
func isShapeError(err error) bool {
	return errors.Is(err, contour.ErrEmptyInput) || errors.Is(err, descriptor.ErrDegenerateContour)
}

func isDatabaseFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".db", ".sqlite", ".sqlite3":
		return true
	}
	return false
}
