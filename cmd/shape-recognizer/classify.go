package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ironsheep/shape-recognizer/internal/raster"
	"github.com/ironsheep/shape-recognizer/internal/recognizer"
)

func classifyCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "classify <image>...",
		Short: "Classify rendered drawings",
		Long: `Classify each image against the training data named by --training or the
config file. One line is printed per image. The command fails if any image
could not be classified; "Unclassified" results are not failures.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, rec, err := setup()
			if err != nil {
				return err
			}
			if cfg.TrainingData == "" {
				return fmt.Errorf("no training data: use --training or set training_data in the config")
			}
			if err := rec.Load(cfg.TrainingData); err != nil {
				return err
			}
			return classifyImages(cmd.OutOrStdout(), rec, args, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print one JSON object per image")
	return cmd
}

// classifyLine is the JSON form of one classify result.
type classifyLine struct {
	Path       string  `json:"path"`
	Label      string  `json:"label,omitempty"`
	Matched    bool    `json:"matched"`
	Confidence float64 `json:"confidence"`
	Error      string  `json:"error,omitempty"`
}

func classifyImages(w io.Writer, rec *recognizer.Recognizer, paths []string, asJSON bool) error {
	enc := json.NewEncoder(w)
	failed := 0

	for _, path := range paths {
		line := classifyLine{Path: path}

		img, err := raster.LoadFile(path)
		if err == nil {
			var out *recognizer.Outcome
			if out, err = rec.Classify(img); err == nil {
				line.Label = out.Label
				line.Matched = out.Matched
				line.Confidence = out.Confidence
			}
		}
		if err != nil {
			failed++
			line.Error = err.Error()
		}

		if asJSON {
			if err := enc.Encode(line); err != nil {
				return err
			}
			continue
		}
		switch {
		case line.Error != "":
			fmt.Fprintf(w, "%s: error: %s\n", path, line.Error)
		case line.Matched:
			fmt.Fprintf(w, "%s: %s (confidence %.2f)\n", path, line.Label, line.Confidence)
		default:
			fmt.Fprintf(w, "%s: %s\n", path, line.Label)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d images could not be classified", failed, len(paths))
	}
	return nil
}

func describeCmd() *cobra.Command {
	var withContour bool

	cmd := &cobra.Command{
		Use:   "describe <image>",
		Short: "Print the shape signature of a drawing as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _, rec, err := setup()
			if err != nil {
				return err
			}
			return describeImage(cmd.OutOrStdout(), rec, args[0], withContour)
		},
	}

	cmd.Flags().BoolVar(&withContour, "contour", false, "include the traced contour points")
	return cmd
}

func describeImage(w io.Writer, rec *recognizer.Recognizer, path string, withContour bool) error {
	img, err := raster.LoadFile(path)
	if err != nil {
		return err
	}
	c, err := rec.Extract(img)
	if err != nil {
		return err
	}
	vec, err := rec.Describe(c)
	if err != nil {
		return err
	}

	out := map[string]interface{}{
		"path":           path,
		"features":       vec,
		"dimension":      vec.Dim(),
		"contour_points": c.Len(),
		"perimeter":      c.Perimeter(),
		"area":           c.Area(),
	}
	if withContour {
		out["contour"] = c
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
