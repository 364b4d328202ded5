// Package evaluate implements the evaluate subcommand: it classifies
// staged Old Bird clips against the ground-truth annotations and
// writes the precision/recall curves of each post-processing variant.
package evaluate

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/tphakala/oldbird-go/internal/annotation"
	"github.com/tphakala/oldbird-go/internal/conf"
	"github.com/tphakala/oldbird-go/internal/curve"
	"github.com/tphakala/oldbird-go/internal/detection"
	"github.com/tphakala/oldbird-go/internal/evaluation"
	"github.com/tphakala/oldbird-go/internal/logging"
	"github.com/tphakala/oldbird-go/internal/matcher"
	"github.com/tphakala/oldbird-go/internal/output"
	"github.com/tphakala/oldbird-go/internal/runner"
)

// Command creates the evaluate command.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate the Old Bird detectors against ground truth",
		Long: `Classify the staged Old Bird Tseep and Thrush clips against the
BirdVox-full-night annotations and write precision/recall curves over
the full threshold grid, one CSV per post-processing variant.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvaluation(cmd, settings)
		},
	}

	return cmd
}

func runEvaluation(cmd *cobra.Command, settings *conf.Settings) error {
	log := logging.ForService("evaluate")
	if log == nil {
		log = slog.Default()
	}

	loader := annotation.NewLoader(settings)
	annotations, err := loader.LoadAll()
	if err != nil {
		return fmt.Errorf("loading annotations: %w", err)
	}
	idx, err := annotation.BuildIndex(annotations)
	if err != nil {
		return fmt.Errorf("indexing annotations: %w", err)
	}
	log.Info("annotations loaded",
		"calls", idx.Total(),
		"recordings", len(idx.Recordings()))

	variants := []bool{false, true}
	detections, err := loadDetections(settings, variants)
	if err != nil {
		return err
	}
	log.Info("staged clips loaded", "clips", len(detections))

	pipeline := evaluation.New(idx, matcher.TolerancesFromSettings(settings), evaluation.NewStaticSource(detections))

	recordings := make([]string, 0, len(settings.Input.Units))
	for _, unit := range settings.Input.Units {
		recordings = append(recordings, conf.RecordingID(unit))
	}

	result, err := pipeline.Run(cmd.Context(), evaluation.Request{
		Recordings: recordings,
		Detectors:  detection.Detectors,
		Grid:       runner.DetectionThresholds(settings.Detection.Thresholds),
		Variants:   variants,
		FreqSplit:  settings.Evaluation.FreqSplit,
		Workers:    settings.Evaluation.Workers,
	})
	if err != nil {
		return fmt.Errorf("evaluation failed: %w", err)
	}

	stock := map[string]float64{
		string(detection.Tseep):  conf.OldBirdTseepThreshold,
		string(detection.Thrush): conf.OldBirdThrushThreshold,
	}

	for _, vr := range result.Variants {
		for _, failure := range vr.Failures {
			log.Warn("evaluation cell failed",
				"recording", failure.RecordingID,
				"detector", failure.Detector,
				"post_processed", failure.PostProcessed,
				"error", failure.Err)
		}

		curves := make([]curve.Curve, 0, len(vr.PerDetector)+1)
		for _, det := range detection.Detectors {
			if c, ok := vr.PerDetector[det]; ok {
				curves = append(curves, c)
			}
		}
		if len(vr.Combined.Points) > 0 {
			curves = append(curves, vr.Combined)
		}

		path := settings.CurveFilePath(vr.PostProcessed)
		if err := output.WriteCurvesFile(path, curves); err != nil {
			return fmt.Errorf("writing curves: %w", err)
		}
		log.Info("curves written", "path", path, "post_processed", vr.PostProcessed)

		fmt.Fprintf(os.Stdout, "\nStock operating points (%s):\n", conf.PostString(vr.PostProcessed))
		output.RenderSummary(os.Stdout, curves, stock)
	}

	return nil
}

// loadDetections reads the staged clips of every requested variant,
// from the SQLite store when one is configured and from the staged CSV
// files otherwise.
func loadDetections(settings *conf.Settings, variants []bool) ([]detection.Detection, error) {
	if settings.Output.SQLite.Enabled {
		return loadFromStore(settings, variants)
	}

	var detections []detection.Detection
	for _, postProcessed := range variants {
		path := settings.ClipsFilePath(postProcessed)
		ds, err := detection.ReadClipsFile(path, settings.Detection.SampleRate, postProcessed)
		if err != nil {
			return nil, fmt.Errorf("reading staged clips: %w", err)
		}
		detections = append(detections, ds...)
	}
	return detections, nil
}

func loadFromStore(settings *conf.Settings, variants []bool) ([]detection.Detection, error) {
	store, err := detection.OpenStore(settings.Output.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("opening clip store: %w", err)
	}
	defer store.Close()

	var detections []detection.Detection
	for _, postProcessed := range variants {
		rows, err := store.Clips(postProcessed)
		if err != nil {
			return nil, fmt.Errorf("reading clip store: %w", err)
		}
		for _, row := range rows {
			d, err := row.Detection(settings.Detection.SampleRate, postProcessed)
			if err != nil {
				return nil, err
			}
			detections = append(detections, d)
		}
	}
	return detections, nil
}
