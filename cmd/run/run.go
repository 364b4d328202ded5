// Package run implements the run subcommand: it feeds the configured
// recordings through the registered detector implementations and
// stages the resulting clips for evaluation.
package run

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/tphakala/oldbird-go/internal/conf"
	"github.com/tphakala/oldbird-go/internal/detection"
	"github.com/tphakala/oldbird-go/internal/errors"
	"github.com/tphakala/oldbird-go/internal/logging"
	"github.com/tphakala/oldbird-go/internal/runner"
)

// Command creates the run command.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the registered detectors and stage their clips",
		Long: `Feed the configured BirdVox recordings through the registered Old Bird
detector implementations at every threshold of the detection grid and
stage the resulting clips, one CSV per post-processing variant.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDetectors(cmd, settings)
		},
	}

	return cmd
}

func runDetectors(cmd *cobra.Command, settings *conf.Settings) error {
	log := logging.ForService("run")
	if log == nil {
		log = slog.Default()
	}

	factories := runner.RegisteredFactories()
	if len(factories) == 0 {
		return errors.Newf("no detector implementations registered").
			Component("run").
			Category(errors.CategoryConfiguration).
			Build()
	}

	for _, postProcessed := range []bool{false, true} {
		rows, err := runner.Run(cmd.Context(), settings, factories, postProcessed)
		if err != nil {
			return fmt.Errorf("running detectors (%s): %w", conf.PostString(postProcessed), err)
		}

		path := settings.ClipsFilePath(postProcessed)
		if err := detection.WriteClipsFile(path, rows); err != nil {
			return fmt.Errorf("staging clips: %w", err)
		}
		log.Info("clips staged", "path", path, "clips", len(rows))

		if settings.Output.SQLite.Enabled {
			store, err := detection.OpenStore(settings.Output.SQLite.Path)
			if err != nil {
				return fmt.Errorf("opening clip store: %w", err)
			}
			err = store.SaveClips(rows, postProcessed)
			store.Close()
			if err != nil {
				return fmt.Errorf("storing clips: %w", err)
			}
		}
	}

	return nil
}
