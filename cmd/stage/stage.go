// Package stage implements the stage subcommand: it imports staged
// Old Bird clip CSV files into the SQLite clip store so later
// evaluation runs do not re-parse the CSVs.
package stage

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/tphakala/oldbird-go/internal/conf"
	"github.com/tphakala/oldbird-go/internal/detection"
	"github.com/tphakala/oldbird-go/internal/logging"
)

// Command creates the stage command.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stage",
		Short: "Import staged clip CSV files into the SQLite clip store",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStaging(settings)
		},
	}

	return cmd
}

func runStaging(settings *conf.Settings) error {
	log := logging.ForService("stage")
	if log == nil {
		log = slog.Default()
	}

	store, err := detection.OpenStore(settings.Output.SQLite.Path)
	if err != nil {
		return fmt.Errorf("opening clip store: %w", err)
	}
	defer store.Close()

	staged := 0
	for _, postProcessed := range []bool{false, true} {
		path := settings.ClipsFilePath(postProcessed)

		f, err := os.Open(path)
		if err != nil {
			if os.IsNotExist(err) {
				log.Warn("clips file not found, skipping", "path", path)
				continue
			}
			return fmt.Errorf("opening %s: %w", path, err)
		}

		rows, err := detection.ReadClips(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}

		if err := store.SaveClips(rows, postProcessed); err != nil {
			return fmt.Errorf("storing clips from %s: %w", path, err)
		}
		log.Info("clips staged", "path", path, "clips", len(rows))
		staged += len(rows)
	}

	if staged == 0 {
		return fmt.Errorf("no clips staged, checked %s and %s",
			settings.ClipsFilePath(false), settings.ClipsFilePath(true))
	}

	fmt.Printf("Staged %d clips into %s\n", staged, settings.Output.SQLite.Path)
	return nil
}
