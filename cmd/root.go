package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tphakala/oldbird-go/cmd/evaluate"
	"github.com/tphakala/oldbird-go/cmd/run"
	"github.com/tphakala/oldbird-go/cmd/stage"
	"github.com/tphakala/oldbird-go/cmd/thresholds"
	"github.com/tphakala/oldbird-go/internal/conf"
)

// RootCommand creates and returns the root command
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "oldbird",
		Short: "Old Bird detector evaluation CLI",
	}

	// Set up the global flags for the root command.
	if err := setupFlags(rootCmd, settings); err != nil {
		cobra.CheckErr(err)
	}

	subcommands := []*cobra.Command{
		run.Command(settings),
		evaluate.Command(settings),
		stage.Command(settings),
		thresholds.Command(settings),
	}

	rootCmd.AddCommand(subcommands...)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if err := cmd.Flags().Parse(args); err != nil {
			return err
		}
		return conf.ValidateSettings(settings)
	}

	return rootCmd
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) error {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")
	rootCmd.PersistentFlags().StringVar(&settings.Input.RecordingsDir, "recordings", viper.GetString("input.recordingsdir"), "Directory containing the BirdVox-full-night recordings")
	rootCmd.PersistentFlags().StringVar(&settings.Input.AnnotationsDir, "annotations", viper.GetString("input.annotationsdir"), "Directory containing the ground-truth annotation CSV files")
	rootCmd.PersistentFlags().StringVar(&settings.Input.ClipsDir, "clips", viper.GetString("input.clipsdir"), "Directory containing the staged Old Bird clips CSV files")
	rootCmd.PersistentFlags().StringVarP(&settings.Output.Dir, "output", "o", viper.GetString("output.dir"), "Path to output directory")
	rootCmd.PersistentFlags().IntSliceVar(&settings.Input.Units, "units", settings.Input.Units, "Recording units to process")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}

	return nil
}
