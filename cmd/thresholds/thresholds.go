// Package thresholds implements the thresholds subcommand, which
// prints the configured detection threshold grid.
package thresholds

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tphakala/oldbird-go/internal/conf"
	"github.com/tphakala/oldbird-go/internal/runner"
)

// Command creates the thresholds command.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "thresholds",
		Short: "Print the detection threshold grid",
		Long: `Print the power-law threshold grid the detectors are swept over,
including the stock Old Bird Tseep and Thrush thresholds.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			printThresholds(settings)
			return nil
		},
	}

	return cmd
}

func printThresholds(settings *conf.Settings) {
	grid := runner.DetectionThresholds(settings.Detection.Thresholds)

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "#\tThreshold\t")
	for i, t := range grid {
		note := ""
		switch t {
		case conf.OldBirdTseepThreshold:
			note = "stock Tseep"
		case conf.OldBirdThrushThreshold:
			note = "stock Thrush"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\n", i+1, strconv.FormatFloat(t, 'f', -1, 64), note)
	}
	w.Flush()

	fmt.Printf("\n%d thresholds\n", len(grid))
}
