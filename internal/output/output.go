// Package output renders performance curves for human and downstream
// consumption: a CSV file per post-processing variant and a compact
// console table of the stock operating points.
package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"

	"github.com/tphakala/oldbird-go/internal/curve"
	"github.com/tphakala/oldbird-go/internal/errors"
)

var curveHeader = []string{
	"Detector",
	"Threshold",
	"Ground Truth Calls",
	"Old Bird Calls",
	"Old Bird Clips",
	"Precision",
	"Recall",
	"F1",
}

// formatPercent renders a ratio as a percentage with one decimal,
// e.g. 0.6667 becomes "66.7". The value is rounded, not truncated.
func formatPercent(v float64) string {
	return strconv.FormatFloat(math.Round(v*1000)/10, 'f', -1, 64)
}

// WriteCurves writes the given curves to w as CSV, one row per curve
// point. Undefined precision or recall values are written as empty
// cells rather than sentinel numbers.
func WriteCurves(w io.Writer, curves []curve.Curve) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(curveHeader); err != nil {
		return errors.New(err).
			Component("output").
			Category(errors.CategoryFileIO).
			Build()
	}

	for _, c := range curves {
		for _, p := range c.Points {
			row := []string{
				c.Detector,
				strconv.FormatFloat(p.Threshold, 'f', -1, 64),
				strconv.Itoa(p.GroundTruth),
				strconv.Itoa(p.TruePositives),
				strconv.Itoa(p.Detections),
				"",
				"",
				"",
			}
			if p.PrecisionDefined {
				row[5] = formatPercent(p.Precision)
			}
			if p.RecallDefined {
				row[6] = formatPercent(p.Recall)
			}
			if p.PrecisionDefined && p.RecallDefined {
				row[7] = formatPercent(p.F1)
			}
			if err := cw.Write(row); err != nil {
				return errors.New(err).
					Component("output").
					Category(errors.CategoryFileIO).
					Build()
			}
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.New(err).
			Component("output").
			Category(errors.CategoryFileIO).
			Build()
	}
	return nil
}

// WriteCurvesFile writes the curves to path, creating parent
// directories as needed. The file is written atomically via a
// temporary file in the same directory.
func WriteCurvesFile(path string, curves []curve.Curve) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.New(err).
			Component("output").
			Category(errors.CategoryFileIO).
			FileContext(path).
			Build()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.New(err).
			Component("output").
			Category(errors.CategoryFileIO).
			FileContext(path).
			Build()
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := WriteCurves(tmp, curves); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return errors.New(err).
			Component("output").
			Category(errors.CategoryFileIO).
			FileContext(tmpName).
			Build()
	}
	if err := os.Rename(tmpName, path); err != nil {
		return errors.New(err).
			Component("output").
			Category(errors.CategoryFileIO).
			FileContext(path).
			Build()
	}
	return nil
}

// RenderSummary writes a tabular summary of the stock operating points
// of each curve to w. stockThresholds maps a detector name to the
// threshold whose point should be shown; detectors without an entry
// show their first point.
func RenderSummary(w io.Writer, curves []curve.Curve, stockThresholds map[string]float64) {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "Detector\tThreshold\tCalls\tClips\tPrecision\tRecall\tF1")

	for _, c := range curves {
		p, ok := stockPoint(c, stockThresholds[c.Detector])
		if !ok {
			continue
		}
		precision, recall, f1 := "-", "-", "-"
		if p.PrecisionDefined {
			precision = formatPercent(p.Precision) + "%"
		}
		if p.RecallDefined {
			recall = formatPercent(p.Recall) + "%"
		}
		if p.PrecisionDefined && p.RecallDefined {
			f1 = formatPercent(p.F1) + "%"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\t%s\t%s\n",
			c.Detector,
			strconv.FormatFloat(p.Threshold, 'f', -1, 64),
			p.TruePositives,
			p.Detections,
			precision,
			recall,
			f1)
	}

	tw.Flush()
}

func stockPoint(c curve.Curve, threshold float64) (curve.Point, bool) {
	if len(c.Points) == 0 {
		return curve.Point{}, false
	}
	for _, p := range c.Points {
		if p.Threshold == threshold {
			return p, true
		}
	}
	return c.Points[0], true
}
