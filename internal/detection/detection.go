// Package detection provides the domain models of the evaluation suite:
// the clips the Old Bird detectors emit, their classification against
// ground truth, and the staged-clip persistence contract.
package detection

import (
	"math"

	"github.com/tphakala/oldbird-go/internal/annotation"
	"github.com/tphakala/oldbird-go/internal/errors"
)

// DetectorID identifies one of the two Old Bird detectors.
type DetectorID string

const (
	Tseep  DetectorID = "Tseep"  // high-band detector, calls at or above the frequency split
	Thrush DetectorID = "Thrush" // low-band detector, calls below the frequency split
)

// Detectors lists the known detectors in canonical order.
var Detectors = []DetectorID{Thrush, Tseep}

// ParseDetector converts a detector name from a staged file into a
// DetectorID. Unknown names are data errors.
func ParseDetector(name string) (DetectorID, error) {
	switch name {
	case string(Tseep):
		return Tseep, nil
	case string(Thrush):
		return Thrush, nil
	default:
		return "", errors.Newf("unknown detector %q", name).
			Component("detection").
			Category(errors.CategoryData).
			Build()
	}
}

// Detection is one clip emitted by a detector run. It is immutable once
// emitted by the detector runner; the evaluation only reads it.
type Detection struct {
	RecordingID   string     // recording the clip came from, e.g. "unit02"
	Detector      DetectorID // detector that produced the clip
	PostProcessed bool       // whether the legacy merge/suppress steps were applied
	Threshold     float64    // detection threshold that produced the clip
	StartTime     float64    // clip start in seconds from recording start
	Duration      float64    // clip length in seconds
}

// EndTime returns the clip end in seconds from recording start.
func (d Detection) EndTime() float64 {
	return d.StartTime + d.Duration
}

// Validate checks the numeric fields for non-finite values. Matching a
// NaN time would silently poison every comparison after it, so this is
// a data error.
func (d Detection) Validate() error {
	if !finite(d.Threshold) || !finite(d.StartTime) || !finite(d.Duration) {
		return errors.Newf("detection in %s has non-finite fields (threshold=%g start=%g duration=%g)",
			d.RecordingID, d.Threshold, d.StartTime, d.Duration).
			Component("detection").
			Category(errors.CategoryData).
			Context("recording", d.RecordingID).
			Context("detector", string(d.Detector)).
			Build()
	}
	return nil
}

// Classified is a Detection plus its classification against ground
// truth. Never mutated after creation.
type Classified struct {
	Detection
	TruePositive bool
	// Matched holds the claimed annotation when TruePositive is true.
	Matched *annotation.Annotation
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
