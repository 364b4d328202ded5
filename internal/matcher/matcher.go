// Package matcher classifies detections as true or false positives by
// matching them against ground-truth annotations.
package matcher

import (
	"math"
	"sort"

	"github.com/tphakala/oldbird-go/internal/annotation"
	"github.com/tphakala/oldbird-go/internal/conf"
	"github.com/tphakala/oldbird-go/internal/detection"
	"github.com/tphakala/oldbird-go/internal/errors"
)

// Tolerance defines the temporal match window of one detector's clips.
// A clip counts as a detection of a call when the call's center time
// lies inside the window starting WindowOffset after the clip start and
// running for WindowLength, clipped to the clip end. The offsets differ
// per detector because the detectors add different amounts of initial
// padding to their clips.
type Tolerance struct {
	WindowOffset float64 // seconds from clip start to window start
	WindowLength float64 // window duration in seconds
}

// Tolerances maps each detector to its match window.
type Tolerances map[detection.DetectorID]Tolerance

// TolerancesFromSettings builds the per-detector match windows from the
// evaluation settings.
func TolerancesFromSettings(settings *conf.Settings) Tolerances {
	eval := settings.Evaluation
	return Tolerances{
		detection.Tseep:  {WindowOffset: eval.TseepWindowOffset, WindowLength: eval.WindowLength},
		detection.Thrush: {WindowOffset: eval.ThrushWindowOffset, WindowLength: eval.WindowLength},
	}
}

// Matcher classifies the detections of one evaluation cell (one
// detector, threshold and post-processing variant). Claim state lives
// only inside a Classify call, so every call behaves as an independent
// deployment: claims never leak across thresholds or variants, and
// re-running Classify on the same input yields identical results.
type Matcher struct {
	idx  *annotation.Index
	band annotation.Band
	tol  Tolerances
}

// New creates a matcher over the given ground truth. The band restricts
// which annotations are eligible matches: FullBand for standalone
// per-detector curves, the detector's assigned half-spectrum for the
// combined curve.
func New(idx *annotation.Index, band annotation.Band, tol Tolerances) *Matcher {
	return &Matcher{idx: idx, band: band, tol: tol}
}

// claimKey identifies one annotation within the index for claim
// tracking.
type claimKey struct {
	recordingID string
	pos         int
}

// Classify matches detections against ground truth with fresh claim
// state. A detection is a true positive when an unclaimed eligible
// annotation lies inside its match window; among multiple candidates
// the one closest to the window center wins, with the earlier
// annotation taking an exact tie. A claimed annotation is consumed for
// the rest of the pass, so one call can never produce two true
// positives.
//
// The input is sorted internally before matching, making the result a
// pure function of the input multiset.
func (m *Matcher) Classify(detections []detection.Detection) ([]detection.Classified, error) {
	for _, d := range detections {
		if err := d.Validate(); err != nil {
			return nil, err
		}
		if _, ok := m.tol[d.Detector]; !ok {
			return nil, errors.Newf("no match tolerance configured for detector %q", d.Detector).
				Component("matcher").
				Category(errors.CategoryConfiguration).
				Build()
		}
	}

	sorted := make([]detection.Detection, len(detections))
	copy(sorted, detections)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.RecordingID != b.RecordingID {
			return a.RecordingID < b.RecordingID
		}
		if a.StartTime != b.StartTime {
			return a.StartTime < b.StartTime
		}
		if a.Duration != b.Duration {
			return a.Duration < b.Duration
		}
		if a.Detector != b.Detector {
			return a.Detector < b.Detector
		}
		return a.Threshold < b.Threshold
	})

	claimed := make(map[claimKey]struct{})
	classified := make([]detection.Classified, 0, len(sorted))

	for _, d := range sorted {
		tol := m.tol[d.Detector]
		lo := d.StartTime + tol.WindowOffset
		hi := math.Min(lo+tol.WindowLength, d.EndTime())

		match, err := m.claimNearest(d.RecordingID, lo, hi, claimed)
		if err != nil {
			return nil, err
		}

		c := detection.Classified{Detection: d}
		if match != nil {
			c.TruePositive = true
			c.Matched = match
		}
		classified = append(classified, c)
	}

	return classified, nil
}

// claimNearest finds the unclaimed in-band annotation nearest to the
// center of the window [lo, hi) and claims it. Returns nil when no
// eligible annotation remains.
func (m *Matcher) claimNearest(recordingID string, lo, hi float64, claimed map[claimKey]struct{}) (*annotation.Annotation, error) {
	if hi <= lo {
		// Clip shorter than the window offset, nothing can match.
		if !m.idx.Has(recordingID) {
			return nil, unknownRecordingErr(recordingID)
		}
		return nil, nil
	}

	refs, err := m.idx.Window(recordingID, lo, hi)
	if err != nil {
		return nil, err
	}

	center := lo + (hi-lo)/2
	best := -1
	bestDist := math.Inf(1)
	for i, ref := range refs {
		if !m.band.Contains(ref.Frequency) {
			continue
		}
		if _, taken := claimed[claimKey{recordingID, ref.Pos}]; taken {
			continue
		}
		dist := math.Abs(ref.Time - center)
		// Strict less keeps the earlier annotation on an exact tie,
		// since refs arrive in ascending time order.
		if dist < bestDist {
			best = i
			bestDist = dist
		}
	}
	if best < 0 {
		return nil, nil
	}

	claimed[claimKey{recordingID, refs[best].Pos}] = struct{}{}
	matched := refs[best].Annotation
	return &matched, nil
}

func unknownRecordingErr(recordingID string) error {
	return errors.Newf("recording %q is not present in the ground truth", recordingID).
		Component("matcher").
		Category(errors.CategoryData).
		Context("recording", recordingID).
		Build()
}
