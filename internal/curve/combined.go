package curve

import (
	"math"
	"sort"

	"github.com/tphakala/oldbird-go/internal/annotation"
	"github.com/tphakala/oldbird-go/internal/detection"
	"github.com/tphakala/oldbird-go/internal/matcher"
)

// CombinedDetectorName labels the combined curve of both detectors.
const CombinedDetectorName = "Tseep and Thrush"

// CombinedInput carries one detector's side of a combined build: its
// raw detections and the threshold grid it was swept over. Raw
// detections, not prior classifications, because the combined curve
// restricts each detector to its assigned band and must re-match under
// that restriction — a tseep clip whose only candidate call sits below
// the split is a false positive here even if it matched in the
// standalone tseep curve.
type CombinedInput struct {
	Detections []detection.Detection
	Grid       []float64
}

// BuildCombined models a single deployed system: the two detectors
// share one externally visible threshold knob and split the spectrum at
// splitHz, tseep taking calls at or above the split and thrush the
// calls below it. For each shared threshold the band-restricted true
// positives and detection counts of both detectors are summed; the
// recall denominator is the full annotation set, both bands combined.
func BuildCombined(tseep, thrush CombinedInput, idx *annotation.Index, splitHz float64, tol matcher.Tolerances) (Curve, error) {
	shared, err := ReconcileGrids(gridOrObserved(tseep), gridOrObserved(thrush), GridTolerance)
	if err != nil {
		return Curve{}, err
	}

	tseepBuckets := bucketByShared(tseep.Detections, shared, func(st SharedThreshold) float64 { return st.A })
	thrushBuckets := bucketByShared(thrush.Detections, shared, func(st SharedThreshold) float64 { return st.B })

	tseepMatcher := matcher.New(idx, annotation.Above(splitHz), tol)
	thrushMatcher := matcher.New(idx, annotation.Below(splitHz), tol)
	groundTruth := idx.Total()

	points := make([]Point, 0, len(shared))
	for si, st := range shared {
		truePositives, detections := 0, 0

		for _, side := range []struct {
			m    *matcher.Matcher
			dets []detection.Detection
		}{
			{tseepMatcher, tseepBuckets[si]},
			{thrushMatcher, thrushBuckets[si]},
		} {
			classified, err := side.m.Classify(side.dets)
			if err != nil {
				return Curve{}, err
			}
			detections += len(classified)
			for _, c := range classified {
				if c.TruePositive {
					truePositives++
				}
			}
		}

		points = append(points, newPoint(st.Value, truePositives, detections, groundTruth))
	}

	sort.Slice(points, func(i, j int) bool { return points[i].Threshold < points[j].Threshold })
	return Curve{Detector: CombinedDetectorName, Points: points}, nil
}

// gridOrObserved falls back to the thresholds observed in the detection
// stream when no explicit grid was supplied.
func gridOrObserved(input CombinedInput) []float64 {
	if len(input.Grid) > 0 {
		return input.Grid
	}
	seen := make(map[float64]struct{})
	var grid []float64
	for _, d := range input.Detections {
		if _, ok := seen[d.Threshold]; !ok {
			seen[d.Threshold] = struct{}{}
			grid = append(grid, d.Threshold)
		}
	}
	return grid
}

// bucketByShared assigns detections to shared thresholds, keyed by the
// shared slice index. Assignment uses the same tolerance grid
// reconciliation does, so a detection whose threshold is within
// tolerance of its grid value but not bit-identical to it still
// counts; among several shared thresholds the nearest one wins.
func bucketByShared(detections []detection.Detection, shared []SharedThreshold, side func(SharedThreshold) float64) map[int][]detection.Detection {
	buckets := make(map[int][]detection.Detection)
	for _, d := range detections {
		best := -1
		bestDist := math.Inf(1)
		for si, st := range shared {
			dist := math.Abs(d.Threshold - side(st))
			if dist < bestDist {
				best = si
				bestDist = dist
			}
		}
		if best >= 0 && bestDist <= GridTolerance {
			buckets[best] = append(buckets[best], d)
		}
	}
	return buckets
}
