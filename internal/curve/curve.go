// Package curve aggregates classified detections into precision/recall
// performance curves: one curve per detector, plus the combined curve
// of both detectors operating under one shared threshold.
package curve

import (
	"sort"

	"github.com/tphakala/oldbird-go/internal/detection"
)

// Point is one (threshold, precision, recall) sample of a curve,
// together with the raw counts it was derived from.
//
// Zero-denominator convention: a precision with zero detections is
// reported as 1.0 and a recall with zero ground-truth annotations as
// 0.0, each with the corresponding Defined flag cleared so consumers
// can tell the sentinel from a measured value. This keeps curve slices
// free of NaNs while staying honest about what was measured.
type Point struct {
	Threshold float64

	TruePositives int // detections matched to a ground-truth call
	Detections    int // all detections at this threshold
	GroundTruth   int // annotations in scope, constant across thresholds

	Precision        float64
	PrecisionDefined bool
	Recall           float64
	RecallDefined    bool
	F1               float64
}

// Curve is an ordered sequence of points, sorted by ascending
// threshold. No smoothing or interpolation is applied; consumers plot
// the raw point set.
type Curve struct {
	Detector string
	Points   []Point
}

// newPoint derives the precision/recall metrics from raw counts.
func newPoint(threshold float64, truePositives, detections, groundTruth int) Point {
	p := Point{
		Threshold:     threshold,
		TruePositives: truePositives,
		Detections:    detections,
		GroundTruth:   groundTruth,
	}

	if detections > 0 {
		p.Precision = float64(truePositives) / float64(detections)
		p.PrecisionDefined = true
	} else {
		p.Precision = 1.0
	}

	if groundTruth > 0 {
		p.Recall = float64(truePositives) / float64(groundTruth)
		p.RecallDefined = true
	}

	if p.PrecisionDefined && p.RecallDefined && p.Precision+p.Recall > 0 {
		p.F1 = 2 * p.Precision * p.Recall / (p.Precision + p.Recall)
	}

	return p
}

// Build aggregates classified detections into a curve. Detections are
// grouped by the threshold that produced them: each threshold is an
// independent detect-and-classify pass, not a cumulative sweep, so the
// counts at one threshold never include another's. groundTruth is the
// number of annotations in scope and is the recall denominator at every
// threshold.
//
// grid lists the thresholds the detector was run at. Thresholds that
// produced no detections still yield a point (zero recall, undefined
// precision); pass nil to emit points only for observed thresholds.
func Build(detector string, classified []detection.Classified, groundTruth int, grid []float64) Curve {
	type counts struct {
		truePositives int
		detections    int
	}
	byThreshold := make(map[float64]*counts)

	for _, t := range grid {
		byThreshold[t] = &counts{}
	}
	for _, c := range classified {
		cnt, ok := byThreshold[c.Threshold]
		if !ok {
			cnt = &counts{}
			byThreshold[c.Threshold] = cnt
		}
		cnt.detections++
		if c.TruePositive {
			cnt.truePositives++
		}
	}

	points := make([]Point, 0, len(byThreshold))
	for threshold, cnt := range byThreshold {
		points = append(points, newPoint(threshold, cnt.truePositives, cnt.detections, groundTruth))
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Threshold < points[j].Threshold })

	return Curve{Detector: detector, Points: points}
}
