// Package evaluation orchestrates the full detector evaluation: it
// sweeps every (recording, detector, threshold, post-processing
// variant) combination, classifies the detections of each cell against
// ground truth, and aggregates the results into per-detector and
// combined precision/recall curves.
package evaluation

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/tphakala/oldbird-go/internal/annotation"
	"github.com/tphakala/oldbird-go/internal/curve"
	"github.com/tphakala/oldbird-go/internal/detection"
	"github.com/tphakala/oldbird-go/internal/matcher"
)

// Runner is the external detector collaborator. It supplies the
// detections of one recording for one detector and post-processing
// variant, swept over the full threshold grid. The evaluation does not
// care how the detections were produced: a live detector run and a
// staged clips file are interchangeable.
type Runner interface {
	ProduceDetections(ctx context.Context, recordingID string, detector detection.DetectorID, postProcessed bool) ([]detection.Detection, error)
}

// Request describes one evaluation run.
type Request struct {
	Recordings []string               // recording identifiers to evaluate
	Detectors  []detection.DetectorID // detectors to evaluate
	Grid       []float64              // threshold grid both detectors were swept over
	Variants   []bool                 // post-processing variants to evaluate
	FreqSplit  float64                // tseep/thrush split frequency in hertz
	Workers    int                    // parallel workers, 0 for unbounded
}

// CellError records the failure of one evaluation cell. A failed cell
// never aborts unrelated cells; its detections are simply absent from
// the aggregated curves.
type CellError struct {
	RecordingID   string
	Detector      detection.DetectorID
	PostProcessed bool
	Err           error
}

func (e CellError) Error() string {
	return fmt.Sprintf("cell (%s, %s, post=%v): %v", e.RecordingID, e.Detector, e.PostProcessed, e.Err)
}

func (e CellError) Unwrap() error {
	return e.Err
}

// VariantResult holds the curves of one post-processing variant.
type VariantResult struct {
	PostProcessed bool
	PerDetector   map[detection.DetectorID]curve.Curve
	Combined      curve.Curve
	Failures      []CellError
}

// Result is the outcome of an evaluation run.
type Result struct {
	Variants []VariantResult
}

// Pipeline evaluates detectors against a ground-truth index.
type Pipeline struct {
	idx    *annotation.Index
	tol    matcher.Tolerances
	runner Runner
}

// New creates an evaluation pipeline. The index is shared read-only
// across all cells; all mutable matching state lives inside the cells.
func New(idx *annotation.Index, tol matcher.Tolerances, runner Runner) *Pipeline {
	return &Pipeline{idx: idx, tol: tol, runner: runner}
}

// Run executes the full sweep. Cells are independent deployments: each
// (detector, threshold, variant) combination is classified with fresh
// claim state, so curves at different thresholds are computed as if
// from separate runs. Cell failures are collected per variant; a
// combined-curve configuration error is fatal, since an ill-defined
// combined curve is worse than none.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	result := &Result{}
	for _, postProcessed := range req.Variants {
		vr, err := p.runVariant(ctx, req, postProcessed)
		if err != nil {
			return nil, err
		}
		result.Variants = append(result.Variants, *vr)
	}
	return result, nil
}

// cellOutcome is the successful result of one (recording, detector)
// cell: the classified detections of every threshold within it.
type cellOutcome struct {
	detector   detection.DetectorID
	raw        []detection.Detection
	classified []detection.Classified
}

func (p *Pipeline) runVariant(ctx context.Context, req Request, postProcessed bool) (*VariantResult, error) {
	var (
		mu       sync.Mutex
		outcomes []cellOutcome
		failures []CellError
	)

	g, gctx := errgroup.WithContext(ctx)
	if req.Workers > 0 {
		g.SetLimit(req.Workers)
	}

	for _, det := range req.Detectors {
		for _, recordingID := range req.Recordings {
			det, recordingID := det, recordingID
			g.Go(func() error {
				outcome, err := p.runCell(gctx, recordingID, det, postProcessed)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					// Isolate the failure; peers keep running.
					failures = append(failures, CellError{
						RecordingID:   recordingID,
						Detector:      det,
						PostProcessed: postProcessed,
						Err:           err,
					})
					return nil
				}
				outcomes = append(outcomes, *outcome)
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vr := &VariantResult{
		PostProcessed: postProcessed,
		PerDetector:   make(map[detection.DetectorID]curve.Curve, len(req.Detectors)),
		Failures:      failures,
	}

	// Merge cell outcomes per detector and build the standalone curves.
	classifiedByDetector := make(map[detection.DetectorID][]detection.Classified)
	rawByDetector := make(map[detection.DetectorID][]detection.Detection)
	for _, outcome := range outcomes {
		classifiedByDetector[outcome.detector] = append(classifiedByDetector[outcome.detector], outcome.classified...)
		rawByDetector[outcome.detector] = append(rawByDetector[outcome.detector], outcome.raw...)
	}
	for _, det := range req.Detectors {
		vr.PerDetector[det] = curve.Build(
			string(det),
			classifiedByDetector[det],
			p.idx.Total(),
			req.Grid,
		)
	}

	// The combined curve needs both detectors.
	if containsDetector(req.Detectors, detection.Tseep) && containsDetector(req.Detectors, detection.Thrush) {
		combined, err := curve.BuildCombined(
			curve.CombinedInput{Detections: rawByDetector[detection.Tseep], Grid: req.Grid},
			curve.CombinedInput{Detections: rawByDetector[detection.Thrush], Grid: req.Grid},
			p.idx, req.FreqSplit, p.tol,
		)
		if err != nil {
			return nil, err
		}
		vr.Combined = combined
	}

	return vr, nil
}

// runCell fetches and classifies the detections of one (recording,
// detector) cell. Each threshold within the cell is classified with its
// own fresh claim state.
func (p *Pipeline) runCell(ctx context.Context, recordingID string, det detection.DetectorID, postProcessed bool) (*cellOutcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := p.runner.ProduceDetections(ctx, recordingID, det, postProcessed)
	if err != nil {
		return nil, err
	}

	byThreshold := make(map[float64][]detection.Detection)
	for _, d := range raw {
		byThreshold[d.Threshold] = append(byThreshold[d.Threshold], d)
	}

	m := matcher.New(p.idx, annotation.FullBand, p.tol)
	outcome := &cellOutcome{detector: det, raw: raw}
	for _, cell := range byThreshold {
		classified, err := m.Classify(cell)
		if err != nil {
			return nil, err
		}
		outcome.classified = append(outcome.classified, classified...)
	}

	return outcome, nil
}

func containsDetector(detectors []detection.DetectorID, want detection.DetectorID) bool {
	for _, d := range detectors {
		if d == want {
			return true
		}
	}
	return false
}
