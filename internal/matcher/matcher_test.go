package matcher

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/oldbird-go/internal/annotation"
	"github.com/tphakala/oldbird-go/internal/conf"
	"github.com/tphakala/oldbird-go/internal/detection"
	"github.com/tphakala/oldbird-go/internal/errors"
)

func testTolerances() Tolerances {
	return Tolerances{
		detection.Tseep:  {WindowOffset: conf.TseepWindowOffset, WindowLength: conf.MatchWindowLength},
		detection.Thrush: {WindowOffset: conf.ThrushWindowOffset, WindowLength: conf.MatchWindowLength},
	}
}

func buildIndex(t *testing.T, annotations ...annotation.Annotation) *annotation.Index {
	t.Helper()
	idx, err := annotation.BuildIndex(annotations)
	require.NoError(t, err)
	return idx
}

// tseepClip returns a Tseep clip whose match window is
// [start+0.09, start+0.29) for the default tolerances.
func tseepClip(recordingID string, start float64) detection.Detection {
	return detection.Detection{
		RecordingID: recordingID,
		Detector:    detection.Tseep,
		Threshold:   2,
		StartTime:   start,
		Duration:    0.4,
	}
}

func TestClassify_MatchWithinWindow(t *testing.T) {
	// One annotation at 10.0s, one clip whose window [9.95, 10.15)
	// contains it: a true positive, and the matched annotation is the
	// one claimed.
	idx := buildIndex(t, annotation.Annotation{RecordingID: "unit01", Time: 10.0, Frequency: 4000})
	m := New(idx, annotation.FullBand, testTolerances())

	classified, err := m.Classify([]detection.Detection{tseepClip("unit01", 9.86)})
	require.NoError(t, err)
	require.Len(t, classified, 1)
	assert.True(t, classified[0].TruePositive)
	require.NotNil(t, classified[0].Matched)
	assert.Equal(t, 10.0, classified[0].Matched.Time)
}

func TestClassify_FarOutsideWindow(t *testing.T) {
	idx := buildIndex(t, annotation.Annotation{RecordingID: "unit01", Time: 10.0, Frequency: 4000})
	m := New(idx, annotation.FullBand, testTolerances())

	classified, err := m.Classify([]detection.Detection{tseepClip("unit01", 50.0)})
	require.NoError(t, err)
	require.Len(t, classified, 1)
	assert.False(t, classified[0].TruePositive)
	assert.Nil(t, classified[0].Matched)
}

func TestClassify_OneAnnotationClaimedOnce(t *testing.T) {
	// Two clips both cover the single annotation at 10.0s. Exactly one
	// true positive: the first-processed (earlier, nearer) clip claims
	// the annotation and consumes it.
	idx := buildIndex(t, annotation.Annotation{RecordingID: "unit01", Time: 10.0, Frequency: 4000})
	m := New(idx, annotation.FullBand, testTolerances())

	classified, err := m.Classify([]detection.Detection{
		tseepClip("unit01", 9.90),
		tseepClip("unit01", 9.86),
	})
	require.NoError(t, err)
	require.Len(t, classified, 2)

	// Output is sorted by start time.
	assert.Equal(t, 9.86, classified[0].StartTime)
	assert.True(t, classified[0].TruePositive)
	assert.False(t, classified[1].TruePositive)
}

func TestClassify_NearestAnnotationWins(t *testing.T) {
	// Window [9.95, 10.15), center 10.05. The annotation at 10.04 is
	// nearer than the one at 9.96 and must be the claimed match.
	idx := buildIndex(t,
		annotation.Annotation{RecordingID: "unit01", Time: 9.96, Frequency: 4000},
		annotation.Annotation{RecordingID: "unit01", Time: 10.04, Frequency: 6000},
	)
	m := New(idx, annotation.FullBand, testTolerances())

	classified, err := m.Classify([]detection.Detection{tseepClip("unit01", 9.86)})
	require.NoError(t, err)
	require.Len(t, classified, 1)
	require.NotNil(t, classified[0].Matched)
	assert.Equal(t, 10.04, classified[0].Matched.Time)
}

func TestClassify_ExactTieClaimsEarlier(t *testing.T) {
	// Annotations at 10.00 and 10.10 are both 0.05s from the window
	// center 10.05; the earlier one wins for determinism.
	idx := buildIndex(t,
		annotation.Annotation{RecordingID: "unit01", Time: 10.00, Frequency: 4000},
		annotation.Annotation{RecordingID: "unit01", Time: 10.10, Frequency: 6000},
	)
	m := New(idx, annotation.FullBand, testTolerances())

	classified, err := m.Classify([]detection.Detection{tseepClip("unit01", 9.86)})
	require.NoError(t, err)
	require.NotNil(t, classified[0].Matched)
	assert.Equal(t, 10.00, classified[0].Matched.Time)
}

func TestClassify_BandRestriction(t *testing.T) {
	// The only candidate annotation sits at 3000 Hz, below the split.
	// Under the tseep band restriction the clip is a false positive
	// even though it matches with no restriction.
	idx := buildIndex(t, annotation.Annotation{RecordingID: "unit01", Time: 10.0, Frequency: 3000})
	clips := []detection.Detection{tseepClip("unit01", 9.86)}

	unrestricted, err := New(idx, annotation.FullBand, testTolerances()).Classify(clips)
	require.NoError(t, err)
	assert.True(t, unrestricted[0].TruePositive)

	restricted, err := New(idx, annotation.Above(conf.FreqSplit), testTolerances()).Classify(clips)
	require.NoError(t, err)
	assert.False(t, restricted[0].TruePositive)
}

func TestClassify_Idempotent(t *testing.T) {
	idx := buildIndex(t,
		annotation.Annotation{RecordingID: "unit01", Time: 10.0, Frequency: 4000},
		annotation.Annotation{RecordingID: "unit01", Time: 10.1, Frequency: 6000},
		annotation.Annotation{RecordingID: "unit02", Time: 20.0, Frequency: 7000},
	)
	m := New(idx, annotation.FullBand, testTolerances())

	clips := []detection.Detection{
		tseepClip("unit01", 9.86),
		tseepClip("unit01", 9.95),
		tseepClip("unit02", 19.9),
		tseepClip("unit02", 300.0),
	}

	first, err := m.Classify(clips)
	require.NoError(t, err)
	second, err := m.Classify(clips)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// Claim state never leaks between calls, so the true-positive count
	// is stable as well.
	countTP := func(cs []detection.Classified) int {
		n := 0
		for _, c := range cs {
			if c.TruePositive {
				n++
			}
		}
		return n
	}
	assert.Equal(t, countTP(first), countTP(second))
}

func TestClassify_TruePositivesNeverExceedGroundTruth(t *testing.T) {
	idx := buildIndex(t,
		annotation.Annotation{RecordingID: "unit01", Time: 10.0, Frequency: 4000},
		annotation.Annotation{RecordingID: "unit01", Time: 10.05, Frequency: 5000},
	)
	m := New(idx, annotation.FullBand, testTolerances())

	// Five clips piled on two annotations.
	clips := make([]detection.Detection, 0, 5)
	for i := 0; i < 5; i++ {
		clips = append(clips, tseepClip("unit01", 9.86+float64(i)*0.01))
	}

	classified, err := m.Classify(clips)
	require.NoError(t, err)

	tp := 0
	for _, c := range classified {
		if c.TruePositive {
			tp++
		}
	}
	assert.LessOrEqual(t, tp, idx.Total())
}

func TestClassify_NonFiniteDetection(t *testing.T) {
	idx := buildIndex(t, annotation.Annotation{RecordingID: "unit01", Time: 10.0, Frequency: 4000})
	m := New(idx, annotation.FullBand, testTolerances())

	bad := tseepClip("unit01", math.NaN())
	_, err := m.Classify([]detection.Detection{bad})
	require.Error(t, err)
	assert.True(t, errors.IsData(err))
}

func TestClassify_UnknownRecording(t *testing.T) {
	idx := buildIndex(t, annotation.Annotation{RecordingID: "unit01", Time: 10.0, Frequency: 4000})
	m := New(idx, annotation.FullBand, testTolerances())

	_, err := m.Classify([]detection.Detection{tseepClip("unit99", 9.86)})
	require.Error(t, err)
	assert.True(t, errors.IsData(err))
}

func TestClassify_MissingTolerance(t *testing.T) {
	idx := buildIndex(t, annotation.Annotation{RecordingID: "unit01", Time: 10.0, Frequency: 4000})
	m := New(idx, annotation.FullBand, Tolerances{})

	_, err := m.Classify([]detection.Detection{tseepClip("unit01", 9.86)})
	require.Error(t, err)
	assert.True(t, errors.IsConfiguration(err))
}

func TestClassify_ClipShorterThanOffset(t *testing.T) {
	// A clip shorter than its window offset has an empty match window
	// and cannot match anything.
	idx := buildIndex(t, annotation.Annotation{RecordingID: "unit01", Time: 10.0, Frequency: 4000})
	m := New(idx, annotation.FullBand, testTolerances())

	short := detection.Detection{
		RecordingID: "unit01",
		Detector:    detection.Tseep,
		Threshold:   2,
		StartTime:   9.99,
		Duration:    0.05,
	}
	classified, err := m.Classify([]detection.Detection{short})
	require.NoError(t, err)
	assert.False(t, classified[0].TruePositive)
}

func TestTolerancesFromSettings(t *testing.T) {
	s := &conf.Settings{}
	s.Evaluation.TseepWindowOffset = 0.09
	s.Evaluation.ThrushWindowOffset = 0.15
	s.Evaluation.WindowLength = 0.2

	tol := TolerancesFromSettings(s)
	assert.Equal(t, Tolerance{0.09, 0.2}, tol[detection.Tseep])
	assert.Equal(t, Tolerance{0.15, 0.2}, tol[detection.Thrush])
}
