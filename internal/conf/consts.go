// consts.go: constants of the BirdVox-full-night evaluation setup
package conf

// Recording sample rate of the BirdVox-full-night dataset, in hertz.
const SampleRate = 24000

// FreqSplit is the center frequency, in hertz, separating thrush calls
// (below) from tseep calls (at or above) in the combined evaluation.
const FreqSplit = 5000.0

// Stock Old Bird detector thresholds. These are always included in the
// detection threshold grid so the published operating points appear on
// every curve.
const (
	OldBirdTseepThreshold  = 2.0
	OldBirdThrushThreshold = 1.3
)

// DefaultUnits lists the BirdVox-full-night recording units used in the
// evaluation. Units 4, 6, 8 and 9 are absent from the dataset.
var DefaultUnits = []int{1, 2, 3, 5, 7, 10}

// Match windows of Old Bird clips that must contain a ground-truth call
// center for the clip to count as a call. Windows begin a fixed offset
// from the clip start, reflecting the different amounts of initial
// padding the two detectors add to their clips, and run for a fixed
// duration, clipped to the clip end.
const (
	TseepWindowOffset  = 0.09 // seconds
	ThrushWindowOffset = 0.15 // seconds
	MatchWindowLength  = 0.2  // seconds
)

// File name formats of the BirdVox-full-night dataset and the staged
// detector output.
const (
	AnnotationsFileNameFormat = "BirdVox-full-night_csv-annotations_unit%02d.csv"
	RecordingFileNameFormat   = "BirdVox-full-night_wav-audio_unit%02d.wav"
	ClipsFileNameFormat       = "Old Bird Clips (%s).csv"
	CurveFileNameFormat       = "Old Bird Detector Precision vs. Recall (%s).csv"
)

// PostString returns the variant label used in staged file names.
func PostString(postEnabled bool) string {
	if postEnabled {
		return "with post"
	}
	return "no post"
}
