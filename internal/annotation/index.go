package annotation

import (
	"math"
	"sort"

	"github.com/tphakala/oldbird-go/internal/errors"
)

// Index organizes annotations per recording, sorted by time, so a
// matching pass can answer "which annotations lie near this detection"
// with a binary search instead of a linear scan. Detection counts run
// into the tens of thousands across six full-night recordings, so this
// matters.
//
// The index itself is immutable after Build; claim tracking during
// matching is the caller's state, never the index's.
type Index struct {
	byRecording map[string][]Annotation
	total       int
}

// BuildIndex groups annotations by recording and sorts each group by
// time. Annotations with non-finite time or frequency are rejected as
// data errors rather than silently dropped, since a dropped annotation
// would corrupt every recall denominator computed from the index.
func BuildIndex(annotations []Annotation) (*Index, error) {
	byRecording := make(map[string][]Annotation)
	for _, a := range annotations {
		if a.RecordingID == "" {
			return nil, errors.Newf("annotation at %gs has no recording id", a.Time).
				Component("annotation").
				Category(errors.CategoryData).
				Build()
		}
		if !isFinite(a.Time) || !isFinite(a.Frequency) {
			return nil, errors.Newf("annotation in %s has non-finite time %g or frequency %g",
				a.RecordingID, a.Time, a.Frequency).
				Component("annotation").
				Category(errors.CategoryData).
				Context("recording", a.RecordingID).
				Build()
		}
		byRecording[a.RecordingID] = append(byRecording[a.RecordingID], a)
	}

	for _, anns := range byRecording {
		sort.Slice(anns, func(i, j int) bool {
			if anns[i].Time != anns[j].Time {
				return anns[i].Time < anns[j].Time
			}
			return anns[i].Frequency < anns[j].Frequency
		})
	}

	return &Index{byRecording: byRecording, total: len(annotations)}, nil
}

// Recordings returns the recording identifiers present in the index,
// in sorted order.
func (idx *Index) Recordings() []string {
	ids := make([]string, 0, len(idx.byRecording))
	for id := range idx.byRecording {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Has reports whether the index holds annotations for a recording.
func (idx *Index) Has(recordingID string) bool {
	_, ok := idx.byRecording[recordingID]
	return ok
}

// Total returns the number of annotations across all recordings.
func (idx *Index) Total() int {
	return idx.total
}

// Count returns the number of annotations in one recording.
func (idx *Index) Count(recordingID string) int {
	return len(idx.byRecording[recordingID])
}

// CountInBand returns the number of annotations across all recordings
// whose center frequency lies inside band. This is the recall
// denominator for a band-restricted scope.
func (idx *Index) CountInBand(band Band) int {
	n := 0
	for _, anns := range idx.byRecording {
		for _, a := range anns {
			if band.Contains(a.Frequency) {
				n++
			}
		}
	}
	return n
}

// Window returns the annotations of a recording whose time lies in the
// half-open interval [lo, hi), as Refs carrying their stable positions.
// Querying a recording the index does not know is a data error: a
// detection referencing an unknown recording must surface instead of
// silently counting as a false positive against an empty ground truth.
func (idx *Index) Window(recordingID string, lo, hi float64) ([]Ref, error) {
	anns, ok := idx.byRecording[recordingID]
	if !ok {
		return nil, errors.Newf("recording %q is not present in the ground truth", recordingID).
			Component("annotation").
			Category(errors.CategoryData).
			Context("recording", recordingID).
			Build()
	}

	first := sort.Search(len(anns), func(i int) bool { return anns[i].Time >= lo })
	refs := make([]Ref, 0, 4)
	for i := first; i < len(anns) && anns[i].Time < hi; i++ {
		refs = append(refs, Ref{Pos: i, Annotation: anns[i]})
	}
	return refs, nil
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
