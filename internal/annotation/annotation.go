// Package annotation provides the ground-truth data model for detector
// evaluation: human-verified call annotations, loading of the BirdVox
// annotation files, and a per-recording index for temporal lookup.
package annotation

import (
	"math"
)

// Annotation is a single human-verified ground-truth event. Annotations
// are read-only reference data: one evaluation run loads them once and
// never mutates them.
type Annotation struct {
	RecordingID string  // recording the call occurred in, e.g. "unit02"
	Time        float64 // call center time in seconds from recording start
	Frequency   float64 // call center frequency in hertz
}

// Ref is an Annotation together with its position in the recording's
// time-sorted slice. Matching passes use the position as a stable
// identity for claim tracking.
type Ref struct {
	Pos int
	Annotation
}

// Band is a half-open center frequency range [Low, High) in hertz.
type Band struct {
	Low  float64
	High float64
}

// FullBand accepts every center frequency.
var FullBand = Band{Low: 0, High: math.Inf(1)}

// Above returns the band of frequencies at or above split.
func Above(split float64) Band {
	return Band{Low: split, High: math.Inf(1)}
}

// Below returns the band of frequencies under split.
func Below(split float64) Band {
	return Band{Low: 0, High: split}
}

// Contains reports whether frequency lies inside the band.
func (b Band) Contains(frequency float64) bool {
	return frequency >= b.Low && frequency < b.High
}
