package evaluation

import (
	"context"

	"github.com/tphakala/oldbird-go/internal/detection"
)

// StaticSource is a Runner backed by pre-loaded detections, typically
// read back from a staged clips file or the clip store. It satisfies
// the same contract as a live detector run.
type StaticSource struct {
	detections []detection.Detection
}

// NewStaticSource creates a source over a fixed detection set.
func NewStaticSource(detections []detection.Detection) *StaticSource {
	return &StaticSource{detections: detections}
}

// ProduceDetections returns the detections of one evaluation cell.
func (s *StaticSource) ProduceDetections(ctx context.Context, recordingID string, detector detection.DetectorID, postProcessed bool) ([]detection.Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []detection.Detection
	for _, d := range s.detections {
		if d.RecordingID == recordingID && d.Detector == detector && d.PostProcessed == postProcessed {
			out = append(out, d)
		}
	}
	return out, nil
}

// Recordings returns the distinct recording identifiers present in the
// source, in first-seen order.
func (s *StaticSource) Recordings() []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, d := range s.detections {
		if _, ok := seen[d.RecordingID]; !ok {
			seen[d.RecordingID] = struct{}{}
			ids = append(ids, d.RecordingID)
		}
	}
	return ids
}
