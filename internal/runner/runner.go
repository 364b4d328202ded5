// Package runner feeds recordings through externally supplied detector
// implementations and stages the resulting clips for evaluation. The
// detectors' signal processing is not this package's concern; it owns
// the chunked audio feed, the threshold grid and the clip collection.
package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/tphakala/oldbird-go/internal/conf"
	"github.com/tphakala/oldbird-go/internal/detection"
	"github.com/tphakala/oldbird-go/internal/logging"
)

// Detector consumes a recording's samples chunk by chunk and reports
// the clips it detects to its listener. Implementations run one
// recording at every configured threshold in a single pass.
type Detector interface {
	// Detect processes the next chunk of mono samples.
	Detect(samples []float32) error
	// Complete flushes any pending clips at the end of the recording.
	Complete() error
}

// Factory constructs a detector for one recording. The listener
// receives every clip the detector emits.
type Factory func(sampleRate int, thresholds []float64, postProcessed bool, listener *Listener) (Detector, error)

// Factories maps each detector identity to its constructor.
type Factories map[detection.DetectorID]Factory

var registry = Factories{}

// RegisterFactory registers a detector constructor under its identity.
// Detector implementations are external collaborators and register
// themselves at startup, the way database drivers do; a later
// registration under the same identity replaces the earlier one.
func RegisterFactory(det detection.DetectorID, factory Factory) {
	registry[det] = factory
}

// RegisteredFactories returns a copy of the registered detector
// constructors.
func RegisteredFactories() Factories {
	factories := make(Factories, len(registry))
	for det, factory := range registry {
		factories[det] = factory
	}
	return factories
}

// Listener collects the clips of one detector across recordings.
type Listener struct {
	Detector detection.DetectorID
	Unit     int // current recording unit, set per recording
	clips    []detection.ClipRow
}

// NewListener creates a listener for one detector.
func NewListener(det detection.DetectorID) *Listener {
	return &Listener{Detector: det}
}

// ProcessClip records one detected clip. Indices are in samples.
func (l *Listener) ProcessClip(startIndex, length int64, threshold float64) {
	l.clips = append(l.clips, detection.ClipRow{
		Detector:   string(l.Detector),
		Unit:       l.Unit,
		Threshold:  threshold,
		StartIndex: startIndex,
		Length:     length,
	})
}

// Clips returns the collected clip rows.
func (l *Listener) Clips() []detection.ClipRow {
	return l.clips
}

// Run executes the configured detectors over every configured recording
// for one post-processing variant and returns the staged clip rows.
func Run(ctx context.Context, settings *conf.Settings, factories Factories, postProcessed bool) ([]detection.ClipRow, error) {
	log := logging.ForService("runner")
	thresholds := DetectionThresholds(settings.Detection.Thresholds)

	listeners := make(map[detection.DetectorID]*Listener, len(factories))
	for det := range factories {
		listeners[det] = NewListener(det)
	}

	for _, unit := range settings.Input.Units {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		filePath := settings.RecordingFilePath(unit)
		if log != nil {
			log.Info("running detectors",
				"recording", filePath,
				"post_processed", postProcessed)
		}

		detectors := make([]Detector, 0, len(factories))
		for det, factory := range factories {
			listener := listeners[det]
			listener.Unit = unit
			d, err := factory(settings.Detection.SampleRate, thresholds, postProcessed, listener)
			if err != nil {
				return nil, fmt.Errorf("creating %s detector: %w", det, err)
			}
			detectors = append(detectors, d)
		}

		start := time.Now()
		sampleCount, err := FeedWAV(ctx, filePath, settings.Detection.SampleRate, settings.Detection.ChunkSize, func(samples []float32) error {
			for _, d := range detectors {
				if err := d.Detect(samples); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("feeding %s: %w", filePath, err)
		}
		for _, d := range detectors {
			if err := d.Complete(); err != nil {
				return nil, fmt.Errorf("completing detection on %s: %w", filePath, err)
			}
		}

		if log != nil {
			elapsed := time.Since(start)
			fileDuration := time.Duration(float64(sampleCount) / float64(settings.Detection.SampleRate) * float64(time.Second))
			log.Info("recording processed",
				"recording", filePath,
				"file_duration", fileDuration,
				"processing_time", elapsed)
		}
	}

	var rows []detection.ClipRow
	for _, det := range detection.Detectors {
		if listener, ok := listeners[det]; ok {
			rows = append(rows, listener.Clips()...)
		}
	}
	return rows, nil
}
