package conf

import (
	"fmt"
)

// ValidateSettings checks the loaded settings for values that would make
// an evaluation run meaningless. Validation failures are configuration
// errors and abort startup.
func ValidateSettings(settings *Settings) error {
	if settings.Detection.SampleRate <= 0 {
		return fmt.Errorf("detection.samplerate must be positive, got %d", settings.Detection.SampleRate)
	}
	if settings.Detection.ChunkSize <= 0 {
		return fmt.Errorf("detection.chunksize must be positive, got %d", settings.Detection.ChunkSize)
	}

	grid := settings.Detection.Thresholds
	if grid.Count < 2 {
		return fmt.Errorf("detection.thresholds.count must be at least 2, got %d", grid.Count)
	}
	if grid.Min <= 0 || grid.Max <= grid.Min {
		return fmt.Errorf("detection threshold range [%g, %g] is not valid", grid.Min, grid.Max)
	}
	if grid.Power <= 0 {
		return fmt.Errorf("detection.thresholds.power must be positive, got %g", grid.Power)
	}

	eval := settings.Evaluation
	if eval.FreqSplit <= 0 {
		return fmt.Errorf("evaluation.freqsplit must be positive, got %g", eval.FreqSplit)
	}
	if eval.Workers < 0 {
		return fmt.Errorf("evaluation.workers must not be negative, got %d", eval.Workers)
	}
	if eval.WindowLength <= 0 {
		return fmt.Errorf("evaluation.windowlength must be positive, got %g", eval.WindowLength)
	}
	if eval.TseepWindowOffset < 0 || eval.ThrushWindowOffset < 0 {
		return fmt.Errorf("match window offsets must not be negative")
	}

	if len(settings.Input.Units) == 0 {
		return fmt.Errorf("input.units must list at least one recording unit")
	}
	seen := make(map[int]bool, len(settings.Input.Units))
	for _, unit := range settings.Input.Units {
		if unit <= 0 {
			return fmt.Errorf("input unit numbers must be positive, got %d", unit)
		}
		if seen[unit] {
			return fmt.Errorf("input unit %d listed twice", unit)
		}
		seen[unit] = true
	}

	return nil
}
