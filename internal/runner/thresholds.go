package runner

import (
	"math"
	"sort"

	"github.com/tphakala/oldbird-go/internal/conf"
)

// DetectionThresholds generates the threshold grid detectors are swept
// over. Thresholds follow a power law between the configured minimum
// and maximum so the low end of the range, where the precision/recall
// curves bend, is sampled densely. The stock Old Bird Tseep and Thrush
// thresholds are always included so the published operating points
// appear on every curve.
func DetectionThresholds(grid conf.ThresholdGrid) []float64 {
	n := grid.Count
	thresholds := make([]float64, 0, n+2)
	for i := 0; i < n; i++ {
		y := math.Pow(float64(i)/float64(n-1), grid.Power)
		thresholds = append(thresholds, grid.Min+(grid.Max-grid.Min)*y)
	}

	thresholds = append(thresholds, conf.OldBirdThrushThreshold, conf.OldBirdTseepThreshold)
	sort.Float64s(thresholds)

	// Drop duplicates in case a stock threshold coincides with a
	// generated one.
	unique := thresholds[:0]
	for i, t := range thresholds {
		if i == 0 || t != thresholds[i-1] {
			unique = append(unique, t)
		}
	}
	return unique
}
