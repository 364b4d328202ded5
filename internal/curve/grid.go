package curve

import (
	"math"
	"sort"

	"github.com/tphakala/oldbird-go/internal/errors"
)

// GridTolerance is the absolute tolerance under which two independently
// swept threshold values count as the same shared threshold.
const GridTolerance = 1e-9

// SharedThreshold pairs one shared threshold of a combined build with
// the original values it matched in each detector's grid. Value is the
// reported threshold (grid A's value).
type SharedThreshold struct {
	Value float64
	A     float64
	B     float64
}

// ReconcileGrids computes the shared thresholds of two independently
// configured threshold grids by intersection under an absolute
// tolerance. The combined curve must only include thresholds both
// detectors were actually run at; nearest-neighbor substitution would
// silently compare runs at different sensitivities. An empty
// intersection is a configuration error, surfaced before any combined
// point is emitted.
func ReconcileGrids(a, b []float64, tolerance float64) ([]SharedThreshold, error) {
	for _, grids := range [][]float64{a, b} {
		for _, t := range grids {
			if math.IsNaN(t) || math.IsInf(t, 0) {
				return nil, errors.Newf("threshold grid contains non-finite value %g", t).
					Component("curve").
					Category(errors.CategoryConfiguration).
					Build()
			}
		}
	}

	sortedA := sortedUnique(a)
	sortedB := sortedUnique(b)

	var shared []SharedThreshold
	i, j := 0, 0
	for i < len(sortedA) && j < len(sortedB) {
		switch {
		case math.Abs(sortedA[i]-sortedB[j]) <= tolerance:
			shared = append(shared, SharedThreshold{Value: sortedA[i], A: sortedA[i], B: sortedB[j]})
			i++
			j++
		case sortedA[i] < sortedB[j]:
			i++
		default:
			j++
		}
	}

	if len(shared) == 0 {
		return nil, errors.Newf("threshold grids share no comparable values (grid sizes %d and %d)",
			len(sortedA), len(sortedB)).
			Component("curve").
			Category(errors.CategoryConfiguration).
			Build()
	}

	return shared, nil
}

func sortedUnique(values []float64) []float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	unique := sorted[:0]
	for i, v := range sorted {
		if i == 0 || v != sorted[i-1] {
			unique = append(unique, v)
		}
	}
	return unique
}
