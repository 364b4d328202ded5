package curve

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/oldbird-go/internal/errors"
)

func TestReconcileGrids_Identical(t *testing.T) {
	grid := []float64{1.05, 1.3, 2, 5, 20}
	shared, err := ReconcileGrids(grid, grid, GridTolerance)
	require.NoError(t, err)
	require.Len(t, shared, 5)
	for i, st := range shared {
		assert.Equal(t, grid[i], st.Value)
		assert.Equal(t, grid[i], st.A)
		assert.Equal(t, grid[i], st.B)
	}
}

func TestReconcileGrids_PartialOverlap(t *testing.T) {
	shared, err := ReconcileGrids(
		[]float64{1, 2, 3, 4},
		[]float64{2, 4, 8},
		GridTolerance,
	)
	require.NoError(t, err)
	require.Len(t, shared, 2)
	assert.Equal(t, 2.0, shared[0].Value)
	assert.Equal(t, 4.0, shared[1].Value)
}

func TestReconcileGrids_WithinTolerance(t *testing.T) {
	// Values within tolerance count as shared; the first grid's value
	// is the one reported.
	shared, err := ReconcileGrids(
		[]float64{2.0},
		[]float64{2.0 + 1e-12},
		GridTolerance,
	)
	require.NoError(t, err)
	require.Len(t, shared, 1)
	assert.Equal(t, 2.0, shared[0].Value)
	assert.Equal(t, 2.0+1e-12, shared[0].B)
}

func TestReconcileGrids_Disjoint(t *testing.T) {
	_, err := ReconcileGrids([]float64{1, 2}, []float64{3, 4}, GridTolerance)
	require.Error(t, err)
	assert.True(t, errors.IsConfiguration(err))
}

func TestReconcileGrids_UnsortedAndDuplicated(t *testing.T) {
	shared, err := ReconcileGrids(
		[]float64{5, 2, 2, 1.3},
		[]float64{1.3, 5, 5},
		GridTolerance,
	)
	require.NoError(t, err)
	require.Len(t, shared, 2)
	assert.Equal(t, 1.3, shared[0].Value)
	assert.Equal(t, 5.0, shared[1].Value)
}

func TestReconcileGrids_NonFinite(t *testing.T) {
	_, err := ReconcileGrids([]float64{1, math.NaN()}, []float64{1}, GridTolerance)
	require.Error(t, err)
	assert.True(t, errors.IsConfiguration(err))
}
