package output

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/oldbird-go/internal/curve"
	"github.com/tphakala/oldbird-go/internal/detection"
)

func buildCurve(t *testing.T, detector string, classified []detection.Classified, groundTruth int, grid []float64) curve.Curve {
	t.Helper()
	return curve.Build(detector, classified, groundTruth, grid)
}

func TestWriteCurves(t *testing.T) {
	classified := []detection.Classified{
		{Detection: detection.Detection{Detector: detection.Tseep, Threshold: 2.0}, TruePositive: true},
		{Detection: detection.Detection{Detector: detection.Tseep, Threshold: 2.0, StartTime: 1}, TruePositive: true},
		{Detection: detection.Detection{Detector: detection.Tseep, Threshold: 2.0, StartTime: 2}},
	}
	c := buildCurve(t, "Tseep", classified, 4, []float64{2.0, 5.0})

	var buf bytes.Buffer
	require.NoError(t, WriteCurves(&buf, []curve.Curve{c}))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, []string{
		"Detector", "Threshold", "Ground Truth Calls", "Old Bird Calls",
		"Old Bird Clips", "Precision", "Recall", "F1",
	}, records[0])

	// Threshold 2.0: 2 of 3 clips matched against 4 calls.
	assert.Equal(t, []string{"Tseep", "2", "4", "2", "3", "66.7", "50", "57.1"}, records[1])

	// Threshold 5.0 produced no clips, so precision and F1 are empty.
	assert.Equal(t, []string{"Tseep", "5", "4", "0", "0", "", "0", ""}, records[2])
}

func TestWriteCurvesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "curves.csv")

	c := buildCurve(t, "Thrush", nil, 0, []float64{1.3})
	require.NoError(t, WriteCurvesFile(path, []curve.Curve{c}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Thrush,1.3,0,0,0,,,")

	// No stray temp files left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "66.7", formatPercent(2.0/3.0))
	assert.Equal(t, "50", formatPercent(0.5))
	assert.Equal(t, "100", formatPercent(1.0))
	assert.Equal(t, "0", formatPercent(0))
	assert.Equal(t, "12.3", formatPercent(0.1234))
}

func TestRenderSummary(t *testing.T) {
	classified := []detection.Classified{
		{Detection: detection.Detection{Detector: detection.Tseep, Threshold: 2.0}, TruePositive: true},
		{Detection: detection.Detection{Detector: detection.Tseep, Threshold: 2.0, StartTime: 1}},
		{Detection: detection.Detection{Detector: detection.Tseep, Threshold: 5.0}, TruePositive: true},
	}
	c := buildCurve(t, "Tseep", classified, 2, nil)

	var buf bytes.Buffer
	RenderSummary(&buf, []curve.Curve{c}, map[string]float64{"Tseep": 2.0})

	out := buf.String()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "Detector")
	assert.Contains(t, lines[1], "Tseep")
	assert.Contains(t, lines[1], "50%")
	// The stock threshold's point is shown, not the other one.
	assert.NotContains(t, lines[1], "100%")
}
