package detection

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/oldbird-go/internal/errors"
)

const clipsCSV = `Detector,Unit,Threshold,Start Index,Length
Thrush,1,1.3,36000,9600
Tseep,2,2,241200,4800
`

func TestReadClips(t *testing.T) {
	rows, err := ReadClips(strings.NewReader(clipsCSV))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, ClipRow{Detector: "Thrush", Unit: 1, Threshold: 1.3, StartIndex: 36000, Length: 9600}, rows[0])
	assert.Equal(t, ClipRow{Detector: "Tseep", Unit: 2, Threshold: 2, StartIndex: 241200, Length: 4800}, rows[1])
}

func TestReadClips_BadInput(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty file", ""},
		{"short row", "Detector,Unit,Threshold,Start Index,Length\nTseep,1,2\n"},
		{"bad unit", "Detector,Unit,Threshold,Start Index,Length\nTseep,x,2,0,100\n"},
		{"bad threshold", "Detector,Unit,Threshold,Start Index,Length\nTseep,1,x,0,100\n"},
		{"bad start index", "Detector,Unit,Threshold,Start Index,Length\nTseep,1,2,x,100\n"},
		{"bad length", "Detector,Unit,Threshold,Start Index,Length\nTseep,1,2,0,x\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadClips(strings.NewReader(tt.content))
			assert.Error(t, err)
		})
	}
}

func TestClipRow_Detection(t *testing.T) {
	row := ClipRow{Detector: "Tseep", Unit: 2, Threshold: 2, StartIndex: 241200, Length: 4800}
	d, err := row.Detection(24000, true)
	require.NoError(t, err)

	assert.Equal(t, "unit02", d.RecordingID)
	assert.Equal(t, Tseep, d.Detector)
	assert.True(t, d.PostProcessed)
	assert.InDelta(t, 10.05, d.StartTime, 1e-12)
	assert.InDelta(t, 0.2, d.Duration, 1e-12)
	assert.InDelta(t, 10.25, d.EndTime(), 1e-12)
}

func TestClipRow_UnknownDetector(t *testing.T) {
	row := ClipRow{Detector: "Warbler", Unit: 1, Threshold: 2, StartIndex: 0, Length: 100}
	_, err := row.Detection(24000, false)
	require.Error(t, err)
	assert.True(t, errors.IsData(err))
}

func TestDetection_ValidateNonFinite(t *testing.T) {
	d := Detection{RecordingID: "unit01", Detector: Tseep, Threshold: math.NaN(), StartTime: 1, Duration: 1}
	err := d.Validate()
	require.Error(t, err)
	assert.True(t, errors.IsData(err))

	d = Detection{RecordingID: "unit01", Detector: Tseep, Threshold: 2, StartTime: math.Inf(1), Duration: 1}
	assert.True(t, errors.IsData(d.Validate()))
}

func TestWriteClips_DeterministicOrder(t *testing.T) {
	rows := []ClipRow{
		{Detector: "Tseep", Unit: 2, Threshold: 2, StartIndex: 241200, Length: 4800},
		{Detector: "Thrush", Unit: 1, Threshold: 1.3, StartIndex: 36000, Length: 9600},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteClips(&buf, rows))
	assert.Equal(t, clipsCSV, buf.String())

	// Input order must not matter.
	var buf2 bytes.Buffer
	require.NoError(t, WriteClips(&buf2, []ClipRow{rows[1], rows[0]}))
	assert.Equal(t, buf.String(), buf2.String())
}

func TestReadClipsFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clips.csv")
	require.NoError(t, os.WriteFile(path, []byte(clipsCSV), 0o644))

	detections, err := ReadClipsFile(path, 24000, false)
	require.NoError(t, err)
	require.Len(t, detections, 2)
	assert.Equal(t, Thrush, detections[0].Detector)
	assert.False(t, detections[0].PostProcessed)
}

func TestWriteClipsFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "staged", "clips.csv")
	rows := []ClipRow{
		{Detector: "Thrush", Unit: 1, Threshold: 1.3, StartIndex: 36000, Length: 9600},
		{Detector: "Tseep", Unit: 2, Threshold: 2, StartIndex: 241200, Length: 4800},
	}
	require.NoError(t, WriteClipsFile(path, rows))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, clipsCSV, string(data))
}

func TestReadClipsFile_Missing(t *testing.T) {
	_, err := ReadClipsFile(filepath.Join(t.TempDir(), "nope.csv"), 24000, false)
	assert.Error(t, err)
}

func TestParseDetector(t *testing.T) {
	for _, name := range []string{"Tseep", "Thrush"} {
		d, err := ParseDetector(name)
		require.NoError(t, err)
		assert.Equal(t, name, string(d))
	}
	_, err := ParseDetector("tseep")
	assert.Error(t, err)
}
