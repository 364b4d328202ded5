package detection

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/tphakala/oldbird-go/internal/conf"
	"github.com/tphakala/oldbird-go/internal/errors"
)

// clipsHeader is the column set of the staged clips files. One row per
// clip; this layout is the lossless interchange contract between the
// detector runner and the evaluation.
var clipsHeader = []string{"Detector", "Unit", "Threshold", "Start Index", "Length"}

// ClipRow is one staged clip record. Start index and length are in
// samples at the recording sample rate so the staged files stay exact
// regardless of float formatting.
type ClipRow struct {
	Detector   string
	Unit       int
	Threshold  float64
	StartIndex int64
	Length     int64
}

// Detection converts a staged clip row into a Detection at the given
// sample rate and post-processing variant.
func (c ClipRow) Detection(sampleRate int, postProcessed bool) (Detection, error) {
	det, err := ParseDetector(c.Detector)
	if err != nil {
		return Detection{}, err
	}
	rate := float64(sampleRate)
	d := Detection{
		RecordingID:   conf.RecordingID(c.Unit),
		Detector:      det,
		PostProcessed: postProcessed,
		Threshold:     c.Threshold,
		StartTime:     float64(c.StartIndex) / rate,
		Duration:      float64(c.Length) / rate,
	}
	if err := d.Validate(); err != nil {
		return Detection{}, err
	}
	return d, nil
}

// ReadClips parses a staged clips CSV stream.
func ReadClips(r io.Reader) ([]ClipRow, error) {
	reader := csv.NewReader(r)

	// Skip header.
	if _, err := reader.Read(); err != nil {
		if err == io.EOF {
			return nil, errors.NewStd("clips file is empty")
		}
		return nil, err
	}

	var rows []ClipRow
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line++

		row, err := parseClipRow(record)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseClipRow(record []string) (ClipRow, error) {
	if len(record) != len(clipsHeader) {
		return ClipRow{}, fmt.Errorf("expected %d fields, got %d", len(clipsHeader), len(record))
	}
	unit, err := strconv.Atoi(record[1])
	if err != nil {
		return ClipRow{}, fmt.Errorf("bad unit %q: %w", record[1], err)
	}
	threshold, err := strconv.ParseFloat(record[2], 64)
	if err != nil {
		return ClipRow{}, fmt.Errorf("bad threshold %q: %w", record[2], err)
	}
	startIndex, err := strconv.ParseInt(record[3], 10, 64)
	if err != nil {
		return ClipRow{}, fmt.Errorf("bad start index %q: %w", record[3], err)
	}
	length, err := strconv.ParseInt(record[4], 10, 64)
	if err != nil {
		return ClipRow{}, fmt.Errorf("bad length %q: %w", record[4], err)
	}
	return ClipRow{
		Detector:   record[0],
		Unit:       unit,
		Threshold:  threshold,
		StartIndex: startIndex,
		Length:     length,
	}, nil
}

// WriteClips writes staged clip rows as CSV, sorted so staged files are
// byte-for-byte reproducible across runs.
func WriteClips(w io.Writer, rows []ClipRow) error {
	sorted := make([]ClipRow, len(rows))
	copy(sorted, rows)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Detector != b.Detector {
			return a.Detector < b.Detector
		}
		if a.Unit != b.Unit {
			return a.Unit < b.Unit
		}
		if a.Threshold != b.Threshold {
			return a.Threshold < b.Threshold
		}
		if a.StartIndex != b.StartIndex {
			return a.StartIndex < b.StartIndex
		}
		return a.Length < b.Length
	})

	writer := csv.NewWriter(w)
	if err := writer.Write(clipsHeader); err != nil {
		return err
	}
	for _, row := range sorted {
		record := []string{
			row.Detector,
			strconv.Itoa(row.Unit),
			strconv.FormatFloat(row.Threshold, 'g', -1, 64),
			strconv.FormatInt(row.StartIndex, 10),
			strconv.FormatInt(row.Length, 10),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteClipsFile writes staged clip rows to path, creating parent
// directories as needed.
func WriteClipsFile(path string, rows []ClipRow) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.New(fmt.Errorf("failed to create clips directory: %w", err)).
			Component("detection").
			Category(errors.CategoryFileIO).
			FileContext(path).
			Build()
	}

	file, err := os.Create(path)
	if err != nil {
		return errors.New(fmt.Errorf("failed to create clips file: %w", err)).
			Component("detection").
			Category(errors.CategoryFileIO).
			FileContext(path).
			Build()
	}

	if err := WriteClips(file, rows); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// ReadClipsFile reads a staged clips file from disk and converts it to
// detections at the configured sample rate.
func ReadClipsFile(path string, sampleRate int, postProcessed bool) ([]Detection, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.New(fmt.Errorf("failed to open clips file: %w", err)).
			Component("detection").
			Category(errors.CategoryFileIO).
			FileContext(path).
			Build()
	}
	defer file.Close()

	rows, err := ReadClips(file)
	if err != nil {
		return nil, errors.New(fmt.Errorf("reading %s: %w", path, err)).
			Component("detection").
			Category(errors.CategoryFileParsing).
			FileContext(path).
			Build()
	}

	detections := make([]Detection, 0, len(rows))
	for _, row := range rows {
		d, err := row.Detection(sampleRate, postProcessed)
		if err != nil {
			return nil, err
		}
		detections = append(detections, d)
	}

	getLogger().Debug("read staged clips",
		"path", path,
		"clips", len(detections),
		"post_processed", postProcessed)

	return detections, nil
}
