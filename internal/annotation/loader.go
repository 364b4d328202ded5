package annotation

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/patrickmn/go-cache"

	"github.com/tphakala/oldbird-go/internal/conf"
	"github.com/tphakala/oldbird-go/internal/errors"
)

// Loader reads BirdVox annotation CSV files. Parsed files are cached so
// the two post-processing variants of an evaluation run parse each unit
// file once.
type Loader struct {
	settings *conf.Settings
	cache    *cache.Cache
}

// NewLoader creates a loader reading from the configured annotations
// directory.
func NewLoader(settings *conf.Settings) *Loader {
	return &Loader{
		settings: settings,
		cache:    cache.New(cache.NoExpiration, cache.NoExpiration),
	}
}

// LoadUnit reads the annotation file of one BirdVox unit.
func (l *Loader) LoadUnit(unit int) ([]Annotation, error) {
	recordingID := conf.RecordingID(unit)
	if cached, found := l.cache.Get(recordingID); found {
		return cached.([]Annotation), nil
	}

	filePath := l.settings.AnnotationsFilePath(unit)
	file, err := os.Open(filePath)
	if err != nil {
		return nil, errors.New(fmt.Errorf("failed to open annotations file: %w", err)).
			Component("annotation").
			Category(errors.CategoryFileIO).
			FileContext(filePath).
			Build()
	}
	defer file.Close()

	annotations, err := ReadAnnotations(file, recordingID)
	if err != nil {
		return nil, errors.New(fmt.Errorf("reading %s: %w", filePath, err)).
			Component("annotation").
			Category(errors.CategoryFileParsing).
			FileContext(filePath).
			Build()
	}

	l.cache.Set(recordingID, annotations, cache.DefaultExpiration)
	return annotations, nil
}

// LoadAll reads the annotation files of all configured units and returns
// the combined annotation set.
func (l *Loader) LoadAll() ([]Annotation, error) {
	var all []Annotation
	for _, unit := range l.settings.Input.Units {
		annotations, err := l.LoadUnit(unit)
		if err != nil {
			return nil, err
		}
		all = append(all, annotations...)
	}
	return all, nil
}

// ReadAnnotations parses a BirdVox annotation CSV. Each data row is
// "<time>,<frequency>[,...]"; the first row is a header and is skipped.
func ReadAnnotations(r io.Reader, recordingID string) ([]Annotation, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	// Skip header.
	if _, err := reader.Read(); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("annotations file is empty")
		}
		return nil, err
	}

	var annotations []Annotation
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line++

		if len(row) < 2 {
			return nil, fmt.Errorf("line %d: expected at least 2 fields, got %d", line, len(row))
		}
		t, err := strconv.ParseFloat(row[0], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad time %q: %w", line, row[0], err)
		}
		f, err := strconv.ParseFloat(row[1], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad frequency %q: %w", line, row[1], err)
		}

		annotations = append(annotations, Annotation{
			RecordingID: recordingID,
			Time:        t,
			Frequency:   f,
		})
	}

	return annotations, nil
}
