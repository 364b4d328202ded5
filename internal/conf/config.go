// config.go: settings struct and functions to load and save the
// evaluation suite configuration.
package conf

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// LogConfig contains settings for the main application log file.
type LogConfig struct {
	Enabled    bool   // true to log to a file in addition to stdout/stderr
	Path       string // path to the log file
	MaxSize    int    // maximum log file size in megabytes before rotation
	MaxBackups int    // number of rotated log files to keep
	MaxAge     int    // days to retain rotated log files
}

// InputSettings locates the evaluation inputs on disk.
type InputSettings struct {
	RecordingsDir  string // directory containing the BirdVox WAV recordings
	AnnotationsDir string // directory containing the BirdVox annotation CSVs
	ClipsDir       string // directory containing the staged Old Bird clips CSVs
	Units          []int  // BirdVox unit numbers to evaluate
}

// SQLiteSettings configures the optional staged-clip database.
type SQLiteSettings struct {
	Enabled bool   // true to stage clips through SQLite instead of flat CSV
	Path    string // path to the SQLite database file
}

// OutputSettings locates the evaluation outputs.
type OutputSettings struct {
	Dir    string // directory for curve CSV files
	SQLite SQLiteSettings
}

// ThresholdGrid determines the detection thresholds the detectors are
// run at. Thresholds are spaced by a power law between Min and Max so
// the low end of the range, where the curves bend, is sampled densely.
type ThresholdGrid struct {
	Min   float64 // lowest detection threshold
	Max   float64 // highest detection threshold
	Power float64 // power-law exponent of the spacing
	Count int     // number of generated thresholds
}

// DetectionSettings configures the detector runner.
type DetectionSettings struct {
	SampleRate int           // recording sample rate in hertz
	ChunkSize  int           // WAV read chunk size in samples
	Thresholds ThresholdGrid // detection threshold grid
}

// EvaluationSettings configures matching and curve building.
type EvaluationSettings struct {
	FreqSplit          float64 // tseep/thrush center frequency split in hertz
	Workers            int     // parallel evaluation workers, 0 for GOMAXPROCS
	TseepWindowOffset  float64 // match window offset from tseep clip start, seconds
	ThrushWindowOffset float64 // match window offset from thrush clip start, seconds
	WindowLength       float64 // match window length, seconds
}

// Settings contains all configuration of the evaluation suite.
type Settings struct {
	Debug bool // true to enable debug output

	Main struct {
		Name string // application name
		Log  LogConfig
	}

	Input      InputSettings
	Output     OutputSettings
	Detection  DetectionSettings
	Evaluation EvaluationSettings
}

// settingsInstance is the current settings instance
var (
	settingsInstance *Settings
	once             sync.Once
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file and environment variables into a
// Settings struct and stores it as the active instance.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settings := &Settings{}

	// Initialize viper and read config
	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	// Unmarshal the config into settings
	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	// Validate settings
	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// initViper initializes viper with default values and reads the
// configuration file.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	// Set default values for each configuration parameter
	// function defined in defaults.go
	setDefaultConfig()

	err = viper.ReadInConfig()
	if err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			// Config file not found, create config with defaults
			return createDefaultConfig()
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// createDefaultConfig writes the default settings to the first default
// config path so a fresh install starts from an editable file.
func createDefaultConfig() error {
	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	configPath := filepath.Join(configPaths[0], "config.yaml")

	settings := &Settings{}
	if err := viper.Unmarshal(settings); err != nil {
		return fmt.Errorf("error unmarshaling defaults: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("error creating directories for config file: %w", err)
	}
	if err := SaveYAMLConfig(configPath, settings); err != nil {
		return fmt.Errorf("error writing default config file: %w", err)
	}

	fmt.Println("Created default config file at:", configPath)
	return viper.ReadInConfig()
}

// GetDefaultConfigPaths returns the config file search paths, current
// working directory first so project-local configs win.
func GetDefaultConfigPaths() ([]string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("error fetching user home directory: %w", err)
	}
	return []string{
		".",
		filepath.Join(homeDir, ".config", "oldbird"),
	}, nil
}

// SaveYAMLConfig writes settings to the YAML configuration file. The
// write goes through a temporary file so a crash cannot leave a
// truncated config behind.
func SaveYAMLConfig(configPath string, settings *Settings) error {
	yamlData, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("error marshaling settings to YAML: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(configPath), "config-*.yaml")
	if err != nil {
		return fmt.Errorf("error creating temporary config file: %w", err)
	}
	tempName := tempFile.Name()

	if _, err := tempFile.Write(yamlData); err != nil {
		tempFile.Close()
		os.Remove(tempName)
		return fmt.Errorf("error writing temporary config file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		os.Remove(tempName)
		return fmt.Errorf("error closing temporary config file: %w", err)
	}

	if err := os.Rename(tempName, configPath); err != nil {
		os.Remove(tempName)
		return fmt.Errorf("error replacing config file: %w", err)
	}
	return nil
}

// GetSettings returns the current settings instance
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// Setting returns the current settings instance, initializing it if necessary
func Setting() *Settings {
	once.Do(func() {
		if settingsInstance == nil {
			_, err := Load()
			if err != nil {
				log.Fatalf("Error loading settings: %v", err)
			}
		}
	})
	return GetSettings()
}

// RecordingID returns the canonical recording identifier of a BirdVox unit.
func RecordingID(unit int) string {
	return fmt.Sprintf("unit%02d", unit)
}

// AnnotationsFilePath returns the path of the annotation CSV of a unit.
func (s *Settings) AnnotationsFilePath(unit int) string {
	return filepath.Join(s.Input.AnnotationsDir, fmt.Sprintf(AnnotationsFileNameFormat, unit))
}

// RecordingFilePath returns the path of the WAV recording of a unit.
func (s *Settings) RecordingFilePath(unit int) string {
	return filepath.Join(s.Input.RecordingsDir, fmt.Sprintf(RecordingFileNameFormat, unit))
}

// ClipsFilePath returns the path of the staged clips CSV of a
// post-processing variant.
func (s *Settings) ClipsFilePath(postEnabled bool) string {
	return filepath.Join(s.Input.ClipsDir, fmt.Sprintf(ClipsFileNameFormat, PostString(postEnabled)))
}

// CurveFilePath returns the output path of the curve CSV of a
// post-processing variant.
func (s *Settings) CurveFilePath(postEnabled bool) string {
	return filepath.Join(s.Output.Dir, fmt.Sprintf(CurveFileNameFormat, PostString(postEnabled)))
}
