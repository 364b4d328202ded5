// conf/defaults.go default values for settings
package conf

import (
	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "OldBird-Go")
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "oldbird.log")
	viper.SetDefault("main.log.maxsize", 100)
	viper.SetDefault("main.log.maxbackups", 3)
	viper.SetDefault("main.log.maxage", 28)

	viper.SetDefault("input.recordingsdir", "recordings/")
	viper.SetDefault("input.annotationsdir", "annotations/")
	viper.SetDefault("input.clipsdir", "clips/")
	viper.SetDefault("input.units", DefaultUnits)

	viper.SetDefault("output.dir", "results/")
	viper.SetDefault("output.sqlite.enabled", false)
	viper.SetDefault("output.sqlite.path", "oldbird.db")

	viper.SetDefault("detection.samplerate", SampleRate)
	viper.SetDefault("detection.chunksize", 100000)
	viper.SetDefault("detection.thresholds.min", 1.05)
	viper.SetDefault("detection.thresholds.max", 20.0)
	viper.SetDefault("detection.thresholds.power", 3.0)
	viper.SetDefault("detection.thresholds.count", 100)

	viper.SetDefault("evaluation.freqsplit", FreqSplit)
	viper.SetDefault("evaluation.workers", 0)
	viper.SetDefault("evaluation.tseepwindowoffset", TseepWindowOffset)
	viper.SetDefault("evaluation.thrushwindowoffset", ThrushWindowOffset)
	viper.SetDefault("evaluation.windowlength", MatchWindowLength)
}
