// conf/defaults.go default values for settings
package conf

import (
	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "RightMic")
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "rightmic.log")
	viper.SetDefault("main.log.maxsize", 10)
	viper.SetDefault("main.log.maxbackups", 3)
	viper.SetDefault("main.log.maxage", 30)

	viper.SetDefault("capture.source", "")
	viper.SetDefault("capture.shmpath", DefaultSharedMemoryPath)
	viper.SetDefault("capture.stagingseconds", 1)

	viper.SetDefault("diag.enabled", false)
	viper.SetDefault("diag.listen", "localhost:9090")
}
