// config.go: settings loading and validation
package conf

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Settings contains all runtime configuration for the rightmic processes.
// Audio format values are intentionally absent; they are compile-time
// constants in consts.go.
type Settings struct {
	Debug bool // enable debug mode, print debug messages

	Main struct {
		Name string    // name of this node, also used as location name
		Log  LogConfig // logging configuration
	}

	Capture CaptureSettings // companion capture app
	Diag    DiagSettings    // diagnostics HTTP endpoint
}

// LogConfig contains the configuration for the rotating application log.
type LogConfig struct {
	Enabled    bool   // true to enable file logging
	Path       string // path to log file
	MaxSize    int    // maximum size in megabytes before rotation
	MaxBackups int    // maximum number of rotated files to retain
	MaxAge     int    // maximum age in days to retain a rotated file
}

// CaptureSettings contains the configuration for the capture side.
type CaptureSettings struct {
	Source         string // capture device name or ID, empty for system default
	ShmPath        string // shared memory file path
	StagingSeconds int    // in-process staging buffer length in seconds
}

// DiagSettings contains the configuration for the diagnostics endpoint.
type DiagSettings struct {
	Enabled bool   // true to enable the diagnostics HTTP server
	Listen  string // listen address, e.g. "localhost:9090"
}

// Load reads the configuration file (if any) and returns the effective
// settings. Missing config files are not an error; defaults apply.
func Load() (*Settings, error) {
	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	return settings, nil
}

// initViper initializes viper with default values and reads the configuration file.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths, err := getDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}

	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	setDefaultConfig()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			// No config file on disk, run with defaults.
			return nil
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// getDefaultConfigPaths returns the directories searched for config.yaml,
// in priority order: working directory, user config dir, executable dir.
func getDefaultConfigPaths() ([]string, error) {
	paths := []string{"."}

	if configDir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(configDir, "rightmic"))
	}

	exePath, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("error fetching executable path: %w", err)
	}
	paths = append(paths, filepath.Dir(exePath))

	return paths, nil
}
