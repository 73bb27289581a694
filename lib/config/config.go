// Package config provides configuration management for avalonctl.
package config

import (
	"os"
	"path"
	"runtime"
	"time"

	gap "github.com/muesli/go-app-paths"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/avalontools/avalonctl/lib/engine"
	"github.com/avalontools/avalonctl/shared"
)

const (
	// Default configuration values.
	defaultAPIPort          = 4028             // CGMiner API port
	defaultTimeout          = 10 * time.Second // CGMiner API connect/read timeout
	defaultParallel         = 16               // Concurrent connections in fleet mode
	defaultProgressInterval = 5 * time.Second  // Search progress report interval
)

var (
	scope = gap.NewScope(gap.User, "avalonctl") //nolint:gochecknoglobals // Configuration scope
)

// InitConfig initializes the configuration from various sources.
func InitConfig(cfgFile string) {
	shared.ErrorLogger.SetReportCaller(true)

	home, err := os.UserConfigDir()
	cobra.CheckErr(err)

	cwd, err := os.Getwd()
	cobra.CheckErr(err)
	viper.AddConfigPath(cwd)

	configDirs, err := scope.ConfigDirs()
	cobra.CheckErr(err)

	for _, dir := range configDirs {
		viper.AddConfigPath(dir)
	}

	viper.AddConfigPath(home)
	viper.SetConfigType("yaml")
	viper.SetConfigName("avalonctl")

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	viper.SetEnvPrefix("AVALONCTL")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		shared.Logger.Debug("Using config file", "config_file", viper.ConfigFileUsed())
	}
}

// SetupSharedState configures the shared state from configuration values.
func SetupSharedState() {
	shared.State.APIPort = viper.GetInt("api_port")
	shared.State.Timeout = viper.GetDuration("timeout")
	shared.State.Parallel = viper.GetInt("parallel")
	shared.State.DataPath = viper.GetString("data_path")
	shared.State.Debug = viper.GetBool("debug")
	shared.State.Workers = viper.GetInt("workers")
	shared.State.ChunkSize = viper.GetUint64("chunk_size")
	shared.State.ProgressInterval = viper.GetDuration("progress_interval")
}

// SetDefaultConfigValues sets default configuration values.
func SetDefaultConfigValues() {
	cwd, err := os.Getwd()
	cobra.CheckErr(err)

	viper.SetDefault("api_port", defaultAPIPort)
	viper.SetDefault("timeout", defaultTimeout)
	viper.SetDefault("parallel", defaultParallel)
	viper.SetDefault("data_path", path.Join(cwd, "data"))
	viper.SetDefault("workers", defaultWorkerCount())
	viper.SetDefault("chunk_size", engine.DefaultChunkSize)
	viper.SetDefault("progress_interval", defaultProgressInterval)
}

// defaultWorkerCount sizes the worker pool to the physical core count; the
// oracle is compute-bound and gains nothing from hyperthread siblings.
func defaultWorkerCount() int {
	count, err := cpu.Counts(false)
	if err != nil || count < 1 {
		return runtime.NumCPU()
	}

	return count
}
