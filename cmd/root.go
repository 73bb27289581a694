// Package cmd implements the avalonctl command tree.
package cmd

import (
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/avalontools/avalonctl/lib/config"
	"github.com/avalontools/avalonctl/shared"
)

// AppVersion is the avalonctl release version.
const AppVersion = "1.2.0"

var (
	cfgFile     string //nolint:gochecknoglobals // Cobra flag target
	enableDebug bool   //nolint:gochecknoglobals // Cobra flag target
	hostArg     string //nolint:gochecknoglobals // Cobra flag target
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{ //nolint:gochecknoglobals // Cobra root command
	Use:     "avalonctl",
	Version: AppVersion,
	Short:   "Avalon Mini 3 control and password recovery tool",
	Long: `avalonctl manages Avalon Mini 3 miners over the CGMiner API and web
interface: device status, operating controls, and recovery of lost web UI
passwords via the device's auth digest.`,
}

// Execute runs the root command.
func Execute() {
	err := rootCmd.Execute()
	cobra.CheckErr(err)
}

func init() { //nolint:gochecknoinits // Cobra command registration
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is avalonctl.yaml)")
	rootCmd.PersistentFlags().BoolVar(&enableDebug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&hostArg, "host", "H", "", "Device address, comma-separated list, or hosts file")
	rootCmd.PersistentFlags().IntP("port", "p", 4028, "CGMiner API port")
	rootCmd.PersistentFlags().Int("parallel", 16, "Maximum concurrent device connections in fleet mode")
	rootCmd.PersistentFlags().Duration("timeout", 0, "CGMiner API timeout")

	cobra.CheckErr(viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug")))
	cobra.CheckErr(viper.BindPFlag("api_port", rootCmd.PersistentFlags().Lookup("port")))
	cobra.CheckErr(viper.BindPFlag("parallel", rootCmd.PersistentFlags().Lookup("parallel")))

	config.SetDefaultConfigValues()
}

// initConfig loads configuration, populates the shared state, and tunes the
// logger. Runs once before any subcommand.
func initConfig() {
	config.InitConfig(cfgFile)
	config.SetupSharedState()

	if t, err := rootCmd.PersistentFlags().GetDuration("timeout"); err == nil && t > 0 {
		shared.State.Timeout = t
	}

	initLogger()
}

// initLogger adjusts the logging level based on the debug state.
func initLogger() {
	if shared.State.Debug {
		shared.Logger.SetLevel(log.DebugLevel)
		shared.Logger.SetReportCaller(true)
	} else {
		shared.Logger.SetLevel(log.InfoLevel)
	}
}
