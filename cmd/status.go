package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/avalontools/avalonctl/lib/cgminer"
	"github.com/avalontools/avalonctl/lib/device"
	"github.com/avalontools/avalonctl/lib/display"
	"github.com/avalontools/avalonctl/shared"
)

var watchInterval time.Duration //nolint:gochecknoglobals // Cobra flag target

var statusCmd = &cobra.Command{ //nolint:gochecknoglobals // Cobra command
	Use:   "status",
	Short: "Show device status",
	Long: `Show version, hashrate, thermals, power and operating mode for one or
more devices. With multiple hosts a compact fleet table is rendered
instead of the full per-device block.`,
	Run: runStatus,
}

var poolsCmd = &cobra.Command{ //nolint:gochecknoglobals // Cobra command
	Use:   "pools",
	Short: "Show configured mining pools",
	Run:   runPools,
}

var watchCmd = &cobra.Command{ //nolint:gochecknoglobals // Cobra command
	Use:   "watch",
	Short: "Continuously monitor a device",
	Run:   runWatch,
}

func init() { //nolint:gochecknoinits // Cobra command registration
	watchCmd.Flags().DurationVarP(&watchInterval, "interval", "i", 5*time.Second, "Refresh interval")

	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(poolsCmd)
	rootCmd.AddCommand(watchCmd)
}

// requireHosts resolves the host flag or exits with a configuration error.
func requireHosts() []string {
	hosts, err := device.ParseHosts(hostArg)
	if err != nil {
		shared.Logger.Error("No device specified, use --host", "error", err)
		os.Exit(ExitConfigError)
	}

	return hosts
}

func runStatus(_ *cobra.Command, _ []string) {
	hosts := requireHosts()
	ctx := context.Background()

	if len(hosts) > 1 {
		runFleetStatus(ctx, hosts)

		return
	}

	host := hosts[0]
	api := cgminer.NewClient(host, shared.State.APIPort, shared.State.Timeout)

	ver, err := api.Version(ctx)
	if err != nil {
		shared.Logger.Error("Device unreachable", "host", host, "error", err)
		os.Exit(1)
	}

	stats, err := api.Stats(ctx)
	if err != nil {
		shared.Logger.Warn("Could not fetch device stats", "host", host, "error", err)
	}

	display.DeviceStatus(host, ver, stats, err == nil)
}

// runFleetStatus renders the one-line-per-host fleet table.
func runFleetStatus(ctx context.Context, hosts []string) {
	display.FleetHeader()

	lines := device.RunFleet(ctx, hosts, shared.State.Parallel, func(ctx context.Context, host string) string {
		api := cgminer.NewClient(host, shared.State.APIPort, shared.State.Timeout)

		stats, err := api.Stats(ctx)
		if err != nil {
			return display.FleetOffline(host)
		}

		return display.FleetStatusLine(host, stats)
	})

	for _, line := range lines {
		fmt.Println(line)
	}
}

func runPools(_ *cobra.Command, _ []string) {
	hosts := requireHosts()
	ctx := context.Background()

	for _, host := range hosts {
		api := cgminer.NewClient(host, shared.State.APIPort, shared.State.Timeout)

		pools, err := api.Pools(ctx)
		if err != nil {
			shared.Logger.Error("Could not fetch pools", "host", host, "error", err)

			continue
		}

		if len(hosts) > 1 {
			fmt.Printf("\n== %s ==\n", host)
		}

		display.Pools(pools)
	}
}

func runWatch(_ *cobra.Command, _ []string) {
	host := requireHosts()[0]

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	api := cgminer.NewClient(host, shared.State.APIPort, shared.State.Timeout)
	shared.Logger.Info("Monitoring device, Ctrl-C to stop", "host", host, "interval", watchInterval)

	ticker := time.NewTicker(watchInterval)
	defer ticker.Stop()

	for {
		stats, err := api.Stats(ctx)
		if err != nil {
			fmt.Printf("\r[%s] unreachable: %v", time.Now().Format("15:04:05"), err)
		} else {
			display.WatchLine(stats)
		}

		select {
		case <-ctx.Done():
			fmt.Println()

			return
		case <-ticker.C:
		}
	}
}
