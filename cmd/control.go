package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"sync/atomic"

	"github.com/spf13/cobra"

	"github.com/avalontools/avalonctl/lib/cgminer"
	"github.com/avalontools/avalonctl/lib/device"
	"github.com/avalontools/avalonctl/shared"
)

// Fan speed bounds accepted by the firmware; -1 selects automatic control.
const (
	fanSpeedMin  = 15
	fanSpeedMax  = 100
	fanSpeedAuto = -1
)

var rebootCmd = &cobra.Command{ //nolint:gochecknoglobals // Cobra command
	Use:   "reboot",
	Short: "Reboot the device",
	Run: func(_ *cobra.Command, _ []string) {
		runControl(func(ctx context.Context, api *cgminer.Client) (*cgminer.Reply, string, error) {
			reply, err := api.AscSet(ctx, "0,reboot,1")

			return reply, "rebooting", err
		})
	},
}

var fanCmd = &cobra.Command{ //nolint:gochecknoglobals // Cobra command
	Use:   "fan SPEED",
	Short: "Set fan speed (15-100 or 'auto')",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		speed := fanSpeedAuto
		if args[0] != "auto" {
			v, err := strconv.Atoi(args[0])
			if err != nil || v < fanSpeedMin || v > fanSpeedMax {
				shared.Logger.Error("Fan speed must be 15-100 or 'auto'")
				os.Exit(ExitConfigError)
			}

			speed = v
		}

		msg := fmt.Sprintf("fan set to %d%%", speed)
		if speed == fanSpeedAuto {
			msg = "fan set to auto"
		}

		runControl(func(ctx context.Context, api *cgminer.Client) (*cgminer.Reply, string, error) {
			reply, err := api.AscSet(ctx, fmt.Sprintf("0,fan-spd,%d", speed))

			return reply, msg, err
		})
	},
}

var freqCmd = &cobra.Command{ //nolint:gochecknoglobals // Cobra command
	Use:   "freq MHZ",
	Short: "Set chip frequency",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		freq, err := strconv.Atoi(args[0])
		if err != nil {
			shared.Logger.Error("Frequency must be an integer MHz value")
			os.Exit(ExitConfigError)
		}

		runControl(func(ctx context.Context, api *cgminer.Client) (*cgminer.Reply, string, error) {
			// All four PLLs get the same value: pll0:pll1:pll2:pll3.
			reply, err := api.AscSet(ctx, fmt.Sprintf("0,frequency,%d:%d:%d:%d", freq, freq, freq, freq))

			return reply, fmt.Sprintf("frequency set to %d MHz", freq), err
		})
	},
}

var modeCmd = &cobra.Command{ //nolint:gochecknoglobals // Cobra command
	Use:   "mode MODE",
	Short: "Set work mode (0=Heater, 1=Mining, 2=Night)",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		mode, err := strconv.Atoi(args[0])
		if err != nil || mode < cgminer.ModeHeater || mode > cgminer.ModeNight {
			shared.Logger.Error("Mode must be 0 (Heater), 1 (Mining) or 2 (Night)")
			os.Exit(ExitConfigError)
		}

		runControl(func(ctx context.Context, api *cgminer.Client) (*cgminer.Reply, string, error) {
			reply, err := api.AscSet(ctx, fmt.Sprintf("0,workmode,set,%d", mode))

			return reply, fmt.Sprintf("mode set to %s", cgminer.ModeName(mode)), err
		})
	},
}

var levelCmd = &cobra.Command{ //nolint:gochecknoglobals // Cobra command
	Use:   "level N",
	Short: "Set performance level",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		level, err := strconv.Atoi(args[0])
		if err != nil {
			shared.Logger.Error("Level must be an integer")
			os.Exit(ExitConfigError)
		}

		runControl(func(ctx context.Context, api *cgminer.Client) (*cgminer.Reply, string, error) {
			reply, err := api.AscSet(ctx, fmt.Sprintf("0,worklevel,set,%d", level))

			return reply, fmt.Sprintf("level set to %d", level), err
		})
	},
}

var switchpoolCmd = &cobra.Command{ //nolint:gochecknoglobals // Cobra command
	Use:   "switchpool ID",
	Short: "Switch the active mining pool",
	Args:  cobra.ExactArgs(1),
	Run:   poolControl("switchpool", "switched to pool %s"),
}

var enablepoolCmd = &cobra.Command{ //nolint:gochecknoglobals // Cobra command
	Use:   "enablepool ID",
	Short: "Enable a mining pool",
	Args:  cobra.ExactArgs(1),
	Run:   poolControl("enablepool", "pool %s enabled"),
}

var disablepoolCmd = &cobra.Command{ //nolint:gochecknoglobals // Cobra command
	Use:   "disablepool ID",
	Short: "Disable a mining pool",
	Args:  cobra.ExactArgs(1),
	Run:   poolControl("disablepool", "pool %s disabled"),
}

func init() { //nolint:gochecknoinits // Cobra command registration
	rootCmd.AddCommand(rebootCmd)
	rootCmd.AddCommand(fanCmd)
	rootCmd.AddCommand(freqCmd)
	rootCmd.AddCommand(modeCmd)
	rootCmd.AddCommand(levelCmd)
	rootCmd.AddCommand(switchpoolCmd)
	rootCmd.AddCommand(enablepoolCmd)
	rootCmd.AddCommand(disablepoolCmd)
}

// runControl executes a control action against every configured host and
// reports per-host success from the reply status.
func runControl(action func(ctx context.Context, api *cgminer.Client) (*cgminer.Reply, string, error)) {
	hosts := requireHosts()
	ctx := context.Background()

	var failed atomic.Bool

	lines := device.RunFleet(ctx, hosts, shared.State.Parallel, func(ctx context.Context, host string) string {
		api := cgminer.NewClient(host, shared.State.APIPort, shared.State.Timeout)

		reply, msg, err := action(ctx, api)
		if err != nil {
			failed.Store(true)

			return fmt.Sprintf("%s: %v", host, err)
		}

		if ok, status := reply.Succeeded(); !ok {
			failed.Store(true)

			return fmt.Sprintf("%s: device refused: %s", host, status)
		}

		return fmt.Sprintf("%s: %s", host, msg)
	})

	for _, line := range lines {
		fmt.Println(line)
	}

	if failed.Load() {
		os.Exit(1)
	}
}

// poolControl builds a Run function for the pool commands, which go through
// a plain CGMiner command rather than ascset.
func poolControl(command, msgFormat string) func(*cobra.Command, []string) {
	return func(_ *cobra.Command, args []string) {
		id := args[0]
		if _, err := strconv.Atoi(id); err != nil {
			shared.Logger.Error("Pool ID must be an integer")
			os.Exit(ExitConfigError)
		}

		runControl(func(ctx context.Context, api *cgminer.Client) (*cgminer.Reply, string, error) {
			reply, err := api.Command(ctx, command, id)

			return reply, fmt.Sprintf(msgFormat, id), err
		})
	}
}
