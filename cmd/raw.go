package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/avalontools/avalonctl/lib/cgminer"
	"github.com/avalontools/avalonctl/shared"
)

var rawCmd = &cobra.Command{ //nolint:gochecknoglobals // Cobra command
	Use:   "raw COMMAND [PARAMETER]",
	Short: "Send a raw CGMiner API command",
	Args:  cobra.RangeArgs(1, 2),
	Run: func(_ *cobra.Command, args []string) {
		param := ""
		if len(args) > 1 {
			param = args[1]
		}

		runRaw(func(ctx context.Context, api *cgminer.Client) (*cgminer.Reply, error) {
			return api.Command(ctx, args[0], param)
		})
	},
}

var ascsetCmd = &cobra.Command{ //nolint:gochecknoglobals // Cobra command
	Use:   "ascset PARAMETER",
	Short: "Send a raw ascset command",
	Long: `Send a raw ascset command, e.g. "0,help" to list the commands the
firmware accepts.`,
	Args: cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		runRaw(func(ctx context.Context, api *cgminer.Client) (*cgminer.Reply, error) {
			return api.AscSet(ctx, args[0])
		})
	},
}

func init() { //nolint:gochecknoinits // Cobra command registration
	rootCmd.AddCommand(rawCmd)
	rootCmd.AddCommand(ascsetCmd)
}

// runRaw executes the command against the first configured host and pretty
// prints the JSON reply.
func runRaw(fn func(ctx context.Context, api *cgminer.Client) (*cgminer.Reply, error)) {
	host := requireHosts()[0]
	api := cgminer.NewClient(host, shared.State.APIPort, shared.State.Timeout)

	reply, err := fn(context.Background(), api)
	if err != nil {
		shared.Logger.Error("Command failed", "host", host, "error", err)
		os.Exit(1)
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, reply.Raw(), "", "  "); err != nil {
		fmt.Println(string(reply.Raw()))

		return
	}

	fmt.Println(pretty.String())
}
