package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/avalontools/avalonctl/lib/device"
	"github.com/avalontools/avalonctl/shared"
)

var authCmd = &cobra.Command{ //nolint:gochecknoglobals // Cobra command
	Use:   "auth PASSWORD",
	Short: "Authenticate to the device web UI",
	Long: `Authenticate a known password against the device web UI and print the
derived credentials and session cookie.`,
	Args: cobra.ExactArgs(1),
	Run:  runAuth,
}

var getauthCmd = &cobra.Command{ //nolint:gochecknoglobals // Cobra command
	Use:   "getauth",
	Short: "Fetch the auth digest and DNA for password recovery",
	Run:   runGetAuth,
}

func init() { //nolint:gochecknoinits // Cobra command registration
	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(getauthCmd)
}

func runAuth(_ *cobra.Command, args []string) {
	host := requireHosts()[0]
	ctx := context.Background()

	client := device.NewClient(host, shared.State.APIPort, shared.State.Timeout)

	creds, cookie, err := client.WebAuth(ctx, args[0])
	if err != nil {
		shared.Logger.Error("Authentication failed", "host", host, "error", err)
		os.Exit(1)
	}

	fmt.Printf("\n  DNA:    %s\n", creds.DNA)
	fmt.Printf("  Auth:   %s\n", creds.Auth)
	fmt.Printf("  Verify: %s\n", creds.Verify)
	fmt.Printf("  Cookie: %s\n", cookie)
	fmt.Printf("\n  curl -b 'auth=%s' http://%s/dashboard.cgi\n\n", cookie, host)
}

func runGetAuth(_ *cobra.Command, _ []string) {
	host := requireHosts()[0]
	ctx := context.Background()

	client := device.NewClient(host, shared.State.APIPort, shared.State.Timeout)

	target, err := client.FetchTarget(ctx)
	if err != nil {
		shared.Logger.Error("Could not fetch recovery target", "host", host, "error", err)
		os.Exit(1)
	}

	fmt.Printf("auth: %s\n", target.Auth)
	fmt.Printf("dna:  %s\n", target.DNA)
	fmt.Printf("\nRecover with: avalonctl recover -t %s --dna %s -w wordlist.txt\n", target.Auth, target.DNA)
}
