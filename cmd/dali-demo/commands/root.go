// Package commands implements the dali-demo CLI commands.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// appVersion is the dali-demo build version, set at build time via ldflags.
var appVersion = "dev"

// rootCmd is the top-level cobra command for dali-demo.
var rootCmd = &cobra.Command{
	Use:   "dali-demo",
	Short: "Operator tool for the DALI gateway control core",
	Long:  "dali-demo discovers SR DALI gateways on the local network and connects to them over MQTT.",
	// Silence cobra's built-in usage/error printing so we control it.
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(discoverCmd())
	rootCmd.AddCommand(connectCmd())
	rootCmd.AddCommand(versionCmd())
}

// Execute runs the root command and exits with code 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print dali-demo build information",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("dali-demo %s\n", appVersion)
		},
	}
}
