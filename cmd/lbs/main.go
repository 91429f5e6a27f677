// Command lbs is the control CLI for the patchgo release server daemon
// (lbsd): start/stop/restart/status lifecycle management plus signing-key
// and release-inventory utilities.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var buildVersion = "dev" // set via -ldflags at build time

var rootCmd = &cobra.Command{
	Use:          "lbs",
	Short:        "Control CLI for the patchgo release server",
	Version:      buildVersion,
	SilenceUsage: true,
}

func main() {
	rootCmd.AddCommand(
		startCmd,
		stopCmd,
		statusCmd,
		restartCmd,
		keygenCmd,
		listCmd,
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
