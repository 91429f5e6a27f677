package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var restartCmd = &cobra.Command{
	Use:   "restart",
	Short: "Restart the patchgo release server",
	RunE:  runRestart,
}

func init() {
	restartCmd.Flags().StringVar(&startConfigPath, "config", "", "lbsd config file")
}

func runRestart(cmd *cobra.Command, args []string) error {
	if !isRunning() {
		fmt.Println("Daemon is not running, starting it...")
		return runStart(cmd, args)
	}

	fmt.Println("Stopping daemon...")
	if err := runStop(cmd, args); err != nil {
		return fmt.Errorf("failed to stop daemon: %w", err)
	}

	fmt.Println()
	fmt.Println("Starting daemon...")
	if err := runStart(cmd, args); err != nil {
		return fmt.Errorf("failed to start daemon: %w", err)
	}

	return nil
}
