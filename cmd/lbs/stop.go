package main

import (
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running patchgo release server",
	RunE:  runStop,
}

func runStop(cmd *cobra.Command, args []string) error {
	if !isRunning() {
		return fmt.Errorf("daemon is not running")
	}

	pid, err := readPID()
	if err != nil {
		return fmt.Errorf("failed to read PID file: %w", err)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("failed to find daemon process: %w", err)
	}
	// lbsd installs a SIGTERM/SIGINT handler and shuts down gracefully,
	// removing its own PID file once the listener has drained.
	if err := process.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("failed to signal daemon: %w", err)
	}

	fmt.Println("Shutdown signal sent, waiting for daemon to stop...")

	const maxWait = 30 * time.Second
	start := time.Now()
	for time.Since(start) < maxWait {
		if !isRunning() {
			fmt.Println("Daemon stopped successfully")
			return nil
		}
		time.Sleep(500 * time.Millisecond)
	}

	return fmt.Errorf("daemon did not stop within timeout")
}
