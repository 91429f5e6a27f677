package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
)

var startConfigPath string

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the patchgo release server (lbsd) as a background process",
	RunE:  runStart,
}

func init() {
	startCmd.Flags().StringVar(&startConfigPath, "config", "", "lbsd config file")
}

func runStart(cmd *cobra.Command, args []string) error {
	if isRunning() {
		return fmt.Errorf("daemon is already running (PID file exists: %s)", getDefaultPIDPath())
	}

	lbsdPath, err := findLbsdBinary()
	if err != nil {
		return fmt.Errorf("failed to find lbsd binary: %w", err)
	}

	var cmdArgs []string
	if startConfigPath != "" {
		cmdArgs = append(cmdArgs, "--config", startConfigPath)
	}

	daemonCmd := exec.Command(lbsdPath, cmdArgs...)
	daemonCmd.Env = os.Environ()
	setProcAttributes(daemonCmd)

	logPath := getLogPath()
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer logFile.Close()
	daemonCmd.Stdout = logFile
	daemonCmd.Stderr = logFile

	if err := daemonCmd.Start(); err != nil {
		return fmt.Errorf("failed to start daemon: %w", err)
	}

	fmt.Printf("Daemon started with PID %d\n", daemonCmd.Process.Pid)
	fmt.Printf("Logs: %s\n", logPath)

	const maxAttempts = 6
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		time.Sleep(500 * time.Millisecond)
		if isRunning() {
			fmt.Println("Daemon initialization verified")
			return nil
		}
		if attempt < maxAttempts {
			fmt.Printf("Waiting for daemon initialization... (%d/%d)\n", attempt, maxAttempts)
		}
	}

	return fmt.Errorf("daemon failed to initialize within %d seconds (check logs: %s)", maxAttempts/2, logPath)
}

func findLbsdBinary() (string, error) {
	if path, err := exec.LookPath("lbsd"); err == nil {
		return path, nil
	}

	lbsPath, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to get executable path: %w", err)
	}

	lbsdPath := filepath.Join(filepath.Dir(lbsPath), "lbsd")
	if _, err := os.Stat(lbsdPath); err == nil {
		return lbsdPath, nil
	}

	return "", fmt.Errorf("lbsd binary not found in PATH or alongside lbs")
}
