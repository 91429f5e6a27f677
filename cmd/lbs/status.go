package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether the patchgo release server is running",
	RunE:  runStatus,
}

type latestVersionResponse struct {
	Version string `json:"version"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	if !isRunning() {
		fmt.Println("Daemon Status: STOPPED")
		return nil
	}

	apiAddr := getDaemonAddr()

	client := &http.Client{Timeout: 3 * time.Second}
	resp, err := client.Get(apiAddr + "/latest")
	if err != nil {
		fmt.Println("Daemon Status: UNKNOWN (PID exists but cannot connect)")
		return fmt.Errorf("failed to connect to daemon: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		fmt.Println("Daemon Status: ERROR")
		return fmt.Errorf("daemon returned status %d", resp.StatusCode)
	}

	var latest latestVersionResponse
	if err := json.NewDecoder(resp.Body).Decode(&latest); err != nil {
		fmt.Println("Daemon Status: RUNNING (but /latest response unparseable)")
		return fmt.Errorf("failed to parse /latest: %w", err)
	}

	fmt.Println("Daemon Status: RUNNING")
	fmt.Printf("  Listen Address:  %s\n", apiAddr)
	fmt.Printf("  Latest Version:  %s\n", latest.Version)
	return nil
}
