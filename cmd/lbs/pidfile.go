package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

func getDefaultPIDPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".local/share/patchgo/lbsd.pid"
	}
	return filepath.Join(home, ".local", "share", "patchgo", "lbsd.pid")
}

func getLogPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".local/share/patchgo/lbsd.log"
	}
	return filepath.Join(home, ".local", "share", "patchgo", "lbsd.log")
}

// isRunning reports whether the PID file names a live lbsd process,
// removing the file if it is stale.
func isRunning() bool {
	pidPath := getDefaultPIDPath()
	data, err := os.ReadFile(pidPath)
	if err != nil {
		return false
	}

	content := strings.TrimSpace(string(data))
	pidStr := content
	if idx := strings.Index(content, ":"); idx >= 0 {
		pidStr = content[:idx]
	}

	pid, err := strconv.Atoi(pidStr)
	if err != nil || pid <= 0 {
		removePIDFile()
		return false
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		removePIDFile()
		return false
	}

	if err := process.Signal(syscall.Signal(0)); err != nil {
		removePIDFile()
		return false
	}

	exePath := fmt.Sprintf("/proc/%d/exe", pid)
	if target, err := os.Readlink(exePath); err == nil {
		if filepath.Base(target) != "lbsd" {
			removePIDFile()
			return false
		}
	}

	return true
}

func removePIDFile() {
	os.Remove(getDefaultPIDPath())
}

// readPID returns the PID recorded in the PID file.
func readPID() (int, error) {
	data, err := os.ReadFile(getDefaultPIDPath())
	if err != nil {
		return 0, err
	}
	content := strings.TrimSpace(string(data))
	pidStr := content
	if idx := strings.Index(content, ":"); idx >= 0 {
		pidStr = content[:idx]
	}
	return strconv.Atoi(pidStr)
}

// getDaemonAddr returns the listen address recorded in the PID file
// (PID:ADDRESS format), falling back to addrFromEnv if it's unavailable.
func getDaemonAddr() string {
	data, err := os.ReadFile(getDefaultPIDPath())
	if err != nil {
		return addrFromEnv()
	}

	content := strings.TrimSpace(string(data))
	idx := strings.Index(content, ":")
	if idx < 0 || idx == len(content)-1 {
		return addrFromEnv()
	}

	return "http://" + content[idx+1:]
}

func addrFromEnv() string {
	addr := os.Getenv("PATCHGO_LISTEN_ADDR")
	if addr == "" {
		addr = "127.0.0.1:9443"
	}
	return "http://" + addr
}
