//go:build windows

package client

import (
	"os"
	"os/exec"

	"go.uber.org/zap"
)

// execImage has no true process-image-replace primitive on Windows, unlike
// the POSIX exec family: it spawns a child process inheriting the current
// std streams and exits. The child's PID differs from the parent's, a
// known platform limitation rather than a choice.
func execImage(exePath string, logger *zap.Logger) {
	cmd := exec.Command(exePath, os.Args[1:]...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		logger.Error("restart spawn failed", zap.Error(err))
		os.Exit(1)
	}
	os.Exit(0)
}
