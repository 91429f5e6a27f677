//go:build !windows

package client

import (
	"os"
	"syscall"

	"go.uber.org/zap"
)

// execImage replaces the current process image in place via the POSIX
// exec family, so the new binary inherits the current PID.
func execImage(exePath string, logger *zap.Logger) {
	args := append([]string{exePath}, os.Args[1:]...)
	err := syscall.Exec(exePath, args, os.Environ())
	logger.Error("restart exec failed", zap.Error(err))
	os.Exit(1)
}
