package client

// restart replaces the current process image with a fresh instance of
// exePath, preserving argv (excluding argv[0]) and inheriting the standard
// file descriptors. Preserving the process image, rather than spawning a
// child and exiting, keeps the PID stable for any supervisor watching it.
//
// If execImage returns at all, it has failed: there is no well-defined way
// to continue running, so the process exits nonzero. The platform-specific
// primitive lives in restart_unix.go / restart_windows.go.
func (u *Updater) restart() {
	execImage(u.exePath, u.logger)
}
