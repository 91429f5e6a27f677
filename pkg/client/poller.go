package client

import (
	"time"

	"go.uber.org/zap"
)

// StartPolling launches the background tasks described by the updater's
// configuration: an immediate startup check if configured, and a periodic
// interval check if configured. The interval task and the persistent
// subscriber keepalive stop when Shutdown is called; a check already in
// flight, including the startup check, runs to completion.
func (u *Updater) StartPolling() {
	// A persistent subscriber is kept alive for the updater's lifetime so
	// the broadcast channel is never left without a reader: transient
	// callers may subscribe and unsubscribe freely without tearing this
	// down.
	keepalive := u.Subscribe()
	go func() {
		for {
			select {
			case <-keepalive:
			case <-u.shutdownCh:
				return
			}
		}
	}()

	if u.config.CheckOnStartup {
		go func() {
			if err := u.CheckForUpdates(); err != nil {
				u.logger.Warn("startup update check failed", zap.Error(err))
			}
		}()
	}

	if u.config.CheckInterval > 0 {
		go u.intervalLoop()
	}
}

// intervalLoop runs a periodic check on CheckInterval. Unlike a timer that
// fires immediately on construction, time.NewTicker's first tick already
// arrives one interval after StartPolling, so every tick (including the
// first) runs a check.
func (u *Updater) intervalLoop() {
	ticker := time.NewTicker(u.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-u.shutdownCh:
			u.logger.Info("Stopping updater")
			return
		case <-ticker.C:
			if err := u.CheckForUpdates(); err != nil {
				u.logger.Warn("periodic update check failed", zap.Error(err))
			}
		}
	}
}
