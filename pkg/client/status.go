package client

import (
	"sync"

	"github.com/patchgo/patchgo/pkg/version"
)

// Phase identifies which variant of Status is active.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseChecking
	PhaseDownloading
	PhaseInstalling
	PhasePendingRestart
	PhaseRestarting
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "Idle"
	case PhaseChecking:
		return "Checking"
	case PhaseDownloading:
		return "Downloading"
	case PhaseInstalling:
		return "Installing"
	case PhasePendingRestart:
		return "PendingRestart"
	case PhaseRestarting:
		return "Restarting"
	default:
		return "Unknown"
	}
}

// Status is a tagged variant mirroring the updater's lifecycle. Only the
// fields relevant to Phase are meaningful; the others are zero.
type Status struct {
	Phase   Phase
	Version version.Version
	Percent int
}

// Idle is the resting state before any check has run.
func Idle() Status { return Status{Phase: PhaseIdle} }

// Checking marks an in-flight version check.
func Checking() Status { return Status{Phase: PhaseChecking} }

// Downloading marks an in-flight download of v, with progress 0..100.
func Downloading(v version.Version, percent int) Status {
	return Status{Phase: PhaseDownloading, Version: v, Percent: percent}
}

// Installing marks the install step (rename-old, move-new, chmod) for v.
func Installing(v version.Version) Status {
	return Status{Phase: PhaseInstalling, Version: v}
}

// PendingRestart marks that v is installed and restart awaits a zero
// critical-action count.
func PendingRestart(v version.Version) Status {
	return Status{Phase: PhasePendingRestart, Version: v}
}

// Restarting marks that the restart primitive for v has been invoked.
func Restarting(v version.Version) Status {
	return Status{Phase: PhaseRestarting, Version: v}
}

// statusCell is a guarded Status value plus a capacity-1, latest-wins
// broadcast of its changes. Multiple observers may subscribe; none block
// the writer and none are guaranteed to see every intermediate value, only
// the most recent one at the time they read.
type statusCell struct {
	mu    sync.RWMutex
	value Status

	subMu sync.Mutex
	subs  []chan Status
}

func newStatusCell(initial Status) *statusCell {
	return &statusCell{value: initial}
}

// Get returns the current status.
func (c *statusCell) Get() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value
}

// Set updates the status and publishes it to every current subscriber
// without blocking: each subscriber channel has capacity 1, and a stale
// unread value is drained and replaced rather than queued.
func (c *statusCell) Set(s Status) {
	c.mu.Lock()
	c.value = s
	c.mu.Unlock()

	c.subMu.Lock()
	defer c.subMu.Unlock()
	for _, ch := range c.subs {
		select {
		case ch <- s:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- s:
			default:
			}
		}
	}
}

// Subscribe returns a channel that receives subsequent status changes
// (capacity 1, latest-wins: an unread value is replaced by the next one). The caller should stop reading once the
// updater is shut down; the channel is never closed.
func (c *statusCell) Subscribe() <-chan Status {
	ch := make(chan Status, 1)
	c.subMu.Lock()
	c.subs = append(c.subs, ch)
	c.subMu.Unlock()
	return ch
}
