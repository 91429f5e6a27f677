// Package client implements the update state machine embedded in a
// long-running application: it polls a release server, downloads and
// verifies new releases, installs them atomically, and restarts the
// process once every application-declared critical action has cleared.
package client

import (
	"net/http"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/patchgo/patchgo/pkg/signing"
	"github.com/patchgo/patchgo/pkg/version"
)

// Config is the external configuration of an Updater.
type Config struct {
	// CurrentVersion is the version of the running binary.
	CurrentVersion version.Version
	// APIBaseURL is the release server's base URL, joined with each
	// endpoint's relative path.
	APIBaseURL string
	// VerifyingKey authenticates every signed metadata response.
	VerifyingKey signing.VerifyingKey
	// CheckOnStartup runs one check immediately when the poller starts.
	CheckOnStartup bool
	// CheckInterval, if non-zero, runs a check on this period after the
	// startup check (if any).
	CheckInterval time.Duration
}

// Updater owns the client-side update state machine described by Status.
// It is safe for concurrent use: Status, the critical-action counter, and
// the shutdown queue are all independently synchronized.
type Updater struct {
	config Config

	actions actionCounter
	status  *statusCell

	shutdownOnce func()
	shutdownCh   chan struct{}

	exePath string

	httpClient *http.Client

	logger *zap.Logger

	// restartFn performs the actual process restart. It defaults to
	// (*Updater).restart and is overridden in tests, which cannot allow
	// the test binary's own process image to be replaced.
	restartFn func()
}

// New constructs an Updater. exePath is captured once here (typically via
// os.Executable) and used for every later rename/exec; it is read-only for
// the lifetime of the Updater. logger may be nil, in which case a no-op
// logger is used.
func New(cfg Config, logger *zap.Logger) (*Updater, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	exePath, err := os.Executable()
	if err != nil {
		return nil, errPath(KindUnableToObtainCurrentExePath, "", err)
	}

	u := &Updater{
		config:     cfg,
		status:     newStatusCell(Idle()),
		shutdownCh: make(chan struct{}),
		exePath:    exePath,
		httpClient: &http.Client{},
		logger:     logger,
	}
	u.shutdownOnce = sync.OnceFunc(func() { close(u.shutdownCh) })
	u.restartFn = u.restart
	return u, nil
}

// Status returns the current lifecycle status.
func (u *Updater) Status() Status {
	return u.status.Get()
}

// Subscribe returns a channel of subsequent status changes (capacity 1,
// latest-wins).
func (u *Updater) Subscribe() <-chan Status {
	return u.status.Subscribe()
}

// RegisterAction marks one critical action as in-flight, refusing to
// register while the updater is already committed to restarting. It
// returns the likely new count and whether registration succeeded; the
// count is likely rather than guaranteed, since a concurrent
// Register/Deregister may change it again before the caller observes it.
// The read-then-CAS check here is not atomic with the increment: a
// concurrent transition into PendingRestart between the two steps is
// possible and accepted, because the restart trigger re-checks the counter
// on every Deregister.
func (u *Updater) RegisterAction() (uint32, bool) {
	phase := u.status.Get().Phase
	if phase == PhasePendingRestart || phase == PhaseRestarting {
		return 0, false
	}
	return u.actions.Register()
}

// DeregisterAction marks one critical action as finished, returning the
// likely new count (see RegisterAction for why "likely"). If the updater is
// in PendingRestart and this call drives the outstanding-action count to
// zero, the restart is triggered.
func (u *Updater) DeregisterAction() uint32 {
	n, reachedZero := u.actions.Deregister()
	if !reachedZero {
		return n
	}

	current := u.status.Get()
	if current.Phase != PhasePendingRestart {
		return n
	}

	u.status.Set(Restarting(current.Version))
	u.restartFn()
	return n
}

// IsSafeToUpdate reports whether no critical action is currently
// outstanding. This is a naive, unlocked snapshot: the count can change
// between this call returning and the caller acting on it.
func (u *Updater) IsSafeToUpdate() bool {
	return u.actions.Count() == 0
}

// Shutdown stops the poll driver. Safe to call more than once and from
// multiple goroutines; only the first call has effect.
func (u *Updater) Shutdown() {
	u.shutdownOnce()
}
