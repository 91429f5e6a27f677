package client

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/patchgo/patchgo/pkg/signing"
	"github.com/patchgo/patchgo/pkg/version"
)

func newTestUpdater(t *testing.T, exePath string, cfg Config) *Updater {
	t.Helper()
	u := &Updater{
		config:     cfg,
		status:     newStatusCell(Idle()),
		shutdownCh: make(chan struct{}),
		exePath:    exePath,
		httpClient: &http.Client{},
		logger:     zap.NewNop(),
	}
	u.shutdownOnce = func() { close(u.shutdownCh) }
	u.restartFn = u.restart
	return u
}

func TestRegisterActionRefusedDuringPendingRestart(t *testing.T) {
	u := newTestUpdater(t, "/bin/true", Config{})
	u.status.Set(PendingRestart(version.New(1, 0, 0)))

	_, ok := u.RegisterAction()
	assert.False(t, ok)
	assert.Equal(t, uint32(0), u.actions.Count())
}

func TestRegisterActionRefusedDuringRestarting(t *testing.T) {
	u := newTestUpdater(t, "/bin/true", Config{})
	u.status.Set(Restarting(version.New(1, 0, 0)))

	_, ok := u.RegisterAction()
	assert.False(t, ok)
}

func TestRegisterActionAllowedWhenIdle(t *testing.T) {
	u := newTestUpdater(t, "/bin/true", Config{})
	n, ok := u.RegisterAction()
	assert.True(t, ok)
	assert.Equal(t, uint32(1), n)
	assert.Equal(t, uint32(1), u.actions.Count())
}

func TestIsSafeToUpdateReflectsOutstandingActions(t *testing.T) {
	u := newTestUpdater(t, "/bin/true", Config{})
	assert.True(t, u.IsSafeToUpdate())

	_, ok := u.RegisterAction()
	require.True(t, ok)
	assert.False(t, u.IsSafeToUpdate())

	u.DeregisterAction()
	assert.True(t, u.IsSafeToUpdate())
}

func TestDeregisterTriggersRestartWhenPendingAndZero(t *testing.T) {
	u := newTestUpdater(t, "/bin/true", Config{})
	v := version.New(2, 0, 0)

	triggered := false
	u.restartFn = func() { triggered = true }

	_, ok := u.RegisterAction()
	require.True(t, ok)
	u.status.Set(PendingRestart(v))

	n := u.DeregisterAction()

	assert.Equal(t, uint32(0), n)
	assert.True(t, triggered)
	assert.Equal(t, PhaseRestarting, u.Status().Phase)
	assert.True(t, u.Status().Version.Equal(v))
}

func TestDeregisterDoesNotRestartWhenNotPending(t *testing.T) {
	u := newTestUpdater(t, "/bin/true", Config{})

	triggered := false
	u.restartFn = func() { triggered = true }

	_, ok := u.RegisterAction()
	require.True(t, ok)
	u.DeregisterAction()

	assert.False(t, triggered)
}

func TestDeregisterDoesNotRestartUntilCountReachesZero(t *testing.T) {
	u := newTestUpdater(t, "/bin/true", Config{})
	v := version.New(2, 0, 0)

	triggered := false
	u.restartFn = func() { triggered = true }

	_, ok := u.RegisterAction()
	require.True(t, ok)
	_, ok = u.RegisterAction()
	require.True(t, ok)
	u.status.Set(PendingRestart(v))

	n := u.DeregisterAction()
	assert.Equal(t, uint32(1), n)
	assert.False(t, triggered)
	assert.Equal(t, PhasePendingRestart, u.Status().Phase)

	n = u.DeregisterAction()
	assert.Equal(t, uint32(0), n)
	assert.True(t, triggered)
}

func TestNewCapturesVerifyingKey(t *testing.T) {
	key, err := signing.GenerateSigningKey()
	require.NoError(t, err)

	u, err := New(Config{
		CurrentVersion: version.New(1, 0, 0),
		APIBaseURL:     "http://example.invalid/",
		VerifyingKey:   key.VerifyingKey(),
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, key.VerifyingKey().Bytes(), u.config.VerifyingKey.Bytes())
	assert.Equal(t, PhaseIdle, u.Status().Phase)
}
