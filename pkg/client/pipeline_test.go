package client

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/patchgo/patchgo/pkg/contenthash"
	"github.com/patchgo/patchgo/pkg/release"
	"github.com/patchgo/patchgo/pkg/server"
	"github.com/patchgo/patchgo/pkg/signing"
	"github.com/patchgo/patchgo/pkg/version"
)

func startTestServer(t *testing.T, appname string, releases map[version.Version][]byte) (*server.Server, signing.SigningKey) {
	t.Helper()
	dir := t.TempDir()

	key, err := signing.GenerateSigningKey()
	require.NoError(t, err)

	cfg := release.Config{
		Appname:     appname,
		ReleasesDir: dir,
		Versions:    map[version.Version]contenthash.Sha256Hash{},
		Key:         key,
	}
	for v, body := range releases {
		require.NoError(t, os.WriteFile(filepath.Join(dir, appname+"-"+v.String()), body, 0644))
		cfg.Versions[v] = contenthash.Sum(body)
	}

	reg, err := release.New(cfg)
	require.NoError(t, err)

	srv := server.New("127.0.0.1:0", reg, nil)
	require.NoError(t, srv.Start())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	})
	return srv, key
}

func TestCheckForUpdatesNoNewVersion(t *testing.T) {
	v := version.New(1, 0, 0)
	srv, key := startTestServer(t, "demo", map[version.Version][]byte{v: []byte("current release")})

	u := newTestUpdater(t, "/bin/true", Config{
		CurrentVersion: v,
		APIBaseURL:     "http://" + srv.Addr() + "/",
		VerifyingKey:   key.VerifyingKey(),
	})

	require.NoError(t, u.CheckForUpdates())
	assert.Equal(t, PhaseIdle, u.Status().Phase)
}

func TestCheckForUpdatesFullCycleInstallsAndRestarts(t *testing.T) {
	oldVersion := version.New(1, 0, 0)
	newVersion := version.New(1, 1, 0)
	newBody := []byte("new release binary contents")

	srv, key := startTestServer(t, "demo", map[version.Version][]byte{
		oldVersion: []byte("old release binary contents!!"),
		newVersion: newBody,
	})

	exeDir := t.TempDir()
	exePath := filepath.Join(exeDir, "demo")
	require.NoError(t, os.WriteFile(exePath, []byte("original executable"), 0644))

	u := newTestUpdater(t, exePath, Config{
		CurrentVersion: oldVersion,
		APIBaseURL:     "http://" + srv.Addr() + "/",
		VerifyingKey:   key.VerifyingKey(),
	})

	restarted := false
	u.restartFn = func() { restarted = true }

	require.NoError(t, u.CheckForUpdates())

	assert.True(t, restarted)
	assert.Equal(t, PhaseRestarting, u.Status().Phase)
	assert.True(t, u.Status().Version.Equal(newVersion))

	installed, err := os.ReadFile(exePath)
	require.NoError(t, err)
	assert.Equal(t, newBody, installed)

	oldBackup, err := os.ReadFile(exePath + ".old")
	require.NoError(t, err)
	assert.Equal(t, []byte("original executable"), oldBackup)

	info, err := os.Stat(exePath)
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&0o111)
}

func TestCheckForUpdatesPendingRestartWhenActionsOutstanding(t *testing.T) {
	oldVersion := version.New(1, 0, 0)
	newVersion := version.New(1, 1, 0)

	srv, key := startTestServer(t, "demo", map[version.Version][]byte{
		oldVersion: []byte("old"),
		newVersion: []byte("new release"),
	})

	exeDir := t.TempDir()
	exePath := filepath.Join(exeDir, "demo")
	require.NoError(t, os.WriteFile(exePath, []byte("original"), 0644))

	u := newTestUpdater(t, exePath, Config{
		CurrentVersion: oldVersion,
		APIBaseURL:     "http://" + srv.Addr() + "/",
		VerifyingKey:   key.VerifyingKey(),
	})

	restarted := false
	u.restartFn = func() { restarted = true }

	_, ok := u.RegisterAction()
	require.True(t, ok)
	require.NoError(t, u.CheckForUpdates())

	assert.False(t, restarted)
	assert.Equal(t, PhasePendingRestart, u.Status().Phase)

	u.DeregisterAction()
	assert.True(t, restarted)
	assert.Equal(t, PhaseRestarting, u.Status().Phase)
}

func TestCheckForUpdatesRefusedWhileNotIdle(t *testing.T) {
	u := newTestUpdater(t, "/bin/true", Config{})
	u.status.Set(Checking())

	require.NoError(t, u.CheckForUpdates())
	assert.Equal(t, PhaseChecking, u.Status().Phase)
}

func TestCopyThenRemoveFallback(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")

	require.NoError(t, os.WriteFile(src, []byte("payload"), 0644))
	require.NoError(t, copyThenRemove(src, dst, zap.NewNop()))

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), got)
	assert.NoFileExists(t, src)
}
