package client

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"

	"github.com/patchgo/patchgo/pkg/contenthash"
	"github.com/patchgo/patchgo/pkg/protocol"
	"github.com/patchgo/patchgo/pkg/version"
)

// CheckForUpdates runs one full check-download-verify-install cycle. It is
// idempotent with respect to concurrency: if the updater is not Idle, it
// returns immediately without error (the sole enforcement point of the
// at-most-one-attempt invariant).
func (u *Updater) CheckForUpdates() error {
	if u.status.Get().Phase != PhaseIdle {
		return nil
	}
	u.status.Set(Checking())

	latest, err := u.fetchLatestVersion()
	if err != nil {
		u.logger.Warn("update check failed", zap.Error(err))
		u.status.Set(Idle())
		return err
	}

	if !latest.GreaterThan(u.config.CurrentVersion) {
		u.status.Set(Idle())
		return nil
	}

	// From here on, a failure leaves the status at the last attained
	// stage rather than resetting to Idle: a second concurrent attempt
	// is deliberately not possible.
	tmpPath, hash, err := u.download(latest)
	if err != nil {
		u.logger.Warn("update download failed", zap.String("version", latest.String()), zap.Error(err))
		return err
	}

	if err := u.verify(latest, hash); err != nil {
		u.logger.Warn("update verification failed", zap.String("version", latest.String()), zap.Error(err))
		return err
	}

	u.status.Set(Installing(latest))
	if err := u.install(tmpPath); err != nil {
		u.logger.Error("update install failed", zap.String("version", latest.String()), zap.Error(err))
		return err
	}

	if u.actions.Count() == 0 {
		u.status.Set(Restarting(latest))
		u.restartFn()
		return nil
	}

	u.status.Set(PendingRestart(latest))
	return nil
}

func (u *Updater) fetchLatestVersion() (version.Version, error) {
	url, resp, err := u.request(protocol.EndpointLatest)
	if err != nil {
		return version.Zero, err
	}
	payload, err := decodeAndVerify[protocol.LatestVersion](url, resp, u.config.VerifyingKey)
	if err != nil {
		return version.Zero, err
	}
	return payload.Version, nil
}

func (u *Updater) fetchVersionHash(v version.Version) (contenthash.Sha256Hash, error) {
	url, resp, err := u.request(protocol.EndpointHashPrefix + v.String())
	if err != nil {
		return contenthash.Sha256Hash{}, err
	}
	payload, err := decodeAndVerify[protocol.VersionHash](url, resp, u.config.VerifyingKey)
	if err != nil {
		return contenthash.Sha256Hash{}, err
	}
	if !payload.Version.Equal(v) {
		return contenthash.Sha256Hash{}, errPath(KindInvalidPayload, "", fmt.Errorf("hash response for version %s, wanted %s", payload.Version, v))
	}
	return payload.Hash, nil
}

// download streams /releases/{v} into a fresh temp directory, hashing as it
// writes, and returns the output path and running hash.
func (u *Updater) download(v version.Version) (string, contenthash.Sha256Hash, error) {
	tmpDir, err := os.MkdirTemp("", "patchgo-update-*")
	if err != nil {
		return "", contenthash.Sha256Hash{}, errPath(KindUnableToCreateTempDir, tmpDir, err)
	}

	outPath := filepath.Join(tmpDir, "update-"+v.String())
	out, err := os.Create(outPath)
	if err != nil {
		return "", contenthash.Sha256Hash{}, errPath(KindDownload, outPath, err)
	}
	defer out.Close()

	url, resp, err := u.request(protocol.EndpointReleasePrefix + v.String())
	if err != nil {
		return "", contenthash.Sha256Hash{}, err
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get(protocol.HeaderContentType); ct != protocol.ContentTypeRelease {
		return "", contenthash.Sha256Hash{}, errURL(KindUnexpectedContentType, url, fmt.Errorf("got %q", ct))
	}
	declaredLen := headerOr(resp, protocol.HeaderContentLength, parseContentLength, int64(0))

	running := contenthash.NewRunning()
	var received int64

	buf := make([]byte, 32*1024)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, writeErr := out.Write(buf[:n]); writeErr != nil {
				return "", contenthash.Sha256Hash{}, errPath(KindWriteToDownload, outPath, writeErr)
			}
			running.Write(buf[:n])
			received += int64(n)

			percent := 0
			if declaredLen > 0 {
				percent = int(math.Floor(100 * float64(received) / float64(declaredLen)))
			}
			u.status.Set(Downloading(v, percent))
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return "", contenthash.Sha256Hash{}, errURL(KindHTTPRequestFailed, url, readErr)
		}
	}

	if received < declaredLen {
		return "", contenthash.Sha256Hash{}, errSimple(KindMissingData)
	}
	if received > declaredLen {
		return "", contenthash.Sha256Hash{}, errSimple(KindTooMuchData)
	}

	return outPath, running.Sum(), nil
}

func (u *Updater) verify(v version.Version, downloadedHash contenthash.Sha256Hash) error {
	declaredHash, err := u.fetchVersionHash(v)
	if err != nil {
		return err
	}
	if !declaredHash.Equal(downloadedHash) {
		return errVersion(KindFailedHashVerification, v)
	}
	return nil
}

// install replaces the running executable with updatePath: rename the
// current binary aside, move the new one into place (with a cross-device
// fallback), then restore the executable bit.
func (u *Updater) install(updatePath string) error {
	currentPath := u.exePath
	oldPath := currentPath + ".old"

	if err := os.Rename(currentPath, oldPath); err != nil {
		return errPath(KindUnableToRenameCurrentExe, currentPath, err)
	}

	if err := os.Rename(updatePath, currentPath); err != nil {
		if !errors.Is(err, syscall.EXDEV) {
			return errPath(KindMoveNewExe, updatePath, err)
		}
		if err := copyThenRemove(updatePath, currentPath, u.logger); err != nil {
			return errPath(KindMoveNewExe, updatePath, err)
		}
	}

	info, err := os.Stat(currentPath)
	if err != nil {
		return errPath(KindGetFileMetadata, currentPath, err)
	}
	if err := os.Chmod(currentPath, info.Mode()|0o111); err != nil {
		return errPath(KindSetFilePermissions, currentPath, err)
	}

	return nil
}

// copyThenRemove is the EXDEV fallback: copy src to dst, then best-effort
// remove src. A failure to remove src is logged, not fatal to the install.
func copyThenRemove(src, dst string, logger *zap.Logger) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode())
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	if err := out.Sync(); err != nil {
		return err
	}

	if err := os.Remove(src); err != nil {
		logger.Warn("failed to remove temporary download after cross-device install", zap.String("path", src), zap.Error(err))
	}
	return nil
}
