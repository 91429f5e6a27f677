// Package release implements the server-side release registry: the
// in-memory index of published versions, validated against the files on
// disk once at startup and treated as immutable afterward.
package release

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"

	"github.com/patchgo/patchgo/pkg/contenthash"
	"github.com/patchgo/patchgo/pkg/signing"
	"github.com/patchgo/patchgo/pkg/version"
)

// Sentinel errors returned by construction validation, wrapped with
// version/path context via fmt.Errorf's %w.
var (
	ErrMissing    = errors.New("release: declared release file is missing")
	ErrUnreadable = errors.New("release: declared release file is unreadable")
	ErrInvalid    = errors.New("release: declared hash does not match file contents")
)

// StreamingParams controls how large release files are served. Sizes are in
// bytes; the KB-denominated server configuration is converted to them by
// serverconfig.Config.StreamingParams.
type StreamingParams struct {
	StreamThreshold int64
	StreamBuffer    int
	ReadBuffer      int
}

// DefaultStreamingParams mirrors the recommended defaults: 1000 KB
// threshold, 256 KB stream buffer, 128 KB read buffer.
func DefaultStreamingParams() StreamingParams {
	return StreamingParams{
		StreamThreshold: 1000 * 1024,
		StreamBuffer:    256 * 1024,
		ReadBuffer:      128 * 1024,
	}
}

// Config is the input to New: the declared version-to-hash mapping the
// registry is built from.
type Config struct {
	Appname     string
	ReleasesDir string
	Versions    map[version.Version]contenthash.Sha256Hash
	Key         signing.SigningKey
	Streaming   StreamingParams
}

// Registry is the server's immutable-after-construction index of published
// releases. It is safe for concurrent read-only use by any number of
// goroutines since nothing mutates it after New returns.
type Registry struct {
	appname     string
	releasesDir string
	versions    map[version.Version]contenthash.Sha256Hash
	latest      version.Version
	key         signing.SigningKey
	streaming   StreamingParams
}

// New validates every declared (version, hash) pair against the files on
// releases_dir and builds the registry. It performs one SHA-256 hash per
// declared release and should be treated as a startup-only, blocking
// operation: it is not meant to run on a request path.
func New(cfg Config) (*Registry, error) {
	if cfg.Appname == "" {
		return nil, errors.New("release: appname must not be empty")
	}

	versions := make(map[version.Version]contenthash.Sha256Hash, len(cfg.Versions))
	for v, declaredHash := range cfg.Versions {
		path := releaseFilePath(cfg.ReleasesDir, cfg.Appname, v)

		info, statErr := os.Stat(path)
		if statErr != nil {
			if errors.Is(statErr, os.ErrNotExist) {
				return nil, fmt.Errorf("%w: %s (version %s)", ErrMissing, path, v)
			}
			return nil, fmt.Errorf("%w: %s (version %s): %v", ErrUnreadable, path, v, statErr)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("%w: %s (version %s) is a directory", ErrMissing, path, v)
		}

		actualHash, hashErr := contenthash.HashFile(path)
		if hashErr != nil {
			return nil, fmt.Errorf("%w: %s (version %s): %v", ErrUnreadable, path, v, hashErr)
		}

		if !actualHash.Equal(declaredHash) {
			return nil, fmt.Errorf("%w: version %s: declared %s, computed %s", ErrInvalid, v, declaredHash, actualHash)
		}

		versions[v] = declaredHash
	}

	latest := version.Zero
	if len(versions) > 0 {
		vs := make([]version.Version, 0, len(versions))
		for v := range versions {
			vs = append(vs, v)
		}
		latest = version.Max(vs)
	}

	streaming := cfg.Streaming
	if streaming == (StreamingParams{}) {
		streaming = DefaultStreamingParams()
	}

	return &Registry{
		appname:     cfg.Appname,
		releasesDir: cfg.ReleasesDir,
		versions:    versions,
		latest:      latest,
		key:         cfg.Key,
		streaming:   streaming,
	}, nil
}

// LatestVersion returns the highest declared version, or version.Zero if
// the registry has no releases.
func (r *Registry) LatestVersion() version.Version {
	return r.latest
}

// Versions returns a fresh copy of the version-to-hash mapping; the caller
// may modify it freely without affecting the registry.
func (r *Registry) Versions() map[version.Version]contenthash.Sha256Hash {
	return maps.Clone(r.versions)
}

// ReleaseFile returns the on-disk path for v and true if v is a known
// version. It performs no filesystem access — it is a pure path lookup
// against the validated-at-construction mapping.
func (r *Registry) ReleaseFile(v version.Version) (string, bool) {
	if _, ok := r.versions[v]; !ok {
		return "", false
	}
	return releaseFilePath(r.releasesDir, r.appname, v), true
}

// Hash returns the declared hash for v and true if v is known.
func (r *Registry) Hash(v version.Version) (contenthash.Sha256Hash, bool) {
	h, ok := r.versions[v]
	return h, ok
}

// Key returns the server's signing key.
func (r *Registry) Key() signing.SigningKey {
	return r.key
}

// Streaming returns the streaming policy parameters in effect.
func (r *Registry) Streaming() StreamingParams {
	return r.streaming
}

func releaseFilePath(releasesDir, appname string, v version.Version) string {
	return filepath.Join(releasesDir, fmt.Sprintf("%s-%s", appname, v))
}
