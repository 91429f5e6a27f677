// Package contenthash provides the content-addressing primitives shared by
// the release server and the client updater: a fixed-size SHA-256 digest
// type and the streaming hash helpers used while serving or downloading a
// release file.
//
// Hashing uses minio/sha256-simd, a drop-in accelerated replacement for
// crypto/sha256, since every release file and every downloaded chunk passes
// through a running hash on the hot path.
package contenthash

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	sha256simd "github.com/minio/sha256-simd"
)

// Size is the length in bytes of a Sha256Hash.
const Size = 32

// Sha256Hash is an opaque 32-byte SHA-256 digest. Equality is byte-equality;
// it renders as 64 lowercase hex characters.
type Sha256Hash [Size]byte

// Parse decodes a 64-character hex string into a Sha256Hash.
func Parse(hexStr string) (Sha256Hash, error) {
	var h Sha256Hash
	raw, err := hex.DecodeString(hexStr)
	if err != nil {
		return h, fmt.Errorf("contenthash: invalid hex %q: %w", hexStr, err)
	}
	if len(raw) != Size {
		return h, fmt.Errorf("contenthash: expected %d bytes, got %d", Size, len(raw))
	}
	copy(h[:], raw)
	return h, nil
}

// String renders the hash as 64 lowercase hex characters.
func (h Sha256Hash) String() string {
	return hex.EncodeToString(h[:])
}

// MarshalText implements encoding.TextMarshaler.
func (h Sha256Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *Sha256Hash) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// Equal reports whether h and other are byte-identical.
func (h Sha256Hash) Equal(other Sha256Hash) bool {
	return h == other
}

// IsZero reports whether h is the zero-value hash.
func (h Sha256Hash) IsZero() bool {
	return h == Sha256Hash{}
}

// Sum computes the Sha256Hash of data.
func Sum(data []byte) Sha256Hash {
	var h Sha256Hash
	digest := sha256simd.Sum256(data)
	copy(h[:], digest[:])
	return h
}

// HashFile computes the Sha256Hash of the file at path, using buffered I/O.
// It returns an error wrapping the underlying os error if the file is
// missing, is a directory, or cannot be read.
func HashFile(path string) (Sha256Hash, error) {
	var h Sha256Hash

	f, err := os.Open(path)
	if err != nil {
		return h, fmt.Errorf("contenthash: failed to open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return h, fmt.Errorf("contenthash: failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return h, fmt.Errorf("contenthash: %s is a directory, not a file", path)
	}

	hasher := sha256simd.New()
	if _, err := io.Copy(hasher, bufio.NewReader(f)); err != nil {
		return h, fmt.Errorf("contenthash: failed to hash %s: %w", path, err)
	}

	copy(h[:], hasher.Sum(nil))
	return h, nil
}

// Running wraps a streaming SHA-256 hasher and exposes Sum as a
// Sha256Hash, used by the download pipeline which must both write each
// chunk to disk and feed it to the running hash.
type Running struct {
	hasher interface {
		io.Writer
		Sum([]byte) []byte
	}
}

// NewRunning constructs a Running hasher.
func NewRunning() *Running {
	return &Running{hasher: sha256simd.New()}
}

// Write implements io.Writer, feeding data into the running hash.
func (r *Running) Write(p []byte) (int, error) {
	return r.hasher.Write(p)
}

// Sum returns the Sha256Hash of all data written so far.
func (r *Running) Sum() Sha256Hash {
	var h Sha256Hash
	copy(h[:], r.hasher.Sum(nil))
	return h
}
