package signing

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
)

// KeyManager owns the server's signing key on disk, generating it on first
// use and loading it on subsequent starts.
//
// Security model:
//   - The private key is stored hex-encoded with 0600 permissions.
//   - The public (verifying) key is stored hex-encoded with 0644
//     permissions, for operators to hand out to clients out-of-band.
//   - Key rotation is not supported.
type KeyManager struct {
	keysDir string
	key     SigningKey
}

const (
	privateKeyFilename = "signing.key"
	publicKeyFilename  = "signing.pub"

	privateKeyPerm = 0600
	publicKeyPerm  = 0644
)

// NewKeyManager creates a KeyManager rooted at keysDir. It does not load or
// generate keys; call EnsureKeyExists for that.
func NewKeyManager(keysDir string) *KeyManager {
	return &KeyManager{keysDir: filepath.Clean(keysDir)}
}

// EnsureKeyExists loads the signing key from disk if present, or generates
// and persists a fresh one otherwise.
func (m *KeyManager) EnsureKeyExists() error {
	privPath := filepath.Join(m.keysDir, privateKeyFilename)
	pubPath := filepath.Join(m.keysDir, publicKeyFilename)

	privExists := fileExists(privPath)
	pubExists := fileExists(pubPath)

	if privExists && pubExists {
		return m.load(privPath, pubPath)
	}

	if privExists || pubExists {
		// Inconsistent state: regenerate rather than trust a partial pair.
		os.Remove(privPath)
		os.Remove(pubPath)
	}

	return m.generateAndSave(privPath, pubPath)
}

func (m *KeyManager) generateAndSave(privPath, pubPath string) error {
	key, err := GenerateSigningKey()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(m.keysDir, 0755); err != nil {
		return fmt.Errorf("signing: failed to create keys directory: %w", err)
	}

	if err := os.WriteFile(privPath, []byte(key.PrivateHex()), privateKeyPerm); err != nil {
		return fmt.Errorf("signing: failed to write private key: %w", err)
	}
	if err := os.WriteFile(pubPath, []byte(key.VerifyingKey().String()), publicKeyPerm); err != nil {
		return fmt.Errorf("signing: failed to write public key: %w", err)
	}

	m.key = key
	return nil
}

func (m *KeyManager) load(privPath, pubPath string) error {
	privHex, err := os.ReadFile(privPath)
	if err != nil {
		return fmt.Errorf("signing: failed to read private key: %w", err)
	}
	raw, err := hex.DecodeString(string(privHex))
	if err != nil {
		return fmt.Errorf("signing: failed to decode private key: %w", err)
	}
	key, err := SigningKeyFromPrivate(raw)
	if err != nil {
		return err
	}

	// pubPath is informational only (handed to operators); the private key
	// already embeds the public half, so it is not consulted for loading,
	// only regenerated-from-mismatch detection is skipped here since the
	// derivation is exact.
	_ = pubPath

	m.key = key
	return nil
}

// Key returns the loaded or generated signing key. Valid only after
// EnsureKeyExists returns successfully.
func (m *KeyManager) Key() SigningKey {
	return m.key
}

// KeysDir returns the directory keys are stored in.
func (m *KeyManager) KeysDir() string {
	return m.keysDir
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
