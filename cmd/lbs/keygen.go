package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/patchgo/patchgo/pkg/signing"
)

var keygenKeysDir string

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate (or print) the release server's Ed25519 signing key",
	Long: "Ensures a signing keypair exists in the keys directory, generating " +
		"one on first run, and prints the hex-encoded verifying key clients " +
		"should be configured with.",
	RunE: runKeygen,
}

func init() {
	keygenCmd.Flags().StringVar(&keygenKeysDir, "keys-dir", "./keys", "directory to store the signing key in")
}

func runKeygen(cmd *cobra.Command, args []string) error {
	manager := signing.NewKeyManager(keygenKeysDir)
	if err := manager.EnsureKeyExists(); err != nil {
		return fmt.Errorf("failed to ensure signing key: %w", err)
	}

	fmt.Printf("Signing key ready in %s\n", manager.KeysDir())
	fmt.Printf("Verifying key (give this to clients): %s\n", manager.Key().VerifyingKey())
	return nil
}
