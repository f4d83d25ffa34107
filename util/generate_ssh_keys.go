package util

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/crypto/ssh"
)

// GenerateSSHKeys writes a new ed25519 pair to keyDir as id_ed25519 and
// id_ed25519.pub, in the formats ssh-keygen produces.
func GenerateSSHKeys(keyDir string) error {
	if err := os.MkdirAll(keyDir, 0700); err != nil {
		return fmt.Errorf("cannot create keys directory %s: %w", keyDir, err)
	}

	pubKey, privKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return fmt.Errorf("cannot generate ed25519 key: %w", err)
	}

	privBlock, err := ssh.MarshalPrivateKey(privKey, ProgramName)
	if err != nil {
		return fmt.Errorf("could not marshal private key: %w", err)
	}
	if err := os.WriteFile(filepath.Join(keyDir, "id_ed25519"), pem.EncodeToMemory(privBlock), 0600); err != nil {
		return fmt.Errorf("unable to save private key: %w", err)
	}

	publicKey, err := ssh.NewPublicKey(pubKey)
	if err != nil {
		return fmt.Errorf("unable to generate public key: %w", err)
	}
	if err := os.WriteFile(filepath.Join(keyDir, "id_ed25519.pub"), ssh.MarshalAuthorizedKey(publicKey), 0644); err != nil {
		return fmt.Errorf("unable to save public key: %w", err)
	}
	return nil
}
