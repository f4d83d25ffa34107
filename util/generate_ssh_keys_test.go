package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
)

func TestGenerateSSHKeys(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "keys")
	require.NoError(t, GenerateSSHKeys(dir))

	privPEM, err := os.ReadFile(filepath.Join(dir, "id_ed25519"))
	require.NoError(t, err)
	signer, err := ssh.ParsePrivateKey(privPEM)
	require.NoError(t, err)

	pubBytes, err := os.ReadFile(filepath.Join(dir, "id_ed25519.pub"))
	require.NoError(t, err)
	pub, _, _, _, err := ssh.ParseAuthorizedKey(pubBytes)
	require.NoError(t, err)

	assert.Equal(t, ssh.KeyAlgoED25519, pub.Type())
	assert.Equal(t, ssh.FingerprintSHA256(pub), ssh.FingerprintSHA256(signer.PublicKey()))

	info, err := os.Stat(filepath.Join(dir, "id_ed25519"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}
