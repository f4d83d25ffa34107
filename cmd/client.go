package commands

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"crypto/tls"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/crypto/ssh"

	"inputbridge/config"
	"inputbridge/server"
	"inputbridge/util"
)

const requestTimeout = 60 * time.Second

// findPrivateKey automatically detects a private key file based on a specific priority.
func findPrivateKey() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	// Priority 1: program-specific key
	dir, err := config.Dir()
	if err != nil {
		return "", err
	}
	programKeyPath := filepath.Join(dir, "id_ed25519")
	if _, err := os.Stat(programKeyPath); err == nil {
		return programKeyPath, nil
	}

	// Priority 2: Standard SSH keys
	sshDir := filepath.Join(home, ".ssh")
	for _, keyFile := range []string{"id_ed25519", "id_ecdsa", "id_rsa"} {
		path := filepath.Join(sshDir, keyFile)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("no private key found. Please run '%s key-gen' to create a new key, or specify one with the --key flag", util.ProgramName)
}

// getSigner parses the configured private key, or the first one found.
func getSigner() (ssh.Signer, error) {
	pathToKey := cfg.Server.Key
	if pathToKey == "" {
		var err error
		pathToKey, err = findPrivateKey()
		if err != nil {
			return nil, err
		}
	}

	privateKeyBytes, err := os.ReadFile(pathToKey)
	if err != nil {
		return nil, fmt.Errorf("could not read private key at %s: %w", pathToKey, err)
	}

	signer, err := ssh.ParsePrivateKey(privateKeyBytes)
	if err != nil {
		return nil, fmt.Errorf("could not parse private key: %w", err)
	}
	return signer, nil
}

func serverURL(path string) string {
	return fmt.Sprintf("https://%s:%d%s", cfg.Server.Address, cfg.Server.Port, path)
}

// doHTTPSRequest signs data with the client key and sends it. The status is
// returned alongside the body so callers can decode error replies.
func doHTTPSRequest(method, url string, data []byte) (int, []byte, error) {
	signer, err := getSigner()
	if err != nil {
		return 0, nil, err
	}

	payloadHash := sha256.Sum256(data)
	signature, err := signer.Sign(rand.Reader, payloadHash[:])
	if err != nil {
		return 0, nil, fmt.Errorf("could not sign payload: %w", err)
	}

	// The server is self-signed; requests are authenticated by the SSH key instead.
	client := &http.Client{
		Timeout: requestTimeout,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		},
	}

	req, err := http.NewRequest(method, url, bytes.NewReader(data))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(util.HeaderFingerprint, ssh.FingerprintSHA256(signer.PublicKey()))
	// Marshal the entire signature object, not just the blob
	req.Header.Set(util.HeaderSignature, base64.StdEncoding.EncodeToString(ssh.Marshal(signature)))

	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, body, nil
}

// callMethod sends a method call and decodes the bridge's reply.
func callMethod(call server.MethodCall) (server.Reply, error) {
	data, err := json.Marshal(call)
	if err != nil {
		return server.Reply{}, err
	}

	status, body, err := doHTTPSRequest(http.MethodPost, serverURL(util.RequestCall), data)
	if err != nil {
		return server.Reply{}, err
	}

	var reply server.Reply
	if err := json.Unmarshal(body, &reply); err != nil {
		return server.Reply{}, fmt.Errorf("server returned status %d: %s", status, bytes.TrimSpace(body))
	}
	return reply, nil
}
