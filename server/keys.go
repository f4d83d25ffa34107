package server

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/crypto/ssh"

	"inputbridge/util"
)

// keyring holds the client keys allowed to call the bridge, indexed by
// SHA256 fingerprint.
type keyring struct {
	mu   sync.RWMutex
	path string
	keys map[string]ssh.PublicKey
	log  *slog.Logger
}

func loadKeyring(path string, log *slog.Logger) (*keyring, error) {
	k := &keyring{path: path, log: log}
	if err := k.reload(); err != nil {
		return nil, err
	}
	return k, nil
}

func (k *keyring) lookup(fingerprint string) (ssh.PublicKey, bool) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	key, ok := k.keys[fingerprint]
	return key, ok
}

func (k *keyring) len() int {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.keys)
}

func (k *keyring) reload() error {
	keys, err := loadAuthorizedKeys(k.path, k.log)
	if err != nil {
		return err
	}
	k.mu.Lock()
	k.keys = keys
	k.mu.Unlock()
	return nil
}

// watch reloads the keys whenever the authorized_keys file changes, until
// ctx is done. The directory is watched so the file may be created later.
func (k *keyring) watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	dir := filepath.Dir(k.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		w.Close()
		return err
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return err
	}

	go func() {
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != filepath.Clean(k.path) {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
					continue
				}
				if err := k.reload(); err != nil {
					k.log.Error("could not reload authorized keys", "err", err)
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				k.log.Error("authorized keys watcher", "err", err)
			}
		}
	}()
	return nil
}

func loadAuthorizedKeys(path string, log *slog.Logger) (map[string]ssh.PublicKey, error) {
	authorizedKeys := make(map[string]ssh.PublicKey)

	bytes, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn("authorized_keys not found, no client can call until one is added",
				"path", path, "hint", util.ProgramName+" key-add")
			return authorizedKeys, nil
		}
		return nil, err
	}

	for len(bytes) > 0 {
		pubKey, _, _, rest, err := ssh.ParseAuthorizedKey(bytes)
		if err != nil {
			// ParseAuthorizedKey skips bad lines itself and only fails once
			// nothing parseable is left.
			log.Warn("could not parse authorized key", "err", err)
			break
		}
		authorizedKeys[ssh.FingerprintSHA256(pubKey)] = pubKey
		bytes = rest
	}

	log.Info("loaded authorized keys", "count", len(authorizedKeys), "path", path)
	return authorizedKeys, nil
}
