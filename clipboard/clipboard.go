// Package clipboard holds text that could not be typed into a field, so the
// user can still paste it by hand.
package clipboard

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"
)

var (
	state *clipboardState
	log   = slog.New(slog.NewTextHandler(io.Discard, nil))

	errNotInitialized = errors.New("clipboard not initialized")
)

var (
	clipboardTimeout    = 2 * time.Second
	healthCheckInterval = 5 * time.Second
)

// clipboarder defines the interface for clipboard operations.
type clipboarder interface {
	Copy(data []byte) error
	Paste() ([]byte, error)
}

// inMemoryClipboard is used as a fallback when the system clipboard is not available.
type inMemoryClipboard struct {
	mu   sync.RWMutex
	data []byte
}

func (c *inMemoryClipboard) Copy(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = append([]byte(nil), data...)
	return nil
}

func (c *inMemoryClipboard) Paste() ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data, nil
}

// clipboardState tracks which clipboard implementation is active
type clipboardState struct {
	mu              sync.RWMutex
	active          clipboarder
	primary         clipboarder
	fallback        *inMemoryClipboard
	usingFallback   bool
	healthCheckDone chan struct{}
}

// Init picks the best clipboard available on this machine. Later calls are
// no-ops.
func Init(logger *slog.Logger) error {
	if state != nil {
		return nil
	}
	if logger != nil {
		log = logger
	}

	fallback := &inMemoryClipboard{}
	state = &clipboardState{
		fallback:        fallback,
		healthCheckDone: make(chan struct{}),
	}
	return initPlatformClipboard(fallback)
}

// UseInMemoryClipboard pins the in-memory clipboard, e.g. on headless hosts.
func UseInMemoryClipboard() {
	if state == nil {
		return
	}
	state.mu.Lock()
	defer state.mu.Unlock()
	state.active = state.fallback
	state.usingFallback = true
	log.Info("switched to in-memory clipboard")
}

func getActiveClipboard() clipboarder {
	if state == nil {
		return nil
	}
	state.mu.RLock()
	defer state.mu.RUnlock()
	return state.active
}

func isUsingFallback() bool {
	if state == nil {
		return true
	}
	state.mu.RLock()
	defer state.mu.RUnlock()
	return state.usingFallback
}

// switchToFallback moves to the in-memory clipboard and starts polling the
// primary one for recovery.
func switchToFallback(s *clipboardState) {
	s.mu.Lock()
	wasUsingFallback := s.usingFallback
	s.active = s.fallback
	s.usingFallback = true
	s.mu.Unlock()

	if !wasUsingFallback && s.primary != nil {
		log.Warn("system clipboard unresponsive, using in-memory fallback", "poll", healthCheckInterval)
		go startHealthCheck(s)
	}
}

func switchToSystem(s *clipboardState) {
	s.mu.Lock()
	s.active = s.primary
	s.usingFallback = false
	s.mu.Unlock()

	log.Info("system clipboard recovered")
}

// Copy writes data, switching to the in-memory clipboard when the system one
// hangs.
func Copy(data []byte) error {
	s := state
	active := getActiveClipboard()
	if active == nil {
		return errNotInitialized
	}

	if isUsingFallback() {
		return active.Copy(data)
	}

	ctx, cancel := context.WithTimeout(context.Background(), clipboardTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- active.Copy(data)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		switchToFallback(s)
		return s.fallback.Copy(data)
	}
}

// Paste reads the current clipboard content.
func Paste() ([]byte, error) {
	active := getActiveClipboard()
	if active == nil {
		return nil, errNotInitialized
	}
	return active.Paste()
}

func startHealthCheck(s *clipboardState) {
	ticker := time.NewTicker(healthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.healthCheckDone:
			return
		case <-ticker.C:
			if isClipboardResponsive(s.primary) {
				switchToSystem(s)
				return
			}
		}
	}
}

func isClipboardResponsive(c clipboarder) bool {
	ctx, cancel := context.WithTimeout(context.Background(), clipboardTimeout)
	defer cancel()

	done := make(chan struct{}, 1)
	go func() {
		_, _ = c.Paste()
		done <- struct{}{}
	}()

	select {
	case <-done:
		return true
	case <-ctx.Done():
		return false
	}
}

// Sink adapts the package clipboard to a value-based Copy for callers that
// take an interface.
type Sink struct{}

func (Sink) Copy(data []byte) error { return Copy(data) }
