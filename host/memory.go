package host

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/skratchdot/open-golang/open"

	"inputbridge/a11y"
)

// Memory is a host backed by an in-process element tree. It is used for dry
// runs against a saved window dump and in tests.
type Memory struct {
	mu          sync.Mutex
	root        *a11y.Element
	enabled     bool
	reject      bool
	settingsURL string
	opener      func(string) error
}

// NewMemory returns an enabled host showing root. A nil root behaves as no
// active window.
func NewMemory(root *a11y.Element) *Memory {
	return &Memory{root: root, enabled: true, opener: open.Run}
}

// LoadMemory reads a uiautomator dump from path.
func LoadMemory(path string) (*Memory, error) {
	if path == "" {
		return nil, fmt.Errorf("file host needs a hierarchy dump path")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open hierarchy dump: %w", err)
	}
	defer f.Close()

	root, err := a11y.ParseHierarchy(f)
	if err != nil {
		return nil, fmt.Errorf("could not parse %s: %w", path, err)
	}
	return NewMemory(root), nil
}

func (m *Memory) SetRoot(root *a11y.Element) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.root = root
}

func (m *Memory) SetEnabled(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enabled = enabled
}

// SetRejecting makes every later SetText report failure.
func (m *Memory) SetRejecting(reject bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reject = reject
}

func (m *Memory) SetSettingsURL(url string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settingsURL = url
}

func (m *Memory) setOpener(fn func(string) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.opener = fn
}

func (m *Memory) RootInActiveWindow(ctx context.Context) (a11y.Node, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.root == nil {
		return nil, nil
	}
	return m.root, nil
}

func (m *Memory) SetText(ctx context.Context, node a11y.Node, text string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	el, ok := node.(*a11y.Element)
	if !ok || el == nil || m.reject {
		return false, nil
	}
	el.Text = text
	return true, nil
}

func (m *Memory) Enabled(ctx context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.enabled
}

// RequestEnablement opens the configured settings page on this machine.
func (m *Memory) RequestEnablement(ctx context.Context) error {
	m.mu.Lock()
	url, opener := m.settingsURL, m.opener
	m.mu.Unlock()
	if url == "" {
		return nil
	}
	if err := opener(url); err != nil {
		return fmt.Errorf("could not open %s: %w", url, err)
	}
	return nil
}

// Text returns the current text of the first focused editable element.
func (m *Memory) Text() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := a11y.FindFocusedEditable(nodeOf(m.root))
	if n == nil {
		return "", false
	}
	return n.(*a11y.Element).Text, true
}

func nodeOf(e *a11y.Element) a11y.Node {
	if e == nil {
		return nil
	}
	return e
}
