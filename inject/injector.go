// Package inject sets the text of the focused input field through a host's
// accessibility API.
package inject

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"inputbridge/a11y"
)

var (
	ErrNoActiveWindow     = errors.New("no active window")
	ErrNoFocusedEditable  = errors.New("no focused editable element")
	ErrActionRejected     = errors.New("set text action rejected")
	ErrServiceUnavailable = errors.New("injection service unavailable")
)

// Host is the automation surface of the device that receives text.
type Host interface {
	// RootInActiveWindow returns the root of the foreground window's
	// accessibility tree, or a nil node when there is no active window.
	RootInActiveWindow(ctx context.Context) (a11y.Node, error)
	// SetText assigns text to node and reports whether the host accepted it.
	SetText(ctx context.Context, node a11y.Node, text string) (bool, error)
}

// Injector performs a single injection attempt per call.
type Injector struct {
	host Host
	log  *slog.Logger
}

// NewInjector returns an Injector driving host.
func NewInjector(host Host, log *slog.Logger) *Injector {
	return &Injector{host: host, log: log}
}

// InjectText writes text into the currently focused editable element.
// The empty string is a valid payload and clears the field.
func (i *Injector) InjectText(ctx context.Context, text string) error {
	root, err := i.host.RootInActiveWindow(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNoActiveWindow, err)
	}
	if root == nil {
		return ErrNoActiveWindow
	}

	node := a11y.FindFocusedEditable(root)
	if node == nil {
		i.log.Debug("no focused editable node", "nodes", a11y.Count(root))
		return ErrNoFocusedEditable
	}
	if i.log.Enabled(ctx, slog.LevelDebug) {
		i.log.Debug("located focused node", "node", a11y.Describe(node))
	}

	ok, err := i.host.SetText(ctx, node, text)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrActionRejected, err)
	}
	if !ok {
		return ErrActionRejected
	}
	return nil
}
