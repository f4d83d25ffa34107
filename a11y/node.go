// Package a11y models the accessibility tree of the active window and finds
// the element that currently receives text input.
package a11y

import "fmt"

// Node is a read-only view of one element in a host's accessibility tree.
// Handles are only valid for the duration of a single query and must not be
// kept once it returns.
type Node interface {
	Focused() bool
	Editable() bool
	ChildCount() int
	// Child returns the i-th child, or nil when the host cannot provide it.
	Child(i int) Node
}

// FindFocusedEditable returns the first node, in pre-order, that is both
// focused and editable. It returns nil when root is nil or no node qualifies.
func FindFocusedEditable(root Node) Node {
	if root == nil {
		return nil
	}
	if root.Focused() && root.Editable() {
		return root
	}
	for i := 0; i < root.ChildCount(); i++ {
		child := root.Child(i)
		if child == nil {
			continue
		}
		if found := FindFocusedEditable(child); found != nil {
			return found
		}
	}
	return nil
}

// Walk visits root and its descendants in pre-order until fn returns false.
func Walk(root Node, fn func(Node) bool) {
	walk(root, fn)
}

func walk(n Node, fn func(Node) bool) bool {
	if n == nil {
		return true
	}
	if !fn(n) {
		return false
	}
	for i := 0; i < n.ChildCount(); i++ {
		if !walk(n.Child(i), fn) {
			return false
		}
	}
	return true
}

// Count returns the number of reachable nodes under root, root included.
func Count(root Node) int {
	n := 0
	Walk(root, func(Node) bool {
		n++
		return true
	})
	return n
}

// Describe renders a short description of n for logs and CLI output.
func Describe(n Node) string {
	if n == nil {
		return "<none>"
	}
	if s, ok := n.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("node(focused=%t editable=%t children=%d)", n.Focused(), n.Editable(), n.ChildCount())
}
