package a11y

import (
	"fmt"
	"strings"
)

// Rect is an on-screen rectangle in device pixels.
type Rect struct {
	Left, Top, Right, Bottom int
}

// Center returns the midpoint of r.
func (r Rect) Center() (int, int) {
	return (r.Left + r.Right) / 2, (r.Top + r.Bottom) / 2
}

func (r Rect) String() string {
	return fmt.Sprintf("[%d,%d][%d,%d]", r.Left, r.Top, r.Right, r.Bottom)
}

// Element is a snapshot of one accessibility node, as produced by a hierarchy
// dump or built by hand.
type Element struct {
	Class       string
	Package     string
	ResourceID  string
	Text        string
	ContentDesc string
	Bounds      Rect
	IsFocused   bool
	IsEditable  bool
	Children    []*Element
}

func (e *Element) Focused() bool  { return e.IsFocused }
func (e *Element) Editable() bool { return e.IsEditable }
func (e *Element) ChildCount() int { return len(e.Children) }

// Child returns nil for an out-of-range index or an empty slot. The explicit
// nil keeps a nil *Element from turning into a non-nil Node.
func (e *Element) Child(i int) Node {
	if i < 0 || i >= len(e.Children) || e.Children[i] == nil {
		return nil
	}
	return e.Children[i]
}

func (e *Element) String() string {
	var b strings.Builder
	b.WriteString(e.Class)
	if b.Len() == 0 {
		b.WriteString("node")
	}
	if e.ResourceID != "" {
		fmt.Fprintf(&b, " id=%s", e.ResourceID)
	}
	if e.Text != "" {
		fmt.Fprintf(&b, " text=%q", e.Text)
	}
	fmt.Fprintf(&b, " bounds=%s focused=%t editable=%t", e.Bounds, e.IsFocused, e.IsEditable)
	return b.String()
}
