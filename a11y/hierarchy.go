package a11y

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// ErrEmptyHierarchy is returned when a dump contains no nodes at all.
var ErrEmptyHierarchy = errors.New("hierarchy contains no nodes")

var boundsPattern = regexp.MustCompile(`\[(-?\d+),(-?\d+)\]\[(-?\d+),(-?\d+)\]`)

// editableClasses are widget classes that accept text even when the dump
// omits the editable attribute.
var editableClasses = []string{"EditText", "AutoCompleteTextView", "MultiAutoCompleteTextView"}

type uiHierarchy struct {
	Nodes []uiNode `xml:"node"`
}

type uiNode struct {
	Attrs []xml.Attr `xml:",any,attr"`
	Nodes []uiNode   `xml:"node"`
}

func attrValue(attrs []xml.Attr, name string) string {
	for _, attr := range attrs {
		if attr.Name.Local == name {
			return attr.Value
		}
	}
	return ""
}

// ParseHierarchy decodes a uiautomator window dump into an Element tree.
// Several top-level nodes are placed under a synthetic root that is neither
// focused nor editable, so document order is preserved.
func ParseHierarchy(r io.Reader) (*Element, error) {
	var h uiHierarchy
	if err := xml.NewDecoder(r).Decode(&h); err != nil {
		return nil, fmt.Errorf("decode hierarchy: %w", err)
	}

	switch len(h.Nodes) {
	case 0:
		return nil, ErrEmptyHierarchy
	case 1:
		return convertNode(h.Nodes[0]), nil
	}

	root := &Element{Class: "hierarchy"}
	for _, n := range h.Nodes {
		root.Children = append(root.Children, convertNode(n))
	}
	return root, nil
}

func convertNode(n uiNode) *Element {
	e := &Element{
		Class:       attrValue(n.Attrs, "class"),
		Package:     attrValue(n.Attrs, "package"),
		ResourceID:  attrValue(n.Attrs, "resource-id"),
		Text:        attrValue(n.Attrs, "text"),
		ContentDesc: attrValue(n.Attrs, "content-desc"),
		Bounds:      parseBounds(attrValue(n.Attrs, "bounds")),
		IsFocused:   attrValue(n.Attrs, "focused") == "true",
	}
	e.IsEditable = attrValue(n.Attrs, "editable") == "true" || isEditableClass(e.Class)

	for _, child := range n.Nodes {
		e.Children = append(e.Children, convertNode(child))
	}
	return e
}

func isEditableClass(class string) bool {
	for _, suffix := range editableClasses {
		if strings.HasSuffix(class, suffix) {
			return true
		}
	}
	return false
}

func parseBounds(s string) Rect {
	m := boundsPattern.FindStringSubmatch(s)
	if len(m) != 5 {
		return Rect{}
	}
	left, _ := strconv.Atoi(m[1])
	top, _ := strconv.Atoi(m[2])
	right, _ := strconv.Atoi(m[3])
	bottom, _ := strconv.Atoi(m[4])
	return Rect{Left: left, Top: top, Right: right, Bottom: bottom}
}
