package a11y

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingNode wraps an Element and records how often each node is asked
// whether it is focused.
type countingNode struct {
	*Element
	visits map[*Element]int
}

func (c countingNode) Focused() bool {
	c.visits[c.Element]++
	return c.Element.Focused()
}

func (c countingNode) Child(i int) Node {
	if i < 0 || i >= len(c.Children) || c.Children[i] == nil {
		return nil
	}
	return countingNode{Element: c.Children[i], visits: c.visits}
}

// holeNode reports a child count larger than the children it can provide.
type holeNode struct {
	children []Node
	count    int
}

func (h *holeNode) Focused() bool   { return false }
func (h *holeNode) Editable() bool  { return false }
func (h *holeNode) ChildCount() int { return h.count }
func (h *holeNode) Child(i int) Node {
	if i < len(h.children) {
		return h.children[i]
	}
	return nil
}

func TestFindFocusedEditable_SecondChild(t *testing.T) {
	a := &Element{Class: "A", IsEditable: true}
	b := &Element{Class: "B", IsFocused: true, IsEditable: true}
	root := &Element{Class: "root", Children: []*Element{a, b}}

	assert.Same(t, b, FindFocusedEditable(root))
}

func TestFindFocusedEditable_RootWins(t *testing.T) {
	child := &Element{IsFocused: true, IsEditable: true}
	root := &Element{IsFocused: true, IsEditable: true, Children: []*Element{child}}
	visits := map[*Element]int{}

	got := FindFocusedEditable(countingNode{Element: root, visits: visits})

	require.NotNil(t, got)
	assert.Same(t, root, got.(countingNode).Element)
	assert.Zero(t, visits[child], "children must not be visited when root qualifies")
}

func TestFindFocusedEditable_NoneQualifies(t *testing.T) {
	root := &Element{Children: []*Element{
		{IsFocused: true},
		{IsEditable: true, Children: []*Element{{IsFocused: false, IsEditable: true}}},
	}}

	assert.Nil(t, FindFocusedEditable(root))
}

func TestFindFocusedEditable_NilRoot(t *testing.T) {
	assert.Nil(t, FindFocusedEditable(nil))
}

func TestFindFocusedEditable_PreOrderTieBreak(t *testing.T) {
	deep := &Element{Class: "deep", IsFocused: true, IsEditable: true}
	late := &Element{Class: "late", IsFocused: true, IsEditable: true}
	root := &Element{Children: []*Element{
		{Children: []*Element{{Children: []*Element{deep}}}},
		late,
	}}

	assert.Same(t, deep, FindFocusedEditable(root))
}

func TestFindFocusedEditable_SkipsMissingChildren(t *testing.T) {
	target := &Element{IsFocused: true, IsEditable: true}
	root := &holeNode{children: []Node{nil, target}, count: 4}

	assert.Same(t, target, FindFocusedEditable(root))

	root = &holeNode{count: 3}
	assert.Nil(t, FindFocusedEditable(root))
}

func TestFindFocusedEditable_NilElementSlot(t *testing.T) {
	target := &Element{IsFocused: true, IsEditable: true}
	root := &Element{Children: []*Element{nil, target}}

	assert.Same(t, target, FindFocusedEditable(root))
}

func TestFindFocusedEditable_VisitsEachNodeOnce(t *testing.T) {
	var all []*Element
	leaf := func() *Element {
		e := &Element{IsEditable: true}
		all = append(all, e)
		return e
	}
	mid := func(children ...*Element) *Element {
		e := &Element{Children: children}
		all = append(all, e)
		return e
	}
	root := mid(mid(leaf(), leaf()), mid(leaf(), mid(leaf())), leaf())
	visits := map[*Element]int{}

	assert.Nil(t, FindFocusedEditable(countingNode{Element: root, visits: visits}))
	for _, e := range all {
		assert.Equal(t, 1, visits[e])
	}
}

func TestWalkAndCount(t *testing.T) {
	root := &Element{Class: "r", Children: []*Element{
		{Class: "a", Children: []*Element{{Class: "a1"}}},
		{Class: "b"},
	}}

	var order []string
	Walk(root, func(n Node) bool {
		order = append(order, n.(*Element).Class)
		return true
	})
	assert.Equal(t, []string{"r", "a", "a1", "b"}, order)
	assert.Equal(t, 4, Count(root))

	order = nil
	Walk(root, func(n Node) bool {
		order = append(order, n.(*Element).Class)
		return n.(*Element).Class != "a"
	})
	assert.Equal(t, []string{"r", "a"}, order)
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "<none>", Describe(nil))

	e := &Element{Class: "android.widget.EditText", ResourceID: "app:id/q", Text: "hi", Bounds: Rect{0, 10, 100, 50}, IsFocused: true, IsEditable: true}
	assert.Equal(t, `android.widget.EditText id=app:id/q text="hi" bounds=[0,10][100,50] focused=true editable=true`, Describe(e))

	assert.Equal(t, "node(focused=false editable=false children=2)", Describe(&holeNode{count: 2}))
}
