package a11y

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const loginDump = `<?xml version='1.0' encoding='UTF-8' standalone='yes' ?>
<hierarchy rotation="0">
  <node index="0" text="" resource-id="" class="android.widget.FrameLayout" package="com.example.app" focused="false" bounds="[0,0][1080,2340]">
    <node index="0" text="user" resource-id="com.example.app:id/username" class="android.widget.EditText" package="com.example.app" focused="false" bounds="[40,300][1040,420]" />
    <node index="1" text="" resource-id="com.example.app:id/password" class="android.widget.EditText" package="com.example.app" focused="true" bounds="[40,460][1040,580]" />
    <node index="2" text="Sign in" resource-id="com.example.app:id/submit" class="android.widget.Button" package="com.example.app" focused="false" bounds="[40,620][1040,740]" />
  </node>
</hierarchy>`

func TestParseHierarchy(t *testing.T) {
	root, err := ParseHierarchy(strings.NewReader(loginDump))
	require.NoError(t, err)

	assert.Equal(t, "android.widget.FrameLayout", root.Class)
	require.Len(t, root.Children, 3)

	user := root.Children[0]
	assert.Equal(t, "user", user.Text)
	assert.True(t, user.IsEditable)
	assert.False(t, user.IsFocused)
	assert.Equal(t, Rect{40, 300, 1040, 420}, user.Bounds)

	button := root.Children[2]
	assert.False(t, button.IsEditable)

	found := FindFocusedEditable(root)
	require.NotNil(t, found)
	assert.Equal(t, "com.example.app:id/password", found.(*Element).ResourceID)
	x, y := found.(*Element).Bounds.Center()
	assert.Equal(t, 540, x)
	assert.Equal(t, 520, y)
}

func TestParseHierarchy_EditableAttribute(t *testing.T) {
	dump := `<hierarchy><node class="com.example.CustomInput" focused="true" editable="true" bounds="[0,0][10,10]"/></hierarchy>`

	root, err := ParseHierarchy(strings.NewReader(dump))
	require.NoError(t, err)
	assert.Same(t, root, FindFocusedEditable(root))
}

func TestParseHierarchy_MultipleWindows(t *testing.T) {
	dump := `<hierarchy>
  <node class="android.widget.FrameLayout"><node class="android.widget.EditText" focused="true" text="first"/></node>
  <node class="android.widget.FrameLayout"><node class="android.widget.EditText" focused="true" text="second"/></node>
</hierarchy>`

	root, err := ParseHierarchy(strings.NewReader(dump))
	require.NoError(t, err)
	assert.Equal(t, "hierarchy", root.Class)
	assert.False(t, root.IsFocused)
	require.Len(t, root.Children, 2)

	found := FindFocusedEditable(root)
	require.NotNil(t, found)
	assert.Equal(t, "first", found.(*Element).Text)
}

func TestParseHierarchy_Empty(t *testing.T) {
	_, err := ParseHierarchy(strings.NewReader(`<hierarchy rotation="0"></hierarchy>`))
	assert.True(t, errors.Is(err, ErrEmptyHierarchy))
}

func TestParseHierarchy_Malformed(t *testing.T) {
	_, err := ParseHierarchy(strings.NewReader("ERROR: null root node returned by UiTestAutomationBridge."))
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrEmptyHierarchy))
}

func TestParseBounds(t *testing.T) {
	assert.Equal(t, Rect{1, 2, 3, 4}, parseBounds("[1,2][3,4]"))
	assert.Equal(t, Rect{}, parseBounds(""))
	assert.Equal(t, Rect{}, parseBounds("garbage"))
}
