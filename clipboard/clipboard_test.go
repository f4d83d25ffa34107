package clipboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type hangingClipboard struct {
	release chan struct{}
}

func (c *hangingClipboard) Copy(data []byte) error {
	<-c.release
	return nil
}

func (c *hangingClipboard) Paste() ([]byte, error) {
	<-c.release
	return nil, nil
}

func withState(t *testing.T, primary clipboarder) *clipboardState {
	t.Helper()
	prevState, prevTimeout, prevInterval := state, clipboardTimeout, healthCheckInterval
	clipboardTimeout = 20 * time.Millisecond
	healthCheckInterval = 10 * time.Millisecond

	s := &clipboardState{
		primary:         primary,
		active:          primary,
		fallback:        &inMemoryClipboard{},
		healthCheckDone: make(chan struct{}),
	}
	state = s
	t.Cleanup(func() {
		close(s.healthCheckDone)
		state, clipboardTimeout, healthCheckInterval = prevState, prevTimeout, prevInterval
	})
	return s
}

func TestCopy_NotInitialized(t *testing.T) {
	prev := state
	state = nil
	defer func() { state = prev }()

	assert.ErrorIs(t, Copy([]byte("x")), errNotInitialized)
	_, err := Paste()
	assert.ErrorIs(t, err, errNotInitialized)
}

func TestCopy_UsesPrimary(t *testing.T) {
	primary := &inMemoryClipboard{}
	withState(t, primary)

	require.NoError(t, Sink{}.Copy([]byte("hello")))

	got, err := primary.Paste()
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got))
}

func TestCopy_FallsBackWhenPrimaryHangs(t *testing.T) {
	primary := &hangingClipboard{release: make(chan struct{})}
	s := withState(t, primary)

	require.NoError(t, Copy([]byte("typed elsewhere")))
	assert.True(t, isUsingFallback())

	got, err := Paste()
	require.NoError(t, err)
	assert.Equal(t, "typed elsewhere", string(got))

	close(primary.release)
	assert.Eventually(t, func() bool {
		s.mu.RLock()
		defer s.mu.RUnlock()
		return !s.usingFallback
	}, time.Second, 5*time.Millisecond)
}

func TestUseInMemoryClipboard(t *testing.T) {
	primary := &inMemoryClipboard{}
	withState(t, primary)

	UseInMemoryClipboard()
	require.NoError(t, Copy([]byte("pinned")))

	got, err := primary.Paste()
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestInMemoryClipboard_CopiesInput(t *testing.T) {
	c := &inMemoryClipboard{}
	data := []byte("abc")
	require.NoError(t, c.Copy(data))
	data[0] = 'z'

	got, _ := c.Paste()
	assert.Equal(t, "abc", string(got))
}
