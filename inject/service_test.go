package inject

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inputbridge/a11y"
	"inputbridge/logging"
	"inputbridge/metrics"
)

type recordingFallback struct {
	mu     sync.Mutex
	copied []string
	err    error
}

func (f *recordingFallback) Copy(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.copied = append(f.copied, string(data))
	return f.err
}

func newTestService(host Host, opts ...Option) *Service {
	return NewService(NewInjector(host, logging.NewNop()), logging.NewNop(), opts...)
}

func TestService_DispatchBeforeStart(t *testing.T) {
	svc := newTestService(&fakeHost{})

	_, err := svc.Dispatch("x")
	assert.ErrorIs(t, err, ErrServiceUnavailable)
}

func TestService_DispatchIsProcessed(t *testing.T) {
	root, field := focusedTree()
	host := &fakeHost{root: root, accept: true}
	m := metrics.New()
	svc := newTestService(host, WithMetrics(m))
	svc.Start(context.Background())

	id, err := svc.Dispatch("first")
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	_, err = svc.Dispatch("second")
	require.NoError(t, err)

	svc.Stop()

	require.Len(t, host.calls, 2)
	assert.Same(t, field, host.calls[0].node)
	assert.Equal(t, "first", host.calls[0].text)
	assert.Equal(t, "second", host.calls[1].text)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Injections.WithLabelValues("ok")))
}

func TestService_DispatchAfterStop(t *testing.T) {
	svc := newTestService(&fakeHost{})
	svc.Start(context.Background())
	svc.Stop()
	svc.Stop()

	_, err := svc.Dispatch("x")
	assert.ErrorIs(t, err, ErrServiceUnavailable)
}

func TestService_DispatchAndWait(t *testing.T) {
	root, _ := focusedTree()
	svc := newTestService(&fakeHost{root: root, accept: true})
	svc.Start(context.Background())
	defer svc.Stop()

	assert.NoError(t, svc.DispatchAndWait(context.Background(), "hi"))
}

func TestService_DispatchAndWaitReportsFailure(t *testing.T) {
	svc := newTestService(&fakeHost{})
	svc.Start(context.Background())
	defer svc.Stop()

	err := svc.DispatchAndWait(context.Background(), "hi")
	assert.ErrorIs(t, err, ErrNoActiveWindow)
}

func TestService_DispatchAndWaitHonoursContext(t *testing.T) {
	block := make(chan struct{})
	svc := newTestService(&fakeHost{block: block})
	svc.Start(context.Background())
	defer func() {
		close(block)
		svc.Stop()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, svc.DispatchAndWait(ctx, "hi"), context.DeadlineExceeded)
}

func TestService_QueueFull(t *testing.T) {
	block := make(chan struct{})
	svc := newTestService(&fakeHost{block: block}, WithQueueSize(1))
	svc.Start(context.Background())

	var err error
	for i := 0; i < 3 && err == nil; i++ {
		_, err = svc.Dispatch("x")
	}
	assert.ErrorIs(t, err, ErrServiceUnavailable)

	close(block)
	svc.Stop()
}

func TestService_ClipboardFallback(t *testing.T) {
	fallback := &recordingFallback{}
	m := metrics.New()
	noFocus := &fakeHost{root: &a11y.Element{Children: []*a11y.Element{{IsEditable: true}}}}
	svc := newTestService(noFocus, WithFallback(fallback), WithMetrics(m))
	svc.Start(context.Background())

	err := svc.DispatchAndWait(context.Background(), "lost text")
	svc.Stop()

	assert.ErrorIs(t, err, ErrNoFocusedEditable)
	assert.Equal(t, []string{"lost text"}, fallback.copied)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Fallbacks))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Injections.WithLabelValues("no_focused_editable")))
}

func TestService_NoFallbackWithoutWindow(t *testing.T) {
	fallback := &recordingFallback{}
	svc := newTestService(&fakeHost{}, WithFallback(fallback))
	svc.Start(context.Background())

	_ = svc.DispatchAndWait(context.Background(), "x")
	svc.Stop()

	assert.Empty(t, fallback.copied)
}

func TestService_FallbackErrorIsLogged(t *testing.T) {
	root, _ := focusedTree()
	fallback := &recordingFallback{err: errors.New("no clipboard")}
	m := metrics.New()
	svc := newTestService(&fakeHost{root: root, accept: false}, WithFallback(fallback), WithMetrics(m))
	svc.Start(context.Background())

	err := svc.DispatchAndWait(context.Background(), "x")
	svc.Stop()

	assert.ErrorIs(t, err, ErrActionRejected)
	assert.Len(t, fallback.copied, 1)
	assert.Zero(t, testutil.ToFloat64(m.Fallbacks))
}

func TestService_StopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	svc := newTestService(&fakeHost{})
	svc.Start(ctx)
	cancel()

	require.Eventually(t, func() bool {
		_, err := svc.Dispatch("x")
		return errors.Is(err, ErrServiceUnavailable)
	}, time.Second, 5*time.Millisecond)
	svc.Stop()
}

func TestService_CancelFailsQueuedWaiters(t *testing.T) {
	root, _ := focusedTree()
	block := make(chan struct{})
	host := &fakeHost{root: root, accept: true, block: block}
	ctx, cancel := context.WithCancel(context.Background())
	svc := newTestService(host)
	svc.Start(ctx)

	_, err := svc.Dispatch("first")
	require.NoError(t, err)
	require.Eventually(t, func() bool { return len(svc.queue) == 0 }, time.Second, time.Millisecond)

	waited := make(chan error, 1)
	go func() {
		waited <- svc.DispatchAndWait(context.Background(), "second")
	}()
	require.Eventually(t, func() bool { return len(svc.queue) == 1 }, time.Second, time.Millisecond)

	cancel()
	close(block)

	select {
	case err := <-waited:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("waiter left blocked after the service context was cancelled")
	}

	_, err = svc.Dispatch("third")
	assert.ErrorIs(t, err, ErrServiceUnavailable)
	svc.Stop()
}
