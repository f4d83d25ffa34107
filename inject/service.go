package inject

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"inputbridge/metrics"
)

const defaultQueueSize = 16

// Fallback receives text whose injection failed after the caller was
// already acknowledged.
type Fallback interface {
	Copy(data []byte) error
}

type request struct {
	id   string
	text string
	done chan error
}

// Service is the background entry point for injections. Requests are
// processed one at a time on a single worker goroutine, in arrival order.
type Service struct {
	injector *Injector
	log      *slog.Logger
	metrics  *metrics.Metrics
	fallback Fallback

	queue chan request
	wg    sync.WaitGroup

	mu      sync.Mutex
	started bool
	stopped bool
}

type Option func(*Service)

// WithFallback copies text to f when no field could take it.
func WithFallback(f Fallback) Option {
	return func(s *Service) { s.fallback = f }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithQueueSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.queue = make(chan request, n)
		}
	}
}

func NewService(injector *Injector, log *slog.Logger, opts ...Option) *Service {
	s := &Service{
		injector: injector,
		log:      log,
		queue:    make(chan request, defaultQueueSize),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = metrics.New()
	}
	return s
}

// Start launches the worker. It stops when ctx is done or Stop is called.
func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true
	s.wg.Add(1)
	go s.run(ctx)
}

// Stop refuses new requests, lets the worker finish what is queued and waits
// for it to exit.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.stopped {
		s.stopped = true
		close(s.queue)
	}
	s.mu.Unlock()
	s.wg.Wait()
}

// Dispatch queues text for injection and returns as soon as the request is
// accepted. The outcome is only logged.
func (s *Service) Dispatch(text string) (string, error) {
	req := request{id: uuid.NewString(), text: text}
	if err := s.enqueue(req); err != nil {
		return "", err
	}
	return req.id, nil
}

// DispatchAndWait queues text and blocks until the injection completes or
// ctx is done.
func (s *Service) DispatchAndWait(ctx context.Context, text string) error {
	req := request{id: uuid.NewString(), text: text, done: make(chan error, 1)}
	if err := s.enqueue(req); err != nil {
		return err
	}
	select {
	case err := <-req.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Service) enqueue(req request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started || s.stopped {
		return ErrServiceUnavailable
	}
	select {
	case s.queue <- req:
		s.log.Debug("injection dispatched", "id", req.id, "chars", utf8.RuneCountInString(req.text))
		return nil
	default:
		return fmt.Errorf("%w: queue full", ErrServiceUnavailable)
	}
}

func (s *Service) run(ctx context.Context) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			s.abandon(ctx.Err())
			return
		case req, ok := <-s.queue:
			if !ok {
				s.markStopped()
				return
			}
			if err := ctx.Err(); err != nil {
				s.finish(req, err)
				s.abandon(err)
				return
			}
			s.handle(ctx, req)
		}
	}
}

func (s *Service) markStopped() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
}

// abandon refuses new requests and fails everything still queued with err,
// so no waiter is left blocked once the worker is gone.
func (s *Service) abandon(err error) {
	s.markStopped()
	for {
		select {
		case req, ok := <-s.queue:
			if !ok {
				return
			}
			s.log.Warn("injection abandoned", "id", req.id, "err", err)
			s.finish(req, err)
		default:
			return
		}
	}
}

func (s *Service) finish(req request, err error) {
	if req.done != nil {
		req.done <- err
	}
}

func (s *Service) handle(ctx context.Context, req request) {
	start := time.Now()
	err := s.injector.InjectText(ctx, req.text)
	s.metrics.InjectionDuration.Observe(time.Since(start).Seconds())
	s.metrics.Injections.WithLabelValues(Outcome(err)).Inc()

	if err != nil {
		s.log.Error("injection failed", "id", req.id, "err", err)
		s.copyToFallback(req, err)
	} else {
		s.log.Info("text injected", "id", req.id, "chars", utf8.RuneCountInString(req.text))
	}

	s.finish(req, err)
}

func (s *Service) copyToFallback(req request, cause error) {
	if s.fallback == nil {
		return
	}
	if !errors.Is(cause, ErrNoFocusedEditable) && !errors.Is(cause, ErrActionRejected) {
		return
	}
	if err := s.fallback.Copy([]byte(req.text)); err != nil {
		s.log.Error("clipboard fallback failed", "id", req.id, "err", err)
		return
	}
	s.metrics.Fallbacks.Inc()
	s.log.Info("text copied to clipboard instead", "id", req.id)
}

// Outcome labels an injection result for metrics and replies.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNoActiveWindow):
		return "no_active_window"
	case errors.Is(err, ErrNoFocusedEditable):
		return "no_focused_editable"
	case errors.Is(err, ErrActionRejected):
		return "action_rejected"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}
