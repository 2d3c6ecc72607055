package gpuboot

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/gogpu/gpuboot/backend"
)

// defaultMaxPumpInterval caps the pause between two pumps. It matches the
// 100ms sleep browser hosts use to hand control back to their event loop.
const defaultMaxPumpInterval = 100 * time.Millisecond

// WaitOptions selects how Await waits for a request to complete.
type WaitOptions struct {
	// PumpWhileWaiting makes Await drive Pump between polls instead of
	// blocking on the completion signal. Backends that deliver callbacks
	// only from their event loop need this.
	PumpWhileWaiting bool

	// Pump delivers pending backend callbacks. When nil, pumping degrades
	// to a cooperative sleep between polls.
	Pump func()

	// MaxInterval caps the pause between pumps. Zero means 100ms.
	MaxInterval time.Duration
}

func (o WaitOptions) maxInterval() time.Duration {
	if o.MaxInterval > 0 {
		return o.MaxInterval
	}
	return defaultMaxPumpInterval
}

// Completion is handed to an issued request. The backend calls it exactly
// once, from any goroutine, possibly before the issuing call returns.
type Completion[T any] func(status backend.RequestStatus, value T, message string)

// requestState is the single-use record shared between one Await call and
// the completion it hands out.
type requestState[T any] struct {
	done  chan struct{}
	ended atomic.Bool

	mu        sync.Mutex
	abandoned bool
	status    backend.RequestStatus
	value     T
	message   string
}

func newRequestState[T any]() *requestState[T] {
	return &requestState[T]{done: make(chan struct{})}
}

func (s *requestState[T]) complete(status backend.RequestStatus, value T, message string) {
	s.mu.Lock()
	if s.ended.Load() {
		s.mu.Unlock()
		Logger().Warn("gpuboot: request completed more than once, ignoring", "status", status)
		releaseValue(value)
		return
	}
	abandoned := s.abandoned
	if !abandoned {
		s.status, s.value, s.message = status, value, message
	}
	s.ended.Store(true)
	s.mu.Unlock()

	if abandoned {
		Logger().Warn("gpuboot: request completed after its caller gave up", "status", status)
		releaseValue(value)
	}
	close(s.done)
}

// abandon marks the request as no longer awaited. If the completion won
// the race, abandon returns nil and the result stands.
func (s *requestState[T]) abandon(cause error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended.Load() {
		return nil
	}
	s.abandoned = true
	return fmt.Errorf("%w: %w", ErrRequestAbandoned, cause)
}

func (s *requestState[T]) wait(ctx context.Context, opts WaitOptions) error {
	if !opts.PumpWhileWaiting {
		select {
		case <-s.done:
			return nil
		case <-ctx.Done():
			return s.abandon(ctx.Err())
		}
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = time.Millisecond
	bo.RandomizationFactor = 0
	bo.MaxInterval = opts.maxInterval()
	bo.MaxElapsedTime = 0
	bo.Reset()

	for {
		select {
		case <-s.done:
			return nil
		default:
		}
		if opts.Pump != nil {
			opts.Pump()
		}
		select {
		case <-s.done:
			return nil
		case <-ctx.Done():
			return s.abandon(ctx.Err())
		case <-time.After(bo.NextBackOff()):
		}
	}
}

// Await issues one asynchronous request and blocks until its completion
// has run. issue must start exactly one backend operation and pass it the
// completion it receives.
//
// A status other than RequestStatusSuccess, or a success without a payload,
// yields a *RequestFailure. If ctx ends first, Await returns an error
// wrapping ErrRequestAbandoned, and a payload delivered later is released.
func Await[T any](ctx context.Context, issue func(Completion[T]), opts WaitOptions) (T, error) {
	var zero T

	st := newRequestState[T]()
	issue(st.complete)

	if err := st.wait(ctx, opts); err != nil {
		return zero, err
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if !st.ended.Load() {
		// wait returns nil only after the completion ran.
		panic("gpuboot: request result read before completion")
	}
	if st.status != backend.RequestStatusSuccess {
		return zero, &RequestFailure{Reason: st.status, Message: st.message}
	}
	if isNil(st.value) {
		return zero, &RequestFailure{Reason: st.status, Message: "backend reported success without a result"}
	}
	return st.value, nil
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

// releaseValue releases a payload nobody will consume.
func releaseValue(v any) {
	if r, ok := v.(interface{ Release() }); ok && !isNil(r) {
		r.Release()
	}
}
