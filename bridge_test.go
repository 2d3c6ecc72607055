package gpuboot

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gogpu/gpuboot/backend"
)

// token is a releasable payload for bridge tests.
type token struct {
	id       int
	released atomic.Int32
}

func (t *token) Release() { t.released.Add(1) }

func TestAwaitImmediate(t *testing.T) {
	want := &token{id: 1}
	var ran atomic.Bool

	got, err := Await(context.Background(), func(complete Completion[*token]) {
		ran.Store(true)
		complete(backend.RequestStatusSuccess, want, "")
	}, WaitOptions{})
	if err != nil {
		t.Fatalf("Await() error = %v", err)
	}
	if !ran.Load() {
		t.Fatal("Await returned before the completion ran")
	}
	if got != want {
		t.Errorf("Await() = %v, want %v", got, want)
	}
}

func TestAwaitAsync(t *testing.T) {
	want := &token{id: 2}
	var completed atomic.Bool

	got, err := Await(context.Background(), func(complete Completion[*token]) {
		go func() {
			time.Sleep(5 * time.Millisecond)
			completed.Store(true)
			complete(backend.RequestStatusSuccess, want, "")
		}()
	}, WaitOptions{})
	if err != nil {
		t.Fatalf("Await() error = %v", err)
	}
	if !completed.Load() {
		t.Error("Await returned before the asynchronous completion")
	}
	if got != want {
		t.Errorf("Await() = %v, want %v", got, want)
	}
}

// pumpedSource delivers its completion only from pump.
type pumpedSource struct {
	mu      sync.Mutex
	pending func()
	pumps   atomic.Int32
}

func (p *pumpedSource) issue(v *token) func(Completion[*token]) {
	return func(complete Completion[*token]) {
		p.mu.Lock()
		p.pending = func() { complete(backend.RequestStatusSuccess, v, "") }
		p.mu.Unlock()
	}
}

func (p *pumpedSource) pump() {
	// Deliver on the third pump so that Await has to loop.
	if p.pumps.Add(1) < 3 {
		return
	}
	p.mu.Lock()
	fn := p.pending
	p.pending = nil
	p.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func TestAwaitPumped(t *testing.T) {
	src := &pumpedSource{}
	want := &token{id: 3}

	got, err := Await(context.Background(), src.issue(want), WaitOptions{
		PumpWhileWaiting: true,
		Pump:             src.pump,
		MaxInterval:      2 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("Await() error = %v", err)
	}
	if got != want {
		t.Errorf("Await() = %v, want %v", got, want)
	}
	if n := src.pumps.Load(); n < 3 {
		t.Errorf("pumps = %d, want at least 3", n)
	}
}

func TestAwaitPumpedWithoutPumpCannotComplete(t *testing.T) {
	src := &pumpedSource{}
	v := &token{id: 4}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := Await(ctx, src.issue(v), WaitOptions{})
	if !errors.Is(err, ErrRequestAbandoned) {
		t.Fatalf("Await() error = %v, want ErrRequestAbandoned", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Await() error = %v, want it to wrap context.DeadlineExceeded", err)
	}

	// The late completion must release the payload nobody will consume.
	src.pumps.Store(10)
	src.pump()
	if v.released.Load() != 1 {
		t.Errorf("late payload released %d times, want 1", v.released.Load())
	}
}

func TestAwaitFailure(t *testing.T) {
	tests := []struct {
		name    string
		status  backend.RequestStatus
		value   *token
		message string
		wantMsg string
	}{
		{"error status", backend.RequestStatusError, nil, "no compatible adapter", "no compatible adapter"},
		{"unavailable", backend.RequestStatusUnavailable, nil, "", ""},
		{"success without payload", backend.RequestStatusSuccess, nil, "", "backend reported success without a result"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Await(context.Background(), func(complete Completion[*token]) {
				complete(tt.status, tt.value, tt.message)
			}, WaitOptions{})
			if got != nil {
				t.Errorf("Await() value = %v, want nil", got)
			}
			var rf *RequestFailure
			if !errors.As(err, &rf) {
				t.Fatalf("Await() error = %v, want *RequestFailure", err)
			}
			if rf.Reason != tt.status {
				t.Errorf("Reason = %v, want %v", rf.Reason, tt.status)
			}
			if rf.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", rf.Message, tt.wantMsg)
			}
		})
	}
}

func TestAwaitSecondCompletionIgnored(t *testing.T) {
	first := &token{id: 5}
	second := &token{id: 6}

	got, err := Await(context.Background(), func(complete Completion[*token]) {
		complete(backend.RequestStatusSuccess, first, "")
		complete(backend.RequestStatusSuccess, second, "")
	}, WaitOptions{})
	if err != nil {
		t.Fatalf("Await() error = %v", err)
	}
	if got != first {
		t.Errorf("Await() = token %d, want token %d", got.id, first.id)
	}
	if first.released.Load() != 0 {
		t.Error("first payload was released")
	}
	if second.released.Load() != 1 {
		t.Errorf("second payload released %d times, want 1", second.released.Load())
	}
}

func TestAwaitCanceledBeforeIssue(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// A synchronous completion wins over an already canceled context.
	v := &token{id: 7}
	got, err := Await(ctx, func(complete Completion[*token]) {
		complete(backend.RequestStatusSuccess, v, "")
	}, WaitOptions{})
	if err != nil || got != v {
		t.Errorf("Await() = %v, %v; want token, nil", got, err)
	}
}

func TestRequestStateCompletionObservedOnce(t *testing.T) {
	st := newRequestState[*token]()
	if st.ended.Load() {
		t.Fatal("fresh request state is already complete")
	}
	st.complete(backend.RequestStatusSuccess, &token{}, "")
	st.complete(backend.RequestStatusSuccess, &token{}, "")
	if !st.ended.Load() {
		t.Fatal("completion flag not set")
	}
	select {
	case <-st.done:
	default:
		t.Fatal("done channel not closed")
	}
}

func TestWaitOptionsMaxInterval(t *testing.T) {
	if got := (WaitOptions{}).maxInterval(); got != defaultMaxPumpInterval {
		t.Errorf("maxInterval() = %v, want %v", got, defaultMaxPumpInterval)
	}
	if got := (WaitOptions{MaxInterval: time.Second}).maxInterval(); got != time.Second {
		t.Errorf("maxInterval() = %v, want 1s", got)
	}
}
