package gpuboot

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gpuboot/backend"
)

// DeviceLostEvent is delivered at most once per device.
type DeviceLostEvent struct {
	Reason  backend.DeviceLostReason
	Message string
	// DuringTeardown reports that the loss arrived after Close began.
	DuringTeardown bool
}

// Err returns the event as an error wrapping ErrDeviceLost.
func (e DeviceLostEvent) Err() error {
	if e.Message == "" {
		return fmt.Errorf("%w: %s", ErrDeviceLost, e.Reason)
	}
	return fmt.Errorf("%w: %s: %s", ErrDeviceLost, e.Reason, e.Message)
}

// UncapturedErrorEvent is delivered for each error no error scope caught.
// The device stays usable.
type UncapturedErrorEvent struct {
	Kind    backend.ErrorType
	Message string
}

// Err returns the event as an error wrapping ErrUncapturedDeviceError.
func (e UncapturedErrorEvent) Err() error {
	return fmt.Errorf("%w: %s: %s", ErrUncapturedDeviceError, e.Kind, e.Message)
}

// WorkDoneEvent is delivered once per work-done registration.
type WorkDoneEvent struct {
	Status backend.WorkDoneStatus
}

// subscribers is a copy-on-notify list of handlers.
type subscribers[E any] struct {
	mu     sync.Mutex
	nextID int
	fns    map[int]func(E)
}

func (s *subscribers[E]) add(fn func(E)) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fns == nil {
		s.fns = make(map[int]func(E))
	}
	id := s.nextID
	s.nextID++
	s.fns[id] = fn
	return func() {
		s.mu.Lock()
		delete(s.fns, id)
		s.mu.Unlock()
	}
}

func (s *subscribers[E]) notify(e E) {
	s.mu.Lock()
	fns := make([]func(E), 0, len(s.fns))
	for id := 0; id < s.nextID; id++ {
		if fn, ok := s.fns[id]; ok {
			fns = append(fns, fn)
		}
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(e)
	}
}

// notifier receives backend notifications for one device and fans them out.
// Its methods run on backend goroutines and never touch GPU objects.
type notifier struct {
	log     func() *slog.Logger
	metrics *metrics

	lostFired   atomic.Bool
	tearingDown atomic.Bool

	mu   sync.Mutex
	lost *DeviceLostEvent

	onLost       subscribers[DeviceLostEvent]
	onUncaptured subscribers[UncapturedErrorEvent]
	onWorkDone   subscribers[WorkDoneEvent]
}

func newNotifier(log func() *slog.Logger, m *metrics) *notifier {
	return &notifier{log: log, metrics: m}
}

func (n *notifier) deviceLost(reason backend.DeviceLostReason, message string) {
	if !n.lostFired.CompareAndSwap(false, true) {
		n.log().Warn("gpuboot: duplicate device-lost notification ignored", "reason", reason, "message", message)
		return
	}
	e := DeviceLostEvent{Reason: reason, Message: message, DuringTeardown: n.tearingDown.Load()}

	n.mu.Lock()
	n.lost = &e
	n.mu.Unlock()

	n.metrics.deviceLost.WithLabelValues(reason.String()).Inc()
	if e.DuringTeardown && reason == backend.DeviceLostReasonDestroyed {
		n.log().Info("gpuboot: device lost during teardown", "reason", reason, "message", message)
	} else {
		n.log().Error("gpuboot: device lost", "reason", reason, "message", message)
	}
	n.onLost.notify(e)
}

func (n *notifier) uncapturedError(kind backend.ErrorType, message string) {
	n.metrics.uncaptured.WithLabelValues(kind.String()).Inc()
	n.log().Error("gpuboot: uncaptured device error", "kind", kind, "message", message)
	n.onUncaptured.notify(UncapturedErrorEvent{Kind: kind, Message: message})
}

func (n *notifier) workDone(status backend.WorkDoneStatus) {
	n.metrics.workDone.WithLabelValues(status.String()).Inc()
	n.log().Debug("gpuboot: queue work done", "status", status)
	n.onWorkDone.notify(WorkDoneEvent{Status: status})
}

// subscribeLost adds fn, or calls it at once if the device is already lost.
func (n *notifier) subscribeLost(fn func(DeviceLostEvent)) (cancel func()) {
	n.mu.Lock()
	lost := n.lost
	if lost == nil {
		cancel = n.onLost.add(fn)
	}
	n.mu.Unlock()

	if lost != nil {
		fn(*lost)
		return func() {}
	}
	return cancel
}

// lostEvent returns the device-lost event if one was delivered.
func (n *notifier) lostEvent() (DeviceLostEvent, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.lost == nil {
		return DeviceLostEvent{}, false
	}
	return *n.lost, true
}
