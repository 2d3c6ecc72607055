//go:build !nogpu

package native

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gpuboot/backend"
)

// fenceTimeout bounds blocking waits for submitted work.
const fenceTimeout = 5 * time.Second

// Device wraps a HAL device and its default queue.
type Device struct {
	shared   *sharedInstance
	raw      hal.Device
	queue    *Queue
	features []backend.FeatureName
	limits   backend.Limits
	label    string

	lostCallback backend.DeviceLostCallback
	lostOnce     sync.Once

	destroyed atomic.Bool
	released  atomic.Bool
}

func newDevice(shared *sharedInstance, raw hal.Device, q hal.Queue, desc *backend.DeviceDescriptor,
	features []backend.FeatureName, limits backend.Limits) *Device {
	d := &Device{
		shared:       shared,
		raw:          raw,
		features:     features,
		limits:       limits,
		label:        desc.Label,
		lostCallback: desc.DeviceLost,
	}
	if q != nil {
		d.queue = &Queue{
			raw:        q,
			label:      desc.DefaultQueue.Label,
			uncaptured: desc.UncapturedError,
		}
	}
	return d
}

// EnumerateFeatures implements backend.Device.
func (d *Device) EnumerateFeatures(features []backend.FeatureName) int {
	if features == nil {
		return len(d.features)
	}
	return copy(features, d.features)
}

// GetLimits implements backend.Device.
func (d *Device) GetLimits(limits *backend.Limits) bool {
	if limits == nil || d.destroyed.Load() {
		return false
	}
	*limits = d.limits
	return true
}

// GetQueue implements backend.Device.
func (d *Device) GetQueue() backend.Queue {
	if d.queue == nil {
		return nil
	}
	return d.queue
}

// Poll implements backend.Device. It completes queue work-done callbacks
// whose submissions have finished.
func (d *Device) Poll(wait bool) {
	if d.queue != nil && !d.destroyed.Load() {
		d.queue.poll(wait)
	}
}

// Destroy implements backend.Device.
func (d *Device) Destroy() {
	if !d.destroyed.CompareAndSwap(false, true) {
		return
	}
	if d.queue != nil {
		d.queue.drain(backend.WorkDoneStatusInstanceDropped)
	}
	d.raw.Destroy()
	slogger().Debug("native: device destroyed", "label", d.label)
	d.lost(backend.DeviceLostReasonDestroyed, "device destroyed")
}

func (d *Device) lost(reason backend.DeviceLostReason, message string) {
	d.lostOnce.Do(func() {
		if d.lostCallback != nil {
			d.lostCallback(reason, message)
		}
	})
}

// Release implements backend.Device. Releasing the last reference destroys
// the device.
func (d *Device) Release() {
	if !d.released.CompareAndSwap(false, true) {
		return
	}
	d.Destroy()
	d.shared.release()
}

// Raw returns the underlying hal.Device, or nil once destroyed.
func (d *Device) Raw() any {
	if d.destroyed.Load() {
		return nil
	}
	return d.raw
}

// pendingWork is a work-done registration waiting for its submission
// index to complete.
type pendingWork struct {
	index    uint64
	callback backend.WorkDoneCallback
}

// Queue wraps the default queue of a Device.
type Queue struct {
	raw        hal.Queue
	label      string
	uncaptured backend.UncapturedErrorCallback

	// mu also serializes Submit and PollCompleted, which HAL queues do not
	// all guard themselves.
	mu       sync.Mutex
	pending  []pendingWork
	released bool
}

// OnSubmittedWorkDone implements backend.Queue. An empty submission marks
// the point to wait for and the callback fires from Device.Poll once the
// HAL reports that submission complete. A HAL that skips empty submissions
// returns index 0, which completes on the next poll.
func (q *Queue) OnSubmittedWorkDone(callback backend.WorkDoneCallback) {
	q.mu.Lock()
	if q.released {
		q.mu.Unlock()
		callback(backend.WorkDoneStatusInstanceDropped)
		return
	}
	index, err := q.raw.Submit(nil)
	if err != nil {
		q.mu.Unlock()
		q.report(backend.ErrorTypeInternal, "submit: "+err.Error())
		callback(backend.WorkDoneStatusError)
		return
	}
	q.pending = append(q.pending, pendingWork{index: index, callback: callback})
	q.mu.Unlock()
}

func (q *Queue) report(kind backend.ErrorType, message string) {
	slogger().Warn("native: queue error", "queue", q.label, "kind", kind, "message", message)
	if q.uncaptured != nil {
		q.uncaptured(kind, message)
	}
}

// poll completes every registration whose submission has finished. With
// wait it keeps polling, up to fenceTimeout, until the registrations
// present on entry are done. Callbacks run without the queue lock and may
// register again.
func (q *Queue) poll(wait bool) {
	q.mu.Lock()
	var target uint64
	for _, p := range q.pending {
		target = max(target, p.index)
	}
	q.mu.Unlock()

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 100 * time.Microsecond
	bo.MaxInterval = 10 * time.Millisecond
	bo.MaxElapsedTime = fenceTimeout
	bo.Reset()

	for {
		completed, done := q.collect()
		for _, p := range done {
			p.callback(backend.WorkDoneStatusSuccess)
		}
		if !wait || completed >= target {
			return
		}
		d := bo.NextBackOff()
		if d == backoff.Stop {
			slogger().Warn("native: timed out waiting for queue work",
				"queue", q.label, "completed", completed, "target", target)
			return
		}
		time.Sleep(d)
	}
}

// collect removes the registrations whose index has completed.
func (q *Queue) collect() (completed uint64, done []pendingWork) {
	q.mu.Lock()
	defer q.mu.Unlock()
	completed = q.raw.PollCompleted()
	rest := q.pending[:0]
	for _, p := range q.pending {
		if p.index <= completed {
			done = append(done, p)
		} else {
			rest = append(rest, p)
		}
	}
	clear(q.pending[len(rest):])
	q.pending = rest
	return completed, done
}

// drain completes every pending registration with status.
func (q *Queue) drain(status backend.WorkDoneStatus) {
	q.mu.Lock()
	pending := q.pending
	q.pending = nil
	q.mu.Unlock()

	for _, p := range pending {
		p.callback(status)
	}
}

// Release implements backend.Queue. Outstanding work is waited for once;
// whatever is still pending afterwards completes as dropped.
func (q *Queue) Release() {
	q.mu.Lock()
	if q.released {
		q.mu.Unlock()
		return
	}
	q.released = true
	q.mu.Unlock()

	q.poll(true)
	q.drain(backend.WorkDoneStatusInstanceDropped)
}

// Raw returns the underlying hal.Queue.
func (q *Queue) Raw() any { return q.raw }
