// Package gputest provides a scriptable in-process backend for tests.
//
// A Backend follows a Script: it decides how request callbacks are
// delivered (inline, from a goroutine, or only while the caller pumps),
// which requests fail and with what message, and what capabilities the
// adapter and device report. Every release is appended to a journal so
// tests can assert teardown order.
package gputest

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/gpuboot/backend"
)

// Delivery selects how request callbacks reach the caller.
type Delivery uint8

// Delivery modes.
const (
	// DeliverImmediate invokes callbacks before the request call returns.
	DeliverImmediate Delivery = iota
	// DeliverAsync invokes callbacks from a new goroutine.
	DeliverAsync
	// DeliverPumped queues callbacks until ProcessEvents is called.
	DeliverPumped
	// DeliverNever holds callbacks until Backend.Flush is called.
	DeliverNever
)

// ErrInstance is the default instance creation failure.
var ErrInstance = errors.New("gputest: instance creation failed")

// Script describes how a Backend behaves.
type Script struct {
	Delivery Delivery

	// InstanceErr fails CreateInstance. NilInstance makes it return nil, nil.
	InstanceErr error
	NilInstance bool

	// SurfaceErr fails CreateSurface.
	SurfaceErr error

	// AdapterStatus and AdapterMessage are delivered to the adapter callback.
	// NilAdapter delivers the status with no adapter.
	AdapterStatus  backend.RequestStatus
	AdapterMessage string
	NilAdapter     bool

	// DeviceStatus and DeviceMessage are delivered to the device callback.
	DeviceStatus  backend.RequestStatus
	DeviceMessage string
	NilDevice     bool

	// CompleteTwice delivers every request callback a second time.
	CompleteTwice bool

	// NilQueue makes Device.GetQueue return nil.
	NilQueue bool

	// ConfigureErr fails Surface.Configure.
	ConfigureErr error

	// LoseOnRelease fires the device-lost callback from Device.Release.
	LoseOnRelease bool

	AdapterFeatures []backend.FeatureName
	DeviceFeatures  []backend.FeatureName

	// FeatureShortfall makes the filling enumeration call write that many
	// entries fewer than the count call reported.
	FeatureShortfall int

	Limits     backend.Limits
	LimitsFail bool
	Properties backend.AdapterProperties
}

// DefaultScript returns a script in which every step succeeds inline.
func DefaultScript() Script {
	return Script{
		Delivery:        DeliverImmediate,
		AdapterStatus:   backend.RequestStatusSuccess,
		DeviceStatus:    backend.RequestStatusSuccess,
		AdapterFeatures: []backend.FeatureName{0x1, 0x4, 0x9},
		DeviceFeatures:  []backend.FeatureName{0x1},
		Limits:          gputypes.DefaultLimits(),
		Properties: backend.AdapterProperties{
			VendorID:          0x10de,
			DeviceID:          0x2684,
			VendorName:        "gputest",
			Architecture:      "virtual",
			Name:              "gputest adapter",
			DriverDescription: "scripted",
			AdapterType:       backend.AdapterTypeIntegratedGPU,
			BackendType:       backend.BackendTypeNull,
		},
	}
}

// Backend is a scriptable backend.Backend.
type Backend struct {
	script Script

	mu              sync.Mutex
	journal         []string
	queued          []func()
	held            []func()
	adapterRequests int
	deviceRequests  int
	adapterOpts     *backend.RequestAdapterOptions
	deviceDesc      *backend.DeviceDescriptor
	instanceDesc    *backend.InstanceDescriptor
	device          *Device
	surface         *Surface
}

// New returns a Backend following script.
func New(script Script) *Backend {
	return &Backend{script: script}
}

// Name implements backend.Backend.
func (b *Backend) Name() string { return "gputest" }

// Traits implements backend.Backend.
func (b *Backend) Traits() backend.Traits {
	return backend.Traits{PumpWhileWaiting: b.script.Delivery == DeliverPumped}
}

// CreateInstance implements backend.Backend.
func (b *Backend) CreateInstance(desc *backend.InstanceDescriptor) (backend.Instance, error) {
	b.mu.Lock()
	if desc != nil {
		d := *desc
		b.instanceDesc = &d
	}
	b.mu.Unlock()

	if b.script.InstanceErr != nil {
		return nil, b.script.InstanceErr
	}
	if b.script.NilInstance {
		return nil, nil
	}
	return &Instance{b: b}, nil
}

// Journal returns the recorded lifecycle calls in order.
func (b *Backend) Journal() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.journal...)
}

// AdapterRequests reports how many adapter requests were issued.
func (b *Backend) AdapterRequests() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.adapterRequests
}

// DeviceRequests reports how many device requests were issued.
func (b *Backend) DeviceRequests() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.deviceRequests
}

// AdapterOptions returns the options of the last adapter request.
func (b *Backend) AdapterOptions() *backend.RequestAdapterOptions {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.adapterOpts
}

// DeviceDescriptor returns the descriptor of the last device request.
func (b *Backend) DeviceDescriptor() *backend.DeviceDescriptor {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.deviceDesc
}

// InstanceDescriptor returns the descriptor of the last CreateInstance call.
func (b *Backend) InstanceDescriptor() *backend.InstanceDescriptor {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.instanceDesc
}

// Device returns the last device handed out, or nil.
func (b *Backend) Device() *Device {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.device
}

// Surface returns the last surface created, or nil.
func (b *Backend) Surface() *Surface {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.surface
}

// Flush delivers callbacks held under DeliverNever.
func (b *Backend) Flush() {
	b.mu.Lock()
	held := b.held
	b.held = nil
	b.mu.Unlock()
	for _, fn := range held {
		fn()
	}
}

func (b *Backend) record(format string, args ...any) {
	b.mu.Lock()
	b.journal = append(b.journal, fmt.Sprintf(format, args...))
	b.mu.Unlock()
}

func (b *Backend) deliver(fn func()) {
	switch b.script.Delivery {
	case DeliverAsync:
		go fn()
	case DeliverPumped:
		b.mu.Lock()
		b.queued = append(b.queued, fn)
		b.mu.Unlock()
	case DeliverNever:
		b.mu.Lock()
		b.held = append(b.held, fn)
		b.mu.Unlock()
	default:
		fn()
	}
}

func (b *Backend) processEvents() {
	b.mu.Lock()
	queued := b.queued
	b.queued = nil
	b.mu.Unlock()
	for _, fn := range queued {
		fn()
	}
}

// Instance is the gputest connection.
type Instance struct {
	b        *Backend
	released sync.Once
}

// CreateSurface implements backend.Instance.
func (i *Instance) CreateSurface(desc *backend.SurfaceDescriptor) (backend.Surface, error) {
	if i.b.script.SurfaceErr != nil {
		return nil, i.b.script.SurfaceErr
	}
	s := &Surface{b: i.b, Source: desc.Source, Label: desc.Label}
	i.b.mu.Lock()
	i.b.surface = s
	i.b.mu.Unlock()
	return s, nil
}

// RequestAdapter implements backend.Instance.
func (i *Instance) RequestAdapter(opts *backend.RequestAdapterOptions, callback backend.RequestAdapterCallback) {
	b := i.b
	b.mu.Lock()
	b.adapterRequests++
	if opts != nil {
		o := *opts
		b.adapterOpts = &o
	}
	b.mu.Unlock()

	complete := func() {
		var a backend.Adapter
		if b.script.AdapterStatus == backend.RequestStatusSuccess && !b.script.NilAdapter {
			a = &Adapter{b: b}
		}
		callback(b.script.AdapterStatus, a, b.script.AdapterMessage)
	}
	b.deliver(complete)
	if b.script.CompleteTwice {
		b.deliver(complete)
	}
}

// ProcessEvents implements backend.Instance.
func (i *Instance) ProcessEvents() { i.b.processEvents() }

// Release implements backend.Instance.
func (i *Instance) Release() { i.b.releaseOnce(&i.released, "instance") }

func (b *Backend) releaseOnce(once *sync.Once, what string) {
	released := false
	once.Do(func() {
		released = true
		b.record("release %s", what)
	})
	if !released {
		b.record("double release %s", what)
	}
}

// Adapter is the gputest adapter.
type Adapter struct {
	b        *Backend
	released sync.Once
}

// EnumerateFeatures implements backend.Adapter.
func (a *Adapter) EnumerateFeatures(features []backend.FeatureName) int {
	return a.b.enumerate(a.b.script.AdapterFeatures, features)
}

func (b *Backend) enumerate(have, out []backend.FeatureName) int {
	if out == nil {
		return len(have)
	}
	n := copy(out, have) - b.script.FeatureShortfall
	if n < 0 {
		n = 0
	}
	return n
}

// GetLimits implements backend.Adapter.
func (a *Adapter) GetLimits(limits *backend.Limits) bool {
	if a.b.script.LimitsFail {
		return false
	}
	*limits = a.b.script.Limits
	return true
}

// GetProperties implements backend.Adapter.
func (a *Adapter) GetProperties(props *backend.AdapterProperties) {
	*props = a.b.script.Properties
}

// RequestDevice implements backend.Adapter.
func (a *Adapter) RequestDevice(desc *backend.DeviceDescriptor, callback backend.RequestDeviceCallback) {
	b := a.b
	b.mu.Lock()
	b.deviceRequests++
	if desc != nil {
		d := *desc
		b.deviceDesc = &d
	}
	b.mu.Unlock()

	complete := func() {
		var d backend.Device
		if b.script.DeviceStatus == backend.RequestStatusSuccess && !b.script.NilDevice {
			dev := &Device{b: b}
			if desc != nil {
				dev.lost = desc.DeviceLost
				dev.uncaptured = desc.UncapturedError
			}
			b.mu.Lock()
			b.device = dev
			b.mu.Unlock()
			d = dev
		}
		callback(b.script.DeviceStatus, d, b.script.DeviceMessage)
	}
	b.deliver(complete)
	if b.script.CompleteTwice {
		b.deliver(complete)
	}
}

// ProcessEvents implements backend.EventProcessor.
func (a *Adapter) ProcessEvents() { a.b.processEvents() }

// Release implements backend.Adapter.
func (a *Adapter) Release() { a.b.releaseOnce(&a.released, "adapter") }

// Device is the gputest device.
type Device struct {
	b          *Backend
	lost       backend.DeviceLostCallback
	uncaptured backend.UncapturedErrorCallback
	released   sync.Once

	mu    sync.Mutex
	queue *Queue
	polls int
}

// EnumerateFeatures implements backend.Device.
func (d *Device) EnumerateFeatures(features []backend.FeatureName) int {
	return d.b.enumerate(d.b.script.DeviceFeatures, features)
}

// GetLimits implements backend.Device.
func (d *Device) GetLimits(limits *backend.Limits) bool {
	if d.b.script.LimitsFail {
		return false
	}
	*limits = d.b.script.Limits
	return true
}

// GetQueue implements backend.Device.
func (d *Device) GetQueue() backend.Queue {
	if d.b.script.NilQueue {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.queue == nil {
		d.queue = &Queue{b: d.b}
	}
	return d.queue
}

// Poll implements backend.Device. It completes pending work-done callbacks.
func (d *Device) Poll(bool) {
	d.mu.Lock()
	d.polls++
	q := d.queue
	d.mu.Unlock()
	if q != nil {
		q.Complete(backend.WorkDoneStatusSuccess)
	}
}

// Polls reports how many times Poll was called.
func (d *Device) Polls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.polls
}

// Destroy implements backend.Device.
func (d *Device) Destroy() {
	d.b.record("destroy device")
	d.Lose(backend.DeviceLostReasonDestroyed, "device destroyed")
}

// Release implements backend.Device.
func (d *Device) Release() {
	d.b.releaseOnce(&d.released, "device")
	if d.b.script.LoseOnRelease {
		d.Lose(backend.DeviceLostReasonDestroyed, "device released")
	}
}

// Raw implements backend.RawProvider.
func (d *Device) Raw() any { return d }

// Lose invokes the registered device-lost callback.
func (d *Device) Lose(reason backend.DeviceLostReason, message string) {
	if d.lost != nil {
		d.lost(reason, message)
	}
}

// RaiseError invokes the registered uncaptured-error callback.
func (d *Device) RaiseError(kind backend.ErrorType, message string) {
	if d.uncaptured != nil {
		d.uncaptured(kind, message)
	}
}

// Queue is the gputest queue.
type Queue struct {
	b        *Backend
	released sync.Once

	mu      sync.Mutex
	pending []backend.WorkDoneCallback
}

// OnSubmittedWorkDone implements backend.Queue. Callbacks fire on the next
// Device.Poll or Complete.
func (q *Queue) OnSubmittedWorkDone(callback backend.WorkDoneCallback) {
	q.mu.Lock()
	q.pending = append(q.pending, callback)
	q.mu.Unlock()
}

// Complete fires all pending work-done callbacks with status.
func (q *Queue) Complete(status backend.WorkDoneStatus) {
	q.mu.Lock()
	pending := q.pending
	q.pending = nil
	q.mu.Unlock()
	for _, cb := range pending {
		cb(status)
	}
}

// Pending reports the number of registered, unfired work-done callbacks.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Release implements backend.Queue.
func (q *Queue) Release() { q.b.releaseOnce(&q.released, "queue") }

// Raw implements backend.RawProvider.
func (q *Queue) Raw() any { return q }

// Surface is the gputest surface.
type Surface struct {
	b        *Backend
	Source   backend.SurfaceSource
	Label    string
	released sync.Once

	mu         sync.Mutex
	configured *backend.SurfaceConfiguration
	configures int
}

// Configure implements backend.Surface.
func (s *Surface) Configure(config *backend.SurfaceConfiguration) error {
	if s.b.script.ConfigureErr != nil {
		return s.b.script.ConfigureErr
	}
	s.mu.Lock()
	c := *config
	s.configured = &c
	s.configures++
	s.mu.Unlock()
	s.b.record("configure surface %dx%d", config.Width, config.Height)
	return nil
}

// Configured returns the active configuration, or nil.
func (s *Surface) Configured() *backend.SurfaceConfiguration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.configured
}

// Configures reports how many times Configure succeeded.
func (s *Surface) Configures() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.configures
}

// Unconfigure implements backend.Surface.
func (s *Surface) Unconfigure() {
	s.mu.Lock()
	s.configured = nil
	s.mu.Unlock()
	s.b.record("unconfigure surface")
}

// Release implements backend.Surface.
func (s *Surface) Release() { s.b.releaseOnce(&s.released, "surface") }
