package gpuboot

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/gogpu/gpucontext"
	"github.com/google/uuid"

	"github.com/gogpu/gpuboot/backend"
	"github.com/gogpu/gpuboot/window"
)

// Manager owns the chain of GPU objects for one window: connection,
// adapter, device, queue and surface. It acquires them in order during Init
// and releases whatever it still holds, in reverse order, on Close.
//
// A Manager is single-use. Notifications from the backend may arrive on
// other goroutines at any time; they never touch the GPU objects.
type Manager struct {
	backend backend.Backend
	win     window.Window
	cfg     config
	session string
	metrics *metrics
	events  *notifier

	detachLogger func()

	mu                sync.Mutex
	state             State
	instance          backend.Instance
	surface           backend.Surface
	surfaceConfigured bool
	surfaceConfig     SurfaceConfig
	adapter           backend.Adapter
	adapterInfo       gpucontext.AdapterInfo
	device            backend.Device
	queue             backend.Queue
	adapterReport     *Report
	deviceReport      *Report
	gpuCtx            *Context
}

// New creates a Manager that will bind win to a GPU context from b.
// Nothing is acquired until Init.
func New(b backend.Backend, win window.Window, opts ...Option) *Manager {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	session := uuid.NewString()
	m := &Manager{
		backend:      b,
		win:          win,
		cfg:          cfg,
		session:      session,
		metrics:      newMetrics(cfg.registerer, session),
		detachLogger: attachLogger(b),
	}
	m.events = newNotifier(m.logger, m.metrics)
	m.metrics.setState(StateUninitialized)
	return m
}

// logger returns the package logger tagged with the session id. It is
// resolved on every call so SetLogger reaches live Managers.
func (m *Manager) logger() *slog.Logger {
	return Logger().With("session", m.session)
}

// Session returns the id attached to this Manager's logs and metrics.
func (m *Manager) Session() string { return m.session }

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// AdapterReport returns the adapter report collected during Init when
// inspection is enabled.
func (m *Manager) AdapterReport() *Report {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.adapterReport
}

// DeviceReport returns the device report collected during Init when
// inspection is enabled.
func (m *Manager) DeviceReport() *Report {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deviceReport
}

// Init acquires the GPU context. Each step runs once; the first failure
// releases everything acquired so far, leaves the Manager Closed and is
// returned as an *InitError naming the step.
//
// ctx bounds the adapter and device requests only.
func (m *Manager) Init(ctx context.Context) (*Context, error) {
	m.mu.Lock()
	if m.state != StateUninitialized {
		m.mu.Unlock()
		return nil, ErrAlreadyInitialized
	}

	if err := m.acquire(ctx); err != nil {
		h := m.detachLocked()
		m.mu.Unlock()
		m.finishTeardown(h)
		return nil, err
	}

	m.setStateLocked(StateRunning)
	m.gpuCtx = &Context{m: m}
	m.logger().Info("gpuboot: context running",
		"backend", m.backend.Name(),
		"width", m.surfaceConfig.Width,
		"height", m.surfaceConfig.Height,
		"format", m.surfaceConfig.Format)
	gctx := m.gpuCtx
	m.mu.Unlock()
	return gctx, nil
}

func (m *Manager) acquire(ctx context.Context) error {
	if err := m.step(StateConnectionOpen, m.openConnection); err != nil {
		return err
	}
	if err := m.step(StateSurfaceBound, m.bindSurface); err != nil {
		return err
	}
	if err := m.step(StateAdapterSelected, func() error { return m.selectAdapter(ctx) }); err != nil {
		return err
	}
	if err := m.step(StateDeviceAcquired, func() error { return m.acquireDevice(ctx) }); err != nil {
		return err
	}
	if err := m.step(StateQueueReady, m.readyQueue); err != nil {
		return err
	}
	return m.step(StateSurfaceConfigured, func() error {
		return m.configureLocked(m.cfg.surface, m.cfg.sizeFromWindow)
	})
}

// step runs one acquisition step and moves to target on success.
func (m *Manager) step(target State, fn func() error) error {
	start := time.Now()
	err := fn()
	m.metrics.stepDuration.WithLabelValues(target.String()).Observe(time.Since(start).Seconds())
	if err != nil {
		ie := &InitError{Step: target, Err: err}
		m.logger().Error("gpuboot: acquisition failed", "step", target, "err", err)
		return ie
	}
	m.setStateLocked(target)
	return nil
}

func (m *Manager) setStateLocked(s State) {
	m.logger().Debug("gpuboot: state", "from", m.state, "to", s)
	m.state = s
	m.metrics.setState(s)
}

func (m *Manager) waitOptions(pump func()) WaitOptions {
	pumping := m.backend.Traits().PumpWhileWaiting
	if m.cfg.pump != nil {
		pumping = *m.cfg.pump
	}
	return WaitOptions{PumpWhileWaiting: pumping, Pump: pump}
}

func (m *Manager) openConnection() error {
	inst, err := m.backend.CreateInstance(&backend.InstanceDescriptor{
		ImmediateErrors: m.cfg.immediateErrors,
	})
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrConnectionUnavailable, m.backend.Name(), err)
	}
	if inst == nil {
		return fmt.Errorf("%w: %s returned no instance", ErrConnectionUnavailable, m.backend.Name())
	}
	m.instance = inst
	return nil
}

func (m *Manager) bindSurface() error {
	s, err := BindSurface(m.instance, m.win)
	if err != nil {
		return err
	}
	m.surface = s
	return nil
}

func (m *Manager) selectAdapter(ctx context.Context) error {
	a, err := requestAdapter(ctx, m.instance, &backend.RequestAdapterOptions{
		CompatibleSurface: m.surface,
		PowerPreference:   m.cfg.powerPreference,
	}, m.waitOptions(m.instance.ProcessEvents))

	// The connection is not needed past the adapter request; a selected
	// adapter keeps the backend alive on its own.
	m.instance.Release()
	m.instance = nil

	if err != nil {
		return err
	}
	m.adapter = a

	var props backend.AdapterProperties
	a.GetProperties(&props)
	m.adapterInfo = gpucontext.AdapterInfo{Name: props.Name, Type: contextAdapterType(props.AdapterType)}
	m.logger().Info("gpuboot: adapter selected",
		"name", props.Name,
		"type", props.AdapterType,
		"backend", props.BackendType)

	if m.cfg.inspect {
		m.adapterReport = DescribeAdapter(a)
		m.logger().Info("gpuboot: adapter capabilities", "report", m.adapterReport)
	}
	return nil
}

func (m *Manager) acquireDevice(ctx context.Context) error {
	desc := &backend.DeviceDescriptor{
		Label:            m.cfg.label,
		RequiredFeatures: m.cfg.requiredFeatures,
		RequiredLimits:   m.cfg.requiredLimits,
		DefaultQueue:     backend.QueueDescriptor{Label: m.cfg.queueLabel},
		DeviceLost:       m.events.deviceLost,
		UncapturedError:  m.events.uncapturedError,
	}
	d, err := requestDevice(ctx, m.adapter, desc, m.waitOptions(eventPump(m.adapter)))
	if err != nil {
		return err
	}
	m.device = d

	m.adapter.Release()
	m.adapter = nil

	if m.cfg.inspect {
		m.deviceReport = DescribeDevice(d)
		m.logger().Info("gpuboot: device capabilities", "report", m.deviceReport)
	}
	m.logger().Info("gpuboot: device acquired", "label", m.cfg.label)
	return nil
}

func (m *Manager) readyQueue() error {
	q := m.device.GetQueue()
	if q == nil {
		return ErrQueueUnavailable
	}
	m.queue = q
	q.OnSubmittedWorkDone(m.events.workDone)
	return nil
}

// configureLocked applies sc to the surface. With sizeFromWindow, a window
// reporting a positive size overrides the configured dimensions.
func (m *Manager) configureLocked(sc SurfaceConfig, sizeFromWindow bool) error {
	if sizeFromWindow && m.win != nil {
		if w, h := m.win.Size(); w > 0 && h > 0 {
			sc.Width, sc.Height = uint32(w), uint32(h)
		}
	}
	if sc.Width == 0 || sc.Height == 0 {
		return fmt.Errorf("%w: empty size %dx%d", ErrSurfaceConfigureFailed, sc.Width, sc.Height)
	}

	err := m.surface.Configure(&backend.SurfaceConfiguration{
		Device:      m.device,
		Format:      sc.Format,
		Usage:       sc.Usage,
		Width:       sc.Width,
		Height:      sc.Height,
		PresentMode: sc.PresentMode,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSurfaceConfigureFailed, err)
	}
	m.surfaceConfigured = true
	m.surfaceConfig = sc
	m.logger().Debug("gpuboot: surface configured",
		"width", sc.Width,
		"height", sc.Height,
		"present_mode", sc.PresentMode)
	return nil
}

// ConfigureSurface reconfigures the surface of a running context, for
// example after a resize. Zero Width or Height are taken from the window.
func (m *Manager) ConfigureSurface(sc SurfaceConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateRunning {
		return ErrNotRunning
	}
	return m.configureLocked(sc, sc.Width == 0 || sc.Height == 0)
}

// Close releases every GPU object the Manager still holds: the queue, then
// the device, then the surface, then a connection or adapter left over from
// a failed Init. Close is idempotent; a Close issued while another one is
// releasing returns at once.
//
// Objects are released without holding the Manager's lock, so device-lost
// handlers fired by the release may call back into the Context.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.state == StateTearingDown || m.state == StateClosed {
		m.mu.Unlock()
		return nil
	}
	h := m.detachLocked()
	m.mu.Unlock()
	m.finishTeardown(h)
	return nil
}

// held is the set of GPU objects taken from a Manager for release.
type held struct {
	queue             backend.Queue
	surface           backend.Surface
	surfaceConfigured bool
	device            backend.Device
	adapter           backend.Adapter
	instance          backend.Instance
}

// detachLocked publishes StateTearingDown and moves every handle out of m.
// From here on Context accessors report nil and Poll reports ErrNotRunning.
func (m *Manager) detachLocked() held {
	m.setStateLocked(StateTearingDown)
	m.events.tearingDown.Store(true)

	h := held{
		queue:             m.queue,
		surface:           m.surface,
		surfaceConfigured: m.surfaceConfigured,
		device:            m.device,
		adapter:           m.adapter,
		instance:          m.instance,
	}
	m.queue, m.surface, m.device, m.adapter, m.instance = nil, nil, nil, nil, nil
	m.surfaceConfigured = false
	return h
}

// finishTeardown releases h, closes the window and moves m to StateClosed.
// It must be called without m.mu held.
func (m *Manager) finishTeardown(h held) {
	log := m.logger()
	h.release(log)
	if c, ok := m.win.(io.Closer); ok {
		if err := c.Close(); err != nil {
			log.Warn("gpuboot: closing window", "err", err)
		}
	}

	m.mu.Lock()
	m.setStateLocked(StateClosed)
	m.mu.Unlock()
	m.detachLogger()
}

func (h held) release(log *slog.Logger) {
	if h.queue != nil {
		h.queue.Release()
		log.Debug("gpuboot: released queue")
	}
	// The configuration references the device and must go first.
	if h.surface != nil && h.surfaceConfigured {
		h.surface.Unconfigure()
	}
	if h.device != nil {
		h.device.Release()
		log.Debug("gpuboot: released device")
	}
	if h.surface != nil {
		h.surface.Release()
		log.Debug("gpuboot: released surface")
	}
	if h.adapter != nil {
		h.adapter.Release()
		log.Debug("gpuboot: released adapter")
	}
	if h.instance != nil {
		h.instance.Release()
		log.Debug("gpuboot: released connection")
	}
}

// contextAdapterType maps an adapter type onto the coarser classification
// of gpucontext.
func contextAdapterType(t backend.AdapterType) gpucontext.AdapterType {
	switch t {
	case backend.AdapterTypeDiscreteGPU:
		return gpucontext.AdapterTypeDiscrete
	case backend.AdapterTypeIntegratedGPU:
		return gpucontext.AdapterTypeIntegrated
	case backend.AdapterTypeCPU:
		return gpucontext.AdapterTypeSoftware
	default:
		return gpucontext.AdapterTypeUnknown
	}
}

// eventPump returns the event-processing hook of v, if it has one.
func eventPump(v any) func() {
	if ep, ok := v.(backend.EventProcessor); ok {
		return ep.ProcessEvents
	}
	return nil
}

// requestAdapter bridges Instance.RequestAdapter.
func requestAdapter(ctx context.Context, inst backend.Instance, opts *backend.RequestAdapterOptions, wait WaitOptions) (backend.Adapter, error) {
	a, err := Await(ctx, func(complete Completion[backend.Adapter]) {
		inst.RequestAdapter(opts, backend.RequestAdapterCallback(complete))
	}, wait)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAdapterRequestFailed, err)
	}
	return a, nil
}

// requestDevice bridges Adapter.RequestDevice.
func requestDevice(ctx context.Context, a backend.Adapter, desc *backend.DeviceDescriptor, wait WaitOptions) (backend.Device, error) {
	d, err := Await(ctx, func(complete Completion[backend.Device]) {
		a.RequestDevice(desc, backend.RequestDeviceCallback(complete))
	}, wait)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDeviceRequestFailed, err)
	}
	return d, nil
}
