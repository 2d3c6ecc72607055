//go:build !nogpu

package native

import (
	"fmt"
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gpuboot/backend"
)

// Instance is a connection to a HAL instance.
type Instance struct {
	shared      *sharedInstance
	backendType backend.BackendType
	released    atomic.Bool
}

// CreateSurface implements backend.Instance.
func (i *Instance) CreateSurface(desc *backend.SurfaceDescriptor) (backend.Surface, error) {
	if i.released.Load() {
		return nil, backend.ErrReleased
	}
	display, win, err := nativeHandles(desc.Source)
	if err != nil {
		return nil, err
	}
	raw, err := i.shared.raw.CreateSurface(display, win)
	if err != nil {
		return nil, fmt.Errorf("native: create surface: %w", err)
	}
	i.shared.acquire()
	slogger().Debug("native: surface created", "source", desc.Source.Kind(), "label", desc.Label)
	return &Surface{shared: i.shared, raw: raw}, nil
}

// nativeHandles maps a surface source to the display and window handles
// the HAL expects.
func nativeHandles(src backend.SurfaceSource) (display, win uintptr, err error) {
	switch s := src.(type) {
	case backend.SurfaceSourceWindowsHWND:
		return s.HInstance, s.HWND, nil
	case backend.SurfaceSourceMetalLayer:
		return 0, s.Layer, nil
	case backend.SurfaceSourceWaylandSurface:
		return s.Display, s.Surface, nil
	case backend.SurfaceSourceXlibWindow:
		return s.Display, uintptr(s.Window), nil
	}
	return 0, 0, fmt.Errorf("%w: %T", ErrUnsupportedSource, src)
}

// RequestAdapter implements backend.Instance. Adapters are enumerated on a
// separate goroutine and the callback runs there.
func (i *Instance) RequestAdapter(opts *backend.RequestAdapterOptions, callback backend.RequestAdapterCallback) {
	if i.released.Load() {
		callback(backend.RequestStatusInstanceDropped, nil, "instance released")
		return
	}
	if opts == nil {
		opts = &backend.RequestAdapterOptions{}
	}

	var hint hal.Surface
	if s, ok := opts.CompatibleSurface.(*Surface); ok && s != nil {
		hint = s.raw
	}

	i.shared.acquire()
	go func() {
		defer i.shared.release()

		adapters := i.shared.raw.EnumerateAdapters(hint)
		if len(adapters) == 0 {
			callback(backend.RequestStatusUnavailable, nil, ErrNoAdapters.Error())
			return
		}
		selected := selectAdapter(adapters, opts)
		slogger().Info("native: adapter selected", "name", selected.Info.Name, "candidates", len(adapters))

		i.shared.acquire()
		callback(backend.RequestStatusSuccess, &Adapter{
			shared:      i.shared,
			exposed:     *selected,
			backendType: i.backendType,
		}, "")
	}()
}

// selectAdapter picks the adapter matching the power preference, falling
// back to the first hardware adapter and then to the first one listed.
func selectAdapter(adapters []hal.ExposedAdapter, opts *backend.RequestAdapterOptions) *hal.ExposedAdapter {
	isHardware := func(t gputypes.DeviceType) bool {
		return t == gputypes.DeviceTypeDiscreteGPU || t == gputypes.DeviceTypeIntegratedGPU
	}

	var want func(gputypes.DeviceType) bool
	switch {
	case opts.ForceFallbackAdapter:
		want = func(t gputypes.DeviceType) bool { return !isHardware(t) }
	case opts.PowerPreference == backend.PowerPreferenceHighPerformance:
		want = func(t gputypes.DeviceType) bool { return t == gputypes.DeviceTypeDiscreteGPU }
	case opts.PowerPreference == backend.PowerPreferenceLowPower:
		want = func(t gputypes.DeviceType) bool { return t == gputypes.DeviceTypeIntegratedGPU }
	}
	if want != nil {
		for k := range adapters {
			if want(adapters[k].Info.DeviceType) {
				return &adapters[k]
			}
		}
	}
	for k := range adapters {
		if isHardware(adapters[k].Info.DeviceType) {
			return &adapters[k]
		}
	}
	return &adapters[0]
}

// ProcessEvents implements backend.Instance. Native requests need no pumping.
func (i *Instance) ProcessEvents() {}

// Release implements backend.Instance. The HAL instance stays alive until
// every adapter, device and surface obtained from it is released.
func (i *Instance) Release() {
	if i.released.CompareAndSwap(false, true) {
		i.shared.release()
	}
}
