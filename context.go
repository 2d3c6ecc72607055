package gpuboot

import (
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/gpuboot/backend"
	"github.com/gogpu/gpuboot/window"
)

// Context bundles the window, device, queue and surface of a running
// Manager for the rendering layer.
//
// Context implements gpucontext.DeviceProvider, so it can be handed to any
// consumer of that interface. It also exposes HalDevice and HalQueue when
// the backend wraps HAL objects.
//
// Handles returned by a Context are valid until Close. Context does not
// serialize command recording on the device; callers that record from
// several goroutines coordinate themselves.
type Context struct {
	m *Manager
}

var _ gpucontext.DeviceProvider = (*Context)(nil)

// Window returns the window the surface is bound to.
func (c *Context) Window() window.Window { return c.m.win }

// GPUDevice returns the device, or nil after Close.
func (c *Context) GPUDevice() backend.Device {
	c.m.mu.Lock()
	defer c.m.mu.Unlock()
	return c.m.device
}

// GPUQueue returns the default queue, or nil after Close.
func (c *Context) GPUQueue() backend.Queue {
	c.m.mu.Lock()
	defer c.m.mu.Unlock()
	return c.m.queue
}

// Surface returns the surface, or nil after Close.
func (c *Context) Surface() backend.Surface {
	c.m.mu.Lock()
	defer c.m.mu.Unlock()
	return c.m.surface
}

// SurfaceConfig returns the configuration last applied to the surface.
func (c *Context) SurfaceConfig() SurfaceConfig {
	c.m.mu.Lock()
	defer c.m.mu.Unlock()
	return c.m.surfaceConfig
}

// Device implements gpucontext.DeviceProvider.
func (c *Context) Device() gpucontext.Device {
	if d := c.GPUDevice(); d != nil {
		return d
	}
	return nil
}

// Queue implements gpucontext.DeviceProvider.
func (c *Context) Queue() gpucontext.Queue {
	if q := c.GPUQueue(); q != nil {
		return q
	}
	return nil
}

// Adapter implements gpucontext.DeviceProvider. It always returns nil: the
// adapter is released once the device exists.
func (c *Context) Adapter() gpucontext.Adapter { return nil }

// AdapterInfo implements gpucontext.DeviceProvider. It describes the
// adapter the device was created from.
func (c *Context) AdapterInfo() gpucontext.AdapterInfo {
	c.m.mu.Lock()
	defer c.m.mu.Unlock()
	return c.m.adapterInfo
}

// SurfaceFormat implements gpucontext.DeviceProvider.
func (c *Context) SurfaceFormat() gputypes.TextureFormat {
	return c.SurfaceConfig().Format
}

// HalDevice returns the HAL device wrapped by the backend device, or nil.
func (c *Context) HalDevice() any { return rawOf(c.GPUDevice()) }

// HalQueue returns the HAL queue wrapped by the backend queue, or nil.
func (c *Context) HalQueue() any { return rawOf(c.GPUQueue()) }

func rawOf(v any) any {
	if rp, ok := v.(backend.RawProvider); ok {
		return rp.Raw()
	}
	return nil
}

// Configure reconfigures the surface. See Manager.ConfigureSurface.
func (c *Context) Configure(sc SurfaceConfig) error { return c.m.ConfigureSurface(sc) }

// Poll drives pending device work and delivers queued notifications.
// Notifications run on the calling goroutine and may call back into c.
func (c *Context) Poll(wait bool) error {
	c.m.mu.Lock()
	d, running := c.m.device, c.m.state == StateRunning
	c.m.mu.Unlock()
	if !running {
		return ErrNotRunning
	}
	d.Poll(wait)
	return nil
}

// NotifyWorkDone arms a work-done notification for the work submitted so
// far. Call it after each submitted batch to receive one WorkDoneEvent; an
// OnWorkDone handler may call it to re-arm.
func (c *Context) NotifyWorkDone() error {
	c.m.mu.Lock()
	q, running := c.m.queue, c.m.state == StateRunning
	c.m.mu.Unlock()
	if !running {
		return ErrNotRunning
	}
	q.OnSubmittedWorkDone(c.m.events.workDone)
	return nil
}

// OnDeviceLost subscribes fn to the device-lost notification, which fires
// at most once, possibly during or after Close. fn runs on a backend
// goroutine and must not block. If the device was already lost, fn runs
// before OnDeviceLost returns. The returned function unsubscribes.
func (c *Context) OnDeviceLost(fn func(DeviceLostEvent)) (cancel func()) {
	return c.m.events.subscribeLost(fn)
}

// OnUncapturedError subscribes fn to uncaptured device errors. fn runs on
// a backend goroutine and must not block.
func (c *Context) OnUncapturedError(fn func(UncapturedErrorEvent)) (cancel func()) {
	return c.m.events.onUncaptured.add(fn)
}

// OnWorkDone subscribes fn to queue work-done notifications.
func (c *Context) OnWorkDone(fn func(WorkDoneEvent)) (cancel func()) {
	return c.m.events.onWorkDone.add(fn)
}

// DeviceLost reports the device-lost event, if the device was lost.
func (c *Context) DeviceLost() (DeviceLostEvent, bool) {
	return c.m.events.lostEvent()
}

// Close releases the GPU context. See Manager.Close.
func (c *Context) Close() error { return c.m.Close() }
