//go:build !nogpu

package native

import (
	"fmt"
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gpuboot/backend"
)

// Adapter wraps one adapter exposed by the HAL.
type Adapter struct {
	shared      *sharedInstance
	exposed     hal.ExposedAdapter
	backendType backend.BackendType
	released    atomic.Bool
}

// EnumerateFeatures implements backend.Adapter.
func (a *Adapter) EnumerateFeatures(features []backend.FeatureName) int {
	names := featureNames(uint64(a.exposed.Features))
	if features == nil {
		return len(names)
	}
	return copy(features, names)
}

// GetLimits implements backend.Adapter.
func (a *Adapter) GetLimits(limits *backend.Limits) bool {
	if limits == nil || a.released.Load() {
		return false
	}
	*limits = a.exposed.Capabilities.Limits
	return true
}

// GetProperties implements backend.Adapter.
func (a *Adapter) GetProperties(props *backend.AdapterProperties) {
	if props == nil {
		return
	}
	*props = adapterProperties(&a.exposed, a.backendType)
}

// RequestDevice implements backend.Adapter. The device is opened on a
// separate goroutine and the callback runs there.
func (a *Adapter) RequestDevice(desc *backend.DeviceDescriptor, callback backend.RequestDeviceCallback) {
	if a.released.Load() {
		callback(backend.RequestStatusInstanceDropped, nil, "adapter released")
		return
	}
	if desc == nil {
		desc = &backend.DeviceDescriptor{}
	}

	supported := uint64(a.exposed.Features)
	required := featureMask(desc.RequiredFeatures)
	if missing := required &^ supported; missing != 0 {
		callback(backend.RequestStatusError, nil,
			fmt.Sprintf("adapter %q lacks required features %v", a.exposed.Info.Name, featureNames(missing)))
		return
	}
	limits := gputypes.DefaultLimits()
	if desc.RequiredLimits != nil {
		limits = *desc.RequiredLimits
	}

	a.shared.acquire()
	go func() {
		opened, err := a.exposed.Adapter.Open(gputypes.Features(required), limits)
		if err != nil {
			a.shared.release()
			callback(backend.RequestStatusError, nil, err.Error())
			return
		}
		slogger().Info("native: device opened", "adapter", a.exposed.Info.Name, "label", desc.Label)
		dev := newDevice(a.shared, opened.Device, opened.Queue, desc, featureNames(required), limits)
		callback(backend.RequestStatusSuccess, dev, "")
	}()
}

// Release implements backend.Adapter. Devices opened from the adapter stay valid.
func (a *Adapter) Release() {
	if a.released.CompareAndSwap(false, true) {
		a.shared.release()
	}
}
