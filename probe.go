package gpuboot

import (
	"context"
	"fmt"

	"github.com/gogpu/gpuboot/backend"
)

// ProbeResult holds the capability reports gathered by Probe.
type ProbeResult struct {
	Backend string
	Adapter *Report
	Device  *Report
}

// Probe acquires an adapter and a device from b without a window, reports
// their capabilities and releases everything before returning.
//
// Surface, inspection and metrics options are ignored.
func Probe(ctx context.Context, b backend.Backend, opts ...Option) (*ProbeResult, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	defer attachLogger(b)()

	wait := func(pump func()) WaitOptions {
		pumping := b.Traits().PumpWhileWaiting
		if cfg.pump != nil {
			pumping = *cfg.pump
		}
		return WaitOptions{PumpWhileWaiting: pumping, Pump: pump}
	}

	inst, err := b.CreateInstance(&backend.InstanceDescriptor{ImmediateErrors: cfg.immediateErrors})
	if err != nil {
		return nil, &InitError{Step: StateConnectionOpen, Err: fmt.Errorf("%w: %s: %w", ErrConnectionUnavailable, b.Name(), err)}
	}
	if inst == nil {
		return nil, &InitError{Step: StateConnectionOpen, Err: fmt.Errorf("%w: %s returned no instance", ErrConnectionUnavailable, b.Name())}
	}

	adapter, err := requestAdapter(ctx, inst, &backend.RequestAdapterOptions{
		PowerPreference: cfg.powerPreference,
	}, wait(inst.ProcessEvents))
	inst.Release()
	if err != nil {
		return nil, &InitError{Step: StateAdapterSelected, Err: err}
	}

	res := &ProbeResult{Backend: b.Name(), Adapter: DescribeAdapter(adapter)}

	device, err := requestDevice(ctx, adapter, &backend.DeviceDescriptor{
		Label:            cfg.label,
		RequiredFeatures: cfg.requiredFeatures,
		RequiredLimits:   cfg.requiredLimits,
		DefaultQueue:     backend.QueueDescriptor{Label: cfg.queueLabel},
		DeviceLost: func(reason backend.DeviceLostReason, message string) {
			Logger().Debug("gpuboot: probe device lost", "reason", reason, "message", message)
		},
		UncapturedError: func(kind backend.ErrorType, message string) {
			Logger().Warn("gpuboot: probe uncaptured error", "kind", kind, "message", message)
		},
	}, wait(eventPump(adapter)))
	adapter.Release()
	if err != nil {
		return res, &InitError{Step: StateDeviceAcquired, Err: err}
	}

	res.Device = DescribeDevice(device)
	device.Release()
	return res, nil
}
