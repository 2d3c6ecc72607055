package backend

import (
	"errors"

	"github.com/gogpu/gputypes"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is not available.
	ErrBackendNotAvailable = errors.New("backend: not available")

	// ErrReleased is returned when an operation is attempted on a released object.
	ErrReleased = errors.New("backend: object already released")
)

// Limits mirrors the WebGPU supported-limits structure.
type Limits = gputypes.Limits

// Traits describes how a backend delivers asynchronous completions.
type Traits struct {
	// PumpWhileWaiting reports that request callbacks are only delivered
	// while the caller drives Instance.ProcessEvents. Browser-hosted
	// implementations behave this way; native ones deliver on their own.
	PumpWhileWaiting bool
}

// Backend is a GPU API implementation that can open connections.
//
// Backends must be registered via Register() and are selected via
// Get() or Default().
type Backend interface {
	// Name returns the backend identifier (e.g., "native", "noop").
	Name() string

	// Traits reports the delivery model of the backend.
	Traits() Traits

	// CreateInstance opens a connection to the backend.
	// A nil instance without an error is treated as unavailable by callers.
	CreateInstance(desc *InstanceDescriptor) (Instance, error)
}

// Instance is the top-level connection to a backend. It produces adapters and
// surfaces. Releasing the instance does not invalidate adapters obtained from it.
type Instance interface {
	// CreateSurface creates a surface for the native window described by desc.
	CreateSurface(desc *SurfaceDescriptor) (Surface, error)

	// RequestAdapter starts an adapter request. The callback is invoked
	// exactly once, either before RequestAdapter returns or later from
	// another goroutine.
	RequestAdapter(opts *RequestAdapterOptions, callback RequestAdapterCallback)

	// ProcessEvents delivers pending callbacks on backends that need pumping.
	ProcessEvents()

	// Release drops the caller's reference to the instance.
	Release()
}

// Adapter represents one physical or logical GPU.
type Adapter interface {
	// EnumerateFeatures implements the two-call enumeration protocol:
	// with a nil slice it returns the feature count, otherwise it fills
	// features and returns the number of entries written.
	EnumerateFeatures(features []FeatureName) int

	// GetLimits fills limits and reports whether the query succeeded.
	GetLimits(limits *Limits) bool

	// GetProperties fills the descriptive adapter properties.
	GetProperties(props *AdapterProperties)

	// RequestDevice starts a device request. The callback is invoked exactly once.
	RequestDevice(desc *DeviceDescriptor, callback RequestDeviceCallback)

	// Release drops the caller's reference to the adapter.
	Release()
}

// Device is the logical context of GPU use.
type Device interface {
	// EnumerateFeatures follows the same protocol as Adapter.EnumerateFeatures.
	EnumerateFeatures(features []FeatureName) int

	// GetLimits fills limits and reports whether the query succeeded.
	GetLimits(limits *Limits) bool

	// GetQueue returns the default queue, or nil if it is unavailable.
	GetQueue() Queue

	// Poll drives pending device work and callbacks.
	// When wait is true it blocks until submitted work completes.
	Poll(wait bool)

	// Destroy eagerly destroys the device. The device-lost callback fires
	// with DeviceLostReasonDestroyed.
	Destroy()

	// Release drops the caller's reference to the device.
	Release()
}

// Queue is the command-submission endpoint of a Device.
type Queue interface {
	// OnSubmittedWorkDone registers a callback that fires once when all
	// work submitted so far has completed.
	OnSubmittedWorkDone(callback WorkDoneCallback)

	// Release drops the caller's reference to the queue.
	Release()
}

// Surface binds a native window to the backend.
type Surface interface {
	// Configure (re)configures the surface against a device.
	Configure(config *SurfaceConfiguration) error

	// Unconfigure drops the current configuration, if any.
	Unconfigure()

	// Release drops the caller's reference to the surface.
	Release()
}

// EventProcessor is implemented by adapters and devices of pumped backends.
// It delivers pending callbacks once the instance handle has been released.
type EventProcessor interface {
	ProcessEvents()
}

// RawProvider is implemented by objects that wrap a lower-level handle,
// such as a hal.Device. Raw returns nil when the handle is gone.
type RawProvider interface {
	Raw() any
}

// RequestAdapterCallback receives the result of Instance.RequestAdapter.
type RequestAdapterCallback func(status RequestStatus, adapter Adapter, message string)

// RequestDeviceCallback receives the result of Adapter.RequestDevice.
type RequestDeviceCallback func(status RequestStatus, device Device, message string)

// DeviceLostCallback is invoked at most once when the device is lost.
// It receives no device handle: the device may already be released.
type DeviceLostCallback func(reason DeviceLostReason, message string)

// UncapturedErrorCallback is invoked for every error not caught by an
// error scope.
type UncapturedErrorCallback func(kind ErrorType, message string)

// WorkDoneCallback is invoked once per OnSubmittedWorkDone registration.
type WorkDoneCallback func(status WorkDoneStatus)

// InstanceDescriptor configures instance creation.
type InstanceDescriptor struct {
	// ImmediateErrors asks the backend to report uncaptured errors as soon
	// as they happen instead of on the next device tick.
	ImmediateErrors bool
}

// RequestAdapterOptions selects an adapter.
type RequestAdapterOptions struct {
	// CompatibleSurface, if set, restricts selection to adapters that can
	// present to the surface.
	CompatibleSurface Surface

	// PowerPreference hints which adapter class to prefer.
	PowerPreference PowerPreference

	// ForceFallbackAdapter requests a software adapter.
	ForceFallbackAdapter bool
}

// QueueDescriptor describes the default queue of a device.
type QueueDescriptor struct {
	Label string
}

// DeviceDescriptor describes a device request.
type DeviceDescriptor struct {
	// Label is used in error messages and debugging.
	Label string

	// RequiredFeatures lists optional features the device must support.
	RequiredFeatures []FeatureName

	// RequiredLimits overrides implementation defaults when non-nil.
	RequiredLimits *Limits

	// DefaultQueue describes the implicitly created queue.
	DefaultQueue QueueDescriptor

	// DeviceLost is registered at creation and fires at most once.
	DeviceLost DeviceLostCallback

	// UncapturedError is registered at creation and may fire many times.
	UncapturedError UncapturedErrorCallback
}

// SurfaceDescriptor describes a surface to create from a native window.
type SurfaceDescriptor struct {
	Label  string
	Source SurfaceSource
}

// SurfaceConfiguration describes how a surface presents for a device.
type SurfaceConfiguration struct {
	Device      Device
	Format      gputypes.TextureFormat
	Usage       gputypes.TextureUsage
	Width       uint32
	Height      uint32
	PresentMode PresentMode
}

// AdapterProperties describes an adapter. Only adapters expose properties.
type AdapterProperties struct {
	VendorID          uint32
	DeviceID          uint32
	VendorName        string
	Architecture      string
	Name              string
	DriverDescription string
	AdapterType       AdapterType
	BackendType       BackendType
}
