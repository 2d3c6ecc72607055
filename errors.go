package gpuboot

import (
	"errors"
	"fmt"

	"github.com/gogpu/gpuboot/backend"
)

// Acquisition and notification errors. Use errors.Is to classify an error
// returned by Manager.Init or carried by an event.
var (
	// ErrConnectionUnavailable is returned when the backend yields no connection.
	ErrConnectionUnavailable = errors.New("gpuboot: connection unavailable")

	// ErrSurfaceBindingFailed is returned when the window cannot be bound to a
	// surface: unsupported windowing system or a missing native handle.
	ErrSurfaceBindingFailed = errors.New("gpuboot: surface binding failed")

	// ErrAdapterRequestFailed is returned when the backend reports a failed
	// adapter request.
	ErrAdapterRequestFailed = errors.New("gpuboot: adapter request failed")

	// ErrDeviceRequestFailed is returned when the backend reports a failed
	// device request.
	ErrDeviceRequestFailed = errors.New("gpuboot: device request failed")

	// ErrQueueUnavailable is returned when the device has no default queue.
	ErrQueueUnavailable = errors.New("gpuboot: queue unavailable")

	// ErrSurfaceConfigureFailed is returned when the surface rejects a configuration.
	ErrSurfaceConfigureFailed = errors.New("gpuboot: surface configuration failed")

	// ErrFeatureQueryAllocationFailed is recorded in a Report when the feature
	// buffer could not be filled. It is never fatal.
	ErrFeatureQueryAllocationFailed = errors.New("gpuboot: feature query allocation failed")

	// ErrDeviceLost is wrapped by DeviceLostEvent.Err.
	ErrDeviceLost = errors.New("gpuboot: device lost")

	// ErrUncapturedDeviceError is wrapped by UncapturedErrorEvent.Err.
	ErrUncapturedDeviceError = errors.New("gpuboot: uncaptured device error")

	// ErrRequestAbandoned is returned when the caller's context ends before
	// the backend completes a request.
	ErrRequestAbandoned = errors.New("gpuboot: request abandoned before completion")

	// ErrAlreadyInitialized is returned by Init on a manager that left the
	// Uninitialized state.
	ErrAlreadyInitialized = errors.New("gpuboot: manager already initialized")

	// ErrNotRunning is returned by operations that need a running context.
	ErrNotRunning = errors.New("gpuboot: context not running")

	// ErrUnsupportedWindowSystem is wrapped by ErrSurfaceBindingFailed when the
	// window reports a system without a surface variant.
	ErrUnsupportedWindowSystem = errors.New("gpuboot: unsupported window system")

	// ErrMissingNativeHandle is wrapped by ErrSurfaceBindingFailed when a
	// required native handle is zero.
	ErrMissingNativeHandle = errors.New("gpuboot: missing native handle")
)

// RequestFailure is the failure delivered by a backend request callback.
type RequestFailure struct {
	// Reason is the status reported by the backend.
	Reason backend.RequestStatus
	// Message is the backend-supplied diagnostic, possibly empty.
	Message string
}

func (f *RequestFailure) Error() string {
	if f.Message == "" {
		return fmt.Sprintf("request ended with status %s", f.Reason)
	}
	return fmt.Sprintf("request ended with status %s: %s", f.Reason, f.Message)
}

// InitError reports which acquisition step failed.
type InitError struct {
	// Step is the state the manager was trying to reach.
	Step State
	// Err wraps one of the acquisition sentinels.
	Err error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("gpuboot: %s: %v", e.Step, e.Err)
}

func (e *InitError) Unwrap() error { return e.Err }

// Message returns the backend-supplied message of the failure, if the
// backend gave one.
func (e *InitError) Message() string {
	var rf *RequestFailure
	if errors.As(e.Err, &rf) {
		return rf.Message
	}
	return ""
}
