package backend

import "fmt"

// RequestStatus reports how an adapter or device request ended.
type RequestStatus uint8

// Request statuses.
const (
	RequestStatusSuccess RequestStatus = iota
	RequestStatusInstanceDropped
	RequestStatusUnavailable
	RequestStatusError
	RequestStatusUnknown
)

func (s RequestStatus) String() string {
	switch s {
	case RequestStatusSuccess:
		return "Success"
	case RequestStatusInstanceDropped:
		return "InstanceDropped"
	case RequestStatusUnavailable:
		return "Unavailable"
	case RequestStatusError:
		return "Error"
	default:
		return "Unknown"
	}
}

// DeviceLostReason explains why a device was lost.
type DeviceLostReason uint8

// Device lost reasons.
const (
	DeviceLostReasonUnknown DeviceLostReason = iota
	DeviceLostReasonDestroyed
	DeviceLostReasonInstanceDropped
	DeviceLostReasonFailedCreation
)

func (r DeviceLostReason) String() string {
	switch r {
	case DeviceLostReasonDestroyed:
		return "Destroyed"
	case DeviceLostReasonInstanceDropped:
		return "InstanceDropped"
	case DeviceLostReasonFailedCreation:
		return "FailedCreation"
	default:
		return "Unknown"
	}
}

// ErrorType classifies uncaptured device errors.
type ErrorType uint8

// Error types.
const (
	ErrorTypeUnknown ErrorType = iota
	ErrorTypeValidation
	ErrorTypeOutOfMemory
	ErrorTypeInternal
)

func (t ErrorType) String() string {
	switch t {
	case ErrorTypeValidation:
		return "Validation"
	case ErrorTypeOutOfMemory:
		return "OutOfMemory"
	case ErrorTypeInternal:
		return "Internal"
	default:
		return "Unknown"
	}
}

// WorkDoneStatus reports the outcome of submitted queue work.
type WorkDoneStatus uint8

// Work done statuses.
const (
	WorkDoneStatusSuccess WorkDoneStatus = iota
	WorkDoneStatusInstanceDropped
	WorkDoneStatusError
	WorkDoneStatusUnknown
)

func (s WorkDoneStatus) String() string {
	switch s {
	case WorkDoneStatusSuccess:
		return "Success"
	case WorkDoneStatusInstanceDropped:
		return "InstanceDropped"
	case WorkDoneStatusError:
		return "Error"
	default:
		return "Unknown"
	}
}

// FeatureName is an opaque, backend-defined feature code.
type FeatureName uint32

func (f FeatureName) String() string {
	return fmt.Sprintf("0x%x", uint32(f))
}

// PowerPreference hints which adapter class to select.
type PowerPreference uint8

// Power preferences.
const (
	PowerPreferenceUndefined PowerPreference = iota
	PowerPreferenceLowPower
	PowerPreferenceHighPerformance
)

func (p PowerPreference) String() string {
	switch p {
	case PowerPreferenceLowPower:
		return "LowPower"
	case PowerPreferenceHighPerformance:
		return "HighPerformance"
	default:
		return "Undefined"
	}
}

// PresentMode selects how frames are queued for presentation.
// The zero value is FIFO, which every backend supports.
type PresentMode uint8

// Present modes.
const (
	PresentModeFifo PresentMode = iota
	PresentModeFifoRelaxed
	PresentModeImmediate
	PresentModeMailbox
)

func (m PresentMode) String() string {
	switch m {
	case PresentModeFifo:
		return "Fifo"
	case PresentModeFifoRelaxed:
		return "FifoRelaxed"
	case PresentModeImmediate:
		return "Immediate"
	case PresentModeMailbox:
		return "Mailbox"
	default:
		return fmt.Sprintf("PresentMode(%d)", uint8(m))
	}
}

// ParsePresentMode parses a present mode name, case-sensitively as printed
// by String or in lower case.
func ParsePresentMode(s string) (PresentMode, error) {
	switch s {
	case "Fifo", "fifo":
		return PresentModeFifo, nil
	case "FifoRelaxed", "fifo-relaxed":
		return PresentModeFifoRelaxed, nil
	case "Immediate", "immediate":
		return PresentModeImmediate, nil
	case "Mailbox", "mailbox":
		return PresentModeMailbox, nil
	}
	return PresentModeFifo, fmt.Errorf("backend: unknown present mode %q", s)
}

// AdapterType classifies adapters.
type AdapterType uint8

// Adapter types.
const (
	AdapterTypeUnknown AdapterType = iota
	AdapterTypeDiscreteGPU
	AdapterTypeIntegratedGPU
	AdapterTypeCPU
)

func (t AdapterType) String() string {
	switch t {
	case AdapterTypeDiscreteGPU:
		return "DiscreteGPU"
	case AdapterTypeIntegratedGPU:
		return "IntegratedGPU"
	case AdapterTypeCPU:
		return "CPU"
	default:
		return "Unknown"
	}
}

// BackendType identifies the graphics API behind an adapter.
type BackendType uint8

// Backend types.
const (
	BackendTypeUndefined BackendType = iota
	BackendTypeNull
	BackendTypeWebGPU
	BackendTypeD3D11
	BackendTypeD3D12
	BackendTypeMetal
	BackendTypeVulkan
	BackendTypeOpenGL
	BackendTypeOpenGLES
)

func (t BackendType) String() string {
	switch t {
	case BackendTypeNull:
		return "Null"
	case BackendTypeWebGPU:
		return "WebGPU"
	case BackendTypeD3D11:
		return "D3D11"
	case BackendTypeD3D12:
		return "D3D12"
	case BackendTypeMetal:
		return "Metal"
	case BackendTypeVulkan:
		return "Vulkan"
	case BackendTypeOpenGL:
		return "OpenGL"
	case BackendTypeOpenGLES:
		return "OpenGLES"
	default:
		return "Undefined"
	}
}
