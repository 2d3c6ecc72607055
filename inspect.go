package gpuboot

import (
	"fmt"
	"log/slog"

	"github.com/gogpu/gpuboot/backend"
)

// ReportKind tells which object a Report describes.
type ReportKind uint8

const (
	// ReportAdapter describes an adapter.
	ReportAdapter ReportKind = iota
	// ReportDevice describes a device.
	ReportDevice
)

func (k ReportKind) String() string {
	if k == ReportDevice {
		return "device"
	}
	return "adapter"
}

// Report is the capability report of an adapter or device.
type Report struct {
	Kind ReportKind

	// Features lists the supported optional features as backend codes,
	// in the order the backend reported them.
	Features []backend.FeatureName

	// Limits is nil when the limits query failed.
	Limits *backend.Limits

	// Properties is set for adapters only.
	Properties *backend.AdapterProperties

	// Problems collects non-fatal query failures.
	Problems []error
}

// LimitEntry is one named numeric limit.
type LimitEntry struct {
	Name  string
	Value uint64
}

// LimitEntries returns the reported limits by name, or nil if the report has
// no limits.
func (r *Report) LimitEntries() []LimitEntry {
	if r.Limits == nil {
		return nil
	}
	l := r.Limits
	return []LimitEntry{
		{"maxTextureDimension1D", uint64(l.MaxTextureDimension1D)},
		{"maxTextureDimension2D", uint64(l.MaxTextureDimension2D)},
		{"maxTextureDimension3D", uint64(l.MaxTextureDimension3D)},
		{"maxTextureArrayLayers", uint64(l.MaxTextureArrayLayers)},
		{"maxBindGroups", uint64(l.MaxBindGroups)},
		{"maxUniformBufferBindingSize", uint64(l.MaxUniformBufferBindingSize)},
		{"maxStorageBufferBindingSize", uint64(l.MaxStorageBufferBindingSize)},
		{"maxBufferSize", uint64(l.MaxBufferSize)},
		{"maxComputeWorkgroupSizeX", uint64(l.MaxComputeWorkgroupSizeX)},
		{"maxComputeWorkgroupSizeY", uint64(l.MaxComputeWorkgroupSizeY)},
		{"maxComputeWorkgroupSizeZ", uint64(l.MaxComputeWorkgroupSizeZ)},
		{"maxComputeWorkgroupsPerDimension", uint64(l.MaxComputeWorkgroupsPerDimension)},
	}
}

// LogValue implements slog.LogValuer.
func (r *Report) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("kind", r.Kind.String()),
		slog.Int("features", len(r.Features)),
	}
	if p := r.Properties; p != nil {
		attrs = append(attrs,
			slog.String("name", p.Name),
			slog.String("vendor", p.VendorName),
			slog.String("type", p.AdapterType.String()),
			slog.String("backend", p.BackendType.String()),
			slog.String("driver", p.DriverDescription),
		)
	}
	if r.Limits != nil {
		attrs = append(attrs,
			slog.Uint64("maxTextureDimension2D", uint64(r.Limits.MaxTextureDimension2D)),
			slog.Uint64("maxBufferSize", uint64(r.Limits.MaxBufferSize)),
		)
	} else {
		attrs = append(attrs, slog.Bool("limits", false))
	}
	if len(r.Problems) > 0 {
		attrs = append(attrs, slog.Int("problems", len(r.Problems)))
	}
	return slog.GroupValue(attrs...)
}

// capabilitySource is the query surface shared by adapters and devices.
type capabilitySource interface {
	EnumerateFeatures(features []backend.FeatureName) int
	GetLimits(limits *backend.Limits) bool
}

// enumerateFeatures runs the two-call enumeration protocol: the first call
// sizes the buffer, the second fills it.
func enumerateFeatures(enumerate func([]backend.FeatureName) int) ([]backend.FeatureName, error) {
	count := enumerate(nil)
	if count < 0 {
		return nil, fmt.Errorf("%w: negative feature count %d", ErrFeatureQueryAllocationFailed, count)
	}
	if count == 0 {
		return nil, nil
	}
	buf := make([]backend.FeatureName, count)
	filled := enumerate(buf)
	if filled != count {
		return buf[:max(0, min(filled, count))], fmt.Errorf("%w: filled %d of %d entries", ErrFeatureQueryAllocationFailed, filled, count)
	}
	return buf, nil
}

func describe(kind ReportKind, src capabilitySource) *Report {
	r := &Report{Kind: kind}

	features, err := enumerateFeatures(src.EnumerateFeatures)
	r.Features = features
	if err != nil {
		r.Problems = append(r.Problems, err)
	}

	var limits backend.Limits
	if src.GetLimits(&limits) {
		r.Limits = &limits
	} else {
		Logger().Warn("gpuboot: limits query failed", "kind", kind)
	}
	return r
}

// DescribeAdapter reports the features, limits and properties of a. It only
// reads from a.
func DescribeAdapter(a backend.Adapter) *Report {
	r := describe(ReportAdapter, a)
	var props backend.AdapterProperties
	a.GetProperties(&props)
	r.Properties = &props
	return r
}

// DescribeDevice reports the features and limits of d. Devices have no
// descriptive properties.
func DescribeDevice(d backend.Device) *Report {
	return describe(ReportDevice, d)
}
