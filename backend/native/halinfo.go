//go:build !nogpu

package native

import (
	"math/bits"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gpuboot/backend"
)

// featureNames expands a bitmask into one FeatureName per set bit.
func featureNames(mask uint64) []backend.FeatureName {
	names := make([]backend.FeatureName, 0, bits.OnesCount64(mask))
	for mask != 0 {
		bit := bits.TrailingZeros64(mask)
		names = append(names, backend.FeatureName(bit))
		mask &^= 1 << bit
	}
	return names
}

// featureMask is the inverse of featureNames.
func featureMask(names []backend.FeatureName) uint64 {
	var mask uint64
	for _, n := range names {
		if n < 64 {
			mask |= 1 << n
		}
	}
	return mask
}

func adapterProperties(a *hal.ExposedAdapter, bt backend.BackendType) backend.AdapterProperties {
	info := a.Info
	props := backend.AdapterProperties{
		Name:              info.Name,
		VendorID:          info.VendorID,
		DeviceID:          info.DeviceID,
		VendorName:        info.Vendor,
		DriverDescription: info.Driver,
		BackendType:       bt,
	}
	if info.DriverInfo != "" {
		props.DriverDescription += " (" + info.DriverInfo + ")"
	}
	switch info.DeviceType {
	case gputypes.DeviceTypeDiscreteGPU:
		props.AdapterType = backend.AdapterTypeDiscreteGPU
	case gputypes.DeviceTypeIntegratedGPU:
		props.AdapterType = backend.AdapterTypeIntegratedGPU
	case gputypes.DeviceTypeCPU:
		props.AdapterType = backend.AdapterTypeCPU
	default:
		// The noop HAL reports DeviceTypeOther.
		if bt == backend.BackendTypeNull {
			props.AdapterType = backend.AdapterTypeCPU
		}
	}
	return props
}
