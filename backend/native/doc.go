//go:build !nogpu

// Package native implements the gpuboot backend contract on top of the
// pure Go gogpu/wgpu HAL.
//
// Importing the package registers two backends:
//
//   - "native": the Vulkan HAL, for real windows and GPUs
//   - "noop": the no-op HAL, for headless runs and tests
//
// Requests complete from their own goroutines, so neither backend needs
// pumping. HAL objects outlive the handles that reference them: the HAL
// instance is destroyed only when the connection, every adapter, device
// and surface obtained from it have all been released.
//
// Build with -tags nogpu to leave the package out.
package native
