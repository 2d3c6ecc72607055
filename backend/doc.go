// Package backend defines the callback-driven GPU API that gpuboot drives,
// and a registry of implementations.
//
// The contract follows the WebGPU object model: an Instance (the connection)
// produces Adapters and Surfaces, an Adapter produces a Device, and a Device
// owns its default Queue. Adapter and device requests complete through
// callbacks which an implementation may invoke synchronously, from its own
// goroutines, or only while the caller pumps Instance.ProcessEvents. The
// Traits of a backend tell callers which of these models applies.
//
// # Backend Registration
//
// Implementations register themselves from init():
//
//	import _ "github.com/gogpu/gpuboot/backend/native"
//
// # Backend Selection
//
// Use Default() to get the best available backend, or Get() to request
// a specific backend by name:
//
//	b := backend.Default()
//	b := backend.Get("noop")
//
// # Surface Sources
//
// A surface is created from exactly one SurfaceSource variant:
// SurfaceSourceWindowsHWND, SurfaceSourceMetalLayer,
// SurfaceSourceWaylandSurface or SurfaceSourceXlibWindow.
package backend
