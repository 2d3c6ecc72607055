// Package gpuboot brings up a GPU context for a native window and tears it
// down again.
//
// # Overview
//
// A Manager drives a backend through a fixed acquisition sequence:
//
//  1. open a connection (backend.Instance)
//  2. bind a surface to the window
//  3. request an adapter that can present to that surface
//  4. request a device, registering device-lost and uncaptured-error callbacks
//  5. fetch the default queue
//  6. configure the surface
//
// Adapter and device requests complete through callbacks. Await turns such a
// request into a blocking call, either by waiting on the completion or, for
// backends that only deliver callbacks while pumped, by driving the backend's
// event processing between polls.
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/gpuboot"
//	    "github.com/gogpu/gpuboot/backend"
//	    _ "github.com/gogpu/gpuboot/backend/native"
//	)
//
//	m := gpuboot.New(backend.Default(), win)
//	gc, err := m.Init(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer gc.Close()
//
//	gc.OnDeviceLost(func(e gpuboot.DeviceLostEvent) {
//	    log.Print(e.Err())
//	})
//
// # Teardown
//
// Close releases the queue, then the device, then the surface. A failed Init
// releases only what it had acquired. Releasing is idempotent.
//
// # Errors
//
// Init returns an *InitError naming the failed step. Use errors.Is with the
// package sentinels (ErrAdapterRequestFailed, ErrSurfaceBindingFailed, ...)
// to classify it, and InitError.Message for the backend's diagnostic.
//
// # Logging
//
// gpuboot is silent by default. Use SetLogger to route its records to a
// slog.Logger.
package gpuboot
