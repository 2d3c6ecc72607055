package gpuboot

import (
	"fmt"

	"github.com/gogpu/gpuboot/backend"
	"github.com/gogpu/gpuboot/window"
)

// sourceBuilders maps each supported windowing system to the constructor of
// its surface-source variant.
var sourceBuilders = map[window.System]func(window.Window) (backend.SurfaceSource, error){
	window.SystemWin32:   windowsHWNDSource,
	window.SystemApple:   metalLayerSource,
	window.SystemWayland: waylandSurfaceSource,
	window.SystemX11:     xlibWindowSource,
}

// requireHandle returns the handle stored under key or a binding error
// naming the missing property.
func requireHandle(win window.Window, key window.HandleKey) (uintptr, error) {
	h := win.Handle(key)
	if h == 0 {
		return 0, fmt.Errorf("%w: %w: %s", ErrSurfaceBindingFailed, ErrMissingNativeHandle, key)
	}
	return h, nil
}

func windowsHWNDSource(win window.Window) (backend.SurfaceSource, error) {
	hwnd, err := requireHandle(win, window.HandleWin32HWND)
	if err != nil {
		return nil, err
	}
	// A zero HINSTANCE selects the module of the running executable.
	return backend.SurfaceSourceWindowsHWND{
		HInstance: win.Handle(window.HandleWin32HInstance),
		HWND:      hwnd,
	}, nil
}

func metalLayerSource(win window.Window) (backend.SurfaceSource, error) {
	layer, err := requireHandle(win, window.HandleAppleMetalLayer)
	if err != nil {
		return nil, err
	}
	return backend.SurfaceSourceMetalLayer{Layer: layer}, nil
}

func waylandSurfaceSource(win window.Window) (backend.SurfaceSource, error) {
	display, err := requireHandle(win, window.HandleWaylandDisplay)
	if err != nil {
		return nil, err
	}
	surface, err := requireHandle(win, window.HandleWaylandSurface)
	if err != nil {
		return nil, err
	}
	return backend.SurfaceSourceWaylandSurface{Display: display, Surface: surface}, nil
}

func xlibWindowSource(win window.Window) (backend.SurfaceSource, error) {
	display, err := requireHandle(win, window.HandleX11Display)
	if err != nil {
		return nil, err
	}
	xid, err := requireHandle(win, window.HandleX11Window)
	if err != nil {
		return nil, err
	}
	return backend.SurfaceSourceXlibWindow{Display: display, Window: uint64(xid)}, nil
}

// SurfaceSourceFor builds the surface-source variant matching the windowing
// system that currently drives win.
//
// The system is read from the window at run time: the same binary may run
// under Wayland or X11. An unsupported system or a zero required handle
// yields an error wrapping ErrSurfaceBindingFailed.
func SurfaceSourceFor(win window.Window) (backend.SurfaceSource, error) {
	if win == nil {
		return nil, fmt.Errorf("%w: nil window", ErrSurfaceBindingFailed)
	}
	build, ok := sourceBuilders[win.System()]
	if !ok {
		return nil, fmt.Errorf("%w: %w: %s", ErrSurfaceBindingFailed, ErrUnsupportedWindowSystem, win.System())
	}
	return build(win)
}

// BindSurface creates a surface for win from inst. It does not modify inst;
// the caller owns the returned surface and must release it.
func BindSurface(inst backend.Instance, win window.Window) (backend.Surface, error) {
	src, err := SurfaceSourceFor(win)
	if err != nil {
		return nil, err
	}

	Logger().Debug("gpuboot: binding surface", "source", src.Kind(), "window", window.Describe(win))

	surface, err := inst.CreateSurface(&backend.SurfaceDescriptor{
		Label:  "gpuboot surface",
		Source: src,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSurfaceBindingFailed, src.Kind(), err)
	}
	if surface == nil {
		return nil, fmt.Errorf("%w: %s: backend returned no surface", ErrSurfaceBindingFailed, src.Kind())
	}
	return surface, nil
}
