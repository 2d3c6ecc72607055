// Package window describes the windowing collaborator that gpuboot binds
// GPU surfaces to.
//
// A Window reports, at run time, which windowing system drives it and hands
// out the native handles that system needs. A Linux process may run on
// either Wayland or X11, so the system is a property of the window rather
// than of the build.
package window

import (
	"fmt"
	"strings"
)

// System identifies a windowing system.
type System uint8

// Windowing systems.
const (
	SystemUnknown System = iota
	SystemWin32
	SystemApple
	SystemWayland
	SystemX11
)

func (s System) String() string {
	switch s {
	case SystemWin32:
		return "win32"
	case SystemApple:
		return "apple"
	case SystemWayland:
		return "wayland"
	case SystemX11:
		return "x11"
	default:
		return "unknown"
	}
}

// ParseSystem parses a system name as printed by String.
func ParseSystem(s string) (System, error) {
	switch strings.ToLower(s) {
	case "win32", "windows":
		return SystemWin32, nil
	case "apple", "cocoa", "metal":
		return SystemApple, nil
	case "wayland":
		return SystemWayland, nil
	case "x11", "xlib":
		return SystemX11, nil
	}
	return SystemUnknown, fmt.Errorf("window: unknown system %q", s)
}

// HandleKey names a native handle a window may expose.
type HandleKey uint8

// Native handle keys. Each windowing system exposes a different subset.
const (
	HandleWin32HWND HandleKey = iota + 1
	HandleWin32HInstance
	HandleAppleMetalLayer
	HandleWaylandDisplay
	HandleWaylandSurface
	HandleX11Display
	HandleX11Window
)

func (k HandleKey) String() string {
	switch k {
	case HandleWin32HWND:
		return "win32.hwnd"
	case HandleWin32HInstance:
		return "win32.hinstance"
	case HandleAppleMetalLayer:
		return "apple.metal_layer"
	case HandleWaylandDisplay:
		return "wayland.display"
	case HandleWaylandSurface:
		return "wayland.surface"
	case HandleX11Display:
		return "x11.display"
	case HandleX11Window:
		return "x11.window"
	default:
		return fmt.Sprintf("HandleKey(%d)", uint8(k))
	}
}

// Window is a native window supplied by the windowing collaborator.
type Window interface {
	// System reports the windowing system currently driving the window.
	System() System

	// Handle returns the native handle stored under key, or 0 if the
	// window does not have one.
	Handle(key HandleKey) uintptr

	// Size returns the drawable size in pixels.
	Size() (width, height int)
}

// Static is a Window with fixed handles. It suits headless runs and
// embedding code that already owns the native objects.
type Static struct {
	Sys     System
	Handles map[HandleKey]uintptr
	Width   int
	Height  int
}

// System implements Window.
func (w *Static) System() System { return w.Sys }

// Handle implements Window.
func (w *Static) Handle(key HandleKey) uintptr { return w.Handles[key] }

// Size implements Window.
func (w *Static) Size() (int, int) { return w.Width, w.Height }

// Describe renders the window's system and the handles it carries, in
// HandleKey order, for diagnostics.
func Describe(w Window) string {
	var b strings.Builder
	b.WriteString(w.System().String())
	for k := HandleWin32HWND; k <= HandleX11Window; k++ {
		if h := w.Handle(k); h != 0 {
			fmt.Fprintf(&b, " %s=0x%x", k, h)
		}
	}
	return b.String()
}
