package backend

// SurfaceSourceKind tags the native window variant of a SurfaceSource.
type SurfaceSourceKind uint8

// Surface source kinds.
const (
	SurfaceSourceKindUnknown SurfaceSourceKind = iota
	SurfaceSourceKindWindowsHWND
	SurfaceSourceKindMetalLayer
	SurfaceSourceKindWaylandSurface
	SurfaceSourceKindXlibWindow
)

func (k SurfaceSourceKind) String() string {
	switch k {
	case SurfaceSourceKindWindowsHWND:
		return "WindowsHWND"
	case SurfaceSourceKindMetalLayer:
		return "MetalLayer"
	case SurfaceSourceKindWaylandSurface:
		return "WaylandSurface"
	case SurfaceSourceKindXlibWindow:
		return "XlibWindow"
	default:
		return "Unknown"
	}
}

// SurfaceSource is the platform-specific part of a SurfaceDescriptor.
// Exactly one of the SurfaceSource* types below implements it per surface.
type SurfaceSource interface {
	Kind() SurfaceSourceKind
}

// SurfaceSourceWindowsHWND describes a Win32 window.
type SurfaceSourceWindowsHWND struct {
	// HInstance is the module handle that owns the window class.
	HInstance uintptr
	// HWND is the window handle.
	HWND uintptr
}

// Kind implements SurfaceSource.
func (SurfaceSourceWindowsHWND) Kind() SurfaceSourceKind { return SurfaceSourceKindWindowsHWND }

// SurfaceSourceMetalLayer describes a CAMetalLayer on macOS or iOS.
type SurfaceSourceMetalLayer struct {
	Layer uintptr
}

// Kind implements SurfaceSource.
func (SurfaceSourceMetalLayer) Kind() SurfaceSourceKind { return SurfaceSourceKindMetalLayer }

// SurfaceSourceWaylandSurface describes a Wayland surface.
type SurfaceSourceWaylandSurface struct {
	// Display is the *wl_display.
	Display uintptr
	// Surface is the *wl_surface.
	Surface uintptr
}

// Kind implements SurfaceSource.
func (SurfaceSourceWaylandSurface) Kind() SurfaceSourceKind {
	return SurfaceSourceKindWaylandSurface
}

// SurfaceSourceXlibWindow describes an X11 window created through Xlib.
type SurfaceSourceXlibWindow struct {
	// Display is the Xlib *Display.
	Display uintptr
	// Window is the X11 window id.
	Window uint64
}

// Kind implements SurfaceSource.
func (SurfaceSourceXlibWindow) Kind() SurfaceSourceKind { return SurfaceSourceKindXlibWindow }
