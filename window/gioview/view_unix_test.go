//go:build (linux && !android) || freebsd || openbsd

package gioview

import (
	"testing"
	"unsafe"

	"gioui.org/app"

	"github.com/gogpu/gpuboot/window"
)

func TestUpdateX11(t *testing.T) {
	var display byte
	v := New()
	if v.Valid() {
		t.Fatal("new view should not be valid")
	}

	ok := v.Update(app.X11ViewEvent{Display: unsafe.Pointer(&display), Window: 42})
	if !ok || !v.Valid() {
		t.Fatal("Update(X11ViewEvent) = false, want true")
	}
	if v.System() != window.SystemX11 {
		t.Errorf("System() = %v, want x11", v.System())
	}
	if got := v.Handle(window.HandleX11Display); got != uintptr(unsafe.Pointer(&display)) {
		t.Errorf("Handle(x11.display) = %#x", got)
	}
	if got := v.Handle(window.HandleX11Window); got != 42 {
		t.Errorf("Handle(x11.window) = %d, want 42", got)
	}
}

func TestUpdateWayland(t *testing.T) {
	var display, surface byte
	v := New()
	ok := v.Update(app.WaylandViewEvent{
		Display: unsafe.Pointer(&display),
		Surface: unsafe.Pointer(&surface),
	})
	if !ok {
		t.Fatal("Update(WaylandViewEvent) = false, want true")
	}
	if v.System() != window.SystemWayland {
		t.Errorf("System() = %v, want wayland", v.System())
	}
	if v.Handle(window.HandleWaylandSurface) != uintptr(unsafe.Pointer(&surface)) {
		t.Error("wayland surface handle not recorded")
	}
	if v.Handle(window.HandleX11Window) != 0 {
		t.Error("x11 handle should be absent on a wayland view")
	}
}

func TestUpdateInvalidClears(t *testing.T) {
	var display byte
	v := New()
	v.Update(app.X11ViewEvent{Display: unsafe.Pointer(&display), Window: 7})

	if v.Update(app.X11ViewEvent{}) {
		t.Fatal("Update(empty X11ViewEvent) = true, want false")
	}
	if v.Valid() || v.Handle(window.HandleX11Window) != 0 {
		t.Error("invalid event must clear previous handles")
	}
}

func TestSetSize(t *testing.T) {
	v := New()
	v.SetSize(800, 600)
	if w, h := v.Size(); w != 800 || h != 600 {
		t.Errorf("Size() = %dx%d, want 800x600", w, h)
	}
}
