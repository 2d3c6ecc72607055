// Package gioview adapts Gio windows to gpuboot.
//
// Gio reports the native objects behind a window through app.ViewEvent.
// View records the latest event and exposes its handles through the
// window.Window interface, so a GPU surface can be bound to a Gio window:
//
//	view := gioview.New()
//	for {
//		switch e := w.Event().(type) {
//		case app.ViewEvent:
//			if view.Update(e) {
//				ctx, err = mgr.Init(context.Background())
//			}
//		case app.FrameEvent:
//			view.SetSize(e.Size.X, e.Size.Y)
//		}
//	}
package gioview

import (
	"sync"

	"gioui.org/app"

	"github.com/gogpu/gpuboot/window"
)

// View is a window.Window backed by the most recent Gio ViewEvent.
// View is safe for concurrent use.
type View struct {
	mu      sync.RWMutex
	sys     window.System
	handles map[window.HandleKey]uintptr
	width   int
	height  int
}

var _ window.Window = (*View)(nil)

// New returns an empty view. It reports window.SystemUnknown until Update
// receives a valid event.
func New() *View {
	return &View{}
}

// Update records the handles carried by e and reports whether they are
// valid. An invalid event clears the view: the previous handles must not be
// used after Gio withdraws them.
func (v *View) Update(e app.ViewEvent) bool {
	sys, handles := handlesOf(e)

	v.mu.Lock()
	defer v.mu.Unlock()
	v.sys = sys
	v.handles = handles
	return sys != window.SystemUnknown
}

// SetSize records the drawable size reported by the latest frame.
func (v *View) SetSize(width, height int) {
	v.mu.Lock()
	v.width, v.height = width, height
	v.mu.Unlock()
}

// Valid reports whether the view currently holds native handles.
func (v *View) Valid() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.sys != window.SystemUnknown
}

// System implements window.Window.
func (v *View) System() window.System {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.sys
}

// Handle implements window.Window.
func (v *View) Handle(key window.HandleKey) uintptr {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.handles[key]
}

// Size implements window.Window.
func (v *View) Size() (int, int) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.width, v.height
}
