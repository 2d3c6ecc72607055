//go:build (linux && !android) || freebsd || openbsd

package gioview

import (
	"gioui.org/app"

	"github.com/gogpu/gpuboot/window"
)

func handlesOf(e app.ViewEvent) (window.System, map[window.HandleKey]uintptr) {
	switch ev := e.(type) {
	case app.WaylandViewEvent:
		if !ev.Valid() {
			break
		}
		return window.SystemWayland, map[window.HandleKey]uintptr{
			window.HandleWaylandDisplay: uintptr(ev.Display),
			window.HandleWaylandSurface: uintptr(ev.Surface),
		}
	case app.X11ViewEvent:
		if !ev.Valid() {
			break
		}
		return window.SystemX11, map[window.HandleKey]uintptr{
			window.HandleX11Display: uintptr(ev.Display),
			window.HandleX11Window:  ev.Window,
		}
	}
	return window.SystemUnknown, nil
}
