//go:build darwin && !ios

package gioview

import (
	"gioui.org/app"

	"github.com/gogpu/gpuboot/window"
)

func handlesOf(e app.ViewEvent) (window.System, map[window.HandleKey]uintptr) {
	ev, ok := e.(app.AppKitViewEvent)
	if !ok || !ev.Valid() || ev.Layer == 0 {
		return window.SystemUnknown, nil
	}
	return window.SystemApple, map[window.HandleKey]uintptr{
		window.HandleAppleMetalLayer: ev.Layer,
	}
}
