//go:build !windows && !(darwin && !ios) && !((linux && !android) || freebsd || openbsd)

package gioview

import (
	"gioui.org/app"

	"github.com/gogpu/gpuboot/window"
)

// handlesOf reports no handles on platforms without a supported surface
// variant; binding then fails with an unsupported-system error.
func handlesOf(app.ViewEvent) (window.System, map[window.HandleKey]uintptr) {
	return window.SystemUnknown, nil
}
