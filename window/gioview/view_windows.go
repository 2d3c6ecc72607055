//go:build windows

package gioview

import (
	"gioui.org/app"
	"golang.org/x/sys/windows"

	"github.com/gogpu/gpuboot/window"
)

func handlesOf(e app.ViewEvent) (window.System, map[window.HandleKey]uintptr) {
	ev, ok := e.(app.Win32ViewEvent)
	if !ok || !ev.Valid() {
		return window.SystemUnknown, nil
	}
	handles := map[window.HandleKey]uintptr{
		window.HandleWin32HWND: ev.HWND,
	}
	// A nil module name yields the handle of the executable, which owns
	// Gio's window class.
	var module windows.Handle
	if err := windows.GetModuleHandleEx(0, nil, &module); err == nil {
		handles[window.HandleWin32HInstance] = uintptr(module)
	}
	return window.SystemWin32, handles
}
