package window

import "testing"

func TestParseSystem(t *testing.T) {
	tests := []struct {
		in   string
		want System
		ok   bool
	}{
		{"win32", SystemWin32, true},
		{"Windows", SystemWin32, true},
		{"cocoa", SystemApple, true},
		{"wayland", SystemWayland, true},
		{"X11", SystemX11, true},
		{"kms", SystemUnknown, false},
	}
	for _, tt := range tests {
		got, err := ParseSystem(tt.in)
		if (err == nil) != tt.ok || got != tt.want {
			t.Errorf("ParseSystem(%q) = %v, %v; want %v, ok=%v", tt.in, got, err, tt.want, tt.ok)
		}
	}
}

func TestSystemStringRoundTrip(t *testing.T) {
	for _, s := range []System{SystemWin32, SystemApple, SystemWayland, SystemX11} {
		got, err := ParseSystem(s.String())
		if err != nil || got != s {
			t.Errorf("ParseSystem(%q) = %v, %v", s.String(), got, err)
		}
	}
}

func TestStatic(t *testing.T) {
	w := &Static{
		Sys: SystemX11,
		Handles: map[HandleKey]uintptr{
			HandleX11Display: 0x10,
			HandleX11Window:  0x20,
		},
		Width:  640,
		Height: 480,
	}

	if w.System() != SystemX11 {
		t.Errorf("System() = %v, want x11", w.System())
	}
	if got := w.Handle(HandleX11Window); got != 0x20 {
		t.Errorf("Handle(x11.window) = %#x, want 0x20", got)
	}
	if got := w.Handle(HandleWaylandSurface); got != 0 {
		t.Errorf("Handle(wayland.surface) = %#x, want 0", got)
	}
	if wd, ht := w.Size(); wd != 640 || ht != 480 {
		t.Errorf("Size() = %dx%d, want 640x480", wd, ht)
	}

	want := "x11 x11.display=0x10 x11.window=0x20"
	if got := Describe(w); got != want {
		t.Errorf("Describe() = %q, want %q", got, want)
	}
}

func TestStaticNilHandles(t *testing.T) {
	w := &Static{Sys: SystemWayland}
	if got := w.Handle(HandleWaylandDisplay); got != 0 {
		t.Errorf("Handle on nil map = %#x, want 0", got)
	}
}
