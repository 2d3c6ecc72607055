package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/gogpu/gpuboot"
	"github.com/gogpu/gpuboot/backend"
	"github.com/gogpu/gpuboot/internal/gputest"
	"github.com/gogpu/gpuboot/window"
)

func testWindow() *window.Static {
	return &window.Static{
		Sys: window.SystemX11,
		Handles: map[window.HandleKey]uintptr{
			window.HandleX11Display: 1,
			window.HandleX11Window:  1,
		},
		Width:  320,
		Height: 240,
	}
}

func testOptions() options {
	return options{ticks: 2, timeout: 5 * time.Second}
}

func TestRunAdapterFailure(t *testing.T) {
	script := gputest.DefaultScript()
	script.AdapterStatus = backend.RequestStatusUnavailable
	script.AdapterMessage = "no compatible adapter"
	b := gputest.New(script)
	mgr := gpuboot.New(b, testWindow())

	var out bytes.Buffer
	if code := run(mgr, testOptions(), &out); code != 1 {
		t.Errorf("run() = %d, want 1", code)
	}
	for _, want := range []string{"AdapterSelected", "no compatible adapter"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output does not mention %q:\n%s", want, out.String())
		}
	}
	if got := mgr.State(); got != gpuboot.StateClosed {
		t.Errorf("State() = %v, want Closed", got)
	}
	if strings.Contains(out.String(), "gpu context ready") {
		t.Error("failed run reported a ready context")
	}
}

func TestRunSuccess(t *testing.T) {
	b := gputest.New(gputest.DefaultScript())
	mgr := gpuboot.New(b, testWindow())

	var out bytes.Buffer
	if code := run(mgr, testOptions(), &out); code != 0 {
		t.Fatalf("run() = %d, want 0; output:\n%s", code, out.String())
	}
	if !strings.Contains(out.String(), "gpu context ready") || !strings.Contains(out.String(), mgr.Session()) {
		t.Errorf("output = %q", out.String())
	}
	// One poll per tick.
	if n := b.Device().Polls(); n != 2 {
		t.Errorf("Polls() = %d, want 2", n)
	}
	if got := mgr.State(); got != gpuboot.StateClosed {
		t.Errorf("State() = %v, want Closed", got)
	}
}

func TestRunLossDuringTeardownIsClean(t *testing.T) {
	script := gputest.DefaultScript()
	script.LoseOnRelease = true
	mgr := gpuboot.New(gputest.New(script), testWindow())

	var out bytes.Buffer
	if code := run(mgr, testOptions(), &out); code != 0 {
		t.Errorf("run() = %d, want 0; output:\n%s", code, out.String())
	}
	if strings.Contains(out.String(), "device lost") {
		t.Errorf("teardown loss reported as a failure:\n%s", out.String())
	}
}
