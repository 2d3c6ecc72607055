// Command gpuboot brings up a GPU context on a window, polls it for a few
// ticks and tears it down again. It exits with status 1 if any acquisition
// step fails.
//
// With -headless no window is opened and the noop backend is used unless
// -backend names another one.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"gioui.org/app"
	"gioui.org/op"
	"gioui.org/unit"
	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gogpu/gpuboot"
	"github.com/gogpu/gpuboot/backend"
	_ "github.com/gogpu/gpuboot/backend/native"
	"github.com/gogpu/gpuboot/window"
	"github.com/gogpu/gpuboot/window/gioview"
)

type options struct {
	backend     string
	width       int
	height      int
	presentMode string
	inspect     bool
	ticks       int
	metricsAddr string
	headless    bool
	pump        bool
	timeout     time.Duration
	verbose     bool
}

func main() {
	var o options
	flag.StringVar(&o.backend, "backend", os.Getenv("GPUBOOT_BACKEND"), "backend name (default: best available; env GPUBOOT_BACKEND)")
	flag.IntVar(&o.width, "width", 640, "window width")
	flag.IntVar(&o.height, "height", 480, "window height")
	flag.StringVar(&o.presentMode, "present-mode", "fifo", "present mode: fifo, fifo-relaxed, immediate, mailbox")
	flag.BoolVar(&o.inspect, "inspect", false, "log adapter and device capability reports")
	flag.IntVar(&o.ticks, "ticks", 3, "number of poll ticks before teardown")
	flag.StringVar(&o.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	flag.BoolVar(&o.headless, "headless", false, "run without a window")
	flag.BoolVar(&o.pump, "pump", envBool("GPUBOOT_PUMP"), "pump backend events while waiting (env GPUBOOT_PUMP)")
	flag.DurationVar(&o.timeout, "timeout", 10*time.Second, "acquisition timeout")
	flag.BoolVar(&o.verbose, "v", false, "verbose logging")
	flag.Parse()

	level := slog.LevelInfo
	if o.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	gpuboot.SetLogger(logger)

	if o.headless && o.backend == "" {
		o.backend = backend.BackendNoop
	}
	b, err := backend.Lookup(o.backend)
	if err != nil {
		fail(os.Stderr, fmt.Errorf("backend %q: %w (available: %v)", o.backend, err, backend.Available()))
		os.Exit(1)
	}

	mode, err := backend.ParsePresentMode(o.presentMode)
	if err != nil {
		fail(os.Stderr, err)
		os.Exit(1)
	}
	sc := gpuboot.DefaultSurfaceConfig()
	sc.Width, sc.Height = uint32(o.width), uint32(o.height)
	sc.PresentMode = mode

	opts := []gpuboot.Option{
		gpuboot.WithSurfaceConfig(sc),
		gpuboot.WithInspection(o.inspect),
	}
	if pumpSet() {
		opts = append(opts, gpuboot.WithPumpWhileWaiting(o.pump))
	}
	if o.metricsAddr != "" {
		reg := prometheus.NewRegistry()
		opts = append(opts, gpuboot.WithMetrics(reg))
		go serveMetrics(logger, o.metricsAddr, reg)
	}

	if o.headless {
		win := &window.Static{
			Sys: window.SystemX11,
			// The noop HAL never dereferences the handles.
			Handles: map[window.HandleKey]uintptr{
				window.HandleX11Display: 1,
				window.HandleX11Window:  1,
			},
			Width:  o.width,
			Height: o.height,
		}
		os.Exit(run(gpuboot.New(b, win, opts...), o, os.Stderr))
	}

	go func() {
		os.Exit(loop(b, opts, o))
	}()
	app.Main()
}

// loop drives a Gio window. The GPU context is brought up once Gio reports
// native handles and torn down when the window is destroyed.
func loop(b backend.Backend, opts []gpuboot.Option, o options) int {
	w := new(app.Window)
	w.Option(app.Title("gpuboot"), app.Size(unit.Dp(o.width), unit.Dp(o.height)))

	view := gioview.New()
	var (
		mgr  *gpuboot.Manager
		gctx *gpuboot.Context
		ops  op.Ops
	)
	defer func() {
		if mgr != nil {
			_ = mgr.Close()
		}
	}()

	for {
		switch e := w.Event().(type) {
		case app.DestroyEvent:
			if e.Err != nil {
				fail(os.Stderr, e.Err)
				return 1
			}
			return 0
		case app.ViewEvent:
			if !view.Update(e) {
				// Handles withdrawn: the surface must go with them.
				if mgr != nil {
					_ = mgr.Close()
					mgr, gctx = nil, nil
				}
				continue
			}
			slog.Debug("gpuboot: window handles", "window", window.Describe(view))
			if mgr != nil {
				continue
			}
			mgr = gpuboot.New(b, view, opts...)
			ctx, cancel := context.WithTimeout(context.Background(), o.timeout)
			var err error
			gctx, err = mgr.Init(ctx)
			cancel()
			if err != nil {
				fail(os.Stderr, err)
				return 1
			}
			watch(gctx, os.Stderr)
			succeed(os.Stderr, mgr)
		case app.FrameEvent:
			view.SetSize(e.Size.X, e.Size.Y)
			if gctx != nil {
				_ = gctx.NotifyWorkDone()
				_ = gctx.Poll(false)
			}
			ops.Reset()
			e.Frame(&ops)
		}
	}
}

// run brings the context of mgr up, polls it and tears it down. Progress
// and failures are written to w. It returns the process exit status.
func run(mgr *gpuboot.Manager, o options, w io.Writer) int {
	ctx, cancel := context.WithTimeout(context.Background(), o.timeout)
	defer cancel()

	gctx, err := mgr.Init(ctx)
	if err != nil {
		fail(w, err)
		_ = mgr.Close()
		return 1
	}
	watch(gctx, w)
	succeed(w, mgr)

	for i := 0; i < o.ticks; i++ {
		if err := gctx.NotifyWorkDone(); err != nil {
			fail(w, err)
			break
		}
		if err := gctx.Poll(true); err != nil {
			fail(w, err)
			break
		}
	}

	if err := gctx.Close(); err != nil {
		fail(w, err)
		return 1
	}
	if ev, lost := gctx.DeviceLost(); lost && !ev.DuringTeardown {
		return 1
	}
	return 0
}

func watch(gctx *gpuboot.Context, w io.Writer) {
	gctx.OnDeviceLost(func(e gpuboot.DeviceLostEvent) {
		if e.DuringTeardown {
			slog.Debug("gpuboot: device released", "reason", e.Reason)
			return
		}
		color.New(color.FgHiRed, color.Bold).Fprintf(w, "device lost: %s %s\n", e.Reason, e.Message)
	})
	gctx.OnUncapturedError(func(e gpuboot.UncapturedErrorEvent) {
		color.New(color.FgHiYellow).Fprintf(w, "uncaptured %s error: %s\n", e.Kind, e.Message)
	})
	gctx.OnWorkDone(func(e gpuboot.WorkDoneEvent) {
		slog.Debug("gpuboot: work done", "status", e.Status)
	})
}

func succeed(w io.Writer, mgr *gpuboot.Manager) {
	color.New(color.FgHiGreen, color.Bold).Fprintf(w, "gpu context ready")
	fmt.Fprintf(w, " (session %s)\n", mgr.Session())
}

func fail(w io.Writer, err error) {
	color.New(color.FgHiRed, color.Bold).Fprint(w, "error: ")
	fmt.Fprintln(w, err)

	var ie *gpuboot.InitError
	if errors.As(err, &ie) && ie.Message() != "" {
		color.New(color.FgHiBlack).Fprintf(w, "  backend says: %s\n", ie.Message())
	}
}

func serveMetrics(logger *slog.Logger, addr string, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	logger.Info("gpuboot: serving metrics", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("gpuboot: metrics server", "err", err)
	}
}

// pumpSet reports whether pumping was chosen explicitly. Otherwise the
// backend's own traits decide.
func pumpSet() bool {
	set := os.Getenv("GPUBOOT_PUMP") != ""
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "pump" {
			set = true
		}
	})
	return set
}

func envBool(key string) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && v
}
