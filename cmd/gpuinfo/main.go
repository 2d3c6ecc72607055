// Command gpuinfo prints the capabilities of the adapter and device a
// backend hands out, without opening a window.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/gogpu/gpuboot"
	"github.com/gogpu/gpuboot/backend"
	_ "github.com/gogpu/gpuboot/backend/native"
)

func main() {
	var (
		backendName = flag.String("backend", os.Getenv("GPUBOOT_BACKEND"), "backend name (default: best available)")
		powerPref   = flag.String("power", "", "power preference: low, high")
		timeout     = flag.Duration("timeout", 10*time.Second, "acquisition timeout")
		list        = flag.Bool("list", false, "list registered backends and exit")
		verbose     = flag.Bool("v", false, "verbose logging")
	)
	flag.Parse()

	if *verbose {
		gpuboot.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	if *list {
		for _, name := range backend.Available() {
			fmt.Println(name)
		}
		return
	}

	b, err := backend.Lookup(*backendName)
	if err != nil {
		fatal(fmt.Errorf("backend %q: %w", *backendName, err))
	}

	var opts []gpuboot.Option
	switch *powerPref {
	case "":
	case "low":
		opts = append(opts, gpuboot.WithPowerPreference(backend.PowerPreferenceLowPower))
	case "high":
		opts = append(opts, gpuboot.WithPowerPreference(backend.PowerPreferenceHighPerformance))
	default:
		fatal(fmt.Errorf("unknown power preference %q", *powerPref))
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	res, err := gpuboot.Probe(ctx, b, opts...)
	if res != nil {
		heading("Backend")
		fmt.Println(res.Backend)
		printReport(res.Adapter)
		printReport(res.Device)
	}
	if err != nil {
		cancel()
		fatal(err)
	}
}

func heading(s string) {
	color.New(color.FgHiMagenta, color.Bold, color.Underline).Println(s)
}

func printReport(r *gpuboot.Report) {
	if r == nil {
		return
	}

	if r.Properties != nil {
		heading(r.Kind.String() + " properties")
		p := r.Properties
		renderTable([][]string{
			{"Property", "Value"},
			{"Name", p.Name},
			{"Vendor", fmt.Sprintf("%s (0x%04x)", p.VendorName, p.VendorID)},
			{"Device ID", fmt.Sprintf("0x%04x", p.DeviceID)},
			{"Architecture", p.Architecture},
			{"Driver", p.DriverDescription},
			{"Adapter type", p.AdapterType.String()},
			{"Backend type", p.BackendType.String()},
		})
	}

	heading(r.Kind.String() + " features")
	if len(r.Features) == 0 {
		color.New(color.FgHiBlack).Println("none")
	} else {
		rows := [][]string{{"#", "Feature"}}
		for i, f := range r.Features {
			rows = append(rows, []string{strconv.Itoa(i), f.String()})
		}
		renderTable(rows)
	}

	heading(r.Kind.String() + " limits")
	if r.Limits == nil {
		color.New(color.FgHiRed).Println("unavailable")
	} else {
		rows := [][]string{{"Limit", "Value"}}
		for _, e := range r.LimitEntries() {
			rows = append(rows, []string{e.Name, strconv.FormatUint(e.Value, 10)})
		}
		renderTable(rows)
	}

	for _, p := range r.Problems {
		color.New(color.FgHiYellow).Fprintf(os.Stderr, "warning: %v\n", p)
	}
}

func renderTable(rows [][]string) {
	table := tablewriter.NewWriter(os.Stdout)
	for _, row := range rows {
		if err := table.Append(row); err != nil {
			fmt.Fprintf(os.Stderr, "failed to append row: %v\n", err)
			return
		}
	}
	if err := table.Render(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to render table: %v\n", err)
	}
}

func fatal(err error) {
	color.New(color.FgHiRed, color.Bold).Fprint(os.Stderr, "error: ")
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
