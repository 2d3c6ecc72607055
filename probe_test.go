package gpuboot

import (
	"context"
	"errors"
	"testing"

	"github.com/gogpu/gpuboot/backend"
	"github.com/gogpu/gpuboot/internal/gputest"
)

func TestProbe(t *testing.T) {
	b := gputest.New(gputest.DefaultScript())

	res, err := Probe(context.Background(), b, WithPowerPreference(backend.PowerPreferenceHighPerformance))
	if err != nil {
		t.Fatalf("Probe() error = %v", err)
	}
	if res.Backend != "gputest" {
		t.Errorf("Backend = %q", res.Backend)
	}
	if res.Adapter == nil || res.Adapter.Kind != ReportAdapter {
		t.Fatalf("Adapter report = %+v", res.Adapter)
	}
	if res.Adapter.Properties == nil || res.Adapter.Properties.Name != "gputest adapter" {
		t.Errorf("Adapter properties = %+v", res.Adapter.Properties)
	}
	if res.Device == nil || res.Device.Kind != ReportDevice {
		t.Fatalf("Device report = %+v", res.Device)
	}
	if len(res.Device.Features) != 1 {
		t.Errorf("Device features = %v, want 1 entry", res.Device.Features)
	}
	if got := b.AdapterOptions().PowerPreference; got != backend.PowerPreferenceHighPerformance {
		t.Errorf("PowerPreference = %v", got)
	}
	if b.AdapterOptions().CompatibleSurface != nil {
		t.Error("Probe passed a surface hint")
	}
	assertJournal(t, b, []string{"release instance", "release adapter", "release device"})
}

func TestProbeFailures(t *testing.T) {
	tests := []struct {
		name        string
		script      func(*gputest.Script)
		wantErr     error
		wantStep    State
		wantAdapter bool
		wantJournal []string
	}{
		{
			name:        "instance",
			script:      func(s *gputest.Script) { s.InstanceErr = gputest.ErrInstance },
			wantErr:     ErrConnectionUnavailable,
			wantStep:    StateConnectionOpen,
			wantJournal: nil,
		},
		{
			name: "adapter",
			script: func(s *gputest.Script) {
				s.AdapterStatus = backend.RequestStatusUnavailable
				s.AdapterMessage = "no adapters"
			},
			wantErr:     ErrAdapterRequestFailed,
			wantStep:    StateAdapterSelected,
			wantJournal: []string{"release instance"},
		},
		{
			name: "device",
			script: func(s *gputest.Script) {
				s.DeviceStatus = backend.RequestStatusError
				s.DeviceMessage = "limits exceeded"
			},
			wantErr:     ErrDeviceRequestFailed,
			wantStep:    StateDeviceAcquired,
			wantAdapter: true,
			wantJournal: []string{"release instance", "release adapter"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			script := gputest.DefaultScript()
			tt.script(&script)
			b := gputest.New(script)

			res, err := Probe(context.Background(), b)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Probe() error = %v, want %v", err, tt.wantErr)
			}
			var ie *InitError
			if !errors.As(err, &ie) || ie.Step != tt.wantStep {
				t.Errorf("InitError = %+v, want step %v", ie, tt.wantStep)
			}
			if got := res != nil && res.Adapter != nil; got != tt.wantAdapter {
				t.Errorf("adapter report present = %v, want %v", got, tt.wantAdapter)
			}
			assertJournal(t, b, tt.wantJournal)
		})
	}
}
