package gpuboot

import (
	"errors"
	"reflect"
	"testing"

	"github.com/gogpu/gpuboot/backend"
	"github.com/gogpu/gpuboot/internal/gputest"
)

// sliceEnumerator implements the two-call protocol over a fixed list and
// counts calls.
type sliceEnumerator struct {
	features []backend.FeatureName
	calls    int
	short    int
}

func (s *sliceEnumerator) enumerate(out []backend.FeatureName) int {
	s.calls++
	if out == nil {
		return len(s.features)
	}
	return copy(out, s.features) - s.short
}

func TestEnumerateFeatures(t *testing.T) {
	tests := []struct {
		name      string
		features  []backend.FeatureName
		short     int
		want      []backend.FeatureName
		wantCalls int
		wantErr   bool
	}{
		{"empty", nil, 0, nil, 1, false},
		{"three", []backend.FeatureName{3, 1, 2}, 0, []backend.FeatureName{3, 1, 2}, 2, false},
		{"short fill", []backend.FeatureName{3, 1, 2}, 1, []backend.FeatureName{3, 1}, 2, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &sliceEnumerator{features: tt.features, short: tt.short}
			got, err := enumerateFeatures(e.enumerate)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrFeatureQueryAllocationFailed) {
				t.Errorf("error = %v, want ErrFeatureQueryAllocationFailed", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("features = %v, want %v", got, tt.want)
			}
			if e.calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", e.calls, tt.wantCalls)
			}
		})
	}
}

func TestEnumerateFeaturesNegativeCount(t *testing.T) {
	_, err := enumerateFeatures(func([]backend.FeatureName) int { return -1 })
	if !errors.Is(err, ErrFeatureQueryAllocationFailed) {
		t.Errorf("error = %v, want ErrFeatureQueryAllocationFailed", err)
	}
}

// newFakeAdapter returns an adapter from a gputest backend following script.
func newFakeAdapter(t *testing.T, script gputest.Script) backend.Adapter {
	t.Helper()
	b := gputest.New(script)
	inst, err := b.CreateInstance(&backend.InstanceDescriptor{})
	if err != nil {
		t.Fatal(err)
	}
	defer inst.Release()

	var adapter backend.Adapter
	inst.RequestAdapter(&backend.RequestAdapterOptions{}, func(_ backend.RequestStatus, a backend.Adapter, _ string) {
		adapter = a
	})
	if adapter == nil {
		t.Fatal("no adapter")
	}
	t.Cleanup(adapter.Release)
	return adapter
}

func TestDescribeAdapter(t *testing.T) {
	script := gputest.DefaultScript()
	adapter := newFakeAdapter(t, script)

	r := DescribeAdapter(adapter)
	if r.Kind != ReportAdapter {
		t.Errorf("Kind = %v, want adapter", r.Kind)
	}
	if !reflect.DeepEqual(r.Features, script.AdapterFeatures) {
		t.Errorf("Features = %v, want %v", r.Features, script.AdapterFeatures)
	}
	if r.Limits == nil || !reflect.DeepEqual(*r.Limits, script.Limits) {
		t.Errorf("Limits = %+v, want %+v", r.Limits, script.Limits)
	}
	if r.Properties == nil || r.Properties.Name != "gputest adapter" {
		t.Errorf("Properties = %+v", r.Properties)
	}
	if len(r.Problems) != 0 {
		t.Errorf("Problems = %v, want none", r.Problems)
	}
	if entries := r.LimitEntries(); len(entries) == 0 || entries[1].Name != "maxTextureDimension2D" {
		t.Errorf("LimitEntries() = %v", entries)
	}
}

func TestDescribeAdapterIdempotent(t *testing.T) {
	adapter := newFakeAdapter(t, gputest.DefaultScript())

	first := DescribeAdapter(adapter)
	second := DescribeAdapter(adapter)
	if !reflect.DeepEqual(first.Features, second.Features) {
		t.Errorf("features differ: %v vs %v", first.Features, second.Features)
	}
	if !reflect.DeepEqual(first.Limits, second.Limits) {
		t.Error("limits differ between calls")
	}
	if !reflect.DeepEqual(first.Properties, second.Properties) {
		t.Error("properties differ between calls")
	}
}

func TestDescribeAdapterLimitsFailure(t *testing.T) {
	script := gputest.DefaultScript()
	script.LimitsFail = true
	adapter := newFakeAdapter(t, script)

	r := DescribeAdapter(adapter)
	if r.Limits != nil {
		t.Errorf("Limits = %+v, want nil", r.Limits)
	}
	if r.LimitEntries() != nil {
		t.Error("LimitEntries() should be nil without limits")
	}
	if len(r.Features) != len(script.AdapterFeatures) {
		t.Errorf("Features = %v, want the full list", r.Features)
	}
}

func TestDescribeAdapterFeatureShortfall(t *testing.T) {
	script := gputest.DefaultScript()
	script.FeatureShortfall = 1
	adapter := newFakeAdapter(t, script)

	r := DescribeAdapter(adapter)
	if len(r.Problems) != 1 || !errors.Is(r.Problems[0], ErrFeatureQueryAllocationFailed) {
		t.Fatalf("Problems = %v, want one ErrFeatureQueryAllocationFailed", r.Problems)
	}
	if r.Limits == nil || r.Properties == nil {
		t.Error("a feature query problem must not drop the rest of the report")
	}
}

func TestReportLogValue(t *testing.T) {
	r := &Report{Kind: ReportDevice, Features: []backend.FeatureName{1, 2}}
	v := r.LogValue()
	attrs := v.Group()
	if len(attrs) == 0 || attrs[0].Key != "kind" || attrs[0].Value.String() != "device" {
		t.Errorf("LogValue() = %v", v)
	}
}
