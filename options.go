package gpuboot

import (
	"github.com/gogpu/gputypes"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/gogpu/gpuboot/backend"
)

// Default labels given to the device and its queue.
const (
	DefaultDeviceLabel = "gpuboot device"
	DefaultQueueLabel  = "The default queue"
)

// SurfaceConfig describes how the surface presents.
type SurfaceConfig struct {
	Format      gputypes.TextureFormat
	Usage       gputypes.TextureUsage
	Width       uint32
	Height      uint32
	PresentMode backend.PresentMode
}

// DefaultSurfaceConfig returns a 640x480 BGRA8Unorm render-attachment
// configuration presenting in FIFO order.
func DefaultSurfaceConfig() SurfaceConfig {
	return SurfaceConfig{
		Format:      gputypes.TextureFormatBGRA8Unorm,
		Usage:       gputypes.TextureUsageRenderAttachment,
		Width:       640,
		Height:      480,
		PresentMode: backend.PresentModeFifo,
	}
}

// Option configures a Manager during creation.
//
// Example:
//
//	m := gpuboot.New(b, win,
//	    gpuboot.WithLabel("editor"),
//	    gpuboot.WithSurfaceConfig(cfg),
//	)
type Option func(*config)

// config holds the Manager configuration.
type config struct {
	label            string
	queueLabel       string
	surface          SurfaceConfig
	sizeFromWindow   bool
	requiredFeatures []backend.FeatureName
	requiredLimits   *backend.Limits
	pump             *bool
	inspect          bool
	registerer       prometheus.Registerer
	powerPreference  backend.PowerPreference
	immediateErrors  bool
}

// defaultConfig returns the default Manager configuration.
func defaultConfig() config {
	return config{
		label:          DefaultDeviceLabel,
		queueLabel:     DefaultQueueLabel,
		surface:        DefaultSurfaceConfig(),
		sizeFromWindow: true,
	}
}

// WithLabel sets the device label used in backend diagnostics.
func WithLabel(label string) Option {
	return func(c *config) {
		c.label = label
	}
}

// WithQueueLabel sets the label of the default queue.
func WithQueueLabel(label string) Option {
	return func(c *config) {
		c.queueLabel = label
	}
}

// WithSurfaceConfig sets the surface configuration applied during Init.
// Zero Width or Height are taken from the window size.
func WithSurfaceConfig(sc SurfaceConfig) Option {
	return func(c *config) {
		c.surface = sc
		c.sizeFromWindow = sc.Width == 0 || sc.Height == 0
	}
}

// WithRequiredFeatures lists optional features the device must support.
// By default no optional feature is required.
func WithRequiredFeatures(features ...backend.FeatureName) Option {
	return func(c *config) {
		c.requiredFeatures = append([]backend.FeatureName(nil), features...)
	}
}

// WithRequiredLimits overrides the implementation default limits.
func WithRequiredLimits(limits backend.Limits) Option {
	return func(c *config) {
		c.requiredLimits = &limits
	}
}

// WithPumpWhileWaiting forces the request wait strategy. Without this option
// the backend's Traits decide.
func WithPumpWhileWaiting(pump bool) Option {
	return func(c *config) {
		c.pump = &pump
	}
}

// WithInspection logs capability reports of the adapter and the device
// during Init and keeps them for Manager.AdapterReport and DeviceReport.
func WithInspection(enabled bool) Option {
	return func(c *config) {
		c.inspect = enabled
	}
}

// WithMetrics registers the Manager's collectors with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(c *config) {
		c.registerer = reg
	}
}

// WithPowerPreference hints which adapter class to prefer.
func WithPowerPreference(p backend.PowerPreference) Option {
	return func(c *config) {
		c.powerPreference = p
	}
}

// WithImmediateErrors asks the backend to report uncaptured errors as soon
// as they occur instead of on the next device tick.
func WithImmediateErrors(enabled bool) Option {
	return func(c *config) {
		c.immediateErrors = enabled
	}
}
