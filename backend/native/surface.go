//go:build !nogpu

package native

import (
	"fmt"
	"sync"

	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gpuboot/backend"
)

// Surface wraps a HAL surface.
type Surface struct {
	shared *sharedInstance
	raw    hal.Surface

	mu         sync.Mutex
	configured hal.Device
	released   bool
}

var presentModes = map[backend.PresentMode]hal.PresentMode{
	backend.PresentModeFifo:        hal.PresentModeFifo,
	backend.PresentModeFifoRelaxed: hal.PresentModeFifoRelaxed,
	backend.PresentModeImmediate:   hal.PresentModeImmediate,
	backend.PresentModeMailbox:     hal.PresentModeMailbox,
}

// Configure implements backend.Surface. The device must come from this package.
func (s *Surface) Configure(config *backend.SurfaceConfiguration) error {
	dev, ok := config.Device.(*Device)
	if !ok || dev == nil {
		return fmt.Errorf("%w: %T", ErrForeignDevice, config.Device)
	}
	if dev.destroyed.Load() {
		return backend.ErrReleased
	}
	mode, ok := presentModes[config.PresentMode]
	if !ok {
		return fmt.Errorf("native: unsupported present mode %v", config.PresentMode)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return backend.ErrReleased
	}
	err := s.raw.Configure(dev.raw, &hal.SurfaceConfiguration{
		Width:       config.Width,
		Height:      config.Height,
		Format:      config.Format,
		Usage:       config.Usage,
		PresentMode: mode,
	})
	if err != nil {
		return fmt.Errorf("native: configure surface: %w", err)
	}
	s.configured = dev.raw
	slogger().Debug("native: surface configured",
		"width", config.Width, "height", config.Height, "present_mode", config.PresentMode)
	return nil
}

// Unconfigure implements backend.Surface.
func (s *Surface) Unconfigure() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.configured == nil {
		return
	}
	s.raw.Unconfigure(s.configured)
	s.configured = nil
}

// Release implements backend.Surface.
func (s *Surface) Release() {
	s.mu.Lock()
	if s.released {
		s.mu.Unlock()
		return
	}
	s.released = true
	if s.configured != nil {
		s.raw.Unconfigure(s.configured)
		s.configured = nil
	}
	s.raw.Destroy()
	s.mu.Unlock()
	s.shared.release()
}
