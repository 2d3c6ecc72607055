//go:build !nogpu

package native

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/gpuboot/backend"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

func init() {
	backend.Register(backend.BackendNative, func() backend.Backend { return NewVulkan() })
	backend.Register(backend.BackendNoop, func() backend.Backend { return NewNoop() })
}

// instanceCreator is the part of a HAL API that opens instances.
type instanceCreator interface {
	CreateInstance(desc *hal.InstanceDescriptor) (hal.Instance, error)
}

// Backend opens connections to one HAL API.
type Backend struct {
	name        string
	backendType backend.BackendType
	open        func() (hal.Instance, error)
}

// NewVulkan returns a backend on the Vulkan HAL.
func NewVulkan() *Backend {
	return &Backend{
		name:        backend.BackendNative,
		backendType: backend.BackendTypeVulkan,
		open: func() (hal.Instance, error) {
			api, ok := hal.GetBackend(gputypes.BackendVulkan)
			if !ok {
				return nil, fmt.Errorf("%w: vulkan", ErrHALUnavailable)
			}
			return api.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
		},
	}
}

// NewNoop returns a backend on the no-op HAL. Every operation succeeds and
// nothing reaches a GPU.
func NewNoop() *Backend {
	return newFromAPI(backend.BackendNoop, backend.BackendTypeNull, &noop.API{})
}

func newFromAPI(name string, bt backend.BackendType, api instanceCreator) *Backend {
	return &Backend{
		name:        name,
		backendType: bt,
		open: func() (hal.Instance, error) {
			return api.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
		},
	}
}

// Name implements backend.Backend.
func (b *Backend) Name() string { return b.name }

// Traits implements backend.Backend. HAL requests complete on their own
// goroutines.
func (b *Backend) Traits() backend.Traits { return backend.Traits{} }

// SetLogger routes the package's log records to l.
func (b *Backend) SetLogger(l *slog.Logger) { setLogger(l) }

// CreateInstance implements backend.Backend.
//
// The HAL reports errors as they happen, so ImmediateErrors needs no
// translation.
func (b *Backend) CreateInstance(desc *backend.InstanceDescriptor) (backend.Instance, error) {
	raw, err := b.open()
	if err != nil {
		return nil, fmt.Errorf("native: create %s instance: %w", b.name, err)
	}
	shared := &sharedInstance{raw: raw, name: b.name}
	shared.refs.Store(1)
	slogger().Debug("native: instance created", "backend", b.name)
	return &Instance{shared: shared, backendType: b.backendType}, nil
}

// sharedInstance keeps the HAL instance alive while any object obtained
// from it is held.
type sharedInstance struct {
	raw  hal.Instance
	name string
	refs atomic.Int32
}

func (s *sharedInstance) acquire() { s.refs.Add(1) }

func (s *sharedInstance) release() {
	if s.refs.Add(-1) == 0 {
		s.raw.Destroy()
		slogger().Debug("native: instance destroyed", "backend", s.name)
	}
}
