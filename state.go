package gpuboot

// State is a Manager lifecycle state.
type State uint8

// Lifecycle states, in acquisition order.
const (
	StateUninitialized State = iota
	StateConnectionOpen
	StateSurfaceBound
	StateAdapterSelected
	StateDeviceAcquired
	StateQueueReady
	StateSurfaceConfigured
	StateRunning
	StateTearingDown
	StateClosed
)

var stateNames = [...]string{
	StateUninitialized:     "Uninitialized",
	StateConnectionOpen:    "ConnectionOpen",
	StateSurfaceBound:      "SurfaceBound",
	StateAdapterSelected:   "AdapterSelected",
	StateDeviceAcquired:    "DeviceAcquired",
	StateQueueReady:        "QueueReady",
	StateSurfaceConfigured: "SurfaceConfigured",
	StateRunning:           "Running",
	StateTearingDown:       "TearingDown",
	StateClosed:            "Closed",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "Invalid"
}
