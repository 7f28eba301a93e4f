package suite

import "sync"

// Host is one execution context. It holds at most one Bus so that every
// application sharing the context uses the same instance.
type Host struct {
	mu  sync.Mutex
	bus *Bus
}

// Install builds the bus with factory on the first call. Later calls return the
// existing bus with installed=false and do not call factory. A failed factory
// leaves the host empty.
func (h *Host) Install(factory func() (*Bus, error)) (bus *Bus, installed bool, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.bus != nil {
		return h.bus, false, nil
	}
	bus, err = factory()
	if err != nil {
		return nil, false, err
	}
	h.bus = bus
	return bus, true, nil
}

// Bus returns the installed bus or nil.
func (h *Host) Bus() *Bus {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.bus
}
