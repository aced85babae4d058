package disk

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/FullOfBytes/Fiwix/common"
)

// Registry maps major numbers to registered block-device drivers.
// lookups on the hot path (every bread, every dirty flush) take a read lock only.
type Registry struct {
	mu      sync.RWMutex
	drivers map[uint32]Driver
}

// NewRegistry initializes an empty driver registry
func NewRegistry() *Registry {
	return &Registry{
		drivers: make(map[uint32]Driver),
	}
}

// Register registers drv for every device with the given major number.
// registering the same major twice is an error.
func (r *Registry) Register(major uint32, drv Driver) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.drivers[major]; ok {
		return errors.Errorf("block device major %d already registered", major)
	}
	r.drivers[major] = drv
	return nil
}

// Get returns the driver registered for the device's major number,
// or nil when no driver is registered. callers log and fail the operation;
// a missing driver is not a panic.
func (r *Registry) Get(dev common.DevID) Driver {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.drivers[dev.Major()]
}
