package buffer

import (
	"github.com/FullOfBytes/Fiwix/config"
	"github.com/FullOfBytes/Fiwix/storage/disk"
)

// testingAllocator is an unbounded page allocator for tests that don't
// exercise memory pressure.
type testingAllocator struct {
	pageSize int
	frees    int
}

func (a *testingAllocator) AllocPage() []byte {
	return make([]byte, a.pageSize)
}

func (a *testingAllocator) FreePage(data []byte) {
	a.frees++
}

func (a *testingAllocator) WakeupFreePage() {}

// nullAllocator always reports out of memory
type nullAllocator struct{}

func (nullAllocator) AllocPage() []byte    { return nil }
func (nullAllocator) FreePage(data []byte) {}
func (nullAllocator) WakeupFreePage()      {}

// TestingNewCache initializes a cache over one MemDisk with nrBuffers
// descriptors. the returned MemDisk is registered at major 1.
func TestingNewCache(nrBuffers, blockSize int) (*Cache, *disk.MemDisk) {
	reg, md := disk.TestingNewRegistry(1, blockSize)
	cfg := config.Default()
	cfg.NrBuffers = nrBuffers
	c := NewCache(reg, &testingAllocator{pageSize: cfg.PageSize}, cfg)
	return c, md
}
