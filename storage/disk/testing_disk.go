package disk

// TestingNewRegistry initializes a registry with one MemDisk registered at
// the given major number. this is the setup almost every cache test starts from.
func TestingNewRegistry(major uint32, blockSize int) (*Registry, *MemDisk) {
	reg := NewRegistry()
	md := NewMemDisk(blockSize)
	// registering into a fresh registry cannot collide
	_ = reg.Register(major, md)
	return reg, md
}
