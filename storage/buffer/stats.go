package buffer

// Stats is a point-in-time snapshot of cache accounting
type Stats struct {
	// DirtyBuffers is the number of buffers currently on the dirty list
	DirtyBuffers int
	// DataAreas is the number of descriptors currently owning a data area
	DataAreas int
	// Lookups counts hash probes in getblk
	Lookups uint64
	// Hits counts probes that found the identity cached
	Hits uint64
}

// Stats returns a snapshot of the cache counters
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		DirtyBuffers: c.nrDirty,
		DataAreas:    c.nrData,
		Lookups:      c.lookups,
		Hits:         c.hits,
	}
}
