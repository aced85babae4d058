package pagecache

// Stats is a point-in-time snapshot of pool accounting
type Stats struct {
	// FreePages is the number of pages on the free list
	FreePages int
	// CachedPages is the number of pages currently in the hash
	CachedPages int
}

// Stats returns a snapshot of the pool counters
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{
		FreePages:   p.freeCount,
		CachedPages: p.cached,
	}
}
