package buffer

// Allocator supplies the page-sized data areas that back buffer contents.
// the page pool implements it: buffer data areas and cached file pages draw
// from the same pool of physical pages, which is what makes the reclaim
// back-pressure loop work — when the pool runs dry, the reclaimer frees
// buffer data areas back into it.
type Allocator interface {
	// AllocPage returns one page-sized area, or nil when memory is exhausted.
	// the call may block once for the reclaimer before giving up.
	AllocPage() []byte
	// FreePage returns an area obtained from AllocPage
	FreePage(data []byte)
	// WakeupFreePage wakes callers blocked in AllocPage. the reclaimer calls
	// this after returning data areas to the pool.
	WakeupFreePage()
}
