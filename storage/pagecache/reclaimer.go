/*
Memory reclaimer (kswapd).

A single background goroutine sleeps on the pool's reclaim channel. When
GetFreePage finds the free list empty it wakes the reclaimer and blocks; the
reclaimer pushes the buffer cache to give data areas back to the pool and
then wakes the free-page channel itself, covering the case where the releases
alone would not have crossed the wake threshold.
*/
package pagecache

import (
	"sync"

	"github.com/FullOfBytes/Fiwix/logger"
)

// BufferReclaimer is the buffer cache as seen from the reclaimer
type BufferReclaimer interface {
	// Reclaim frees buffer data areas back to the page allocator and
	// returns how many it freed.
	Reclaim() int
}

// Reclaimer is the background memory-reclaim task
type Reclaimer struct {
	pool    *Pool
	buffers BufferReclaimer

	// wake is armed at construction so a wakeup issued before Run first
	// parks is not lost
	wake <-chan struct{}

	mu      sync.Mutex
	stopped bool
}

// NewReclaimer initializes the reclaimer. call Run in its own goroutine.
func NewReclaimer(pool *Pool, buffers BufferReclaimer) *Reclaimer {
	return &Reclaimer{
		pool:    pool,
		buffers: buffers,
		wake:    pool.kswapdWait.Wait(),
	}
}

// Run sleeps until woken, reclaims, and goes back to sleep. returns after Stop.
func (r *Reclaimer) Run() {
	ch := r.wake
	for {
		<-ch
		r.mu.Lock()
		stopped := r.stopped
		r.mu.Unlock()
		if stopped {
			return
		}

		// re-arm before reclaiming so wakeups raised meanwhile are caught
		// by the next round instead of lost
		ch = r.pool.kswapdWait.Wait()

		n := r.buffers.Reclaim()
		logger.Debugf("kswapd: reclaimed %d buffer data areas", n)
		if n > 0 {
			r.pool.freeWait.Wakeup()
		}
	}
}

// Stop makes Run return at its next wakeup
func (r *Reclaimer) Stop() {
	r.mu.Lock()
	r.stopped = true
	r.mu.Unlock()
	r.pool.kswapdWait.Wakeup()
}
