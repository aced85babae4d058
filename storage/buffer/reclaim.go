package buffer

import (
	"github.com/FullOfBytes/Fiwix/logger"
)

/*
Reclaim hands buffer data areas back to the page allocator. The memory
reclaimer calls it when the machine runs out of free pages.

The walk starts at the free-list head and proceeds in LRU order. Every
visited buffer is flushed first if dirty, then marked valid so its release
lands at the tail — the rotation marker that guarantees one full traversal at
most: seeing the first visited buffer again means the list has wrapped. A
buffer that owns a data area loses it and leaves the hash; its valid bit is
deliberately left set (tail placement), which is harmless because the
descriptor is no longer reachable through the hash.

The pass stops after nrReclaim data areas or one full rotation, whichever
comes first, and wakes the free-page channel if it made progress — covering
the case where no release would have done it.
*/
func (c *Cache) Reclaim() int {
	reclaimed := 0
	var first *Buf

	c.mu.Lock()
	for {
		buf := c.getFreeBuffer()
		if buf == nil {
			logger.Warnf("reclaim: no more buffers on free list")
			c.freeWait.Sleep(&c.mu)
			continue
		}

		if buf.flags&bufferDirty != 0 {
			c.mu.Unlock()
			c.syncOne(buf)
			c.mu.Lock()
		}

		// push to the tail on release so the walk cannot revisit it
		buf.flags |= bufferValid

		if first != nil {
			if first == buf {
				c.brelseLocked(buf)
				break
			}
		} else {
			first = buf
		}

		if buf.data != nil {
			// a failed flush above leaves the buffer dirty; its contents are
			// about to be freed, so take it off the dirty list rather than
			// leave a write-back pointing at nothing
			if buf.flags&bufferDirty != 0 {
				c.removeFromDirtyList(buf)
			}
			data := buf.data
			buf.data = nil
			c.nrData--
			c.removeFromHash(buf)
			c.mu.Unlock()
			c.alloc.FreePage(data)
			c.mu.Lock()
			reclaimed++
			if reclaimed == c.nrReclaim {
				c.brelseLocked(buf)
				break
			}
		}
		c.brelseLocked(buf)
	}
	c.mu.Unlock()

	c.bufferWait.Wakeup()
	if reclaimed > 0 {
		c.alloc.WakeupFreePage()
	}
	return reclaimed
}
