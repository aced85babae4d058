package buffer

import (
	"github.com/FullOfBytes/Fiwix/common"
)

/*
Sync flushes every dirty buffer belonging to dev — all devices when dev is
common.NoDev. Buffers made dirty before the call and not re-dirtied are
on-device by the return; buffers whose write fails (write protection, I/O
error) are logged and stay on the dirty list, and the error is not raised
here.

One traversal at a time: concurrent callers queue on the sync mutex. The
traversal captures the next link before waiting on a locked buffer; a buffer
flushed concurrently by eviction merely ends the walk early at a cleared
link, it never corrupts it.
*/
func (c *Cache) Sync(dev common.DevID) {
	c.syncMu.Lock()
	defer c.syncMu.Unlock()

	c.mu.Lock()
	id := c.dirtyHead
	for id != invalidID {
		buf := c.descriptors[id]
		next := buf.nextDirty
		if dev == common.NoDev || buf.tag.dev == dev {
			for buf.flags&bufferLocked != 0 {
				c.bufferWait.Sleep(&c.mu)
			}
			buf.flags |= bufferLocked
			c.mu.Unlock()
			c.syncOne(buf)
			c.mu.Lock()
			buf.flags &^= bufferLocked
			c.bufferWait.Wakeup()
		}
		id = next
	}
	c.mu.Unlock()
}

// Invalidate drops every unlocked buffer of the device from the hash and
// clears its valid bit, so later lookups go back to the device. Nothing is
// written here: a dirty buffer keeps its dirty bit and its place on the dirty
// list, and a later Sync or its eviction still writes it.
func (c *Cache) Invalidate(dev common.DevID) {
	c.mu.Lock()
	for _, buf := range c.descriptors {
		if buf.flags&bufferLocked == 0 && buf.tag.dev == dev {
			buf.flags |= bufferLocked
			c.removeFromHash(buf)
			buf.flags &^= bufferValid | bufferLocked
			c.bufferWait.Wakeup()
		}
	}
	c.mu.Unlock()
}
