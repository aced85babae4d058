/*
Buffer cache.

The cache keeps an in-memory copy of recently used disk blocks so the
filesystem layer rarely goes to the device. It is shared by every mounted
filesystem and keyed by (device, block, size).

The descriptor arena is fixed at construction. Identities migrate: the same
descriptor slot serves different (dev, block) pairs over its lifetime, and its
data area survives re-identification. Eviction is LRU through the free list:
released buffers go to the tail, victims are taken from the head.

Locking model: one mutex guards every list and every flag word, the
user-space substitute for disabling interrupts. Critical sections
are short and never block. Driver I/O and data-area allocation happen with
the mutex dropped and the buffer's locked bit held; the locked bit serializes
all readers and writers of one (dev, block, size). Blocking happens only on
the two wait channels: the shared buffer-wait channel (locked bit held by
someone else) and the free-buffer channel (free list empty).
*/
package buffer

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/FullOfBytes/Fiwix/common"
	"github.com/FullOfBytes/Fiwix/config"
	"github.com/FullOfBytes/Fiwix/logger"
	"github.com/FullOfBytes/Fiwix/sched"
	"github.com/FullOfBytes/Fiwix/storage/disk"
)

// Cache is the buffer cache
type Cache struct {
	// mu guards the lists, the hash table and every descriptor's flags.
	// it is never held across driver I/O or allocation.
	mu sync.Mutex

	reg   *disk.Registry
	alloc Allocator

	descriptors []*Buf
	// hash holds bucket heads, indexed by (dev XOR block) mod len
	hash []BufID
	// freeHead points into the circular free list; invalidID when empty
	freeHead BufID
	// dirtyHead points to the most recently dirtied buffer
	dirtyHead BufID

	// bufferWait is the shared channel for waiters of any locked buffer
	bufferWait *sched.WaitChannel
	// freeWait is the channel for waiters of an empty free list
	freeWait *sched.WaitChannel

	// syncMu serializes dirty-list traversals; concurrent sync callers queue
	syncMu sync.Mutex

	// nrReclaim bounds how many data areas one reclaim pass frees
	nrReclaim int

	// accounting, guarded by mu
	nrDirty int
	nrData  int
	lookups uint64
	hits    uint64
}

// NewCache initializes the buffer cache.
// every descriptor starts with no data area and sits on the free list.
func NewCache(reg *disk.Registry, alloc Allocator, cfg config.Config) *Cache {
	c := &Cache{
		reg:         reg,
		alloc:       alloc,
		descriptors: make([]*Buf, cfg.NrBuffers),
		hash:        make([]BufID, cfg.NrBufferHash),
		freeHead:    invalidID,
		dirtyHead:   invalidID,
		bufferWait:  sched.NewWaitChannel(),
		freeWait:    sched.NewWaitChannel(),
		nrReclaim:   cfg.NrBufReclaim,
	}
	for i := range c.hash {
		c.hash[i] = invalidID
	}
	for i := range c.descriptors {
		buf := &Buf{
			id:        BufID(i),
			prevFree:  invalidID,
			nextFree:  invalidID,
			prevHash:  invalidID,
			nextHash:  invalidID,
			prevDirty: invalidID,
			nextDirty: invalidID,
		}
		c.descriptors[i] = buf
		c.insertOnFreeList(buf)
	}
	return c
}

/*
Bread returns a locked, valid buffer holding the current contents of the
block, or nil when the device has no driver, the read fails, or memory for
the data area cannot be had. The caller releases with Brelse (clean) or
Bwrite (modified).
*/
func (c *Cache) Bread(dev common.DevID, block common.BlockNo, size int) *Buf {
	drv := c.reg.Get(dev)
	if drv == nil {
		logger.Warnf("bread: device %d,%d not registered", dev.Major(), dev.Minor())
		return nil
	}

	buf := c.getblk(dev, block, size)
	if buf == nil {
		logger.Warnf("bread: returning nil for device %d,%d block %d", dev.Major(), dev.Minor(), block)
		return nil
	}

	c.mu.Lock()
	valid := buf.flags&bufferValid != 0
	c.mu.Unlock()
	if !valid {
		if _, err := drv.ReadBlock(dev, block, buf.data[:size]); err == nil {
			c.mu.Lock()
			buf.flags |= bufferValid
			c.mu.Unlock()
			valid = true
		} else {
			logger.Warnf("bread: read error on device %d,%d block %d: %v", dev.Major(), dev.Minor(), block, err)
		}
	}
	if valid {
		return buf
	}

	c.Brelse(buf)
	logger.Warnf("bread: returning nil for device %d,%d block %d", dev.Major(), dev.Minor(), block)
	return nil
}

// Bwrite marks the buffer dirty and valid, then releases it. the write to
// the device is deferred: the buffer joins the dirty list and is flushed by
// a later Sync, by eviction, or by the reclaimer.
func (c *Cache) Bwrite(buf *Buf) {
	c.mu.Lock()
	buf.flags |= bufferDirty | bufferValid
	c.brelseLocked(buf)
	c.mu.Unlock()
}

// Brelse releases a buffer obtained from Bread: onto the dirty list if dirty
// and not already there, back onto the free list, locked bit cleared, and
// both waiter channels woken.
func (c *Cache) Brelse(buf *Buf) {
	c.mu.Lock()
	c.brelseLocked(buf)
	c.mu.Unlock()
}

// brelseLocked is Brelse with the cache mutex already held
func (c *Cache) brelseLocked(buf *Buf) {
	if buf.flags&bufferDirty != 0 {
		c.insertOnDirtyList(buf)
	}
	c.insertOnFreeList(buf)
	buf.flags &^= bufferLocked
	c.freeWait.Wakeup()
	c.bufferWait.Wakeup()
}

/*
getblk returns a locked descriptor identified by (dev, block, size).

Hash hit: wait out the locked bit, lock, pull off the free list. Miss: take
the LRU victim from the free-list head (sleeping on the free-buffer channel
while the list is empty), flush it synchronously if dirty, give it a data
area if it has none, then re-identify it. If the flush of a dirty victim
fails, the old contents are lost once the identity is overwritten; the
reclaimer avoids the same window by flushing before it frees.

Blocking (victim flush, allocation) drops the cache mutex, so the wanted
identity may appear in the hash meanwhile; the loop re-probes after every
such gap before publishing the new identity, keeping hash lookups unique.
*/
func (c *Cache) getblk(dev common.DevID, block common.BlockNo, size int) *Buf {
	t := tag{dev: dev, block: block, size: size}

	c.mu.Lock()
	defer c.mu.Unlock()
	for {
		c.lookups++
		if buf := c.searchHash(t); buf != nil {
			c.hits++
			if buf.flags&bufferLocked != 0 {
				c.bufferWait.Sleep(&c.mu)
				continue
			}
			buf.flags |= bufferLocked
			c.removeFromFreeList(buf)
			return buf
		}

		buf := c.getFreeBuffer()
		if buf == nil {
			logger.Warnf("getblk: no more buffers on free list")
			c.freeWait.Sleep(&c.mu)
			continue
		}

		if buf.flags&bufferDirty != 0 {
			c.mu.Unlock()
			c.syncOne(buf)
			c.mu.Lock()
		} else if buf.data == nil {
			c.mu.Unlock()
			data := c.alloc.AllocPage()
			c.mu.Lock()
			if data == nil {
				c.brelseLocked(buf)
				logger.Warnf("getblk: out of memory for buffer data area")
				return nil
			}
			buf.data = data
			c.nrData++
		}

		// the mutex was dropped above; someone may have cached the block already
		if c.searchHash(t) != nil {
			c.brelseLocked(buf)
			continue
		}

		c.removeFromHash(buf)
		buf.tag = t
		c.insertToHash(buf)
		buf.flags &^= bufferValid
		return buf
	}
}

// getFreeBuffer takes the LRU victim from the free-list head, locked and
// removed from the list. returns nil when the list is empty. sleeps while
// the head is locked (a buffer being flushed by Sync sits locked on the list).
// expects the cache mutex held.
func (c *Cache) getFreeBuffer() *Buf {
	for {
		if c.freeHead == invalidID {
			return nil
		}
		buf := c.descriptors[c.freeHead]
		if buf.flags&bufferLocked != 0 {
			c.bufferWait.Sleep(&c.mu)
			continue
		}
		c.removeFromFreeList(buf)
		buf.flags |= bufferLocked
		return buf
	}
}

// syncOne writes one dirty buffer to its device and, on success, takes it
// off the dirty list. write protection and I/O errors are logged and leave
// the buffer dirty for a later retry. the buffer must be locked; the cache
// mutex must not be held.
func (c *Cache) syncOne(buf *Buf) {
	drv := c.reg.Get(buf.tag.dev)
	if drv == nil {
		logger.Warnf("sync: block device %d,%d not registered", buf.tag.dev.Major(), buf.tag.dev.Minor())
		return
	}
	if _, err := drv.WriteBlock(buf.tag.dev, buf.tag.block, buf.data[:buf.tag.size]); err != nil {
		if errors.Cause(err) == disk.ErrWriteProtected {
			logger.Warnf("sync: write protection on device %d,%d", buf.tag.dev.Major(), buf.tag.dev.Minor())
		} else {
			logger.Warnf("sync: I/O error on device %d,%d block %d", buf.tag.dev.Major(), buf.tag.dev.Minor(), buf.tag.block)
		}
		return
	}
	c.mu.Lock()
	c.removeFromDirtyList(buf)
	c.mu.Unlock()
}
