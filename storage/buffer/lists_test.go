package buffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// freeListLen walks the circular free list. tests are single-threaded so no
// locking is needed.
func freeListLen(c *Cache) int {
	if c.freeHead == invalidID {
		return 0
	}
	n := 0
	id := c.freeHead
	for {
		n++
		id = c.descriptors[id].nextFree
		if id == c.freeHead {
			break
		}
	}
	return n
}

func dirtyListLen(c *Cache) int {
	n := 0
	for id := c.dirtyHead; id != invalidID; id = c.descriptors[id].nextDirty {
		n++
	}
	return n
}

func TestFreeListHoldsEveryUnlockedBuffer(t *testing.T) {
	c, _ := TestingNewCache(4, 512)
	assert.Equal(t, 4, freeListLen(c))

	// a held buffer is off the list; releasing it reinserts it
	buf := c.Bread(testDev, 1, 512)
	assert.Equal(t, 3, freeListLen(c))
	c.Brelse(buf)
	assert.Equal(t, 4, freeListLen(c))
}

func TestFreeListDrainsToEmpty(t *testing.T) {
	c, _ := TestingNewCache(2, 512)

	a := c.Bread(testDev, 1, 512)
	b := c.Bread(testDev, 2, 512)
	assert.Equal(t, 0, freeListLen(c))
	assert.Equal(t, invalidID, c.freeHead)

	c.Brelse(a)
	c.Brelse(b)
	assert.Equal(t, 2, freeListLen(c))
}

func TestInvalidReleaseBecomesFreeListHead(t *testing.T) {
	c, _ := TestingNewCache(4, 512)

	buf := c.Bread(testDev, 1, 512)
	id := buf.id
	// drop the valid bit: the release must place the buffer at the head so
	// it is the next victim
	c.mu.Lock()
	buf.flags &^= bufferValid
	c.mu.Unlock()
	c.Brelse(buf)

	assert.Equal(t, id, c.freeHead)
}

func TestValidReleaseGoesToTail(t *testing.T) {
	c, _ := TestingNewCache(4, 512)

	buf := c.Bread(testDev, 1, 512)
	id := buf.id
	c.Brelse(buf)

	assert.NotEqual(t, id, c.freeHead)
	tail := c.descriptors[c.freeHead].prevFree
	assert.Equal(t, id, tail)
}

func TestHashUniqueness(t *testing.T) {
	c, _ := TestingNewCache(4, 512)

	a := c.Bread(testDev, 1, 512)
	idA := a.id
	c.Brelse(a)
	b := c.Bread(testDev, 1, 512)
	assert.Equal(t, idA, b.id)
	c.Brelse(b)

	// same (dev, block) at a different size is a distinct buffer.
	// getblk directly: the test device only serves 512-byte reads.
	d := c.getblk(testDev, 1, 256)
	assert.NotEqual(t, idA, d.id)
	c.Brelse(d)
}

func TestDirtyListSingleMembership(t *testing.T) {
	c, _ := TestingNewCache(4, 512)

	// dirtying the same buffer twice must not double-insert it, even while
	// it is the lone dirty-list head
	buf := c.Bread(testDev, 1, 512)
	c.Bwrite(buf)
	assert.Equal(t, 1, dirtyListLen(c))

	buf = c.Bread(testDev, 1, 512)
	c.Bwrite(buf)
	assert.Equal(t, 1, dirtyListLen(c))

	// and the list stays terminated: a second dirty buffer links cleanly
	buf = c.Bread(testDev, 2, 512)
	c.Bwrite(buf)
	assert.Equal(t, 2, dirtyListLen(c))
}
