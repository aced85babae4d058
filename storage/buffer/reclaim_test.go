package buffer

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/FullOfBytes/Fiwix/common"
)

func TestReclaimFreesDataAreas(t *testing.T) {
	c, md := TestingNewCache(8, 512)

	for _, blk := range []common.BlockNo{1, 2, 3, 4, 5} {
		buf := c.Bread(testDev, blk, 512)
		c.Brelse(buf)
	}
	assert.Equal(t, 5, c.Stats().DataAreas)

	n := c.Reclaim()

	assert.Equal(t, 5, n)
	assert.Equal(t, 0, c.Stats().DataAreas)
	alloc := c.alloc.(*testingAllocator)
	assert.Equal(t, 5, alloc.frees)

	// reclaimed buffers left the hash: a re-read hits the driver again
	buf := c.Bread(testDev, 1, 512)
	c.Brelse(buf)
	assert.Equal(t, 2, md.Reads(1))
}

func TestReclaimBounded(t *testing.T) {
	c, _ := TestingNewCache(8, 512)
	c.nrReclaim = 2

	for _, blk := range []common.BlockNo{1, 2, 3, 4, 5} {
		buf := c.Bread(testDev, blk, 512)
		c.Brelse(buf)
	}

	assert.Equal(t, 2, c.Reclaim())
	assert.Equal(t, 3, c.Stats().DataAreas)
}

func TestReclaimTerminatesWithNothingToFree(t *testing.T) {
	// a cache full of fresh descriptors has no data areas; the pass must
	// stop after one full rotation
	c, _ := TestingNewCache(8, 512)
	assert.Equal(t, 0, c.Reclaim())
	assert.Equal(t, 8, freeListLen(c))
}

func TestReclaimFlushesDirtyFirst(t *testing.T) {
	c, md := TestingNewCache(8, 512)
	src := bytes.Repeat([]byte{0xEE}, 512)

	buf := c.Bread(testDev, 3, 512)
	copy(buf.Data(), src)
	c.Bwrite(buf)

	c.Reclaim()

	// the dirty contents reached the device before the data area was freed
	assert.Equal(t, 1, md.Writes(3))
	assert.Equal(t, src, md.Peek(3))
	assert.Equal(t, 0, c.Stats().DirtyBuffers)
}
