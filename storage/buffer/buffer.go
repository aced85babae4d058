/*
Buffer descriptor.

A descriptor names one cached disk block: the (device, block, size) triple,
the lazily allocated data area holding the block contents, the state flags,
and three sets of list links. The links are descriptor indices into the
cache's arena rather than pointers; removal stays O(1) and nothing on these
hot paths allocates.

Flags:
- valid: the data area mirrors the last read or write for this identity.
  a fresh or re-identified descriptor is not valid until populated.
- locked: a caller owns the buffer. everyone else sleeps on the shared
  buffer-wait channel and retries.
- dirty: the data area is newer than the device. the buffer joins the dirty
  list on release and leaves it when a write-back succeeds.
*/
package buffer

import "github.com/FullOfBytes/Fiwix/common"

// BufID is the index of a descriptor in the cache's arena
type BufID int32

// invalidID terminates every list link
const invalidID BufID = -1

const (
	bufferValid  uint32 = 0x01
	bufferLocked uint32 = 0x02
	bufferDirty  uint32 = 0x04
)

// tag identifies the on-device location of the cached block.
// size is part of the identity: the same (dev, block) cached at two block
// sizes is two distinct buffers.
type tag struct {
	dev   common.DevID
	block common.BlockNo
	size  int
}

// Buf is one buffer descriptor
type Buf struct {
	id  BufID
	tag tag

	// data holds the block contents. nil until first use; the reclaimer may
	// free it again, returning the descriptor to its fresh state.
	data []byte

	flags uint32

	// free list links (circular, doubly linked, with an explicit head)
	prevFree, nextFree BufID
	// hash chain links
	prevHash, nextHash BufID
	// dirty list links
	prevDirty, nextDirty BufID
}

// Data returns the block contents.
// only valid while the caller holds the buffer (between Bread and Brelse/Bwrite).
func (b *Buf) Data() []byte {
	return b.data
}

// Dev returns the buffer's device id
func (b *Buf) Dev() common.DevID {
	return b.tag.dev
}

// Block returns the buffer's block number
func (b *Buf) Block() common.BlockNo {
	return b.tag.block
}

// Size returns the buffer's block size in bytes
func (b *Buf) Size() int {
	return b.tag.size
}
