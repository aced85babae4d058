/*
Inode and filesystem contracts as the caches see them.

The caches are filesystem-agnostic: everything they need from a concrete
filesystem is an inode identity, a block size, and the bmap operation that
turns a file byte offset into a device block. The Ops interface is that
boundary. Optional capabilities (write, truncate) are modeled as extension
interfaces so a read-only filesystem satisfies Ops with nothing extra.
*/
package fs

import (
	"sync"
	"time"

	"github.com/FullOfBytes/Fiwix/common"
)

// Superblock carries the per-mount facts the cache glue needs
type Superblock struct {
	// Dev is the mounted device
	Dev common.DevID
	// BlockSize is the filesystem block size in bytes.
	// the page size must be a multiple of it.
	BlockSize int
}

// BmapMode selects whether bmap may allocate
type BmapMode int

const (
	// ForReading never allocates; 0 means the range is a hole
	ForReading BmapMode = iota
	// ForWriting allocates a block for the range if none is mapped yet
	ForWriting
)

// Ops is the per-filesystem contract
type Ops interface {
	// Bmap maps a file byte offset to a device block number.
	// a result of 0 under ForReading denotes a hole.
	Bmap(i *Inode, offset int64, mode BmapMode) (common.BlockNo, error)
}

// Writer is the optional write capability of a filesystem.
// the mm layer's write-page path needs it; filesystems without it make
// WritePage fail with ErrInvalid.
type Writer interface {
	Write(i *Inode, fd *FD, src []byte) (int, error)
}

// Truncater is the optional truncate capability, used by open with OTrunc
type Truncater interface {
	Truncate(i *Inode, size int64) error
}

// Inode is one in-memory inode
type Inode struct {
	mu sync.Mutex

	// Ino and Dev jointly name the file
	Ino common.Ino
	Dev common.DevID

	// Size is the current file size in bytes
	Size int64

	// Sb is the mount's superblock
	Sb *Superblock

	// Mtime and Ctime are touched by the write glue
	Mtime time.Time
	Ctime time.Time

	// Dirty is set when the inode needs writing back
	Dirty bool

	// Ops is the owning filesystem
	Ops Ops
}

// Lock acquires the inode lock. lock order is inode, then page, then buffer.
func (i *Inode) Lock() {
	i.mu.Lock()
}

// Unlock releases the inode lock
func (i *Inode) Unlock() {
	i.mu.Unlock()
}
