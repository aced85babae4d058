/*
In-memory block device.

We don't want to execute real disk I/O in tests, so a byte-slice-backed device
is provided next to the file-backed one. The store is sparse: blocks never
written read back as zeros. The device can be flipped read-only to exercise
the write-protected path, and individual blocks can be marked faulty to
exercise the I/O-error path. Per-block access counters are kept because the
cache tests assert how often the driver was actually invoked.
*/
package disk

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/FullOfBytes/Fiwix/common"
)

// MemDisk is a RAM-backed block device driver
type MemDisk struct {
	mu        sync.Mutex
	blockSize int
	blocks    map[common.BlockNo][]byte
	readOnly  bool
	faulty    map[common.BlockNo]bool
	reads     map[common.BlockNo]int
	writes    map[common.BlockNo]int
}

// NewMemDisk initializes an in-memory block device with the given block size
func NewMemDisk(blockSize int) *MemDisk {
	return &MemDisk{
		blockSize: blockSize,
		blocks:    make(map[common.BlockNo][]byte),
		faulty:    make(map[common.BlockNo]bool),
		reads:     make(map[common.BlockNo]int),
		writes:    make(map[common.BlockNo]int),
	}
}

// ReadBlock copies the stored block into dst. unwritten blocks read as zeros.
func (d *MemDisk) ReadBlock(dev common.DevID, block common.BlockNo, dst []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(dst) != d.blockSize {
		return 0, errors.Wrapf(ErrIO, "block size mismatch: got %d, device uses %d", len(dst), d.blockSize)
	}
	d.reads[block]++
	if d.faulty[block] {
		return 0, errors.Wrapf(ErrIO, "faulty block %d", block)
	}
	b, ok := d.blocks[block]
	if !ok {
		for i := range dst {
			dst[i] = 0
		}
		return len(dst), nil
	}
	copy(dst, b)
	return len(dst), nil
}

// WriteBlock stores a copy of src as the block's contents
func (d *MemDisk) WriteBlock(dev common.DevID, block common.BlockNo, src []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(src) != d.blockSize {
		return 0, errors.Wrapf(ErrIO, "block size mismatch: got %d, device uses %d", len(src), d.blockSize)
	}
	d.writes[block]++
	if d.readOnly {
		return 0, errors.Wrapf(ErrWriteProtected, "block %d", block)
	}
	if d.faulty[block] {
		return 0, errors.Wrapf(ErrIO, "faulty block %d", block)
	}
	b := make([]byte, len(src))
	copy(b, src)
	d.blocks[block] = b
	return len(src), nil
}

// SetReadOnly flips write protection on or off
func (d *MemDisk) SetReadOnly(ro bool) {
	d.mu.Lock()
	d.readOnly = ro
	d.mu.Unlock()
}

// SetFaulty marks a block so that any access to it fails with ErrIO
func (d *MemDisk) SetFaulty(block common.BlockNo, faulty bool) {
	d.mu.Lock()
	d.faulty[block] = faulty
	d.mu.Unlock()
}

// Reads returns how many times the block was read
func (d *MemDisk) Reads(block common.BlockNo) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.reads[block]
}

// Writes returns how many times a write was attempted on the block
func (d *MemDisk) Writes(block common.BlockNo) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writes[block]
}

// Peek returns a copy of the block's current contents, or nil if never written.
// test helper; not part of the driver contract.
func (d *MemDisk) Peek(block common.BlockNo) []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	b, ok := d.blocks[block]
	if !ok {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
