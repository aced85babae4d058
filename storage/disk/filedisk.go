/*
File-backed block device.

A flat file is treated as an array of blocks. Reads past the current end of
file are zero-filled instead of failing, so a freshly created image behaves
like a zeroed disk. Writes extend the file as needed.
*/
package disk

import (
	"io"
	"os"
	"sync"

	"github.com/pkg/errors"

	"github.com/FullOfBytes/Fiwix/common"
)

// FileDisk is a block device backed by a single flat file
type FileDisk struct {
	mu       sync.Mutex
	f        *os.File
	readOnly bool
}

// OpenFileDisk opens (or creates) the image file at path
func OpenFileDisk(path string, readOnly bool) (*FileDisk, error) {
	flag := os.O_RDWR | os.O_CREATE
	if readOnly {
		flag = os.O_RDONLY
	}
	f, err := os.OpenFile(path, flag, 0600)
	if err != nil {
		return nil, errors.Wrap(err, "os.OpenFile failed")
	}
	return &FileDisk{f: f, readOnly: readOnly}, nil
}

// ReadBlock reads the block at block*len(dst). short reads at end of file
// are zero-filled.
func (d *FileDisk) ReadBlock(dev common.DevID, block common.BlockNo, dst []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	off := int64(block) * int64(len(dst))
	n, err := d.f.ReadAt(dst, off)
	if err != nil && err != io.EOF {
		return 0, errors.Wrapf(ErrIO, "ReadAt block %d: %v", block, err)
	}
	for i := n; i < len(dst); i++ {
		dst[i] = 0
	}
	return len(dst), nil
}

// WriteBlock writes the block at block*len(src), extending the file if needed
func (d *FileDisk) WriteBlock(dev common.DevID, block common.BlockNo, src []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.readOnly {
		return 0, errors.Wrapf(ErrWriteProtected, "block %d", block)
	}
	off := int64(block) * int64(len(src))
	if _, err := d.f.WriteAt(src, off); err != nil {
		return 0, errors.Wrapf(ErrIO, "WriteAt block %d: %v", block, err)
	}
	return len(src), nil
}

// Sync flushes the image file to stable storage
func (d *FileDisk) Sync() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return errors.Wrap(d.f.Sync(), "f.Sync failed")
}

// Close closes the image file
func (d *FileDisk) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return errors.Wrap(d.f.Close(), "f.Close failed")
}
