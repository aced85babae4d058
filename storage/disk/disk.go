/*
Block-device driver contract.

The caches never touch hardware; they call a driver registered for the
device's major number. A driver exposes exactly two operations, read a block
and write a block, with the block size carried by the destination/source
slice. The two error conditions the caches care about are kept as sentinels:
a write-protected device (the buffer stays dirty and the sync pass logs it)
and a general I/O error.
*/
package disk

import (
	"github.com/pkg/errors"

	"github.com/FullOfBytes/Fiwix/common"
)

var (
	// ErrWriteProtected is returned by WriteBlock when the device refuses writes.
	// stands in for EROFS.
	ErrWriteProtected = errors.New("device is write-protected")
	// ErrIO is any other device failure. stands in for EIO.
	ErrIO = errors.New("I/O error")
)

// Driver is one registered block-device driver.
// a driver serves every minor number of its major; dev is passed through so
// the driver can pick the unit.
type Driver interface {
	// ReadBlock fills dst with the contents of the block.
	// the block size is len(dst). returns the number of bytes read.
	ReadBlock(dev common.DevID, block common.BlockNo, dst []byte) (int, error)
	// WriteBlock writes src to the block. the block size is len(src).
	// returns the number of bytes written.
	WriteBlock(dev common.DevID, block common.BlockNo, src []byte) (int, error)
}
