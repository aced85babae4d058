package common

// BlockNo is the number of a block on a block device.
// block numbers are filesystem-relative: bmap maps file byte offsets to them.
// a bmap result of 0 means the byte range is a hole and is not backed by any block.
type BlockNo int64

// Ino is inode number
// the (inode number, device id) pair names a file uniquely for the lifetime of the caches.
// inode number 0 means "no file": a page with Ino 0 is anonymous memory.
type Ino uint64
