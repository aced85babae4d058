package fs

// open flags understood by the cache glue
const (
	// OAppend positions every write at the current end of file
	OAppend = 1 << 0
	// OTrunc discards the file contents at open
	OTrunc = 1 << 1
)

// FD is one open file description: an inode plus a position and the flags
// the file was opened with.
type FD struct {
	Inode  *Inode
	Flags  int
	Offset int64
}

// Open builds a file description for the inode. OAppend starts the offset at
// the file size; OTrunc empties the file through the filesystem's truncate
// operation when it has one.
func Open(i *Inode, flags int) (*FD, error) {
	fd := &FD{Inode: i, Flags: flags}
	if flags&OAppend != 0 {
		fd.Offset = i.Size
	}
	if flags&OTrunc != 0 {
		i.Size = 0
		if t, ok := i.Ops.(Truncater); ok {
			if err := t.Truncate(i, 0); err != nil {
				return nil, err
			}
		}
	}
	return fd, nil
}

// Close releases the file description. nothing to do for the caches.
func Close(fd *FD) error {
	return nil
}

// Lseek repositions the file description and returns the new offset.
// no bounds check: seeking past end of file is legal and reads there see EOF.
func Lseek(fd *FD, offset int64) int64 {
	fd.Offset = offset
	return fd.Offset
}
