package fs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOpenAppendWritesAtEndOfFile(t *testing.T) {
	io, _ := TestingNewIO(8, 8, 512, 1024)
	tfs := newTableFS(20)
	i := testInode(tfs, 0)

	// seed ten bytes
	fd := &FD{Inode: i}
	_, err := io.FileWrite(i, fd, []byte("0123456789"))
	assert.Nil(t, err)

	afd, err := Open(i, OAppend)
	assert.Nil(t, err)
	assert.Equal(t, int64(10), afd.Offset)

	n, err := io.FileWrite(i, afd, []byte("abc"))
	assert.Nil(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, int64(13), afd.Offset)
	assert.Equal(t, int64(13), i.Size)
	assert.True(t, i.Dirty)
	assert.False(t, i.Mtime.IsZero())
	assert.False(t, i.Ctime.IsZero())

	// the appended bytes land after the seed
	rfd := &FD{Inode: i}
	dst := make([]byte, 13)
	_, err = io.FileRead(i, rfd, dst)
	assert.Nil(t, err)
	assert.Equal(t, []byte("0123456789abc"), dst)
}

type truncFS struct {
	*tableFS
	truncated []int64
}

func (f *truncFS) Truncate(i *Inode, size int64) error {
	f.truncated = append(f.truncated, size)
	return nil
}

func TestOpenTrunc(t *testing.T) {
	tfs := &truncFS{tableFS: newTableFS(20)}
	i := testInode(tfs, 100)

	fd, err := Open(i, OTrunc)
	assert.Nil(t, err)
	assert.Equal(t, int64(0), fd.Offset)
	assert.Equal(t, int64(0), i.Size)
	assert.Equal(t, []int64{0}, tfs.truncated)
}

func TestOpenPlain(t *testing.T) {
	tfs := newTableFS(20)
	i := testInode(tfs, 100)

	fd, err := Open(i, 0)
	assert.Nil(t, err)
	assert.Equal(t, int64(0), fd.Offset)
	assert.Equal(t, int64(100), i.Size)
	assert.Nil(t, Close(fd))
}

func TestLseek(t *testing.T) {
	tfs := newTableFS(20)
	i := testInode(tfs, 100)
	fd := &FD{Inode: i}

	assert.Equal(t, int64(42), Lseek(fd, 42))
	assert.Equal(t, int64(42), fd.Offset)

	// seeking past the end is legal; a read there sees EOF
	assert.Equal(t, int64(500), Lseek(fd, 500))
}
