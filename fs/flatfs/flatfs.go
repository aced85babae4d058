/*
flatfs is a deliberately small filesystem used to exercise the caches end to
end: flat namespace, no directories, no permissions, block-at-a-time
allocation that never reuses freed blocks.

On-device layout: the first metaBlocks blocks hold the metadata — a 4-byte
length followed by a msgpack-encoded table of files (name, size, block list).
Everything after that is data blocks handed out sequentially. A zero in a
file's block list is a hole; block 0 can never be a data block because the
metadata region owns it, so the sentinel is unambiguous.

All metadata I/O goes through the buffer cache like any other block access;
Flush rewrites the metadata region and the caller syncs the device for
durability.
*/
package flatfs

import (
	"encoding/binary"
	"sync"

	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack"

	"github.com/FullOfBytes/Fiwix/common"
	"github.com/FullOfBytes/Fiwix/fs"
	"github.com/FullOfBytes/Fiwix/storage/disk"
)

// metaBlocks is the number of leading blocks reserved for metadata
const metaBlocks = 8

// diskFile is the on-device description of one file
type diskFile struct {
	Name   string
	Size   int64
	Blocks []int64
}

// diskMeta is the on-device metadata table
type diskMeta struct {
	BlockSize int
	NextBlock int64
	NextIno   uint64
	Files     map[uint64]*diskFile
}

// FS is one mounted flatfs
type FS struct {
	mu sync.Mutex

	io  *fs.IO
	dev common.DevID
	sb  *fs.Superblock

	meta   *diskMeta
	byName map[string]common.Ino
	inodes map[common.Ino]*fs.Inode
}

// Mkfs writes an empty filesystem onto the device and mounts it
func Mkfs(fsio *fs.IO, dev common.DevID, blockSize int) (*FS, error) {
	f := &FS{
		io:  fsio,
		dev: dev,
		sb:  &fs.Superblock{Dev: dev, BlockSize: blockSize},
		meta: &diskMeta{
			BlockSize: blockSize,
			NextBlock: metaBlocks,
			NextIno:   1,
			Files:     make(map[uint64]*diskFile),
		},
		byName: make(map[string]common.Ino),
		inodes: make(map[common.Ino]*fs.Inode),
	}
	if err := f.Flush(); err != nil {
		return nil, errors.Wrap(err, "flatfs: mkfs flush failed")
	}
	return f, nil
}

// Mount reads the metadata region and mounts the filesystem
func Mount(fsio *fs.IO, dev common.DevID, blockSize int) (*FS, error) {
	raw := make([]byte, 0, metaBlocks*blockSize)
	for b := int64(0); b < metaBlocks; b++ {
		buf := fsio.Buffers().Bread(dev, common.BlockNo(b), blockSize)
		if buf == nil {
			return nil, errors.Wrap(disk.ErrIO, "flatfs: metadata read failed")
		}
		raw = append(raw, buf.Data()[:blockSize]...)
		fsio.Buffers().Brelse(buf)
	}

	n := binary.BigEndian.Uint32(raw[:4])
	if n == 0 || int(n) > len(raw)-4 {
		return nil, errors.New("flatfs: no filesystem on device")
	}
	meta := &diskMeta{}
	if err := msgpack.Unmarshal(raw[4:4+n], meta); err != nil {
		return nil, errors.Wrap(err, "flatfs: metadata decode failed")
	}
	if meta.BlockSize != blockSize {
		return nil, errors.Errorf("flatfs: block size mismatch: device has %d, mount wants %d", meta.BlockSize, blockSize)
	}

	f := &FS{
		io:     fsio,
		dev:    dev,
		sb:     &fs.Superblock{Dev: dev, BlockSize: blockSize},
		meta:   meta,
		byName: make(map[string]common.Ino),
		inodes: make(map[common.Ino]*fs.Inode),
	}
	for ino, df := range meta.Files {
		f.byName[df.Name] = common.Ino(ino)
	}
	return f, nil
}

// Create makes an empty file and returns its inode
func (f *FS) Create(name string) (*fs.Inode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byName[name]; ok {
		return nil, errors.Errorf("flatfs: %q already exists", name)
	}
	ino := common.Ino(f.meta.NextIno)
	f.meta.NextIno++
	f.meta.Files[uint64(ino)] = &diskFile{Name: name}
	f.byName[name] = ino
	return f.inode(ino), nil
}

// Lookup returns the inode of an existing file
func (f *FS) Lookup(name string) (*fs.Inode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ino, ok := f.byName[name]
	if !ok {
		return nil, errors.Errorf("flatfs: %q not found", name)
	}
	return f.inode(ino), nil
}

// inode returns the cached in-memory inode, building it on first access.
// expects f.mu held.
func (f *FS) inode(ino common.Ino) *fs.Inode {
	if i, ok := f.inodes[ino]; ok {
		return i
	}
	df := f.meta.Files[uint64(ino)]
	i := &fs.Inode{
		Ino:  ino,
		Dev:  f.dev,
		Size: df.Size,
		Sb:   f.sb,
		Ops:  f,
	}
	f.inodes[ino] = i
	return i
}

// Bmap maps a file byte offset to a device block. under ForWriting an
// unmapped range gets the next unused device block; under ForReading it
// reads as a hole.
func (f *FS) Bmap(i *fs.Inode, offset int64, mode fs.BmapMode) (common.BlockNo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	df, ok := f.meta.Files[uint64(i.Ino)]
	if !ok {
		return 0, errors.Errorf("flatfs: bmap on unknown inode %d", i.Ino)
	}
	idx := offset / int64(f.meta.BlockSize)

	if mode == fs.ForWriting {
		for int64(len(df.Blocks)) <= idx {
			df.Blocks = append(df.Blocks, 0)
		}
		if df.Blocks[idx] == 0 {
			df.Blocks[idx] = f.meta.NextBlock
			f.meta.NextBlock++
		}
		return common.BlockNo(df.Blocks[idx]), nil
	}

	if idx >= int64(len(df.Blocks)) {
		return 0, nil
	}
	return common.BlockNo(df.Blocks[idx]), nil
}

// Write implements the filesystem write callback through the generic path
func (f *FS) Write(i *fs.Inode, fd *fs.FD, src []byte) (int, error) {
	return f.io.FileWrite(i, fd, src)
}

// Truncate clips the file to size. freed device blocks are not recycled —
// the allocator is append-only.
func (f *FS) Truncate(i *fs.Inode, size int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	df, ok := f.meta.Files[uint64(i.Ino)]
	if !ok {
		return errors.Errorf("flatfs: truncate on unknown inode %d", i.Ino)
	}
	nblocks := (size + int64(f.meta.BlockSize) - 1) / int64(f.meta.BlockSize)
	if int64(len(df.Blocks)) > nblocks {
		df.Blocks = df.Blocks[:nblocks]
	}
	df.Size = size
	return nil
}

// Flush writes the metadata table through the buffer cache. the in-memory
// inode sizes are folded in first. durability needs a device sync afterwards.
func (f *FS) Flush() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for ino, i := range f.inodes {
		f.meta.Files[uint64(ino)].Size = i.Size
	}

	payload, err := msgpack.Marshal(f.meta)
	if err != nil {
		return errors.Wrap(err, "flatfs: metadata encode failed")
	}
	raw := make([]byte, metaBlocks*f.meta.BlockSize)
	if len(payload)+4 > len(raw) {
		return errors.Errorf("flatfs: metadata too large: %d bytes into %d", len(payload)+4, len(raw))
	}
	binary.BigEndian.PutUint32(raw[:4], uint32(len(payload)))
	copy(raw[4:], payload)

	bs := f.meta.BlockSize
	for b := 0; b < metaBlocks; b++ {
		buf := f.io.Buffers().Bread(f.dev, common.BlockNo(b), bs)
		if buf == nil {
			return errors.Wrap(disk.ErrIO, "flatfs: metadata read failed")
		}
		copy(buf.Data()[:bs], raw[b*bs:(b+1)*bs])
		f.io.Buffers().Bwrite(buf)
	}
	return nil
}
