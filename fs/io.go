/*
Generic file I/O over the two caches.

Reads go through the page cache: a hit copies straight out of the cached
page, a miss pulls a fresh page, fills it block by block through the buffer
cache (zero-filling holes), and caches it when the access is shareable.

Writes go through the buffer cache: bmap (allocating), bread the block even
for full-block writes — partial-block semantics need the old contents — copy
the fragment in, push the same fragment into any cached page covering the
range, and release the buffer dirty. The write-through keeps the read path's
view coherent without ever invalidating a hot page.
*/
package fs

import (
	"time"

	"github.com/pkg/errors"

	"github.com/FullOfBytes/Fiwix/storage/buffer"
	"github.com/FullOfBytes/Fiwix/storage/disk"
	"github.com/FullOfBytes/Fiwix/storage/pagecache"
)

// mapping protection and sharing, as bread_page's cacheability test sees them
type Prot int

const (
	// ProtRead allows reads through the mapping
	ProtRead Prot = 1 << 0
	// ProtWrite allows writes through the mapping
	ProtWrite Prot = 1 << 1
)

// MapFlags is the sharing mode of a mapping
type MapFlags int

const (
	// MapShared propagates stores to the file
	MapShared MapFlags = 1 << 0
	// MapPrivate keeps stores local to the mapping
	MapPrivate MapFlags = 1 << 1
)

// IO composes the two caches into the generic read and write paths
type IO struct {
	bc *buffer.Cache
	pc *pagecache.Pool
}

// NewIO initializes the glue over a buffer cache and a page pool
func NewIO(bc *buffer.Cache, pc *pagecache.Pool) *IO {
	return &IO{bc: bc, pc: pc}
}

// Buffers returns the underlying buffer cache
func (io *IO) Buffers() *buffer.Cache {
	return io.bc
}

// Pages returns the underlying page pool
func (io *IO) Pages() *pagecache.Pool {
	return io.pc
}

/*
FileRead reads from the file at fd's offset into dst, advancing the offset.
The page cache is the authoritative source; reads never bypass it. The
offset is clamped to the file size and the count shrunk so the read stops at
EOF. Returns the number of bytes read; on failure the bytes copied before
the failure are still counted.
*/
func (io *IO) FileRead(i *Inode, fd *FD, dst []byte) (int, error) {
	i.Lock()
	defer i.Unlock()

	pageSize := int64(io.pc.PageSize())
	if fd.Offset > i.Size {
		fd.Offset = i.Size
	}

	total := 0
	for {
		count := len(dst) - total
		if fd.Offset+int64(count) > i.Size {
			count = int(i.Size - fd.Offset)
		}
		if count <= 0 {
			break
		}

		poffset := fd.Offset % pageSize
		base := fd.Offset - poffset

		pg := io.pc.SearchPageHash(i.Ino, i.Dev, base)
		if pg == nil {
			pg = io.pc.GetFreePage()
			if pg == nil {
				return total, errors.Wrap(ErrNoMem, "file_read: no free page")
			}
			if err := io.BreadPage(pg, i, base, ProtRead, MapShared); err != nil {
				io.pc.ReleasePage(pg.ID())
				return total, errors.Wrap(err, "file_read: bread_page failed")
			}
		}

		n := int(pageSize - poffset)
		if n > count {
			n = count
		}
		io.pc.Lock(pg)
		copy(dst[total:total+n], pg.Data()[poffset:poffset+int64(n)])
		io.pc.ReleasePage(pg.ID())
		io.pc.Unlock(pg)

		total += n
		fd.Offset += int64(n)
	}
	return total, nil
}

/*
FileWrite writes src at fd's offset (at end of file under OAppend),
advancing the offset, extending the size, touching mtime/ctime and marking
the inode dirty. Every fragment is written through to the page cache before
the buffer is released dirty, so an immediate read-back sees the new bytes
without any sync.
*/
func (io *IO) FileWrite(i *Inode, fd *FD, src []byte) (int, error) {
	i.Lock()
	defer i.Unlock()

	blksize := i.Sb.BlockSize
	if fd.Flags&OAppend != 0 {
		fd.Offset = i.Size
	}

	total := 0
	for total < len(src) {
		boffset := int(fd.Offset % int64(blksize))
		block, err := i.Ops.Bmap(i, fd.Offset, ForWriting)
		if err != nil {
			return total, errors.Wrap(err, "file_write: bmap failed")
		}
		n := blksize - boffset
		if n > len(src)-total {
			n = len(src) - total
		}

		buf := io.bc.Bread(i.Dev, block, blksize)
		if buf == nil {
			return total, errors.Wrap(disk.ErrIO, "file_write: bread failed")
		}
		copy(buf.Data()[boffset:boffset+n], src[total:total+n])
		io.UpdatePageCache(i, fd.Offset, src[total:total+n])
		io.bc.Bwrite(buf)

		total += n
		fd.Offset += int64(n)
	}

	if fd.Offset > i.Size {
		i.Size = fd.Offset
	}
	now := time.Now()
	i.Ctime = now
	i.Mtime = now
	i.Dirty = true
	return total, nil
}

// UpdatePageCache pushes a written fragment into the cached page covering
// offset, if one exists. absent pages are left absent: the next read
// refetches through the buffer cache and sees the same bytes.
func (io *IO) UpdatePageCache(i *Inode, offset int64, src []byte) {
	if len(src) == 0 {
		return
	}
	pageSize := int64(io.pc.PageSize())
	poffset := offset % pageSize
	base := offset - poffset

	n := int(pageSize - poffset)
	if n > len(src) {
		n = len(src)
	}
	pg := io.pc.SearchPageHash(i.Ino, i.Dev, base)
	if pg == nil {
		return
	}
	io.pc.Lock(pg)
	copy(pg.Data()[poffset:poffset+int64(n)], src[:n])
	io.pc.Unlock(pg)
	io.pc.ReleasePage(pg.ID())
}

/*
BreadPage fills pg with the file contents at offset, one block at a time:
bmap resolves each chunk, a bmap result of 0 is a hole and the chunk is
zero-filled, anything mapped is read through the buffer cache. Any error
aborts the whole page. The page is inserted into the page hash only when the
access is read-only or shared; a private writable mapping must not alias the
cache.
*/
func (io *IO) BreadPage(pg *pagecache.Page, i *Inode, offset int64, prot Prot, flags MapFlags) error {
	blksize := i.Sb.BlockSize
	pageSize := io.pc.PageSize()

	for sizeRead := 0; sizeRead < pageSize; sizeRead += blksize {
		block, err := i.Ops.Bmap(i, offset+int64(sizeRead), ForReading)
		if err != nil {
			return errors.Wrap(err, "bread_page: bmap failed")
		}
		chunk := pg.Data()[sizeRead : sizeRead+blksize]
		if block != 0 {
			buf := io.bc.Bread(i.Dev, block, blksize)
			if buf == nil {
				return errors.Wrap(disk.ErrIO, "bread_page: bread failed")
			}
			copy(chunk, buf.Data()[:blksize])
			io.bc.Brelse(buf)
		} else {
			for b := range chunk {
				chunk[b] = 0
			}
		}
	}

	if prot&ProtWrite == 0 || flags&MapShared != 0 {
		io.pc.AddToCache(pg, i.Ino, i.Dev, offset)
	}
	return nil
}

// WritePage writes the page's contents back through the filesystem's write
// operation, clamped to the file size. ErrInvalid when the filesystem cannot
// write.
func (io *IO) WritePage(pg *pagecache.Page, i *Inode, offset int64, length int) (int, error) {
	w, ok := i.Ops.(Writer)
	if !ok {
		return 0, errors.Wrap(ErrInvalid, "write_page: inode has no write operation")
	}
	size := length
	if int64(size) > i.Size {
		size = int(i.Size)
	}
	fd := &FD{Inode: i, Offset: offset}
	return w.Write(i, fd, pg.Data()[:size])
}
