/*
Page descriptor.

One descriptor per page of physical memory, created at init and never freed.
A page's data area is fixed for its lifetime; what changes is the identity:
(inode, offset, device) when the page caches file contents, all zero when the
page is anonymous. Reserved pages model the ranges a real machine cannot hand
out (kernel image, firmware); they never join the free list or the hash.

The reference count tracks outstanding users. A page sits on the free list
exactly while its count is zero and it is not reserved — "free" pages that
still carry an identity stay in the hash, which is what makes them a cache:
a later lookup revives them, a later allocation evicts them.
*/
package pagecache

import (
	"github.com/FullOfBytes/Fiwix/common"
	"github.com/FullOfBytes/Fiwix/sched"
)

// PageID is the index of a page in the pool's arena, the stable identity of
// the underlying physical page.
type PageID int32

// invalidID terminates every list link
const invalidID PageID = -1

const (
	pageLocked   uint32 = 0x001
	pageReserved uint32 = 0x100
)

// Page is one page descriptor
type Page struct {
	id   PageID
	data []byte

	// cache identity; ino 0 means anonymous
	ino    common.Ino
	offset int64
	dev    common.DevID

	// count is the number of outstanding users
	count int

	flags uint32

	prevFree, nextFree PageID
	prevHash, nextHash PageID

	// wait carries lock waiters for this page
	wait *sched.WaitChannel
}

// ID returns the page's index in the pool
func (pg *Page) ID() PageID {
	return pg.id
}

// Data returns the page contents
func (pg *Page) Data() []byte {
	return pg.data
}

// Ino returns the inode number of the cached file, 0 for anonymous pages
func (pg *Page) Ino() common.Ino {
	return pg.ino
}

// Offset returns the file offset this page caches
func (pg *Page) Offset() int64 {
	return pg.offset
}
