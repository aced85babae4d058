/*
Page pool.

The pool covers all of memory with a fixed arena of page descriptors and
doubles as two things: the page cache (hash keyed by inode and offset, for
file reads and mapped I/O) and the page allocator (free list, for anonymous
memory — including the buffer cache's data areas). The two roles share the
free list on purpose: a cached page with no users is still reclaimable, and
an allocation simply evicts it from the hash.

Eviction is LRU by reinsertion order: releases land at the tail, allocation
takes the head. Anonymous releases go to the head instead — they cache
nothing and should be reused first.

One mutex guards lists, hash, identities, counts and flags, in the same role
as the buffer cache's: the interrupt-disable substitute. It is never held
while blocked.
*/
package pagecache

import (
	"sync"

	"github.com/FullOfBytes/Fiwix/common"
	"github.com/FullOfBytes/Fiwix/config"
	"github.com/FullOfBytes/Fiwix/logger"
	"github.com/FullOfBytes/Fiwix/sched"
)

// Pool is the page pool
type Pool struct {
	mu sync.Mutex

	pages []*Page
	// hash holds bucket heads, indexed by (ino XOR offset) mod len
	hash []PageID
	// freeHead points into the circular free list
	freeHead  PageID
	freeCount int

	// byData maps a data area back to its descriptor. built at init,
	// immutable afterwards.
	byData map[*byte]PageID

	// freeWait is the get-free-page channel: waiters for an empty free list
	freeWait *sched.WaitChannel
	// kswapdWait wakes the memory reclaimer
	kswapdWait *sched.WaitChannel

	nrReclaim int
	pageSize  int

	// cached counts pages currently in the hash, guarded by mu
	cached int
}

// NewPool initializes the page pool. the first cfg.NrReservedPages pages are
// reserved; every other page gets its fixed data area and joins the free list.
func NewPool(cfg config.Config) *Pool {
	p := &Pool{
		pages:      make([]*Page, cfg.NrPages),
		hash:       make([]PageID, cfg.NrPageHash),
		freeHead:   invalidID,
		byData:     make(map[*byte]PageID),
		freeWait:   sched.NewWaitChannel(),
		kswapdWait: sched.NewWaitChannel(),
		nrReclaim:  cfg.NrBufReclaim,
		pageSize:   cfg.PageSize,
	}
	for i := range p.hash {
		p.hash[i] = invalidID
	}
	for i := range p.pages {
		pg := &Page{
			id:       PageID(i),
			prevFree: invalidID,
			nextFree: invalidID,
			prevHash: invalidID,
			nextHash: invalidID,
			wait:     sched.NewWaitChannel(),
		}
		p.pages[i] = pg
		if i < cfg.NrReservedPages {
			pg.flags = pageReserved
			continue
		}
		pg.data = make([]byte, cfg.PageSize)
		p.byData[&pg.data[0]] = pg.id
		p.insertOnFreeList(pg)
	}
	return p
}

// PageSize returns the pool's page size in bytes
func (p *Pool) PageSize() int {
	return p.pageSize
}

/*
GetFreePage takes the page at the free-list head and returns it anonymous
with a reference count of one, evicted from whatever identity it last cached.
When the free list is empty it wakes the memory reclaimer and blocks once on
the free-page channel; if the list is still empty on resumption the machine
is genuinely out of memory and nil is returned.
*/
func (p *Pool) GetFreePage() *Page {
	p.mu.Lock()
	if p.freeCount == 0 {
		p.kswapdWait.Wakeup()
		p.freeWait.Sleep(&p.mu)
		if p.freeCount == 0 {
			p.mu.Unlock()
			logger.Errorf("get_free_page: out of memory")
			return nil
		}
	}
	pg := p.pages[p.freeHead]
	p.removeFromFreeList(pg)
	p.removeFromHash(pg)
	pg.count = 1
	pg.ino = 0
	pg.offset = 0
	pg.dev = common.NoDev
	p.mu.Unlock()
	return pg
}

// SearchPageHash looks up the page caching (ino, offset) on the inode's
// device. a hit comes back with the reference count raised — the caller owns
// a reference and releases it with ReleasePage — and off the free list if the
// count was zero.
func (p *Pool) SearchPageHash(ino common.Ino, dev common.DevID, offset int64) *Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.hash[p.hashIndex(ino, offset)]
	for id != invalidID {
		pg := p.pages[id]
		if pg.ino == ino && pg.offset == offset && pg.dev == dev {
			if pg.count == 0 {
				p.removeFromFreeList(pg)
			}
			pg.count++
			return pg
		}
		id = pg.nextHash
	}
	return nil
}

// AddToCache gives an anonymous page a cache identity and inserts it into
// the hash. the caller keeps its reference.
func (p *Pool) AddToCache(pg *Page, ino common.Ino, dev common.DevID, offset int64) {
	p.mu.Lock()
	pg.ino = ino
	pg.dev = dev
	pg.offset = offset
	p.insertToHash(pg)
	p.mu.Unlock()
}

/*
ReleasePage drops one reference. At zero the page returns to the free list:
at the tail if it still caches something (it may be revived by a lookup), at
the head if it is anonymous (nothing to cache, reuse first). An out-of-range
id or a release of an unreferenced page is an invariant violation and panics.

Waiters on the free-page channel are woken only once the free-page count
clears nrReclaim; waking them earlier would let a starved GetFreePage run the
pool dry again immediately and misreport out-of-memory.
*/
func (p *Pool) ReleasePage(id PageID) {
	if id < 0 || int(id) >= len(p.pages) {
		panic("pagecache: release of out-of-range page")
	}
	p.mu.Lock()
	pg := p.pages[id]
	if pg.count == 0 {
		panic("pagecache: release of unreferenced page")
	}
	pg.count--
	if pg.count > 0 {
		p.mu.Unlock()
		return
	}
	p.insertOnFreeList(pg)
	if pg.ino == 0 {
		p.freeHead = pg.id
	}
	wake := p.freeCount > p.nrReclaim
	p.mu.Unlock()
	if wake {
		p.freeWait.Wakeup()
	}
}

// Lock acquires the page's locked bit, sleeping on the page's wait channel
// while another caller holds it.
func (p *Pool) Lock(pg *Page) {
	p.mu.Lock()
	for pg.flags&pageLocked != 0 {
		ch := pg.wait.Wait()
		p.mu.Unlock()
		<-ch
		p.mu.Lock()
	}
	pg.flags |= pageLocked
	p.mu.Unlock()
}

// Unlock clears the locked bit and wakes every waiter on the page
func (p *Pool) Unlock(pg *Page) {
	p.mu.Lock()
	pg.flags &^= pageLocked
	p.mu.Unlock()
	pg.wait.Wakeup()
}

func (p *Pool) hashIndex(ino common.Ino, offset int64) int {
	return int((uint64(ino) ^ uint64(offset)) % uint64(len(p.hash)))
}

func (p *Pool) insertToHash(pg *Page) {
	i := p.hashIndex(pg.ino, pg.offset)
	pg.prevHash = invalidID
	pg.nextHash = p.hash[i]
	if p.hash[i] != invalidID {
		p.pages[p.hash[i]].prevHash = pg.id
	}
	p.hash[i] = pg.id
	p.cached++
}

// removeFromHash is a no-op on anonymous pages
func (p *Pool) removeFromHash(pg *Page) {
	if pg.ino == 0 {
		return
	}
	i := p.hashIndex(pg.ino, pg.offset)
	if pg.nextHash != invalidID {
		p.pages[pg.nextHash].prevHash = pg.prevHash
	}
	if pg.prevHash != invalidID {
		p.pages[pg.prevHash].nextHash = pg.nextHash
	}
	if p.hash[i] == pg.id {
		p.hash[i] = pg.nextHash
	}
	pg.prevHash = invalidID
	pg.nextHash = invalidID
	p.cached--
}

func (p *Pool) insertOnFreeList(pg *Page) {
	if p.freeHead == invalidID {
		pg.prevFree = pg.id
		pg.nextFree = pg.id
		p.freeHead = pg.id
	} else {
		head := p.pages[p.freeHead]
		pg.nextFree = head.id
		pg.prevFree = head.prevFree
		p.pages[head.prevFree].nextFree = pg.id
		head.prevFree = pg.id
	}
	p.freeCount++
}

func (p *Pool) removeFromFreeList(pg *Page) {
	if p.freeCount == 0 {
		return
	}
	p.pages[pg.prevFree].nextFree = pg.nextFree
	p.pages[pg.nextFree].prevFree = pg.prevFree
	p.freeCount--
	if p.freeHead == pg.id {
		p.freeHead = pg.nextFree
	}
	if p.freeCount == 0 {
		p.freeHead = invalidID
	}
	pg.prevFree = invalidID
	pg.nextFree = invalidID
}

// AllocPage, FreePage and WakeupFreePage implement the buffer cache's
// allocator contract: buffer data areas are anonymous pages from this pool.

// AllocPage returns the data area of a fresh anonymous page, nil on OOM
func (p *Pool) AllocPage() []byte {
	pg := p.GetFreePage()
	if pg == nil {
		return nil
	}
	return pg.data
}

// FreePage releases the page owning the given data area
func (p *Pool) FreePage(data []byte) {
	id, ok := p.byData[&data[0]]
	if !ok {
		panic("pagecache: free of unknown data area")
	}
	p.ReleasePage(id)
}

// WakeupFreePage wakes callers blocked waiting for a free page
func (p *Pool) WakeupFreePage() {
	p.freeWait.Wakeup()
}
