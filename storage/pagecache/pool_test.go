package pagecache

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/FullOfBytes/Fiwix/common"
)

var testDev = common.MkDev(1, 0)

func TestGetFreePageIsAnonymousWithOneReference(t *testing.T) {
	p := TestingNewPool(4, 512)

	pg := p.GetFreePage()
	if pg == nil {
		t.Fatal("GetFreePage returned nil")
	}
	assert.Equal(t, 1, pg.count)
	assert.Equal(t, common.Ino(0), pg.Ino())
	assert.Equal(t, 3, p.Stats().FreePages)
	assert.Equal(t, 512, len(pg.Data()))
}

func TestSearchPageHashTakesReference(t *testing.T) {
	p := TestingNewPool(4, 512)

	pg := p.GetFreePage()
	p.AddToCache(pg, 42, testDev, 0)

	hit := p.SearchPageHash(42, testDev, 0)
	if hit == nil {
		t.Fatal("cached page not found")
	}
	assert.Equal(t, pg.ID(), hit.ID())
	assert.Equal(t, 2, hit.count)

	// device is part of the key
	assert.Nil(t, p.SearchPageHash(42, common.MkDev(2, 0), 0))
	assert.Nil(t, p.SearchPageHash(42, testDev, 512))

	p.ReleasePage(pg.ID())
	p.ReleasePage(pg.ID())
}

func TestSearchRevivesFreePage(t *testing.T) {
	p := TestingNewPool(4, 512)

	pg := p.GetFreePage()
	p.AddToCache(pg, 7, testDev, 0)
	p.ReleasePage(pg.ID())
	// count is zero: the page sits on the free list but stays cached
	assert.Equal(t, 4, p.Stats().FreePages)

	hit := p.SearchPageHash(7, testDev, 0)
	if hit == nil {
		t.Fatal("free cached page not revived")
	}
	assert.Equal(t, 1, hit.count)
	assert.Equal(t, 3, p.Stats().FreePages)
	p.ReleasePage(hit.ID())
}

func TestAllocationEvictsCachedIdentity(t *testing.T) {
	p := TestingNewPool(2, 512)

	pg := p.GetFreePage()
	p.AddToCache(pg, 7, testDev, 0)
	p.ReleasePage(pg.ID())

	// drain the pool: the cached page is eventually re-allocated and
	// evicted from the hash
	a := p.GetFreePage()
	b := p.GetFreePage()
	assert.NotNil(t, a)
	assert.NotNil(t, b)
	assert.Nil(t, p.SearchPageHash(7, testDev, 0))
	assert.Equal(t, 0, p.Stats().CachedPages)
}

func TestAnonymousReleaseGoesToHead(t *testing.T) {
	p := TestingNewPool(4, 512)

	pg := p.GetFreePage()
	id := pg.ID()
	p.ReleasePage(id)

	// an anonymous page is reused first
	again := p.GetFreePage()
	assert.Equal(t, id, again.ID())
	p.ReleasePage(again.ID())
}

func TestCachedReleaseGoesToTail(t *testing.T) {
	p := TestingNewPool(4, 512)

	pg := p.GetFreePage()
	id := pg.ID()
	p.AddToCache(pg, 9, testDev, 0)
	p.ReleasePage(id)

	// a cached page keeps its value: it is the last to be reused
	for i := 0; i < 3; i++ {
		got := p.GetFreePage()
		assert.NotEqual(t, id, got.ID())
	}
	assert.NotNil(t, p.SearchPageHash(9, testDev, 0))
}

func TestReleasePanicsOnUnreferencedPage(t *testing.T) {
	p := TestingNewPool(4, 512)
	pg := p.GetFreePage()
	p.ReleasePage(pg.ID())

	assert.Panics(t, func() { p.ReleasePage(pg.ID()) })
}

func TestReleasePanicsOnOutOfRangeID(t *testing.T) {
	p := TestingNewPool(4, 512)
	assert.Panics(t, func() { p.ReleasePage(99) })
	assert.Panics(t, func() { p.ReleasePage(-1) })
}

func TestReservedPagesStayOut(t *testing.T) {
	cfg := testingConfig(8, 512)
	cfg.NrReservedPages = 3
	p := NewPool(cfg)

	assert.Equal(t, 5, p.Stats().FreePages)
	for i := 0; i < 3; i++ {
		assert.NotZero(t, p.pages[i].flags&pageReserved)
		assert.Nil(t, p.pages[i].data)
	}

	// draining the pool never hands out a reserved page
	for i := 0; i < 5; i++ {
		pg := p.GetFreePage()
		if pg == nil {
			t.Fatal("pool drained early")
		}
		assert.Zero(t, pg.flags&pageReserved)
	}
}

func TestLockUnlock(t *testing.T) {
	p := TestingNewPool(4, 512)
	pg := p.GetFreePage()

	p.Lock(pg)
	assert.NotZero(t, pg.flags&pageLocked)

	// a second locker blocks until Unlock
	acquired := make(chan struct{})
	go func() {
		p.Lock(pg)
		close(acquired)
	}()
	select {
	case <-acquired:
		t.Fatal("lock acquired while held")
	default:
	}

	p.Unlock(pg)
	<-acquired
	p.Unlock(pg)
	p.ReleasePage(pg.ID())
}

func TestAllocatorContract(t *testing.T) {
	p := TestingNewPool(4, 512)

	data := p.AllocPage()
	if data == nil {
		t.Fatal("AllocPage returned nil")
	}
	assert.Equal(t, 3, p.Stats().FreePages)

	p.FreePage(data)
	assert.Equal(t, 4, p.Stats().FreePages)

	assert.Panics(t, func() { p.FreePage(make([]byte, 512)) })
}
