package fs

import (
	"github.com/FullOfBytes/Fiwix/config"
	"github.com/FullOfBytes/Fiwix/storage/buffer"
	"github.com/FullOfBytes/Fiwix/storage/disk"
	"github.com/FullOfBytes/Fiwix/storage/pagecache"
)

// TestingNewIO wires a full stack — MemDisk, page pool, buffer cache — the
// way a kernel would at boot, sized for tests. the MemDisk is registered at
// major 1.
func TestingNewIO(nrBuffers, nrPages, blockSize, pageSize int) (*IO, *disk.MemDisk) {
	reg, md := disk.TestingNewRegistry(1, blockSize)
	cfg := config.Default()
	cfg.NrBuffers = nrBuffers
	cfg.NrPages = nrPages
	cfg.PageSize = pageSize
	cfg.NrReservedPages = 0
	if cfg.NrBufReclaim >= nrPages {
		cfg.NrBufReclaim = nrPages / 2
	}
	pool := pagecache.NewPool(cfg)
	bc := buffer.NewCache(reg, pool, cfg)
	return NewIO(bc, pool), md
}
