package pagecache

import "github.com/FullOfBytes/Fiwix/config"

// testingConfig shrinks the default configuration to a test-sized pool
func testingConfig(nrPages, pageSize int) config.Config {
	cfg := config.Default()
	cfg.NrPages = nrPages
	cfg.PageSize = pageSize
	cfg.NrReservedPages = 0
	if cfg.NrBufReclaim >= nrPages {
		cfg.NrBufReclaim = nrPages / 2
	}
	return cfg
}

// TestingNewPool initializes a pool with nrPages pages and no reserved range
func TestingNewPool(nrPages, pageSize int) *Pool {
	return NewPool(testingConfig(nrPages, pageSize))
}
