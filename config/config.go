/*
Tunables for the buffer and page caches.

All sizing knobs live here so the two caches can be constructed explicitly
instead of reading module-level state. Defaults are small enough for tests and
can be overridden from an ini file, section [cache]:

	[cache]
	nr_buffers      = 64
	nr_buffer_hash  = 16
	nr_pages        = 256
	nr_page_hash    = 64
	nr_reserved     = 4
	nr_buf_reclaim  = 32
	page_size       = 4096
	log_level       = info

A missing file is not an error; defaults apply. A file that exists but
cannot be loaded, or whose values fail validation, makes Load return an error.
*/
package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/ini.v1"
)

// Config carries every cache tunable
type Config struct {
	// NrBuffers is the number of buffer descriptors in the buffer cache
	NrBuffers int
	// NrBufferHash is the number of buffer hash buckets
	NrBufferHash int
	// NrPages is the number of page descriptors covering memory
	NrPages int
	// NrPageHash is the number of page hash buckets
	NrPageHash int
	// NrReservedPages is the number of leading pages marked reserved at init.
	// these stand in for the kernel image and BIOS ranges of a physical machine:
	// they never join the free list or the page hash.
	NrReservedPages int
	// NrBufReclaim bounds how many buffer data areas one reclaim pass frees
	NrBufReclaim int
	// PageSize is the system page size in bytes
	PageSize int
	// LogLevel is the logger level (debug/info/warn/error)
	LogLevel string
}

// Default returns the default configuration
func Default() Config {
	return Config{
		NrBuffers:       64,
		NrBufferHash:    16,
		NrPages:         256,
		NrPageHash:      64,
		NrReservedPages: 4,
		NrBufReclaim:    32,
		PageSize:        4096,
		LogLevel:        "info",
	}
}

// Load reads the configuration file at path and overlays it on the defaults.
// a missing file yields the defaults without error.
func Load(path string) (Config, error) {
	cfg := Default()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	f, err := ini.Load(path)
	if err != nil {
		return cfg, errors.Wrap(err, "ini.Load failed")
	}
	s := f.Section("cache")
	cfg.NrBuffers = s.Key("nr_buffers").MustInt(cfg.NrBuffers)
	cfg.NrBufferHash = s.Key("nr_buffer_hash").MustInt(cfg.NrBufferHash)
	cfg.NrPages = s.Key("nr_pages").MustInt(cfg.NrPages)
	cfg.NrPageHash = s.Key("nr_page_hash").MustInt(cfg.NrPageHash)
	cfg.NrReservedPages = s.Key("nr_reserved").MustInt(cfg.NrReservedPages)
	cfg.NrBufReclaim = s.Key("nr_buf_reclaim").MustInt(cfg.NrBufReclaim)
	cfg.PageSize = s.Key("page_size").MustInt(cfg.PageSize)
	cfg.LogLevel = s.Key("log_level").MustString(cfg.LogLevel)
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	if c.NrBuffers <= 0 || c.NrBufferHash <= 0 || c.NrPages <= 0 || c.NrPageHash <= 0 {
		return errors.New("cache table sizes must be positive")
	}
	if c.PageSize <= 0 {
		return errors.New("page_size must be positive")
	}
	if c.NrBufReclaim <= 0 || c.NrBufReclaim >= c.NrPages {
		return errors.New("nr_buf_reclaim must be positive and smaller than nr_pages")
	}
	if c.NrReservedPages < 0 || c.NrReservedPages >= c.NrPages {
		return errors.New("nr_reserved must leave at least one usable page")
	}
	return nil
}
