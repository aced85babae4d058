package disk

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/FullOfBytes/Fiwix/common"
)

func TestFileDiskRoundtrip(t *testing.T) {
	fd, err := OpenFileDisk(filepath.Join(t.TempDir(), "disk.img"), false)
	assert.Nil(t, err)
	defer fd.Close()

	dev := common.MkDev(1, 0)
	src := bytes.Repeat([]byte{0xBB}, 512)
	_, err = fd.WriteBlock(dev, 4, src)
	assert.Nil(t, err)

	dst := make([]byte, 512)
	_, err = fd.ReadBlock(dev, 4, dst)
	assert.Nil(t, err)
	assert.Equal(t, src, dst)
}

func TestFileDiskReadPastEOFZeroFills(t *testing.T) {
	fd, err := OpenFileDisk(filepath.Join(t.TempDir(), "disk.img"), false)
	assert.Nil(t, err)
	defer fd.Close()

	dst := bytes.Repeat([]byte{0xFF}, 512)
	_, err = fd.ReadBlock(common.MkDev(1, 0), 100, dst)
	assert.Nil(t, err)
	assert.Equal(t, make([]byte, 512), dst)
}
