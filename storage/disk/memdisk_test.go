package disk

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/FullOfBytes/Fiwix/common"
)

func TestMemDiskUnwrittenBlockReadsAsZeros(t *testing.T) {
	md := NewMemDisk(512)
	dev := common.MkDev(1, 0)

	dst := bytes.Repeat([]byte{0xFF}, 512)
	n, err := md.ReadBlock(dev, 10, dst)
	assert.Nil(t, err)
	assert.Equal(t, 512, n)
	assert.Equal(t, make([]byte, 512), dst)
}

func TestMemDiskWriteReadRoundtrip(t *testing.T) {
	md := NewMemDisk(512)
	dev := common.MkDev(1, 0)

	src := bytes.Repeat([]byte{0xAA}, 512)
	n, err := md.WriteBlock(dev, 3, src)
	assert.Nil(t, err)
	assert.Equal(t, 512, n)

	dst := make([]byte, 512)
	_, err = md.ReadBlock(dev, 3, dst)
	assert.Nil(t, err)
	assert.Equal(t, src, dst)

	assert.Equal(t, 1, md.Reads(3))
	assert.Equal(t, 1, md.Writes(3))
}

func TestMemDiskReadOnly(t *testing.T) {
	md := NewMemDisk(512)
	md.SetReadOnly(true)

	_, err := md.WriteBlock(common.MkDev(1, 0), 0, make([]byte, 512))
	assert.Equal(t, ErrWriteProtected, errors.Cause(err))
}

func TestMemDiskFaultyBlock(t *testing.T) {
	md := NewMemDisk(512)
	dev := common.MkDev(1, 0)
	md.SetFaulty(7, true)

	_, err := md.ReadBlock(dev, 7, make([]byte, 512))
	assert.Equal(t, ErrIO, errors.Cause(err))
	_, err = md.WriteBlock(dev, 7, make([]byte, 512))
	assert.Equal(t, ErrIO, errors.Cause(err))

	// other blocks still work
	_, err = md.WriteBlock(dev, 8, make([]byte, 512))
	assert.Nil(t, err)
}

func TestMemDiskSizeMismatch(t *testing.T) {
	md := NewMemDisk(512)
	_, err := md.ReadBlock(common.MkDev(1, 0), 0, make([]byte, 1024))
	assert.Equal(t, ErrIO, errors.Cause(err))
}
