package fs

import "github.com/pkg/errors"

var (
	// ErrNoMem is returned when no page can be had for a read.
	// stands in for ENOMEM.
	ErrNoMem = errors.New("out of memory")
	// ErrInvalid is returned by WritePage when the inode's filesystem has no
	// write operation. stands in for EINVAL.
	ErrInvalid = errors.New("invalid argument")
)
