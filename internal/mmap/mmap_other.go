//go:build !unix

package mmap

import (
	"errors"
	"os"
)

// ErrUnsupported is returned on platforms without mmap support; callers
// fall back to regular file reads.
var ErrUnsupported = errors.New("mmap: not supported on this platform")

func mapFile(_ *os.File, _ int64) ([]byte, error) {
	return nil, ErrUnsupported
}

func unmapFile(_ []byte) error {
	return nil
}
