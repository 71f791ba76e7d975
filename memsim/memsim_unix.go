//go:build unix

package memsim

import (
	cerrors "github.com/cockroachdb/errors"
	"golang.org/x/sys/unix"

	"github.com/heapsim/seglist"
)

// Mapped is a Simulator whose buffer lives in an anonymous page-aligned
// mapping instead of the Go heap. Close releases the mapping; the Mapped
// must not be used afterward.
type Mapped struct {
	Simulator
	mapping []byte
}

// NewMapped creates a Mapped simulator with capacity maxSize, rounded up to
// a multiple of PageSize. A non-positive maxSize selects DefaultMaxSize.
func NewMapped(maxSize int) (*Mapped, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	maxSize = seglist.AlignUp(maxSize, PageSize)

	data, err := unix.Mmap(-1, 0, maxSize,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, cerrors.Wrapf(err, "mapping a %d-byte region", maxSize)
	}

	return &Mapped{
		Simulator: Simulator{buf: data},
		mapping:   data,
	}, nil
}

// Close unmaps the region's backing memory.
func (m *Mapped) Close() error {
	if m.mapping == nil {
		return nil
	}

	err := unix.Munmap(m.mapping)
	m.mapping = nil
	m.buf = nil
	m.brk = 0
	if err != nil {
		return cerrors.Wrap(err, "unmapping region")
	}
	return nil
}
