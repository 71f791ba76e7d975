// Package memsim models the page-granularity region that backs a heap: a
// single contiguous byte buffer that only ever grows, by sbrk-style calls,
// up to a fixed capacity chosen when the simulator is created.
package memsim

import (
	cerrors "github.com/cockroachdb/errors"

	"github.com/heapsim/seglist"
)

const (
	// PageSize is the granularity the simulator rounds its capacity to.
	PageSize = 4096

	// DefaultMaxSize is the region capacity used when New is given a
	// non-positive size.
	DefaultMaxSize = 256 << 20
)

// Simulator owns a fixed-capacity byte buffer and hands out pieces of it
// through Sbrk. It never relocates the buffer, so offsets into Region
// remain stable across growth.
//
// Simulator is not safe for concurrent use.
type Simulator struct {
	buf []byte
	brk int
}

// New creates a Simulator whose region can grow to maxSize bytes, rounded
// up to a multiple of PageSize. A non-positive maxSize selects
// DefaultMaxSize.
func New(maxSize int) *Simulator {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	maxSize = seglist.AlignUp(maxSize, PageSize)

	return &Simulator{buf: make([]byte, maxSize)}
}

// Sbrk grows the region by incr bytes and returns the offset of the old
// break, which is the start of the newly valid bytes. It returns
// seglist.ErrOutOfMemory when incr is not positive or the grown region
// would exceed the simulator's capacity; the break is unchanged in that
// case.
func (s *Simulator) Sbrk(incr int) (int, error) {
	if incr <= 0 {
		return 0, cerrors.Wrapf(seglist.ErrOutOfMemory, "region increment %d is not positive", incr)
	}
	if s.brk+incr > len(s.buf) {
		return 0, cerrors.Wrapf(seglist.ErrOutOfMemory,
			"break %d + increment %d exceeds region capacity %d", s.brk, incr, len(s.buf))
	}

	old := s.brk
	s.brk += incr
	return old, nil
}

// Region returns the currently valid portion of the buffer, [0, break).
// The returned slice aliases the simulator's storage; it is re-sliced, not
// reallocated, by later Sbrk calls.
func (s *Simulator) Region() []byte {
	return s.buf[:s.brk]
}

// Size returns the current break offset.
func (s *Simulator) Size() int {
	return s.brk
}

// Capacity returns the maximum size the region can grow to.
func (s *Simulator) Capacity() int {
	return len(s.buf)
}

// Reset moves the break back to zero. Bytes beyond the break keep their
// old contents until they are handed out again.
func (s *Simulator) Reset() {
	s.brk = 0
}
