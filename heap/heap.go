package heap

import (
	"io"
	"math"

	cerrors "github.com/cockroachdb/errors"
	"github.com/pkg/errors"
	"golang.org/x/exp/slog"

	"github.com/heapsim/seglist"
)

// RegionProvider supplies the contiguous byte region the heap manages. The
// region only ever grows, and its backing storage must not move: offsets
// handed out before a Sbrk call remain valid after it.
type RegionProvider interface {
	// Sbrk grows the region by incr bytes and returns the old break
	// offset, or an error wrapping seglist.ErrOutOfMemory when the region
	// cannot grow.
	Sbrk(incr int) (int, error)
	// Region returns the currently valid bytes, [0, break).
	Region() []byte
}

// CreateOptions adjusts heap construction.
type CreateOptions struct {
	// Logger receives checker diagnostics and DebugLogAllocations output.
	// When nil, a discard logger is installed.
	Logger *slog.Logger

	// SizeHints maps exact request sizes to the block size used for them,
	// overriding the usual alignment arithmetic. Leaving it nil selects
	// DefaultSizeHints; an empty non-nil map disables hinting entirely.
	SizeHints map[int]int
}

// DefaultSizeHints returns the workload tuning applied when CreateOptions
// leaves SizeHints nil: 448-byte requests are placed in 520-byte blocks,
// which keeps later reuse of those blocks from splintering.
func DefaultSizeHints() map[int]int {
	return map[int]int{448: 520}
}

// Heap is a dynamic memory allocator over a RegionProvider's byte region.
// Create one with New; the zero value is not usable.
//
// Heap is not safe for concurrent use and is non-reentrant.
type Heap struct {
	prov RegionProvider
	mem  []byte
	last int

	logger    *slog.Logger
	sizeHints map[int]int

	classMinSize [maxClassIndex + 1]uint32
	classMaxSize [maxClassIndex + 1]uint32
}

var _ seglist.Validatable = (*Heap)(nil)

// New obtains the initial region from the provider and lays out the free
// list sentinels, one large free block, and the terminal sentinel. The
// provider must be fresh: its break must be at zero.
func New(provider RegionProvider, options CreateOptions) (*Heap, error) {
	h := &Heap{
		prov:      provider,
		logger:    options.Logger,
		sizeHints: options.SizeHints,
	}
	if h.logger == nil {
		h.logger = slog.New(slog.NewTextHandler(io.Discard))
	}
	if h.sizeHints == nil {
		h.sizeHints = DefaultSizeHints()
	}

	if _, err := provider.Sbrk(extendSize); err != nil {
		return nil, cerrors.Wrap(err, "obtaining the initial region")
	}
	h.mem = provider.Region()
	h.last = extendSize

	// Sentinel nodes fill the reserved prefix, each pointing at itself.
	for off := 0; off < sentinelBytes; off += 8 {
		h.setWord(off, uint32(off))
		h.setWord(off+wordSize, uint32(off))
	}

	// One free block covers the interior: everything past the prefix and
	// pad, minus the terminal header. The prefix counts as allocated for
	// the block's prev-allocated bit.
	initialSize := uint32(extendSize - sentinelBytes - 2*wordSize)
	h.writeFreeBlock(firstBlock, initialSize, true)
	h.setHeader(Ptr(h.last), flagAllocated)

	for i := minClassIndex; i <= maxClassIndex; i++ {
		h.classMinSize[i] = 1 << (31 - i)
		h.classMaxSize[i] = 1 << (32 - i)
	}
	h.classMaxSize[minClassIndex] = math.MaxUint32

	h.listInsert(firstBlock, initialSize)
	return h, nil
}

// alignSize maps a request size to the block size that will hold it: room
// for the header, rounded up to a multiple of 8, never below the minimum
// block size. Exact sizes present in the hint table take the hinted block
// size instead.
func (h *Heap) alignSize(size int) uint32 {
	if hinted, ok := h.sizeHints[size]; ok {
		return uint32(hinted)
	}

	aligned := (uint32(size) + 11) &^ 7
	if aligned < minBlockSize {
		return minBlockSize
	}
	return aligned
}

// findFit searches the class lists from the request's own class up through
// the classes of strictly larger blocks, taking the first block that fits,
// and places the request in it. It returns NullPtr when every list is
// exhausted.
func (h *Heap) findFit(alignedSize uint32) Ptr {
	for index := classIndex(alignedSize); index >= minClassIndex; index-- {
		sentinel := sentinelFor(index)
		for p := h.linkNext(sentinel); p != sentinel; p = h.linkNext(p) {
			if size := h.blockSize(p); size >= alignedSize {
				h.listRemove(p)
				return h.place(p, alignedSize, size)
			}
		}
	}

	return NullPtr
}

// Alloc allocates size bytes and returns the payload offset, which is
// always a multiple of 8. A non-positive size returns NullPtr with no
// error. When no free block fits and the provider refuses to grow the
// region, NullPtr is returned with an error wrapping
// seglist.ErrOutOfMemory and the heap is unchanged.
func (h *Heap) Alloc(size int) (Ptr, error) {
	if size <= 0 {
		return NullPtr, nil
	}

	seglist.DebugValidate(h)

	alignedSize := h.alignSize(size)

	if p := h.findFit(alignedSize); p != NullPtr {
		return p, nil
	}

	p, err := h.extendHeap(alignedSize)
	if err != nil {
		return NullPtr, cerrors.Wrapf(err, "allocating %d bytes", size)
	}
	return p, nil
}

// Free releases an allocated block, eagerly coalescing it with free
// physical neighbors. Freeing NullPtr is a no-op. Passing an offset that
// was not returned by Alloc/Realloc/Calloc (or was already freed) corrupts
// the heap.
func (h *Heap) Free(p Ptr) {
	if p == NullPtr {
		return
	}

	seglist.DebugValidate(h)

	next := h.nextBlock(p)
	prevAllocated := h.prevAllocated(p)
	nextAllocated := h.allocated(next)

	switch {
	case prevAllocated && nextAllocated:
		size := h.blockSize(p)
		h.setSize(p, size)
		h.clearAllocated(p)
		h.clearPrevAllocated(next)
		h.listInsert(p, size)

	case !prevAllocated && nextAllocated:
		prev := h.prevFreeBlock(p)
		h.listRemove(prev)
		size := h.blockSize(prev) + h.blockSize(p)
		h.setSize(prev, size)
		h.clearPrevAllocated(next)
		h.listInsert(prev, size)

	case prevAllocated && !nextAllocated:
		h.listRemove(next)
		size := h.blockSize(p) + h.blockSize(next)
		h.setSize(p, size)
		h.clearAllocated(p)
		h.listInsert(p, size)

	default:
		prev := h.prevFreeBlock(p)
		h.listRemove(prev)
		h.listRemove(next)
		size := h.blockSize(prev) + h.blockSize(p) + h.blockSize(next)
		h.setSize(prev, size)
		h.listInsert(prev, size)
	}
}

// Realloc resizes an allocation. Realloc(NullPtr, size) behaves like
// Alloc(size); Realloc(p, 0) frees p and returns NullPtr. Shrinking splits
// the tail off in place, and growing absorbs the next physical block or
// the region tail when possible before falling back to
// allocate-copy-free. On out-of-memory the old block is untouched.
func (h *Heap) Realloc(p Ptr, size int) (Ptr, error) {
	if p == NullPtr {
		return h.Alloc(size)
	}
	if size <= 0 {
		h.Free(p)
		return NullPtr, nil
	}

	seglist.DebugValidate(h)

	oldSize := h.blockSize(p)
	newSize := h.alignSize(size)

	if newSize <= oldSize {
		return h.shrink(p, newSize, oldSize), nil
	}

	need := newSize - oldSize
	next := h.nextBlock(p)

	if !h.allocated(next) && h.blockSize(next) >= need {
		nextSize := h.blockSize(next)
		h.listRemove(next)

		residue := nextSize - need
		if residue >= minBlockSize {
			rest := next + Ptr(need)
			h.writeFreeBlock(rest, residue, true)
			h.listInsert(rest, residue)
			h.setSizeHeaderOnly(p, newSize)
		} else {
			h.setSizeHeaderOnly(p, oldSize+nextSize)
			h.setPrevAllocated(h.nextBlock(p))
		}
		return p, nil
	}

	if int(next) == h.last {
		// Growing the last block: extend the region by exactly the
		// deficit and absorb it.
		if _, err := h.prov.Sbrk(int(need)); err != nil {
			return NullPtr, cerrors.Wrapf(err, "growing a %d-byte block to %d bytes", oldSize, size)
		}
		h.mem = h.prov.Region()
		h.last += int(need)

		h.setSizeHeaderOnly(p, newSize)
		h.setHeader(Ptr(h.last), flagAllocated|flagPrevAllocated)
		return p, nil
	}

	newP, err := h.Alloc(size)
	if err != nil {
		return NullPtr, err
	}

	// The destination block is at least 8 bytes larger, so copying the
	// full old block size stays inside it even though the source run ends
	// at the old block's successor header.
	copy(h.mem[int(newP):int(newP)+int(oldSize)], h.mem[int(p):int(p)+int(oldSize)])
	h.Free(p)
	return newP, nil
}

// Calloc allocates count*size bytes and zeroes them. The multiplication is
// not checked for overflow.
func (h *Heap) Calloc(count, size int) (Ptr, error) {
	p, err := h.Alloc(count * size)
	if p == NullPtr {
		return NullPtr, err
	}

	payload := h.mem[int(p) : int(p)+count*size]
	for i := range payload {
		payload[i] = 0
	}
	return p, nil
}

// UsableSize returns the payload capacity of an allocated block: its block
// size minus the header word. UsableSize(NullPtr) is 0.
func (h *Heap) UsableSize(p Ptr) int {
	if p == NullPtr {
		return 0
	}
	return int(h.blockSize(p)) - wordSize
}

// PayloadBytes returns a view of the first length bytes of a block's
// payload. The slice aliases the region; it remains valid until the block
// is freed or the heap is reset.
func (h *Heap) PayloadBytes(p Ptr, length int) ([]byte, error) {
	if p == NullPtr {
		return nil, errors.New("cannot take the payload of the null pointer")
	}
	if length < 0 || length > h.UsableSize(p) {
		return nil, errors.Errorf("payload length %d is outside the block's %d usable bytes", length, h.UsableSize(p))
	}

	return h.mem[int(p) : int(p)+length], nil
}

// RegionSize returns the number of region bytes currently managed.
func (h *Heap) RegionSize() int {
	return h.last
}

// VisitAllRegions calls visit once per physical block, in address order,
// covering every allocated block and free range between the sentinel
// prefix and the terminal sentinel. Iteration stops at the first error,
// which is returned.
func (h *Heap) VisitAllRegions(visit func(offset Ptr, size int, allocated bool) error) error {
	for p := firstBlock; int(p) < h.last; p = h.nextBlock(p) {
		if err := visit(p, int(h.blockSize(p)), h.allocated(p)); err != nil {
			return err
		}
	}
	return nil
}
