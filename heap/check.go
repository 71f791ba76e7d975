package heap

import (
	"github.com/dolthub/swiss"
	"github.com/pkg/errors"
	"golang.org/x/exp/slog"

	"github.com/heapsim/seglist"
)

// violations sweeps the whole heap and returns every invariant violation it
// can find. It walks the physical block chain first, then every free list,
// then cross-checks the two walks against each other. It never mutates the
// region.
//
// A corrupted heap can contain cycles, so both walks carry step budgets
// derived from the smallest possible block size.
func (h *Heap) violations() []error {
	var violations []error

	maxBlocks := h.last / minBlockSize

	freeCount := 0
	steps := 0
	for p := firstBlock; int(p) < h.last; p = h.nextBlock(p) {
		size := h.blockSize(p)

		if size == 0 || size%8 != 0 || size < minBlockSize {
			violations = append(violations, errors.Errorf("block %d has invalid size %d", p, size))
			break
		}
		if seglist.AlignDown(int(p), 8) != int(p) {
			violations = append(violations, errors.Errorf("block %d has a misaligned payload", p))
		}

		next := h.nextBlock(p)
		if int(next) > h.last {
			violations = append(violations, errors.Errorf("block %d of size %d runs past the region end %d", p, size, h.last))
			break
		}

		if h.allocated(p) != h.prevAllocated(next) {
			violations = append(violations, errors.Errorf(
				"block %d is allocated=%t but its successor records prev-allocated=%t",
				p, h.allocated(p), h.prevAllocated(next)))
		}

		if !h.allocated(p) {
			freeCount++

			if !h.allocated(next) {
				violations = append(violations, errors.Errorf("blocks %d and %d are both free; coalescing missed them", p, next))
			}
			if footer := h.footer(p); footer != size {
				violations = append(violations, errors.Errorf("free block %d has size %d but footer %d", p, size, footer))
			}
		}

		steps++
		if steps > maxBlocks {
			violations = append(violations, errors.Errorf("physical walk exceeded %d blocks; the chain is likely cyclic", maxBlocks))
			break
		}
	}

	// Free-list membership: every listed block must be free, sized for its
	// class, back-linked, and in exactly one list.
	listed := swiss.NewMap[uint32, int](uint32(freeCount) + 1)

	for index := minClassIndex; index <= maxClassIndex; index++ {
		sentinel := sentinelFor(index)

		steps = 0
		for p := h.linkNext(sentinel); p != sentinel; p = h.linkNext(p) {
			if int(p) < int(firstBlock) || int(p) >= h.last {
				violations = append(violations, errors.Errorf(
					"the class %d list links to %d, which is outside the block area", index, p))
				break
			}
			if otherClass, ok := listed.Get(uint32(p)); ok {
				violations = append(violations, errors.Errorf(
					"block %d is in the class %d list but already appeared in class %d", p, index, otherClass))
				break
			}
			listed.Put(uint32(p), index)

			if h.allocated(p) {
				violations = append(violations, errors.Errorf("block %d is in the class %d list but is marked allocated", p, index))
			}

			size := h.blockSize(p)
			if size < h.classMinSize[index] || size >= h.classMaxSize[index] {
				violations = append(violations, errors.Errorf(
					"block %d of size %d is in class %d, which holds sizes [%d, %d)",
					p, size, index, h.classMinSize[index], h.classMaxSize[index]))
			}

			if h.linkPrev(h.linkNext(p)) != p {
				violations = append(violations, errors.Errorf(
					"block %d links to %d as its next block, but the back link is broken", p, h.linkNext(p)))
			}

			steps++
			if steps > maxBlocks {
				violations = append(violations, errors.Errorf("class %d list exceeded %d entries; the list is likely cyclic", index, maxBlocks))
				break
			}
		}
	}

	for p := firstBlock; int(p) < h.last; p = h.nextBlock(p) {
		size := h.blockSize(p)
		if size == 0 || size%8 != 0 || int(p)+int(size) > h.last {
			break
		}
		if !h.allocated(p) {
			if _, ok := listed.Get(uint32(p)); !ok {
				violations = append(violations, errors.Errorf("free block %d is not reachable from any sentinel", p))
			}
		}
	}

	if listed.Count() != freeCount {
		violations = append(violations, errors.Errorf(
			"the free lists hold %d blocks but the physical walk found %d free blocks", listed.Count(), freeCount))
	}

	return violations
}

// Validate sweeps the heap's invariants and returns the first violation
// found, or nil. With the debug_seglist build tag, seglist.DebugValidate
// runs this on entry to Alloc, Free and Realloc.
func (h *Heap) Validate() error {
	violations := h.violations()
	if len(violations) > 0 {
		return violations[0]
	}
	return nil
}

// CheckHeap sweeps the heap's invariants and logs every violation along
// with the caller-supplied source line, returning the violation count. It
// never mutates the heap and never panics; it is meant to be sprinkled
// through tests and debug sessions.
func (h *Heap) CheckHeap(line int) int {
	violations := h.violations()
	for _, violation := range violations {
		h.logger.Error("heap consistency violation",
			slog.Int("line", line),
			slog.Any("error", violation))
	}
	return len(violations)
}

// DebugLogAllocations logs every live allocation through the provided
// logger. Useful for finding leaks in driver runs.
func (h *Heap) DebugLogAllocations(logger *slog.Logger) {
	_ = h.VisitAllRegions(func(offset Ptr, size int, allocated bool) error {
		if allocated {
			logger.Debug("live allocation",
				slog.Int("offset", int(offset)),
				slog.Int("size", size))
		}
		return nil
	})
}
