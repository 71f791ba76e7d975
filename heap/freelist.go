package heap

import "math/bits"

// The free-list registry is a 16-entry family of circular doubly linked
// lists segregated by size class. Class k (k in [12, 27]) holds free blocks
// whose 32-bit size has k leading zeros, i.e. sizes in [2^(31-k), 2^(32-k)),
// with class 12 acting as the catch-all for everything larger. Each class
// has an 8-byte sentinel node in the region's reserved prefix; a sentinel
// whose next link points to itself marks an empty list.
//
// Sentinels are only ever touched as list endpoints. They carry no header
// and are never inspected as blocks.
const (
	sentinelBytes = 128

	minClassIndex = 12
	maxClassIndex = 27

	// firstBlock is the payload offset of the first real block: past the
	// sentinel prefix, a 4-byte pad, and the block's own header.
	firstBlock = Ptr(sentinelBytes + 2*wordSize)
)

// classIndex maps a block size to its free-list class: the number of
// leading zeros of the 32-bit size, clamped into [minClassIndex,
// maxClassIndex]. Sizes are at least 16, so the clamp at the top only
// matters defensively; the clamp at the bottom routes very large sizes to
// the catch-all class.
func classIndex(size uint32) int {
	index := bits.LeadingZeros32(size)
	if index < minClassIndex {
		return minClassIndex
	}
	if index > maxClassIndex {
		return maxClassIndex
	}
	return index
}

// sentinelFor returns the sentinel node for a class index. Class 27 sits at
// offset 0 and class 12 at offset 120.
func sentinelFor(index int) Ptr {
	return Ptr((maxClassIndex - index) * 8)
}

// Free-list links are stored in the first 8 bytes of a free block's
// payload: the prev link at the payload offset itself and the next link one
// word later. Sentinel nodes use the same layout, which keeps the list
// operations branch-free at the ends.
func (h *Heap) linkPrev(p Ptr) Ptr {
	return Ptr(h.word(int(p)))
}

func (h *Heap) linkNext(p Ptr) Ptr {
	return Ptr(h.word(int(p) + wordSize))
}

func (h *Heap) setLinkPrev(p, prev Ptr) {
	h.setWord(int(p), uint32(prev))
}

func (h *Heap) setLinkNext(p, next Ptr) {
	h.setWord(int(p)+wordSize, uint32(next))
}

// listInsert threads a free block of the given size into its class list,
// immediately before the sentinel. The block must not already be in a list.
func (h *Heap) listInsert(p Ptr, size uint32) {
	sentinel := sentinelFor(classIndex(size))
	prev := h.linkPrev(sentinel)

	h.setLinkPrev(sentinel, p)
	h.setLinkPrev(p, prev)

	h.setLinkNext(p, sentinel)
	h.setLinkNext(prev, p)
}

// listRemove unlinks a block from whatever list it is in, via its stored
// prev/next links.
func (h *Heap) listRemove(p Ptr) {
	prev := h.linkPrev(p)
	next := h.linkNext(p)

	h.setLinkNext(prev, next)
	h.setLinkPrev(next, prev)
}
