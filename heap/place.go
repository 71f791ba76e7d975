package heap

// place carves alignedSize bytes out of a free block of size blockSize that
// has already been unlinked from its list. If the remainder would be too
// small to frame a block, the whole block is allocated; otherwise the tail
// is split off as a new free block and inserted into its class.
func (h *Heap) place(p Ptr, alignedSize, blockSize uint32) Ptr {
	remain := blockSize - alignedSize

	if remain < minBlockSize {
		h.setAllocated(p)
		h.setPrevAllocated(h.nextBlock(p))
		return p
	}

	h.setSize(p, alignedSize)
	h.setAllocated(p)

	rest := h.nextBlock(p)
	h.writeFreeBlock(rest, remain, true)
	h.listInsert(rest, remain)

	// The block after rest already carries prev-allocated == 0: the split
	// block was free before the split and rest stays free.
	return p
}

// shrink is place for a block that is already allocated: it trims p down to
// alignedSize and frees the tail. The freed tail is merged with the block
// after it when that block is free, keeping coalescing eager.
func (h *Heap) shrink(p Ptr, alignedSize, blockSize uint32) Ptr {
	remain := blockSize - alignedSize

	if remain < minBlockSize {
		return p
	}

	h.setSizeHeaderOnly(p, alignedSize)

	rest := h.nextBlock(p)
	h.writeFreeBlock(rest, remain, true)

	next := h.nextBlock(rest)
	if h.allocated(next) {
		h.listInsert(rest, remain)
		h.clearPrevAllocated(next)
	} else {
		merged := remain + h.blockSize(next)
		h.listRemove(next)
		h.writeFreeBlock(rest, merged, true)
		h.listInsert(rest, merged)
	}

	return p
}

// extendHeap grows the region to create a free block of at least
// alignedSize bytes at the tail and places the request in it. When the
// current tail block is free it is grown in place rather than left behind a
// fresh block. On provider failure no state changes remain.
func (h *Heap) extendHeap(alignedSize uint32) (Ptr, error) {
	terminal := Ptr(h.last)

	if h.prevAllocated(terminal) {
		extend := alignedSize
		if extend < extendSize {
			extend = extendSize
		}

		if _, err := h.prov.Sbrk(int(extend)); err != nil {
			return NullPtr, err
		}
		h.mem = h.prov.Region()
		h.last += int(extend)

		// The old terminal header becomes the new block's header.
		h.writeFreeBlock(terminal, extend, true)
		h.setHeader(Ptr(h.last), flagAllocated)

		return h.place(terminal, alignedSize, extend), nil
	}

	tail := h.prevFreeBlock(terminal)
	tailSize := h.blockSize(tail)

	// The tail block did not satisfy the fit search, so it is strictly
	// smaller than the request.
	extend := alignedSize - tailSize
	if extend < extendSize {
		extend = extendSize
	}

	h.listRemove(tail)
	if _, err := h.prov.Sbrk(int(extend)); err != nil {
		h.listInsert(tail, tailSize)
		return NullPtr, err
	}
	h.mem = h.prov.Region()
	h.last += int(extend)

	h.setSize(tail, tailSize+extend)
	h.setHeader(Ptr(h.last), flagAllocated)

	return h.place(tail, alignedSize, tailSize+extend), nil
}
