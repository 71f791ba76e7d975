// Package heap implements a dynamic memory allocator over a single
// contiguous byte region supplied by an sbrk-style RegionProvider. Blocks
// carry boundary tags and free blocks are threaded into circular, doubly
// linked, size-segregated free lists whose sentinel nodes live in the first
// 128 bytes of the region.
//
// The allocator is single-threaded and non-reentrant; callers that share a
// Heap across goroutines must serialize access themselves.
package heap

import "encoding/binary"

// On-region block format. A block pointer is the payload offset; the header
// word sits in the 4 bytes before it.
//
//	        +---------------+------+
//	        |  block size   | flag | <- header, payload-4
//	        +---------------+------+ <- payload, 8-byte aligned
//	        |     prev link        |    (free blocks only)
//	        +----------------------+
//	        |     next link        |    (free blocks only)
//	        +----------------------+
//	        |         ...          |
//	        +---------------+------+
//	        |  block size          | <- footer, free blocks only
//	        +---------------+------+
//
// Sizes are multiples of 8, so the low 3 bits of the header hold flags:
// bit 0 marks the block allocated, bit 1 marks the physically previous
// block allocated, bit 2 is reserved. Allocated blocks carry no footer;
// the footer bytes belong to the payload.
const (
	wordSize = 4

	// minBlockSize is header + two list links + footer.
	minBlockSize = 16

	// extendSize is the size of the initial region and the minimum number
	// of bytes requested from the region provider when an allocation grows
	// the heap. Realloc's in-place growth of the last block requests only
	// the deficit.
	extendSize = 4096

	flagAllocated     = uint32(0x1)
	flagPrevAllocated = uint32(0x2)
	flagMask          = uint32(0x7)
	sizeMask          = ^flagMask
)

// Ptr is a payload offset into the heap's region. The zero value lies
// inside the sentinel prefix and never names a real payload, so it doubles
// as the null pointer.
type Ptr uint32

// NullPtr is the zero Ptr, returned where C would return NULL.
const NullPtr Ptr = 0

func (h *Heap) word(off int) uint32 {
	return binary.LittleEndian.Uint32(h.mem[off:])
}

func (h *Heap) setWord(off int, value uint32) {
	binary.LittleEndian.PutUint32(h.mem[off:], value)
}

func (h *Heap) header(p Ptr) uint32 {
	return h.word(int(p) - wordSize)
}

func (h *Heap) setHeader(p Ptr, header uint32) {
	h.setWord(int(p)-wordSize, header)
}

func (h *Heap) blockSize(p Ptr) uint32 {
	return h.header(p) & sizeMask
}

func (h *Heap) allocated(p Ptr) bool {
	return h.header(p)&flagAllocated != 0
}

func (h *Heap) prevAllocated(p Ptr) bool {
	return h.header(p)&flagPrevAllocated != 0
}

func (h *Heap) setAllocated(p Ptr) {
	h.setHeader(p, h.header(p)|flagAllocated)
}

func (h *Heap) clearAllocated(p Ptr) {
	h.setHeader(p, h.header(p)&^flagAllocated)
}

func (h *Heap) setPrevAllocated(p Ptr) {
	h.setHeader(p, h.header(p)|flagPrevAllocated)
}

func (h *Heap) clearPrevAllocated(p Ptr) {
	h.setHeader(p, h.header(p)&^flagPrevAllocated)
}

// setSize updates a block's size, preserving its flag bits, and writes the
// matching footer. Only meaningful for free blocks; on an allocated block
// the footer word would land inside the payload.
func (h *Heap) setSize(p Ptr, size uint32) {
	h.setHeader(p, size|(h.header(p)&flagMask))
	h.setWord(int(p)+int(size)-2*wordSize, size)
}

// setSizeHeaderOnly updates a block's size, preserving its flag bits,
// without touching the footer position. Used when the block is (or is
// becoming) allocated.
func (h *Heap) setSizeHeaderOnly(p Ptr, size uint32) {
	h.setHeader(p, size|(h.header(p)&flagMask))
}

// writeFreeBlock writes a complete fresh header and footer for a free block
// carved out of previously unstructured bytes, discarding whatever flag
// bits were there before.
func (h *Heap) writeFreeBlock(p Ptr, size uint32, prevAllocated bool) {
	header := size
	if prevAllocated {
		header |= flagPrevAllocated
	}
	h.setHeader(p, header)
	h.setWord(int(p)+int(size)-2*wordSize, size)
}

func (h *Heap) footer(p Ptr) uint32 {
	return h.word(int(p) + int(h.blockSize(p)) - 2*wordSize)
}

// nextBlock returns the physically next block.
func (h *Heap) nextBlock(p Ptr) Ptr {
	return p + Ptr(h.blockSize(p))
}

// prevFreeBlock returns the physically previous block by reading its
// footer. Only valid when the previous block is free; an allocated
// predecessor has no footer.
func (h *Heap) prevFreeBlock(p Ptr) Ptr {
	return p - Ptr(h.word(int(p)-2*wordSize))
}
