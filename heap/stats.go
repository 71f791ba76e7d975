package heap

import "github.com/heapsim/seglist"

// AddStatistics sums this heap's usage into stats. Counts are computed by
// walking the physical block chain rather than from cached counters, so
// they cannot drift from the region's actual contents.
func (h *Heap) AddStatistics(stats *seglist.Statistics) {
	stats.RegionCount++
	stats.RegionBytes += h.last

	_ = h.VisitAllRegions(func(offset Ptr, size int, allocated bool) error {
		if allocated {
			stats.AllocationCount++
			stats.AllocationBytes += size
		}
		return nil
	})
}

// AddDetailedStatistics sums this heap's usage into stats, including
// min/max allocation and free-range sizes.
func (h *Heap) AddDetailedStatistics(stats *seglist.DetailedStatistics) {
	stats.RegionCount++
	stats.RegionBytes += h.last

	_ = h.VisitAllRegions(func(offset Ptr, size int, allocated bool) error {
		if allocated {
			stats.AddAllocation(size)
		} else {
			stats.AddUnusedRange(size)
		}
		return nil
	})
}

// SumFreeSize returns the number of free block bytes in the heap.
func (h *Heap) SumFreeSize() int {
	freeSize := 0
	_ = h.VisitAllRegions(func(offset Ptr, size int, allocated bool) error {
		if !allocated {
			freeSize += size
		}
		return nil
	})
	return freeSize
}

// AllocationCount returns the number of live allocations.
func (h *Heap) AllocationCount() int {
	count := 0
	_ = h.VisitAllRegions(func(offset Ptr, size int, allocated bool) error {
		if allocated {
			count++
		}
		return nil
	})
	return count
}

// FreeRegionsCount returns the number of free blocks. With eager
// coalescing no two of them are adjacent.
func (h *Heap) FreeRegionsCount() int {
	count := 0
	_ = h.VisitAllRegions(func(offset Ptr, size int, allocated bool) error {
		if !allocated {
			count++
		}
		return nil
	})
	return count
}
