package heap

import (
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"

	"github.com/heapsim/seglist"
)

// PrintDetailedMap streams a JSON object describing the heap: summary
// statistics followed by every block in address order.
func (h *Heap) PrintDetailedMap(writer *jwriter.Writer) {
	var stats seglist.DetailedStatistics
	stats.Clear()
	h.AddDetailedStatistics(&stats)

	obj := writer.Object()
	defer obj.End()

	obj.Name("TotalBytes").Int(h.last)
	obj.Name("UnusedBytes").Int(h.SumFreeSize())
	obj.Name("Allocations").Int(stats.AllocationCount)
	obj.Name("UnusedRanges").Int(stats.UnusedRangeCount)

	blocks := obj.Name("Blocks").Array()
	defer blocks.End()

	_ = h.VisitAllRegions(func(offset Ptr, size int, allocated bool) error {
		block := blocks.Object()
		defer block.End()

		block.Name("Offset").Int(int(offset))
		block.Name("Size").Int(size)
		if allocated {
			block.Name("Type").String("ALLOCATED")
		} else {
			block.Name("Type").String("FREE")
		}
		return nil
	})
}

// BuildDetailedMapString renders PrintDetailedMap's output as a string.
func (h *Heap) BuildDetailedMapString() string {
	writer := jwriter.NewWriter()
	h.PrintDetailedMap(&writer)
	return string(writer.Bytes())
}
