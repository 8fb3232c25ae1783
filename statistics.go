package buddy

import "math"

// Statistics are summed across one or more trees by AddStatistics
type Statistics struct {
	ArenaCount      int
	ArenaBytes      int
	AllocationCount int
	// AllocationBytes is the number of bytes requested by live allocations
	AllocationBytes int
	// AllocatedBlockBytes is the capacity of the blocks holding live allocations. The difference
	// from AllocationBytes is internal fragmentation.
	AllocatedBlockBytes int
}

func (s *Statistics) Clear() {
	s.ArenaCount = 0
	s.ArenaBytes = 0
	s.AllocationCount = 0
	s.AllocationBytes = 0
	s.AllocatedBlockBytes = 0
}

func (s *Statistics) AddStatistics(other *Statistics) {
	s.ArenaCount += other.ArenaCount
	s.ArenaBytes += other.ArenaBytes
	s.AllocationCount += other.AllocationCount
	s.AllocationBytes += other.AllocationBytes
	s.AllocatedBlockBytes += other.AllocatedBlockBytes
}

// WastedBytes is the portion of allocated blocks not covered by requested bytes
func (s *Statistics) WastedBytes() int {
	return s.AllocatedBlockBytes - s.AllocationBytes
}

type DetailedStatistics struct {
	Statistics
	FreeBlockCount    int
	SplitCount        int
	AllocationSizeMin int
	AllocationSizeMax int
	FreeBlockSizeMin  int
	FreeBlockSizeMax  int
}

func (s *DetailedStatistics) Clear() {
	s.Statistics.Clear()
	s.FreeBlockCount = 0
	s.SplitCount = 0
	s.AllocationSizeMin = math.MaxInt
	s.AllocationSizeMax = 0
	s.FreeBlockSizeMin = math.MaxInt
	s.FreeBlockSizeMax = 0
}

func (s *DetailedStatistics) AddFreeBlock(capacity int) {
	s.FreeBlockCount++

	if capacity < s.FreeBlockSizeMin {
		s.FreeBlockSizeMin = capacity
	}

	if capacity > s.FreeBlockSizeMax {
		s.FreeBlockSizeMax = capacity
	}
}

func (s *DetailedStatistics) AddAllocation(size, capacity int) {
	s.AllocationCount++
	s.AllocationBytes += size
	s.AllocatedBlockBytes += capacity

	if size < s.AllocationSizeMin {
		s.AllocationSizeMin = size
	}

	if size > s.AllocationSizeMax {
		s.AllocationSizeMax = size
	}
}

func (s *DetailedStatistics) AddDetailedStatistics(other *DetailedStatistics) {
	s.Statistics.AddStatistics(&other.Statistics)
	s.FreeBlockCount += other.FreeBlockCount
	s.SplitCount += other.SplitCount

	if other.FreeBlockSizeMin < s.FreeBlockSizeMin {
		s.FreeBlockSizeMin = other.FreeBlockSizeMin
	}

	if other.FreeBlockSizeMax > s.FreeBlockSizeMax {
		s.FreeBlockSizeMax = other.FreeBlockSizeMax
	}

	if other.AllocationSizeMin < s.AllocationSizeMin {
		s.AllocationSizeMin = other.AllocationSizeMin
	}

	if other.AllocationSizeMax > s.AllocationSizeMax {
		s.AllocationSizeMax = other.AllocationSizeMax
	}
}
