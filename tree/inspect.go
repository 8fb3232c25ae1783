package tree

import (
	"fmt"
	"io"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/arsenal/buddy"
	"golang.org/x/exp/slog"
)

// UsageEntry describes one leaf block of the tree
type UsageEntry struct {
	// Depth is the number of splits between the root and this block
	Depth    int
	Height   int
	Offset   int
	Capacity int
	// Used is the number of bytes held by the block's allocation, or 0 if the block is free
	Used int
}

// Free reports whether the block holds no allocation
func (e UsageEntry) Free() bool {
	return e.Used == 0
}

func (t *Tree) visitLeaves(n *node, depth int, visit func(n *node, depth int)) {
	if n == nil {
		return
	}

	if n.isLeaf() {
		visit(n, depth)
		return
	}

	t.visitLeaves(n.left, depth+1, visit)
	t.visitLeaves(n.right, depth+1, visit)
}

// DumpUsage reports every leaf block from left to right
func (t *Tree) DumpUsage() []UsageEntry {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	var entries []UsageEntry
	t.visitLeaves(t.root, 0, func(n *node, depth int) {
		entries = append(entries, UsageEntry{
			Depth:    depth,
			Height:   n.height,
			Offset:   n.offset,
			Capacity: n.capacity(t.baseUnit),
			Used:     n.used,
		})
	})

	return entries
}

// VisitAllRegions will call the provided callback once for each leaf block, free or allocated,
// from left to right. Iteration stops at the first error the callback returns.
func (t *Tree) VisitAllRegions(handleBlock func(offset int, capacity int, used int, free bool) error) error {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	var err error
	t.visitLeaves(t.root, 0, func(n *node, depth int) {
		if err != nil {
			return
		}
		err = handleBlock(n.offset, n.capacity(t.baseUnit), n.used, n.used == 0)
	})

	return err
}

const treeColumnWidth = 7

// WriteTree renders every block of the tree in order, one per line: a block's left half above it
// and its right half below, each indented one column further. Leaves show the bytes they hold
// and split blocks show a '*'.
func (t *Tree) WriteTree(w io.Writer) error {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.root == nil {
		return errors.New("attempted to write a destroyed tree")
	}

	var header strings.Builder
	header.WriteString("Height:")
	for height := t.maxHeight; height >= 0; height-- {
		fmt.Fprintf(&header, "%*d", treeColumnWidth, height)
	}
	header.WriteByte('\n')

	_, err := io.WriteString(w, header.String())
	if err != nil {
		return err
	}

	return t.writeNode(w, t.root, 0)
}

func (t *Tree) writeNode(w io.Writer, n *node, depth int) error {
	if n.left != nil {
		err := t.writeNode(w, n.left, depth+1)
		if err != nil {
			return err
		}
	}

	indent := strings.Repeat(" ", (depth+1)*treeColumnWidth)
	var err error
	if n.isLeaf() {
		_, err = fmt.Fprintf(w, "%s%*d\n", indent, treeColumnWidth, n.used)
	} else {
		_, err = fmt.Fprintf(w, "%s%*s\n", indent, treeColumnWidth, "*")
	}
	if err != nil {
		return err
	}

	if n.right != nil {
		return t.writeNode(w, n.right, depth+1)
	}

	return nil
}

// AllocationCount returns the number of live allocations
func (t *Tree) AllocationCount() int {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	return t.allocations.Count()
}

// IsEmpty will return true if this tree has no live allocations
func (t *Tree) IsEmpty() bool {
	return t.AllocationCount() == 0
}

// SumFreeSize returns the combined capacity of every free leaf block
func (t *Tree) SumFreeSize() int {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	var sum int
	t.visitLeaves(t.root, 0, func(n *node, depth int) {
		if n.used == 0 {
			sum += n.capacity(t.baseUnit)
		}
	})

	return sum
}

// FreeRegionsCount returns the number of free leaf blocks. Free buddies are always merged, so no
// two of these are halves of the same block.
func (t *Tree) FreeRegionsCount() int {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	var count int
	t.visitLeaves(t.root, 0, func(n *node, depth int) {
		if n.used == 0 {
			count++
		}
	})

	return count
}

// MayHaveFreeBlock reports whether an allocation of size bytes would currently succeed
func (t *Tree) MayHaveFreeBlock(size int) bool {
	_, _, found := t.Search(size)
	return found
}

// AddStatistics sums this tree's allocation statistics into the statistics currently present in the
// provided buddy.Statistics object.
func (t *Tree) AddStatistics(stats *buddy.Statistics) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	stats.ArenaCount++
	stats.ArenaBytes += len(t.data)
	stats.AllocationCount += t.allocations.Count()
	stats.AllocationBytes += t.allocationBytes
	t.visitLeaves(t.root, 0, func(n *node, depth int) {
		if n.used != 0 {
			stats.AllocatedBlockBytes += n.capacity(t.baseUnit)
		}
	})
}

// AddDetailedStatistics sums this tree's allocation statistics into the statistics currently present
// in the provided buddy.DetailedStatistics object.
func (t *Tree) AddDetailedStatistics(stats *buddy.DetailedStatistics) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	t.addDetailedStatistics(stats)
}

func (t *Tree) addDetailedStatistics(stats *buddy.DetailedStatistics) {
	stats.ArenaCount++
	stats.ArenaBytes += len(t.data)

	var leaves int
	t.visitLeaves(t.root, 0, func(n *node, depth int) {
		leaves++
		if n.used == 0 {
			stats.AddFreeBlock(n.capacity(t.baseUnit))
		} else {
			stats.AddAllocation(n.used, n.capacity(t.baseUnit))
		}
	})

	// A full binary tree always has one fewer internal node than it has leaves
	if leaves > 0 {
		stats.SplitCount += leaves - 1
	}
}

// DebugLogAllAllocations calls logFunc once for each live allocation, from left to right
func (t *Tree) DebugLogAllAllocations(logger *slog.Logger, logFunc func(log *slog.Logger, offset int, size int)) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	t.visitLeaves(t.root, 0, func(n *node, depth int) {
		if n.used != 0 {
			logFunc(logger, n.offset, n.used)
		}
	})
}
