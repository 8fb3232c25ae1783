package tree

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/arsenal/buddy"
)

var _ buddy.Validatable = &Tree{}

// Validate performs internal consistency checks on the tree: every split block must own two
// correctly placed halves one height lower, no split block may hold an allocation, no two free
// buddies may be left unmerged, and the allocation index must agree with the leaves.
func (t *Tree) Validate() error {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.root == nil {
		return errors.New("tree has been destroyed")
	}
	if t.root.offset != 0 || t.root.height != t.maxHeight {
		return errors.Errorf("root block should cover the arena at height %d, but it sits at offset %d with height %d", t.maxHeight, t.root.offset, t.root.height)
	}
	if buddy.CapacityOf(t.baseUnit, t.maxHeight) != len(t.data) {
		return errors.Errorf("root capacity %d does not match arena capacity %d", buddy.CapacityOf(t.baseUnit, t.maxHeight), len(t.data))
	}

	var allocCount, allocBytes int
	err := t.validateNode(t.root, &allocCount, &allocBytes)
	if err != nil {
		return err
	}

	if allocCount != t.allocations.Count() {
		return errors.Errorf("the tree holds %d allocated blocks, but %d allocations are indexed", allocCount, t.allocations.Count())
	}
	if allocBytes != t.allocationBytes {
		return errors.Errorf("the allocated blocks hold %d bytes, but the tree records %d", allocBytes, t.allocationBytes)
	}

	t.allocations.Iter(func(offset int, n *node) (stop bool) {
		if n.offset != offset || !n.isLeaf() || n.used == 0 {
			err = errors.Errorf("allocation index entry at offset %d does not name an allocated block", offset)
			return true
		}
		return false
	})

	return err
}

func (t *Tree) validateNode(n *node, allocCount *int, allocBytes *int) error {
	if n.height < 0 {
		return errors.Errorf("block at offset %d has negative height %d", n.offset, n.height)
	}

	if (n.left == nil) != (n.right == nil) {
		return errors.Errorf("block at offset %d has exactly one half", n.offset)
	}

	if n.isLeaf() {
		if n.used < 0 || n.used > n.capacity(t.baseUnit) {
			return errors.Errorf("block at offset %d holds %d bytes but has a capacity of %d", n.offset, n.used, n.capacity(t.baseUnit))
		}

		if n.used != 0 {
			*allocCount++
			*allocBytes += n.used
		}
		return nil
	}

	if n.used != 0 {
		return errors.Errorf("split block at offset %d records %d used bytes", n.offset, n.used)
	}
	if n.height == 0 {
		return errors.Errorf("block at offset %d is split at height 0", n.offset)
	}

	halfHeight := n.height - 1
	if n.left.height != halfHeight || n.right.height != halfHeight {
		return errors.Errorf("halves of the block at offset %d have heights %d and %d, expected %d", n.offset, n.left.height, n.right.height, halfHeight)
	}
	if n.left.offset != n.offset {
		return errors.Errorf("left half of the block at offset %d starts at offset %d", n.offset, n.left.offset)
	}
	if expected := n.offset + buddy.CapacityOf(t.baseUnit, halfHeight); n.right.offset != expected {
		return errors.Errorf("right half of the block at offset %d starts at offset %d, expected %d", n.offset, n.right.offset, expected)
	}
	if n.left.isFree() && n.right.isFree() {
		return errors.Errorf("block at offset %d has two free halves that were never merged", n.offset)
	}

	err := t.validateNode(n.left, allocCount, allocBytes)
	if err != nil {
		return err
	}

	return t.validateNode(n.right, allocCount, allocBytes)
}
