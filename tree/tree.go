package tree

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/dolthub/swiss"
	"github.com/vkngwrapper/arsenal/buddy"
	"golang.org/x/exp/slog"
)

// Search returns the offset and height of the left-most free block that could hold size bytes.
// This is the block Allocate will start splitting from. Search does not modify the tree.
func (t *Tree) Search(size int) (offset int, height int, found bool) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if size <= 0 {
		return 0, 0, false
	}

	location := t.search(t.root, buddy.MinHeightFor(t.baseUnit, size))
	if location == nil {
		return 0, 0, false
	}

	return location.offset, location.height, true
}

// search walks left before right and returns the first free leaf at or above minHeight.
// Blocks below minHeight cannot hold the request even when free, and heights only shrink
// further down, so those subtrees are skipped whole.
func (t *Tree) search(n *node, minHeight int) *node {
	if n == nil || n.height < minHeight || n.used != 0 {
		return nil
	}

	if n.isLeaf() {
		return n
	}

	found := t.search(n.left, minHeight)
	if found != nil {
		return found
	}

	return t.search(n.right, minHeight)
}

// Allocate places size bytes copied from data into the left-most free block that can hold them
// and returns the block's offset within the arena. The block is split in half, keeping the left
// half, for as long as the half would still hold the request, so no allocation wastes more than
// half of its block.
//
// If data is nil the block is zeroed instead. ErrInvalidSize is returned when size is not positive
// or data is shorter than size. ErrOutOfMemory is returned, and the tree is left untouched, when
// no free block is large enough.
func (t *Tree) Allocate(size int, data []byte) (int, error) {
	t.mutex.Lock()
	offset, err := t.allocate(size, data)
	t.mutex.Unlock()

	if err == nil {
		buddy.DebugValidate(t)
	}

	return offset, err
}

func (t *Tree) allocate(size int, data []byte) (int, error) {
	if t.root == nil {
		panic("attempted to allocate from a destroyed tree")
	}
	if size <= 0 {
		return 0, errors.Wrapf(buddy.ErrInvalidSize, "requested %d bytes", size)
	}
	if data != nil && len(data) < size {
		return 0, errors.Wrapf(buddy.ErrInvalidSize, "requested %d bytes, but the source only holds %d", size, len(data))
	}

	location := t.search(t.root, buddy.MinHeightFor(t.baseUnit, size))
	if location == nil {
		return 0, errors.Wrapf(buddy.ErrOutOfMemory, "no free block can hold %d bytes", size)
	}

	// Splits are kept even if the request ends up in a block found earlier in the walk
	for location.height > 0 && location.capacity(t.baseUnit)/2 > size {
		location.split(t.baseUnit)
		t.logger.LogAttrs(context.Background(), slog.LevelDebug, "    Split block",
			slog.Int("offset", location.offset),
			slog.Int("height", location.height))

		location = location.left
	}

	block := t.data[location.offset : location.offset+size]
	if data != nil {
		copy(block, data[:size])
	} else {
		clear(block)
	}

	location.used = size
	t.allocations.Put(location.offset, location)
	t.allocationBytes += size

	t.logger.LogAttrs(context.Background(), slog.LevelDebug, "Tree::Allocate",
		slog.Int("offset", location.offset),
		slog.Int("size", size),
		slog.Int("capacity", location.capacity(t.baseUnit)))

	return location.offset, nil
}

// Release frees the allocation that begins at offset. Any block whose two halves are both free
// afterward is merged back into a single free block, all the way up toward the root.
//
// ErrInvalidAddress is returned, and the tree is left untouched, when offset is outside the arena,
// falls in the middle of a block, or names a block that is not allocated.
func (t *Tree) Release(offset int) error {
	t.mutex.Lock()
	err := t.release(offset)
	t.mutex.Unlock()

	if err == nil {
		buddy.DebugValidate(t)
	}

	return err
}

func (t *Tree) release(offset int) error {
	if t.root == nil {
		panic("attempted to release from a destroyed tree")
	}
	if offset < 0 || offset >= len(t.data) {
		return errors.Wrapf(buddy.ErrInvalidAddress, "offset %d is outside of the arena", offset)
	}

	size, released := t.releaseFrom(t.root, offset)
	if !released {
		return errors.Wrapf(buddy.ErrInvalidAddress, "offset %d", offset)
	}

	t.allocations.Delete(offset)
	t.allocationBytes -= size

	t.logger.LogAttrs(context.Background(), slog.LevelDebug, "Tree::Release",
		slog.Int("offset", offset),
		slog.Int("size", size))

	return nil
}

// releaseFrom descends into whichever half's address range contains offset. Merges are made on
// the way back up, once per ancestor.
func (t *Tree) releaseFrom(n *node, offset int) (int, bool) {
	if n.isLeaf() {
		if n.offset != offset || n.used == 0 {
			return 0, false
		}

		size := n.used
		n.used = 0
		return size, true
	}

	child := n.left
	if offset >= n.right.offset {
		child = n.right
	}

	size, released := t.releaseFrom(child, offset)
	if released && n.left.isFree() && n.right.isFree() {
		n.merge()
		t.logger.LogAttrs(context.Background(), slog.LevelDebug, "    Merged block",
			slog.Int("offset", n.offset),
			slog.Int("height", n.height))
	}

	return size, released
}

// Bytes returns the live bytes of the allocation that begins at offset. The slice aliases the
// arena and is capped at the allocation's size.
func (t *Tree) Bytes(offset int) ([]byte, error) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	n, ok := t.allocations.Get(offset)
	if !ok {
		return nil, errors.Wrapf(buddy.ErrInvalidAddress, "offset %d", offset)
	}

	end := n.offset + n.used
	return t.data[n.offset:end:end], nil
}

// AllocationSize returns the requested size of the allocation that begins at offset
func (t *Tree) AllocationSize(offset int) (int, error) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	n, ok := t.allocations.Get(offset)
	if !ok {
		return 0, errors.Wrapf(buddy.ErrInvalidAddress, "offset %d", offset)
	}

	return n.used, nil
}

// Clear instantly frees all allocations and collapses the tree back to its root block
func (t *Tree) Clear() {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.root == nil {
		panic("attempted to clear a destroyed tree")
	}

	if !t.root.isLeaf() {
		freeNode(t.root.left)
		freeNode(t.root.right)
		t.root.left = nil
		t.root.right = nil
	}
	t.root.used = 0

	t.allocations = swiss.NewMap[int, *node](uint32(t.maxHeight + 1))
	t.allocationBytes = 0
}

// Destroy drops every node in the tree. The arena itself belongs to the caller and is not released.
// If any allocations are still live, each is logged at error level and an error is returned after the
// tree has been torn down.
func (t *Tree) Destroy() error {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.root == nil {
		return errors.New("tree has already been destroyed")
	}

	unreleased := t.allocations.Count()
	if unreleased > 0 {
		t.visitLeaves(t.root, 0, func(n *node, depth int) {
			if n.used == 0 {
				return
			}

			t.logger.LogAttrs(context.Background(), slog.LevelError, "[UNRELEASED MEMORY] unfreed allocation",
				slog.Int("offset", n.offset),
				slog.Int("size", n.used),
				slog.Int("capacity", n.capacity(t.baseUnit)))
		})
	}

	freeNode(t.root)
	t.root = nil
	t.data = nil
	t.allocations = swiss.NewMap[int, *node](uint32(t.maxHeight + 1))
	t.allocationBytes = 0

	if unreleased > 0 {
		return errors.Newf("%d allocations were not released before the tree was destroyed", unreleased)
	}

	return nil
}
