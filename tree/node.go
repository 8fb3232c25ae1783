package tree

import (
	"sync"

	"github.com/vkngwrapper/arsenal/buddy"
)

var nodeAllocator = sync.Pool{
	New: func() any {
		return &node{}
	},
}

// node is one block of the arena. A node owns both of its children or neither.
type node struct {
	offset int
	height int
	// used is the requested size of the allocation in this block. It is always 0 on split nodes.
	used int

	left  *node
	right *node
}

func newNode(offset, height int) *node {
	n := nodeAllocator.Get().(*node)
	n.offset = offset
	n.height = height
	n.used = 0
	n.left = nil
	n.right = nil
	return n
}

// freeNode returns n and its whole subtree to the pool
func freeNode(n *node) {
	if n.left != nil {
		freeNode(n.left)
		freeNode(n.right)
	}

	*n = node{}
	nodeAllocator.Put(n)
}

func (n *node) isLeaf() bool {
	return n.left == nil
}

func (n *node) isFree() bool {
	return n.left == nil && n.used == 0
}

func (n *node) capacity(baseUnit int) int {
	return buddy.CapacityOf(baseUnit, n.height)
}

func (n *node) split(baseUnit int) {
	if !n.isLeaf() {
		panic("cannot split a block that is already split")
	}
	if n.height == 0 {
		panic("cannot split a block of height 0")
	}
	if n.used != 0 {
		panic("cannot split an allocated block")
	}

	n.left = newNode(n.offset, n.height-1)
	n.right = newNode(n.offset+buddy.CapacityOf(baseUnit, n.height-1), n.height-1)
}

func (n *node) merge() {
	if !n.left.isFree() || !n.right.isFree() {
		panic("cannot merge a block whose halves are not both free")
	}

	freeNode(n.left)
	freeNode(n.right)
	n.left = nil
	n.right = nil
	n.used = 0
}
