// Package arena acquires and releases the contiguous backing memory that a buddy tree subdivides.
// The tree only reads Bytes once, at construction; releasing the arena is the owner's job.
package arena

//go:generate mockgen -package mocks -destination mocks/arena.go . Arena

import (
	"github.com/bytedance/gopkg/lang/dirtmake"
	"github.com/cockroachdb/errors"
)

// ErrReleased is returned when an arena is released more than once
var ErrReleased = errors.New("arena has already been released")

// Arena is a contiguous region of process memory
type Arena interface {
	// Bytes returns the whole region. It returns nil after Release.
	Bytes() []byte
	// Release returns the region to wherever it was acquired from
	Release() error
}

// HeapArena is an Arena backed by a Go byte slice. Its contents are not zeroed on creation.
type HeapArena struct {
	data []byte
}

var _ Arena = &HeapArena{}

// NewHeapArena reserves size bytes from the Go heap
func NewHeapArena(size int) (*HeapArena, error) {
	if size <= 0 {
		return nil, errors.Newf("arena size must be positive, got %d", size)
	}

	return &HeapArena{data: dirtmake.Bytes(size, size)}, nil
}

func (a *HeapArena) Bytes() []byte {
	return a.data
}

func (a *HeapArena) Release() error {
	if a.data == nil {
		return ErrReleased
	}

	a.data = nil
	return nil
}
