//go:build !unix

package arena

import "github.com/cockroachdb/errors"

// MmapArena is unavailable outside of unix systems
type MmapArena struct{}

var _ Arena = &MmapArena{}

// NewMmapArena always fails outside of unix systems; use NewHeapArena instead
func NewMmapArena(size int) (*MmapArena, error) {
	return nil, errors.New("memory mapped arenas are only supported on unix systems")
}

func (a *MmapArena) Bytes() []byte { return nil }

func (a *MmapArena) Release() error { return ErrReleased }
