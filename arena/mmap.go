//go:build unix

package arena

import (
	"github.com/cockroachdb/errors"
	"golang.org/x/sys/unix"
)

// MmapArena is an Arena backed by an anonymous private memory mapping outside the Go heap
type MmapArena struct {
	data []byte
}

var _ Arena = &MmapArena{}

// NewMmapArena maps size bytes of zeroed, readable and writable memory
func NewMmapArena(size int) (*MmapArena, error) {
	if size <= 0 {
		return nil, errors.Newf("arena size must be positive, got %d", size)
	}

	data, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to map %d bytes", size)
	}

	return &MmapArena{data: data}, nil
}

func (a *MmapArena) Bytes() []byte {
	return a.data
}

func (a *MmapArena) Release() error {
	if a.data == nil {
		return ErrReleased
	}

	err := unix.Munmap(a.data)
	if err != nil {
		return errors.Wrap(err, "failed to unmap arena")
	}

	a.data = nil
	return nil
}
