package buddy

import "github.com/pkg/errors"

var (
	// ErrOutOfMemory is returned when no free block in the arena is large enough for a requested allocation
	ErrOutOfMemory error = errors.New("out of memory")
	// ErrInvalidAddress is returned when a release names an offset that does not begin a live allocation
	ErrInvalidAddress error = errors.New("address does not begin a live allocation")
	// ErrInvalidSize is returned when an allocation requests zero or fewer bytes, or when the source
	// data is shorter than the requested size
	ErrInvalidSize error = errors.New("invalid allocation size")
	// ErrInvalidConfig is returned from constructors when the provided capacities cannot describe an arena
	ErrInvalidConfig error = errors.New("invalid arena configuration")
	// PowerOfTwoError is the error returned from CheckPow2 or other methods if the number being tested is not a power of two
	PowerOfTwoError error = errors.New("number must be a power of two")
)
