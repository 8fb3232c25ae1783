package buddy

import "math"

// CapacityOf converts a tree height into the number of bytes a block of that height holds
func CapacityOf(baseUnit int, height int) int {
	return baseUnit << height
}

// MinHeightFor returns the smallest height whose capacity is at least numBytes. Sizes at or
// below the base unit, including zero and negative sizes, map to height 0.
//
// The height is found by doubling the base unit until it is no longer smaller than the request,
// so results at power-of-two boundaries are exact.
func MinHeightFor(baseUnit int, numBytes int) int {
	height := 0
	for capacity := baseUnit; capacity < numBytes; height++ {
		if capacity > math.MaxInt/2 {
			return height + 1
		}
		capacity <<= 1
	}

	return height
}
