package buddy

import (
	cerrors "github.com/cockroachdb/errors"
)

type Number interface {
	~int | ~uint
}

// CheckPow2 returns PowerOfTwoError, annotated with name, unless number is a positive power of two
func CheckPow2[T Number](number T, name string) error {
	if number <= 0 || number&(number-1) != 0 {
		return cerrors.Wrapf(PowerOfTwoError, "%s is %d", name, number)
	}
	return nil
}

// Log2 returns the exponent of a power of two. The result is meaningless for other values.
func Log2[T Number](number T) int {
	var exp int
	for number > 1 {
		number >>= 1
		exp++
	}
	return exp
}
