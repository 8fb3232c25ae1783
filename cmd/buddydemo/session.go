package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/bytedance/gopkg/lang/mcache"
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/arsenal/buddy"
	"github.com/vkngwrapper/arsenal/buddy/tree"
)

const (
	choiceAllocate = 0
	choiceRelease  = 1
)

// session remembers the offset of every live allocation in a numbered slot so that the user
// can name allocations to release by slot index
type session struct {
	in   *bufio.Scanner
	out  io.Writer
	tree *tree.Tree

	slots []int
	live  []bool
}

func newSession(in io.Reader, out io.Writer, bt *tree.Tree) *session {
	scanner := bufio.NewScanner(in)
	scanner.Split(bufio.ScanWords)

	// No tree can hold more live allocations than it has base unit blocks
	slotCount := bt.Capacity() / bt.BaseUnit()

	return &session{
		in:    scanner,
		out:   out,
		tree:  bt,
		slots: make([]int, slotCount),
		live:  make([]bool, slotCount),
	}
}

// readInt returns the next whitespace-separated token as an integer. ok is false once input
// runs out; tokens that aren't integers are reported as invalid.
func (s *session) readInt() (value int, valid bool, ok bool) {
	if !s.in.Scan() {
		return 0, false, false
	}

	value, err := strconv.Atoi(s.in.Text())
	return value, err == nil, true
}

// readIntUntil keeps reading until accept approves a value
func (s *session) readIntUntil(accept func(int) bool) (int, bool) {
	for {
		value, valid, ok := s.readInt()
		if !ok {
			return 0, false
		}
		if valid && accept(value) {
			return value, true
		}

		fmt.Fprint(s.out, "Invalid value.  Please enter a valid value: ")
	}
}

func (s *session) run() error {
	defer s.releaseAll()

	for {
		err := s.tree.WriteTree(s.out)
		if err != nil {
			return err
		}

		fmt.Fprint(s.out, "Enter a negative number to exit, 0 to allocate memory, 1 to release memory: ")
		choice, valid, ok := s.readInt()
		if !ok {
			return s.in.Err()
		}

		switch {
		case !valid:
			fmt.Fprintln(s.out, "Invalid value")
		case choice < 0:
			return nil
		case choice == choiceAllocate:
			err = s.allocate()
		case choice == choiceRelease:
			err = s.release()
		default:
			fmt.Fprintln(s.out, "Invalid value")
		}

		if err != nil {
			return err
		}
	}
}

func (s *session) allocate() error {
	capacity := s.tree.Capacity()
	fmt.Fprintf(s.out, "Enter number of bytes to allocate (1 to %d): ", capacity)

	size, ok := s.readIntUntil(func(value int) bool {
		return value >= 1 && value <= capacity
	})
	if !ok {
		return nil
	}

	source := mcache.Malloc(size)
	for i := range source {
		source[i] = byte(i)
	}
	offset, err := s.tree.Allocate(size, source)
	mcache.Free(source)

	if errors.Is(err, buddy.ErrOutOfMemory) {
		fmt.Fprintf(s.out, "Allocation failed. No free block can hold %d bytes.\n", size)
		return nil
	} else if err != nil {
		return err
	}

	for index := range s.slots {
		if !s.live[index] {
			s.slots[index] = offset
			s.live[index] = true
			fmt.Fprintf(s.out, "Allocation successful. Allocated %d bytes.  Location saved in index %d\n", size, index)
			return nil
		}
	}

	return errors.Newf("no slot left to record the allocation at offset %d", offset)
}

func (s *session) release() error {
	var valid []string
	for index, live := range s.live {
		if live {
			valid = append(valid, strconv.Itoa(index))
		}
	}

	if len(valid) == 0 {
		fmt.Fprintln(s.out, "Oops! The memory is empty.")
		return nil
	}

	fmt.Fprintf(s.out, "Enter index of value to release. Valid values are: %s: ", strings.Join(valid, ", "))
	index, ok := s.readIntUntil(func(value int) bool {
		return value >= 0 && value < len(s.live) && s.live[value]
	})
	if !ok {
		return nil
	}

	err := s.tree.Release(s.slots[index])
	if err != nil {
		return err
	}

	s.live[index] = false
	fmt.Fprintf(s.out, "Released index %d\n", index)
	return nil
}

func (s *session) releaseAll() {
	for index, live := range s.live {
		if live {
			// Slots only ever hold offsets the tree handed out, so this cannot fail
			_ = s.tree.Release(s.slots[index])
			s.live[index] = false
		}
	}
}
