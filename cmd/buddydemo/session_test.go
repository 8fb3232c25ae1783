package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/arsenal/buddy/arena"
	"github.com/vkngwrapper/arsenal/buddy/tree"
)

func newDemoTree(t *testing.T) *tree.Tree {
	heap, err := arena.NewHeapArena(tree.DefaultArenaCapacity)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, heap.Release())
	})

	bt, err := tree.New(nil, heap, tree.CreateOptions{})
	require.NoError(t, err)
	return bt
}

func TestSessionAllocateAndRelease(t *testing.T) {
	bt := newDemoTree(t)

	input := strings.Join([]string{
		"0", "1000",
		"0", "40000",
		"1", "0",
		"-1",
	}, "\n")
	var out bytes.Buffer

	s := newSession(strings.NewReader(input), &out, bt)
	require.NoError(t, s.run())

	output := out.String()
	require.Contains(t, output, "Allocated 1000 bytes.  Location saved in index 0")
	require.Contains(t, output, "Allocated 40000 bytes.  Location saved in index 1")
	require.Contains(t, output, "Valid values are: 0, 1: ")
	require.Contains(t, output, "Released index 0")

	// Anything left live is released when the session ends
	require.True(t, bt.IsEmpty())
	require.NoError(t, bt.Destroy())
}

func TestSessionRejectsInvalidInput(t *testing.T) {
	bt := newDemoTree(t)

	input := strings.Join([]string{
		"banana",
		"7",
		"1",
		"0", "0", "2000000", "five", "5",
		"1", "3", "0",
		"-1",
	}, " ")
	var out bytes.Buffer

	s := newSession(strings.NewReader(input), &out, bt)
	require.NoError(t, s.run())

	output := out.String()
	require.Equal(t, 2, strings.Count(output, "Invalid value\n"))
	require.Contains(t, output, "Oops! The memory is empty.")
	require.Equal(t, 4, strings.Count(output, "Invalid value.  Please enter a valid value: "))
	require.Contains(t, output, "Allocated 5 bytes.  Location saved in index 0")
	require.Contains(t, output, "Released index 0")
	require.True(t, bt.IsEmpty())
}

func TestSessionOutOfMemory(t *testing.T) {
	bt := newDemoTree(t)

	input := "0 1048576 0 1 -1"
	var out bytes.Buffer

	s := newSession(strings.NewReader(input), &out, bt)
	require.NoError(t, s.run())

	output := out.String()
	require.Contains(t, output, "Allocated 1048576 bytes.  Location saved in index 0")
	require.Contains(t, output, "Allocation failed. No free block can hold 1 bytes.")
	require.True(t, bt.IsEmpty())
}

func TestSessionEndsAtEndOfInput(t *testing.T) {
	bt := newDemoTree(t)

	var out bytes.Buffer
	s := newSession(strings.NewReader("0 100"), &out, bt)
	require.NoError(t, s.run())
	require.True(t, bt.IsEmpty())
}

func TestRunDemoRejectsBadConfig(t *testing.T) {
	require.Error(t, runDemo(nil, 1000, 64, false))
	require.Error(t, runDemo(nil, 1024, 4096, false))
}
