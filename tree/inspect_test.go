package tree_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/arsenal/buddy"
	"github.com/vkngwrapper/arsenal/buddy/arena/mocks"
	"github.com/vkngwrapper/arsenal/buddy/tree"
	"go.uber.org/mock/gomock"
	"golang.org/x/exp/slog"
)

func TestWriteTree(t *testing.T) {
	bt, _ := newTestTree(t, 256, 64)

	_, err := bt.Allocate(10, nil)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, bt.WriteTree(&out))

	indent := func(depth int) string {
		return strings.Repeat(" ", (depth+1)*7)
	}
	expected := "Height:      2      1      0\n" +
		indent(2) + "     10\n" +
		indent(1) + "      *\n" +
		indent(2) + "      0\n" +
		indent(0) + "      *\n" +
		indent(1) + "      0\n"
	require.Equal(t, expected, out.String())
}

type jsonNode struct {
	Offset   int
	Height   int
	Capacity int
	Used     *int
	Left     *jsonNode
	Right    *jsonNode
}

type jsonTree struct {
	Summary struct {
		TotalBytes   int
		BaseUnit     int
		MaxHeight    int
		UnusedBytes  int
		WastedBytes  int
		Allocations  int
		UnusedRanges int
	}
	Root *jsonNode
}

func TestWriteJSON(t *testing.T) {
	bt, _ := newTestTree(t, 256, 64)

	_, err := bt.Allocate(10, nil)
	require.NoError(t, err)

	data, err := bt.WriteJSON()
	require.NoError(t, err)

	var parsed jsonTree
	require.NoError(t, json.Unmarshal(data, &parsed))

	require.Equal(t, 256, parsed.Summary.TotalBytes)
	require.Equal(t, 64, parsed.Summary.BaseUnit)
	require.Equal(t, 2, parsed.Summary.MaxHeight)
	require.Equal(t, 192, parsed.Summary.UnusedBytes)
	require.Equal(t, 54, parsed.Summary.WastedBytes)
	require.Equal(t, 1, parsed.Summary.Allocations)
	require.Equal(t, 2, parsed.Summary.UnusedRanges)

	root := parsed.Root
	require.NotNil(t, root)
	require.Nil(t, root.Used)
	require.Equal(t, 256, root.Capacity)
	require.NotNil(t, root.Left)
	require.NotNil(t, root.Left.Left)
	require.NotNil(t, root.Left.Left.Used)
	require.Equal(t, 10, *root.Left.Left.Used)
	require.Equal(t, 64, root.Left.Right.Offset)
	require.Equal(t, 128, root.Right.Offset)
	require.Equal(t, 0, *root.Right.Used)
}

func TestDebugLogAllAllocations(t *testing.T) {
	bt, _ := newTestTree(t, testArenaCapacity, testBaseUnit)

	_, err := bt.Allocate(1000, nil)
	require.NoError(t, err)
	_, err = bt.Allocate(70000, nil)
	require.NoError(t, err)

	var logged [][2]int
	bt.DebugLogAllAllocations(slog.Default(), func(log *slog.Logger, offset int, size int) {
		logged = append(logged, [2]int{offset, size})
	})
	require.Equal(t, [][2]int{{0, 1000}, {131072, 70000}}, logged)
}

func TestSynchronizedConcurrentUse(t *testing.T) {
	ctrl := gomock.NewController(t)

	memory := mocks.NewMockArena(ctrl)
	memory.EXPECT().Bytes().Return(make([]byte, testArenaCapacity))

	bt, err := tree.New(nil, memory, tree.CreateOptions{
		Flags:         tree.CreateSynchronized,
		ArenaCapacity: testArenaCapacity,
		BaseUnit:      4096,
	})
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for worker := 0; worker < 8; worker++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()

			for i := 0; i < 200; i++ {
				size := 100 + worker*1000 + i
				offset, err := bt.Allocate(size, nil)
				if errors.Is(err, buddy.ErrOutOfMemory) {
					continue
				} else if err != nil {
					errs <- err
					return
				}

				err = bt.Release(offset)
				if err != nil {
					errs <- err
					return
				}
			}
		}(worker)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	require.True(t, bt.IsEmpty())
	require.Equal(t, 1, len(bt.DumpUsage()))
	require.NoError(t, bt.Validate())
}
