package tree_test

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/arsenal/buddy"
	"github.com/vkngwrapper/arsenal/buddy/arena"
	"github.com/vkngwrapper/arsenal/buddy/arena/mocks"
	"github.com/vkngwrapper/arsenal/buddy/tree"
	"go.uber.org/mock/gomock"
	"golang.org/x/exp/slog"
)

func TestNewDefaults(t *testing.T) {
	ctrl := gomock.NewController(t)

	memory := mocks.NewMockArena(ctrl)
	memory.EXPECT().Bytes().Return(make([]byte, tree.DefaultArenaCapacity))

	bt, err := tree.New(slog.Default(), memory, tree.CreateOptions{})
	require.NoError(t, err)
	require.Equal(t, tree.DefaultArenaCapacity, bt.Capacity())
	require.Equal(t, tree.DefaultBaseUnit, bt.BaseUnit())
	require.Equal(t, 4, bt.MaxHeight())
}

func TestNewUsesPrefixOfLargerArena(t *testing.T) {
	ctrl := gomock.NewController(t)

	memory := mocks.NewMockArena(ctrl)
	memory.EXPECT().Bytes().Return(make([]byte, 5000))

	bt, err := tree.New(nil, memory, tree.CreateOptions{ArenaCapacity: 4096, BaseUnit: 512})
	require.NoError(t, err)
	require.Equal(t, 4096, bt.Capacity())
	require.Equal(t, 3, bt.MaxHeight())
}

func TestNewInvalidOptions(t *testing.T) {
	table := []struct {
		name       string
		options    tree.CreateOptions
		arenaSize  int
		readsArena bool
	}{
		{name: "negative capacity", options: tree.CreateOptions{ArenaCapacity: -1024, BaseUnit: 64}},
		{name: "negative base unit", options: tree.CreateOptions{ArenaCapacity: 1024, BaseUnit: -64}},
		{name: "capacity not a power of two", options: tree.CreateOptions{ArenaCapacity: 1000, BaseUnit: 8}},
		{name: "base unit not a power of two", options: tree.CreateOptions{ArenaCapacity: 1024, BaseUnit: 24}},
		{name: "base unit larger than capacity", options: tree.CreateOptions{ArenaCapacity: 1024, BaseUnit: 2048}},
		{name: "arena too small", options: tree.CreateOptions{ArenaCapacity: 1024, BaseUnit: 64}, arenaSize: 512, readsArena: true},
	}

	for _, e := range table {
		t.Run(e.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)

			memory := mocks.NewMockArena(ctrl)
			if e.readsArena {
				memory.EXPECT().Bytes().Return(make([]byte, e.arenaSize))
			}

			_, err := tree.New(nil, memory, e.options)
			require.Error(t, err)
			require.True(t, errors.Is(err, buddy.ErrInvalidConfig))
		})
	}
}

func TestNewPowerOfTwoError(t *testing.T) {
	ctrl := gomock.NewController(t)
	memory := mocks.NewMockArena(ctrl)

	_, err := tree.New(nil, memory, tree.CreateOptions{ArenaCapacity: 3000, BaseUnit: 8})
	require.True(t, errors.Is(err, buddy.PowerOfTwoError))
	require.True(t, errors.Is(err, buddy.ErrInvalidConfig))
}

func TestNewNilArena(t *testing.T) {
	_, err := tree.New(nil, nil, tree.CreateOptions{})
	require.True(t, errors.Is(err, buddy.ErrInvalidConfig))
}

func TestNewHeapArena(t *testing.T) {
	heap, err := arena.NewHeapArena(1 << 20)
	require.NoError(t, err)
	defer func() {
		require.NoError(t, heap.Release())
	}()

	bt, err := tree.New(nil, heap, tree.CreateOptions{})
	require.NoError(t, err)

	offset, err := bt.Allocate(11, []byte("hello arena"))
	require.NoError(t, err)
	require.Equal(t, []byte("hello arena"), heap.Bytes()[offset:offset+11])

	require.NoError(t, bt.Release(offset))
	require.NoError(t, bt.Destroy())
}
