//go:build unix

package arena_test

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/arsenal/buddy/arena"
)

func TestMmapArena(t *testing.T) {
	mapped, err := arena.NewMmapArena(1 << 16)
	require.NoError(t, err)

	data := mapped.Bytes()
	require.Len(t, data, 1<<16)
	require.Equal(t, byte(0), data[100])

	data[100] = 3
	require.Equal(t, byte(3), mapped.Bytes()[100])

	require.NoError(t, mapped.Release())
	require.Nil(t, mapped.Bytes())
	require.True(t, errors.Is(mapped.Release(), arena.ErrReleased))
}

func TestMmapArenaInvalidSize(t *testing.T) {
	_, err := arena.NewMmapArena(0)
	require.Error(t, err)
}
