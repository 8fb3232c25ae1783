package tree

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/dolthub/swiss"
	"github.com/vkngwrapper/arsenal/buddy"
	"github.com/vkngwrapper/arsenal/buddy/arena"
	"github.com/vkngwrapper/arsenal/buddy/internal/utils"
	"golang.org/x/exp/slog"
)

// CreateFlags indicate specific tree behaviors to activate or deactivate
type CreateFlags int32

const (
	// CreateSynchronized guards every tree method with an internal mutex. Trees are not safe
	// for concurrent use without it. Placement is unaffected: each operation still runs to
	// completion before the next begins.
	CreateSynchronized CreateFlags = 1 << iota
)

var createFlagsMapping = map[CreateFlags]string{
	CreateSynchronized: "CreateSynchronized",
}

func (f CreateFlags) String() string {
	if f == 0 {
		return "None"
	}

	var names []string
	for bit := CreateFlags(1); bit != 0 && bit <= f; bit <<= 1 {
		if f&bit == 0 {
			continue
		}

		name, ok := createFlagsMapping[bit]
		if !ok {
			name = "Unknown"
		}
		names = append(names, name)
	}

	return strings.Join(names, "|")
}

const (
	// DefaultArenaCapacity is the ArenaCapacity used when CreateOptions does not provide one. It is equal to 1Mb.
	DefaultArenaCapacity int = 1024 * 1024
	// DefaultBaseUnit is the BaseUnit used when CreateOptions does not provide one. It is equal to 64Kb.
	DefaultBaseUnit int = 64 * 1024
)

// CreateOptions contains optional settings when creating a tree
type CreateOptions struct {
	// Flags indicates specific tree behaviors to activate or deactivate
	Flags CreateFlags
	// ArenaCapacity is the number of arena bytes managed by the tree. It must be a power of two
	// and no larger than the arena. Defaults to DefaultArenaCapacity.
	ArenaCapacity int
	// BaseUnit is the capacity of the smallest block the tree will split down to. It must be a
	// power of two no larger than ArenaCapacity. Defaults to DefaultBaseUnit.
	BaseUnit int
}

// New creates a tree whose single root leaf covers the first options.ArenaCapacity bytes of memory.
// Nothing is allocated until Allocate is called. If logger is nil, slog.Default() is used.
func New(logger *slog.Logger, memory arena.Arena, options CreateOptions) (*Tree, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if memory == nil {
		return nil, errors.Wrap(buddy.ErrInvalidConfig, "no arena was provided")
	}

	if options.ArenaCapacity == 0 {
		options.ArenaCapacity = DefaultArenaCapacity
	}
	if options.BaseUnit == 0 {
		options.BaseUnit = DefaultBaseUnit
	}

	if options.ArenaCapacity < 0 {
		return nil, errors.Wrapf(buddy.ErrInvalidConfig, "arena capacity must be positive, got %d", options.ArenaCapacity)
	}
	if options.BaseUnit < 0 {
		return nil, errors.Wrapf(buddy.ErrInvalidConfig, "base unit must be positive, got %d", options.BaseUnit)
	}

	err := buddy.CheckPow2(options.ArenaCapacity, "arena capacity")
	if err != nil {
		return nil, errors.Mark(err, buddy.ErrInvalidConfig)
	}
	err = buddy.CheckPow2(options.BaseUnit, "base unit")
	if err != nil {
		return nil, errors.Mark(err, buddy.ErrInvalidConfig)
	}

	if options.BaseUnit > options.ArenaCapacity {
		return nil, errors.Wrapf(buddy.ErrInvalidConfig, "base unit %d is larger than the arena capacity %d", options.BaseUnit, options.ArenaCapacity)
	}

	data := memory.Bytes()
	if len(data) < options.ArenaCapacity {
		return nil, errors.Wrapf(buddy.ErrInvalidConfig, "arena holds %d bytes, but a capacity of %d was requested", len(data), options.ArenaCapacity)
	}

	maxHeight := buddy.Log2(options.ArenaCapacity / options.BaseUnit)

	t := &Tree{
		logger:      logger,
		data:        data[:options.ArenaCapacity:options.ArenaCapacity],
		baseUnit:    options.BaseUnit,
		maxHeight:   maxHeight,
		root:        newNode(0, maxHeight),
		allocations: swiss.NewMap[int, *node](uint32(maxHeight + 1)),
	}
	t.mutex.UseMutex = options.Flags&CreateSynchronized != 0

	logger.Debug("Tree::New",
		slog.Int("ArenaCapacity", options.ArenaCapacity),
		slog.Int("BaseUnit", options.BaseUnit),
		slog.Int("MaxHeight", maxHeight),
		slog.String("Flags", options.Flags.String()))

	return t, nil
}

// Tree is a buddy-block allocator over a fixed arena. The arena is recursively halved into
// power-of-two blocks; each leaf of the tree is either free or holds exactly one allocation.
type Tree struct {
	logger *slog.Logger
	mutex  utils.OptionalMutex
	data   []byte

	baseUnit  int
	maxHeight int
	root      *node

	allocations     *swiss.Map[int, *node]
	allocationBytes int
}

// Capacity returns the number of arena bytes managed by the tree
func (t *Tree) Capacity() int { return len(t.data) }

// BaseUnit returns the capacity of a height 0 block
func (t *Tree) BaseUnit() int { return t.baseUnit }

// MaxHeight returns the height of the root block
func (t *Tree) MaxHeight() int { return t.maxHeight }
