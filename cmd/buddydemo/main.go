// Command buddydemo drives a buddy tree interactively: it prints the tree, then allocates or
// releases blocks as directed on stdin until a negative number is entered.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/arsenal/buddy/arena"
	"github.com/vkngwrapper/arsenal/buddy/tree"
	"golang.org/x/exp/slog"
)

func main() {
	capacity := flag.Int("capacity", tree.DefaultArenaCapacity, "arena size in bytes, a power of two")
	baseUnit := flag.Int("base", tree.DefaultBaseUnit, "smallest block size in bytes, a power of two")
	useMmap := flag.Bool("mmap", false, "back the arena with an anonymous memory mapping instead of the Go heap")
	verbose := flag.Bool("v", false, "log splits, merges, allocations and releases")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	err := runDemo(logger, *capacity, *baseUnit, *useMmap)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func acquireArena(size int, useMmap bool) (arena.Arena, error) {
	if useMmap {
		return arena.NewMmapArena(size)
	}
	return arena.NewHeapArena(size)
}

func runDemo(logger *slog.Logger, capacity, baseUnit int, useMmap bool) (err error) {
	memory, err := acquireArena(capacity, useMmap)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.CombineErrors(err, memory.Release())
	}()

	bt, err := tree.New(logger, memory, tree.CreateOptions{
		ArenaCapacity: capacity,
		BaseUnit:      baseUnit,
	})
	if err != nil {
		return err
	}

	s := newSession(os.Stdin, os.Stdout, bt)
	err = s.run()

	return errors.CombineErrors(err, bt.Destroy())
}
