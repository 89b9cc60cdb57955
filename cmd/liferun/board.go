package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sbl8/lifestep/core"
	"github.com/sbl8/lifestep/pattern"
)

const snapshotExt = ".lfs"

// board is a grid ready for the engine plus where it came from.
type board struct {
	name       string
	grid       core.Grid
	generation uint64
}

type boardFlags struct {
	minHeight int
	minWidth  int
	random    string
	density   float64
	seed      int64
}

// loadBoard reads path, or builds a random board when path is empty.
// Snapshots are used as stored; patterns are placed on a board of at least
// the minimum size with a dead border.
func loadBoard(path string, f boardFlags) (*board, error) {
	if path == "" {
		if f.random == "" {
			return nil, fmt.Errorf("need a pattern file or --random HxW")
		}
		var h, w int
		if _, err := fmt.Sscanf(strings.ToLower(f.random), "%dx%d", &h, &w); err != nil {
			return nil, fmt.Errorf("invalid --random %q, want HxW: %w", f.random, err)
		}
		p, err := pattern.Random(h, w, f.density, f.seed)
		if err != nil {
			return nil, err
		}
		g, err := p.ToGrid(f.minHeight, f.minWidth)
		if err != nil {
			return nil, err
		}
		return &board{name: p.Name, grid: g}, nil
	}

	if strings.EqualFold(filepath.Ext(path), snapshotExt) {
		fh, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer fh.Close()
		g, gen, err := pattern.ReadSnapshot(fh)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return &board{name: filepath.Base(path), grid: g, generation: gen}, nil
	}

	p, err := pattern.Load(path)
	if err != nil {
		return nil, err
	}
	g, err := p.ToGrid(f.minHeight, f.minWidth)
	if err != nil {
		return nil, err
	}
	return &board{name: p.Name, grid: g}, nil
}

// saveBoard writes b to path as a snapshot or a pattern file, by extension.
// Pattern files keep the interior only: the frozen border is re-added on load.
func saveBoard(path string, b *board) (err error) {
	if strings.EqualFold(filepath.Ext(path), snapshotExt) {
		fh, err := os.Create(path)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := fh.Close(); err == nil {
				err = cerr
			}
		}()
		return pattern.WriteSnapshot(fh, b.grid, b.generation)
	}
	g := b.grid
	p := pattern.FromGrid(g.Sub(1, 1, g.Height-2, g.Width-2))
	p.Name = b.name
	p.Comments = []string{fmt.Sprintf("generation %d", b.generation)}
	return pattern.Save(path, p)
}
