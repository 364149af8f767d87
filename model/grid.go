package model

import (
	"crypto/md5"
	"fmt"

	"github.com/pkg/errors"
)

// Grid is a square board of binary cells stored row-major in one flat buffer.
// Coordinates are (x, y) with 0 <= x, y < Size().
type Grid struct {
	size  int
	cells []bool
}

// NewGrid creates an empty grid with the given side length
func NewGrid(size int) *Grid {
	if size <= 0 {
		size = 1
	}
	return &Grid{
		size:  size,
		cells: make([]bool, size*size),
	}
}

// Size returns the side length of the grid
func (g *Grid) Size() int {
	return g.size
}

// Reset resizes the grid and clears every cell
func (g *Grid) Reset(size int) {
	if size <= 0 {
		size = 1
	}
	g.size = size
	if cap(g.cells) < size*size {
		g.cells = make([]bool, size*size)
		return
	}
	g.cells = g.cells[:size*size]
	g.Clear()
}

// Clear kills all cells
func (g *Grid) Clear() {
	for i := range g.cells {
		g.cells[i] = false
	}
}

// InBounds reports whether (x, y) addresses a cell of the grid
func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && x < g.size && y >= 0 && y < g.size
}

func (g *Grid) index(x, y int) int {
	return y*g.size + x
}

func (g *Grid) checkBounds(x, y int) error {
	if !g.InBounds(x, y) {
		return errors.Wrapf(ErrOutOfRange, "(%d,%d) on a %dx%d grid", x, y, g.size, g.size)
	}
	return nil
}

// Get returns the state of a cell
func (g *Grid) Get(x, y int) (bool, error) {
	if err := g.checkBounds(x, y); err != nil {
		return false, errors.Wrap(err, "[Grid.Get]")
	}
	return g.cells[g.index(x, y)], nil
}

// Set sets a cell to alive (true) or dead (false)
func (g *Grid) Set(x, y int, alive bool) error {
	if err := g.checkBounds(x, y); err != nil {
		return errors.Wrap(err, "[Grid.Set]")
	}
	g.cells[g.index(x, y)] = alive
	return nil
}

// ForEach visits every cell in row-major order.
func (g *Grid) ForEach(fn func(x, y int, living bool)) {
	for y := range g.size {
		for x := range g.size {
			fn(x, y, g.cells[g.index(x, y)])
		}
	}
}

// wrap maps any integer onto [0, size).
func (g *Grid) wrap(v int) int {
	v %= g.size
	if v < 0 {
		v += g.size
	}
	return v
}

// neighbors counts living neighbors with toroidal wrap. A wrapped offset that
// lands back on (x, y) is skipped, so a 1x1 grid always reports 0.
func (g *Grid) neighbors(x, y int) int {
	count := 0
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			nx, ny := g.wrap(x+dx), g.wrap(y+dy)
			if nx == x && ny == y {
				continue
			}
			if g.cells[g.index(nx, ny)] {
				count++
			}
		}
	}
	return count
}

// CountLivingNeighbors returns the number of living cells among the eight
// toroidal neighbors of (x, y).
func (g *Grid) CountLivingNeighbors(x, y int) (int, error) {
	if err := g.checkBounds(x, y); err != nil {
		return 0, errors.Wrap(err, "[Grid.CountLivingNeighbors]")
	}
	return g.neighbors(x, y), nil
}

// CountLivingCells returns the total number of living cells
func (g *Grid) CountLivingCells() (count int) {
	for _, alive := range g.cells {
		if alive {
			count++
		}
	}
	return
}

// Clone returns an independent copy of the grid
func (g *Grid) Clone() *Grid {
	c := &Grid{size: g.size, cells: make([]bool, len(g.cells))}
	copy(c.cells, g.cells)
	return c
}

// CopyFrom overwrites g with the contents of src, resizing when needed
func (g *Grid) CopyFrom(src *Grid) {
	if g.size != src.size || len(g.cells) != len(src.cells) {
		g.size = src.size
		g.cells = make([]bool, len(src.cells))
	}
	copy(g.cells, src.cells)
}

// Equal reports whether both grids have the same size and cells
func (g *Grid) Equal(o *Grid) bool {
	if o == nil || g.size != o.size {
		return false
	}
	for i, alive := range g.cells {
		if o.cells[i] != alive {
			return false
		}
	}
	return true
}

// GetGridHash returns an MD5 hash of the current grid state
func (g *Grid) GetGridHash() string {
	h := md5.New()
	buf := make([]byte, len(g.cells))
	for i, alive := range g.cells {
		if alive {
			buf[i] = 1
		}
	}
	h.Write(buf)
	return fmt.Sprintf("%x", h.Sum(nil))
}
