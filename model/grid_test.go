package model

import (
	"testing"

	"github.com/pkg/errors"
)

func gridFromRows(t *testing.T, rows ...string) *Grid {
	t.Helper()
	g, err := ParseRows(len(rows), rows)
	if err != nil {
		t.Fatalf("ParseRows: %v", err)
	}
	return g
}

func TestGridGetSetOutOfRange(t *testing.T) {
	g := NewGrid(4)
	for _, c := range [][2]int{{-1, 0}, {0, -1}, {4, 0}, {0, 4}, {10, 10}} {
		if err := g.Set(c[0], c[1], true); !errors.Is(err, ErrOutOfRange) {
			t.Fatalf("Set(%d,%d) error = %v, want ErrOutOfRange", c[0], c[1], err)
		}
		if _, err := g.Get(c[0], c[1]); !errors.Is(err, ErrOutOfRange) {
			t.Fatalf("Get(%d,%d) error = %v, want ErrOutOfRange", c[0], c[1], err)
		}
		if _, err := g.CountLivingNeighbors(c[0], c[1]); !errors.Is(err, ErrOutOfRange) {
			t.Fatalf("CountLivingNeighbors(%d,%d) error = %v, want ErrOutOfRange", c[0], c[1], err)
		}
	}
	if g.CountLivingCells() != 0 {
		t.Fatal("out-of-range Set must not touch the grid")
	}
}

func TestCountLivingNeighborsWrapsAround(t *testing.T) {
	g := gridFromRows(t,
		"#...#",
		".....",
		".....",
		".....",
		"#...#",
	)
	// every corner sees the other three through the torus
	for _, c := range [][2]int{{0, 0}, {4, 0}, {0, 4}, {4, 4}} {
		n, err := g.CountLivingNeighbors(c[0], c[1])
		if err != nil {
			t.Fatal(err)
		}
		if n != 3 {
			t.Fatalf("corner (%d,%d) has %d neighbors, want 3", c[0], c[1], n)
		}
	}
	if n, _ := g.CountLivingNeighbors(2, 2); n != 0 {
		t.Fatalf("centre has %d neighbors, want 0", n)
	}
}

func TestCountLivingNeighborsFull(t *testing.T) {
	g := gridFromRows(t, "###", "###", "###")
	g.ForEach(func(x, y int, _ bool) {
		if n, _ := g.CountLivingNeighbors(x, y); n != 8 {
			t.Fatalf("(%d,%d) has %d neighbors, want 8", x, y, n)
		}
	})
}

func TestSingleCellGridHasNoNeighbors(t *testing.T) {
	g := gridFromRows(t, "#")
	n, err := g.CountLivingNeighbors(0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("1x1 grid neighbor count = %d, want 0", n)
	}
}

func TestTwoByTwoCountsWrappedOffsetsTwice(t *testing.T) {
	g := gridFromRows(t, "#.", "..")
	want := map[[2]int]int{{0, 0}: 0, {1, 0}: 2, {0, 1}: 2, {1, 1}: 4}
	for c, w := range want {
		if n, _ := g.CountLivingNeighbors(c[0], c[1]); n != w {
			t.Fatalf("(%d,%d) has %d neighbors, want %d", c[0], c[1], n, w)
		}
	}
}

func TestGridCloneIsIndependent(t *testing.T) {
	g := gridFromRows(t, "#..", ".#.", "..#")
	c := g.Clone()
	if !g.Equal(c) || g.GetGridHash() != c.GetGridHash() {
		t.Fatal("clone differs from original")
	}
	if err := c.Set(0, 0, false); err != nil {
		t.Fatal(err)
	}
	if g.Equal(c) {
		t.Fatal("mutating the clone changed the original")
	}
	if g.GetGridHash() == c.GetGridHash() {
		t.Fatal("different grids share a hash")
	}
}

func TestGridPoolReturnsClearedGrid(t *testing.T) {
	pool := NewGridPool()
	g := pool.Get(6)
	if g.Size() != 6 || g.CountLivingCells() != 0 {
		t.Fatalf("pool grid size=%d living=%d", g.Size(), g.CountLivingCells())
	}
	g.Set(1, 1, true)
	GridToPool(g, pool)
	g = pool.Get(3)
	if g.Size() != 3 || g.CountLivingCells() != 0 {
		t.Fatalf("reused grid size=%d living=%d", g.Size(), g.CountLivingCells())
	}
	GridToPool(g, nil)
}
